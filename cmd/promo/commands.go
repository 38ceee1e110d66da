package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/promo-dispatch/internal/app"
	"github.com/andresuchdata/promo-dispatch/internal/config"
	"github.com/andresuchdata/promo-dispatch/internal/domain"
	"github.com/andresuchdata/promo-dispatch/internal/drive"
	"github.com/andresuchdata/promo-dispatch/internal/service"
	"github.com/andresuchdata/promo-dispatch/pkg/logger"
)

func paramsFrom(c *cli.Context) service.ParamsInput {
	return service.ParamsInput{
		LeadTime:   c.Float64("lead-time"),
		CurrentDay: c.Int("current-day"),
		Strategy:   c.String("strategy"),
	}
}

func readFile(path string) (service.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return service.File{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return service.File{Name: filepath.Base(path), Data: data}, nil
}

func runAnalyze(c *cli.Context, cfg *config.Config) error {
	a, err := app.New(c.Context, cfg, app.Sources{Storage: c.Bool("upload")}, logger.Log)
	if err != nil {
		return err
	}
	defer a.Close()

	inventory, err := readFile(c.String("inventory"))
	if err != nil {
		return err
	}
	targets, err := readFile(c.String("targets"))
	if err != nil {
		return err
	}

	report, err := a.Analysis.AnalyzeFiles(c.Context, inventory, targets, paramsFrom(c))
	if err != nil {
		return err
	}
	return finish(c, a, cfg, report)
}

func runAnalyzeObjects(c *cli.Context, cfg *config.Config) error {
	a, err := app.New(c.Context, cfg, app.Sources{Storage: true}, logger.Log)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.Analysis.AnalyzeObjects(c.Context, c.String("inventory-key"), c.String("targets-key"), paramsFrom(c))
	if err != nil {
		return err
	}
	return finish(c, a, cfg, report)
}

func runAnalyzeDB(c *cli.Context, cfg *config.Config) error {
	if q := c.String("query"); q != "" {
		cfg.Database.InventoryQuery = q
	}
	a, err := app.New(c.Context, cfg, app.Sources{Database: true, Storage: c.Bool("upload")}, logger.Log)
	if err != nil {
		return err
	}
	defer a.Close()

	targets, err := readFile(c.String("targets"))
	if err != nil {
		return err
	}

	report, err := a.Analysis.AnalyzeDatabase(c.Context, targets, paramsFrom(c))
	if err != nil {
		return err
	}
	return finish(c, a, cfg, report)
}

func runListObjects(c *cli.Context, cfg *config.Config) error {
	a, err := app.New(c.Context, cfg, app.Sources{Storage: true}, logger.Log)
	if err != nil {
		return err
	}
	defer a.Close()

	prefix := c.String("prefix")
	if prefix == "" {
		prefix = cfg.Storage.InputPrefix
	}
	objects, err := a.Storage.ListObjects(c.Context, prefix)
	if err != nil {
		return err
	}
	for _, obj := range objects {
		name := strings.ToLower(obj.Key)
		if strings.HasSuffix(name, ".xlsx") || strings.HasSuffix(name, ".csv") {
			fmt.Fprintf(c.App.Writer, "%s\t%d\n", obj.Key, obj.Size)
		}
	}
	return nil
}

func runDrivePull(c *cli.Context, cfg *config.Config) error {
	a, err := app.New(c.Context, cfg, app.Sources{Drive: true}, logger.Log)
	if err != nil {
		return err
	}
	defer a.Close()

	paths, err := drive.NewDownloader(a.Drive).DownloadFolder(c.Context, drive.DownloadOptions{
		FolderID:    c.String("folder-id"),
		DownloadDir: c.String("dir"),
	})
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(c.App.Writer, p)
	}
	logger.Log.Info().Int("files", len(paths)).Str("dir", c.String("dir")).Msg("drive folder downloaded")
	return nil
}

func runCacheClear(c *cli.Context, cfg *config.Config) error {
	if !cfg.Cache.Enabled {
		logger.Log.Warn().Msg("CACHE_ENABLED is false, reports live only in the serving process")
		return nil
	}
	a, err := app.New(c.Context, cfg, app.Sources{}, logger.Log)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Analysis.ClearReports(c.Context)
}

// finish writes the xlsx report, optionally uploads it, and logs the run summary.
func finish(c *cli.Context, a *app.App, cfg *config.Config, report *domain.AnalysisReport) error {
	outDir := c.String("out")
	if outDir == "" {
		outDir = cfg.App.DataDir
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	var buf bytes.Buffer
	name, err := a.Analysis.Export(c.Context, report.ID, &buf)
	if err != nil {
		return err
	}
	outPath := filepath.Join(outDir, name)
	if err := os.WriteFile(outPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	event := logger.Log.Info().
		Str("report", report.ID).
		Str("file", outPath).
		Int("rows", report.Stats.MergedRows).
		Int("unmatched_articles", report.Stats.UnmatchedArticles).
		Int("unmatched_sites", report.Stats.UnmatchedSites).
		Int("rows_with_correction", report.Stats.RowsWithCorrection).
		Int("notifications", report.Stats.Notifications)

	if c.Bool("upload") {
		key, err := a.Analysis.ExportToStorage(c.Context, report.ID)
		if err != nil {
			return err
		}
		event = event.Str("object_key", key)
	}
	event.Msg("analysis report written")
	return nil
}
