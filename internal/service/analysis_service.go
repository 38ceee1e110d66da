package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/promo-dispatch/internal/cache"
	"github.com/andresuchdata/promo-dispatch/internal/config"
	"github.com/andresuchdata/promo-dispatch/internal/domain"
	"github.com/andresuchdata/promo-dispatch/internal/export"
	"github.com/andresuchdata/promo-dispatch/internal/pipeline"
	"github.com/andresuchdata/promo-dispatch/internal/pipeline/promo"
	"github.com/andresuchdata/promo-dispatch/internal/repository"
	"github.com/andresuchdata/promo-dispatch/internal/storage"
)

// ErrSourceUnavailable is returned when an analysis asks for an input source that is
// not configured (object storage, database or Drive).
var ErrSourceUnavailable = errors.New("input source not configured")

// DriveSource fetches a file by id together with its name.
type DriveSource interface {
	Fetch(ctx context.Context, fileID string) (File, error)
}

// ParamsInput carries the parameters a caller supplied; zero values take the
// configured defaults, and a zero CurrentDay takes today's day of month.
type ParamsInput struct {
	LeadTime   float64 `json:"lead_time" form:"lead_time"`
	CurrentDay int     `json:"current_day" form:"current_day"`
	Strategy   string  `json:"strategy" form:"strategy"`
}

// ParseParams reads parameters given as text (query string or form fields). Blank
// values keep their defaults; an explicit value must be in range.
func ParseParams(leadTime, currentDay, strategy string) (ParamsInput, error) {
	in := ParamsInput{Strategy: strings.TrimSpace(strategy)}
	if leadTime = strings.TrimSpace(leadTime); leadTime != "" {
		v, err := strconv.ParseFloat(leadTime, 64)
		if err != nil || v <= 0 {
			return in, domain.InvalidParameterf("lead_time %q must be a positive number", leadTime)
		}
		in.LeadTime = v
	}
	if currentDay = strings.TrimSpace(currentDay); currentDay != "" {
		v, err := strconv.Atoi(currentDay)
		if err != nil || v < 1 || v > 31 {
			return in, domain.InvalidParameterf("current_day %q must be a day of month", currentDay)
		}
		in.CurrentDay = v
	}
	return in, nil
}

// Deps wires an AnalysisService. Only Pipeline and Reports are required.
type Deps struct {
	Pipeline       *promo.Pipeline
	Reports        cache.ReportStore
	Storage        storage.ObjectStorage
	Tables         repository.TableRepository
	Drive          DriveSource
	Defaults       config.AnalysisConfig
	InputPrefix    string
	ExportPrefix   string
	InventoryQuery string
	Log            zerolog.Logger
}

// AnalysisService loads input tables from the configured sources, runs the promotion
// dispatch pipeline and keeps the resulting report for export and charting.
type AnalysisService struct {
	deps Deps
	now  func() time.Time
}

func NewAnalysisService(deps Deps) *AnalysisService {
	return &AnalysisService{deps: deps, now: time.Now}
}

// AnalyzeFiles runs an analysis over an inventory file and a targets workbook.
func (s *AnalysisService) AnalyzeFiles(ctx context.Context, inventory, targets File, in ParamsInput) (*domain.AnalysisReport, error) {
	params, err := s.resolveParams(in)
	if err != nil {
		return nil, err
	}

	inv, err := loadInventory(inventory)
	if err != nil {
		return nil, err
	}
	promotions, sites, err := loadTargets(targets)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, inv, promotions, sites, params)
}

// AnalyzeObjects fetches both input files from object storage concurrently. Keys are
// resolved under the configured input prefix.
func (s *AnalysisService) AnalyzeObjects(ctx context.Context, inventoryKey, targetsKey string, in ParamsInput) (*domain.AnalysisReport, error) {
	if s.deps.Storage == nil {
		return nil, fmt.Errorf("%w: object storage", ErrSourceUnavailable)
	}
	fetch := func(ctx context.Context, key string) (File, error) {
		data, err := s.deps.Storage.GetObject(ctx, storage.ResolveKey(s.deps.InputPrefix, key))
		if err != nil {
			return File{}, err
		}
		return File{Name: path.Base(key), Data: data}, nil
	}

	inventory, targets, err := fetchPair(ctx, inventoryKey, targetsKey, fetch)
	if err != nil {
		return nil, err
	}
	return s.AnalyzeFiles(ctx, inventory, targets, in)
}

// AnalyzeDrive fetches both input files from Google Drive concurrently.
func (s *AnalysisService) AnalyzeDrive(ctx context.Context, inventoryID, targetsID string, in ParamsInput) (*domain.AnalysisReport, error) {
	if s.deps.Drive == nil {
		return nil, fmt.Errorf("%w: google drive", ErrSourceUnavailable)
	}
	inventory, targets, err := fetchPair(ctx, inventoryID, targetsID, s.deps.Drive.Fetch)
	if err != nil {
		return nil, err
	}
	return s.AnalyzeFiles(ctx, inventory, targets, in)
}

// AnalyzeDatabase reads the inventory table with the configured query and the
// targets from a workbook.
func (s *AnalysisService) AnalyzeDatabase(ctx context.Context, targets File, in ParamsInput) (*domain.AnalysisReport, error) {
	if s.deps.Tables == nil {
		return nil, fmt.Errorf("%w: database", ErrSourceUnavailable)
	}
	params, err := s.resolveParams(in)
	if err != nil {
		return nil, err
	}

	var (
		inv               *pipeline.Table
		promotions, sites *pipeline.Table
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		inv, err = s.deps.Tables.QueryTable(gctx, promo.RoleInventory.String(), s.deps.InventoryQuery)
		return err
	})
	g.Go(func() error {
		var err error
		promotions, sites, err = loadTargets(targets)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s.run(ctx, inv, promotions, sites, params)
}

// Report returns a stored report or an error wrapping domain.ErrReportNotFound.
func (s *AnalysisService) Report(ctx context.Context, id string) (*domain.AnalysisReport, error) {
	return s.deps.Reports.Get(ctx, id)
}

// DeleteReport drops a stored report before its TTL runs out.
func (s *AnalysisService) DeleteReport(ctx context.Context, id string) error {
	if _, err := s.deps.Reports.Get(ctx, id); err != nil {
		return err
	}
	if err := s.deps.Reports.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete report %s: %w", id, err)
	}
	s.deps.Log.Info().Str("report", id).Msg("analysis report deleted")
	return nil
}

// ClearReports drops every stored report.
func (s *AnalysisService) ClearReports(ctx context.Context) error {
	if err := s.deps.Reports.InvalidateAll(ctx); err != nil {
		return fmt.Errorf("failed to clear reports: %w", err)
	}
	s.deps.Log.Info().Msg("analysis reports cleared")
	return nil
}

// Export writes the stored report as an xlsx workbook.
func (s *AnalysisService) Export(ctx context.Context, id string, w io.Writer) (string, error) {
	report, err := s.deps.Reports.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if err := export.WriteReport(w, report); err != nil {
		return "", err
	}
	return export.FileName(report), nil
}

// ExportToStorage uploads the xlsx workbook of a stored report and returns its key.
func (s *AnalysisService) ExportToStorage(ctx context.Context, id string) (string, error) {
	if s.deps.Storage == nil {
		return "", fmt.Errorf("%w: object storage", ErrSourceUnavailable)
	}

	var buf bytes.Buffer
	name, err := s.Export(ctx, id, &buf)
	if err != nil {
		return "", err
	}

	key := storage.ResolveKey(s.deps.ExportPrefix, name)
	if err := s.deps.Storage.PutObject(ctx, key, buf.Bytes(), export.ContentType); err != nil {
		return "", err
	}
	s.deps.Log.Info().Str("report", id).Str("key", key).Int("bytes", buf.Len()).Msg("report exported to object storage")
	return key, nil
}

// Charts builds the dashboard series of a stored report, optionally for one group.
func (s *AnalysisService) Charts(ctx context.Context, id, group string) (*domain.ChartData, error) {
	report, err := s.deps.Reports.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	charts := export.BuildCharts(report, group)
	return &charts, nil
}

func (s *AnalysisService) run(ctx context.Context, inventory, promotions, sites *pipeline.Table, params promo.Params) (*domain.AnalysisReport, error) {
	id := uuid.NewString()
	start := s.now()

	result, err := s.deps.Pipeline.Run(ctx, promo.Input{
		Label:      id,
		Inventory:  inventory,
		Promotions: promotions,
		Sites:      sites,
		Params:     params,
	})
	if err != nil {
		return nil, err
	}

	report := &domain.AnalysisReport{
		ID:        id,
		CreatedAt: start.UTC(),
		Params: domain.AnalysisParams{
			LeadTime:     result.Params.LeadTime,
			CurrentDay:   result.Params.CurrentDay,
			Strategy:     result.Params.Strategy,
			CentralDepot: result.Params.CentralDepot,
		},
		Inventory:      result.Inventory,
		Rows:           result.Rows,
		SiteSummary:    result.SiteSummary,
		ProductSummary: result.ProductSummary,
		Stats:          result.Stats,
	}
	if err := s.deps.Reports.Put(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to store report: %w", err)
	}

	s.deps.Log.Info().
		Str("report", id).
		Int("rows", len(report.Rows)).
		Int("unmatched_articles", report.Stats.UnmatchedArticles).
		Int("unmatched_sites", report.Stats.UnmatchedSites).
		Int("notifications", report.Stats.Notifications).
		Dur("took", s.now().Sub(start)).
		Msg("analysis completed")
	return report, nil
}

func (s *AnalysisService) resolveParams(in ParamsInput) (promo.Params, error) {
	params := promo.Params{
		LeadTime:     in.LeadTime,
		CurrentDay:   in.CurrentDay,
		Strategy:     domain.DispatchStrategy(in.Strategy),
		CentralDepot: s.deps.Defaults.CentralDepot,
	}
	if params.LeadTime == 0 {
		params.LeadTime = s.deps.Defaults.LeadTime
	}
	if params.CurrentDay == 0 {
		params.CurrentDay = s.now().Day()
	}
	if params.Strategy == "" {
		params.Strategy = domain.DispatchStrategy(s.deps.Defaults.Strategy)
	}
	if err := params.Validate(); err != nil {
		return promo.Params{}, err
	}
	return params, nil
}

func fetchPair(ctx context.Context, inventoryRef, targetsRef string, fetch func(context.Context, string) (File, error)) (File, File, error) {
	if inventoryRef == "" || targetsRef == "" {
		return File{}, File{}, domain.InvalidParameterf("both the inventory and the targets file are required")
	}

	var inventory, targets File
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		inventory, err = fetch(gctx, inventoryRef)
		if err != nil {
			return fmt.Errorf("failed to fetch inventory %s: %w", inventoryRef, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		targets, err = fetch(gctx, targetsRef)
		if err != nil {
			return fmt.Errorf("failed to fetch targets %s: %w", targetsRef, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return File{}, File{}, err
	}
	return inventory, targets, nil
}
