package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/promo-dispatch/internal/config"
	"github.com/andresuchdata/promo-dispatch/pkg/logger"
)

func paramFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Float64Flag{
			Name:  "lead-time",
			Usage: "Days between dispatch and arrival (defaults to ANALYSIS_LEAD_TIME)",
		},
		&cli.IntFlag{
			Name:  "current-day",
			Usage: "Day of month the MTD sales cover (defaults to today)",
		},
		&cli.StringFlag{
			Name:  "strategy",
			Usage: "Dispatch rounding: ceil_moq or max_moq (defaults to ANALYSIS_STRATEGY)",
		},
		&cli.StringFlag{
			Name:    "out",
			Usage:   "Directory for the xlsx report",
			EnvVars: []string{"APP_DATA_DIR"},
		},
		&cli.BoolFlag{
			Name:  "upload",
			Usage: "Also upload the report to object storage",
		},
	}
}

func main() {
	cfg := config.Load()
	logger.SetLevel(cfg.Server.LogLevel)

	app := &cli.App{
		Name:  "promo",
		Usage: "Plan promotion stock dispatch from inventory and target workbooks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.BoolFlag{
				Name:    "persist-layers",
				Usage:   "Write intermediate CSV layers under APP_INTERMEDIATE_DIR",
				EnvVars: []string{"APP_PERSIST_LAYERS"},
			},
		},
		Before: func(c *cli.Context) error {
			if lvl := c.String("log-level"); lvl != "" {
				logger.SetLevel(lvl)
			}
			if c.Bool("persist-layers") {
				cfg.App.PersistLayers = true
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "analyze",
				Usage: "Analyze a local inventory file (xlsx or csv) and targets workbook",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "inventory", Aliases: []string{"a"}, Usage: "File A: inventory", Required: true},
					&cli.StringFlag{Name: "targets", Aliases: []string{"b"}, Usage: "File B: targets workbook", Required: true},
				}, paramFlags()...),
				Action: func(c *cli.Context) error { return runAnalyze(c, cfg) },
			},
			{
				Name:  "analyze-objects",
				Usage: "Analyze an inventory and a targets workbook stored in object storage",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "inventory-key", Usage: "Object key of File A", Required: true},
					&cli.StringFlag{Name: "targets-key", Usage: "Object key of File B", Required: true},
				}, paramFlags()...),
				Action: func(c *cli.Context) error { return runAnalyzeObjects(c, cfg) },
			},
			{
				Name:  "analyze-db",
				Usage: "Analyze inventory read with DB_INVENTORY_QUERY against a local targets workbook",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "targets", Aliases: []string{"b"}, Usage: "File B: targets workbook", Required: true},
					&cli.StringFlag{Name: "query", Usage: "Override DB_INVENTORY_QUERY"},
				}, paramFlags()...),
				Action: func(c *cli.Context) error { return runAnalyzeDB(c, cfg) },
			},
			{
				Name:  "list-objects",
				Usage: "List input workbooks in object storage",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "prefix", Usage: "Key prefix (defaults to STORAGE_INPUT_PREFIX)"},
				},
				Action: func(c *cli.Context) error { return runListObjects(c, cfg) },
			},
			{
				Name:   "cache-clear",
				Usage:  "Drop every analysis report kept in the Redis report store",
				Action: func(c *cli.Context) error { return runCacheClear(c, cfg) },
			},
			{
				Name:  "drive-pull",
				Usage: "Download the spreadsheets of a Google Drive folder",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "folder-id", Usage: "Drive folder id", EnvVars: []string{"GOOGLE_DRIVE_FOLDER_ID"}},
					&cli.StringFlag{Name: "dir", Usage: "Download directory", Value: "./data/drive"},
				},
				Action: func(c *cli.Context) error { return runDrivePull(c, cfg) },
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("promo failed")
	}
}
