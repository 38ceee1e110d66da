// Package app wires configuration into an AnalysisService for the commands.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/andresuchdata/promo-dispatch/internal/cache"
	"github.com/andresuchdata/promo-dispatch/internal/config"
	"github.com/andresuchdata/promo-dispatch/internal/drive"
	"github.com/andresuchdata/promo-dispatch/internal/pipeline/promo"
	"github.com/andresuchdata/promo-dispatch/internal/repository"
	"github.com/andresuchdata/promo-dispatch/internal/repository/postgres"
	"github.com/andresuchdata/promo-dispatch/internal/service"
	"github.com/andresuchdata/promo-dispatch/internal/storage"
)

// Sources selects the optional input sources to connect.
type Sources struct {
	Storage  bool
	Database bool
	Drive    bool
}

// App holds the wired service and the clients it owns.
type App struct {
	Analysis *service.AnalysisService
	Storage  storage.ObjectStorage
	Drive    *drive.Service

	reports cache.ReportStore
	db      *postgres.DB
}

// New connects the requested sources and builds the AnalysisService. A requested
// source that is not configured is an error; Close releases what New opened.
func New(ctx context.Context, cfg *config.Config, sources Sources, log zerolog.Logger) (*App, error) {
	reports, err := cache.NewReportStore(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to create report store: %w", err)
	}

	a := &App{reports: reports}
	deps := service.Deps{
		Pipeline: promo.NewPipeline(log, promo.Options{
			IntermediateDir: cfg.App.IntermediateDir,
			PersistLayers:   cfg.App.PersistLayers,
		}),
		Reports:        reports,
		Defaults:       cfg.Analysis,
		InputPrefix:    cfg.Storage.InputPrefix,
		ExportPrefix:   cfg.Storage.ExportPrefix,
		InventoryQuery: cfg.Database.InventoryQuery,
		Log:            log,
	}

	if sources.Storage {
		if !cfg.Storage.Enabled() {
			a.Close()
			return nil, fmt.Errorf("%w: STORAGE_BUCKET is not set", service.ErrSourceUnavailable)
		}
		a.Storage, err = storage.New(ctx, storage.Config{
			Backend:   cfg.Storage.Backend,
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create object storage client: %w", err)
		}
		deps.Storage = a.Storage
	}

	if sources.Database {
		a.db, err = postgres.NewDB(&cfg.Database)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		deps.Tables = repository.NewTableRepository(a.db)
	}

	if sources.Drive {
		a.Drive, err = drive.NewService(ctx, cfg.Drive.CredentialsJSON)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize Google Drive service: %w", err)
		}
		deps.Drive = a.Drive
	}

	a.Analysis = service.NewAnalysisService(deps)
	return a, nil
}

// Close releases the report store and the database pool, if one was opened.
func (a *App) Close() error {
	var errs []error
	if a.reports != nil {
		errs = append(errs, a.reports.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
