package promo

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/andresuchdata/promo-dispatch/internal/domain"
	"github.com/andresuchdata/promo-dispatch/internal/pipeline"
)

// Input holds the three raw tables and the parameters of one run.
type Input struct {
	// Label names the run in logs and intermediate layer paths.
	Label      string
	Inventory  *pipeline.Table
	Promotions *pipeline.Table
	Sites      *pipeline.Table
	Params     Params
}

// Result is everything a run produced.
type Result struct {
	Params         Params
	Inventory      []domain.InventoryRecord
	Promotions     []domain.PromotionTarget
	Sites          []domain.SiteTarget
	Rows           []domain.CalculatedRow
	SiteSummary    []domain.SummaryRow
	ProductSummary []domain.ProductSummaryRow
	Stats          domain.RunStats
}

// Options configures the optional debug output of a Pipeline.
type Options struct {
	// IntermediateDir is the root directory for per-run intermediate CSV layers:
	//   1_normalized/  - normalized inventory, promotion and site tables
	//   2_merged/      - merged table
	//   3_calculated/  - table with demand and dispatch figures
	// Layers are written only when PersistLayers is true.
	IntermediateDir string
	PersistLayers   bool
}

// Pipeline runs validation, normalization, merge, demand calculation and aggregation
// as one synchronous batch.
type Pipeline struct {
	log  zerolog.Logger
	opts Options
}

// NewPipeline creates a pipeline logging to log.
func NewPipeline(log zerolog.Logger, opts Options) *Pipeline {
	if opts.IntermediateDir == "" {
		opts.IntermediateDir = filepath.Join("data", "intermediate", "promo")
	}
	return &Pipeline{log: log, opts: opts}
}

// Run executes one analysis. A missing column in any table aborts with a
// *domain.SchemaError before anything is normalized; a violated invariant aborts with a
// *domain.ComputationDefect. ctx is checked between stages.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Result, error) {
	params := in.Params
	if err := params.Validate(); err != nil {
		return nil, err
	}
	label := in.Label
	if label == "" {
		label = "run"
	}
	log := p.log.With().Str("run", label).Logger()

	// 1) Validate every table before touching any of them
	tables := []struct {
		table *pipeline.Table
		role  Role
	}{
		{in.Inventory, RoleInventory},
		{in.Promotions, RolePromotionTarget},
		{in.Sites, RoleSiteTarget},
	}
	for _, t := range tables {
		if t.table == nil {
			return nil, domain.InvalidParameterf("no %s supplied", t.role)
		}
		if err := ValidateColumns(t.table, t.role); err != nil {
			log.Warn().Err(err).Msg("schema validation failed")
			return nil, err
		}
	}

	// 2) Normalize
	inventory, err := ValidateAndNormalize(in.Inventory, RoleInventory)
	if err != nil {
		return nil, err
	}
	promotions, err := ValidateAndNormalize(in.Promotions, RolePromotionTarget)
	if err != nil {
		return nil, err
	}
	sites, err := ValidateAndNormalize(in.Sites, RoleSiteTarget)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Int("inventory", inventory.Len()).
		Int("promotions", promotions.Len()).
		Int("sites", sites.Len()).
		Msg("normalized input tables")

	if p.opts.PersistLayers {
		if err := p.writeLayer(label, "1_normalized", "inventory.csv", RenderTable("inventory", InventoryColumns, inventory.Inventory)); err != nil {
			return nil, fmt.Errorf("failed to write normalized inventory layer: %w", err)
		}
		if err := p.writeLayer(label, "1_normalized", "promotion_targets.csv", RenderTable("promotion targets", PromotionColumns, promotions.Promotions)); err != nil {
			return nil, fmt.Errorf("failed to write normalized promotion layer: %w", err)
		}
		if err := p.writeLayer(label, "1_normalized", "site_targets.csv", RenderTable("site targets", SiteColumns, sites.Sites)); err != nil {
			return nil, fmt.Errorf("failed to write normalized site layer: %w", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 3) Merge
	merged := Merge(inventory.Inventory, promotions.Promotions, sites.Sites)
	log.Debug().Int("rows", len(merged)).Msg("merged tables")
	if p.opts.PersistLayers {
		if err := p.writeLayer(label, "2_merged", "merged.csv", RenderTable("merged", MergedColumns, merged)); err != nil {
			return nil, fmt.Errorf("failed to write merged layer: %w", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 4) Calculate demand and dispatch
	rows, siteSummary, err := CalculateDemand(merged, params)
	if err != nil {
		log.Error().Err(err).Msg("demand calculation failed")
		return nil, err
	}
	if p.opts.PersistLayers {
		if err := p.writeLayer(label, "3_calculated", "calculated.csv", RenderTable("calculated", CalculatedColumns, rows)); err != nil {
			return nil, fmt.Errorf("failed to write calculated layer: %w", err)
		}
	}

	// 5) Aggregate by product with the depot pivot
	productSummary := SummarizeByProduct(rows, params.CentralDepot)

	result := &Result{
		Params:         params,
		Inventory:      inventory.Inventory,
		Promotions:     promotions.Promotions,
		Sites:          sites.Sites,
		Rows:           rows,
		SiteSummary:    siteSummary,
		ProductSummary: productSummary,
		Stats:          collectStats(inventory.Inventory, promotions.Promotions, sites.Sites, rows),
	}

	log.Info().
		Int("rows", result.Stats.MergedRows).
		Int("unmatched_articles", result.Stats.UnmatchedArticles).
		Int("unmatched_sites", result.Stats.UnmatchedSites).
		Int("notifications", result.Stats.Notifications).
		Msg("analysis completed")

	return result, nil
}

func collectStats(inv []domain.InventoryRecord, promos []domain.PromotionTarget, sites []domain.SiteTarget, rows []domain.CalculatedRow) domain.RunStats {
	stats := domain.RunStats{
		InventoryRows: len(inv),
		PromotionRows: len(promos),
		SiteRows:      len(sites),
		MergedRows:    len(rows),
	}
	for _, r := range inv {
		if len(r.Notes) > 0 {
			stats.RowsWithCorrection++
		}
	}
	for _, r := range rows {
		if !r.PromotionMatched {
			stats.UnmatchedArticles++
		}
		if !r.SiteMatched {
			stats.UnmatchedSites++
		}
		if r.Notification != "" {
			stats.Notifications++
		}
	}
	return stats
}

func (p *Pipeline) writeLayer(label, stage, fileName string, t *pipeline.Table) error {
	baseDir := filepath.Join(p.opts.IntermediateDir, stage, label)
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return err
	}

	path := filepath.Join(baseDir, fileName)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		return err
	}
	if err := w.WriteAll(t.Records); err != nil {
		return err
	}

	p.log.Debug().Str("path", path).Int("rows", t.Len()).Msg("wrote intermediate layer")
	return nil
}
