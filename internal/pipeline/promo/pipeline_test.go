package promo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/andresuchdata/promo-dispatch/internal/domain"
	"github.com/andresuchdata/promo-dispatch/internal/pipeline"
)

func sampleInput() Input {
	return Input{
		Label: "sample",
		Inventory: inventoryTable(
			inventoryRow("1", "RF", "S01", "1", "2", "1", "0", "30", "2", "1", "group"),
			inventoryRow("1", "RF", "D001", "1", "20", "0", "0", "0", "0", "2", "group"),
			inventoryRow("2", "ND", "S01", "6", "0", "0", "0", "90", "0", "9", "other"),
			inventoryRow("3", "RF", "S77", "4", "1", "0", "2", "15", "0", "2", "other"),
		),
		Promotions: promotionTable(
			[]string{"1", "1", "5", "HK", "0", "10"},
			[]string{"2", "2", "8", "ALL", "7", "14"},
		),
		Sites: siteTable(
			[]string{"S01", "50", "30", "20"},
			[]string{"D001", "0", "0", "0"},
		),
		Params: Params{LeadTime: 2, CurrentDay: 2},
	}
}

func TestPipelineRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := NewPipeline(zerolog.Nop(), Options{IntermediateDir: dir, PersistLayers: true})

	result, err := p.Run(context.Background(), sampleInput())
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}

	if len(result.Rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(result.Rows))
	}
	first := result.Rows[0]
	if !approxEqual(first.NetDemand, 11.5) || !approxEqual(first.SuggestedDispatchQty, 12) {
		t.Fatalf("first row net %v dispatch %v", first.NetDemand, first.SuggestedDispatchQty)
	}
	if result.Rows[1].DispatchType != "D001" {
		t.Fatalf("depot row dispatch type = %q", result.Rows[1].DispatchType)
	}
	if result.Rows[2].SupplySource != domain.SupplySourceInvalid || result.Rows[2].Notification != "" {
		t.Fatalf("invalid source row = %+v", result.Rows[2])
	}

	unmatched := result.Rows[3]
	if unmatched.PromotionMatched || unmatched.SiteMatched ||
		!unmatched.Notes.Has(domain.NoteUnmatchedArticle) || !unmatched.Notes.Has(domain.NoteUnmatchedSite) {
		t.Fatalf("unmatched row notes = %q", unmatched.Notes.String())
	}

	want := domain.RunStats{
		InventoryRows: 4, PromotionRows: 2, SiteRows: 2, MergedRows: 4,
		UnmatchedArticles: 1, UnmatchedSites: 1, RowsWithCorrection: 1, Notifications: 2,
	}
	if !reflect.DeepEqual(result.Stats, want) {
		t.Fatalf("stats = %+v, want %+v", result.Stats, want)
	}

	if len(result.ProductSummary) == 0 || result.ProductSummary[0].DepotNetStock != 20 {
		t.Fatalf("product summary = %+v", result.ProductSummary)
	}

	for _, layer := range []string{
		filepath.Join("1_normalized", "sample", "inventory.csv"),
		filepath.Join("1_normalized", "sample", "site_targets.csv"),
		filepath.Join("2_merged", "sample", "merged.csv"),
		filepath.Join("3_calculated", "sample", "calculated.csv"),
	} {
		if _, err := os.Stat(filepath.Join(dir, layer)); err != nil {
			t.Fatalf("layer %s not written: %v", layer, err)
		}
	}
}

// Scenario B: a missing column aborts with no partial result.
func TestPipelineRunSchemaFailure(t *testing.T) {
	t.Parallel()

	in := sampleInput()
	header := append([]string{}, inventoryHeader[:len(inventoryHeader)-1]...)
	in.Inventory = pipeline.NewTable("inventory", header, nil)

	dir := t.TempDir()
	p := NewPipeline(zerolog.Nop(), Options{IntermediateDir: dir, PersistLayers: true})
	result, err := p.Run(context.Background(), in)
	if result != nil {
		t.Fatalf("expected no result, got %+v", result)
	}
	var schemaErr *domain.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if !reflect.DeepEqual(schemaErr.Missing, []string{"Description p. group"}) {
		t.Fatalf("missing = %v", schemaErr.Missing)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("no layer may be written on schema failure, found %d entries", len(entries))
	}
}

func TestPipelineRunIsRepeatable(t *testing.T) {
	t.Parallel()

	p := NewPipeline(zerolog.Nop(), Options{})
	first, err := p.Run(context.Background(), sampleInput())
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}
	second, err := p.Run(context.Background(), sampleInput())
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("two runs over the same input differ")
	}
}

func TestPipelineRunRejectsBadParams(t *testing.T) {
	t.Parallel()

	in := sampleInput()
	in.Params.LeadTime = -1
	_, err := NewPipeline(zerolog.Nop(), Options{}).Run(context.Background(), in)
	if !errors.Is(err, domain.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestPipelineRunHonoursCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewPipeline(zerolog.Nop(), Options{}).Run(ctx, sampleInput())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPipelineRunRecoversHugeCells(t *testing.T) {
	t.Parallel()

	in := sampleInput()
	in.Inventory = inventoryTable(
		inventoryRow("1", "RF", "S01", "1", "1e20", "1", "0", "30", "2", "1", "group"),
	)
	in.Promotions = promotionTable([]string{"1", "1", "5", "HK", "5e18", "5e18"})

	result, err := NewPipeline(zerolog.Nop(), Options{}).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}
	r := result.Rows[0]
	if r.NetStock != domain.QuantityCap || !r.Notes.Has(domain.NoteOutOfRangeClamped) {
		t.Fatalf("row = %+v", r)
	}
	if r.RegularDemand < 0 || r.TotalDemand < 0 {
		t.Fatalf("negative demand: regular=%v total=%v", r.RegularDemand, r.TotalDemand)
	}
}
