package promo

import (
	"math"
	"testing"

	"github.com/andresuchdata/promo-dispatch/internal/pipeline"
)

var inventoryHeader = []string{
	"Article", "Article Description", "RP Type", "Site", "MOQ", "SaSa Net Stock", "Pending Received",
	"Safety Stock", "Last Month Sold Qty", "MTD Sold Qty", "Supply source", "Description p. group",
}

// inventoryRow builds a File A record in inventoryHeader order.
func inventoryRow(article, rp, site, moq, stock, pending, safety, lastMonth, mtd, source, group string) []string {
	return []string{article, "desc " + article, rp, site, moq, stock, pending, safety, lastMonth, mtd, source, group}
}

func inventoryTable(rows ...[]string) *pipeline.Table {
	return pipeline.NewTable("inventory", inventoryHeader, rows)
}

func promotionTable(rows ...[]string) *pipeline.Table {
	return pipeline.NewTable("promotions", []string{
		"Group No.", "Article", "SKU Target", "Target Type", "Promotion Days", "Target Cover Days",
	}, rows)
}

func siteTable(rows ...[]string) *pipeline.Table {
	return pipeline.NewTable("sites", []string{
		"Site", "Shop Target(HK)", "Shop Target(MO)", "Shop Target(ALL)",
	}, rows)
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func mustNormalize(t *testing.T, table *pipeline.Table, role Role) *NormalizedTable {
	t.Helper()
	n, err := ValidateAndNormalize(table, role)
	if err != nil {
		t.Fatalf("ValidateAndNormalize(%s) error = %v", role, err)
	}
	return n
}

func defaultParams() Params {
	return Params{LeadTime: 2, CurrentDay: 1}
}
