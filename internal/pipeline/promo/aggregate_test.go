package promo

import (
	"testing"

	"github.com/andresuchdata/promo-dispatch/internal/domain"
)

func calculatedRow(group, article, site string, regular, promo, dispatch float64, stock int, notification string) domain.CalculatedRow {
	return domain.CalculatedRow{
		MergedRow: domain.MergedRow{
			InventoryRecord: domain.InventoryRecord{Article: article, Site: site, NetStock: stock, PendingReceived: 1, SafetyStock: 2},
			GroupNo:         group,
		},
		RegularDemand:        regular,
		PromoDemand:          promo,
		SuggestedDispatchQty: dispatch,
		OutOfStockQty:        1,
		Notification:         notification,
	}
}

func TestSummarizeBySite(t *testing.T) {
	t.Parallel()

	rows := []domain.CalculatedRow{
		calculatedRow("G1", "A1", "S01", 10, 2, 12, 3, "notify buyer (x): out of stock by 1"),
		calculatedRow("G1", "A2", "S01", 5, 1, 6, 4, "notify buyer (x): out of stock by 1"),
		calculatedRow("G2", "A1", "S01", 1, 0, 0, 3, ""),
	}
	summary := SummarizeBySite(rows)
	if len(summary) != 2 {
		t.Fatalf("groups = %d, want 2", len(summary))
	}
	s := summary[0]
	if s.GroupNo != "G1" || s.Rows != 2 || !approxEqual(s.TotalDemand, 18) || s.NetStock != 7 ||
		s.PendingReceived != 2 || s.SafetyStock != 4 || !approxEqual(s.DispatchQty, 18) || !approxEqual(s.OutOfStockQty, 2) {
		t.Fatalf("G1 summary = %+v", s)
	}
	if s.Notifications != "notify buyer (x): out of stock by 1" {
		t.Fatalf("digest should collapse repeats, got %q", s.Notifications)
	}
	if summary[1].Notifications != domain.NoNotificationsLabel {
		t.Fatalf("empty digest = %q", summary[1].Notifications)
	}
}

func TestSummarizeByProductDepotPivot(t *testing.T) {
	t.Parallel()

	depot := calculatedRow("G1", "A1", "D001", 0, 0, 0, 10, "")
	depot.InQualityInspected = 4
	depot.Blocked = 1
	rows := []domain.CalculatedRow{
		calculatedRow("G1", "A1", "S01", 3, 1, 6, 2, ""),
		depot,
		calculatedRow("G1", "A1", "S02", 2, 1, 6, 5, "suggest replenishing 1 from the central depot, check central depot stock"),
		calculatedRow("G1", "A2", "S01", 1, 0, 4, 0, ""),
	}

	summary := SummarizeByProduct(rows, "")
	if len(summary) != 2 {
		t.Fatalf("products = %d, want 2", len(summary))
	}
	a1 := summary[0]
	if a1.Article != "A1" || !approxEqual(a1.TotalDemand, 7) || a1.TotalStock != 7 || a1.TotalPending != 2 ||
		a1.TotalStockAvailable != 9 || !approxEqual(a1.TotalDispatch, 12) {
		t.Fatalf("A1 summary = %+v", a1)
	}
	if a1.DepotNetStock != 10 || a1.DepotInQualityInsp != 4 || a1.DepotBlocked != 1 || a1.DepotPendingReceived != 1 {
		t.Fatalf("depot pivot = %+v", a1)
	}
	if !a1.DepotShortage {
		t.Fatal("dispatch 12 exceeds depot stock 10, expected shortage")
	}
	a2 := summary[1]
	if a2.DepotNetStock != 0 || !a2.DepotShortage {
		t.Fatalf("A2 has no depot stock, expected shortage: %+v", a2)
	}
}

func TestSummarizeByProductNoShortage(t *testing.T) {
	t.Parallel()

	rows := []domain.CalculatedRow{
		calculatedRow("G1", "A1", "S01", 3, 1, 6, 2, ""),
		calculatedRow("G1", "A1", "DC9", 0, 0, 0, 6, ""),
	}
	summary := SummarizeByProduct(rows, "DC9")
	if len(summary) != 1 || summary[0].DepotShortage {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestSummarizeByProductUsesRowDemand(t *testing.T) {
	t.Parallel()

	a1 := calculatedRow("G1", "A1", "S01", 3, 1, 0, 0, "")
	a2 := calculatedRow("G1", "A2", "S01", 5, 2, 0, 0, "")
	// Both rows share the (group, site) total of 11.
	a1.TotalDemand, a2.TotalDemand = 11, 11

	summary := SummarizeByProduct([]domain.CalculatedRow{a1, a2}, "")
	if len(summary) != 2 || !approxEqual(summary[0].TotalDemand, 4) || !approxEqual(summary[1].TotalDemand, 7) {
		t.Fatalf("summary = %+v", summary)
	}
}
