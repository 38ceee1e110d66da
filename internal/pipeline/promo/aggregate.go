package promo

import (
	"github.com/andresuchdata/promo-dispatch/internal/domain"
)

// SummarizeBySite groups rows by (group, site) in first-seen order. TotalDemand is the
// key's regular plus promotional demand, so the shared per-row total is counted once.
func SummarizeBySite(rows []domain.CalculatedRow) []domain.SummaryRow {
	index := make(map[groupSiteKey]int)
	summary := make([]domain.SummaryRow, 0)
	messages := make([][]string, 0)

	for _, r := range rows {
		key := groupSiteKey{Group: r.GroupNo, Site: r.Site}
		i, ok := index[key]
		if !ok {
			i = len(summary)
			index[key] = i
			summary = append(summary, domain.SummaryRow{GroupNo: r.GroupNo, Site: r.Site})
			messages = append(messages, nil)
		}

		s := &summary[i]
		s.Rows++
		s.TotalDemand += r.RegularDemand + r.PromoDemand
		s.NetStock += r.NetStock
		s.PendingReceived += r.PendingReceived
		s.SafetyStock += r.SafetyStock
		s.OutOfStockQty += r.OutOfStockQty
		s.DispatchQty += r.SuggestedDispatchQty
		messages[i] = append(messages[i], r.Notification)
	}

	for i := range summary {
		summary[i].Notifications = Digest(messages[i])
	}
	return summary
}

type groupArticleKey struct {
	Group   string
	Article string
}

// SummarizeByProduct groups the rows of every site except depot by (group, article) in
// first-seen order, pivots the depot's own stock figures for the article into the
// Depot* columns, and flags DepotShortage when the summed dispatch exceeds the depot's
// on-hand stock. An empty depot selects domain.DefaultCentralDepot.
func SummarizeByProduct(rows []domain.CalculatedRow, depot string) []domain.ProductSummaryRow {
	if depot == "" {
		depot = domain.DefaultCentralDepot
	}

	// Depot stock is per article; fan-out repeats the same record, so the first wins.
	depotStock := make(map[string]domain.InventoryRecord)
	for _, r := range rows {
		if r.Site != depot {
			continue
		}
		if _, ok := depotStock[r.Article]; !ok {
			depotStock[r.Article] = r.InventoryRecord
		}
	}

	index := make(map[groupArticleKey]int)
	summary := make([]domain.ProductSummaryRow, 0)
	messages := make([][]string, 0)

	for _, r := range rows {
		if r.Site == depot {
			continue
		}
		key := groupArticleKey{Group: r.GroupNo, Article: r.Article}
		i, ok := index[key]
		if !ok {
			i = len(summary)
			index[key] = i
			row := domain.ProductSummaryRow{GroupNo: r.GroupNo, Article: r.Article}
			if d, ok := depotStock[r.Article]; ok {
				row.DepotNetStock = d.NetStock
				row.DepotPendingReceived = d.PendingReceived
				row.DepotInQualityInsp = d.InQualityInspected
				row.DepotBlocked = d.Blocked
			}
			summary = append(summary, row)
			messages = append(messages, nil)
		}

		s := &summary[i]
		s.TotalDemand += r.RegularDemand + r.PromoDemand
		s.TotalStock += r.NetStock
		s.TotalPending += r.PendingReceived
		s.TotalStockAvailable += r.NetStock + r.PendingReceived
		s.OutOfStockQty += r.OutOfStockQty
		s.TotalDispatch += r.SuggestedDispatchQty
		messages[i] = append(messages[i], r.Notification)
	}

	for i := range summary {
		s := &summary[i]
		s.DepotShortage = s.TotalDispatch > float64(s.DepotNetStock)
		s.Notifications = Digest(messages[i])
	}
	return summary
}
