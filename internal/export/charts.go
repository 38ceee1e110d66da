package export

import (
	"sort"

	"github.com/andresuchdata/promo-dispatch/internal/domain"
)

// MaxHeatmapCells caps the net-demand heatmap.
const MaxHeatmapCells = 1000

// BuildCharts derives the dashboard chart series from a report. Rows of the central
// depot are excluded. A non-empty group restricts every series to that promotion group.
func BuildCharts(report *domain.AnalysisReport, group string) domain.ChartData {
	depot := report.Params.CentralDepot
	if depot == "" {
		depot = domain.DefaultCentralDepot
	}

	data := domain.ChartData{
		Groups:               groups(report.Rows, depot),
		SelectedGroup:        group,
		ExcludedCentralDepot: depot,
	}

	rows := make([]domain.CalculatedRow, 0, len(report.Rows))
	for _, r := range report.Rows {
		if r.Site == depot {
			continue
		}
		if group != "" && r.GroupNo != group {
			continue
		}
		rows = append(rows, r)
	}

	data.DemandVsStock = demandVsStock(rows)
	data.DemandByGroup = sumByCategory(rows, func(r *domain.CalculatedRow) (string, float64) {
		return r.GroupNo, r.RegularDemand + r.PromoDemand
	})
	data.InventoryByGroup = sumByCategory(rows, func(r *domain.CalculatedRow) (string, float64) {
		return r.GroupNo, float64(r.NetStock + r.PendingReceived + r.SafetyStock)
	})
	data.DispatchByRPType = sumByCategory(rows, func(r *domain.CalculatedRow) (string, float64) {
		return string(r.RPType), r.SuggestedDispatchQty
	})
	data.NetDemandHeatmap, data.HeatmapSampled = heatmap(rows)

	return data
}

func groups(rows []domain.CalculatedRow, depot string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, r := range rows {
		if r.Site == depot || r.GroupNo == "" || seen[r.GroupNo] {
			continue
		}
		seen[r.GroupNo] = true
		out = append(out, r.GroupNo)
	}
	sort.Strings(out)
	return out
}

func demandVsStock(rows []domain.CalculatedRow) []domain.DemandStockPoint {
	index := make(map[string]int)
	points := make([]domain.DemandStockPoint, 0)
	for _, r := range rows {
		i, ok := index[r.Article]
		if !ok {
			i = len(points)
			index[r.Article] = i
			points = append(points, domain.DemandStockPoint{Article: r.Article})
		}
		points[i].TotalDemand += r.RegularDemand + r.PromoDemand
		points[i].StockAvailable += float64(r.NetStock + r.PendingReceived)
	}
	return points
}

// sumByCategory sums values per category, largest first; ties keep first-seen order.
func sumByCategory(rows []domain.CalculatedRow, pick func(*domain.CalculatedRow) (string, float64)) []domain.CategoryValue {
	index := make(map[string]int)
	out := make([]domain.CategoryValue, 0)
	for i := range rows {
		category, v := pick(&rows[i])
		j, ok := index[category]
		if !ok {
			j = len(out)
			index[category] = j
			out = append(out, domain.CategoryValue{Category: category})
		}
		out[j].Value += v
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Value > out[b].Value })
	return out
}

type siteArticle struct {
	Site    string
	Article string
}

// heatmap sums net demand per (site, article). Past MaxHeatmapCells only the cells with
// the largest net demand are kept.
func heatmap(rows []domain.CalculatedRow) ([]domain.HeatmapCell, bool) {
	index := make(map[siteArticle]int)
	cells := make([]domain.HeatmapCell, 0)
	for _, r := range rows {
		key := siteArticle{Site: r.Site, Article: r.Article}
		i, ok := index[key]
		if !ok {
			i = len(cells)
			index[key] = i
			cells = append(cells, domain.HeatmapCell{Site: r.Site, Article: r.Article})
		}
		cells[i].NetDemand += r.NetDemand
	}
	if len(cells) <= MaxHeatmapCells {
		return cells, false
	}
	sort.SliceStable(cells, func(a, b int) bool { return cells[a].NetDemand > cells[b].NetDemand })
	return cells[:MaxHeatmapCells], true
}
