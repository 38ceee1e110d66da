package domain

import "time"

// AnalysisParams are the operator-supplied scalars of one analysis run.
type AnalysisParams struct {
	LeadTime     float64          `json:"lead_time"`
	CurrentDay   int              `json:"current_day"`
	Strategy     DispatchStrategy `json:"strategy"`
	CentralDepot string           `json:"central_depot"`
}

// AnalysisReport is everything one run produced, kept for the lifetime of a session
// so it can be exported or charted after the analysis call returns.
type AnalysisReport struct {
	ID             string              `json:"id"`
	CreatedAt      time.Time           `json:"created_at"`
	Params         AnalysisParams      `json:"params"`
	Inventory      []InventoryRecord   `json:"inventory"`
	Rows           []CalculatedRow     `json:"rows"`
	SiteSummary    []SummaryRow        `json:"site_summary"`
	ProductSummary []ProductSummaryRow `json:"product_summary"`
	Stats          RunStats            `json:"stats"`
}

// RunStats counts what happened to the rows of one run.
type RunStats struct {
	InventoryRows      int `json:"inventory_rows"`
	PromotionRows      int `json:"promotion_rows"`
	SiteRows           int `json:"site_rows"`
	MergedRows         int `json:"merged_rows"`
	UnmatchedArticles  int `json:"unmatched_articles"`
	UnmatchedSites     int `json:"unmatched_sites"`
	RowsWithCorrection int `json:"rows_with_correction"`
	Notifications      int `json:"notifications"`
}

// CategoryValue is one bar or slice of a chart.
type CategoryValue struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
}

// DemandStockPoint compares demand with available stock for one article.
type DemandStockPoint struct {
	Article        string  `json:"article"`
	TotalDemand    float64 `json:"total_demand"`
	StockAvailable float64 `json:"stock_available"`
}

// HeatmapCell is the summed net demand for a (site, article) pair.
type HeatmapCell struct {
	Site      string  `json:"site"`
	Article   string  `json:"article"`
	NetDemand float64 `json:"net_demand"`
}

// ChartData holds the series a dashboard needs to draw the analysis charts.
type ChartData struct {
	Groups               []string           `json:"groups"`
	SelectedGroup        string             `json:"selected_group"`
	DemandVsStock        []DemandStockPoint `json:"demand_vs_stock"`
	DemandByGroup        []CategoryValue    `json:"demand_by_group"`
	InventoryByGroup     []CategoryValue    `json:"inventory_by_group"`
	DispatchByRPType     []CategoryValue    `json:"dispatch_by_rp_type"`
	NetDemandHeatmap     []HeatmapCell      `json:"net_demand_heatmap"`
	HeatmapSampled       bool               `json:"heatmap_sampled"`
	ExcludedCentralDepot string             `json:"excluded_central_depot"`
}

// ReportOverview is the compact view of a report returned right after an analysis;
// detailed rows are fetched or exported separately.
type ReportOverview struct {
	ID          string         `json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	Params      AnalysisParams `json:"params"`
	Stats       RunStats       `json:"stats"`
	SiteSummary []SummaryRow   `json:"site_summary"`
}

func (r *AnalysisReport) Overview() ReportOverview {
	return ReportOverview{
		ID:          r.ID,
		CreatedAt:   r.CreatedAt,
		Params:      r.Params,
		Stats:       r.Stats,
		SiteSummary: r.SiteSummary,
	}
}
