// internal/domain/models.go
package domain

// InventoryRecord is one normalized row of File A (inventory and sales per article and site).
type InventoryRecord struct {
	Article            string       `json:"article"`
	Description        string       `json:"article_description"`
	RPType             RPType       `json:"rp_type"`
	Site               string       `json:"site"`
	MOQ                int          `json:"moq"`
	NetStock           int          `json:"sasa_net_stock"`
	PendingReceived    int          `json:"pending_received"`
	SafetyStock        int          `json:"safety_stock"`
	LastMonthSold      int          `json:"last_month_sold_qty"`
	MTDSold            int          `json:"mtd_sold_qty"`
	SupplySource       SupplySource `json:"supply_source"`
	BuyerGroup         string       `json:"description_p_group"`
	InQualityInspected int          `json:"in_quality_insp"`
	Blocked            int          `json:"blocked"`
	Notes              Notes        `json:"notes"`
}

// PromotionTarget is one row of File B, Sheet 1.
type PromotionTarget struct {
	GroupNo         string     `json:"group_no"`
	Article         string     `json:"article"`
	SKUTarget       int        `json:"sku_target"`
	TargetType      TargetType `json:"target_type"`
	PromotionDays   int        `json:"promotion_days"`
	TargetCoverDays int        `json:"target_cover_days"`
	Notes           Notes      `json:"notes"`
}

// SiteTarget is one row of File B, Sheet 2. Shares are fractions of 1.
type SiteTarget struct {
	Site     string  `json:"site"`
	ShareHK  float64 `json:"shop_target_hk"`
	ShareMO  float64 `json:"shop_target_mo"`
	ShareALL float64 `json:"shop_target_all"`
	Notes    Notes   `json:"notes"`
}

// Share returns the share selected by the target type; unknown types select nothing.
func (s SiteTarget) Share(t TargetType) float64 {
	switch t {
	case TargetTypeHK:
		return s.ShareHK
	case TargetTypeMO:
		return s.ShareMO
	case TargetTypeALL:
		return s.ShareALL
	default:
		return 0
	}
}

// MergedRow is an inventory row joined with at most one promotion target and one site target.
type MergedRow struct {
	InventoryRecord

	GroupNo         string     `json:"group_no"`
	SKUTarget       int        `json:"sku_target"`
	TargetType      TargetType `json:"target_type"`
	PromotionDays   int        `json:"promotion_days"`
	TargetCoverDays int        `json:"target_cover_days"`

	ShareHK  float64 `json:"shop_target_hk"`
	ShareMO  float64 `json:"shop_target_mo"`
	ShareALL float64 `json:"shop_target_all"`

	PromotionMatched bool `json:"promotion_matched"`
	SiteMatched      bool `json:"site_matched"`
}

// CalculatedRow is a MergedRow plus every derived demand and dispatch figure.
type CalculatedRow struct {
	MergedRow

	DailySalesRate       float64      `json:"daily_sales_rate"`
	SiteTargetFraction   float64      `json:"site_target_pct"`
	RegularDemand        float64      `json:"regular_demand"`
	PromoDemand          float64      `json:"promo_demand"`
	TotalDemand          float64      `json:"total_demand"`
	NetDemand            float64      `json:"net_demand"`
	OutOfStockQty        float64      `json:"out_of_stock_qty"`
	SuggestedDispatchQty float64      `json:"suggested_dispatch_qty"`
	DispatchType         DispatchType `json:"dispatch_type"`
	Notification         string       `json:"notification,omitempty"`
}

// SummaryRow aggregates calculated rows sharing a (group, site) key.
type SummaryRow struct {
	GroupNo         string  `json:"group_no"`
	Site            string  `json:"site"`
	Rows            int     `json:"rows"`
	TotalDemand     float64 `json:"total_demand"`
	NetStock        int     `json:"sasa_net_stock"`
	PendingReceived int     `json:"pending_received"`
	SafetyStock     int     `json:"safety_stock"`
	OutOfStockQty   float64 `json:"out_of_stock_qty"`
	DispatchQty     float64 `json:"suggested_dispatch_qty"`
	Notifications   string  `json:"notifications"`
}

// ProductSummaryRow aggregates non-depot rows by (group, article) with the central
// depot's own stock figures pivoted into dedicated columns.
type ProductSummaryRow struct {
	GroupNo              string  `json:"group_no"`
	Article              string  `json:"article"`
	TotalDemand          float64 `json:"total_demand"`
	TotalStock           int     `json:"total_stock"`
	TotalPending         int     `json:"total_pending"`
	TotalStockAvailable  int     `json:"total_stock_available"`
	OutOfStockQty        float64 `json:"out_of_stock_qty"`
	TotalDispatch        float64 `json:"total_dispatch"`
	DepotNetStock        int     `json:"depot_net_stock"`
	DepotPendingReceived int     `json:"depot_pending_received"`
	DepotInQualityInsp   int     `json:"depot_in_quality_insp"`
	DepotBlocked         int     `json:"depot_blocked"`
	DepotShortage        bool    `json:"depot_shortage"`
	Notifications        string  `json:"notifications"`
}
