package promo

import (
	"fmt"
	"strconv"

	"github.com/andresuchdata/promo-dispatch/internal/domain"
	"github.com/andresuchdata/promo-dispatch/internal/pipeline"
)

// Column describes one output column of a record type: its header and how to read its
// cell value (string, int, float64 or bool) from a record.
type Column[T any] struct {
	Name  string
	Value func(*T) any
}

// Header lists the column names.
func Header[T any](cols []Column[T]) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// Values reads every column of rec.
func Values[T any](cols []Column[T], rec *T) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = c.Value(rec)
	}
	return out
}

// RenderTable renders records as a raw Table. Numbers keep full precision, so rendering
// normalized records and normalizing the result again reproduces them.
func RenderTable[T any](name string, cols []Column[T], records []T) *pipeline.Table {
	rows := make([][]string, len(records))
	for i := range records {
		values := Values(cols, &records[i])
		row := make([]string, len(values))
		for j, v := range values {
			row[j] = FormatCell(v)
		}
		rows[i] = row
	}
	return pipeline.NewTable(name, Header(cols), rows)
}

// FormatCell renders a column value as text.
func FormatCell(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "Yes"
		}
		return "No"
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

var inventoryFields = []Column[domain.InventoryRecord]{
	{ColArticle, func(r *domain.InventoryRecord) any { return r.Article }},
	{ColDescription, func(r *domain.InventoryRecord) any { return r.Description }},
	{ColRPType, func(r *domain.InventoryRecord) any { return string(r.RPType) }},
	{ColSite, func(r *domain.InventoryRecord) any { return r.Site }},
	{ColMOQ, func(r *domain.InventoryRecord) any { return r.MOQ }},
	{ColNetStock, func(r *domain.InventoryRecord) any { return r.NetStock }},
	{ColPendingReceived, func(r *domain.InventoryRecord) any { return r.PendingReceived }},
	{ColSafetyStock, func(r *domain.InventoryRecord) any { return r.SafetyStock }},
	{ColLastMonthSold, func(r *domain.InventoryRecord) any { return r.LastMonthSold }},
	{ColMTDSold, func(r *domain.InventoryRecord) any { return r.MTDSold }},
	{ColSupplySource, func(r *domain.InventoryRecord) any { return r.SupplySource.String() }},
	{ColBuyerGroup, func(r *domain.InventoryRecord) any { return r.BuyerGroup }},
	{ColInQualityInsp, func(r *domain.InventoryRecord) any { return r.InQualityInspected }},
	{ColBlocked, func(r *domain.InventoryRecord) any { return r.Blocked }},
}

// InventoryColumns are the columns of a normalized inventory table.
var InventoryColumns = append(append([]Column[domain.InventoryRecord]{}, inventoryFields...),
	Column[domain.InventoryRecord]{ColNotes, func(r *domain.InventoryRecord) any { return r.Notes.String() }},
)

// PromotionColumns are the columns of a normalized promotion target table.
var PromotionColumns = []Column[domain.PromotionTarget]{
	{ColGroupNo, func(r *domain.PromotionTarget) any { return r.GroupNo }},
	{ColArticle, func(r *domain.PromotionTarget) any { return r.Article }},
	{ColSKUTarget, func(r *domain.PromotionTarget) any { return r.SKUTarget }},
	{ColTargetType, func(r *domain.PromotionTarget) any { return string(r.TargetType) }},
	{ColPromotionDays, func(r *domain.PromotionTarget) any { return r.PromotionDays }},
	{ColTargetCoverDays, func(r *domain.PromotionTarget) any { return r.TargetCoverDays }},
	{ColNotes, func(r *domain.PromotionTarget) any { return r.Notes.String() }},
}

// SiteColumns are the columns of a normalized site target table.
var SiteColumns = []Column[domain.SiteTarget]{
	{ColSite, func(r *domain.SiteTarget) any { return r.Site }},
	{ColShareHK, func(r *domain.SiteTarget) any { return r.ShareHK }},
	{ColShareMO, func(r *domain.SiteTarget) any { return r.ShareMO }},
	{ColShareALL, func(r *domain.SiteTarget) any { return r.ShareALL }},
	{ColNotes, func(r *domain.SiteTarget) any { return r.Notes.String() }},
}

func mergedFields() []Column[domain.MergedRow] {
	cols := make([]Column[domain.MergedRow], 0, len(inventoryFields)+8)
	for _, c := range inventoryFields {
		value := c.Value
		cols = append(cols, Column[domain.MergedRow]{c.Name, func(r *domain.MergedRow) any { return value(&r.InventoryRecord) }})
	}
	return append(cols,
		Column[domain.MergedRow]{ColGroupNo, func(r *domain.MergedRow) any { return r.GroupNo }},
		Column[domain.MergedRow]{ColSKUTarget, func(r *domain.MergedRow) any { return r.SKUTarget }},
		Column[domain.MergedRow]{ColTargetType, func(r *domain.MergedRow) any { return string(r.TargetType) }},
		Column[domain.MergedRow]{ColPromotionDays, func(r *domain.MergedRow) any { return r.PromotionDays }},
		Column[domain.MergedRow]{ColTargetCoverDays, func(r *domain.MergedRow) any { return r.TargetCoverDays }},
		Column[domain.MergedRow]{ColShareHK, func(r *domain.MergedRow) any { return r.ShareHK }},
		Column[domain.MergedRow]{ColShareMO, func(r *domain.MergedRow) any { return r.ShareMO }},
		Column[domain.MergedRow]{ColShareALL, func(r *domain.MergedRow) any { return r.ShareALL }},
	)
}

// MergedColumns are the columns of the merged table.
var MergedColumns = append(mergedFields(),
	Column[domain.MergedRow]{ColNotes, func(r *domain.MergedRow) any { return r.Notes.String() }},
)

// CalculatedColumns are the columns of the detailed results table, in the order the
// fields are introduced: inventory, targets, derived figures, notes.
var CalculatedColumns = calculatedColumns()

func calculatedColumns() []Column[domain.CalculatedRow] {
	merged := mergedFields()
	cols := make([]Column[domain.CalculatedRow], 0, len(merged)+11)
	for _, c := range merged {
		value := c.Value
		cols = append(cols, Column[domain.CalculatedRow]{c.Name, func(r *domain.CalculatedRow) any { return value(&r.MergedRow) }})
	}
	return append(cols,
		Column[domain.CalculatedRow]{"Daily Sales Rate", func(r *domain.CalculatedRow) any { return r.DailySalesRate }},
		Column[domain.CalculatedRow]{"Site Target %", func(r *domain.CalculatedRow) any { return r.SiteTargetFraction }},
		Column[domain.CalculatedRow]{"Regular Demand", func(r *domain.CalculatedRow) any { return r.RegularDemand }},
		Column[domain.CalculatedRow]{"Promo Demand", func(r *domain.CalculatedRow) any { return r.PromoDemand }},
		Column[domain.CalculatedRow]{"Total Demand", func(r *domain.CalculatedRow) any { return r.TotalDemand }},
		Column[domain.CalculatedRow]{"Net Demand", func(r *domain.CalculatedRow) any { return r.NetDemand }},
		Column[domain.CalculatedRow]{"Out of Stock Qty", func(r *domain.CalculatedRow) any { return r.OutOfStockQty }},
		Column[domain.CalculatedRow]{"Suggested Dispatch Qty", func(r *domain.CalculatedRow) any { return r.SuggestedDispatchQty }},
		Column[domain.CalculatedRow]{"Dispatch Type", func(r *domain.CalculatedRow) any { return string(r.DispatchType) }},
		Column[domain.CalculatedRow]{"Notification", func(r *domain.CalculatedRow) any { return r.Notification }},
		Column[domain.CalculatedRow]{ColNotes, func(r *domain.CalculatedRow) any { return r.Notes.String() }},
	)
}

// SiteSummaryColumns are the columns of the (group, site) summary.
var SiteSummaryColumns = []Column[domain.SummaryRow]{
	{ColGroupNo, func(r *domain.SummaryRow) any { return r.GroupNo }},
	{ColSite, func(r *domain.SummaryRow) any { return r.Site }},
	{"Rows", func(r *domain.SummaryRow) any { return r.Rows }},
	{"Total Demand", func(r *domain.SummaryRow) any { return r.TotalDemand }},
	{ColNetStock, func(r *domain.SummaryRow) any { return r.NetStock }},
	{ColPendingReceived, func(r *domain.SummaryRow) any { return r.PendingReceived }},
	{ColSafetyStock, func(r *domain.SummaryRow) any { return r.SafetyStock }},
	{"Out of Stock Qty", func(r *domain.SummaryRow) any { return r.OutOfStockQty }},
	{"Suggested Dispatch Qty", func(r *domain.SummaryRow) any { return r.DispatchQty }},
	{"Notifications", func(r *domain.SummaryRow) any { return r.Notifications }},
}

// ProductSummaryColumns are the columns of the (group, article) summary, with the depot
// pivot columns named after depot.
func ProductSummaryColumns(depot string) []Column[domain.ProductSummaryRow] {
	if depot == "" {
		depot = domain.DefaultCentralDepot
	}
	return []Column[domain.ProductSummaryRow]{
		{ColGroupNo, func(r *domain.ProductSummaryRow) any { return r.GroupNo }},
		{ColArticle, func(r *domain.ProductSummaryRow) any { return r.Article }},
		{"Total Demand", func(r *domain.ProductSummaryRow) any { return r.TotalDemand }},
		{"Total Stock", func(r *domain.ProductSummaryRow) any { return r.TotalStock }},
		{"Total Pending", func(r *domain.ProductSummaryRow) any { return r.TotalPending }},
		{"Total Stock Available", func(r *domain.ProductSummaryRow) any { return r.TotalStockAvailable }},
		{"Out of Stock Qty", func(r *domain.ProductSummaryRow) any { return r.OutOfStockQty }},
		{"Total Dispatch", func(r *domain.ProductSummaryRow) any { return r.TotalDispatch }},
		{depot + " " + ColNetStock, func(r *domain.ProductSummaryRow) any { return r.DepotNetStock }},
		{depot + " " + ColPendingReceived, func(r *domain.ProductSummaryRow) any { return r.DepotPendingReceived }},
		{depot + " " + ColInQualityInsp, func(r *domain.ProductSummaryRow) any { return r.DepotInQualityInsp }},
		{depot + " " + ColBlocked, func(r *domain.ProductSummaryRow) any { return r.DepotBlocked }},
		{depot + " Shortage", func(r *domain.ProductSummaryRow) any { return r.DepotShortage }},
		{"Notifications", func(r *domain.ProductSummaryRow) any { return r.Notifications }},
	}
}
