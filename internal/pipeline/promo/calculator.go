package promo

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/andresuchdata/promo-dispatch/internal/domain"
)

// Params are the operator-supplied scalars of a demand calculation.
type Params struct {
	// LeadTime is the number of days between a dispatch decision and stock arrival.
	LeadTime float64
	// CurrentDay is the day of month the month-to-date sales cover (1..31).
	CurrentDay int
	// Strategy selects the dispatch rounding rule; empty selects StrategyCeilToMOQ.
	Strategy domain.DispatchStrategy
	// CentralDepot is the depot site code; empty selects domain.DefaultCentralDepot.
	CentralDepot string
}

// Validate fills defaults and checks ranges, returning an error wrapping
// domain.ErrInvalidParameter.
func (p *Params) Validate() error {
	if math.IsNaN(p.LeadTime) || math.IsInf(p.LeadTime, 0) || p.LeadTime <= 0 {
		return domain.InvalidParameterf("lead time must be a positive number of days, got %v", p.LeadTime)
	}
	if p.CurrentDay < 1 || p.CurrentDay > 31 {
		return domain.InvalidParameterf("current day must be between 1 and 31, got %d", p.CurrentDay)
	}
	strategy, ok := domain.ParseDispatchStrategy(string(p.Strategy))
	if !ok {
		return domain.InvalidParameterf("unknown dispatch strategy %q", p.Strategy)
	}
	p.Strategy = strategy
	if p.CentralDepot == "" {
		p.CentralDepot = domain.DefaultCentralDepot
	}
	return nil
}

// DemandCalculator derives demand and dispatch figures for merged rows.
type DemandCalculator struct {
	params Params
}

// NewDemandCalculator validates params and returns a calculator bound to them.
func NewDemandCalculator(params Params) (*DemandCalculator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &DemandCalculator{params: params}, nil
}

// CalculateDemand computes every derived figure for rows and the (group, site) summary.
// It returns a *domain.ComputationDefect if a row violates a normalization guarantee.
func CalculateDemand(rows []domain.MergedRow, params Params) ([]domain.CalculatedRow, []domain.SummaryRow, error) {
	dc, err := NewDemandCalculator(params)
	if err != nil {
		return nil, nil, err
	}
	calculated, err := dc.Calculate(rows)
	if err != nil {
		return nil, nil, err
	}
	return calculated, SummarizeBySite(calculated), nil
}

type groupSiteKey struct {
	Group string
	Site  string
}

// Calculate runs the per-row rules over rows. Total demand is shared by the rows of a
// (group, site) key, so the calculation runs in two passes.
func (dc *DemandCalculator) Calculate(rows []domain.MergedRow) ([]domain.CalculatedRow, error) {
	out := make([]domain.CalculatedRow, len(rows))
	regularByKey := make(map[groupSiteKey]float64)
	promoByKey := make(map[groupSiteKey]float64)

	for i := range rows {
		if err := checkMergedRow(&rows[i], i); err != nil {
			return nil, err
		}
		out[i] = dc.demand(rows[i])

		key := groupSiteKey{Group: out[i].GroupNo, Site: out[i].Site}
		regularByKey[key] += out[i].RegularDemand
		promoByKey[key] += out[i].PromoDemand
	}

	for i := range out {
		// 5. Total demand, summed over the (group, site) key
		key := groupSiteKey{Group: out[i].GroupNo, Site: out[i].Site}
		out[i].TotalDemand = regularByKey[key] + promoByKey[key]
		dc.dispatch(&out[i])
		if err := checkCalculatedRow(&out[i], i); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// demand computes the figures that depend on the row alone.
func (dc *DemandCalculator) demand(row domain.MergedRow) domain.CalculatedRow {
	c := domain.CalculatedRow{MergedRow: row}

	// 1. Daily sales rate from last month and month to date
	c.DailySalesRate = dailySalesRate(row.LastMonthSold, row.MTDSold, dc.params.CurrentDay)

	// 2. Site target fraction selected by target type
	c.SiteTargetFraction = domain.SiteTarget{
		ShareHK:  row.ShareHK,
		ShareMO:  row.ShareMO,
		ShareALL: row.ShareALL,
	}.Share(row.TargetType)

	// 3. Regular demand covers promotion days, target cover days and lead time
	coverDays := float64(row.PromotionDays) + float64(row.TargetCoverDays) + dc.params.LeadTime
	c.RegularDemand = c.DailySalesRate * coverDays

	// 4. Promotional demand
	c.PromoDemand = float64(row.SKUTarget) * c.SiteTargetFraction

	return c
}

// dispatch completes a row whose TotalDemand is set.
func (dc *DemandCalculator) dispatch(c *domain.CalculatedRow) {
	onHand := float64(c.NetStock) + float64(c.PendingReceived)

	// 6. Net demand
	c.NetDemand = math.Max(0, c.TotalDemand-onHand+float64(c.SafetyStock))

	// 7. Out-of-stock quantity
	c.OutOfStockQty = math.Max(0, c.NetDemand-onHand)

	// 8. Suggested dispatch quantity, RF rows only
	if c.RPType == domain.RPTypeRF {
		c.SuggestedDispatchQty = dispatchQuantity(c.NetDemand, c.MOQ, dc.params.Strategy)
	}

	// 9. Dispatch type, first matching rule wins
	c.DispatchType = dispatchType(c.Site, c.RPType, c.SupplySource, dc.params.CentralDepot)

	// 10. Notes
	notes := []domain.Note{{
		Code:    domain.NoteLeadTime,
		Message: fmt.Sprintf("assumes a lead time of %s days", formatQty(dc.params.LeadTime)),
	}}
	if c.NetDemand > 0 && c.NetDemand < float64(c.MOQ) {
		notes = append(notes, domain.Note{
			Code: domain.NoteBelowMOQ,
			Message: fmt.Sprintf("net demand %s is below MOQ %d, suggested quantity %s",
				formatQty(c.NetDemand), c.MOQ, formatQty(c.SuggestedDispatchQty)),
		})
	}
	if note, ok := notificationNote(c.OutOfStockQty, c.SupplySource, c.BuyerGroup); ok {
		notes = append(notes, note)
		c.Notification = note.Message
	}
	c.Notes = c.Notes.With(notes...)
}

// dailySalesRate averages last month's and this month's daily rates, using whichever
// is positive when only one is.
func dailySalesRate(lastMonth, mtd, currentDay int) float64 {
	var monthly, current float64
	if lastMonth > 0 {
		monthly = float64(lastMonth) / 30
	}
	if mtd > 0 {
		current = float64(mtd) / float64(currentDay)
	}

	switch {
	case monthly > 0 && current > 0:
		return (monthly + current) / 2
	case monthly > 0:
		return monthly
	default:
		return current
	}
}

// dispatchQuantity applies the MOQ rule of strategy to max(net, moq). Ceiling works on
// the value rounded to six decimals so float noise cannot add a whole MOQ.
func dispatchQuantity(net float64, moq int, strategy domain.DispatchStrategy) float64 {
	base := maxFloat(net, float64(moq))
	if moq == 0 || strategy == domain.StrategyMaxOfNetAndMOQ {
		return base
	}

	m := decimal.NewFromInt(int64(moq))
	qty := decimal.NewFromFloat(base).Round(6).Div(m).Ceil().Mul(m)
	return qty.InexactFloat64()
}

func dispatchType(site string, rp domain.RPType, source domain.SupplySource, depot string) domain.DispatchType {
	switch {
	case site == depot:
		return domain.DispatchType(depot)
	case rp == domain.RPTypeND:
		return domain.DispatchTypeNoDispatch
	case source.BuyerManaged():
		return domain.DispatchTypeBuyerOrder
	case source.DepotManaged():
		return domain.DispatchTypeDepotDelivery
	default:
		return domain.DispatchTypeNone
	}
}

func checkMergedRow(r *domain.MergedRow, idx int) error {
	ints := []struct {
		name string
		v    int
	}{
		{"MOQ", r.MOQ},
		{"SaSa Net Stock", r.NetStock},
		{"Pending Received", r.PendingReceived},
		{"Safety Stock", r.SafetyStock},
		{"Last Month Sold Qty", r.LastMonthSold},
		{"MTD Sold Qty", r.MTDSold},
		{"SKU Target", r.SKUTarget},
		{"Promotion Days", r.PromotionDays},
		{"Target Cover Days", r.TargetCoverDays},
	}
	for _, f := range ints {
		if f.v < 0 {
			return &domain.ComputationDefect{
				Stage:     "demand calculation",
				Invariant: fmt.Sprintf("%s must not be negative, got %d", f.name, f.v),
				Row:       idx,
			}
		}
	}
	if r.LastMonthSold > domain.SalesQuantityCap || r.MTDSold > domain.SalesQuantityCap {
		return &domain.ComputationDefect{
			Stage:     "demand calculation",
			Invariant: fmt.Sprintf("sales quantities must not exceed %d", domain.SalesQuantityCap),
			Row:       idx,
		}
	}
	for _, share := range []float64{r.ShareHK, r.ShareMO, r.ShareALL} {
		if math.IsNaN(share) || math.IsInf(share, 0) || share < 0 {
			return &domain.ComputationDefect{
				Stage:     "demand calculation",
				Invariant: fmt.Sprintf("site target shares must be finite and non-negative, got %v", share),
				Row:       idx,
			}
		}
	}
	return nil
}

func checkCalculatedRow(c *domain.CalculatedRow, idx int) error {
	defect := func(format string, args ...any) error {
		return &domain.ComputationDefect{
			Stage:     "demand calculation",
			Invariant: fmt.Sprintf(format, args...),
			Row:       idx,
		}
	}
	if c.RegularDemand < 0 || c.PromoDemand < 0 || c.TotalDemand < 0 {
		return defect("regular, promotional and total demand must not be negative")
	}
	if c.NetDemand < 0 || c.OutOfStockQty < 0 {
		return defect("net demand and out-of-stock quantity must not be negative")
	}
	if c.RPType == domain.RPTypeRF && c.SuggestedDispatchQty+1e-6 < maxFloat(c.NetDemand, float64(c.MOQ)) {
		return defect("dispatch %v is below max(net demand %v, MOQ %d)", c.SuggestedDispatchQty, c.NetDemand, c.MOQ)
	}
	if c.RPType != domain.RPTypeRF && c.SuggestedDispatchQty != 0 {
		return defect("non-RF row has dispatch %v", c.SuggestedDispatchQty)
	}
	return nil
}
