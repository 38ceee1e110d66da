package promo

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/andresuchdata/promo-dispatch/internal/domain"
)

func scenarioARow(promotionDays int) domain.MergedRow {
	return domain.MergedRow{
		InventoryRecord: domain.InventoryRecord{
			Article:         "1",
			RPType:          domain.RPTypeRF,
			Site:            "S01",
			MOQ:             1,
			NetStock:        2,
			PendingReceived: 1,
			LastMonthSold:   30,
			MTDSold:         2,
			SupplySource:    domain.SupplySourceBuyer,
			BuyerGroup:      "group",
		},
		GroupNo:          "1",
		SKUTarget:        5,
		TargetType:       domain.TargetTypeHK,
		PromotionDays:    promotionDays,
		TargetCoverDays:  10,
		ShareHK:          0.5,
		PromotionMatched: true,
		SiteMatched:      true,
	}
}

func TestCalculateDemandScenarioA(t *testing.T) {
	t.Parallel()

	// Day 2 makes both daily rates 1 (30/30 and 2/2).
	params := Params{LeadTime: 2, CurrentDay: 2}

	rows, _, err := CalculateDemand([]domain.MergedRow{scenarioARow(0)}, params)
	if err != nil {
		t.Fatalf("CalculateDemand error = %v", err)
	}
	r := rows[0]
	checks := []struct {
		name      string
		got, want float64
	}{
		{"daily sales rate", r.DailySalesRate, 1},
		{"site target fraction", r.SiteTargetFraction, 0.5},
		{"regular demand", r.RegularDemand, 12},
		{"promo demand", r.PromoDemand, 2.5},
		{"total demand", r.TotalDemand, 14.5},
		{"net demand", r.NetDemand, 11.5},
		{"out of stock", r.OutOfStockQty, 8.5},
		{"dispatch (ceil to MOQ)", r.SuggestedDispatchQty, 12},
	}
	for _, c := range checks {
		if !approxEqual(c.got, c.want) {
			t.Fatalf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if r.DispatchType != domain.DispatchTypeBuyerOrder {
		t.Fatalf("dispatch type = %q", r.DispatchType)
	}
	if !strings.Contains(r.Notification, "group") || !r.Notes.Has(domain.NoteBuyerNotification) {
		t.Fatalf("expected buyer notification naming the group, got %q", r.Notification)
	}

	params.Strategy = domain.StrategyMaxOfNetAndMOQ
	rows, _, err = CalculateDemand([]domain.MergedRow{scenarioARow(0)}, params)
	if err != nil {
		t.Fatalf("CalculateDemand error = %v", err)
	}
	if !approxEqual(rows[0].SuggestedDispatchQty, 11.5) {
		t.Fatalf("max strategy dispatch = %v, want 11.5", rows[0].SuggestedDispatchQty)
	}
}

func TestCalculateDemandCoverIncludesPromotionDays(t *testing.T) {
	t.Parallel()

	rows, _, err := CalculateDemand([]domain.MergedRow{scenarioARow(7)}, Params{LeadTime: 2, CurrentDay: 2})
	if err != nil {
		t.Fatalf("CalculateDemand error = %v", err)
	}
	// 1 * (7 + 10 + 2)
	if !approxEqual(rows[0].RegularDemand, 19) {
		t.Fatalf("regular demand = %v, want 19", rows[0].RegularDemand)
	}
}

func TestDailySalesRate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		lastMonth int
		mtd       int
		day       int
		want      float64
	}{
		{"both zero", 0, 0, 10, 0},
		{"last month only", 60, 0, 10, 2},
		{"month to date only", 0, 30, 10, 3},
		{"average of both", 60, 40, 10, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := dailySalesRate(tc.lastMonth, tc.mtd, tc.day); !approxEqual(got, tc.want) {
				t.Fatalf("dailySalesRate = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTotalDemandSharedByGroupAndSite(t *testing.T) {
	t.Parallel()

	base := scenarioARow(0)
	second := scenarioARow(0)
	second.Article = "2"
	second.SKUTarget = 10
	other := scenarioARow(0)
	other.Site = "S02"

	rows, summary, err := CalculateDemand([]domain.MergedRow{base, second, other}, Params{LeadTime: 2, CurrentDay: 2})
	if err != nil {
		t.Fatalf("CalculateDemand error = %v", err)
	}
	// (12 + 12) + (2.5 + 5)
	if !approxEqual(rows[0].TotalDemand, 31.5) || !approxEqual(rows[1].TotalDemand, 31.5) {
		t.Fatalf("shared total = %v / %v, want 31.5", rows[0].TotalDemand, rows[1].TotalDemand)
	}
	if !approxEqual(rows[2].TotalDemand, 14.5) {
		t.Fatalf("other site total = %v, want 14.5", rows[2].TotalDemand)
	}
	if len(summary) != 2 || !approxEqual(summary[0].TotalDemand, 31.5) || summary[0].Rows != 2 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestDispatchQuantity(t *testing.T) {
	t.Parallel()

	cases := []struct {
		net      float64
		moq      int
		strategy domain.DispatchStrategy
		want     float64
	}{
		{11.5, 1, domain.StrategyCeilToMOQ, 12},
		{11.5, 1, domain.StrategyMaxOfNetAndMOQ, 11.5},
		{0, 6, domain.StrategyCeilToMOQ, 6},
		{13, 6, domain.StrategyCeilToMOQ, 18},
		{12, 6, domain.StrategyCeilToMOQ, 12},
		{12.0000000001, 6, domain.StrategyCeilToMOQ, 12},
		{3.2, 0, domain.StrategyCeilToMOQ, 3.2},
		{3, 5, domain.StrategyMaxOfNetAndMOQ, 5},
	}
	for _, tc := range cases {
		if got := dispatchQuantity(tc.net, tc.moq, tc.strategy); !approxEqual(got, tc.want) {
			t.Fatalf("dispatchQuantity(%v, %d, %s) = %v, want %v", tc.net, tc.moq, tc.strategy, got, tc.want)
		}
	}
}

func TestDispatchProperties(t *testing.T) {
	t.Parallel()

	var rows []domain.MergedRow
	rpTypes := []domain.RPType{domain.RPTypeRF, domain.RPTypeND, "XX"}
	for _, rp := range rpTypes {
		for moq := 0; moq <= 7; moq++ {
			for stock := 0; stock <= 40; stock += 9 {
				for sold := 0; sold <= 300; sold += 75 {
					rows = append(rows, domain.MergedRow{
						InventoryRecord: domain.InventoryRecord{
							Article: "A", Site: "S", RPType: rp, MOQ: moq, NetStock: stock,
							PendingReceived: stock / 3, SafetyStock: moq, LastMonthSold: sold, MTDSold: sold / 4,
							SupplySource: domain.SupplySourceDepot,
						},
						GroupNo: string(rp), SKUTarget: sold / 2, TargetType: domain.TargetTypeALL,
						PromotionDays: 3, TargetCoverDays: 5, ShareALL: 0.3,
					})
				}
			}
		}
	}

	calculated, _, err := CalculateDemand(rows, Params{LeadTime: 2.5, CurrentDay: 17})
	if err != nil {
		t.Fatalf("CalculateDemand error = %v", err)
	}
	for i, r := range calculated {
		if r.NetDemand < 0 || r.OutOfStockQty < 0 {
			t.Fatalf("row %d negative net/oos: %+v", i, r)
		}
		if r.RPType != domain.RPTypeRF {
			if r.SuggestedDispatchQty != 0 {
				t.Fatalf("row %d non-RF dispatch = %v", i, r.SuggestedDispatchQty)
			}
			continue
		}
		if r.SuggestedDispatchQty+1e-6 < r.NetDemand || r.SuggestedDispatchQty < float64(r.MOQ) {
			t.Fatalf("row %d dispatch %v below net %v or MOQ %d", i, r.SuggestedDispatchQty, r.NetDemand, r.MOQ)
		}
		if r.MOQ > 0 {
			multiple := r.SuggestedDispatchQty / float64(r.MOQ)
			if math.Abs(multiple-math.Round(multiple)) > 1e-9 {
				t.Fatalf("row %d dispatch %v not a multiple of MOQ %d", i, r.SuggestedDispatchQty, r.MOQ)
			}
		}
	}
}

func TestDispatchTypePriority(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		site   string
		rp     domain.RPType
		source domain.SupplySource
		want   domain.DispatchType
	}{
		{"depot beats ND", "D001", domain.RPTypeND, domain.SupplySourceBuyer, "D001"},
		{"ND beats buyer", "S01", domain.RPTypeND, domain.SupplySourceBuyer, domain.DispatchTypeNoDispatch},
		{"buyer source 1", "S01", domain.RPTypeRF, domain.SupplySourceBuyer, domain.DispatchTypeBuyerOrder},
		{"buyer source 4", "S01", domain.RPTypeRF, domain.SupplySourceBuyerDC, domain.DispatchTypeBuyerOrder},
		{"depot source", "S01", domain.RPTypeRF, domain.SupplySourceDepot, domain.DispatchTypeDepotDelivery},
		{"invalid source", "S01", domain.RPTypeRF, domain.SupplySourceInvalid, domain.DispatchTypeNone},
		{"blank source", "S01", domain.RPTypeRF, domain.SupplySourceNone, domain.DispatchTypeNone},
	}
	for _, tc := range cases {
		if got := dispatchType(tc.site, tc.rp, tc.source, domain.DefaultCentralDepot); got != tc.want {
			t.Fatalf("%s: dispatchType = %q, want %q", tc.name, got, tc.want)
		}
	}
}

// Scenario D: an invalid supply source still gets demand figures but no notification.
func TestCalculateDemandInvalidSourceHasNoNotification(t *testing.T) {
	t.Parallel()

	row := scenarioARow(0)
	row.SupplySource = domain.SupplySourceInvalid
	rows, summary, err := CalculateDemand([]domain.MergedRow{row}, Params{LeadTime: 2, CurrentDay: 2})
	if err != nil {
		t.Fatalf("CalculateDemand error = %v", err)
	}
	r := rows[0]
	if !approxEqual(r.NetDemand, 11.5) || !approxEqual(r.SuggestedDispatchQty, 12) {
		t.Fatalf("demand not calculated: %+v", r)
	}
	if r.Notification != "" || r.Notes.Has(domain.NoteBuyerNotification) || r.Notes.Has(domain.NoteDepotReplenishment) {
		t.Fatalf("unexpected notification %q", r.Notification)
	}
	if summary[0].Notifications != domain.NoNotificationsLabel {
		t.Fatalf("digest = %q, want None", summary[0].Notifications)
	}
}

func TestCalculateDemandNotes(t *testing.T) {
	t.Parallel()

	row := scenarioARow(0)
	row.MOQ = 20
	row.SupplySource = domain.SupplySourceDepot
	rows, _, err := CalculateDemand([]domain.MergedRow{row}, Params{LeadTime: 2, CurrentDay: 2})
	if err != nil {
		t.Fatalf("CalculateDemand error = %v", err)
	}
	r := rows[0]
	want := []domain.NoteCode{domain.NoteLeadTime, domain.NoteBelowMOQ, domain.NoteDepotReplenishment}
	got := r.Notes.Codes()
	if len(got) != len(want) {
		t.Fatalf("codes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("codes = %v, want %v", got, want)
		}
	}
	if !strings.Contains(r.Notes.String(), "suggested quantity 20") {
		t.Fatalf("below-MOQ note should name the suggested quantity: %q", r.Notes.String())
	}
}

func TestCalculateDemandRejectsDefects(t *testing.T) {
	t.Parallel()

	row := scenarioARow(0)
	row.NetStock = -1
	_, _, err := CalculateDemand([]domain.MergedRow{scenarioARow(0), row}, Params{LeadTime: 2, CurrentDay: 2})

	var defect *domain.ComputationDefect
	if !errors.As(err, &defect) {
		t.Fatalf("expected ComputationDefect, got %v", err)
	}
	if defect.Row != 1 || !strings.Contains(defect.Invariant, "SaSa Net Stock") {
		t.Fatalf("defect = %+v", defect)
	}
}

func TestCalculateDemandLargeDayCounts(t *testing.T) {
	t.Parallel()

	row := scenarioARow(math.MaxInt/2 + 1)
	row.TargetCoverDays = math.MaxInt/2 + 1
	rows, summary, err := CalculateDemand([]domain.MergedRow{row}, Params{LeadTime: 2, CurrentDay: 2})
	if err != nil {
		t.Fatalf("CalculateDemand error = %v", err)
	}
	r := rows[0]
	if r.RegularDemand <= 0 || r.TotalDemand <= 0 || summary[0].TotalDemand <= 0 {
		t.Fatalf("demand wrapped: regular=%v total=%v summary=%v", r.RegularDemand, r.TotalDemand, summary[0].TotalDemand)
	}
}

func TestCheckCalculatedRowRejectsNegativeDemand(t *testing.T) {
	t.Parallel()

	for _, c := range []domain.CalculatedRow{
		{RegularDemand: -1},
		{PromoDemand: -1},
		{TotalDemand: -1},
	} {
		err := checkCalculatedRow(&c, 3)
		var defect *domain.ComputationDefect
		if !errors.As(err, &defect) || defect.Row != 3 || !strings.Contains(defect.Invariant, "demand") {
			t.Fatalf("checkCalculatedRow(%+v) = %v", c, err)
		}
	}
}

func TestParamsValidate(t *testing.T) {
	t.Parallel()

	bad := []Params{
		{LeadTime: 0, CurrentDay: 1},
		{LeadTime: math.NaN(), CurrentDay: 1},
		{LeadTime: 2, CurrentDay: 0},
		{LeadTime: 2, CurrentDay: 32},
		{LeadTime: 2, CurrentDay: 1, Strategy: "round"},
	}
	for _, p := range bad {
		if err := p.Validate(); !errors.Is(err, domain.ErrInvalidParameter) {
			t.Fatalf("Validate(%+v) = %v, want ErrInvalidParameter", p, err)
		}
	}

	p := defaultParams()
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate error = %v", err)
	}
	if p.Strategy != domain.StrategyCeilToMOQ || p.CentralDepot != domain.DefaultCentralDepot {
		t.Fatalf("defaults not applied: %+v", p)
	}
}
