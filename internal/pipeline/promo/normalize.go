package promo

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/andresuchdata/promo-dispatch/internal/domain"
	"github.com/andresuchdata/promo-dispatch/internal/pipeline"
)

// NormalizedTable is a validated input table coerced to its typed records. Exactly one
// of the record slices is populated, according to Role.
type NormalizedTable struct {
	Role       Role
	Inventory  []domain.InventoryRecord
	Promotions []domain.PromotionTarget
	Sites      []domain.SiteTarget
}

// Len returns the number of records.
func (n *NormalizedTable) Len() int {
	switch n.Role {
	case RoleInventory:
		return len(n.Inventory)
	case RolePromotionTarget:
		return len(n.Promotions)
	case RoleSiteTarget:
		return len(n.Sites)
	}
	return 0
}

// ValidateAndNormalize validates t against the required columns of role and, only if
// that passes, coerces every record. Cell-level problems never fail the call; they are
// corrected and recorded as row notes.
func ValidateAndNormalize(t *pipeline.Table, role Role) (*NormalizedTable, error) {
	if t == nil {
		return nil, domain.InvalidParameterf("no %s supplied", role)
	}
	if _, ok := requiredColumns[role]; !ok {
		return nil, domain.InvalidParameterf("unknown table role %d", int(role))
	}
	if err := ValidateColumns(t, role); err != nil {
		return nil, err
	}

	out := &NormalizedTable{Role: role}
	switch role {
	case RoleInventory:
		out.Inventory = normalizeInventory(t)
	case RolePromotionTarget:
		out.Promotions = normalizePromotions(t)
	case RoleSiteTarget:
		out.Sites = normalizeSites(t)
	}
	return out, nil
}

func normalizeInventory(t *pipeline.Table) []domain.InventoryRecord {
	records := make([]domain.InventoryRecord, 0, t.Len())
	for i := range t.Records {
		c := newCellReader(t, i)

		rec := domain.InventoryRecord{
			Article:     c.text(ColArticle),
			Description: c.text(ColDescription),
			Site:        c.text(ColSite),
		}
		rec.RPType = c.rpType(ColRPType)
		rec.MOQ = c.quantity(ColMOQ)
		rec.NetStock = c.quantity(ColNetStock)
		rec.PendingReceived = c.quantity(ColPendingReceived)
		rec.SafetyStock = c.quantity(ColSafetyStock)
		rec.LastMonthSold = c.sales(ColLastMonthSold)
		rec.MTDSold = c.sales(ColMTDSold)
		rec.SupplySource = c.supplySource(ColSupplySource)
		rec.BuyerGroup = c.text(ColBuyerGroup)
		rec.InQualityInspected = c.quantity(ColInQualityInsp)
		rec.Blocked = c.quantity(ColBlocked)
		rec.Notes = c.notes

		records = append(records, rec)
	}
	return records
}

func normalizePromotions(t *pipeline.Table) []domain.PromotionTarget {
	records := make([]domain.PromotionTarget, 0, t.Len())
	for i := range t.Records {
		c := newCellReader(t, i)

		rec := domain.PromotionTarget{
			GroupNo:    c.text(ColGroupNo),
			Article:    c.text(ColArticle),
			TargetType: domain.TargetType(strings.ToUpper(c.text(ColTargetType))),
		}
		rec.SKUTarget = c.quantity(ColSKUTarget)
		rec.PromotionDays = c.quantity(ColPromotionDays)
		rec.TargetCoverDays = c.quantity(ColTargetCoverDays)
		rec.Notes = c.notes

		records = append(records, rec)
	}
	return records
}

func normalizeSites(t *pipeline.Table) []domain.SiteTarget {
	records := make([]domain.SiteTarget, 0, t.Len())
	for i := range t.Records {
		c := newCellReader(t, i)

		rec := domain.SiteTarget{Site: c.text(ColSite)}
		rec.ShareHK = c.share(ColShareHK)
		rec.ShareMO = c.share(ColShareMO)
		rec.ShareALL = c.share(ColShareALL)
		rec.Notes = c.notes

		records = append(records, rec)
	}

	scalePercentColumn(records, ColShareHK, func(s *domain.SiteTarget) *float64 { return &s.ShareHK })
	scalePercentColumn(records, ColShareMO, func(s *domain.SiteTarget) *float64 { return &s.ShareMO })
	scalePercentColumn(records, ColShareALL, func(s *domain.SiteTarget) *float64 { return &s.ShareALL })
	return records
}

// scalePercentColumn divides the whole column by 100 when any of its values exceeds 1.
func scalePercentColumn(records []domain.SiteTarget, col string, field func(*domain.SiteTarget) *float64) {
	percent := false
	for i := range records {
		if *field(&records[i]) > 1 {
			percent = true
			break
		}
	}
	if !percent {
		return
	}

	for i := range records {
		v := field(&records[i])
		if *v == 0 {
			continue
		}
		scaled := *v / 100
		records[i].Notes = records[i].Notes.With(domain.Note{
			Code:    domain.NotePercentScaled,
			Field:   col,
			Message: fmt.Sprintf("%s: %s read as a percentage, converted to %s", col, formatQty(*v), formatShare(scaled)),
		})
		*v = scaled
	}
}

// cellReader coerces the cells of one record and collects the correction notes in
// the order they are applied.
type cellReader struct {
	t       *pipeline.Table
	row     int
	notes   domain.Notes
	carried map[string]bool
}

func newCellReader(t *pipeline.Table, row int) *cellReader {
	c := &cellReader{t: t, row: row}
	if idx := t.Column(ColNotes); idx >= 0 {
		c.notes = domain.ParseNotes(t.Cell(row, idx))
		c.carried = make(map[string]bool, len(c.notes))
		for _, n := range c.notes {
			c.carried[n.Message] = true
		}
	}
	return c
}

// note records a correction unless the carried notes already hold the same text.
func (c *cellReader) note(code domain.NoteCode, field, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if c.carried[msg] {
		return
	}
	c.notes = c.notes.With(domain.Note{Code: code, Field: field, Message: msg})
}

func (c *cellReader) raw(col string) string {
	return c.t.Cell(c.row, c.t.Column(col))
}

func (c *cellReader) text(col string) string {
	return strings.TrimSpace(c.raw(col))
}

// number parses a numeric cell. Blank cells read as 0 silently.
func (c *cellReader) number(col string) float64 {
	v := c.text(col)
	if v == "" {
		return 0
	}
	f, ok := parseNumber(v)
	if !ok {
		c.note(domain.NoteNotNumeric, col, "%s: non-numeric value %q replaced with 0", col, v)
		return 0
	}
	if f < 0 {
		c.note(domain.NoteNegativeClamped, col, "%s: negative value %s clamped to 0", col, formatQty(f))
		return 0
	}
	return f
}

// quantity reads a non-negative integer column, truncating fractions toward zero and
// clamping values above domain.QuantityCap.
func (c *cellReader) quantity(col string) int {
	f := c.number(col)
	if f > domain.QuantityCap {
		c.note(domain.NoteOutOfRangeClamped, col, "%s: value %s clamped to %d", col, formatQty(f), domain.QuantityCap)
		return domain.QuantityCap
	}
	return int(f)
}

// sales reads a sales-volume column, additionally capped at domain.SalesQuantityCap.
func (c *cellReader) sales(col string) int {
	f := c.number(col)
	if f > domain.SalesQuantityCap {
		c.note(domain.NoteSalesCapped, col, "%s: value %s capped at %d", col, formatQty(f), domain.SalesQuantityCap)
		return domain.SalesQuantityCap
	}
	return int(f)
}

func (c *cellReader) share(col string) float64 {
	return c.number(col)
}

func (c *cellReader) rpType(col string) domain.RPType {
	t, ok := domain.ParseRPType(c.raw(col))
	if !ok {
		if t == "" {
			c.note(domain.NoteUnknownRPType, col, "%s: missing, row will not be dispatched", col)
		} else {
			c.note(domain.NoteUnknownRPType, col, "%s: unknown value %q, row will not be dispatched", col, string(t))
		}
	}
	return t
}

func (c *cellReader) supplySource(col string) domain.SupplySource {
	v := c.text(col)
	if v == "" {
		return domain.SupplySourceNone
	}
	if strings.EqualFold(v, domain.SupplySourceInvalidLabel) {
		return domain.SupplySourceInvalid
	}
	if f, ok := parseNumber(v); ok && f == math.Trunc(f) {
		if s := domain.SupplySource(int(f)); s.Valid() {
			return s
		}
	}
	c.note(domain.NoteInvalidSupplySource, col, "%s: invalid value %q", col, v)
	return domain.SupplySourceInvalid
}

// parseNumber parses a finite number, tolerating thousands separators.
func parseNumber(v string) (float64, bool) {
	v = strings.ReplaceAll(v, ",", "")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
