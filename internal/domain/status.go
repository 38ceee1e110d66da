package domain

import (
	"strconv"
	"strings"
)

// RPType is the replenishment type of an article at a site.
type RPType string

const (
	RPTypeND RPType = "ND"
	RPTypeRF RPType = "RF"
)

// ParseRPType upper-cases a label. Labels other than ND and RF are returned as-is
// with ok=false so the row keeps its original value.
func ParseRPType(label string) (t RPType, ok bool) {
	t = RPType(strings.ToUpper(strings.TrimSpace(label)))
	return t, t.Known()
}

// Known reports whether the type is ND or RF.
func (t RPType) Known() bool {
	return t == RPTypeND || t == RPTypeRF
}

// TargetType selects which shop-target share applies to a promotion row.
type TargetType string

const (
	TargetTypeHK  TargetType = "HK"
	TargetTypeMO  TargetType = "MO"
	TargetTypeALL TargetType = "ALL"
)

// SupplySource identifies the team responsible for restocking an article at a site.
type SupplySource int

const (
	SupplySourceInvalid SupplySource = -1
	SupplySourceNone    SupplySource = 0
	SupplySourceBuyer   SupplySource = 1
	SupplySourceDepot   SupplySource = 2
	SupplySourceBuyerDC SupplySource = 4
)

// SupplySourceInvalidLabel is the rendered form of SupplySourceInvalid.
const SupplySourceInvalidLabel = "invalid source"

// Valid reports whether the code is one of the recognised sources.
func (s SupplySource) Valid() bool {
	return s == SupplySourceBuyer || s == SupplySourceDepot || s == SupplySourceBuyerDC
}

// BuyerManaged reports whether the buyer restocks the article (sources 1 and 4).
func (s SupplySource) BuyerManaged() bool {
	return s == SupplySourceBuyer || s == SupplySourceBuyerDC
}

// DepotManaged reports whether the central depot restocks the article (source 2).
func (s SupplySource) DepotManaged() bool {
	return s == SupplySourceDepot
}

func (s SupplySource) String() string {
	switch s {
	case SupplySourceInvalid:
		return SupplySourceInvalidLabel
	case SupplySourceNone:
		return ""
	default:
		return strconv.Itoa(int(s))
	}
}

// DispatchType classifies how a row's replenishment is handled.
type DispatchType string

const (
	DispatchTypeNone          DispatchType = ""
	DispatchTypeNoDispatch    DispatchType = "ND"
	DispatchTypeBuyerOrder    DispatchType = "Buyer Order Required"
	DispatchTypeDepotDelivery DispatchType = "Generate DN"
)

const (
	// DefaultCentralDepot is the distribution-center site backing every other site.
	DefaultCentralDepot = "D001"
	// SalesQuantityCap bounds both sales columns after normalization.
	SalesQuantityCap = 100000
	// QuantityCap bounds every other quantity and day-count column after normalization.
	QuantityCap = 1_000_000_000
	// NoNotificationsLabel is the digest shown when a summary row has no notifications.
	NoNotificationsLabel = "None"
)

// DispatchStrategy selects how the suggested dispatch quantity is derived for RF rows.
type DispatchStrategy string

const (
	// StrategyCeilToMOQ rounds max(net demand, MOQ) up to the next MOQ multiple.
	StrategyCeilToMOQ DispatchStrategy = "ceil_moq"
	// StrategyMaxOfNetAndMOQ uses max(net demand, MOQ) without rounding.
	StrategyMaxOfNetAndMOQ DispatchStrategy = "max_moq"
)

// ParseDispatchStrategy returns the strategy for a name; empty selects the default.
func ParseDispatchStrategy(name string) (DispatchStrategy, bool) {
	switch DispatchStrategy(strings.ToLower(strings.TrimSpace(name))) {
	case "", StrategyCeilToMOQ:
		return StrategyCeilToMOQ, true
	case StrategyMaxOfNetAndMOQ:
		return StrategyMaxOfNetAndMOQ, true
	}
	return "", false
}
