package promo

import (
	"github.com/andresuchdata/promo-dispatch/internal/domain"
	"github.com/andresuchdata/promo-dispatch/internal/pipeline"
)

// Role names which input table a raw table plays.
type Role int

const (
	// RoleInventory is File A: inventory and sales per article and site.
	RoleInventory Role = iota
	// RolePromotionTarget is File B, Sheet 1.
	RolePromotionTarget
	// RoleSiteTarget is File B, Sheet 2.
	RoleSiteTarget
)

func (r Role) String() string {
	switch r {
	case RoleInventory:
		return "inventory table (File A)"
	case RolePromotionTarget:
		return "promotion target sheet (File B, Sheet 1)"
	case RoleSiteTarget:
		return "site target sheet (File B, Sheet 2)"
	default:
		return "unknown table"
	}
}

// Input column names.
const (
	ColArticle         = "Article"
	ColDescription     = "Article Description"
	ColRPType          = "RP Type"
	ColSite            = "Site"
	ColMOQ             = "MOQ"
	ColNetStock        = "SaSa Net Stock"
	ColPendingReceived = "Pending Received"
	ColSafetyStock     = "Safety Stock"
	ColLastMonthSold   = "Last Month Sold Qty"
	ColMTDSold         = "MTD Sold Qty"
	ColSupplySource    = "Supply source"
	ColBuyerGroup      = "Description p. group"
	ColInQualityInsp   = "In Quality Insp."
	ColBlocked         = "Blocked"

	ColGroupNo         = "Group No."
	ColSKUTarget       = "SKU Target"
	ColTargetType      = "Target Type"
	ColPromotionDays   = "Promotion Days"
	ColTargetCoverDays = "Target Cover Days"

	ColShareHK  = "Shop Target(HK)"
	ColShareMO  = "Shop Target(MO)"
	ColShareALL = "Shop Target(ALL)"

	ColNotes = "Notes"
)

var requiredColumns = map[Role][]string{
	RoleInventory: {
		ColArticle, ColDescription, ColRPType, ColSite, ColMOQ, ColNetStock, ColPendingReceived,
		ColSafetyStock, ColLastMonthSold, ColMTDSold, ColSupplySource, ColBuyerGroup,
	},
	RolePromotionTarget: {
		ColGroupNo, ColArticle, ColSKUTarget, ColTargetType, ColPromotionDays, ColTargetCoverDays,
	},
	RoleSiteTarget: {
		ColSite, ColShareHK, ColShareMO, ColShareALL,
	},
}

// RequiredColumns returns the columns a table in the given role must carry, in
// declaration order.
func RequiredColumns(role Role) []string {
	cols := requiredColumns[role]
	out := make([]string, len(cols))
	copy(out, cols)
	return out
}

// ValidateColumns checks that t carries every required column of role. It returns
// nil or a *domain.SchemaError listing the missing columns in declaration order.
func ValidateColumns(t *pipeline.Table, role Role) error {
	var missing []string
	for _, col := range requiredColumns[role] {
		if !t.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &domain.SchemaError{Table: role.String(), Missing: missing}
}
