package promo

import (
	"math"
	"strconv"
)

// roundFloat rounds v to the given number of decimal places.
func roundFloat(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}

	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}

// formatQty renders a quantity with at most two decimals and no trailing zeros.
// Example: 11.5 => "11.5"; 12.0 => "12"; 2.3333 => "2.33".
func formatQty(v float64) string {
	return strconv.FormatFloat(roundFloat(v, 2), 'f', -1, 64)
}

// formatShare renders a share fraction with up to six decimals.
func formatShare(v float64) string {
	return strconv.FormatFloat(roundFloat(v, 6), 'f', -1, 64)
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
