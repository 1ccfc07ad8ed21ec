package enrich

import "math"

// PercentReturn returns (current - past) / past * 100.
// Either input missing or zero yields nil so that "no data" never reads as a flat 0%.
func PercentReturn(current, past *float64) *float64 {
	if current == nil || past == nil || *current == 0 || *past == 0 {
		return nil
	}

	r := (*current - *past) / *past * 100
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return nil
	}
	return &r
}
