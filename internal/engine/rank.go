package engine

import (
	"cmp"
	"slices"

	"salesboard/internal/models"
)

// Rank returns a copy of metrics stably sorted by the configured field.
// An unknown key ranks by L4W revenue; an unknown direction sorts descending.
func Rank(metrics []models.ProductMetrics, sc models.SortConfig) []models.ProductMetrics {
	field := sortField(sc.Key)
	desc := sc.Direction != models.SortAsc

	out := slices.Clone(metrics)
	if out == nil {
		out = []models.ProductMetrics{}
	}
	slices.SortStableFunc(out, func(a, b models.ProductMetrics) int {
		if desc {
			return cmp.Compare(field(b), field(a))
		}
		return cmp.Compare(field(a), field(b))
	})
	return out
}

func sortField(key models.SortKey) func(models.ProductMetrics) float64 {
	switch key {
	case models.SortByAvgRevenue:
		return func(m models.ProductMetrics) float64 { return m.AvgRevenue }
	case models.SortByTotalQuantity:
		return func(m models.ProductMetrics) float64 { return m.TotalQuantity }
	default:
		return func(m models.ProductMetrics) float64 { return m.L4WRevenue }
	}
}

// Top returns the first n metrics, or all of them when n is not positive or
// exceeds the length.
func Top(metrics []models.ProductMetrics, n int) []models.ProductMetrics {
	if n <= 0 || n >= len(metrics) {
		return metrics
	}
	return metrics[:n]
}
