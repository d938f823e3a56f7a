package engine

import (
	"cmp"
	"math"
	"slices"

	"salesboard/internal/models"
)

// windowSize is the length of the L4W and C4W windows, counted in series
// entries rather than calendar weeks.
const windowSize = 4

// Aggregate groups records by exact product name and computes each product's
// metrics. The result is ordered by L4W revenue, highest first, ties keeping
// first-appearance order.
func Aggregate(records []models.CanonicalRecord) []models.ProductMetrics {
	order := make([]string, 0)
	groups := make(map[string][]models.CanonicalRecord)
	for _, r := range records {
		if r.Product == "" {
			continue
		}
		if _, seen := groups[r.Product]; !seen {
			order = append(order, r.Product)
		}
		groups[r.Product] = append(groups[r.Product], r)
	}

	results := make([]models.ProductMetrics, 0, len(order))
	for _, product := range order {
		results = append(results, productMetrics(product, groups[product]))
	}

	slices.SortStableFunc(results, func(a, b models.ProductMetrics) int {
		return cmp.Compare(b.L4WRevenue, a.L4WRevenue)
	})
	return results
}

func productMetrics(product string, items []models.CanonicalRecord) models.ProductMetrics {
	weeks := make([]models.WeekEntry, len(items))
	for i, r := range items {
		weeks[i] = models.WeekEntry{
			Year:      r.Year,
			Week:      r.WeekNumber,
			Revenue:   r.Revenue,
			Quantity:  r.Quantity,
			WeekStart: r.WeekStart,
		}
	}
	// Duplicate (year, week) buckets stay as separate entries.
	slices.SortStableFunc(weeks, func(a, b models.WeekEntry) int {
		if c := cmp.Compare(a.Year, b.Year); c != 0 {
			return c
		}
		return cmp.Compare(a.Week, b.Week)
	})

	revenue := make([]float64, len(weeks))
	var totalQty float64
	for i, w := range weeks {
		revenue[i] = w.Revenue
		totalQty += w.Quantity
	}

	var avg float64
	if len(revenue) > 0 {
		avg = sum(revenue) / float64(len(revenue))
	}

	last := len(weeks) - 1
	l4wStart, c4wStart, c4wEnd := windowBounds(last)
	l4w := sum(revenue[l4wStart:])
	c4w := sum(revenue[c4wStart:c4wEnd])

	return models.ProductMetrics{
		Product:        product,
		Weeks:          roundWeeks(weeks),
		AvgRevenue:     round2(avg),
		L4WRevenue:     round2(l4w),
		C4WRevenue:     round2(c4w),
		GrowthL4WvsC4W: round2(growth(l4w, c4w)),
		GrowthYoY:      round2(yearOverYear(weeks, l4wStart, l4w)),
		TotalQuantity:  round2(totalQty),
	}
}

// windowBounds returns, for a series whose last index is last, the start of
// the trailing window and the half-open range of the window before it.
// Short series use whatever prefix exists.
func windowBounds(last int) (l4wStart, c4wStart, c4wEnd int) {
	l4wStart = max(0, last-(windowSize-1))
	c4wStart = max(0, last-(2*windowSize-1))
	c4wEnd = max(0, last-(windowSize-1))
	return l4wStart, c4wStart, c4wEnd
}

// growth is the percentage change from base to current. A zero base yields 0
// when current is also zero and -100 otherwise.
func growth(current, base float64) float64 {
	if base == 0 {
		if current == 0 {
			return 0
		}
		return -100
	}
	return (current - base) / math.Abs(base) * 100
}

// yearOverYear compares l4w with the revenue of the same week numbers one year
// earlier, looked up anywhere in the series. It is 0 when none of the trailing
// weeks has a prior-year match.
func yearOverYear(weeks []models.WeekEntry, l4wStart int, l4w float64) float64 {
	var prior float64
	matched := false
	for _, lw := range weeks[l4wStart:] {
		i := slices.IndexFunc(weeks, func(w models.WeekEntry) bool {
			return w.Week == lw.Week && w.Year == lw.Year-1
		})
		if i < 0 {
			continue
		}
		prior += weeks[i].Revenue
		matched = true
	}
	if !matched {
		return 0
	}
	return growth(l4w, prior)
}

func roundWeeks(weeks []models.WeekEntry) []models.WeekEntry {
	out := make([]models.WeekEntry, len(weeks))
	for i, w := range weeks {
		w.Revenue = round2(w.Revenue)
		w.Quantity = round2(w.Quantity)
		out[i] = w
	}
	return out
}

func sum(values []float64) float64 {
	var s float64
	for _, v := range values {
		s += v
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
