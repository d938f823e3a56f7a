package engine

import (
	"fmt"
	"slices"
	"time"

	"salesboard/internal/models"
)

// TrendPoints is how many recent weekly entries a trend series keeps.
const TrendPoints = 12

// CategoryStack sums revenue per (category, product) for the top products.
// Rows are the distinct non-empty categories in first-appearance order; a
// product with no revenue in a category gets 0 for that row. Records with an
// empty category have no row, so their revenue is left out of the stack.
func CategoryStack(records []models.CanonicalRecord, top []models.ProductMetrics) models.CategoryStack {
	categories := distinct(records, func(r models.CanonicalRecord) string { return r.Category })
	catIndex := indexOf(categories)
	prodIndex := productIndex(top)

	cells := make([][]float64, len(top))
	for i := range cells {
		cells[i] = make([]float64, len(categories))
	}
	for _, r := range records {
		ci, okC := catIndex[r.Category]
		pi, okP := prodIndex[r.Product]
		if okC && okP {
			cells[pi][ci] += r.Revenue
		}
	}

	datasets := make([]models.StackSeries, len(top))
	for i, m := range top {
		datasets[i] = models.StackSeries{Label: m.Product, Data: roundAll(cells[i])}
	}
	return models.CategoryStack{Labels: categories, Datasets: datasets}
}

// GeoMatrix sums revenue per (city, product) for the top products. Records
// with an empty city have no row, so their revenue is left out of the matrix.
func GeoMatrix(records []models.CanonicalRecord, top []models.ProductMetrics) models.GeoMatrix {
	cities := distinct(records, func(r models.CanonicalRecord) string { return r.City })
	cityIndex := indexOf(cities)
	prodIndex := productIndex(top)

	matrix := make([][]float64, len(cities))
	for i := range matrix {
		matrix[i] = make([]float64, len(top))
	}
	for _, r := range records {
		ci, okC := cityIndex[r.City]
		pi, okP := prodIndex[r.Product]
		if okC && okP {
			matrix[ci][pi] += r.Revenue
		}
	}
	for i := range matrix {
		matrix[i] = roundAll(matrix[i])
	}

	cols := make([]string, len(top))
	for i, m := range top {
		cols[i] = m.Product
	}
	return models.GeoMatrix{Rows: cities, Cols: cols, Matrix: matrix}
}

type period struct {
	key     string
	at      time.Time
	revenue float64
}

// RollingWindows sums revenue per period across the whole dataset and computes
// the trailing and preceding four-period sums at every period. A period is
// keyed by weekStart, or "year-Wweek" when weekStart is absent. Periods are
// ordered by their parsed date; synthesized keys use the Monday of their ISO
// week, and ties keep first-appearance order.
func RollingWindows(records []models.CanonicalRecord) models.RollingWindows {
	byKey := make(map[string]int)
	periods := make([]period, 0)
	for _, r := range records {
		key := r.WeekStart
		if key == "" {
			key = fmt.Sprintf("%d-W%d", r.Year, r.WeekNumber)
		}
		i, ok := byKey[key]
		if !ok {
			at, parsed := ParseDate(r.WeekStart)
			if !parsed {
				at = isoWeekStart(r.Year, r.WeekNumber)
			}
			i = len(periods)
			byKey[key] = i
			periods = append(periods, period{key: key, at: at})
		}
		periods[i].revenue += r.Revenue
	}

	slices.SortStableFunc(periods, func(a, b period) int {
		return a.at.Compare(b.at)
	})

	out := models.RollingWindows{
		Labels: make([]string, len(periods)),
		L4W:    make([]float64, len(periods)),
		C4W:    make([]float64, len(periods)),
	}
	values := make([]float64, len(periods))
	for i, p := range periods {
		out.Labels[i] = p.key
		values[i] = p.revenue
	}
	for i := range values {
		l4wStart, c4wStart, c4wEnd := windowBounds(i)
		out.L4W[i] = round2(sum(values[l4wStart : i+1]))
		out.C4W[i] = round2(sum(values[c4wStart:c4wEnd]))
	}
	return out
}

// Trends returns the most recent TrendPoints revenue values of each top product.
func Trends(top []models.ProductMetrics) []models.TrendSeries {
	out := make([]models.TrendSeries, 0, len(top))
	for _, m := range top {
		weeks := m.Weeks[max(0, len(m.Weeks)-TrendPoints):]
		series := make([]float64, len(weeks))
		for i, w := range weeks {
			series[i] = w.Revenue
		}
		out = append(out, models.TrendSeries{Label: m.Product, Series: series})
	}
	return out
}

// Pareto orders the top products by L4W revenue and adds each one's
// cumulative share of their combined revenue.
func Pareto(top []models.ProductMetrics) models.ParetoChart {
	sorted := Rank(top, models.DefaultSort())
	out := models.ParetoChart{
		Labels:        make([]string, len(sorted)),
		Values:        make([]float64, len(sorted)),
		CumulativePct: make([]float64, len(sorted)),
	}
	var total float64
	for i, m := range sorted {
		out.Labels[i] = m.Product
		out.Values[i] = m.L4WRevenue
		total += m.L4WRevenue
	}
	if total == 0 {
		total = 1
	}
	var running float64
	for i, v := range out.Values {
		running += v
		out.CumulativePct[i] = round2(running / total * 100)
	}
	return out
}

// TopProducts pairs L4W revenue with total quantity for the top products.
func TopProducts(top []models.ProductMetrics) models.TopProductsChart {
	out := models.TopProductsChart{
		Labels:   make([]string, len(top)),
		Sales:    make([]float64, len(top)),
		Quantity: make([]float64, len(top)),
	}
	for i, m := range top {
		out.Labels[i] = m.Product
		out.Sales[i] = m.L4WRevenue
		out.Quantity[i] = m.TotalQuantity
	}
	return out
}

func distinct(records []models.CanonicalRecord, field func(models.CanonicalRecord) string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, r := range records {
		v := field(r)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func indexOf(values []string) map[string]int {
	idx := make(map[string]int, len(values))
	for i, v := range values {
		idx[v] = i
	}
	return idx
}

func productIndex(top []models.ProductMetrics) map[string]int {
	idx := make(map[string]int, len(top))
	for i, m := range top {
		if _, dup := idx[m.Product]; !dup {
			idx[m.Product] = i
		}
	}
	return idx
}

func roundAll(values []float64) []float64 {
	for i, v := range values {
		values[i] = round2(v)
	}
	return values
}
