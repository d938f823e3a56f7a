package engine

import (
	"strings"
	"time"

	"salesboard/internal/models"
)

// Filter returns the records satisfying every predicate in f. An empty
// configuration returns records itself. Records whose weekStart is missing or
// unparseable are never excluded by the date bounds, and an unparseable bound
// constrains nothing.
func Filter(records []models.CanonicalRecord, f models.FilterConfig) []models.CanonicalRecord {
	if f.IsEmpty() {
		return records
	}

	from, hasFrom := ParseDate(f.FromDate)
	to, hasTo := ParseDate(f.ToDate)
	if hasTo {
		to = endOfDay(to)
	}
	needle := strings.ToLower(f.Product)

	out := make([]models.CanonicalRecord, 0, len(records))
	for _, r := range records {
		if f.Category != "" && r.Category != f.Category {
			continue
		}
		if f.Salesman != "" && r.Salesman != f.Salesman {
			continue
		}
		if f.City != "" && r.City != f.City {
			continue
		}
		if f.CustomerType != "" && r.CustomerType != f.CustomerType {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(r.Product), needle) {
			continue
		}
		if (hasFrom || hasTo) && !withinDates(r.WeekStart, from, hasFrom, to, hasTo) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func withinDates(weekStart string, from time.Time, hasFrom bool, to time.Time, hasTo bool) bool {
	d, ok := ParseDate(weekStart)
	if !ok {
		return true
	}
	if hasFrom && d.Before(from) {
		return false
	}
	if hasTo && d.After(to) {
		return false
	}
	return true
}

// FilterMetrics applies the only predicate meaningful for pre-aggregated
// metrics, the product substring. The other predicates need per-record
// dimensions and are ignored.
func FilterMetrics(metrics []models.ProductMetrics, f models.FilterConfig) []models.ProductMetrics {
	if f.Product == "" {
		return metrics
	}
	needle := strings.ToLower(f.Product)
	out := make([]models.ProductMetrics, 0, len(metrics))
	for _, m := range metrics {
		if strings.Contains(strings.ToLower(m.Product), needle) {
			out = append(out, m)
		}
	}
	return out
}
