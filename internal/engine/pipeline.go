package engine

import (
	"salesboard/internal/models"
)

// DefaultTopN is the number of ranked products the rollups cover.
const DefaultTopN = 8

// Query is the full input of one pipeline pass besides the data itself.
type Query struct {
	Filter models.FilterConfig
	Sort   models.SortConfig
	TopN   int
}

func (q Query) topN() int {
	if q.TopN <= 0 {
		return DefaultTopN
	}
	return q.TopN
}

// Result is everything one pass produces.
type Result struct {
	Metrics     []models.ProductMetrics `json:"metrics"`
	Rollups     models.Rollups          `json:"rollups"`
	Totals      models.Totals           `json:"totals"`
	RecordCount int                     `json:"recordCount"`
}

// Run filters canonical records, aggregates and ranks them, then builds the
// rollups over the filtered records and the top ranked products.
func Run(records []models.CanonicalRecord, q Query) Result {
	filtered := Filter(records, q.Filter)
	ranked := Rank(Aggregate(filtered), q.Sort)
	return build(filtered, ranked, q.topN())
}

// RunMetrics ranks pre-aggregated metrics. Only the product filter applies,
// and rollups are built from the weekly series alone, so the category stack
// and geography matrix have no rows.
func RunMetrics(metrics []models.ProductMetrics, q Query) Result {
	ranked := Rank(FilterMetrics(metrics, q.Filter), q.Sort)
	return build(Expand(ranked), ranked, q.topN())
}

func build(records []models.CanonicalRecord, ranked []models.ProductMetrics, n int) Result {
	top := Top(ranked, n)
	return Result{
		Metrics: ranked,
		Rollups: models.Rollups{
			TopProducts:   TopProducts(top),
			CategoryStack: CategoryStack(records, top),
			GeoMatrix:     GeoMatrix(records, top),
			Windows:       RollingWindows(records),
			Trends:        Trends(top),
			Pareto:        Pareto(top),
		},
		Totals:      Summarize(ranked),
		RecordCount: len(records),
	}
}

// Expand turns weekly series back into minimal canonical records carrying
// product, period, revenue and quantity.
func Expand(metrics []models.ProductMetrics) []models.CanonicalRecord {
	out := make([]models.CanonicalRecord, 0)
	for _, m := range metrics {
		for _, w := range m.Weeks {
			out = append(out, models.CanonicalRecord{
				Product:    m.Product,
				Year:       w.Year,
				WeekNumber: w.Week,
				WeekStart:  w.WeekStart,
				Revenue:    w.Revenue,
				Quantity:   w.Quantity,
			})
		}
	}
	return out
}
