package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesboard/internal/models"
)

func TestRun_TwoProducts(t *testing.T) {
	records := append(weekly("A", 2024, 100, 200, 300, 400, 500), weekly("B", 2024, 50, 50)...)

	res := Run(records, Query{})
	require.Len(t, res.Metrics, 2)
	assert.Equal(t, "A", res.Metrics[0].Product)
	assert.Equal(t, 100.0, res.Metrics[1].L4WRevenue)
	assert.Equal(t, 0.0, res.Metrics[1].C4WRevenue)
	assert.Equal(t, 7, res.RecordCount)
	assert.Equal(t, models.Totals{Products: 2, TotalL4W: 1500, TotalQuantity: 160}, res.Totals)
	assert.Equal(t, []string{"A", "B"}, res.Rollups.TopProducts.Labels)
	assert.Len(t, res.Rollups.Trends, 2)
	assert.Len(t, res.Rollups.Windows.Labels, 5)
}

func TestRun_FilterSortAndTopN(t *testing.T) {
	records := rollupFixture()
	res := Run(records, Query{
		Filter: models.FilterConfig{City: "Kota A"},
		Sort:   models.SortConfig{Key: models.SortByL4WRevenue, Direction: models.SortAsc},
		TopN:   2,
	})

	assert.Equal(t, []string{"C", "A", "B"}, names(res.Metrics))
	assert.Equal(t, 3, res.RecordCount)
	assert.Equal(t, []string{"C", "A"}, res.Rollups.GeoMatrix.Cols)
	assert.Equal(t, []string{"Kota A"}, res.Rollups.GeoMatrix.Rows)
	assert.Equal(t, []string{"A", "C"}, res.Rollups.Pareto.Labels)
}

func TestRun_NoSurvivors(t *testing.T) {
	res := Run(rollupFixture(), Query{Filter: models.FilterConfig{Product: "nothing matches"}})
	assert.Empty(t, res.Metrics)
	assert.NotNil(t, res.Metrics)
	assert.Empty(t, res.Rollups.Windows.Labels)
	assert.Empty(t, res.Rollups.CategoryStack.Datasets)
	assert.Equal(t, models.Totals{}, res.Totals)
}

func TestRun_Deterministic(t *testing.T) {
	q := Query{Sort: models.SortConfig{Key: models.SortByAvgRevenue, Direction: models.SortDesc}}
	assert.Equal(t, Run(rollupFixture(), q), Run(rollupFixture(), q))
}

func TestRunMetrics_PreAggregated(t *testing.T) {
	pre := Aggregate(rollupFixture())

	res := RunMetrics(pre, Query{Filter: models.FilterConfig{Product: "a", City: "ignored"}})
	require.Len(t, res.Metrics, 1)
	assert.Equal(t, "A", res.Metrics[0].Product)
	assert.Empty(t, res.Rollups.CategoryStack.Labels)
	assert.Empty(t, res.Rollups.GeoMatrix.Rows)
	assert.Equal(t, []string{"2024-11-25", "2024-12-02"}, res.Rollups.Windows.Labels)
	assert.Equal(t, []float64{240, 300}, res.Rollups.Trends[0].Series)
}

func TestSummaryHelpers(t *testing.T) {
	opts := Options(filterFixture())
	assert.Equal(t, []string{"SKM", "SKT"}, opts.Categories)
	assert.Equal(t, []string{"Budi", "Andi", "Citra"}, opts.Salesmen)
	assert.Equal(t, []string{"Kota A", "Kota B"}, opts.Cities)
	assert.Equal(t, []string{"Wholesale", "Retail"}, opts.CustomerTypes)

	d := Detail(Aggregate(weekly("X", 2024, 10, 20))[0])
	assert.Equal(t, []string{"2024-W1", "2024-W2"}, d.Labels)
	assert.Equal(t, []float64{10, 20}, d.Revenue)
	assert.Equal(t, []float64{1, 2}, d.Quantity)
}
