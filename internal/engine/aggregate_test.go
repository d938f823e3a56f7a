package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesboard/internal/models"
)

func weekly(product string, year int, revenues ...float64) []models.CanonicalRecord {
	out := make([]models.CanonicalRecord, len(revenues))
	for i, rev := range revenues {
		out[i] = models.CanonicalRecord{
			Product:    product,
			Year:       year,
			WeekNumber: i + 1,
			Revenue:    rev,
			Quantity:   rev / 10,
		}
	}
	return out
}

func TestAggregate_FiveWeeks(t *testing.T) {
	metrics := Aggregate(weekly("X", 2024, 100, 200, 300, 400, 500))
	require.Len(t, metrics, 1)

	m := metrics[0]
	assert.Equal(t, "X", m.Product)
	assert.Len(t, m.Weeks, 5)
	assert.Equal(t, 300.0, m.AvgRevenue)
	assert.Equal(t, 1400.0, m.L4WRevenue)
	assert.Equal(t, 100.0, m.C4WRevenue)
	assert.Equal(t, 1300.0, m.GrowthL4WvsC4W)
	assert.Equal(t, 0.0, m.GrowthYoY)
	assert.Equal(t, 150.0, m.TotalQuantity)
}

func TestAggregate_ShortSeriesUsesAvailablePrefix(t *testing.T) {
	records := append(weekly("A", 2024, 100, 200, 300, 400, 500), weekly("B", 2024, 50, 50)...)
	metrics := Aggregate(records)
	require.Len(t, metrics, 2)

	b := metrics[1]
	assert.Equal(t, "B", b.Product)
	assert.Equal(t, 100.0, b.L4WRevenue)
	assert.Equal(t, 0.0, b.C4WRevenue)
	assert.Equal(t, -100.0, b.GrowthL4WvsC4W)
}

func TestAggregate_EightWeekWindows(t *testing.T) {
	m := Aggregate(weekly("X", 2024, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10))[0]
	assert.Equal(t, 34.0, m.L4WRevenue) // 7+8+9+10
	assert.Equal(t, 18.0, m.C4WRevenue) // 3+4+5+6
	assert.Equal(t, 88.89, m.GrowthL4WvsC4W)
}

func TestAggregate_GrowthZeroPolicies(t *testing.T) {
	both := Aggregate(weekly("Z", 2024, 0, 0, 0, 0, 0, 0))[0]
	assert.Equal(t, 0.0, both.GrowthL4WvsC4W)

	onlyRecent := Aggregate(weekly("R", 2024, 0, 0, 0, 0, 5, 5, 5, 5))[0]
	assert.Equal(t, 0.0, onlyRecent.C4WRevenue)
	assert.Equal(t, -100.0, onlyRecent.GrowthL4WvsC4W)
}

func TestAggregate_SortsSeriesByYearThenWeek(t *testing.T) {
	records := []models.CanonicalRecord{
		{Product: "P", Year: 2025, WeekNumber: 1, Revenue: 5},
		{Product: "P", Year: 2024, WeekNumber: 52, Revenue: 4},
		{Product: "P", Year: 2024, WeekNumber: 3, Revenue: 3},
	}
	m := Aggregate(records)[0]
	got := make([][2]int, len(m.Weeks))
	for i, w := range m.Weeks {
		got[i] = [2]int{w.Year, w.Week}
	}
	assert.Equal(t, [][2]int{{2024, 3}, {2024, 52}, {2025, 1}}, got)
}

func TestAggregate_YearOverYear(t *testing.T) {
	var records []models.CanonicalRecord
	for week, rev := range map[int]float64{10: 100, 11: 100, 12: 100, 13: 100} {
		records = append(records,
			models.CanonicalRecord{Product: "P", Year: 2023, WeekNumber: week, Revenue: rev},
			models.CanonicalRecord{Product: "P", Year: 2024, WeekNumber: week, Revenue: rev * 1.5},
		)
	}
	m := Aggregate(records)[0]
	assert.Equal(t, 600.0, m.L4WRevenue)
	assert.Equal(t, 50.0, m.GrowthYoY)
}

func TestAggregate_YearOverYearPartialMatch(t *testing.T) {
	records := []models.CanonicalRecord{
		{Product: "P", Year: 2023, WeekNumber: 2, Revenue: 50},
		{Product: "P", Year: 2024, WeekNumber: 1, Revenue: 100},
		{Product: "P", Year: 2024, WeekNumber: 2, Revenue: 100},
	}
	m := Aggregate(records)[0]
	// L4W covers all three entries (250); only 2024-W2 has a prior-year match (50).
	assert.Equal(t, 250.0, m.L4WRevenue)
	assert.Equal(t, 400.0, m.GrowthYoY)
}

func TestAggregate_DuplicateWeeksAreNotMerged(t *testing.T) {
	records := []models.CanonicalRecord{
		{Product: "P", Year: 2024, WeekNumber: 1, Revenue: 10},
		{Product: "P", Year: 2024, WeekNumber: 1, Revenue: 20},
	}
	m := Aggregate(records)[0]
	assert.Len(t, m.Weeks, 2)
	assert.Equal(t, 15.0, m.AvgRevenue)
}

func TestAggregate_Rounding(t *testing.T) {
	m := Aggregate(weekly("P", 2024, 10.005, 20.111, 0.3333))[0]
	assert.Equal(t, 30.45, m.L4WRevenue)
	assert.Equal(t, 10.15, m.AvgRevenue)
	assert.Equal(t, 20.11, m.Weeks[1].Revenue)
}

func TestAggregate_DefaultOrderIsL4WDescending(t *testing.T) {
	records := append(weekly("Low", 2024, 1, 1), weekly("High", 2024, 100)...)
	records = append(records, weekly("Tie", 2024, 1, 1)...)
	metrics := Aggregate(records)
	names := []string{metrics[0].Product, metrics[1].Product, metrics[2].Product}
	assert.Equal(t, []string{"High", "Low", "Tie"}, names)
}

func TestAggregate_CaseSensitiveGrouping(t *testing.T) {
	records := []models.CanonicalRecord{
		{Product: "Kopi", Revenue: 1},
		{Product: "kopi", Revenue: 2},
	}
	assert.Len(t, Aggregate(records), 2)
}

func TestAggregate_Empty(t *testing.T) {
	metrics := Aggregate(nil)
	assert.NotNil(t, metrics)
	assert.Empty(t, metrics)
}
