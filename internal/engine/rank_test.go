package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"salesboard/internal/models"
)

func rankFixture() []models.ProductMetrics {
	return []models.ProductMetrics{
		{Product: "a", L4WRevenue: 10, AvgRevenue: 5, TotalQuantity: 1},
		{Product: "b", L4WRevenue: 30, AvgRevenue: 5, TotalQuantity: 3},
		{Product: "c", L4WRevenue: 10, AvgRevenue: 9, TotalQuantity: 2},
		{Product: "d", L4WRevenue: 20, AvgRevenue: 5, TotalQuantity: 2},
	}
}

func names(metrics []models.ProductMetrics) []string {
	out := make([]string, len(metrics))
	for i, m := range metrics {
		out[i] = m.Product
	}
	return out
}

func TestRank(t *testing.T) {
	tests := []struct {
		name string
		sc   models.SortConfig
		want []string
	}{
		{"l4w desc", models.SortConfig{Key: models.SortByL4WRevenue, Direction: models.SortDesc}, []string{"b", "d", "a", "c"}},
		{"l4w asc", models.SortConfig{Key: models.SortByL4WRevenue, Direction: models.SortAsc}, []string{"a", "c", "d", "b"}},
		{"avg desc keeps ties stable", models.SortConfig{Key: models.SortByAvgRevenue, Direction: models.SortDesc}, []string{"c", "a", "b", "d"}},
		{"avg asc keeps ties stable", models.SortConfig{Key: models.SortByAvgRevenue, Direction: models.SortAsc}, []string{"a", "b", "d", "c"}},
		{"quantity desc", models.SortConfig{Key: models.SortByTotalQuantity, Direction: models.SortDesc}, []string{"b", "c", "d", "a"}},
		{"quantity asc", models.SortConfig{Key: models.SortByTotalQuantity, Direction: models.SortAsc}, []string{"a", "c", "d", "b"}},
		{"zero value means l4w desc", models.SortConfig{}, []string{"b", "d", "a", "c"}},
		{"unknown key", models.SortConfig{Key: "margin", Direction: models.SortAsc}, []string{"a", "c", "d", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(Rank(rankFixture(), tt.sc)))
		})
	}
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	in := rankFixture()
	_ = Rank(in, models.SortConfig{Key: models.SortByTotalQuantity, Direction: models.SortAsc})
	assert.Equal(t, rankFixture(), in)
}

func TestRank_Empty(t *testing.T) {
	out := Rank(nil, models.DefaultSort())
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestTop(t *testing.T) {
	in := rankFixture()
	assert.Len(t, Top(in, 2), 2)
	assert.Len(t, Top(in, 10), 4)
	assert.Len(t, Top(in, 0), 4)
}
