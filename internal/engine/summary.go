package engine

import (
	"fmt"

	"salesboard/internal/models"
)

func Summarize(ranked []models.ProductMetrics) models.Totals {
	t := models.Totals{Products: len(ranked)}
	for _, m := range ranked {
		t.TotalL4W += m.L4WRevenue
		t.TotalQuantity += m.TotalQuantity
	}
	t.TotalL4W = round2(t.TotalL4W)
	t.TotalQuantity = round2(t.TotalQuantity)
	return t
}

// Options lists the distinct values of each filterable dimension.
func Options(records []models.CanonicalRecord) models.DimensionOptions {
	return models.DimensionOptions{
		Categories:    distinct(records, func(r models.CanonicalRecord) string { return r.Category }),
		Salesmen:      distinct(records, func(r models.CanonicalRecord) string { return r.Salesman }),
		Cities:        distinct(records, func(r models.CanonicalRecord) string { return r.City }),
		CustomerTypes: distinct(records, func(r models.CanonicalRecord) string { return r.CustomerType }),
	}
}

// Detail reshapes one product's weekly series for a line chart.
func Detail(m models.ProductMetrics) models.ProductDetail {
	d := models.ProductDetail{
		Product:    m.Product,
		AvgRevenue: m.AvgRevenue,
		Labels:     make([]string, len(m.Weeks)),
		Revenue:    make([]float64, len(m.Weeks)),
		Quantity:   make([]float64, len(m.Weeks)),
	}
	for i, w := range m.Weeks {
		d.Labels[i] = fmt.Sprintf("%d-W%d", w.Year, w.Week)
		d.Revenue[i] = w.Revenue
		d.Quantity[i] = w.Quantity
	}
	return d
}
