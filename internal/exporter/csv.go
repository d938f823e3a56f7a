// Package exporter writes ranked product metrics as CSV or as an Excel workbook.
package exporter

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"salesboard/internal/models"
)

// MetricsHeader is the column order of both exports.
var MetricsHeader = []string{
	"product",
	"avgRevenue",
	"l4wRevenue",
	"c4wRevenue",
	"growthL4WvsC4W",
	"growthYoY",
	"totalQuantity",
}

// WriteCSV writes one comma-joined line per metric under MetricsHeader.
// Values are written raw: a product name containing a comma or quote is not
// escaped and will shift the columns of its row.
func WriteCSV(w io.Writer, metrics []models.ProductMetrics) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(MetricsHeader, ",") + "\n"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, m := range metrics {
		if _, err := bw.WriteString(strings.Join(metricRow(m), ",") + "\n"); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	return bw.Flush()
}

func metricRow(m models.ProductMetrics) []string {
	return []string{
		m.Product,
		formatNumber(m.AvgRevenue),
		formatNumber(m.L4WRevenue),
		formatNumber(m.C4WRevenue),
		formatNumber(m.GrowthL4WvsC4W),
		formatNumber(m.GrowthYoY),
		formatNumber(m.TotalQuantity),
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
