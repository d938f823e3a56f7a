// Package templates renders the dashboard page and the fragments that
// Datastar patches into it. Components live in .templ files; run
// `templ generate` after editing them.
package templates

//go:generate templ generate

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"salesboard/internal/models"
)

// Element IDs targeted by server-sent patches.
const (
	MetricsTableID = "metrics-table"
	TotalsID       = "totals-cards"
	HeatmapID      = "geo-heatmap"
	SparklinesID   = "sparklines"
	ErrorBannerID  = "dashboard-error"
)

// MaxTableRows caps the rendered metrics table.
const MaxTableRows = 50

const (
	sparkWidth  = 120
	sparkHeight = 28
)

// Render renders c to a string.
func Render(ctx context.Context, c templ.Component) (string, error) {
	var b strings.Builder
	if err := c.Render(ctx, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

func tableRows(metrics []models.ProductMetrics) []models.ProductMetrics {
	if len(metrics) > MaxTableRows {
		return metrics[:MaxTableRows]
	}
	return metrics
}

func productURL(product string) templ.SafeURL {
	return templ.SafeURL("/api/products/" + url.PathEscape(product))
}

func matrixPeak(matrix [][]float64) float64 {
	var peak float64
	for _, row := range matrix {
		for _, v := range row {
			peak = math.Max(peak, v)
		}
	}
	return peak
}

// heatStyle shades a cell by its share of the largest cell.
func heatStyle(v, peak float64) string {
	alpha := 0.0
	if peak > 0 {
		alpha = v / peak
	}
	return fmt.Sprintf("background: rgba(37, 99, 235, %.2f)", alpha)
}

// SparkPoints scales values into a width by height box, y growing downward.
// A flat series is drawn along the middle.
func SparkPoints(values []float64, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}

	step := 0.0
	if len(values) > 1 {
		step = float64(width) / float64(len(values)-1)
	}
	pts := make([]string, len(values))
	for i, v := range values {
		y := float64(height) / 2
		if hi > lo {
			y = float64(height) - (v-lo)/(hi-lo)*float64(height)
		}
		pts[i] = fmt.Sprintf("%.1f,%.1f", float64(i)*step, y)
	}
	return strings.Join(pts, " ")
}

// FormatAmount prints v with two decimals at most and thousands separators.
func FormatAmount(v float64) string {
	intPart, frac, _ := strings.Cut(strconv.FormatFloat(math.Abs(v), 'f', -1, 64), ".")
	if len(frac) > 2 {
		intPart, frac, _ = strings.Cut(strconv.FormatFloat(math.Abs(v), 'f', 2, 64), ".")
	}

	var b strings.Builder
	if v < 0 {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

func FormatPercent(v float64) string {
	sign := ""
	if v > 0 {
		sign = "+"
	}
	return sign + strconv.FormatFloat(v, 'f', 1, 64) + "%"
}
