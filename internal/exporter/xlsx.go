package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"salesboard/internal/models"
)

const (
	MetricsSheet = "Metrics"
	WindowsSheet = "Windows"
)

var windowsHeader = []string{"period", "l4w", "c4w"}

// WriteXLSX writes a workbook with the ranked metrics on one sheet and the
// rolling window series on another.
func WriteXLSX(w io.Writer, metrics []models.ProductMetrics, windows models.RollingWindows) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), MetricsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(WindowsSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := writeHeader(f, MetricsSheet, MetricsHeader, headerStyle); err != nil {
		return err
	}
	for i, m := range metrics {
		row := []any{m.Product, m.AvgRevenue, m.L4WRevenue, m.C4WRevenue, m.GrowthL4WvsC4W, m.GrowthYoY, m.TotalQuantity}
		if err := setRow(f, MetricsSheet, i+2, row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(MetricsSheet, "A", "A", 32); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if err := writeHeader(f, WindowsSheet, windowsHeader, headerStyle); err != nil {
		return err
	}
	for i, label := range windows.Labels {
		row := []any{label, valueAt(windows.L4W, i), valueAt(windows.C4W, i)}
		if err := setRow(f, WindowsSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, header []string, style int) error {
	cells := make([]any, len(header))
	for i, h := range header {
		cells[i] = h
	}
	if err := setRow(f, sheet, 1, cells); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("style header %s: %w", sheet, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func valueAt(values []float64, i int) float64 {
	if i < len(values) {
		return values[i]
	}
	return 0
}
