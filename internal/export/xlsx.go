package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/promo-dispatch/internal/domain"
	"github.com/andresuchdata/promo-dispatch/internal/pipeline/promo"
)

// Sheet names of the report workbook.
const (
	SheetInputData       = "Input Data"
	SheetDetailedResults = "Detailed Results"
	SheetSummary         = "Summary"
	SheetSKUSummary      = "SKU Summary"
)

// ContentType is the MIME type of the report workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// BuildWorkbook lays a report out as a workbook: normalized input, detailed rows, the
// (group, site) summary and the (group, article) summary.
func BuildWorkbook(report *domain.AnalysisReport) (*excelize.File, error) {
	if report == nil {
		return nil, fmt.Errorf("no report to export")
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetInputData); err != nil {
		f.Close()
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	depot := report.Params.CentralDepot
	steps := []func() error{
		func() error {
			return writeSheet(f, SheetInputData, headerStyle, promo.InventoryColumns, report.Inventory)
		},
		func() error {
			return writeSheet(f, SheetDetailedResults, headerStyle, promo.CalculatedColumns, report.Rows)
		},
		func() error {
			return writeSheet(f, SheetSummary, headerStyle, promo.SiteSummaryColumns, report.SiteSummary)
		},
		func() error {
			return writeSheet(f, SheetSKUSummary, headerStyle, promo.ProductSummaryColumns(depot), report.ProductSummary)
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			f.Close()
			return nil, err
		}
	}

	return f, nil
}

// WriteReport writes the report workbook to w.
func WriteReport(w io.Writer, report *domain.AnalysisReport) error {
	f, err := BuildWorkbook(report)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write report workbook: %w", err)
	}
	return nil
}

// FileName is the download name of a report workbook.
func FileName(report *domain.AnalysisReport) string {
	return fmt.Sprintf("promo_dispatch_%s_%s.xlsx", report.CreatedAt.Format("20060102_150405"), shortID(report.ID))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func writeSheet[T any](f *excelize.File, sheet string, headerStyle int, cols []promo.Column[T], rows []T) error {
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}
	}

	header := promo.Header(cols)
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", sheet, err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return err
	}

	for i := range rows {
		values := promo.Values(cols, &rows[i])
		for j, v := range values {
			// Bools render as Yes/No.
			if b, ok := v.(bool); ok {
				values[j] = promo.FormatCell(b)
			}
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+1, sheet, err)
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(cols))
	if err := f.SetColWidth(sheet, "A", lastCol, 16); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}
