package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/promo-dispatch/internal/domain"
)

// Workbook is an opened xlsx file whose sheets can be read as Tables.
type Workbook struct {
	name string
	f    *excelize.File
}

// OpenWorkbook reads an xlsx workbook from r. name labels tables and errors.
func OpenWorkbook(name string, r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx %s: %w", name, err)
	}
	return &Workbook{name: name, f: f}, nil
}

// Close releases the workbook's temporary resources.
func (w *Workbook) Close() error {
	return w.f.Close()
}

// Sheets lists the sheet names in workbook order.
func (w *Workbook) Sheets() []string {
	return w.f.GetSheetList()
}

// SheetAt reads the sheet at a zero-based position.
func (w *Workbook) SheetAt(index int) (*Table, error) {
	sheets := w.f.GetSheetList()
	if index < 0 || index >= len(sheets) {
		return nil, fmt.Errorf("%w: %s has no sheet at position %d", domain.ErrSheetNotFound, w.name, index+1)
	}
	return w.Sheet(sheets[index])
}

// Lookup reads the sheet with the given name, falling back to the sheet at fallback
// when no sheet carries that name (after header-style normalization).
func (w *Workbook) Lookup(name string, fallback int) (*Table, error) {
	want := strings.ToLower(NormalizeHeader(name))
	for _, sheet := range w.f.GetSheetList() {
		if strings.ToLower(NormalizeHeader(sheet)) == want {
			return w.Sheet(sheet)
		}
	}
	t, err := w.SheetAt(fallback)
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no sheet %q", domain.ErrSheetNotFound, w.name, name)
	}
	return t, nil
}

// Sheet reads a sheet into a Table. The first row is the header; fully blank rows are
// skipped. Cells are read as raw values so percentage formats do not leak into text.
func (w *Workbook) Sheet(sheet string) (*Table, error) {
	rows, err := w.f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheet, err)
	}
	defer rows.Close()

	var header []string
	records := make([][]string, 0)
	first := true
	for rows.Next() {
		record, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read row from %s/%s: %w", w.name, sheet, err)
		}
		if first {
			header = record
			first = false
			continue
		}
		if blankRecord(record) {
			continue
		}
		records = append(records, record)
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("error iterating rows in %s/%s: %w", w.name, sheet, err)
	}
	if first {
		return nil, fmt.Errorf("sheet %s of %s is empty", sheet, w.name)
	}

	return NewTable(w.name+"/"+sheet, header, records), nil
}

// ReadCSV reads a comma-separated table with a header row.
func ReadCSV(name string, r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv %s is empty", name)
		}
		return nil, fmt.Errorf("failed to read csv header of %s: %w", name, err)
	}
	// Strip a UTF-8 BOM left by spreadsheet exports.
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	records := make([][]string, 0)
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read csv %s: %w", name, err)
		}
		if blankRecord(record) {
			continue
		}
		records = append(records, record)
	}

	return NewTable(name, header, records), nil
}

func blankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
