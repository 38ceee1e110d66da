package pipeline

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/promo-dispatch/internal/domain"
)

func buildWorkbook(t *testing.T, sheets map[string][][]any, order ...string) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
		for r, row := range sheets[name] {
			cell, _ := excelize.CoordinatesToCellName(1, r+1)
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf
}

func TestWorkbookSheetReadsRawValues(t *testing.T) {
	t.Parallel()

	buf := buildWorkbook(t, map[string][][]any{
		"Data": {
			{" Article ", "MOQ", "Shop Target（HK）"},
			{"A1", 6, 0.5},
			{nil, nil, nil},
			{"A2", 12, 0.25},
		},
	}, "Data")

	wb, err := OpenWorkbook("file_a.xlsx", buf)
	if err != nil {
		t.Fatalf("OpenWorkbook error = %v", err)
	}
	defer wb.Close()

	table, err := wb.SheetAt(0)
	if err != nil {
		t.Fatalf("SheetAt error = %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("rows = %d, want blank row skipped", table.Len())
	}
	if table.Column("Article") != 0 || table.Column("Shop Target(HK)") != 2 {
		t.Fatalf("header = %v", table.Header)
	}
	if got := table.Cell(1, table.Column("MOQ")); got != "12" {
		t.Fatalf("MOQ cell = %q", got)
	}
	if got := table.Cell(0, 2); got != "0.5" {
		t.Fatalf("share cell = %q", got)
	}
}

func TestWorkbookLookupByNameWithFallback(t *testing.T) {
	t.Parallel()

	buf := buildWorkbook(t, map[string][][]any{
		"Targets": {{"Group No."}, {"G1"}},
		"Sheet 2": {{"Site"}, {"S01"}},
	}, "Targets", "Sheet 2")

	wb, err := OpenWorkbook("file_b.xlsx", buf)
	if err != nil {
		t.Fatalf("OpenWorkbook error = %v", err)
	}
	defer wb.Close()

	promo, err := wb.Lookup("Sheet 1", 0)
	if err != nil || !promo.HasColumn("Group No.") {
		t.Fatalf("fallback to first sheet failed: %v", err)
	}
	sites, err := wb.Lookup("sheet 2", 1)
	if err != nil || !sites.HasColumn("Site") {
		t.Fatalf("lookup by name failed: %v", err)
	}
	if _, err := wb.Lookup("Sheet 3", 2); !errors.Is(err, domain.ErrSheetNotFound) {
		t.Fatalf("expected ErrSheetNotFound, got %v", err)
	}
}

func TestReadCSV(t *testing.T) {
	t.Parallel()

	table, err := ReadCSV("file_a.csv", strings.NewReader("\ufeffArticle,Site\nA1,S01\n,\nA2,S02\n"))
	if err != nil {
		t.Fatalf("ReadCSV error = %v", err)
	}
	if table.Len() != 2 || table.Column("Article") != 0 {
		t.Fatalf("table = %+v", table)
	}
}

func TestNormalizeHeader(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"  Shop Target（ALL） ": "Shop Target(ALL)",
		"SaSa\u3000Net  Stock":  "SaSa Net Stock",
		"MOQ":                 "MOQ",
	}
	for in, want := range cases {
		if got := NormalizeHeader(in); got != want {
			t.Fatalf("NormalizeHeader(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTableColumnDoesNotModifyLiteral(t *testing.T) {
	t.Parallel()

	table := &Table{Name: "raw", Header: []string{" Article ", "ＭＯＱ", "Article"}, Records: [][]string{{"1", "2", "3"}}}
	if got := table.Column("Article"); got != 0 {
		t.Fatalf("Column(Article) = %d, want 0", got)
	}
	if got := table.Column("MOQ"); got != 1 {
		t.Fatalf("Column(MOQ) = %d, want 1", got)
	}
	if got := table.Column("Site"); got != -1 {
		t.Fatalf("Column(Site) = %d, want -1", got)
	}
	if table.index != nil || table.Header[0] != " Article " || table.Header[1] != "ＭＯＱ" {
		t.Fatalf("table was modified: %+v", table)
	}
}
