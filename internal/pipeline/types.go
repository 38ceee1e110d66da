package pipeline

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Table is a raw input table: a header row and untyped string cells, as read from a
// workbook sheet, a CSV file or a database query.
type Table struct {
	Name    string
	Header  []string
	Records [][]string

	index map[string]int
}

// NewTable builds a Table. Header names are normalized with NormalizeHeader; when a
// name repeats, the first column wins.
func NewTable(name string, header []string, records [][]string) *Table {
	t := &Table{
		Name:    name,
		Header:  make([]string, len(header)),
		Records: records,
		index:   make(map[string]int, len(header)),
	}
	for i, h := range header {
		n := NormalizeHeader(h)
		t.Header[i] = n
		if n == "" {
			continue
		}
		if _, ok := t.index[n]; !ok {
			t.index[n] = i
		}
	}
	return t
}

// Len returns the number of data records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Column returns the index of the named column, or -1.
func (t *Table) Column(name string) int {
	if t == nil {
		return -1
	}
	key := NormalizeHeader(name)
	if t.index == nil {
		// Literal tables have no index and are scanned in place, read-only.
		for i, h := range t.Header {
			if key != "" && NormalizeHeader(h) == key {
				return i
			}
		}
		return -1
	}
	if idx, ok := t.index[key]; ok {
		return idx
	}
	return -1
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	return t.Column(name) >= 0
}

// Cell returns the raw value at (row, col); out-of-range positions read as "".
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Records) || col < 0 {
		return ""
	}
	record := t.Records[row]
	if col >= len(record) {
		return ""
	}
	return record[col]
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeHeader folds compatibility characters (full-width brackets, ideographic
// spaces) with NFKC, collapses whitespace runs and trims the result.
func NormalizeHeader(name string) string {
	name = norm.NFKC.String(name)
	name = whitespaceRun.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}
