package service

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/promo-dispatch/internal/domain"
	"github.com/andresuchdata/promo-dispatch/internal/pipeline"
)

// Sheet names of the targets workbook. Lookup falls back to position when a
// workbook uses other names.
const (
	PromotionSheet = "Sheet 1"
	SiteSheet      = "Sheet 2"
)

// File is one uploaded or fetched input file. Name decides the reader: ".csv" is
// read as comma-separated text, anything else as an xlsx workbook.
type File struct {
	Name string
	Data []byte
}

func isCSV(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".csv")
}

// loadInventory reads the inventory table from a CSV file or the first sheet of a workbook.
func loadInventory(f File) (*pipeline.Table, error) {
	if len(f.Data) == 0 {
		return nil, domain.InvalidParameterf("inventory file %q is empty", f.Name)
	}
	if isCSV(f.Name) {
		return pipeline.ReadCSV(f.Name, bytes.NewReader(f.Data))
	}

	wb, err := pipeline.OpenWorkbook(f.Name, bytes.NewReader(f.Data))
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	t, err := wb.SheetAt(0)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory sheet: %w", err)
	}
	return t, nil
}

// loadTargets reads the promotion and site target tables from the two sheets of a workbook.
func loadTargets(f File) (promotions, sites *pipeline.Table, err error) {
	if len(f.Data) == 0 {
		return nil, nil, domain.InvalidParameterf("targets file %q is empty", f.Name)
	}
	if isCSV(f.Name) {
		return nil, nil, domain.InvalidParameterf("targets file %q must be an xlsx workbook with two sheets", f.Name)
	}

	wb, err := pipeline.OpenWorkbook(f.Name, bytes.NewReader(f.Data))
	if err != nil {
		return nil, nil, err
	}
	defer wb.Close()

	promotions, err = wb.Lookup(PromotionSheet, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read promotion target sheet: %w", err)
	}
	sites, err = wb.Lookup(SiteSheet, 1)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read site target sheet: %w", err)
	}
	return promotions, sites, nil
}
