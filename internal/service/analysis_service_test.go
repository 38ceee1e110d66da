package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/promo-dispatch/internal/cache"
	"github.com/andresuchdata/promo-dispatch/internal/config"
	"github.com/andresuchdata/promo-dispatch/internal/domain"
	"github.com/andresuchdata/promo-dispatch/internal/export"
	"github.com/andresuchdata/promo-dispatch/internal/pipeline"
	"github.com/andresuchdata/promo-dispatch/internal/pipeline/promo"
	"github.com/andresuchdata/promo-dispatch/internal/storage"
)

type sheet struct {
	name string
	rows [][]string
}

func buildWorkbook(t *testing.T, sheets ...sheet) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				t.Fatalf("SetSheetName error = %v", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			t.Fatalf("NewSheet error = %v", err)
		}
		for r, row := range s.rows {
			values := make([]any, len(row))
			for c, v := range row {
				values[c] = v
			}
			cell, _ := excelize.CoordinatesToCellName(1, r+1)
			if err := f.SetSheetRow(s.name, cell, &values); err != nil {
				t.Fatalf("SetSheetRow error = %v", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer error = %v", err)
	}
	return buf.Bytes()
}

var inventoryRows = [][]string{
	{"Article", "Article Description", "RP Type", "Site", "MOQ", "SaSa Net Stock", "Pending Received",
		"Safety Stock", "Last Month Sold Qty", "MTD Sold Qty", "Supply source", "Description p. group"},
	{"1", "Lip balm", "RF", "S01", "1", "2", "1", "0", "30", "2", "1", "group"},
	{"1", "Lip balm", "RF", "D001", "1", "20", "0", "0", "0", "0", "2", "group"},
	{"2", "Toner", "ND", "S01", "6", "0", "0", "0", "90", "0", "9", "other"},
}

func inventoryFile(t *testing.T) File {
	return File{Name: "inventory.xlsx", Data: buildWorkbook(t, sheet{"Stock", inventoryRows})}
}

func targetsFile(t *testing.T, promoSheet, siteSheet string) File {
	return File{Name: "targets.xlsx", Data: buildWorkbook(t,
		sheet{promoSheet, [][]string{
			{"Group No.", "Article", "SKU Target", "Target Type", "Promotion Days", "Target Cover Days"},
			{"1", "1", "5", "HK", "0", "10"},
			{"2", "2", "8", "ALL", "7", "14"},
		}},
		sheet{siteSheet, [][]string{
			{"Site", "Shop Target(HK)", "Shop Target(MO)", "Shop Target(ALL)"},
			{"S01", "50", "30", "20"},
			{"D001", "0", "0", "0"},
		}},
	)}
}

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: make(map[string][]byte)}
}

func (m *memoryStorage) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.ObjectInfo
	for k, v := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, storage.ObjectInfo{Key: k, Size: int64(len(v))})
		}
	}
	return out, nil
}

func (m *memoryStorage) GetObject(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrObjectNotFound, key)
	}
	return data, nil
}

func (m *memoryStorage) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

type fakeTables struct {
	table *pipeline.Table
	query string
}

func (f *fakeTables) QueryTable(ctx context.Context, name, query string, args ...any) (*pipeline.Table, error) {
	f.query = query
	return f.table, nil
}

type fakeDrive map[string]File

func (d fakeDrive) Fetch(ctx context.Context, id string) (File, error) {
	f, ok := d[id]
	if !ok {
		return File{}, fmt.Errorf("file %s not found", id)
	}
	return f, nil
}

func newService(deps Deps) *AnalysisService {
	deps.Pipeline = promo.NewPipeline(zerolog.Nop(), promo.Options{})
	deps.Reports = cache.NewMemoryReportStore(time.Minute)
	deps.Defaults = config.AnalysisConfig{LeadTime: 2, Strategy: "ceil_moq", CentralDepot: "D001"}
	deps.Log = zerolog.Nop()
	svc := NewAnalysisService(deps)
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC) }
	return svc
}

func TestAnalyzeFiles(t *testing.T) {
	t.Parallel()

	svc := newService(Deps{})
	ctx := context.Background()

	report, err := svc.AnalyzeFiles(ctx, inventoryFile(t), targetsFile(t, "Sheet 1", "Sheet 2"), ParamsInput{})
	if err != nil {
		t.Fatalf("AnalyzeFiles error = %v", err)
	}
	if report.ID == "" || report.Params.CurrentDay != 2 || report.Params.LeadTime != 2 {
		t.Fatalf("report header = %+v", report.Params)
	}
	if len(report.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(report.Rows))
	}
	if got := report.Rows[0].SuggestedDispatchQty; got != 12 {
		t.Fatalf("first row dispatch = %v, want 12", got)
	}

	stored, err := svc.Report(ctx, report.ID)
	if err != nil || stored.ID != report.ID {
		t.Fatalf("Report = %v, %v", stored, err)
	}
}

func TestAnalyzeFilesPositionalSheets(t *testing.T) {
	t.Parallel()

	svc := newService(Deps{})
	report, err := svc.AnalyzeFiles(context.Background(), inventoryFile(t), targetsFile(t, "Promo", "Shops"), ParamsInput{CurrentDay: 2})
	if err != nil {
		t.Fatalf("AnalyzeFiles error = %v", err)
	}
	if report.Stats.UnmatchedSites != 0 {
		t.Fatalf("stats = %+v", report.Stats)
	}
}

func TestAnalyzeFilesCSVInventory(t *testing.T) {
	t.Parallel()

	var csv strings.Builder
	for _, row := range inventoryRows {
		csv.WriteString(strings.Join(row, ",") + "\n")
	}

	svc := newService(Deps{})
	report, err := svc.AnalyzeFiles(context.Background(),
		File{Name: "inventory.CSV", Data: []byte(csv.String())},
		targetsFile(t, "Sheet 1", "Sheet 2"), ParamsInput{CurrentDay: 2})
	if err != nil {
		t.Fatalf("AnalyzeFiles error = %v", err)
	}
	if len(report.Inventory) != 3 {
		t.Fatalf("inventory = %d", len(report.Inventory))
	}
}

func TestAnalyzeFilesErrors(t *testing.T) {
	t.Parallel()

	svc := newService(Deps{})
	ctx := context.Background()

	_, err := svc.AnalyzeFiles(ctx, inventoryFile(t), targetsFile(t, "Sheet 1", "Sheet 2"), ParamsInput{Strategy: "round"})
	if !errors.Is(err, domain.ErrInvalidParameter) {
		t.Fatalf("bad strategy error = %v", err)
	}

	_, err = svc.AnalyzeFiles(ctx, inventoryFile(t), File{Name: "targets.csv", Data: []byte("a,b\n")}, ParamsInput{})
	if !errors.Is(err, domain.ErrInvalidParameter) {
		t.Fatalf("csv targets error = %v", err)
	}

	onlyOne := File{Name: "targets.xlsx", Data: buildWorkbook(t, sheet{"Sheet 1", [][]string{{"Group No."}}})}
	_, err = svc.AnalyzeFiles(ctx, inventoryFile(t), onlyOne, ParamsInput{})
	if !errors.Is(err, domain.ErrSheetNotFound) {
		t.Fatalf("single sheet error = %v", err)
	}

	broken := File{Name: "inventory.xlsx", Data: buildWorkbook(t, sheet{"Stock", [][]string{{"Article", "Site"}, {"1", "S01"}}})}
	_, err = svc.AnalyzeFiles(ctx, broken, targetsFile(t, "Sheet 1", "Sheet 2"), ParamsInput{})
	var schemaErr *domain.SchemaError
	if !errors.As(err, &schemaErr) || len(schemaErr.Missing) == 0 {
		t.Fatalf("schema error = %v", err)
	}
}

func TestAnalyzeObjectsAndExport(t *testing.T) {
	t.Parallel()

	store := newMemoryStorage()
	ctx := context.Background()
	_ = store.PutObject(ctx, "inputs/inventory.xlsx", inventoryFile(t).Data, "")
	_ = store.PutObject(ctx, "inputs/targets.xlsx", targetsFile(t, "Sheet 1", "Sheet 2").Data, "")

	svc := newService(Deps{Storage: store, ExportPrefix: "exports/"})
	report, err := svc.AnalyzeObjects(ctx, "inputs/inventory.xlsx", "inputs/targets.xlsx", ParamsInput{})
	if err != nil {
		t.Fatalf("AnalyzeObjects error = %v", err)
	}

	key, err := svc.ExportToStorage(ctx, report.ID)
	if err != nil {
		t.Fatalf("ExportToStorage error = %v", err)
	}
	if key != "exports/"+export.FileName(report) {
		t.Fatalf("key = %q", key)
	}
	data, err := store.GetObject(ctx, key)
	if err != nil {
		t.Fatalf("exported object missing: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("exported workbook unreadable: %v", err)
	}
	defer f.Close()
	if len(f.GetSheetList()) != 4 {
		t.Fatalf("sheets = %v", f.GetSheetList())
	}

	if _, err := svc.AnalyzeObjects(ctx, "inputs/missing.xlsx", "inputs/targets.xlsx", ParamsInput{}); !errors.Is(err, storage.ErrObjectNotFound) {
		t.Fatalf("missing object error = %v", err)
	}
}

func TestAnalyzeDrive(t *testing.T) {
	t.Parallel()

	drive := fakeDrive{"a": inventoryFile(t), "b": targetsFile(t, "Sheet 1", "Sheet 2")}
	svc := newService(Deps{Drive: drive})

	report, err := svc.AnalyzeDrive(context.Background(), "a", "b", ParamsInput{})
	if err != nil {
		t.Fatalf("AnalyzeDrive error = %v", err)
	}
	if len(report.Rows) != 3 {
		t.Fatalf("rows = %d", len(report.Rows))
	}

	if _, err := svc.AnalyzeDrive(context.Background(), "a", "", ParamsInput{}); !errors.Is(err, domain.ErrInvalidParameter) {
		t.Fatalf("missing id error = %v", err)
	}
}

func TestAnalyzeDatabase(t *testing.T) {
	t.Parallel()

	tables := &fakeTables{table: pipeline.NewTable("inventory", inventoryRows[0], inventoryRows[1:])}
	svc := newService(Deps{Tables: tables, InventoryQuery: "SELECT * FROM promo_inventory"})

	report, err := svc.AnalyzeDatabase(context.Background(), targetsFile(t, "Sheet 1", "Sheet 2"), ParamsInput{})
	if err != nil {
		t.Fatalf("AnalyzeDatabase error = %v", err)
	}
	if tables.query != "SELECT * FROM promo_inventory" || len(report.Rows) != 3 {
		t.Fatalf("query %q rows %d", tables.query, len(report.Rows))
	}
}

func TestUnconfiguredSources(t *testing.T) {
	t.Parallel()

	svc := newService(Deps{})
	ctx := context.Background()

	if _, err := svc.AnalyzeObjects(ctx, "a", "b", ParamsInput{}); !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("objects error = %v", err)
	}
	if _, err := svc.AnalyzeDrive(ctx, "a", "b", ParamsInput{}); !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("drive error = %v", err)
	}
	if _, err := svc.AnalyzeDatabase(ctx, File{}, ParamsInput{}); !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("database error = %v", err)
	}
	if _, err := svc.ExportToStorage(ctx, "x"); !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("export error = %v", err)
	}
	if _, err := svc.Charts(ctx, "unknown", ""); !errors.Is(err, domain.ErrReportNotFound) {
		t.Fatalf("charts error = %v", err)
	}
}

func TestDeleteAndClearReports(t *testing.T) {
	t.Parallel()

	svc := newService(Deps{})
	ctx := context.Background()

	ids := make([]string, 0, 2)
	for i := 0; i < 2; i++ {
		report, err := svc.AnalyzeFiles(ctx, inventoryFile(t), targetsFile(t, "Sheet 1", "Sheet 2"), ParamsInput{})
		if err != nil {
			t.Fatalf("AnalyzeFiles error = %v", err)
		}
		ids = append(ids, report.ID)
	}

	if err := svc.DeleteReport(ctx, ids[0]); err != nil {
		t.Fatalf("DeleteReport error = %v", err)
	}
	if _, err := svc.Report(ctx, ids[0]); !errors.Is(err, domain.ErrReportNotFound) {
		t.Fatalf("Report after delete error = %v", err)
	}
	if err := svc.DeleteReport(ctx, ids[0]); !errors.Is(err, domain.ErrReportNotFound) {
		t.Fatalf("second DeleteReport error = %v, want ErrReportNotFound", err)
	}
	if _, err := svc.Report(ctx, ids[1]); err != nil {
		t.Fatalf("other report removed: %v", err)
	}

	if err := svc.ClearReports(ctx); err != nil {
		t.Fatalf("ClearReports error = %v", err)
	}
	if _, err := svc.Report(ctx, ids[1]); !errors.Is(err, domain.ErrReportNotFound) {
		t.Fatalf("Report after clear error = %v", err)
	}
}
