package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/andresuchdata/promo-dispatch/internal/pipeline"
	"github.com/andresuchdata/promo-dispatch/internal/repository/postgres"
)

// TableRepository reads raw input tables from SQL. Result column names become the
// table header, so a query feeding the inventory role aliases its columns to the
// workbook names ("Article", "Site", ...).
type TableRepository interface {
	QueryTable(ctx context.Context, name, query string, args ...any) (*pipeline.Table, error)
}

type tableRepository struct {
	db *postgres.DB
}

func NewTableRepository(db *postgres.DB) TableRepository {
	return &tableRepository{db: db}
}

func (r *tableRepository) QueryTable(ctx context.Context, name, query string, args ...any) (*pipeline.Table, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query for %s is empty", name)
	}

	var table *pipeline.Table
	err := r.db.WithReadOnlyTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := tx.QueryxContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("error querying %s: %w", name, err)
		}
		defer rows.Close()

		table, err = scanTable(name, rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	return table, nil
}

func scanTable(name string, rows *sqlx.Rows) (*pipeline.Table, error) {
	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("error reading %s columns: %w", name, err)
	}

	var records [][]string
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("error scanning %s row: %w", name, err)
		}
		record := make([]string, len(values))
		for i, v := range values {
			record[i] = cellString(v)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", name, err)
	}

	return pipeline.NewTable(name, header, records), nil
}

// cellString renders a driver value the way a spreadsheet cell would read.
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format("2006-01-02")
	default:
		return fmt.Sprint(x)
	}
}
