package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidParameter marks a caller-supplied analysis parameter out of range.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrSheetNotFound indicates a workbook lacks the sheet a table role needs.
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrReportNotFound indicates an unknown or expired report id.
	ErrReportNotFound = errors.New("report not found")
)

// SchemaError reports the required columns missing from an input table.
type SchemaError struct {
	Table   string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s is missing required columns: %s", e.Table, strings.Join(e.Missing, ", "))
}

// ComputationDefect reports a violated internal invariant. It aborts the run.
type ComputationDefect struct {
	Stage     string
	Invariant string
	Row       int
}

func (e *ComputationDefect) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("%s: invariant violated at row %d: %s", e.Stage, e.Row, e.Invariant)
	}
	return fmt.Sprintf("%s: invariant violated: %s", e.Stage, e.Invariant)
}

// InvalidParameterf builds an ErrInvalidParameter with context.
func InvalidParameterf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}
