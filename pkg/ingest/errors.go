package ingest

import (
	"errors"
	"fmt"
)

// ErrFileNotFound indicates the input workbook does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrInvalidFormat indicates the input file is not a valid xlsx workbook.
var ErrInvalidFormat = errors.New("invalid xlsx format")

// SheetError wraps a failure isolated to one sheet and pipeline stage.
// Sheet failures never abort the batch; the result carries them alongside
// the sheets that succeeded.
type SheetError struct {
	Sheet string
	Stage string // "read", "encode", "filter", "complexity", "route", "compare"
	Err   error
}

func (e *SheetError) Error() string {
	return fmt.Sprintf("sheet %q failed at %s: %v", e.Sheet, e.Stage, e.Err)
}

func (e *SheetError) Unwrap() error {
	return e.Err
}

// NewSheetError creates a new SheetError.
func NewSheetError(sheet, stage string, err error) *SheetError {
	return &SheetError{Sheet: sheet, Stage: stage, Err: err}
}
