package compress

import (
	"fmt"

	"github.com/ib-agent/excel-ingest-go/pkg/ingest/models"
)

// Params holds run-length encoding thresholds.
type Params struct {
	// MinRunLength is the minimum run length for non-null values.
	MinRunLength int
	// NullRunLength is the lower minimum applied to null-valued runs.
	NullRunLength int
	// WideRowCells switches a row to the aggressive minimum when it holds
	// at least this many cells.
	WideRowCells int
	// WideRunLength is the minimum applied to every value in a wide row.
	WideRunLength int
}

// DefaultParams returns the default encoding thresholds.
func DefaultParams() Params {
	return Params{
		MinRunLength:  3,
		NullRunLength: 2,
		WideRowCells:  256,
		WideRunLength: 2,
	}
}

// minRunFor picks the threshold for a value in a row of the given width.
func (p Params) minRunFor(value interface{}, rowCells int) int {
	if rowCells >= p.WideRowCells {
		return p.WideRunLength
	}
	if value == nil {
		return p.NullRunLength
	}
	return p.MinRunLength
}

// InvariantError reports a run whose members did not match its canonical
// triple during re-verification. The run is re-emitted as individual cells,
// so the error is non-fatal.
type InvariantError struct {
	Row    int
	Col    int
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("compression invariant violated at r%d c%d: %s", e.Row, e.Col, e.Reason)
}

// Stats wraps the cumulative codec counters for one worker.
type Stats struct {
	models.RLEStats
}

// EncodeRow run-length encodes one row. It scans cells left to right,
// extending the current run while the next cell is column-adjacent and its
// (value, style, formula) triple matches exactly; on a break the run is
// emitted only when it meets the minimum length for its value class,
// otherwise its members are emitted as singles. When every cell in the row
// shares one style id it is hoisted to the row level and the per-cell refs
// are cleared, uniformly for singles and runs.
//
// Returned invariant errors mean a run failed re-verification and was
// emitted uncompressed; they never abort encoding.
func EncodeRow(row models.Row, params Params, stats *Stats) (models.CompressedRow, []error) {
	out := models.CompressedRow{R: row.R}
	var errs []error
	if len(row.Cells) == 0 {
		return out, nil
	}

	stats.CellsBefore += len(row.Cells)
	runsBefore := stats.RunsCreated

	var pending []models.Cell
	flush := func() {
		if len(pending) == 0 {
			return
		}
		head := pending[0]
		if len(pending) >= params.minRunFor(head.Value, len(row.Cells)) {
			err := verifyRun(row.R, pending)
			if err == nil {
				out.Cells = append(out.Cells, models.Run{
					StartCol: head.Col,
					Value:    head.Value,
					StyleRef: head.StyleRef,
					Formula:  head.Formula,
					Length:   len(pending),
				})
				stats.RunsCreated++
				pending = pending[:0]
				return
			}
			errs = append(errs, err)
		}
		for _, c := range pending {
			out.Cells = append(out.Cells, models.Single{
				Col: c.Col, Value: c.Value, StyleRef: c.StyleRef, Formula: c.Formula,
			})
		}
		pending = pending[:0]
	}

	for _, c := range row.Cells {
		if len(pending) > 0 {
			prev := pending[len(pending)-1]
			if c.Col == prev.Col+1 && tripleEqual(c, pending[0]) {
				pending = append(pending, c)
				continue
			}
			flush()
		}
		pending = append(pending, c)
	}
	flush()

	stats.CellsAfter += len(out.Cells)
	if stats.RunsCreated > runsBefore {
		stats.RowsCompressed++
	}
	stats.CompressionRatioPercent = stats.Ratio()

	hoistRowStyle(&out)
	return out, errs
}

// DecodeRow reconstructs the original row: runs expand to their member
// cells and a hoisted row style is restored onto every cell. It is the
// exact inverse of EncodeRow.
func DecodeRow(cr models.CompressedRow) models.Row {
	row := models.Row{R: cr.R}
	for _, c := range cr.Cells {
		switch v := c.(type) {
		case models.Single:
			cell := models.Cell{Col: v.Col, Value: v.Value, StyleRef: v.StyleRef, Formula: v.Formula}
			if cell.StyleRef == "" {
				cell.StyleRef = cr.Style
			}
			row.Cells = append(row.Cells, cell)
		case models.Run:
			ref := v.StyleRef
			if ref == "" {
				ref = cr.Style
			}
			for i := 0; i < v.Length; i++ {
				row.Cells = append(row.Cells, models.Cell{
					Col: v.StartCol + i, Value: v.Value, StyleRef: ref, Formula: v.Formula,
				})
			}
		}
	}
	return row
}

// tripleEqual reports whether two cells carry the identical
// (value, style, formula) triple. Values compare by type and content, so
// int64(1) never matches float64(1).
func tripleEqual(a, b models.Cell) bool {
	return a.Value == b.Value && a.StyleRef == b.StyleRef && a.Formula == b.Formula
}

// verifyRun re-checks every member against the canonical triple before a
// run is emitted.
func verifyRun(rowIdx int, members []models.Cell) error {
	head := members[0]
	for i, m := range members {
		if m.Col != head.Col+i {
			return &InvariantError{Row: rowIdx, Col: m.Col, Reason: "non-adjacent member"}
		}
		if !tripleEqual(m, head) {
			return &InvariantError{Row: rowIdx, Col: m.Col, Reason: "member triple mismatch"}
		}
	}
	return nil
}

// hoistRowStyle promotes a style id shared by every cell of a row to the
// row level, clearing the per-cell refs.
func hoistRowStyle(cr *models.CompressedRow) {
	if len(cr.Cells) == 0 {
		return
	}
	shared := ""
	for i, c := range cr.Cells {
		var ref string
		switch v := c.(type) {
		case models.Single:
			ref = v.StyleRef
		case models.Run:
			ref = v.StyleRef
		}
		if ref == "" {
			return
		}
		if i == 0 {
			shared = ref
		} else if ref != shared {
			return
		}
	}
	cr.Style = shared
	for i, c := range cr.Cells {
		switch v := c.(type) {
		case models.Single:
			v.StyleRef = ""
			cr.Cells[i] = v
		case models.Run:
			v.StyleRef = ""
			cr.Cells[i] = v
		}
	}
}
