// Package filter trims empty trailing regions from compact sheets.
package filter

import (
	"sort"

	"github.com/ib-agent/excel-ingest-go/pkg/ingest/models"
)

// Mode selects the trimming behavior.
type Mode string

const (
	// ModeAggressive trims everything past the last meaningful cell.
	ModeAggressive Mode = "aggressive"
	// ModeConservative keeps a safety buffer and defers to complexity
	// metadata when structure might be lost.
	ModeConservative Mode = "conservative"
)

// conservativeBuffer is the number of extra trailing rows/columns the
// conservative mode keeps past the last meaningful cell.
const conservativeBuffer = 2

// conservativeSparsityMax is the sparsity ratio above which conservative
// mode refuses to trim at all.
const conservativeSparsityMax = 0.5

// Result reports what a trim pass did.
type Result struct {
	RowsTrimmed int
	ColsTrimmed int
	// Skipped is set when conservative mode deferred to metadata and left
	// the sheet untouched.
	Skipped bool
}

// Trim shrinks the sheet's declared bounds to the extent of meaningful
// data (non-null, and for strings non-whitespace), dropping rows and cells
// past the new bounds. Runs straddling the new column bound are shortened,
// never dropped. Trimming is idempotent and never removes meaningful data.
//
// In conservative mode a fixed buffer is kept, and when the data is highly
// sparse or clustered the sheet is left untouched. Those signals come from
// meta when the caller has prior metadata, otherwise from a scan of the
// sheet itself.
func Trim(sheet *models.CompactSheet, mode Mode, meta *models.ComplexityMetadata) Result {
	if mode == ModeConservative {
		ratio, clustered := deferralSignals(sheet, meta)
		if ratio > conservativeSparsityMax || clustered {
			return Result{Skipped: true}
		}
	}

	minRow, minCol := sheet.Dimensions[0], sheet.Dimensions[1]
	maxRow, maxCol := sheet.Dimensions[2], sheet.Dimensions[3]

	lastRow, lastCol := dataExtent(sheet)
	if lastRow == 0 {
		// Nothing meaningful anywhere: collapse to a single cell at the
		// declared origin.
		lastRow, lastCol = minRow, minCol
	}

	newMaxRow, newMaxCol := lastRow, lastCol
	if mode == ModeConservative {
		newMaxRow += conservativeBuffer
		newMaxCol += conservativeBuffer
	}
	if newMaxRow > maxRow {
		newMaxRow = maxRow
	}
	if newMaxCol > maxCol {
		newMaxCol = maxCol
	}

	res := Result{
		RowsTrimmed: maxRow - newMaxRow,
		ColsTrimmed: maxCol - newMaxCol,
	}
	if res.RowsTrimmed == 0 && res.ColsTrimmed == 0 {
		return res
	}

	sheet.Dimensions[2] = newMaxRow
	sheet.Dimensions[3] = newMaxCol

	kept := sheet.Rows[:0]
	for _, row := range sheet.Rows {
		if row.R > newMaxRow {
			continue
		}
		row.Cells = clampCells(row.Cells, newMaxCol)
		kept = append(kept, row)
	}
	sheet.Rows = kept

	sheet.Merged = clampMerges(sheet.Merged, newMaxRow, newMaxCol)
	return res
}

// clusterGapLimit is the number of row/column index gaps above which the
// pre-pass scan treats the data as clustered islands.
const clusterGapLimit = 3

// deferralSignals returns the sparsity ratio and clustering flag that gate
// conservative trimming. Prior metadata wins when present; without it the
// sheet is scanned directly, measuring density against the declared bounds.
func deferralSignals(sheet *models.CompactSheet, meta *models.ComplexityMetadata) (float64, bool) {
	if meta != nil {
		return meta.Sparsity.Ratio, meta.Sparsity.Clustered
	}

	area := (sheet.Dimensions[2] - sheet.Dimensions[0] + 1) * (sheet.Dimensions[3] - sheet.Dimensions[1] + 1)
	if area <= 0 {
		return 0, false
	}

	populated := 0
	colSeen := map[int]bool{}
	var rowIdx []int
	for _, row := range sheet.Rows {
		if len(row.Cells) == 0 {
			continue
		}
		rowIdx = append(rowIdx, row.R)
		for _, c := range row.Cells {
			switch v := c.(type) {
			case models.Single:
				populated++
				colSeen[v.Col] = true
			case models.Run:
				populated += v.Length
				for col := v.StartCol; col <= v.EndCol(); col++ {
					colSeen[col] = true
				}
			}
		}
	}

	ratio := 1 - float64(populated)/float64(area)
	if ratio < 0 {
		ratio = 0
	}

	colIdx := make([]int, 0, len(colSeen))
	for col := range colSeen {
		colIdx = append(colIdx, col)
	}
	sort.Ints(colIdx)
	gaps := indexGaps(rowIdx) + indexGaps(colIdx)
	return ratio, gaps > clusterGapLimit
}

// indexGaps counts breaks in a sorted index sequence.
func indexGaps(idx []int) int {
	gaps := 0
	for i := 1; i < len(idx); i++ {
		if idx[i] > idx[i-1]+1 {
			gaps++
		}
	}
	return gaps
}

// ClampGrid restricts a parsed grid to trimmed sheet bounds so downstream
// analysis measures the filtered region, not the declared one. Rows and
// cells past the bounds are dropped and merges are shrunk to fit.
func ClampGrid(grid *models.SheetGrid, dims [4]int) {
	maxRow, maxCol := dims[2], dims[3]
	grid.Region.MinRow, grid.Region.MinCol = dims[0], dims[1]
	grid.Region.MaxRow, grid.Region.MaxCol = maxRow, maxCol

	keptRows := grid.Rows[:0]
	for _, row := range grid.Rows {
		if row.R > maxRow {
			continue
		}
		keptCells := row.Cells[:0]
		for _, c := range row.Cells {
			if c.Col <= maxCol {
				keptCells = append(keptCells, c)
			}
		}
		row.Cells = keptCells
		if len(row.Cells) > 0 {
			keptRows = append(keptRows, row)
		}
	}
	grid.Rows = keptRows

	keptMerges := grid.Region.Merges[:0]
	for _, m := range grid.Region.Merges {
		if m.StartRow > maxRow || m.StartCol > maxCol {
			continue
		}
		if m.EndRow > maxRow {
			m.EndRow = maxRow
		}
		if m.EndCol > maxCol {
			m.EndCol = maxCol
		}
		keptMerges = append(keptMerges, m)
	}
	grid.Region.Merges = keptMerges
}

// dataExtent returns the last row and column holding a meaningful cell,
// or zeros when the sheet has none.
func dataExtent(sheet *models.CompactSheet) (lastRow, lastCol int) {
	for _, row := range sheet.Rows {
		for _, c := range row.Cells {
			switch v := c.(type) {
			case models.Single:
				if !models.IsMeaningful(v.Value) {
					continue
				}
				if row.R > lastRow {
					lastRow = row.R
				}
				if v.Col > lastCol {
					lastCol = v.Col
				}
			case models.Run:
				if !models.IsMeaningful(v.Value) {
					continue
				}
				if row.R > lastRow {
					lastRow = row.R
				}
				if v.EndCol() > lastCol {
					lastCol = v.EndCol()
				}
			}
		}
	}
	return lastRow, lastCol
}

// clampCells drops cells past maxCol; a run straddling the bound is
// rewritten with a shortened length.
func clampCells(cells []models.CompressedCell, maxCol int) []models.CompressedCell {
	kept := cells[:0]
	for _, c := range cells {
		switch v := c.(type) {
		case models.Single:
			if v.Col <= maxCol {
				kept = append(kept, v)
			}
		case models.Run:
			if v.StartCol > maxCol {
				continue
			}
			if v.EndCol() > maxCol {
				v.Length = maxCol - v.StartCol + 1
			}
			kept = append(kept, v)
		}
	}
	return kept
}

// clampMerges shrinks merges to the new bounds and drops ones entirely
// outside them.
func clampMerges(merged [][4]int, maxRow, maxCol int) [][4]int {
	kept := merged[:0]
	for _, m := range merged {
		if m[0] > maxRow || m[1] > maxCol {
			continue
		}
		if m[2] > maxRow {
			m[2] = maxRow
		}
		if m[3] > maxCol {
			m[3] = maxCol
		}
		kept = append(kept, m)
	}
	return kept
}
