// Package gridread adapts excelize workbooks into normalized sheet grids.
package gridread

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ib-agent/excel-ingest-go/pkg/ingest/compress"
	"github.com/ib-agent/excel-ingest-go/pkg/ingest/models"
)

// SchemaError reports a sheet whose required grid fields cannot be
// obtained. It is fatal only for that sheet; other sheets proceed.
type SchemaError struct {
	Sheet  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error in sheet %q: %s", e.Sheet, e.Reason)
}

// ReadSheet builds the normalized grid for one sheet: typed cell values,
// interned style refs, formulas, merge ranges, frozen panes and the
// declared bounds. Styles are interned into reg, which the caller owns for
// the duration of the document.
func ReadSheet(f *excelize.File, sheetName string, reg *compress.StyleRegistry) (*models.SheetGrid, error) {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, &SchemaError{Sheet: sheetName, Reason: err.Error()}
	}

	grid := &models.SheetGrid{Name: sheetName}
	styleCache := make(map[int]string)

	for rowIdx, row := range rows {
		rowNum := rowIdx + 1
		gridRow := models.Row{R: rowNum}
		for colIdx, cellValue := range row {
			colNum := colIdx + 1
			cellName, _ := excelize.CoordinatesToCellName(colNum, rowNum)

			formula, _ := f.GetCellFormula(sheetName, cellName)
			// Formula cells without a cached value still belong in the
			// grid; plain empty cells do not.
			if cellValue == "" && formula == "" {
				continue
			}
			cell := models.Cell{Col: colNum, Formula: formula}
			if cellValue != "" {
				cell.Value = models.ParseValue(cellValue)
			}
			cell.StyleRef = internCellStyle(f, sheetName, cellName, reg, styleCache)

			gridRow.Cells = append(gridRow.Cells, cell)
		}
		if len(gridRow.Cells) > 0 {
			grid.Rows = append(grid.Rows, gridRow)
		}
	}

	grid.Region, err = readRegion(f, sheetName, grid)
	if err != nil {
		return nil, err
	}
	return grid, nil
}

// internCellStyle resolves a cell's style to a registry id, caching by the
// workbook-level style index.
func internCellStyle(f *excelize.File, sheetName, cellName string, reg *compress.StyleRegistry, cache map[int]string) string {
	styleID, err := f.GetCellStyle(sheetName, cellName)
	if err != nil || styleID == 0 {
		return ""
	}
	if ref, ok := cache[styleID]; ok {
		return ref
	}
	attrs := styleAttrs(f, styleID)
	ref := reg.Intern(attrs)
	cache[styleID] = ref
	return ref
}

// styleAttrs converts a workbook style into the attribute map the registry
// dedups on. Default-valued attributes are omitted so identical-looking
// styles from different workbooks serialize identically.
func styleAttrs(f *excelize.File, styleID int) map[string]interface{} {
	style, err := f.GetStyle(styleID)
	if err != nil || style == nil {
		return nil
	}
	attrs := make(map[string]interface{})
	if font := style.Font; font != nil {
		if font.Bold {
			attrs["bold"] = true
		}
		if font.Italic {
			attrs["italic"] = true
		}
		if font.Size > 0 {
			attrs["font_size"] = font.Size
		}
		if font.Family != "" {
			attrs["font_name"] = font.Family
		}
		if font.Color != "" {
			attrs["font_color"] = font.Color
		}
	}
	if len(style.Fill.Color) > 0 && style.Fill.Type != "" {
		attrs["fill_color"] = style.Fill.Color[0]
	}
	if style.NumFmt != 0 {
		attrs["number_format"] = style.NumFmt
	}
	if align := style.Alignment; align != nil && align.Horizontal != "" {
		attrs["align"] = align.Horizontal
	}
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

// readRegion assembles declared bounds, merges and frozen panes. A missing
// or malformed declared dimension falls back to the scanned data bounds.
func readRegion(f *excelize.File, sheetName string, grid *models.SheetGrid) (models.SheetRegion, error) {
	region := models.SheetRegion{MinRow: 1, MinCol: 1, MaxRow: 1, MaxCol: 1}

	if dim, err := f.GetSheetDimension(sheetName); err == nil && dim != "" {
		if r, ok := parseDimension(dim); ok {
			region.MinRow, region.MinCol, region.MaxRow, region.MaxCol = r[0], r[1], r[2], r[3]
		}
	}
	// The declared dimension can understate reality; widen to scanned data.
	for _, row := range grid.Rows {
		if row.R > region.MaxRow {
			region.MaxRow = row.R
		}
		if last := row.Cells[len(row.Cells)-1]; last.Col > region.MaxCol {
			region.MaxCol = last.Col
		}
	}

	merges, err := f.GetMergeCells(sheetName)
	if err != nil {
		return region, &SchemaError{Sheet: sheetName, Reason: err.Error()}
	}
	for _, m := range merges {
		startCol, startRow, err1 := excelize.CellNameToCoordinates(m.GetStartAxis())
		endCol, endRow, err2 := excelize.CellNameToCoordinates(m.GetEndAxis())
		if err1 != nil || err2 != nil {
			continue
		}
		region.Merges = append(region.Merges, models.MergeRange{
			StartRow: startRow, StartCol: startCol, EndRow: endRow, EndCol: endCol,
		})
	}

	if panes, err := f.GetPanes(sheetName); err == nil && panes.Freeze {
		region.FrozenRows = panes.YSplit
		region.FrozenCols = panes.XSplit
	}
	return region, nil
}

// parseDimension parses a declared dimension like "A1:D10" (or a single
// cell "A1") into [minRow, minCol, maxRow, maxCol].
func parseDimension(dim string) ([4]int, bool) {
	parts := strings.Split(dim, ":")
	startCol, startRow, err := excelize.CellNameToCoordinates(parts[0])
	if err != nil {
		return [4]int{}, false
	}
	endCol, endRow := startCol, startRow
	if len(parts) == 2 {
		if endCol, endRow, err = excelize.CellNameToCoordinates(parts[1]); err != nil {
			return [4]int{}, false
		}
	}
	return [4]int{startRow, startCol, endRow, endCol}, true
}
