package compress

import "github.com/ib-agent/excel-ingest-go/pkg/ingest/models"

// EncodeSheet encodes every row of a grid and assembles the compact sheet,
// including the style table snapshot from the document's registry.
// Returned errors are the non-fatal invariant violations from row encoding.
func EncodeSheet(grid *models.SheetGrid, reg *StyleRegistry, params Params, stats *Stats) (models.CompactSheet, []error) {
	sheet := models.CompactSheet{
		Dimensions: [4]int{
			grid.Region.MinRow, grid.Region.MinCol,
			grid.Region.MaxRow, grid.Region.MaxCol,
		},
		Frozen: [2]int{grid.Region.FrozenRows, grid.Region.FrozenCols},
	}
	for _, m := range grid.Region.Merges {
		sheet.Merged = append(sheet.Merged, [4]int{m.StartRow, m.StartCol, m.EndRow, m.EndCol})
	}

	var errs []error
	for _, row := range grid.Rows {
		encoded, rowErrs := EncodeRow(row, params, stats)
		errs = append(errs, rowErrs...)
		sheet.Rows = append(sheet.Rows, encoded)
	}

	if reg.Len() > 0 {
		sheet.Styles = reg.Snapshot()
	}
	return sheet, errs
}
