package models

// MergeRange is an inclusive rectangular merged-cell region (1-based).
type MergeRange struct {
	StartRow int
	StartCol int
	EndRow   int
	EndCol   int
}

// RowSpan returns the number of rows the merge covers.
func (m MergeRange) RowSpan() int { return m.EndRow - m.StartRow + 1 }

// ColSpan returns the number of columns the merge covers.
func (m MergeRange) ColSpan() int { return m.EndCol - m.StartCol + 1 }

// SheetRegion describes the addressable area of a sheet: declared bounds,
// merged ranges and frozen-pane offsets.
type SheetRegion struct {
	MinRow     int
	MinCol     int
	MaxRow     int
	MaxCol     int
	Merges     []MergeRange
	FrozenRows int
	FrozenCols int
}

// Rows returns the number of addressable rows.
func (r SheetRegion) Rows() int { return r.MaxRow - r.MinRow + 1 }

// Cols returns the number of addressable columns.
func (r SheetRegion) Cols() int { return r.MaxCol - r.MinCol + 1 }

// Area returns the number of addressable cells.
func (r SheetRegion) Area() int {
	if r.MaxRow < r.MinRow || r.MaxCol < r.MinCol {
		return 0
	}
	return r.Rows() * r.Cols()
}

// SheetGrid is the normalized cell grid received from the workbook reader:
// ordered rows of typed cells, the declared region, and nothing else. It is
// created once per parse and consumed immediately by the codec.
type SheetGrid struct {
	Name   string
	Region SheetRegion
	Rows   []Row
}

// CompactSheet is the JSON-serializable compact form of one sheet.
type CompactSheet struct {
	// Dimensions is [minRow, minCol, maxRow, maxCol].
	Dimensions [4]int `json:"dimensions"`
	// Merged lists merge ranges as [r1, c1, r2, c2].
	Merged [][4]int `json:"merged,omitempty"`
	// Frozen is [frozenRows, frozenCols].
	Frozen [2]int `json:"frozen,omitempty"`
	// Rows holds the run-length encoded rows.
	Rows []CompressedRow `json:"rows"`
	// Styles maps style ids to their attribute records.
	Styles map[string]map[string]interface{} `json:"styles,omitempty"`
}

// CompactDocument is the per-sheet output payload.
type CompactDocument struct {
	Sheet              CompactSheet        `json:"sheet"`
	ComplexityMetadata *ComplexityMetadata `json:"complexity_metadata,omitempty"`
	RLECompression     *RLEStats           `json:"rle_compression,omitempty"`
}
