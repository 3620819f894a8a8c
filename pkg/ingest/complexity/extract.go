// Package complexity computes structural summary statistics for a sheet
// and reduces them to a bounded score driving processing decisions.
package complexity

import (
	"sort"

	"github.com/tiendc/go-deepcopy"
	"go.uber.org/zap"

	"github.com/ib-agent/excel-ingest-go/pkg/ingest/models"
)

// Rows at the top of a sheet qualify as header levels while more than this
// share of their populated cells is text.
const headerTextShare = 0.7

// maxHeaderScan bounds how far down header detection looks.
const maxHeaderScan = 5

// A column is flagged as high-inconsistency above this cutoff.
const highInconsistencyCutoff = 0.5

// Clustering is flagged when the populated row/column index sequence has
// more than this many gaps.
const clusterGapLimit = 3

// Extractor computes ComplexityMetadata from grids.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor creates an extractor. A nil logger disables logging.
func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger.Named("complexity")}
}

// Extract computes the full structural summary of a grid.
func (e *Extractor) Extract(grid *models.SheetGrid) models.ComplexityMetadata {
	meta := models.ComplexityMetadata{}

	cellCount := 0
	for _, row := range grid.Rows {
		cellCount += len(row.Cells)
	}
	meta.CellCount = cellCount

	meta.Merge = mergeStats(grid.Region.Merges)
	meta.Header = headerStats(grid)
	meta.Sparsity = sparsityStats(grid, cellCount)
	meta.Formula = formulaStats(grid, cellCount)
	meta.Column = columnStats(grid)

	e.logger.Debug("extracted complexity metadata",
		zap.String("sheet", grid.Name),
		zap.Int("cells", cellCount),
		zap.Int("merges", meta.Merge.Count),
		zap.Float64("sparsity", meta.Sparsity.Ratio))
	return meta
}

// Reuse deep-copies previously persisted metadata so later stages can
// mutate their copy without re-materializing the grid. It returns nil when
// no usable prior exists, which scoring turns into the explicit degraded
// defaults.
func (e *Extractor) Reuse(prior *models.ComplexityMetadata) *models.ComplexityMetadata {
	if prior == nil {
		e.logger.Warn("no prior complexity metadata, scoring degrades to defaults")
		return nil
	}
	out := &models.ComplexityMetadata{}
	if err := deepcopy.Copy(out, prior); err != nil {
		e.logger.Warn("metadata copy failed, scoring degrades to defaults", zap.Error(err))
		return nil
	}
	return out
}

func mergeStats(merges []models.MergeRange) models.MergeStats {
	stats := models.MergeStats{Count: len(merges)}
	for _, m := range merges {
		if m.RowSpan() > 2 || m.ColSpan() > 2 {
			weight := 1.0
			if m.RowSpan() > 1 && m.ColSpan() > 1 {
				weight += 0.5
			}
			stats.ComplexCount += weight
		}
	}
	return stats
}

// headerStats counts consecutive text-dominated rows at the top of the
// data and scores how unevenly populated they are.
func headerStats(grid *models.SheetGrid) models.HeaderStats {
	stats := models.HeaderStats{}
	var gapRatios []float64

	scanned := 0
	for _, row := range grid.Rows {
		if scanned >= maxHeaderScan {
			break
		}
		scanned++
		populated, text := 0, 0
		minCol, maxCol := 0, 0
		for _, c := range row.Cells {
			if !models.IsMeaningful(c.Value) {
				continue
			}
			populated++
			if models.ValueType(c.Value) == "string" {
				text++
			}
			if minCol == 0 || c.Col < minCol {
				minCol = c.Col
			}
			if c.Col > maxCol {
				maxCol = c.Col
			}
		}
		if populated == 0 || float64(text)/float64(populated) <= headerTextShare {
			break
		}
		stats.Levels++
		span := maxCol - minCol + 1
		if span > 0 {
			gapRatios = append(gapRatios, 1-float64(populated)/float64(span))
		}
	}

	for _, g := range gapRatios {
		stats.Inconsistency += g
	}
	if len(gapRatios) > 0 {
		stats.Inconsistency /= float64(len(gapRatios))
	}
	return stats
}

func sparsityStats(grid *models.SheetGrid, cellCount int) models.SparsityStats {
	stats := models.SparsityStats{}
	area := grid.Region.Area()
	if area > 0 {
		stats.Ratio = 1 - float64(cellCount)/float64(area)
		if stats.Ratio < 0 {
			stats.Ratio = 0
		}
	}

	rowGaps := indexGaps(populatedRows(grid))
	colGaps := indexGaps(populatedCols(grid))
	stats.Clustered = rowGaps+colGaps > clusterGapLimit
	return stats
}

func populatedRows(grid *models.SheetGrid) []int {
	var out []int
	for _, row := range grid.Rows {
		if len(row.Cells) > 0 {
			out = append(out, row.R)
		}
	}
	return out
}

func populatedCols(grid *models.SheetGrid) []int {
	seen := make(map[int]bool)
	for _, row := range grid.Rows {
		for _, c := range row.Cells {
			seen[c.Col] = true
		}
	}
	out := make([]int, 0, len(seen))
	for col := range seen {
		out = append(out, col)
	}
	sort.Ints(out)
	return out
}

// indexGaps counts breaks (gap > 1) in a sorted index sequence.
func indexGaps(indexes []int) int {
	gaps := 0
	for i := 1; i < len(indexes); i++ {
		if indexes[i]-indexes[i-1] > 1 {
			gaps++
		}
	}
	return gaps
}

func formulaStats(grid *models.SheetGrid, cellCount int) models.FormulaStats {
	stats := models.FormulaStats{}
	if cellCount == 0 {
		return stats
	}
	formulas, complexCount := 0, 0
	for _, row := range grid.Rows {
		for _, c := range row.Cells {
			if c.Formula == "" {
				continue
			}
			formulas++
			if IsComplexFormula(c.Formula) {
				complexCount++
			}
		}
	}
	stats.Ratio = float64(formulas) / float64(cellCount)
	if formulas > 0 {
		stats.ComplexRatio = float64(complexCount) / float64(formulas)
	}
	return stats
}

// columnStats measures per-column type mixing:
// (distinctTypes - 1) / valueCount, averaged across populated columns.
func columnStats(grid *models.SheetGrid) models.ColumnStats {
	type colAgg struct {
		types map[string]bool
		count int
	}
	cols := make(map[int]*colAgg)
	for _, row := range grid.Rows {
		for _, c := range row.Cells {
			if !models.IsMeaningful(c.Value) {
				continue
			}
			agg := cols[c.Col]
			if agg == nil {
				agg = &colAgg{types: make(map[string]bool)}
				cols[c.Col] = agg
			}
			agg.types[models.ValueType(c.Value)] = true
			agg.count++
		}
	}

	stats := models.ColumnStats{}
	if len(cols) == 0 {
		return stats
	}
	total := 0.0
	for _, agg := range cols {
		inconsistency := float64(len(agg.types)-1) / float64(agg.count)
		total += inconsistency
		if inconsistency > highInconsistencyCutoff {
			stats.HighInconsistencyCount++
		}
	}
	stats.AvgInconsistency = total / float64(len(cols))
	return stats
}
