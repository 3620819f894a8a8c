package routing

import "github.com/ib-agent/excel-ingest-go/pkg/ingest/models"

// DensityParams tunes the density detector.
type DensityParams struct {
	// DensityMin is the minimum fill ratio for a region to count as a table.
	DensityMin float64
	// MinNonemptyCells rejects regions with fewer meaningful cells.
	MinNonemptyCells int
	// MaxRowGap splits regions at runs of this many empty rows.
	MaxRowGap int
}

// DefaultDensityParams returns the default detector tuning.
func DefaultDensityParams() DensityParams {
	return DensityParams{
		DensityMin:       0.04,
		MinNonemptyCells: 3,
		MaxRowGap:        2,
	}
}

// DensityDetector proposes table boundaries from fill density: contiguous
// row bands are split at large empty gaps, and each band dense enough is
// reported with a confidence derived from its density.
type DensityDetector struct {
	Params DensityParams
}

// NewDensityDetector creates a detector with default parameters.
func NewDensityDetector() *DensityDetector {
	return &DensityDetector{Params: DefaultDensityParams()}
}

// Name implements Detector.
func (d *DensityDetector) Name() string { return "density" }

// rowExtent is one populated row's meaningful span.
type rowExtent struct {
	r       int
	minCol  int
	maxCol  int
	cellQty int
}

// Detect implements Detector.
func (d *DensityDetector) Detect(sheet *models.CompactSheet) []models.TableBoundary {
	extents := scanExtents(sheet)
	if len(extents) == 0 {
		return nil
	}

	var out []models.TableBoundary
	band := []rowExtent{extents[0]}
	for _, e := range extents[1:] {
		if e.r-band[len(band)-1].r > d.Params.MaxRowGap {
			if b, ok := d.bandBoundary(band); ok {
				out = append(out, b)
			}
			band = band[:0]
		}
		band = append(band, e)
	}
	if b, ok := d.bandBoundary(band); ok {
		out = append(out, b)
	}
	return out
}

func (d *DensityDetector) bandBoundary(band []rowExtent) (models.TableBoundary, bool) {
	if len(band) == 0 {
		return models.TableBoundary{}, false
	}
	b := models.TableBoundary{
		StartRow: band[0].r,
		EndRow:   band[len(band)-1].r,
		Source:   d.Name(),
	}
	cells := 0
	for _, e := range band {
		cells += e.cellQty
		if b.StartCol == 0 || e.minCol < b.StartCol {
			b.StartCol = e.minCol
		}
		if e.maxCol > b.EndCol {
			b.EndCol = e.maxCol
		}
	}
	if cells < d.Params.MinNonemptyCells {
		return models.TableBoundary{}, false
	}
	density := float64(cells) / float64(b.Area())
	if density < d.Params.DensityMin {
		return models.TableBoundary{}, false
	}
	b.Confidence = confidenceFromDensity(density)
	b.HeaderRows = []int{b.StartRow}
	return b, true
}

// confidenceFromDensity maps fill density into (0, 0.95].
func confidenceFromDensity(density float64) float64 {
	c := 0.5 + density/2
	if c > 0.95 {
		c = 0.95
	}
	return c
}

// scanExtents walks the compressed rows and records each row's meaningful
// span without decoding runs.
func scanExtents(sheet *models.CompactSheet) []rowExtent {
	var out []rowExtent
	for _, row := range sheet.Rows {
		e := rowExtent{r: row.R}
		for _, c := range row.Cells {
			switch v := c.(type) {
			case models.Single:
				if !models.IsMeaningful(v.Value) {
					continue
				}
				e.cellQty++
				if e.minCol == 0 || v.Col < e.minCol {
					e.minCol = v.Col
				}
				if v.Col > e.maxCol {
					e.maxCol = v.Col
				}
			case models.Run:
				if !models.IsMeaningful(v.Value) {
					continue
				}
				e.cellQty += v.Length
				if e.minCol == 0 || v.StartCol < e.minCol {
					e.minCol = v.StartCol
				}
				if v.EndCol() > e.maxCol {
					e.maxCol = v.EndCol()
				}
			}
		}
		if e.cellQty > 0 {
			out = append(out, e)
		}
	}
	return out
}
