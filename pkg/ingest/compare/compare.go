// Package compare quantifies agreement between two independently produced
// sets of table boundaries.
package compare

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ib-agent/excel-ingest-go/pkg/ingest/models"
)

// A heuristic boundary counts as matched when its best overlap clears this.
const matchIoUMin = 0.5

// Winner and potential thresholds.
const (
	goodAgreementMin    = 0.7
	goodConfidenceMin   = 0.7
	similarAgreementMin = 0.5
	regressionFlagMin   = 0.4
)

// Test-case-potential signal weights and bucket cutoffs.
const (
	countMismatchWeight         = 0.3
	lowAgreementWeight          = 0.3
	confidentDisagreementWeight = 0.4

	bucketLowMin      = 0.1
	bucketModerateMin = 0.4
	bucketHighMin     = 0.7
)

// IoU computes intersection-over-union between two boundaries treated as
// inclusive integer boxes. Invalid or disjoint boxes yield 0.
func IoU(a, b models.TableBoundary) float64 {
	if a.Validate() != nil || b.Validate() != nil {
		return 0
	}
	interRows := overlap(a.StartRow, a.EndRow, b.StartRow, b.EndRow)
	interCols := overlap(a.StartCol, a.EndCol, b.StartCol, b.EndCol)
	if interRows == 0 || interCols == 0 {
		return 0
	}
	intersection := interRows * interCols
	union := a.Area() + b.Area() - intersection
	return float64(intersection) / float64(union)
}

// overlap returns the length of the inclusive range intersection, 0 when
// disjoint.
func overlap(aStart, aEnd, bStart, bEnd int) int {
	start := max(aStart, bStart)
	end := min(aEnd, bEnd)
	if end < start {
		return 0
	}
	return end - start + 1
}

// Compare scores the agreement between the heuristic set and the external
// set. Malformed boundaries are excluded per item with a recorded
// validation error; they never abort the comparison.
func Compare(heuristic, external []models.TableBoundary) models.AgreementReport {
	report := models.AgreementReport{ReportID: uuid.NewString()}

	valid := func(set []models.TableBoundary, name string) []models.TableBoundary {
		kept := make([]models.TableBoundary, 0, len(set))
		for i, b := range set {
			if err := b.Validate(); err != nil {
				report.ValidationErrors = append(report.ValidationErrors,
					fmt.Sprintf("%s[%d]: %v", name, i, err))
				continue
			}
			kept = append(kept, b)
		}
		return kept
	}
	h := valid(heuristic, "heuristic")
	x := valid(external, "external")

	confidence := meanConfidence(x)

	switch {
	case len(h) == 0 && len(x) == 0:
		report.DetectionAgreement = 1.0
		report.AgreementScore = 1.0
		report.Winner = models.WinnerTieNoDetection
	case len(x) == 0:
		report.Winner = models.WinnerHeuristic
	case len(h) == 0:
		report.Winner = models.WinnerExternal
	default:
		matched := 0
		total := 0.0
		for _, hb := range h {
			best := 0.0
			for _, xb := range x {
				if v := IoU(hb, xb); v > best {
					best = v
				}
			}
			report.BestIoU = append(report.BestIoU, best)
			total += best
			if best > matchIoUMin {
				matched++
			}
		}
		report.DetectionAgreement = float64(matched) / float64(len(h))
		report.AgreementScore = total / float64(len(h))
		report.Winner = pickWinner(report.AgreementScore, confidence)
	}

	report.TestCasePotential = testCasePotential(len(h), len(x), report.AgreementScore, confidence)
	report.PotentialBucket = bucketPotential(report.TestCasePotential)
	report.FlagForRegression = report.TestCasePotential > regressionFlagMin
	report.TuningHints = tuningHints(&report, len(h), len(x), confidence)
	return report
}

func pickWinner(agreement, confidence float64) models.Winner {
	switch {
	case agreement > goodAgreementMin && confidence > goodConfidenceMin:
		return models.WinnerTieBothGood
	case confidence > goodConfidenceMin:
		return models.WinnerExternal
	case agreement > similarAgreementMin:
		return models.WinnerTieSimilar
	default:
		return models.WinnerUnclear
	}
}

// testCasePotential accumulates weighted disagreement signals. High values
// mark comparisons worth turning into regression cases.
func testCasePotential(hCount, xCount int, agreement, confidence float64) float64 {
	// Nothing detected on either side is full agreement, not a test case.
	if hCount == 0 && xCount == 0 {
		return 0
	}
	p := 0.0
	if hCount != xCount {
		p += countMismatchWeight
	}
	if agreement < similarAgreementMin {
		p += lowAgreementWeight
	}
	if confidence > goodConfidenceMin && agreement < similarAgreementMin {
		p += confidentDisagreementWeight
	}
	return p
}

func bucketPotential(p float64) models.PotentialBucket {
	switch {
	case p < bucketLowMin:
		return models.PotentialNone
	case p < bucketModerateMin:
		return models.PotentialLow
	case p < bucketHighMin:
		return models.PotentialModerate
	default:
		return models.PotentialHigh
	}
}

func tuningHints(report *models.AgreementReport, hCount, xCount int, confidence float64) []string {
	var hints []string
	if hCount != xCount && hCount > 0 && xCount > 0 {
		hints = append(hints, fmt.Sprintf("detector count mismatch: heuristic=%d external=%d", hCount, xCount))
	}
	if confidence > goodConfidenceMin && report.AgreementScore < similarAgreementMin && hCount > 0 && xCount > 0 {
		hints = append(hints, "external is confident but disagrees; review heuristic density thresholds")
	}
	if report.Winner == models.WinnerHeuristic {
		hints = append(hints, "external detected nothing; verify service input payload")
	}
	if report.Winner == models.WinnerExternal && hCount == 0 {
		hints = append(hints, "heuristic detected nothing; density minimum may be too strict")
	}
	return hints
}

func meanConfidence(set []models.TableBoundary) float64 {
	if len(set) == 0 {
		return 0
	}
	total := 0.0
	for _, b := range set {
		total += b.Confidence
	}
	return total / float64(len(set))
}
