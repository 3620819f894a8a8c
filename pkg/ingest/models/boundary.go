package models

import "fmt"

// TableBoundary is one detected table as an inclusive rectangle (1-based).
type TableBoundary struct {
	StartRow   int     `json:"start_row"`
	EndRow     int     `json:"end_row"`
	StartCol   int     `json:"start_col"`
	EndCol     int     `json:"end_col"`
	Confidence float64 `json:"confidence"`
	// Source names the detector that produced the boundary.
	Source string `json:"source,omitempty"`
	// HeaderRows lists row indexes the detector identified as headers.
	HeaderRows []int `json:"header_rows,omitempty"`
}

// ValidationError reports a malformed boundary or metadata field. Items
// failing validation are skipped and recorded, never fatal for the batch.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Reason)
}

// Validate rejects boundaries with inverted axes.
func (b TableBoundary) Validate() error {
	if b.StartRow > b.EndRow {
		return &ValidationError{
			Field:  "boundary.rows",
			Reason: fmt.Sprintf("start_row %d > end_row %d", b.StartRow, b.EndRow),
		}
	}
	if b.StartCol > b.EndCol {
		return &ValidationError{
			Field:  "boundary.cols",
			Reason: fmt.Sprintf("start_col %d > end_col %d", b.StartCol, b.EndCol),
		}
	}
	return nil
}

// Area returns the number of cells the boundary covers.
func (b TableBoundary) Area() int {
	if b.Validate() != nil {
		return 0
	}
	return (b.EndRow - b.StartRow + 1) * (b.EndCol - b.StartCol + 1)
}

// Winner identifies which detector a comparison favored.
type Winner string

const (
	WinnerTieNoDetection Winner = "tie_no_detection"
	WinnerHeuristic      Winner = "heuristic"
	WinnerExternal       Winner = "external"
	WinnerTieBothGood    Winner = "tie_both_good"
	WinnerTieSimilar     Winner = "tie_similar"
	WinnerUnclear        Winner = "unclear"
)

// PotentialBucket buckets the test-case-potential signal.
type PotentialBucket string

const (
	PotentialNone     PotentialBucket = "none"
	PotentialLow      PotentialBucket = "low"
	PotentialModerate PotentialBucket = "moderate"
	PotentialHigh     PotentialBucket = "high"
)

// AgreementReport quantifies how much two detector outputs agree. It is
// produced per comparison request and not persisted.
type AgreementReport struct {
	ReportID string `json:"report_id"`
	// BestIoU holds, for each valid heuristic boundary, the best overlap
	// against the external set.
	BestIoU            []float64       `json:"best_iou,omitempty"`
	DetectionAgreement float64         `json:"detection_agreement"`
	AgreementScore     float64         `json:"agreement_score"`
	Winner             Winner          `json:"winner"`
	TestCasePotential  float64         `json:"test_case_potential"`
	PotentialBucket    PotentialBucket `json:"potential_bucket"`
	// FlagForRegression marks comparisons worth adding to the regression
	// suite (potential above 0.4).
	FlagForRegression bool     `json:"flag_for_regression"`
	TuningHints       []string `json:"tuning_hints,omitempty"`
	// ValidationErrors lists boundaries excluded from scoring.
	ValidationErrors []string `json:"validation_errors,omitempty"`
}
