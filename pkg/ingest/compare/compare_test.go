package compare

import (
	"math"
	"testing"

	"github.com/ib-agent/excel-ingest-go/pkg/ingest/models"
)

func box(r1, r2, c1, c2 int, conf float64) models.TableBoundary {
	return models.TableBoundary{StartRow: r1, EndRow: r2, StartCol: c1, EndCol: c2, Confidence: conf}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestIoUIdentity(t *testing.T) {
	b := box(1, 10, 1, 5, 0.9)
	if got := IoU(b, b); !almostEqual(got, 1.0) {
		t.Errorf("IoU(box, box) = %v, want 1.0", got)
	}
}

func TestIoUSymmetric(t *testing.T) {
	a := box(1, 10, 1, 10, 0)
	b := box(5, 15, 3, 12, 0)
	if IoU(a, b) != IoU(b, a) {
		t.Errorf("IoU not symmetric: %v vs %v", IoU(a, b), IoU(b, a))
	}
}

func TestIoUDisjoint(t *testing.T) {
	a := box(1, 5, 1, 5, 0)
	rowDisjoint := box(6, 10, 1, 5, 0)
	colDisjoint := box(1, 5, 6, 10, 0)
	if got := IoU(a, rowDisjoint); got != 0 {
		t.Errorf("row-disjoint IoU = %v, want 0", got)
	}
	if got := IoU(a, colDisjoint); got != 0 {
		t.Errorf("col-disjoint IoU = %v, want 0", got)
	}
}

func TestIoUPartialOverlap(t *testing.T) {
	// 2x2 boxes sharing one cell: intersection 1, union 7.
	a := box(1, 2, 1, 2, 0)
	b := box(2, 3, 2, 3, 0)
	if got := IoU(a, b); !almostEqual(got, 1.0/7.0) {
		t.Errorf("IoU = %v, want 1/7", got)
	}
}

func TestIoURange(t *testing.T) {
	boxes := []models.TableBoundary{
		box(1, 10, 1, 10, 0),
		box(5, 6, 5, 6, 0),
		box(10, 20, 10, 20, 0),
		box(3, 3, 3, 3, 0),
	}
	for _, a := range boxes {
		for _, b := range boxes {
			got := IoU(a, b)
			if got < 0 || got > 1 {
				t.Errorf("IoU(%+v, %+v) = %v out of [0,1]", a, b, got)
			}
		}
	}
}

func TestIoUInvalidBoundary(t *testing.T) {
	valid := box(1, 5, 1, 5, 0)
	invalid := box(5, 1, 1, 5, 0)
	if got := IoU(valid, invalid); got != 0 {
		t.Errorf("IoU with invalid box = %v, want 0", got)
	}
}

func TestCompareBothEmpty(t *testing.T) {
	report := Compare(nil, nil)
	if !almostEqual(report.AgreementScore, 1.0) {
		t.Errorf("agreement = %v, want 1.0", report.AgreementScore)
	}
	if !almostEqual(report.DetectionAgreement, 1.0) {
		t.Errorf("detection agreement = %v, want 1.0", report.DetectionAgreement)
	}
	if report.Winner != models.WinnerTieNoDetection {
		t.Errorf("winner = %s, want tie_no_detection", report.Winner)
	}
	if report.PotentialBucket != models.PotentialNone || report.FlagForRegression {
		t.Errorf("both-empty flagged as test case: %+v", report)
	}
}

func TestCompareOneEmpty(t *testing.T) {
	b := []models.TableBoundary{box(1, 10, 1, 5, 0.8)}

	report := Compare(b, nil)
	if !almostEqual(report.AgreementScore, 0.0) {
		t.Errorf("heuristic-only agreement = %v, want 0.0", report.AgreementScore)
	}
	if report.Winner != models.WinnerHeuristic {
		t.Errorf("winner = %s, want heuristic", report.Winner)
	}

	report = Compare(nil, b)
	if !almostEqual(report.AgreementScore, 0.0) {
		t.Errorf("external-only agreement = %v, want 0.0", report.AgreementScore)
	}
	if report.Winner != models.WinnerExternal {
		t.Errorf("winner = %s, want external", report.Winner)
	}
}

func TestCompareIdenticalBoundaries(t *testing.T) {
	h := []models.TableBoundary{box(1, 10, 1, 5, 0.9)}
	x := []models.TableBoundary{box(1, 10, 1, 5, 0.85)}

	report := Compare(h, x)
	if len(report.BestIoU) != 1 || !almostEqual(report.BestIoU[0], 1.0) {
		t.Errorf("best IoU = %v, want [1.0]", report.BestIoU)
	}
	if !almostEqual(report.AgreementScore, 1.0) {
		t.Errorf("agreement = %v, want 1.0", report.AgreementScore)
	}
	if report.Winner != models.WinnerTieBothGood {
		t.Errorf("winner = %s, want tie_both_good", report.Winner)
	}
	if report.FlagForRegression {
		t.Error("perfect agreement flagged for regression")
	}
}

func TestCompareConfidentDisagreement(t *testing.T) {
	h := []models.TableBoundary{
		box(1, 5, 1, 5, 0.6),
		box(20, 25, 1, 5, 0.6),
	}
	x := []models.TableBoundary{box(40, 50, 1, 5, 0.9)}

	report := Compare(h, x)
	if !almostEqual(report.AgreementScore, 0.0) {
		t.Errorf("agreement = %v, want 0.0", report.AgreementScore)
	}
	// Count mismatch 0.3 + low agreement 0.3 + confident disagreement 0.4.
	if !almostEqual(report.TestCasePotential, 1.0) {
		t.Errorf("potential = %v, want 1.0", report.TestCasePotential)
	}
	if report.PotentialBucket != models.PotentialHigh {
		t.Errorf("bucket = %s, want high", report.PotentialBucket)
	}
	if !report.FlagForRegression {
		t.Error("confident disagreement not flagged")
	}
	if report.Winner != models.WinnerExternal {
		t.Errorf("winner = %s, want external (confidence 0.9)", report.Winner)
	}
}

func TestCompareSimilar(t *testing.T) {
	// Heavy overlap but low external confidence: similar, not both-good.
	h := []models.TableBoundary{box(1, 10, 1, 10, 0.6)}
	x := []models.TableBoundary{box(1, 10, 1, 9, 0.5)}

	report := Compare(h, x)
	if report.AgreementScore <= 0.5 || report.AgreementScore > 1 {
		t.Fatalf("agreement = %v, want high", report.AgreementScore)
	}
	if report.Winner != models.WinnerTieSimilar {
		t.Errorf("winner = %s, want tie_similar", report.Winner)
	}
}

func TestCompareExcludesInvalidBoundaries(t *testing.T) {
	h := []models.TableBoundary{box(1, 10, 1, 5, 0.9)}
	x := []models.TableBoundary{
		box(1, 10, 1, 5, 0.9),
		box(9, 2, 1, 5, 0.9), // inverted rows
	}

	report := Compare(h, x)
	if len(report.ValidationErrors) != 1 {
		t.Fatalf("validation errors = %v, want 1 entry", report.ValidationErrors)
	}
	// The invalid item is excluded, not fatal: scoring proceeds on the rest.
	if !almostEqual(report.AgreementScore, 1.0) {
		t.Errorf("agreement = %v, want 1.0 from the valid pair", report.AgreementScore)
	}
}

func TestCompareOnlyInvalidExternal(t *testing.T) {
	h := []models.TableBoundary{box(1, 10, 1, 5, 0.9)}
	x := []models.TableBoundary{box(9, 2, 1, 5, 0.9)}

	report := Compare(h, x)
	if report.Winner != models.WinnerHeuristic {
		t.Errorf("winner = %s, want heuristic after exclusion", report.Winner)
	}
}

func TestDetectionAgreement(t *testing.T) {
	// One heuristic box matches well, one matches nothing.
	h := []models.TableBoundary{
		box(1, 10, 1, 10, 0.6),
		box(30, 40, 1, 10, 0.6),
	}
	x := []models.TableBoundary{box(1, 10, 1, 10, 0.6)}

	report := Compare(h, x)
	if !almostEqual(report.DetectionAgreement, 0.5) {
		t.Errorf("detection agreement = %v, want 0.5", report.DetectionAgreement)
	}
}

func TestPotentialBuckets(t *testing.T) {
	tests := []struct {
		p    float64
		want models.PotentialBucket
	}{
		{0.0, models.PotentialNone},
		{0.05, models.PotentialNone},
		{0.1, models.PotentialLow},
		{0.3, models.PotentialLow},
		{0.4, models.PotentialModerate},
		{0.6, models.PotentialModerate},
		{0.7, models.PotentialHigh},
		{1.0, models.PotentialHigh},
	}
	for _, tt := range tests {
		if got := bucketPotential(tt.p); got != tt.want {
			t.Errorf("bucketPotential(%v) = %s, want %s", tt.p, got, tt.want)
		}
	}
}
