// Package routing decides, per sheet, whether cheap structural heuristics
// suffice or the costlier external analysis method should be invoked.
package routing

import (
	"context"
	"fmt"

	"github.com/ib-agent/excel-ingest-go/pkg/ingest/models"
)

// FailureKind classifies external analyzer failures.
type FailureKind string

const (
	FailureUnavailable FailureKind = "unavailable"
	FailureTimeout     FailureKind = "timeout"
	FailureError       FailureKind = "error"
	FailureParseError  FailureKind = "parse_error"
)

// AnalysisFailure is the typed failure an external analyzer reports.
// The router consumes only this, never a raw transport payload.
type AnalysisFailure struct {
	Kind    FailureKind
	Message string
}

func (e *AnalysisFailure) Error() string {
	return fmt.Sprintf("external analysis %s: %s", e.Kind, e.Message)
}

// AnalysisResult is the typed success an external analyzer returns:
// boundary candidates with per-item confidence and header descriptors.
type AnalysisResult struct {
	Boundaries []models.TableBoundary
}

// ExternalAnalyzer is the contract with the external analysis method.
// Only its input/output shape matters here; its internals are a
// collaborator concern.
type ExternalAnalyzer interface {
	// Available reports whether the service can currently take work.
	Available() bool
	// EstimateCost predicts the per-sheet cost of analyzing the payload,
	// in the same unit as Config.MaxCostPerSheet.
	EstimateCost(sheet *models.CompactSheet) float64
	// Analyze runs the external method. Errors should be *AnalysisFailure
	// where the cause is known.
	Analyze(ctx context.Context, sheet *models.CompactSheet, meta *models.ComplexityMetadata) (*AnalysisResult, error)
}

// Detector is a cheap structural boundary detector run in-process.
type Detector interface {
	// Detect proposes table boundaries for a compact sheet.
	Detect(sheet *models.CompactSheet) []models.TableBoundary
	// Name returns the detector name, used as boundary source.
	Name() string
}
