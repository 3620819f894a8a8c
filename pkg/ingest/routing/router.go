package routing

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ib-agent/excel-ingest-go/pkg/ingest/models"
)

// Strategy is the processing method chosen for one unit of work.
type Strategy string

const (
	// StrategyTraditional runs the heuristic detector only.
	StrategyTraditional Strategy = "traditional"
	// StrategyDual runs both methods and compares them.
	StrategyDual Strategy = "dual"
	// StrategyAIPrimary treats the external result as primary.
	StrategyAIPrimary Strategy = "ai_primary"
)

// Config holds the admission-control thresholds.
type Config struct {
	// TraditionalMax routes scores below it to the heuristic alone.
	TraditionalMax float64
	// AIPrimaryMin routes scores at or above it to the external method.
	AIPrimaryMin float64
	// MaxCostPerSheet is the external cost budget per sheet.
	MaxCostPerSheet float64
	// Timeout bounds one external analysis call.
	Timeout time.Duration
}

// DefaultConfig returns the default routing thresholds.
func DefaultConfig() Config {
	return Config{
		TraditionalMax:  0.3,
		AIPrimaryMin:    0.7,
		MaxCostPerSheet: 1.0,
		Timeout:         30 * time.Second,
	}
}

// Decision is one routing outcome with the rule that produced it.
type Decision struct {
	Strategy Strategy `json:"strategy"`
	Reason   string   `json:"reason"`
}

// Router is the cost- and availability-aware gate in front of the external
// analysis backend.
type Router struct {
	cfg    Config
	logger *zap.Logger
}

// NewRouter creates a router. A nil logger disables logging.
func NewRouter(cfg Config, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{cfg: cfg, logger: logger.Named("router")}
}

// Decide picks the strategy for one sheet. Rules apply first-match-wins:
// unavailable service and blown cost budget force traditional before the
// score thresholds are consulted, so dual/ai_primary is never selected
// when the external service cannot serve it.
func (r *Router) Decide(score models.ComplexityScore, analyzer ExternalAnalyzer, sheet *models.CompactSheet) Decision {
	switch {
	case analyzer == nil || !analyzer.Available():
		return Decision{Strategy: StrategyTraditional, Reason: "external service unavailable"}
	case analyzer.EstimateCost(sheet) > r.cfg.MaxCostPerSheet:
		return Decision{Strategy: StrategyTraditional, Reason: "estimated cost exceeds budget"}
	case score.Value < r.cfg.TraditionalMax:
		return Decision{Strategy: StrategyTraditional, Reason: "score below traditional threshold"}
	case score.Value >= r.cfg.AIPrimaryMin:
		return Decision{Strategy: StrategyAIPrimary, Reason: "score at or above ai-primary threshold"}
	default:
		return Decision{Strategy: StrategyDual, Reason: "score in dual band"}
	}
}

// RouteResult carries everything one routed unit of work produced. The
// heuristic boundaries are always present and stay valid even when the
// external call fails or is cancelled mid-flight.
type RouteResult struct {
	Decision  Decision
	Heuristic []models.TableBoundary
	External  []models.TableBoundary
	// Failure records a degraded external call; the heuristic result
	// stands alone in that case.
	Failure  *AnalysisFailure
	Warnings []string
}

// Run executes the decision: the heuristic detector always runs, and for
// dual/ai_primary the external analyzer is invoked under the configured
// timeout. External timeout or failure degrades to the heuristic-only
// result with the failure recorded, never an empty silent result.
func (r *Router) Run(ctx context.Context, sheet *models.CompactSheet, meta *models.ComplexityMetadata, score models.ComplexityScore, detector Detector, analyzer ExternalAnalyzer) *RouteResult {
	res := &RouteResult{Decision: r.Decide(score, analyzer, sheet)}
	res.Heuristic = detector.Detect(sheet)

	if res.Decision.Strategy == StrategyTraditional {
		return res
	}

	callCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	analysis, err := analyzer.Analyze(callCtx, sheet, meta)
	if err != nil {
		res.Failure = classifyFailure(err)
		res.Warnings = append(res.Warnings, res.Failure.Error())
		r.logger.Warn("external analysis degraded to heuristic-only",
			zap.String("kind", string(res.Failure.Kind)),
			zap.String("strategy", string(res.Decision.Strategy)))
		return res
	}
	res.External = analysis.Boundaries
	return res
}

func classifyFailure(err error) *AnalysisFailure {
	var failure *AnalysisFailure
	if errors.As(err, &failure) {
		return failure
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &AnalysisFailure{Kind: FailureTimeout, Message: err.Error()}
	}
	return &AnalysisFailure{Kind: FailureError, Message: err.Error()}
}
