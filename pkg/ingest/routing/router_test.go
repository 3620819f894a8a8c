package routing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ib-agent/excel-ingest-go/pkg/ingest/models"
)

// fakeAnalyzer is a scriptable external analyzer for router tests.
type fakeAnalyzer struct {
	available bool
	cost      float64
	result    *AnalysisResult
	err       error
	// blockUntilCancel makes Analyze wait for context cancellation.
	blockUntilCancel bool
}

func (f *fakeAnalyzer) Available() bool { return f.available }

func (f *fakeAnalyzer) EstimateCost(*models.CompactSheet) float64 { return f.cost }

func (f *fakeAnalyzer) Analyze(ctx context.Context, _ *models.CompactSheet, _ *models.ComplexityMetadata) (*AnalysisResult, error) {
	if f.blockUntilCancel {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func scoreOf(v float64) models.ComplexityScore {
	return models.ComplexityScore{Value: v}
}

func TestDecideFirstMatchWins(t *testing.T) {
	cfg := DefaultConfig()
	router := NewRouter(cfg, nil)
	sheet := &models.CompactSheet{}

	tests := []struct {
		name     string
		score    float64
		analyzer ExternalAnalyzer
		want     Strategy
	}{
		{"nil analyzer", 0.9, nil, StrategyTraditional},
		{"unavailable", 0.9, &fakeAnalyzer{available: false}, StrategyTraditional},
		{"cost over budget", 0.9, &fakeAnalyzer{available: true, cost: 2.0}, StrategyTraditional},
		{"low score", 0.1, &fakeAnalyzer{available: true, cost: 0.1}, StrategyTraditional},
		{"high score", 0.8, &fakeAnalyzer{available: true, cost: 0.1}, StrategyAIPrimary},
		{"dual band", 0.5, &fakeAnalyzer{available: true, cost: 0.1}, StrategyDual},
		{"score at traditional max", 0.3, &fakeAnalyzer{available: true, cost: 0.1}, StrategyDual},
		{"score at ai-primary min", 0.7, &fakeAnalyzer{available: true, cost: 0.1}, StrategyAIPrimary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := router.Decide(scoreOf(tt.score), tt.analyzer, sheet)
			if got.Strategy != tt.want {
				t.Errorf("Decide() = %s (%s), want %s", got.Strategy, got.Reason, tt.want)
			}
		})
	}
}

func TestDecideNeverExternalWhenUnavailable(t *testing.T) {
	router := NewRouter(DefaultConfig(), nil)
	analyzer := &fakeAnalyzer{available: false}
	for _, v := range []float64{0, 0.3, 0.5, 0.7, 0.99, 1.0} {
		got := router.Decide(scoreOf(v), analyzer, &models.CompactSheet{})
		if got.Strategy != StrategyTraditional {
			t.Errorf("score %v routed to %s with unavailable service", v, got.Strategy)
		}
	}
}

func testSheet() *models.CompactSheet {
	return &models.CompactSheet{
		Dimensions: [4]int{1, 1, 3, 3},
		Rows: []models.CompressedRow{
			{R: 1, Cells: []models.CompressedCell{
				models.Single{Col: 1, Value: "a"},
				models.Single{Col: 2, Value: "b"},
				models.Single{Col: 3, Value: "c"},
			}},
			{R: 2, Cells: []models.CompressedCell{
				models.Run{StartCol: 1, Value: "v", Length: 3},
			}},
		},
	}
}

func TestRunTraditionalSkipsExternal(t *testing.T) {
	router := NewRouter(DefaultConfig(), nil)
	analyzer := &fakeAnalyzer{available: false}

	res := router.Run(context.Background(), testSheet(), nil, scoreOf(0.9), NewDensityDetector(), analyzer)
	if res.Decision.Strategy != StrategyTraditional {
		t.Fatalf("strategy = %s, want traditional", res.Decision.Strategy)
	}
	if len(res.Heuristic) == 0 {
		t.Error("heuristic boundaries missing")
	}
	if res.External != nil || res.Failure != nil {
		t.Errorf("external path ran: %+v", res)
	}
}

func TestRunDualCollectsBoth(t *testing.T) {
	router := NewRouter(DefaultConfig(), nil)
	external := []models.TableBoundary{{StartRow: 1, EndRow: 2, StartCol: 1, EndCol: 3, Confidence: 0.9, Source: "external"}}
	analyzer := &fakeAnalyzer{available: true, cost: 0.1, result: &AnalysisResult{Boundaries: external}}

	res := router.Run(context.Background(), testSheet(), nil, scoreOf(0.5), NewDensityDetector(), analyzer)
	if res.Decision.Strategy != StrategyDual {
		t.Fatalf("strategy = %s, want dual", res.Decision.Strategy)
	}
	if len(res.Heuristic) == 0 || len(res.External) != 1 {
		t.Errorf("boundaries: heuristic=%d external=%d", len(res.Heuristic), len(res.External))
	}
}

func TestRunDegradesOnExternalError(t *testing.T) {
	router := NewRouter(DefaultConfig(), nil)
	analyzer := &fakeAnalyzer{available: true, cost: 0.1, err: errors.New("boom")}

	res := router.Run(context.Background(), testSheet(), nil, scoreOf(0.5), NewDensityDetector(), analyzer)
	if res.Failure == nil || res.Failure.Kind != FailureError {
		t.Fatalf("failure = %+v, want error kind", res.Failure)
	}
	if len(res.Heuristic) == 0 {
		t.Error("heuristic result lost on degradation")
	}
	if len(res.External) != 0 {
		t.Error("external boundaries present despite failure")
	}
	if len(res.Warnings) == 0 {
		t.Error("degradation not recorded in warnings")
	}
}

func TestRunDegradesOnTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeout = 10 * time.Millisecond
	router := NewRouter(cfg, nil)
	analyzer := &fakeAnalyzer{available: true, cost: 0.1, blockUntilCancel: true}

	res := router.Run(context.Background(), testSheet(), nil, scoreOf(0.9), NewDensityDetector(), analyzer)
	if res.Failure == nil || res.Failure.Kind != FailureTimeout {
		t.Fatalf("failure = %+v, want timeout kind", res.Failure)
	}
	if len(res.Heuristic) == 0 {
		t.Error("heuristic result lost on timeout")
	}
}

func TestRunPreservesHeuristicOnCancel(t *testing.T) {
	router := NewRouter(DefaultConfig(), nil)
	analyzer := &fakeAnalyzer{available: true, cost: 0.1, blockUntilCancel: true}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	res := router.Run(ctx, testSheet(), nil, scoreOf(0.5), NewDensityDetector(), analyzer)
	if len(res.Heuristic) == 0 {
		t.Error("cancellation invalidated heuristic results")
	}
	if res.Failure == nil {
		t.Error("cancelled call not recorded as failure")
	}
}

func TestRunClassifiesTypedFailure(t *testing.T) {
	router := NewRouter(DefaultConfig(), nil)
	analyzer := &fakeAnalyzer{
		available: true, cost: 0.1,
		err: &AnalysisFailure{Kind: FailureParseError, Message: "bad payload"},
	}
	res := router.Run(context.Background(), testSheet(), nil, scoreOf(0.5), NewDensityDetector(), analyzer)
	if res.Failure == nil || res.Failure.Kind != FailureParseError {
		t.Errorf("failure = %+v, want parse_error preserved", res.Failure)
	}
}

func TestDensityDetector(t *testing.T) {
	det := NewDensityDetector()

	boundaries := det.Detect(testSheet())
	if len(boundaries) != 1 {
		t.Fatalf("got %d boundaries, want 1", len(boundaries))
	}
	b := boundaries[0]
	if b.StartRow != 1 || b.EndRow != 2 || b.StartCol != 1 || b.EndCol != 3 {
		t.Errorf("boundary = %+v, want rows 1-2 cols 1-3", b)
	}
	if b.Source != "density" {
		t.Errorf("source = %q, want density", b.Source)
	}
	if b.Confidence <= 0 || b.Confidence > 0.95 {
		t.Errorf("confidence = %v, want in (0, 0.95]", b.Confidence)
	}
}

func TestDensityDetectorSplitsOnGaps(t *testing.T) {
	sheet := &models.CompactSheet{Dimensions: [4]int{1, 1, 20, 3}}
	for _, r := range []int{1, 2, 3, 10, 11, 12} {
		sheet.Rows = append(sheet.Rows, models.CompressedRow{R: r, Cells: []models.CompressedCell{
			models.Run{StartCol: 1, Value: "v", Length: 3},
		}})
	}
	boundaries := NewDensityDetector().Detect(sheet)
	if len(boundaries) != 2 {
		t.Fatalf("got %d boundaries, want 2 bands", len(boundaries))
	}
	if boundaries[0].EndRow != 3 || boundaries[1].StartRow != 10 {
		t.Errorf("bands = %+v", boundaries)
	}
}

func TestDensityDetectorEmptySheet(t *testing.T) {
	sheet := &models.CompactSheet{Dimensions: [4]int{1, 1, 10, 10}}
	if got := NewDensityDetector().Detect(sheet); len(got) != 0 {
		t.Errorf("empty sheet produced %d boundaries", len(got))
	}
}

func TestDensityDetectorRejectsSparse(t *testing.T) {
	det := NewDensityDetector()
	det.Params.MinNonemptyCells = 5
	sheet := &models.CompactSheet{
		Dimensions: [4]int{1, 1, 5, 5},
		Rows: []models.CompressedRow{
			{R: 1, Cells: []models.CompressedCell{models.Single{Col: 1, Value: "x"}}},
		},
	}
	if got := det.Detect(sheet); len(got) != 0 {
		t.Errorf("sparse sheet produced %d boundaries", len(got))
	}
}
