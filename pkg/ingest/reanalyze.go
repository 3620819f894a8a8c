package ingest

import (
	"context"

	"github.com/ib-agent/excel-ingest-go/pkg/ingest/compare"
	"github.com/ib-agent/excel-ingest-go/pkg/ingest/complexity"
	"github.com/ib-agent/excel-ingest-go/pkg/ingest/models"
	"github.com/ib-agent/excel-ingest-go/pkg/ingest/routing"
)

// Reanalyze re-runs scoring, routing and comparison from a previously
// persisted compact document, without re-materializing the full grid. The
// stored complexity metadata drives the decision; when it is missing the
// score degrades to explicit defaults instead of failing.
func Reanalyze(ctx context.Context, doc *SheetResult, analyzer routing.ExternalAnalyzer, opts Options) *SheetResult {
	logger := opts.logger().Named("reanalyze")
	res := &SheetResult{Name: doc.Name, Document: doc.Document}

	extractor := complexity.NewExtractor(logger)
	meta := extractor.Reuse(metadataOf(doc))
	score := complexity.Score(meta)
	res.Score = score

	router := routing.NewRouter(opts.Router, logger)
	routed := router.Run(ctx, &doc.Document.Sheet, meta, score, routing.NewDensityDetector(), analyzer)
	res.Decision = routed.Decision
	res.Heuristic = routed.Heuristic
	res.External = routed.External
	res.Warnings = append(res.Warnings, routed.Warnings...)

	if opts.Compare && routed.Decision.Strategy != routing.StrategyTraditional && routed.Failure == nil {
		report := compare.Compare(routed.Heuristic, routed.External)
		res.Report = &report
	}
	return res
}

func metadataOf(doc *SheetResult) *models.ComplexityMetadata {
	if doc.Document == nil {
		return nil
	}
	return doc.Document.ComplexityMetadata
}
