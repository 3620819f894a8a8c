package ingest

import (
	"context"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/ib-agent/excel-ingest-go/pkg/ingest/compare"
	"github.com/ib-agent/excel-ingest-go/pkg/ingest/complexity"
	"github.com/ib-agent/excel-ingest-go/pkg/ingest/compress"
	"github.com/ib-agent/excel-ingest-go/pkg/ingest/filter"
	"github.com/ib-agent/excel-ingest-go/pkg/ingest/gridread"
	"github.com/ib-agent/excel-ingest-go/pkg/ingest/models"
	"github.com/ib-agent/excel-ingest-go/pkg/ingest/routing"
)

// SheetResult is the full pipeline output for one sheet.
type SheetResult struct {
	Name      string                  `json:"name"`
	Document  *models.CompactDocument `json:"document"`
	Score     models.ComplexityScore  `json:"score"`
	Decision  routing.Decision        `json:"decision"`
	Heuristic []models.TableBoundary  `json:"heuristic_boundaries,omitempty"`
	External  []models.TableBoundary  `json:"external_boundaries,omitempty"`
	Report    *models.AgreementReport `json:"agreement_report,omitempty"`
	Warnings  []string                `json:"warnings,omitempty"`
}

// Result is the workbook-level batch output. It always contains the
// partial successes plus structured error and warning lists; Valid is
// false when any sheet failed.
type Result struct {
	DocumentID string         `json:"document_id"`
	BookName   string         `json:"book_name"`
	Sheets     []*SheetResult `json:"sheets"`
	// Compression aggregates the per-worker codec counters.
	Compression models.RLEStats `json:"rle_compression"`
	Errors      []string        `json:"errors,omitempty"`
	Warnings    []string        `json:"warnings,omitempty"`
	Valid       bool            `json:"valid"`
}

// sheetUnit is one unit of parallel work: a parsed grid plus the style
// registry its refs point into, both owned by exactly one worker.
type sheetUnit struct {
	order int
	grid  *models.SheetGrid
	reg   *compress.StyleRegistry
}

// Process opens a workbook and runs the full per-sheet pipeline: read
// grid, encode, trim, score, route, compare.
func Process(ctx context.Context, path string, analyzer routing.ExternalAnalyzer, opts Options) (*Result, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, ErrFileNotFound
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, ErrInvalidFormat
	}
	defer f.Close()

	return ProcessWorkbook(ctx, f, analyzer, opts)
}

// ProcessWorkbook runs the pipeline over an already-open workbook. Grids
// are parsed serially, then the pure per-sheet pipeline runs across a
// bounded worker pool; each worker owns its unit's registry and counters,
// and totals are aggregated only in the reduce step after all workers
// join.
func ProcessWorkbook(ctx context.Context, f *excelize.File, analyzer routing.ExternalAnalyzer, opts Options) (*Result, error) {
	logger := opts.logger().Named("ingest")
	sheetNames := f.GetSheetList()

	result := &Result{
		DocumentID: uuid.NewString(),
		BookName:   f.Path,
		Valid:      true,
	}

	// Parse phase: each grid is created once and handed off to exactly
	// one worker. Schema failures stay isolated to their sheet.
	var units []sheetUnit
	for idx, name := range sheetNames {
		reg := compress.NewStyleRegistry()
		grid, err := gridread.ReadSheet(f, name, reg)
		if err != nil {
			result.Errors = append(result.Errors, NewSheetError(name, "read", err).Error())
			result.Valid = false
			continue
		}
		units = append(units, sheetUnit{order: idx, grid: grid, reg: reg})
	}

	type outcome struct {
		order int
		sheet *SheetResult
		stats models.RLEStats
	}

	jobs := make(chan sheetUnit)
	outcomes := make(chan outcome, len(units))

	var wg sync.WaitGroup
	workers := opts.workers()
	if workers > len(units) {
		workers = len(units)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for unit := range jobs {
				sheet, stats := processUnit(ctx, unit, analyzer, opts, logger)
				outcomes <- outcome{order: unit.order, sheet: sheet, stats: stats}
			}
		}()
	}
	for _, unit := range units {
		jobs <- unit
	}
	close(jobs)
	wg.Wait()
	close(outcomes)

	// Reduce phase: restore workbook order and merge counters.
	ordered := make([]*SheetResult, len(sheetNames))
	for o := range outcomes {
		ordered[o.order] = o.sheet
		result.Compression.Add(o.stats)
	}
	for _, s := range ordered {
		if s == nil {
			continue
		}
		result.Sheets = append(result.Sheets, s)
		result.Warnings = append(result.Warnings, s.Warnings...)
	}

	logger.Info("workbook processed",
		zap.String("document_id", result.DocumentID),
		zap.Int("sheets", len(result.Sheets)),
		zap.Int("errors", len(result.Errors)),
		zap.Float64("compression_percent", result.Compression.Ratio()))
	return result, nil
}

// processUnit runs the sheet-scoped pipeline: encode, trim, extract,
// score, route, compare. Everything it touches is owned by this call.
func processUnit(ctx context.Context, unit sheetUnit, analyzer routing.ExternalAnalyzer, opts Options, logger *zap.Logger) (*SheetResult, models.RLEStats) {
	stats := &compress.Stats{}
	res := &SheetResult{Name: unit.grid.Name}

	sheet, encodeErrs := compress.EncodeSheet(unit.grid, unit.reg, opts.Compression, stats)
	for _, e := range encodeErrs {
		res.Warnings = append(res.Warnings, e.Error())
	}

	// Trim before extraction so complexity signals, sparsity above all,
	// reflect the filtered region instead of the declared bounds.
	filter.Trim(&sheet, opts.FilterMode, nil)
	filter.ClampGrid(unit.grid, sheet.Dimensions)

	extractor := complexity.NewExtractor(logger)
	meta := extractor.Extract(unit.grid)

	score := complexity.Score(&meta)
	res.Score = score

	router := routing.NewRouter(opts.Router, logger)
	routed := router.Run(ctx, &sheet, &meta, score, routing.NewDensityDetector(), analyzer)
	res.Decision = routed.Decision
	res.Heuristic = routed.Heuristic
	res.External = routed.External
	res.Warnings = append(res.Warnings, routed.Warnings...)

	if opts.Compare && routed.Decision.Strategy != routing.StrategyTraditional && routed.Failure == nil {
		report := compare.Compare(routed.Heuristic, routed.External)
		res.Report = &report
	}

	statsCopy := stats.RLEStats
	statsCopy.CompressionRatioPercent = statsCopy.Ratio()
	res.Document = &models.CompactDocument{
		Sheet:              sheet,
		ComplexityMetadata: &meta,
		RLECompression:     &statsCopy,
	}
	return res, stats.RLEStats
}
