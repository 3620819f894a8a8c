package complexity

import "github.com/ib-agent/excel-ingest-go/pkg/ingest/models"

// Subscore caps. The total is additionally clamped to [0,1].
const (
	mergeCap    = 0.3
	headerCap   = 0.25
	sparsityCap = 0.2
	columnCap   = 0.15
	formulaCap  = 0.1
)

// sparsityThreshold is the ratio below which sparsity contributes nothing;
// only the excess over it counts.
const sparsityThreshold = 0.5

// extensiveMergeCount triggers the hard failure override regardless of how
// the merge ratio scores.
const extensiveMergeCount = 10

// Level boundaries.
const (
	simpleMax   = 0.3
	moderateMax = 0.7
)

// Score reduces metadata to a bounded score with a deterministic level and
// recommendation. A nil metadata degrades to the mid-scale score and an
// explicit indicator instead of failing.
func Score(meta *models.ComplexityMetadata) models.ComplexityScore {
	if meta == nil {
		return models.ComplexityScore{
			Value:             0.5,
			Level:             models.LevelModerate,
			Recommendation:    models.RecommendDual,
			FailureIndicators: []string{"metadata_unavailable"},
		}
	}

	merge := mergeSubscore(meta)
	header := headerSubscore(meta)
	sparsity := sparsitySubscore(meta)
	column := columnSubscore(meta)
	formula := formulaSubscore(meta)

	value := clamp01(merge + header + sparsity + column + formula)
	score := models.ComplexityScore{Value: value}
	score.Level, score.Recommendation = bucket(value)

	// Failure indicators fire on fixed per-submetric cutoffs.
	if merge > 0.15 {
		score.FailureIndicators = append(score.FailureIndicators, "complex_merged_cells")
	}
	if header > 0.15 {
		score.FailureIndicators = append(score.FailureIndicators, "multi_level_headers")
	}
	if sparsity > 0.1 {
		score.FailureIndicators = append(score.FailureIndicators, "sparse_data_layout")
	}
	if column > 0.1 {
		score.FailureIndicators = append(score.FailureIndicators, "inconsistent_column_types")
	}
	if formula > 0.05 {
		score.FailureIndicators = append(score.FailureIndicators, "complex_formulas")
	}
	// Hard override: heavy absolute merge counts defeat heuristics even
	// when the sheet is large enough to dilute the ratio.
	if meta.Merge.Count > extensiveMergeCount {
		score.FailureIndicators = append(score.FailureIndicators, "extensive_merging")
	}
	return score
}

func bucket(value float64) (models.Level, models.Recommendation) {
	switch {
	case value < simpleMax:
		return models.LevelSimple, models.RecommendTraditional
	case value < moderateMax:
		return models.LevelModerate, models.RecommendDual
	default:
		return models.LevelComplex, models.RecommendAIFirst
	}
}

func mergeSubscore(meta *models.ComplexityMetadata) float64 {
	if meta.CellCount == 0 || meta.Merge.Count == 0 {
		return 0
	}
	mergeRatio := float64(meta.Merge.Count) / float64(meta.CellCount)
	complexRatio := meta.Merge.ComplexCount / float64(meta.Merge.Count)
	return capAt(capAt(mergeRatio*3, mergeCap)+complexRatio*0.2, mergeCap)
}

func headerSubscore(meta *models.ComplexityMetadata) float64 {
	score := 0.0
	if meta.Header.Levels > 2 {
		score += capAt(float64(meta.Header.Levels-2)*0.075, 0.15)
	}
	score += capAt(meta.Header.Inconsistency*0.1, 0.1)
	return capAt(score, headerCap)
}

func sparsitySubscore(meta *models.ComplexityMetadata) float64 {
	excess := meta.Sparsity.Ratio - sparsityThreshold
	if excess <= 0 {
		return 0
	}
	return capAt(excess*0.4, sparsityCap)
}

func columnSubscore(meta *models.ComplexityMetadata) float64 {
	score := meta.Column.AvgInconsistency*0.1 + float64(meta.Column.HighInconsistencyCount)*0.02
	return capAt(score, columnCap)
}

func formulaSubscore(meta *models.ComplexityMetadata) float64 {
	score := capAt(meta.Formula.Ratio*0.5, 0.05) + capAt(meta.Formula.ComplexRatio*0.05, 0.05)
	return capAt(score, formulaCap)
}

func capAt(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
