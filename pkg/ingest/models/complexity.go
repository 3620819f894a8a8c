package models

// MergeStats summarizes merged-cell usage. ComplexCount is weighted:
// a merge spanning more than two rows or columns counts 1.0, plus 0.5
// when it spans more than one row and more than one column.
type MergeStats struct {
	Count        int     `json:"count"`
	ComplexCount float64 `json:"complex_count"`
}

// HeaderStats summarizes the detected header block at the top of a sheet.
type HeaderStats struct {
	Levels        int     `json:"levels"`
	Inconsistency float64 `json:"inconsistency"`
}

// SparsityStats summarizes how empty the addressable region is.
type SparsityStats struct {
	Ratio     float64 `json:"ratio"`
	Clustered bool    `json:"clustered"`
}

// FormulaStats summarizes formula usage.
type FormulaStats struct {
	Ratio        float64 `json:"ratio"`
	ComplexRatio float64 `json:"complex_ratio"`
}

// ColumnStats summarizes per-column value type mixing.
type ColumnStats struct {
	AvgInconsistency       float64 `json:"avg_inconsistency"`
	HighInconsistencyCount int     `json:"high_inconsistency_count"`
}

// ComplexityMetadata holds the structural summary statistics of one sheet.
// It is persisted alongside the compact payload so later re-analysis can
// run without re-materializing the full grid.
type ComplexityMetadata struct {
	CellCount int           `json:"cell_count"`
	Merge     MergeStats    `json:"merge"`
	Header    HeaderStats   `json:"header"`
	Sparsity  SparsityStats `json:"sparsity"`
	Formula   FormulaStats  `json:"formula"`
	Column    ColumnStats   `json:"column"`
}

// Level buckets a complexity score.
type Level string

const (
	LevelSimple   Level = "simple"
	LevelModerate Level = "moderate"
	LevelComplex  Level = "complex"
)

// Recommendation names the processing method a score argues for.
type Recommendation string

const (
	RecommendTraditional Recommendation = "traditional"
	RecommendDual        Recommendation = "dual"
	RecommendAIFirst     Recommendation = "ai_first"
)

// ComplexityScore is the bounded summary of structural difficulty.
// Value is always in [0,1] and Level/Recommendation are a deterministic,
// monotonic function of it.
type ComplexityScore struct {
	Value             float64        `json:"value"`
	Level             Level          `json:"level"`
	Recommendation    Recommendation `json:"recommendation"`
	FailureIndicators []string       `json:"failure_indicators,omitempty"`
}
