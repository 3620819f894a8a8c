// Package models defines data structures for compact sheet ingestion.
package models

import (
	"strconv"
	"strings"
)

// Cell is a single populated grid cell.
//
// Value is restricted to nil, string, int64, float64 or bool. StyleRef is
// a registry id ("s1", "s2", ...) valid only within one document; empty
// means unstyled.
type Cell struct {
	// Col is the column index (1-based).
	Col int `json:"col"`
	// Value is the typed cell value.
	Value interface{} `json:"value"`
	// StyleRef references an interned style record (optional).
	StyleRef string `json:"style,omitempty"`
	// Formula is the cell formula without the leading "=" (optional).
	Formula string `json:"formula,omitempty"`
}

// Row is an ordered list of cells with strictly increasing column indexes.
type Row struct {
	// R is the row index (1-based).
	R int `json:"r"`
	// Cells holds the populated cells of the row.
	Cells []Cell `json:"cells"`
}

// ParseValue attempts to parse a string value as a typed cell value.
// Returns int64 for integers, float64 for decimals, bool for TRUE/FALSE,
// or the original string.
func ParseValue(s string) interface{} {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch s {
	case "TRUE":
		return true
	case "FALSE":
		return false
	}
	return s
}

// IsMeaningful reports whether a value holds data worth keeping: non-nil,
// and for strings non-whitespace.
func IsMeaningful(v interface{}) bool {
	if v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// ValueType classifies a cell value for column type-mix analysis.
func ValueType(v interface{}) string {
	switch v.(type) {
	case nil:
		return "empty"
	case string:
		return "string"
	case int64, float64:
		return "number"
	case bool:
		return "bool"
	default:
		return "other"
	}
}
