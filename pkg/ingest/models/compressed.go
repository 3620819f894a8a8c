package models

import (
	"encoding/json"
	"fmt"
)

// CompressedCell is the tagged variant stored in a CompressedRow: either a
// Single cell or a Run of identical adjacent cells. Consumers must switch
// exhaustively on the concrete type.
type CompressedCell interface {
	compressedCell()
}

// Single is an individually stored cell.
type Single struct {
	Col      int
	Value    interface{}
	StyleRef string
	Formula  string
}

func (Single) compressedCell() {}

// Run is a maximal sequence of columns sharing one (value, style, formula)
// triple, stored once with its length.
type Run struct {
	StartCol int
	Value    interface{}
	StyleRef string
	Formula  string
	Length   int
}

func (Run) compressedCell() {}

// EndCol returns the last column covered by the run.
func (r Run) EndCol() int {
	return r.StartCol + r.Length - 1
}

// CompressedRow is the run-length encoded form of a Row. Style, when set,
// is a style id shared by every cell in the row; per-cell refs are cleared
// when it is set.
type CompressedRow struct {
	R     int
	Cells []CompressedCell
	Style string
}

// On the wire a single cell is [col, value], [col, value, style] or
// [col, value, style|null, formula]; a run is always the five-element
// [startCol, value, style|null, formula|null, length].

// MarshalJSON emits the positional-array wire format.
func (cr CompressedRow) MarshalJSON() ([]byte, error) {
	cells := make([]interface{}, 0, len(cr.Cells))
	for _, c := range cr.Cells {
		switch v := c.(type) {
		case Single:
			arr := []interface{}{v.Col, v.Value}
			if v.Formula != "" {
				arr = append(arr, nullableString(v.StyleRef), v.Formula)
			} else if v.StyleRef != "" {
				arr = append(arr, v.StyleRef)
			}
			cells = append(cells, arr)
		case Run:
			cells = append(cells, []interface{}{
				v.StartCol, v.Value,
				nullableString(v.StyleRef), nullableString(v.Formula),
				v.Length,
			})
		default:
			return nil, fmt.Errorf("unknown compressed cell type %T", c)
		}
	}
	out := map[string]interface{}{"r": cr.R, "cells": cells}
	if cr.Style != "" {
		out["style"] = cr.Style
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses the positional-array wire format back into tagged
// variants. A five-element array is a run, anything shorter a single cell.
func (cr *CompressedRow) UnmarshalJSON(data []byte) error {
	var raw struct {
		R     int               `json:"r"`
		Cells []json.RawMessage `json:"cells"`
		Style string            `json:"style"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	cr.R = raw.R
	cr.Style = raw.Style
	cr.Cells = make([]CompressedCell, 0, len(raw.Cells))
	for i, rawCell := range raw.Cells {
		var parts []json.RawMessage
		if err := json.Unmarshal(rawCell, &parts); err != nil {
			return fmt.Errorf("row %d cell %d: %w", raw.R, i, err)
		}
		if len(parts) < 2 {
			return fmt.Errorf("row %d cell %d: need at least [col, value]", raw.R, i)
		}
		col, err := decodeInt(parts[0])
		if err != nil {
			return fmt.Errorf("row %d cell %d: %w", raw.R, i, err)
		}
		value, err := decodeValue(parts[1])
		if err != nil {
			return fmt.Errorf("row %d cell %d: %w", raw.R, i, err)
		}
		switch len(parts) {
		case 2, 3, 4:
			s := Single{Col: col, Value: value}
			if len(parts) >= 3 {
				if s.StyleRef, err = decodeNullableString(parts[2]); err != nil {
					return fmt.Errorf("row %d cell %d: %w", raw.R, i, err)
				}
			}
			if len(parts) == 4 {
				if s.Formula, err = decodeNullableString(parts[3]); err != nil {
					return fmt.Errorf("row %d cell %d: %w", raw.R, i, err)
				}
			}
			cr.Cells = append(cr.Cells, s)
		case 5:
			r := Run{StartCol: col, Value: value}
			if r.StyleRef, err = decodeNullableString(parts[2]); err != nil {
				return fmt.Errorf("row %d cell %d: %w", raw.R, i, err)
			}
			if r.Formula, err = decodeNullableString(parts[3]); err != nil {
				return fmt.Errorf("row %d cell %d: %w", raw.R, i, err)
			}
			if r.Length, err = decodeInt(parts[4]); err != nil {
				return fmt.Errorf("row %d cell %d: %w", raw.R, i, err)
			}
			cr.Cells = append(cr.Cells, r)
		default:
			return fmt.Errorf("row %d cell %d: unexpected arity %d", raw.R, i, len(parts))
		}
	}
	return nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func decodeNullableString(raw json.RawMessage) (string, error) {
	if string(raw) == "null" {
		return "", nil
	}
	var s string
	err := json.Unmarshal(raw, &s)
	return s, err
}

func decodeInt(raw json.RawMessage) (int, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, err
	}
	i, err := n.Int64()
	return int(i), err
}

// decodeValue restores the typed cell value, preserving the int64/float64
// distinction JSON would otherwise collapse.
func decodeValue(raw json.RawMessage) (interface{}, error) {
	if string(raw) == "null" {
		return nil, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		return f, err
	}
	var v interface{}
	err := json.Unmarshal(raw, &v)
	return v, err
}

// RLEStats holds cumulative codec counters. Counters are additively
// mergeable so per-worker instances can be reduced after a parallel phase.
type RLEStats struct {
	RowsCompressed int `json:"rows_compressed"`
	CellsBefore    int `json:"cells_before_rle"`
	CellsAfter     int `json:"cells_after_rle"`
	RunsCreated    int `json:"runs_created"`
	// CompressionRatioPercent is derived at serialization time.
	CompressionRatioPercent float64 `json:"compression_ratio_percent"`
}

// Add accumulates another stats instance into this one.
func (s *RLEStats) Add(other RLEStats) {
	s.RowsCompressed += other.RowsCompressed
	s.CellsBefore += other.CellsBefore
	s.CellsAfter += other.CellsAfter
	s.RunsCreated += other.RunsCreated
	s.CompressionRatioPercent = s.Ratio()
}

// Ratio returns the percentage of cells eliminated by compression.
func (s *RLEStats) Ratio() float64 {
	if s.CellsBefore == 0 {
		return 0
	}
	return 100 * float64(s.CellsBefore-s.CellsAfter) / float64(s.CellsBefore)
}
