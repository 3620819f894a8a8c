// Package ingest re-encodes parsed workbook grids into compact run-length
// documents and routes each sheet to the cheapest adequate analysis method.
package ingest

import (
	"go.uber.org/zap"

	"github.com/ib-agent/excel-ingest-go/pkg/ingest/compress"
	"github.com/ib-agent/excel-ingest-go/pkg/ingest/filter"
	"github.com/ib-agent/excel-ingest-go/pkg/ingest/routing"
)

// Options configures workbook processing.
type Options struct {
	// FilterMode selects region trimming behavior.
	FilterMode filter.Mode
	// Compression holds the run-length encoding thresholds.
	Compression compress.Params
	// Router holds the admission-control thresholds.
	Router routing.Config
	// Compare enables the agreement report when both detectors ran.
	Compare bool
	// Workers bounds the number of sheets processed concurrently.
	Workers int
	// Logger receives structured processing logs. Nil disables logging.
	Logger *zap.Logger
}

// DefaultOptions returns the default processing configuration.
func DefaultOptions() Options {
	return Options{
		FilterMode:  filter.ModeAggressive,
		Compression: compress.DefaultParams(),
		Router:      routing.DefaultConfig(),
		Compare:     true,
		Workers:     4,
	}
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o Options) workers() int {
	if o.Workers < 1 {
		return 1
	}
	return o.Workers
}
