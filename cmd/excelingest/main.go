// Package main provides the CLI entry point for excel-ingest-go.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ib-agent/excel-ingest-go/pkg/ingest"
	"github.com/ib-agent/excel-ingest-go/pkg/ingest/filter"
	"github.com/ib-agent/excel-ingest-go/pkg/ingest/output"
)

var (
	outputPath string
	pretty     bool
	filterMode string
	noCompare  bool
	workers    int
	configPath string
	sheetsDir  string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "excelingest [input.xlsx]",
		Short: "Re-encode Excel workbooks into compact run-length documents",
		Long: `excelingest reads a workbook, re-encodes each sheet into a compact
run-length representation with style deduplication, trims empty trailing
regions, scores structural complexity and reports the routing decision for
each sheet as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: run,
	}

	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	rootCmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	rootCmd.Flags().StringVar(&filterMode, "filter-mode", "aggressive", "Region filter mode: aggressive, conservative")
	rootCmd.Flags().BoolVar(&noCompare, "no-compare", false, "Skip the detector agreement report")
	rootCmd.Flags().IntVar(&workers, "workers", 4, "Number of sheets processed concurrently")
	rootCmd.Flags().StringVar(&configPath, "config", "", "Config file overriding router and codec thresholds")
	rootCmd.Flags().StringVar(&sheetsDir, "sheets-dir", "", "Directory for per-sheet output files")
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "Enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", inputPath)
	}

	logger, err := buildLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	opts, err := buildOptions(logger)
	if err != nil {
		return err
	}

	// The CLI wires no external analysis service; the router falls back
	// to traditional-only for every sheet.
	result, err := ingest.Process(context.Background(), inputPath, nil, opts)
	if err != nil {
		return fmt.Errorf("processing failed: %w", err)
	}

	jsonData, err := output.ToJSON(result, pretty)
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, jsonData, 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	} else if sheetsDir == "" {
		fmt.Println(string(jsonData))
	}

	if sheetsDir != "" {
		if err := writeSheetFiles(result, sheetsDir); err != nil {
			return fmt.Errorf("failed to write sheet files: %w", err)
		}
	}
	return nil
}

func buildLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// buildOptions merges defaults, the optional config file, and flags.
func buildOptions(logger *zap.Logger) (ingest.Options, error) {
	opts := ingest.DefaultOptions()
	opts.Logger = logger
	opts.Compare = !noCompare
	opts.Workers = workers

	switch filterMode {
	case "aggressive":
		opts.FilterMode = filter.ModeAggressive
	case "conservative":
		opts.FilterMode = filter.ModeConservative
	default:
		return opts, fmt.Errorf("invalid filter mode: %s (must be aggressive or conservative)", filterMode)
	}

	if configPath == "" {
		return opts, nil
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetDefault("router.traditional_max", opts.Router.TraditionalMax)
	v.SetDefault("router.ai_primary_min", opts.Router.AIPrimaryMin)
	v.SetDefault("router.max_cost_per_sheet", opts.Router.MaxCostPerSheet)
	v.SetDefault("router.timeout_seconds", int(opts.Router.Timeout/time.Second))
	v.SetDefault("compression.min_run_length", opts.Compression.MinRunLength)
	v.SetDefault("compression.null_run_length", opts.Compression.NullRunLength)
	v.SetDefault("compression.wide_row_cells", opts.Compression.WideRowCells)
	if err := v.ReadInConfig(); err != nil {
		return opts, fmt.Errorf("failed to read config: %w", err)
	}

	opts.Router.TraditionalMax = v.GetFloat64("router.traditional_max")
	opts.Router.AIPrimaryMin = v.GetFloat64("router.ai_primary_min")
	opts.Router.MaxCostPerSheet = v.GetFloat64("router.max_cost_per_sheet")
	opts.Router.Timeout = time.Duration(v.GetInt("router.timeout_seconds")) * time.Second
	opts.Compression.MinRunLength = v.GetInt("compression.min_run_length")
	opts.Compression.NullRunLength = v.GetInt("compression.null_run_length")
	opts.Compression.WideRowCells = v.GetInt("compression.wide_row_cells")
	return opts, nil
}

func writeSheetFiles(result *ingest.Result, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, sheet := range result.Sheets {
		jsonData, err := output.SheetToJSON(sheet.Document, pretty)
		if err != nil {
			return err
		}
		filename := filepath.Join(dir, sheet.Name+".json")
		if err := os.WriteFile(filename, jsonData, 0644); err != nil {
			return err
		}
	}
	return nil
}
