// Command scdload applies a batch of incoming rows, read from a CSV or XLSX
// file, against a configured dimension. It is the bulk-ingestion entry point;
// cmd/scdserve wraps this same path in a directory-watch loop.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/scdkit/scd/pkg/boot"
	"github.com/scdkit/scd/pkg/config"
	"github.com/scdkit/scd/pkg/ingest"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "scdload:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config.json (defaults to SCD_CONFIG or conventional locations)")
	file := flag.String("file", "", "path to a .csv or .xlsx file of incoming rows")
	sheet := flag.String("sheet", "", "xlsx sheet name (defaults to the first sheet)")
	flag.Parse()

	if *file == "" {
		return fmt.Errorf("-file is required")
	}

	var cfg *config.Config
	if *configPath == "" {
		cfg = config.LoadConfigOrDefault()
	} else {
		var err error
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	logger := boot.Logger(cfg.Log)

	batch, err := ingest.LoadRows(*file, *sheet)
	if err != nil {
		return fmt.Errorf("read %s: %w", *file, err)
	}
	logger.Info("loaded batch", "file", *file, "rows", len(batch))

	ctx := context.Background()
	engine, closeFn, err := boot.OpenEngine(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}
	defer closeFn()

	counters, err := engine.Update(ctx, batch)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}

	logger.Info("update complete",
		"new_rows", counters.NewRows,
		"updated_type1_rows", counters.UpdatedType1Rows,
		"updated_type2_rows", counters.UpdatedType2Rows,
	)
	return nil
}
