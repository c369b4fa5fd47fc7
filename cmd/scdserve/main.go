// Command scdserve watches a directory for new CSV/XLSX drop files and
// applies each one against the dimension as it arrives. When ingest.archive_dir
// is set, successfully processed files are moved there so a restart doesn't
// reprocess them; otherwise they stay in the watched directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/scdkit/scd/pkg/boot"
	"github.com/scdkit/scd/pkg/config"
	"github.com/scdkit/scd/pkg/ingest"
	"github.com/scdkit/scd/pkg/scd"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "scdserve:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config.json")
	watchDir := flag.String("dir", "", "directory to watch for incoming .csv/.xlsx files")
	flag.Parse()

	if *watchDir == "" {
		return fmt.Errorf("-dir is required")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := boot.Logger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, closeFn, err := boot.OpenEngine(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}
	defer closeFn()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(*watchDir); err != nil {
		return fmt.Errorf("watch %s: %w", *watchDir, err)
	}
	logger.Info("watching for incoming batches", "dir", *watchDir)

	// Catch up on any files already sitting in the directory before the
	// watcher was attached.
	if entries, err := os.ReadDir(*watchDir); err == nil {
		for _, entry := range entries {
			if !entry.IsDir() && isLoadable(entry.Name()) {
				processFile(ctx, engine, logger, cfg, filepath.Join(*watchDir, entry.Name()))
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !isLoadable(event.Name) {
				continue
			}
			processFile(ctx, engine, logger, cfg, event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "error", err)
		}
	}
}

func isLoadable(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx":
		return true
	default:
		return false
	}
}

func processFile(ctx context.Context, engine *scd.Engine, logger *slog.Logger, cfg *config.Config, path string) {
	batchID := uuid.New().String()
	logger = logger.With("batch_id", batchID)

	rows, err := ingest.LoadRows(path, "")
	if err != nil {
		logger.Error("load batch failed", "file", path, "error", err)
		return
	}

	counters, err := engine.Update(ctx, rows)
	if err != nil {
		logger.Error("update failed", "file", path, "error", err)
		return
	}
	logger.Info("processed batch",
		"file", path,
		"rows", len(rows),
		"new_rows", counters.NewRows,
		"updated_type1_rows", counters.UpdatedType1Rows,
		"updated_type2_rows", counters.UpdatedType2Rows,
	)

	if cfg.Ingest.ArchiveDir != "" {
		if err := os.MkdirAll(cfg.Ingest.ArchiveDir, 0o755); err == nil {
			dest := filepath.Join(cfg.Ingest.ArchiveDir, filepath.Base(path))
			if err := os.Rename(path, dest); err != nil {
				logger.Error("archive failed", "file", path, "error", err)
			}
		}
	}
}
