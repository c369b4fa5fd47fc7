package boot

import (
	"context"
	"testing"

	"github.com/scdkit/scd/pkg/config"
)

func TestOpenTableMemory(t *testing.T) {
	tbl, closeFn, err := OpenTable(config.StoreConfig{Backend: "memory", Columns: []string{"a"}})
	if err != nil {
		t.Fatalf("OpenTable: %v", err)
	}
	defer closeFn()
	if tbl == nil {
		t.Fatal("expected a non-nil table")
	}
}

func TestOpenTableUnknownBackend(t *testing.T) {
	_, _, err := OpenTable(config.StoreConfig{Backend: "oracle"})
	if err == nil {
		t.Fatal("expected an error for an unknown backend")
	}
}

func TestOpenEngineMemoryEndToEnd(t *testing.T) {
	cfg := &config.Config{
		Engine: config.EngineConfig{
			LookupAtts: []string{"order"},
			Type1Atts:  []string{"status"},
		},
		Store: config.StoreConfig{
			Backend: "memory",
			Columns: []string{"order", "status", "scd_id", "scd_valid_from", "scd_valid_to", "scd_version", "scd_current", "scd_hash"},
		},
	}

	engine, closeFn, err := OpenEngine(context.Background(), cfg)
	if err != nil {
		t.Fatalf("OpenEngine: %v", err)
	}
	defer closeFn()

	if engine == nil {
		t.Fatal("expected a non-nil engine")
	}
}

func TestLoggerFormats(t *testing.T) {
	if Logger(config.LogConfig{Format: "json"}) == nil {
		t.Fatal("expected a logger for json format")
	}
	if Logger(config.LogConfig{Format: "text"}) == nil {
		t.Fatal("expected a logger for text format")
	}
}
