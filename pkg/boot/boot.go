// Package boot wires a config.Config into a running store.Table and scd.Engine
// pair. It is shared by every scd command so each one stays a thin wrapper
// around its own I/O (file loading, MCP transport, directory watching)
// instead of re-implementing backend selection.
package boot

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/scdkit/scd/pkg/config"
	"github.com/scdkit/scd/pkg/scd"
	"github.com/scdkit/scd/pkg/store"
	"github.com/scdkit/scd/pkg/store/badger"
	"github.com/scdkit/scd/pkg/store/memory"
	sqlstore "github.com/scdkit/scd/pkg/store/sql"
)

// Logger builds the slog.Logger every scd command uses, per cfg.Log.
func Logger(cfg config.LogConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// OpenTable constructs the store.Table named by cfg.Store.Backend. On success
// the returned close func is always non-nil; callers are responsible for
// calling it, which releases a badger.Table or a *stdsql.DB and does nothing
// for the memory backend.
func OpenTable(cfg config.StoreConfig) (store.Table, func() error, error) {
	switch cfg.Backend {
	case "memory", "":
		return memory.New(cfg.Columns), func() error { return nil }, nil

	case "badger":
		tbl, err := badger.Open(cfg.BadgerDir, cfg.Table, cfg.Columns)
		if err != nil {
			return nil, nil, fmt.Errorf("open badger store: %w", err)
		}
		return tbl, tbl.Close, nil

	case "mysql":
		return openSQL(cfg, "mysql", sqlstore.QuestionMark)
	case "sqlite":
		return openSQL(cfg, "sqlite", sqlstore.QuestionMark)
	case "postgres":
		return openSQL(cfg, "postgres", sqlstore.Dollar)

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func openSQL(cfg config.StoreConfig, driver string, ph sqlstore.Placeholder) (store.Table, func() error, error) {
	db, err := stdsql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", driver, err)
	}
	idColumn := cfg.IDColumn
	if idColumn == "" && len(cfg.Columns) > 0 {
		idColumn = cfg.Columns[0]
	}
	tbl := sqlstore.Open(db, cfg.Table, idColumn, cfg.Columns, ph)
	return tbl, db.Close, nil
}

// OpenEngine builds the store.Table cfg.Store names and constructs an
// scd.Engine over it, resolving cfg.Engine's date strings. The returned
// close func tears down the underlying table connection, if any.
func OpenEngine(ctx context.Context, cfg *config.Config) (*scd.Engine, func() error, error) {
	storeCfg := cfg.Store
	if storeCfg.IDColumn == "" {
		storeCfg.IDColumn = cfg.Engine.Key
	}
	table, closeFn, err := OpenTable(storeCfg)
	if err != nil {
		return nil, nil, err
	}

	engineCfg := scd.Config{
		Table:      table,
		LookupAtts: cfg.Engine.LookupAtts,
		Type1Atts:  cfg.Engine.Type1Atts,
		Type2Atts:  cfg.Engine.Type2Atts,
		Key:        cfg.Engine.Key,
		FromAtt:    cfg.Engine.FromAtt,
		ToAtt:      cfg.Engine.ToAtt,
		VersionAtt: cfg.Engine.VersionAtt,
		CurrentAtt: cfg.Engine.CurrentAtt,
		HashAtt:    cfg.Engine.HashAtt,
	}
	if cfg.Engine.MaxTo != "" {
		t, err := scd.ParseDate(cfg.Engine.MaxTo)
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		engineCfg.MaxTo = t
	}
	if cfg.Engine.AsOf != "" {
		t, err := scd.ParseDate(cfg.Engine.AsOf)
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		engineCfg.AsOf = t
	}

	engine, err := scd.New(ctx, engineCfg)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return engine, closeFn, nil
}
