// Package scd implements the Kimball slowly-changing-dimension maintenance
// engine: given a batch of incoming rows and a dimension table split into
// lookup, type1 ("overwrite"), and type2 ("version") attributes, it decides
// which rows are new, unchanged, or changed in one or both partitions, and
// applies the corresponding mutations against an abstract tabular store.
package scd

import (
	"context"
	"strings"
	"time"

	"github.com/scdkit/scd/pkg/store"
)

const defaultMaxTo = "2199-12-31"

// Config configures an Engine. Table, LookupAtts, and at least one of
// Type1Atts/Type2Atts are required; every other field has a default that
// matches the conventions of the reference dimension schema.
type Config struct {
	Table store.Table

	LookupAtts []string
	Type1Atts  []string
	Type2Atts  []string

	// Key, FromAtt, ToAtt, VersionAtt, CurrentAtt, and HashAtt name the
	// engine-managed bookkeeping columns. Defaults: scd_id, scd_valid_from,
	// scd_valid_to, scd_version, scd_current, scd_hash.
	Key        string
	FromAtt    string
	ToAtt      string
	VersionAtt string
	CurrentAtt string
	HashAtt    string

	// MaxTo is the open-ended sentinel written to ToAtt for the current
	// version of every key. Defaults to 2199-12-31.
	MaxTo time.Time
	// AsOf is the effective date stamped into FromAtt for new or newly
	// versioned rows, and into ToAtt when retiring a prior current
	// version. Defaults to the current UTC date at construction time.
	AsOf time.Time
}

// Engine is a constructed, ready-to-run SCD maintenance engine bound to one
// Table and one attribute partitioning. It is not safe for concurrent use:
// the specification is explicitly single-writer.
type Engine struct {
	table      store.Table
	classifier *classifier
	applier    *applier
	idx        *currentIndex
	order      []string

	totals Counters
}

// New validates cfg, seeds the surrogate-key allocator from the table's
// persisted maximum key, loads the current-state index, and returns a
// ready-to-use Engine. All I/O happens here, once; Update never re-reads
// the table except for the targeted lookups the classifier and applier
// need to carry out a given batch.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	alloc, err := newKeyAllocator(ctx, cfg.Table, cfg.Key)
	if err != nil {
		return nil, err
	}

	idx, err := loadCurrentIndex(ctx, cfg.Table, cfg.LookupAtts, cfg.Key, cfg.HashAtt, cfg.CurrentAtt)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		table: cfg.Table,
		classifier: &classifier{
			table:      cfg.Table,
			lookupAtts: cfg.LookupAtts,
			type1Atts:  cfg.Type1Atts,
			type2Atts:  cfg.Type2Atts,
			keyCol:     cfg.Key,
			currentCol: cfg.CurrentAtt,
		},
		applier: &applier{
			table:      cfg.Table,
			alloc:      alloc,
			lookupAtts: cfg.LookupAtts,
			type1Atts:  cfg.Type1Atts,
			type2Atts:  cfg.Type2Atts,
			keyCol:     cfg.Key,
			fromCol:    cfg.FromAtt,
			toCol:      cfg.ToAtt,
			versionCol: cfg.VersionAtt,
			currentCol: cfg.CurrentAtt,
			hashCol:    cfg.HashAtt,
			asOf:       cfg.AsOf.UTC().UnixNano(),
			maxTo:      cfg.MaxTo.UTC().UnixNano(),
		},
		idx:   idx,
		order: append(append(append([]string{}, cfg.LookupAtts...), cfg.Type1Atts...), cfg.Type2Atts...),
	}
	return e, nil
}

// Update classifies and applies one batch of incoming rows, returning the
// counts of rows affected by this call. Within a batch, rows sharing a
// natural key collapse to the last occurrence before classification — the
// engine never applies two mutations for the same key in one Update.
func (e *Engine) Update(ctx context.Context, batch []store.Row) (Counters, error) {
	p, err := e.classifier.classify(ctx, batch, e.idx, e.fingerprint)
	if err != nil {
		return Counters{}, err
	}
	// Counts for sub-batches fully applied before a failure are kept in
	// totals.
	c, err := e.applier.apply(ctx, p, e.idx)
	e.totals.NewRows += c.NewRows
	e.totals.UpdatedType1Rows += c.UpdatedType1Rows
	e.totals.UpdatedType2Rows += c.UpdatedType2Rows
	return c, err
}

// Insert is the low-level append path: it bypasses classification entirely
// and bulk-appends a fully-prepared first version for every row in batch,
// allocating a surrogate key and stamping scd_version, scd_valid_from,
// scd_valid_to, scd_current, and scd_hash itself. version defaults to 1 if
// zero. It shares its row-building path (applier.applyInsert) with Update's
// new-member step and serves an initial bulk load of a previously-empty
// dimension — callers are
// responsible for ensuring batch contains no natural key already present in
// the table, since Insert does not consult the current-state index to
// detect collisions.
func (e *Engine) Insert(ctx context.Context, batch []store.Row, version int16) (Counters, error) {
	if version == 0 {
		version = 1
	}
	n, err := e.applier.applyInsert(ctx, batch, version, e.idx)
	c := Counters{NewRows: n}
	if err != nil {
		return c, err
	}
	e.totals.NewRows += c.NewRows
	return c, nil
}

// Totals returns the cumulative counters across every Update and Insert call
// made against this Engine since construction.
func (e *Engine) Totals() Counters {
	return e.totals
}

// Lookup returns the current (scd_current = true) version of the row whose
// lookup attributes match key's values for those same attributes. ok is
// false if no current row exists for that natural key.
func (e *Engine) Lookup(ctx context.Context, key store.Row) (store.Row, bool, error) {
	match := store.All(append(keyFilters(key, e.classifier.lookupAtts), store.Eq(e.applier.currentCol, true))...)
	_, rows, err := e.table.Query(ctx, match, nil)
	if err != nil {
		return nil, false, NewStorageError("lookup current row", err)
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	if len(rows) > 1 {
		return nil, false, NewInvariantViolation("single-current-per-key", "lookup matched more than one current row")
	}
	return rows[0], true, nil
}

func (e *Engine) fingerprint(row store.Row) string {
	return fingerprint(row, e.order)
}

func validate(cfg *Config) error {
	if cfg.Table == nil {
		return NewConfigError("Table", "must not be nil")
	}
	if len(cfg.LookupAtts) == 0 {
		return NewConfigError("LookupAtts", "must name at least one attribute")
	}
	if len(cfg.Type1Atts) == 0 && len(cfg.Type2Atts) == 0 {
		return NewConfigError("Type1Atts/Type2Atts", "at least one must be non-empty, otherwise no attribute is tracked")
	}
	seen := make(map[string]string, len(cfg.LookupAtts)+len(cfg.Type1Atts)+len(cfg.Type2Atts))
	for _, a := range cfg.LookupAtts {
		seen[a] = "LookupAtts"
	}
	for _, a := range cfg.Type1Atts {
		if partition, dup := seen[a]; dup {
			return NewConfigError("Type1Atts", "attribute "+a+" also appears in "+partition)
		}
		seen[a] = "Type1Atts"
	}
	for _, a := range cfg.Type2Atts {
		if partition, dup := seen[a]; dup {
			return NewConfigError("Type2Atts", "attribute "+a+" also appears in "+partition)
		}
		seen[a] = "Type2Atts"
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Key == "" {
		cfg.Key = "scd_id"
	}
	if cfg.FromAtt == "" {
		cfg.FromAtt = "scd_valid_from"
	}
	if cfg.ToAtt == "" {
		cfg.ToAtt = "scd_valid_to"
	}
	if cfg.VersionAtt == "" {
		cfg.VersionAtt = "scd_version"
	}
	if cfg.CurrentAtt == "" {
		cfg.CurrentAtt = "scd_current"
	}
	if cfg.HashAtt == "" {
		cfg.HashAtt = "scd_hash"
	}
	if cfg.MaxTo.IsZero() {
		cfg.MaxTo, _ = time.Parse("2006-01-02", defaultMaxTo)
	}
	if cfg.AsOf.IsZero() {
		now := time.Now().UTC()
		cfg.AsOf = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
}

// ParseDate parses a "YYYY-MM-DD" string into the UTC midnight time.Time
// that Config.MaxTo and Config.AsOf expect — the convenience helper callers
// loading configuration from JSON or CSV use instead of time.Parse directly.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, NewConfigError("date", "expected YYYY-MM-DD: "+err.Error())
	}
	return t, nil
}
