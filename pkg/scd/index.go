package scd

import (
	"context"

	"github.com/scdkit/scd/pkg/store"
)

// indexEntry is the C3 cache payload for one natural key: the surrogate key
// and row digest of its current (scd_current = true) version.
type indexEntry struct {
	ID   int64
	Hash string
}

// currentIndex is the C3 component: an in-memory map from natural key to
// the current version's (scd_id, hash), loaded once at construction and
// kept in sync by the applier as it retires and inserts rows. It never
// re-reads the table — the engine is single-writer, so the cache cannot go
// stale during a run.
type currentIndex struct {
	entries    map[string]indexEntry
	lookupAtts []string
}

// loadCurrentIndex projects table for all rows where currentAtt is true and
// builds the cache from their lookup-attribute values, surrogate key, and
// hash.
func loadCurrentIndex(ctx context.Context, table store.Table, lookupAtts []string, keyCol, hashCol, currentCol string) (*currentIndex, error) {
	cols := append(append(append([]string{}, lookupAtts...), keyCol), hashCol)
	_, rows, err := table.Query(ctx, store.Eq(currentCol, true), cols)
	if err != nil {
		return nil, NewStorageError("load current index", err)
	}

	idx := &currentIndex{
		entries:    make(map[string]indexEntry, len(rows)),
		lookupAtts: lookupAtts,
	}
	for _, row := range rows {
		k := naturalKey(row, lookupAtts)
		id, ok := asInt64(row[keyCol])
		if !ok {
			return nil, NewSchemaError(keyCol, "current row's key column is not an integer")
		}
		hash, _ := row[hashCol].(string)
		if _, dup := idx.entries[k]; dup {
			return nil, NewInvariantViolation("single-current-per-key", "more than one current row shares the same natural key")
		}
		idx.entries[k] = indexEntry{ID: id, Hash: hash}
	}
	return idx, nil
}

func (idx *currentIndex) get(key string) (indexEntry, bool) {
	e, ok := idx.entries[key]
	return e, ok
}

func (idx *currentIndex) set(key string, id int64, hash string) {
	idx.entries[key] = indexEntry{ID: id, Hash: hash}
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int16:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

func asInt16(v any) (int16, bool) {
	n, ok := asInt64(v)
	if !ok {
		return 0, false
	}
	return int16(n), true
}
