// Package memory provides an in-process store.Table backed by a plain slice
// of rows with linear-scan queries. It is the default adapter used by tests
// and by callers that do not need persistence across process restarts.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/scdkit/scd/pkg/store"
)

// coord is a row's index into Table.rows. A deleted/overwritten row is never
// actually removed (the engine never deletes), so indexes stay stable for
// the lifetime of the table.
type coord int

// Table is a linear-scan, slice-backed store.Table.
type Table struct {
	mu      sync.Mutex
	columns []string
	rows    []store.Row
}

// New creates an empty table with the given column order. Columns are
// advisory only: Row keys absent from the list are still stored and
// returned, matching the engine's schema-less Row contract.
func New(columns []string) *Table {
	return &Table{columns: append([]string(nil), columns...)}
}

func (t *Table) Columns(ctx context.Context) ([]string, error) {
	return append([]string(nil), t.columns...), nil
}

func (t *Table) Append(ctx context.Context, rows []store.Row) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range rows {
		t.rows = append(t.rows, cloneRow(r))
	}
	return nil
}

func (t *Table) Query(ctx context.Context, match store.Filter, cols []string) ([]store.Coord, []store.Row, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var coords []store.Coord
	var out []store.Row
	for i, r := range t.rows {
		if !store.Matches(r, match) {
			continue
		}
		coords = append(coords, coord(i))
		out = append(out, project(r, cols))
	}
	return coords, out, nil
}

func (t *Table) WriteAt(ctx context.Context, coords []store.Coord, patch store.Row) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range coords {
		idx, ok := c.(coord)
		if !ok {
			return fmt.Errorf("memory: foreign coordinate %v", c)
		}
		if int(idx) < 0 || int(idx) >= len(t.rows) {
			return fmt.Errorf("memory: coordinate %d out of range", idx)
		}
		for k, v := range patch {
			t.rows[idx][k] = v
		}
	}
	return nil
}

func (t *Table) MaxInt64(ctx context.Context, column string) (int64, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var max int64
	found := false
	for _, r := range t.rows {
		v, ok := r[column]
		if !ok || v == nil {
			continue
		}
		n, ok := asInt64(v)
		if !ok {
			return 0, false, fmt.Errorf("memory: column %q is not an integer", column)
		}
		if !found || n > max {
			max = n
			found = true
		}
	}
	return max, found, nil
}

func cloneRow(r store.Row) store.Row {
	out := make(store.Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func project(r store.Row, cols []string) store.Row {
	if len(cols) == 0 {
		return cloneRow(r)
	}
	out := make(store.Row, len(cols))
	for _, c := range cols {
		out[c] = r[c]
	}
	return out
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	default:
		return 0, false
	}
}
