// Package badger provides a durable store.Table backed by
// github.com/dgraph-io/badger/v4. Rows are encoded as JSON and keyed
// row:<table>:<seq>, where <seq> is an internal monotonic row sequence
// unrelated to the dimension's own surrogate key (scd_id) — the two counters
// serve different purposes and must not be conflated.
//
// Queries are full-table prefix scans filtered in process (store.Matches);
// this is the O(N)-per-lookup behavior the engine's specification explicitly
// permits for implementations with no secondary index.
package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/scdkit/scd/pkg/store"
)

const (
	prefixRow = "row:"
	prefixSeq = "seq:"
)

// Table is a Badger-backed store.Table scoped to a single table name within
// one badger.DB. Keys are namespaced by that name, but Open always opens its
// own badger.DB, so each Table owns a separate database.
type Table struct {
	db      *badger.DB
	name    string
	columns []string
}

// Open opens (creating if necessary) a Badger database at dir and returns a
// Table scoped to name. Callers own the returned *badger.DB's lifecycle
// indirectly through Close.
func Open(dir string, name string, columns []string) (*Table, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open %s: %w", dir, err)
	}
	return &Table{db: db, name: name, columns: append([]string(nil), columns...)}, nil
}

// Close releases the underlying Badger database.
func (t *Table) Close() error {
	return t.db.Close()
}

func (t *Table) rowKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d", prefixRow, t.name, seq))
}

func (t *Table) rowPrefix() []byte {
	return []byte(fmt.Sprintf("%s%s:", prefixRow, t.name))
}

func (t *Table) seqKey() []byte {
	return []byte(prefixSeq + t.name)
}

func (t *Table) Columns(ctx context.Context) ([]string, error) {
	return append([]string(nil), t.columns...), nil
}

func (t *Table) Append(ctx context.Context, rows []store.Row) error {
	return t.db.Update(func(txn *badger.Txn) error {
		seq, err := nextSeq(txn, t.seqKey(), uint64(len(rows)))
		if err != nil {
			return err
		}
		start := seq - uint64(len(rows))
		for i, r := range rows {
			data, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("badger: encode row: %w", err)
			}
			if err := txn.Set(t.rowKey(start+uint64(i)+1), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// nextSeq reserves n sequence numbers and returns the new high-water mark.
func nextSeq(txn *badger.Txn, key []byte, n uint64) (uint64, error) {
	var cur uint64
	item, err := txn.Get(key)
	switch {
	case err == nil:
		if err := item.Value(func(val []byte) error {
			cur = binary.BigEndian.Uint64(val)
			return nil
		}); err != nil {
			return 0, err
		}
	case err == badger.ErrKeyNotFound:
		cur = 0
	default:
		return 0, err
	}

	next := cur + n
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, next)
	if err := txn.Set(key, buf); err != nil {
		return 0, err
	}
	return next, nil
}

type coord []byte

func (t *Table) Query(ctx context.Context, match store.Filter, cols []string) ([]store.Coord, []store.Row, error) {
	var coords []store.Coord
	var rows []store.Row

	err := t.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := t.rowPrefix()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var row store.Row
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &row)
			}); err != nil {
				return fmt.Errorf("badger: decode row: %w", err)
			}
			if !store.Matches(row, match) {
				continue
			}
			key := append([]byte(nil), item.Key()...)
			coords = append(coords, coord(key))
			rows = append(rows, project(row, cols))
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return coords, rows, nil
}

func (t *Table) WriteAt(ctx context.Context, coords []store.Coord, patch store.Row) error {
	return t.db.Update(func(txn *badger.Txn) error {
		for _, c := range coords {
			key, ok := c.(coord)
			if !ok {
				return fmt.Errorf("badger: foreign coordinate %v", c)
			}
			item, err := txn.Get(key)
			if err != nil {
				return fmt.Errorf("badger: coordinate %s: %w", key, err)
			}
			var row store.Row
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &row)
			}); err != nil {
				return err
			}
			for k, v := range patch {
				row[k] = v
			}
			data, err := json.Marshal(row)
			if err != nil {
				return err
			}
			if err := txn.Set(key, data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (t *Table) MaxInt64(ctx context.Context, column string) (int64, bool, error) {
	var max int64
	found := false

	err := t.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := t.rowPrefix()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var row store.Row
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &row)
			}); err != nil {
				return err
			}
			v, ok := row[column]
			if !ok || v == nil {
				continue
			}
			n, ok := asInt64(v)
			if !ok {
				return fmt.Errorf("badger: column %q is not an integer", column)
			}
			if !found || n > max {
				max = n
				found = true
			}
		}
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return max, found, nil
}

func project(r store.Row, cols []string) store.Row {
	if len(cols) == 0 {
		return r
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
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}
