package scd

import (
	"context"

	"github.com/scdkit/scd/pkg/store"
)

// Counters reports how many rows an Update call affected, broken down by
// mutation kind. A key classified BOTH contributes to both T1 and T2.
type Counters struct {
	NewRows          int64
	UpdatedType1Rows int64
	UpdatedType2Rows int64
}

// applier is the C5 component. It executes the four mutation steps in a
// fixed order — T1 bulk overwrite, T2 close-then-insert, new-member insert,
// current-index refresh — so that a row classified BOTH carries its new
// type1 values into the version T2 inserts, and so the index never observes
// a window with either zero or two current rows for a key.
type applier struct {
	table      store.Table
	alloc      *keyAllocator
	lookupAtts []string
	type1Atts  []string
	type2Atts  []string
	keyCol     string
	fromCol    string
	toCol      string
	versionCol string
	currentCol string
	hashCol    string
	asOf       int64
	maxTo      int64
}

// attributeOrder is the fixed column order the fingerprint is computed
// over: lookup, then type1, then type2 attributes.
func (a *applier) attributeOrder() []string {
	return append(append(append([]string{}, a.lookupAtts...), a.type1Atts...), a.type2Atts...)
}

func (a *applier) apply(ctx context.Context, p *plan, idx *currentIndex) (Counters, error) {
	var c Counters

	if err := a.applyType1(ctx, p.t1, idx); err != nil {
		return c, err
	}
	c.UpdatedType1Rows = int64(len(p.t1))

	if err := a.applyType2(ctx, p.t2, idx); err != nil {
		return c, err
	}
	c.UpdatedType2Rows = int64(len(p.t2))

	n, err := a.applyNew(ctx, p.new, idx)
	if err != nil {
		return c, err
	}
	c.NewRows = n

	return c, nil
}

// applyType1 is Step A: overwrite the type1 attributes (and recompute the
// digest) across every version of each affected key, and refresh the index
// entry for whichever of those versions is current.
func (a *applier) applyType1(ctx context.Context, rows []store.Row, idx *currentIndex) error {
	order := a.attributeOrder()
	for _, incoming := range rows {
		match := store.All(keyFilters(incoming, a.lookupAtts)...)
		cols := append(append([]string{a.currentCol, a.keyCol}, order...), a.hashCol)
		coords, existing, err := a.table.Query(ctx, match, cols)
		if err != nil {
			return NewStorageError("fetch all versions for type1 update", err)
		}

		k := naturalKey(incoming, a.lookupAtts)
		for i, coord := range coords {
			row := existing[i]
			for _, t1 := range a.type1Atts {
				row[t1] = incoming[t1]
			}
			newHash := fingerprint(row, order)
			patch := store.Row{a.hashCol: newHash}
			for _, t1 := range a.type1Atts {
				patch[t1] = incoming[t1]
			}
			if err := a.table.WriteAt(ctx, []store.Coord{coord}, patch); err != nil {
				return NewStorageError("overwrite type1 attributes", err)
			}
			if isCurrent(row[a.currentCol]) {
				id, ok := asInt64(row[a.keyCol])
				if !ok {
					return NewSchemaError(a.keyCol, "key column is not an integer")
				}
				idx.set(k, id, newHash)
			}
		}
	}
	return nil
}

// applyType2 is Step B: retire the current version (set scd_valid_to = asOf,
// scd_current = false) and insert a new version carrying the incoming
// type1 and type2 values.
func (a *applier) applyType2(ctx context.Context, rows []store.Row, idx *currentIndex) error {
	order := a.attributeOrder()
	for _, incoming := range rows {
		match := store.All(append(keyFilters(incoming, a.lookupAtts), store.Eq(a.currentCol, true))...)
		cols := []string{a.versionCol}
		coords, existing, err := a.table.Query(ctx, match, cols)
		if err != nil {
			return NewStorageError("fetch current version to retire", err)
		}
		if len(coords) != 1 {
			return NewInvariantViolation("single-current-per-key", "expected exactly one current row to retire")
		}

		if err := a.table.WriteAt(ctx, coords, store.Row{a.toCol: a.asOf, a.currentCol: false}); err != nil {
			return NewStorageError("retire current version", err)
		}

		prevVersion, ok := asInt16(existing[0][a.versionCol])
		if !ok {
			return NewSchemaError(a.versionCol, "version column is not an integer")
		}

		id := a.alloc.NextID()
		newRow := a.buildRow(incoming, id, prevVersion+1, order)
		if err := a.table.Append(ctx, []store.Row{newRow}); err != nil {
			return NewStorageError("insert new version", err)
		}

		k := naturalKey(incoming, a.lookupAtts)
		idx.set(k, id, newRow[a.hashCol].(string))
	}
	return nil
}

// applyNew is Step C: insert first versions for keys the index has never
// seen.
func (a *applier) applyNew(ctx context.Context, rows []store.Row, idx *currentIndex) (int64, error) {
	return a.applyInsert(ctx, rows, 1, idx)
}

// applyInsert is the low-level append path behind Engine.Insert: it bypasses
// classification entirely and bulk-appends a first version (scd_version =
// version) for every row in rows, allocating a surrogate key and stamping
// the bookkeeping columns for each. Used both for applyNew's version-1 case
// and directly for an initial bulk load.
func (a *applier) applyInsert(ctx context.Context, rows []store.Row, version int16, idx *currentIndex) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	order := a.attributeOrder()
	newRows := make([]store.Row, 0, len(rows))
	for _, incoming := range rows {
		id := a.alloc.NextID()
		row := a.buildRow(incoming, id, version, order)
		newRows = append(newRows, row)
		idx.set(naturalKey(incoming, a.lookupAtts), id, row[a.hashCol].(string))
	}
	if err := a.table.Append(ctx, newRows); err != nil {
		return 0, NewStorageError("insert prepared rows", err)
	}
	return int64(len(newRows)), nil
}

// buildRow assembles a full dimension row for a newly-minted version:
// lookup, type1, and type2 attribute values from incoming, plus the
// engine-managed bookkeeping columns.
func (a *applier) buildRow(incoming store.Row, id int64, version int16, order []string) store.Row {
	row := make(store.Row, len(order)+6)
	for _, attr := range order {
		row[attr] = incoming[attr]
	}
	row[a.keyCol] = id
	row[a.fromCol] = a.asOf
	row[a.toCol] = a.maxTo
	row[a.versionCol] = version
	row[a.currentCol] = true
	row[a.hashCol] = fingerprint(row, order)
	return row
}

func isCurrent(v any) bool {
	b, _ := v.(bool)
	return b
}
