package scd

import (
	"context"

	"github.com/scdkit/scd/pkg/store"
)

// plan is the output of classification: the incoming rows partitioned by
// which mutation steps they require. A key appears in both t1 and t2 when
// its verdict is BOTH. The lengths of new, t1, and t2 are exactly the
// counters the engine reports after Update.
type plan struct {
	new []store.Row
	t1  []store.Row
	t2  []store.Row
}

// classifier is the C4 component: it joins an incoming batch against the
// current-state index on natural key and, for keys whose hash differs from
// the cached current version, fetches that version's raw attribute values
// to decide whether the change is confined to type1 attributes, type2
// attributes, or both.
type classifier struct {
	table      store.Table
	lookupAtts []string
	type1Atts  []string
	type2Atts  []string
	keyCol     string
	currentCol string
}

// classify dedups batch by natural key (last occurrence in batch order
// wins — see the engine's within-batch duplicate rule) and produces a plan.
func (c *classifier) classify(ctx context.Context, batch []store.Row, idx *currentIndex, fp func(store.Row) string) (*plan, error) {
	order := make([]string, 0, len(batch))
	last := make(map[string]store.Row, len(batch))
	for _, r := range batch {
		k := naturalKey(r, c.lookupAtts)
		if _, seen := last[k]; !seen {
			order = append(order, k)
		}
		last[k] = r
	}

	p := &plan{}
	for _, k := range order {
		r := last[k]
		hash := fp(r)

		entry, ok := idx.get(k)
		if !ok {
			p.new = append(p.new, r)
			continue
		}
		if entry.Hash == hash {
			continue // UNCHANGED
		}

		cur, found, err := c.currentRow(ctx, r)
		if err != nil {
			return nil, err
		}
		if !found {
			// The index claims a current row exists but the table disagrees;
			// treat the incoming row as a new member rather than guessing.
			p.new = append(p.new, r)
			continue
		}

		t1Changed := attrsDiffer(cur, r, c.type1Atts)
		t2Changed := attrsDiffer(cur, r, c.type2Atts)
		if t1Changed {
			p.t1 = append(p.t1, r)
		}
		if t2Changed {
			p.t2 = append(p.t2, r)
		}
	}
	return p, nil
}

// currentRow fetches the single current-version row matching r's lookup
// attributes, projected over lookup+type1+type2 attributes.
func (c *classifier) currentRow(ctx context.Context, r store.Row) (store.Row, bool, error) {
	match := store.All(append(keyFilters(r, c.lookupAtts), store.Eq(c.currentCol, true))...)
	cols := append(append(append([]string{}, c.lookupAtts...), c.type1Atts...), c.type2Atts...)
	_, rows, err := c.table.Query(ctx, match, cols)
	if err != nil {
		return nil, false, NewStorageError("fetch current row", err)
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	if len(rows) > 1 {
		return nil, false, NewInvariantViolation("single-current-per-key", "more than one current row matched the same natural key")
	}
	return rows[0], true, nil
}

// keyFilters builds one Eq filter per lookup attribute.
func keyFilters(r store.Row, lookupAtts []string) []store.Filter {
	out := make([]store.Filter, len(lookupAtts))
	for i, a := range lookupAtts {
		out[i] = store.Eq(a, r[a])
	}
	return out
}

// attrsDiffer reports whether any attribute in atts differs between cur and
// incoming, comparing raw (pre-canonical) values.
func attrsDiffer(cur, incoming store.Row, atts []string) bool {
	for _, a := range atts {
		if !store.Equal(cur[a], incoming[a]) {
			return true
		}
	}
	return false
}
