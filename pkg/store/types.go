// Package store defines the abstract tabular-store contract the SCD engine
// is built against. The engine never touches a concrete database; it only
// calls Table. Concrete adapters live in the store/memory, store/badger, and
// store/sql subpackages.
package store

import "context"

// Row is a single dimension row, keyed by column name. The engine treats it
// as schema-less: which keys matter is determined entirely by the caller's
// lookup/type1/type2 attribute lists.
type Row map[string]any

// Filter is a query predicate over column values. It is restricted to the
// shapes the engine actually issues: equality conjunctions (the
// match-all-versions-of-key and match-current-version-of-key predicates from
// the engine's design), expressed as either a single field/value comparison
// or an AND of sub-filters.
type Filter struct {
	Field string
	Value any
	And   []Filter
}

// Eq builds a single-field equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// All builds the conjunction of the given filters. A nil/empty input matches
// every row.
func All(filters ...Filter) Filter {
	return Filter{And: filters}
}

// IsConjunction reports whether f is an AND of sub-filters rather than a leaf
// equality comparison.
func (f Filter) IsConjunction() bool {
	return f.And != nil
}

// Coord is an adapter-defined, opaque handle to a storage-addressable row
// position. It is returned by Query and consumed by WriteAt so a caller can
// mutate specific rows in place without a full-table rewrite. Adapters must
// not assume any other adapter's Coord representation; the engine treats it
// as an opaque token it only ever received from the same Table.
type Coord any

// Table is the tabular store the engine is built against: row-coordinate
// access, equality-predicate queries, and append. Out of scope for this
// repository's core per its specification — implementations are external
// collaborators — but three concrete ones ship in store/memory, store/badger,
// and store/sql.
type Table interface {
	// Columns returns the persisted column names, in storage order.
	Columns(ctx context.Context) ([]string, error)

	// Append writes new rows to the table in a single bulk operation.
	Append(ctx context.Context, rows []Row) error

	// Query returns the coordinates and values of every row matching match,
	// projected onto cols (nil/empty means all columns).
	Query(ctx context.Context, match Filter, cols []string) ([]Coord, []Row, error)

	// WriteAt overwrites the given columns of patch on each of the given
	// coordinates, in a single bulk operation.
	WriteAt(ctx context.Context, coords []Coord, patch Row) error

	// MaxInt64 returns the maximum value currently stored in column across
	// every row, and false if the table has no rows.
	MaxInt64(ctx context.Context, column string) (int64, bool, error)
}
