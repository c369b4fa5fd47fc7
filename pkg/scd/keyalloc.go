package scd

import (
	"context"

	"github.com/scdkit/scd/pkg/store"
)

// keyAllocator is the C2 component: a monotonic surrogate-key generator
// seeded once, at engine construction, from the persisted maximum of the
// key column. After that single I/O round trip, allocation is a pure
// in-memory pre-increment — the engine is explicitly single-writer, so no
// further synchronization with the table is needed or attempted.
type keyAllocator struct {
	next int64
}

// newKeyAllocator seeds the allocator from table's persisted maximum of
// column. An empty table seeds at 0, so the first allocated key is 1.
func newKeyAllocator(ctx context.Context, table store.Table, column string) (*keyAllocator, error) {
	max, ok, err := table.MaxInt64(ctx, column)
	if err != nil {
		return nil, NewStorageError("seed key allocator", err)
	}
	if !ok {
		return &keyAllocator{next: 0}, nil
	}
	return &keyAllocator{next: max}, nil
}

// NextID pre-increments and returns the next surrogate key.
func (a *keyAllocator) NextID() int64 {
	a.next++
	return a.next
}
