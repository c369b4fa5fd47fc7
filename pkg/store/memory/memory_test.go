package memory

import (
	"context"
	"testing"

	"github.com/scdkit/scd/pkg/store"
)

func TestAppendQueryWriteAt(t *testing.T) {
	ctx := context.Background()
	tbl := New([]string{"order", "status", "scd_id"})

	if err := tbl.Append(ctx, []store.Row{
		{"order": "1", "status": "Not Delivered", "scd_id": int64(1)},
		{"order": "2", "status": "Completed", "scd_id": int64(2)},
	}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	coords, rows, err := tbl.Query(ctx, store.Eq("order", "1"), nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(rows) != 1 || rows[0]["status"] != "Not Delivered" {
		t.Fatalf("unexpected query result: %+v", rows)
	}

	if err := tbl.WriteAt(ctx, coords, store.Row{"status": "Completed"}); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}

	_, rows, _ = tbl.Query(ctx, store.Eq("order", "1"), nil)
	if rows[0]["status"] != "Completed" {
		t.Fatalf("WriteAt did not take effect: %+v", rows)
	}

	max, ok, err := tbl.MaxInt64(ctx, "scd_id")
	if err != nil || !ok || max != 2 {
		t.Fatalf("MaxInt64 = %d, %v, %v", max, ok, err)
	}
}

func TestQueryProjection(t *testing.T) {
	ctx := context.Background()
	tbl := New([]string{"order", "status"})
	_ = tbl.Append(ctx, []store.Row{{"order": "1", "status": "x", "extra": "y"}})

	_, rows, _ := tbl.Query(ctx, store.Eq("order", "1"), []string{"order"})
	if _, ok := rows[0]["status"]; ok {
		t.Fatalf("projection leaked unselected column: %+v", rows[0])
	}
	if rows[0]["order"] != "1" {
		t.Fatalf("projection dropped selected column: %+v", rows[0])
	}
}

func TestMaxInt64Empty(t *testing.T) {
	tbl := New([]string{"scd_id"})
	_, ok, err := tbl.MaxInt64(context.Background(), "scd_id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false on empty table")
	}
}
