package sql

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/scdkit/scd/pkg/store"
)

func openTest(t *testing.T) *Table {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(`CREATE TABLE orders (
		scd_id INTEGER,
		"order" TEXT,
		status TEXT
	)`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	return Open(db, "orders", "scd_id", []string{"scd_id", "order", "status"}, QuestionMark)
}

func TestSQLAppendQueryWriteAt(t *testing.T) {
	ctx := context.Background()
	tbl := openTest(t)

	if err := tbl.Append(ctx, []store.Row{
		{"scd_id": int64(1), "order": "1", "status": "Not Delivered"},
		{"scd_id": int64(2), "order": "2", "status": "Completed"},
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
		t.Fatalf("WriteAt did not persist: %+v", rows[0])
	}

	max, ok, err := tbl.MaxInt64(ctx, "scd_id")
	if err != nil || !ok || max != 2 {
		t.Fatalf("MaxInt64 = %d, %v, %v", max, ok, err)
	}
}
