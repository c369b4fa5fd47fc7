package ingest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRowsCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.csv")
	content := "order,status,price\n1,Not Delivered,100\n2,Completed,50\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	rows, err := LoadRows(path, "")
	if err != nil {
		t.Fatalf("LoadRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["order"] != "1" || rows[0]["status"] != "Not Delivered" {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if rows[1]["price"] != "50" {
		t.Fatalf("unexpected second row: %+v", rows[1])
	}
}

func TestLoadRowsUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := LoadRows(path, ""); err == nil {
		t.Fatal("expected an error for an unsupported extension")
	}
}

func TestLoadRowsEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.csv")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	rows, err := LoadRows(path, "")
	if err != nil {
		t.Fatalf("LoadRows: %v", err)
	}
	if rows != nil {
		t.Fatalf("expected nil rows for an empty file, got %+v", rows)
	}
}
