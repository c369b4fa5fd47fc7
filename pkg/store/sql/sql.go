// Package sql provides a store.Table backed by a real relational database
// through database/sql. The dimension table's schema is created and owned by
// the caller (per the engine's specification, schema definition is always an
// external concern); this adapter only ever issues SELECT/INSERT/UPDATE
// against an existing table.
//
// Supported drivers are whichever database/sql driver the caller registers —
// this repository exercises github.com/go-sql-driver/mysql,
// github.com/lib/pq, and modernc.org/sqlite.
package sql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/scdkit/scd/pkg/store"
)

// Placeholder renders the Nth (1-based) bind parameter for a driver's SQL
// dialect. MySQL and SQLite use positional "?"; PostgreSQL uses "$N".
type Placeholder func(n int) string

// QuestionMark is the Placeholder for MySQL and SQLite.
func QuestionMark(n int) string { return "?" }

// Dollar is the Placeholder for PostgreSQL.
func Dollar(n int) string { return fmt.Sprintf("$%d", n) }

// Table is a database/sql-backed store.Table.
type Table struct {
	db          *sql.DB
	table       string
	idColumn    string
	columns     []string
	placeholder Placeholder
}

// Open wraps an already-opened *sql.DB. idColumn must name a column whose
// value uniquely identifies a row (boot.OpenEngine passes the engine's
// configured surrogate-key column, scd_id by default, unless the store config
// names one) — WriteAt coordinates are values of this column.
func Open(db *sql.DB, table, idColumn string, columns []string, ph Placeholder) *Table {
	return &Table{db: db, table: table, idColumn: idColumn, columns: append([]string(nil), columns...), placeholder: ph}
}

func (t *Table) Columns(ctx context.Context) ([]string, error) {
	return append([]string(nil), t.columns...), nil
}

func (t *Table) Append(ctx context.Context, rows []store.Row) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sql: begin: %w", err)
	}
	defer tx.Rollback()

	for _, r := range rows {
		cols := make([]string, 0, len(r))
		vals := make([]any, 0, len(r))
		for _, c := range t.columns {
			v, ok := r[c]
			if !ok {
				continue
			}
			cols = append(cols, c)
			vals = append(vals, v)
		}
		placeholders := make([]string, len(cols))
		for i := range cols {
			placeholders[i] = t.placeholder(i + 1)
		}
		stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			t.table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
		if _, err := tx.ExecContext(ctx, stmt, vals...); err != nil {
			return fmt.Errorf("sql: insert: %w", err)
		}
	}
	return tx.Commit()
}

type coord struct{ id any }

func (t *Table) Query(ctx context.Context, match store.Filter, cols []string) ([]store.Coord, []store.Row, error) {
	if len(cols) == 0 {
		cols = t.columns
	}
	selectCols := append([]string{t.idColumn}, cols...)

	where, args := whereClause(match, t.placeholder, 1)
	stmt := fmt.Sprintf("SELECT %s FROM %s", strings.Join(selectCols, ", "), t.table)
	if where != "" {
		stmt += " WHERE " + where
	}

	rows, err := t.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("sql: query: %w", err)
	}
	defer rows.Close()

	var coords []store.Coord
	var out []store.Row
	for rows.Next() {
		scan := make([]any, len(selectCols))
		ptrs := make([]any, len(selectCols))
		for i := range scan {
			ptrs[i] = &scan[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("sql: scan: %w", err)
		}
		row := make(store.Row, len(cols))
		for i, c := range cols {
			row[c] = scan[i+1]
		}
		coords = append(coords, coord{id: scan[0]})
		out = append(out, row)
	}
	return coords, out, rows.Err()
}

func (t *Table) WriteAt(ctx context.Context, coords []store.Coord, patch store.Row) error {
	if len(coords) == 0 || len(patch) == 0 {
		return nil
	}
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sql: begin: %w", err)
	}
	defer tx.Rollback()

	setCols := make([]string, 0, len(patch))
	setVals := make([]any, 0, len(patch))
	for _, c := range t.columns {
		v, ok := patch[c]
		if !ok {
			continue
		}
		setCols = append(setCols, c)
		setVals = append(setVals, v)
	}

	for _, c := range coords {
		id, ok := c.(coord)
		if !ok {
			return fmt.Errorf("sql: foreign coordinate %v", c)
		}
		assigns := make([]string, len(setCols))
		n := 1
		for i, col := range setCols {
			assigns[i] = fmt.Sprintf("%s = %s", col, t.placeholder(n))
			n++
		}
		args := append(append([]any(nil), setVals...), id.id)
		stmt := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
			t.table, strings.Join(assigns, ", "), t.idColumn, t.placeholder(n))
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("sql: update: %w", err)
		}
	}
	return tx.Commit()
}

func (t *Table) MaxInt64(ctx context.Context, column string) (int64, bool, error) {
	stmt := fmt.Sprintf("SELECT MAX(%s) FROM %s", column, t.table)
	var max sql.NullInt64
	if err := t.db.QueryRowContext(ctx, stmt).Scan(&max); err != nil {
		return 0, false, fmt.Errorf("sql: max: %w", err)
	}
	return max.Int64, max.Valid, nil
}

// whereClause renders a store.Filter as a SQL WHERE fragment (without the
// "WHERE" keyword) and its positional arguments, numbering placeholders
// starting at argStart.
func whereClause(f store.Filter, ph Placeholder, argStart int) (string, []any) {
	if f.IsConjunction() {
		if len(f.And) == 0 {
			return "", nil
		}
		parts := make([]string, 0, len(f.And))
		var args []any
		n := argStart
		for _, sub := range f.And {
			clause, subArgs := whereClause(sub, ph, n)
			if clause == "" {
				continue
			}
			parts = append(parts, clause)
			args = append(args, subArgs...)
			n += len(subArgs)
		}
		return strings.Join(parts, " AND "), args
	}
	return fmt.Sprintf("%s = %s", f.Field, ph(argStart)), []any{f.Value}
}
