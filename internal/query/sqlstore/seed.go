package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
)

// TableColumns lists the columns of table in ordinal order. An empty result
// means the table does not exist.
func TableColumns(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT column_name FROM information_schema.columns WHERE table_name = `+quoteString(table)+` ORDER BY ordinal_position`)
	if err != nil {
		return nil, fmt.Errorf("list columns of %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	columns := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column name: %w", err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	return columns, nil
}

// SeedFromCSV creates table from csvPath with DuckDB's CSV sniffer when the
// table is missing. It reports whether the table was created.
func SeedFromCSV(ctx context.Context, db *sql.DB, driver, table, csvPath string) (bool, error) {
	if csvPath == "" {
		return false, nil
	}
	columns, err := TableColumns(ctx, db, table)
	if err != nil {
		return false, err
	}
	if len(columns) > 0 {
		return false, nil
	}
	if driver != "" && driver != "duckdb" {
		return false, fmt.Errorf("seeding from csv requires the duckdb driver, got %q", driver)
	}
	if _, err := os.Stat(csvPath); err != nil {
		return false, fmt.Errorf("seed csv: %w", err)
	}

	stmt := fmt.Sprintf(`CREATE TABLE %s AS SELECT * FROM read_csv_auto(%s, header = true)`, quoteIdent(table), quoteString(csvPath))
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return false, fmt.Errorf("create table %q from csv: %w", table, err)
	}
	return true, nil
}
