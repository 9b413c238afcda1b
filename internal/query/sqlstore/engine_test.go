package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/ledgerlens/ledgerlens/internal/query"
)

func TestExecuteScansRowsAndNormalizesBytes(t *testing.T) {
	db, mock := newSQLMock(t)
	engine := NewEngine(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT PRODUCTLINE, SUM(SALES) FROM sales_data GROUP BY 1`)).
		WillReturnRows(sqlmock.NewRows([]string{"PRODUCTLINE", "total"}).
			AddRow([]byte("Classic Cars"), 3919615.66).
			AddRow("Motorcycles", nil))

	result, err := engine.Execute(context.Background(), query.Request{SQL: "SELECT PRODUCTLINE, SUM(SALES) FROM sales_data GROUP BY 1;"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(result.Columns) != 2 || result.Columns[1] != "total" {
		t.Fatalf("Columns = %#v", result.Columns)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("rows = %d", len(result.Rows))
	}
	if result.Rows[0][0] != "Classic Cars" {
		t.Fatalf("row[0][0] = %#v", result.Rows[0][0])
	}
	if result.Rows[1][1] != nil {
		t.Fatalf("row[1][1] = %#v", result.Rows[1][1])
	}
	assertSQLMock(t, mock)
}

func TestExecuteWrapsRowLimit(t *testing.T) {
	db, mock := newSQLMock(t)
	engine := NewEngine(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM (SELECT CITY FROM sales_data) AS q LIMIT 5`)).
		WillReturnRows(sqlmock.NewRows([]string{"CITY"}).AddRow("NYC"))

	if _, err := engine.Execute(context.Background(), query.Request{SQL: "SELECT CITY FROM sales_data ;; ", RowLimit: 5}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	assertSQLMock(t, mock)
}

func TestExecuteReturnsQueryError(t *testing.T) {
	db, mock := newSQLMock(t)
	engine := NewEngine(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT nope FROM sales_data`)).
		WillReturnError(errors.New(`Binder Error: Referenced column "nope" not found`))

	_, err := engine.Execute(context.Background(), query.Request{SQL: "SELECT nope FROM sales_data"})
	if err == nil {
		t.Fatal("Execute() expected error")
	}
	assertSQLMock(t, mock)
}

func TestExecuteRejectsEmptySQL(t *testing.T) {
	db, _ := newSQLMock(t)
	if _, err := NewEngine(db).Execute(context.Background(), query.Request{SQL: " ; "}); err == nil {
		t.Fatal("Execute() expected error")
	}
	if _, err := NewEngine(nil).Execute(context.Background(), query.Request{SQL: "SELECT 1"}); err == nil {
		t.Fatal("Execute() expected error without db")
	}
}

func TestSeedFromCSVSkipsExistingTable(t *testing.T) {
	db, mock := newSQLMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT column_name FROM information_schema.columns WHERE table_name = 'sales_data'`)).
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("ORDERNUMBER"))

	created, err := SeedFromCSV(context.Background(), db, "duckdb", "sales_data", "sales.csv")
	if err != nil {
		t.Fatalf("SeedFromCSV() error = %v", err)
	}
	if created {
		t.Fatal("created = true, want false")
	}
	assertSQLMock(t, mock)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), DBConfig{Driver: "sqlite"}); err == nil {
		t.Fatal("Open() expected error")
	}
	if _, err := Open(context.Background(), DBConfig{Driver: "pgx"}); err == nil {
		t.Fatal("Open() expected error for missing pgx dsn")
	}
}

func TestDuckDBSeedAndExecute(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "sales.csv")
	csvData := "ORDERNUMBER,SALES,YEAR_ID,PRODUCTLINE\n10100,100.5,2003,Classic Cars\n10101,200.25,2004,Motorcycles\n10102,50,2004,Classic Cars\n"
	if err := os.WriteFile(csvPath, []byte(csvData), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	db, err := Open(context.Background(), DBConfig{Driver: "duckdb", DSN: filepath.Join(dir, "sales.duckdb"), MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	created, err := SeedFromCSV(context.Background(), db, "duckdb", "sales_data", csvPath)
	if err != nil {
		t.Fatalf("SeedFromCSV() error = %v", err)
	}
	if !created {
		t.Fatal("created = false, want true")
	}
	columns, err := TableColumns(context.Background(), db, "sales_data")
	if err != nil {
		t.Fatalf("TableColumns() error = %v", err)
	}
	if len(columns) != 4 || columns[3] != "PRODUCTLINE" {
		t.Fatalf("columns = %#v", columns)
	}

	result, err := NewEngine(db).Execute(context.Background(), query.Request{
		SQL: "SELECT COUNT(*) AS c FROM sales_data WHERE YEAR_ID = 2004;",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(result.Rows) != 1 || result.Rows[0][0] != int64(2) {
		t.Fatalf("rows = %#v", result.Rows)
	}

	if err := HealthCheck(db)(context.Background()); err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}
}

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}
