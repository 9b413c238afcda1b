package nl2sql

import (
	"errors"
	"testing"
)

func TestGuardAcceptsReadOnlyQueries(t *testing.T) {
	guard := Guard{Table: "sales_data"}
	for _, stmt := range []string{
		"SELECT YEAR_ID, SUM(SALES) FROM sales_data GROUP BY YEAR_ID ORDER BY YEAR_ID",
		`select count(*) from "sales_data"`,
		"WITH totals AS (SELECT PRODUCTLINE, SUM(SALES) s FROM sales_data GROUP BY 1) SELECT * FROM totals",
		"SELECT EXTRACT(YEAR FROM ORDERDATE) y, COUNT(*) FROM sales_data GROUP BY 1",
		"SELECT * FROM (SELECT CITY FROM sales_data) sub",
		"SELECT 'drop table x' AS note FROM sales_data",
		"SELECT a.CITY FROM sales_data a JOIN main.sales_data b ON a.ORDERNUMBER = b.ORDERNUMBER",
		"SELECT EXTRACT(YEAR FROM CAST(ORDERDATE AS DATE)) AS y, SUM(SALES) FROM sales_data GROUP BY 1",
		"SELECT SUBSTRING(TRIM(BOTH ' ' FROM CUSTOMERNAME) FROM 1 FOR 3) FROM sales_data",
		"SELECT CITY FROM sales_data WHERE STATUS IS DISTINCT FROM 'Shipped'",
		"SELECT CITY FROM sales_data WHERE SALES > (SELECT AVG(SALES) FROM sales_data)",
		"WITH t AS (SELECT 1 AS a) SELECT * FROM sales_data, t",
		"SELECT COUNT(*) FROM sales_data -- FROM users, read_csv('x')",
	} {
		if err := guard.Check(stmt); err != nil {
			t.Fatalf("Check(%q) error = %v", stmt, err)
		}
	}
}

func TestGuardRejectsWritesAndForeignTables(t *testing.T) {
	guard := Guard{Table: "sales_data"}
	for _, stmt := range []string{
		"DELETE FROM sales_data",
		"DROP TABLE sales_data",
		"SELECT * FROM information_schema.tables",
		"SELECT * FROM sales_data JOIN users ON true",
		"WITH x AS (SELECT 1) INSERT INTO sales_data SELECT * FROM x",
		"ATTACH 'other.db'",
		"",
		"SELECT * FROM sales_data, read_csv_auto('/etc/passwd')",
		"SELECT * FROM sales_data, other_table",
		"SELECT * FROM sales_data s, LATERAL (SELECT 1) x",
		"SELECT * FROM sales_data CROSS JOIN generate_series(1, 3)",
		"SELECT * FROM '/etc/passwd.csv'",
		"SELECT * FROM (SELECT * FROM secrets) s",
		"SELECT * FROM other_db.sales_data",
		"SELECT getenv('HOME') FROM sales_data",
		"SELECT EXTRACT(YEAR FROM ORDERDATE) FROM sales_data, users",
		"SELECT * FROM sales_data /* unterminated",
	} {
		err := guard.Check(stmt)
		if !errors.Is(err, ErrStatementRejected) {
			t.Fatalf("Check(%q) error = %v, want ErrStatementRejected", stmt, err)
		}
	}
}

func TestSalesSchemaWithTable(t *testing.T) {
	schema := SalesSchema.WithTable("orders")
	if schema.Table != "orders" || SalesSchema.Table != "sales_data" {
		t.Fatalf("tables = %q/%q", schema.Table, SalesSchema.Table)
	}
	if len(schema.ColumnNames()) != 25 {
		t.Fatalf("columns = %d", len(schema.ColumnNames()))
	}
	if SalesSchema.WithTable("  ").Table != "sales_data" {
		t.Fatal("blank table should keep schema table")
	}
}
