package salesdata

import (
	"reflect"
	"strconv"
	"testing"

	"github.com/ledgerlens/ledgerlens/internal/nl2sql"
)

func TestGeneratorDeterministicForSeed(t *testing.T) {
	g1 := NewGenerator(42, 2003, 3, 10)
	g2 := NewGenerator(42, 2003, 3, 10)

	for i := 0; i < 50; i++ {
		r1 := g1.NextRow()
		r2 := g2.NextRow()
		if !reflect.DeepEqual(r1, r2) {
			t.Fatalf("row %d differs: %#v vs %#v", i, r1, r2)
		}
	}
}

func TestGeneratorRowsMatchSchema(t *testing.T) {
	g := NewGenerator(7, 2003, 3, 20)
	width := len(nl2sql.SalesSchema.Columns)
	lastOrder := 0
	lastLine := 0

	for i := 0; i < 500; i++ {
		row := g.NextRow()
		if len(row) != width {
			t.Fatalf("row width = %d, want %d", len(row), width)
		}

		order, err := strconv.Atoi(row[0])
		if err != nil {
			t.Fatalf("ORDERNUMBER = %q", row[0])
		}
		line, _ := strconv.Atoi(row[3])
		switch {
		case order == lastOrder && line != lastLine+1:
			t.Fatalf("ORDERLINENUMBER = %d after %d in order %d", line, lastLine, order)
		case order != lastOrder && (order != lastOrder+1 && lastOrder != 0 || line != 1):
			t.Fatalf("order %d line %d after order %d", order, line, lastOrder)
		}
		lastOrder, lastLine = order, line

		quantity, _ := strconv.Atoi(row[1])
		price, _ := strconv.ParseFloat(row[2], 64)
		sales, _ := strconv.ParseFloat(row[4], 64)
		if diff := float64(quantity)*price - sales; diff > 0.01 || diff < -0.01 {
			t.Fatalf("SALES = %v, want %d * %v", sales, quantity, price)
		}
		if want := dealSize(sales); row[24] != want {
			t.Fatalf("DEALSIZE = %q, want %q", row[24], want)
		}

		year, _ := strconv.Atoi(row[9])
		if year < 2003 || year > 2005 {
			t.Fatalf("YEAR_ID = %d", year)
		}
		month, _ := strconv.Atoi(row[8])
		qtr, _ := strconv.Atoi(row[7])
		if qtr != (month-1)/3+1 {
			t.Fatalf("QTR_ID = %d for month %d", qtr, month)
		}
	}
}

func TestDealSize(t *testing.T) {
	tests := map[float64]string{
		482.13:  "Small",
		2999.99: "Small",
		3000:    "Medium",
		6999.99: "Medium",
		7000:    "Large",
	}
	for sales, want := range tests {
		if got := dealSize(sales); got != want {
			t.Fatalf("dealSize(%v) = %q, want %q", sales, got, want)
		}
	}
}
