package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/ledgerlens/ledgerlens/internal/chart"
	"github.com/ledgerlens/ledgerlens/internal/query"
	"github.com/ledgerlens/ledgerlens/internal/storage"
)

var (
	ErrNoChart       = errors.New("item has no chart")
	ErrNoTable       = errors.New("item has no result table")
	ErrUnknownFormat = errors.New("unknown export format")
)

// Item is the rendered outcome of one generated statement.
type Item struct {
	Index        int        `json:"index"`
	SQL          string     `json:"sql"`
	Columns      []string   `json:"columns,omitempty"`
	Rows         [][]any    `json:"rows,omitempty"`
	Error        string     `json:"error,omitempty"`
	Chart        chart.Spec `json:"chart"`
	ChartPNG     []byte     `json:"-"`
	ChartError   string     `json:"chart_error,omitempty"`
	Insight      string     `json:"insight,omitempty"`
	InsightError string     `json:"insight_error,omitempty"`
}

func (it Item) OK() bool { return it.Error == "" }

func (it Item) Table() query.Result {
	return query.Result{Columns: it.Columns, Rows: it.Rows}
}

// Formats lists the export formats available for the item.
func (it Item) Formats() []string {
	if !it.OK() {
		return nil
	}
	formats := []string{storage.FormatCSV, storage.FormatParquet}
	if len(it.ChartPNG) > 0 {
		formats = append(formats, storage.FormatPNG)
	}
	return formats
}

func (it Item) Export(format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case storage.FormatCSV:
		return it.CSV()
	case storage.FormatPNG:
		return it.PNG()
	case storage.FormatParquet:
		return it.Parquet()
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// CSV writes a header row and every result row, without an index column.
func (it Item) CSV() ([]byte, error) {
	if !it.OK() {
		return nil, ErrNoTable
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(it.Columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range it.Rows {
		if err := w.Write(query.FormatRow(row)); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func (it Item) PNG() ([]byte, error) {
	if len(it.ChartPNG) == 0 {
		return nil, ErrNoChart
	}
	return it.ChartPNG, nil
}

var nonIdentChars = regexp.MustCompile(`[^A-Za-z0-9_]`)

// Parquet writes every column as an optional string, in result order.
// Column names are sanitized to identifiers and de-duplicated.
func (it Item) Parquet() ([]byte, error) {
	if !it.OK() {
		return nil, ErrNoTable
	}
	names := parquetColumnNames(it.Columns)
	fields := make([]reflect.StructField, len(names))
	for i, name := range names {
		fields[i] = reflect.StructField{
			Name: "F" + strconv.Itoa(i),
			Type: reflect.TypeOf((*string)(nil)),
			Tag:  reflect.StructTag(fmt.Sprintf(`parquet:"%s,optional"`, name)),
		}
	}
	rowType := reflect.StructOf(fields)
	schema := parquet.SchemaOf(reflect.New(rowType).Elem().Interface())

	var buf bytes.Buffer
	writer := parquet.NewWriter(&buf, schema)
	for _, row := range it.Rows {
		value := reflect.New(rowType).Elem()
		for i := range fields {
			if i >= len(row) || row[i] == nil {
				continue
			}
			text := query.FormatValue(row[i])
			value.Field(i).Set(reflect.ValueOf(&text))
		}
		if err := writer.Write(value.Interface()); err != nil {
			return nil, fmt.Errorf("write parquet row: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

func parquetColumnNames(columns []string) []string {
	used := make(map[string]bool, len(columns))
	names := make([]string, len(columns))
	for i, column := range columns {
		base := nonIdentChars.ReplaceAllString(strings.TrimSpace(column), "_")
		if base == "" {
			base = "col"
		}
		name := base
		for n := 2; used[name]; n++ {
			name = base + "_" + strconv.Itoa(n)
		}
		used[name] = true
		names[i] = name
	}
	return names
}

// Turn is one question and everything produced for it.
type Turn struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	CreatedAt time.Time `json:"created_at"`
	Items     []Item    `json:"items"`
}

// ItemAt returns the item with 1-based index n.
func (t Turn) ItemAt(n int) (Item, bool) {
	if n < 1 || n > len(t.Items) {
		return Item{}, false
	}
	return t.Items[n-1], true
}
