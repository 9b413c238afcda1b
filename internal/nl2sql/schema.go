package nl2sql

import (
	"fmt"
	"strings"
)

type Column struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// Schema describes the single table questions are answered against.
type Schema struct {
	Table   string   `json:"table"`
	Columns []Column `json:"columns"`
}

// SalesSchema is the fixed sample sales table.
var SalesSchema = Schema{
	Table: "sales_data",
	Columns: []Column{
		{Name: "ORDERNUMBER", Type: "INTEGER"},
		{Name: "QUANTITYORDERED", Type: "INTEGER"},
		{Name: "PRICEEACH", Type: "DOUBLE"},
		{Name: "ORDERLINENUMBER", Type: "INTEGER"},
		{Name: "SALES", Type: "DOUBLE", Description: "line revenue"},
		{Name: "ORDERDATE", Type: "TIMESTAMP"},
		{Name: "STATUS", Type: "VARCHAR", Description: "Shipped, Cancelled, On Hold, Disputed, In Process, Resolved"},
		{Name: "QTR_ID", Type: "INTEGER"},
		{Name: "MONTH_ID", Type: "INTEGER"},
		{Name: "YEAR_ID", Type: "INTEGER"},
		{Name: "PRODUCTLINE", Type: "VARCHAR"},
		{Name: "MSRP", Type: "INTEGER"},
		{Name: "PRODUCTCODE", Type: "VARCHAR"},
		{Name: "CUSTOMERNAME", Type: "VARCHAR"},
		{Name: "PHONE", Type: "VARCHAR"},
		{Name: "ADDRESSLINE1", Type: "VARCHAR"},
		{Name: "ADDRESSLINE2", Type: "VARCHAR"},
		{Name: "CITY", Type: "VARCHAR"},
		{Name: "STATE", Type: "VARCHAR"},
		{Name: "POSTALCODE", Type: "VARCHAR"},
		{Name: "COUNTRY", Type: "VARCHAR"},
		{Name: "TERRITORY", Type: "VARCHAR"},
		{Name: "CONTACTLASTNAME", Type: "VARCHAR"},
		{Name: "CONTACTFIRSTNAME", Type: "VARCHAR"},
		{Name: "DEALSIZE", Type: "VARCHAR", Description: "Small, Medium, Large"},
	},
}

// WithTable returns a copy of s bound to another table name.
func (s Schema) WithTable(table string) Schema {
	table = strings.TrimSpace(table)
	if table == "" {
		return s
	}
	out := Schema{Table: table, Columns: make([]Column, len(s.Columns))}
	copy(out.Columns, s.Columns)
	return out
}

func (s Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, column := range s.Columns {
		names[i] = column.Name
	}
	return names
}

// Text renders the description embedded in prompts.
func (s Schema) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Table: %s\nColumns:\n", s.Table)
	for _, column := range s.Columns {
		fmt.Fprintf(&b, "- %s (%s)", column.Name, column.Type)
		if column.Description != "" {
			fmt.Fprintf(&b, ": %s", column.Description)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
