// Package chart picks a chart for a result table from its column names and
// renders it to PNG.
package chart

import (
	"strings"
)

type Kind string

const (
	KindNone Kind = "none"
	KindLine Kind = "line"
	KindBar  Kind = "bar"
)

// Spec names the chart type and the columns plotted on each axis.
type Spec struct {
	Kind Kind   `json:"kind"`
	X    string `json:"x,omitempty"`
	Y    string `json:"y,omitempty"`
}

// Select plots the second column against the first. Time-like X columns
// (name containing "year" or "month") get a line chart, everything else bars.
// It looks only at names, never at values.
func Select(columns []string) Spec {
	if len(columns) < 2 {
		return Spec{Kind: KindNone}
	}
	x, y := columns[0], columns[1]
	name := strings.ToLower(x)
	if strings.Contains(name, "year") || strings.Contains(name, "month") {
		return Spec{Kind: KindLine, X: x, Y: y}
	}
	return Spec{Kind: KindBar, X: x, Y: y}
}
