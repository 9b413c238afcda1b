package chart

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/ledgerlens/ledgerlens/internal/query"
)

const (
	width  = 960
	height = 540

	maxTickLabels = 24
)

var ErrNothingToRender = errors.New("nothing to render")

// Render draws spec over table as PNG. X and Y are the first two columns of
// table; a non-numeric Y value is an error.
func Render(spec Spec, table query.Result) ([]byte, error) {
	if spec.Kind == KindNone || spec.Kind == "" {
		return nil, ErrNothingToRender
	}
	if len(table.Columns) < 2 {
		return nil, fmt.Errorf("chart needs two columns, got %d", len(table.Columns))
	}
	if len(table.Rows) == 0 {
		return nil, fmt.Errorf("%w: result has no rows", ErrNothingToRender)
	}

	ys := make([]float64, len(table.Rows))
	for i, row := range table.Rows {
		y, err := toFloat(row[1])
		if err != nil {
			return nil, fmt.Errorf("row %d column %q: %w", i+1, spec.Y, err)
		}
		ys[i] = y
	}

	var buf bytes.Buffer
	var err error
	switch spec.Kind {
	case KindLine:
		err = renderLine(&buf, spec, table, ys)
	case KindBar:
		err = renderBar(&buf, spec, table, ys)
	default:
		return nil, fmt.Errorf("unknown chart kind %q", spec.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s chart: %w", spec.Kind, err)
	}
	return buf.Bytes(), nil
}

func renderLine(buf *bytes.Buffer, spec Spec, table query.Result, ys []float64) error {
	xs, numeric := numericXs(table.Rows)
	xAxis := gochart.XAxis{Name: spec.X}
	if !numeric {
		xs = make([]float64, len(table.Rows))
		for i := range xs {
			xs[i] = float64(i)
		}
		xAxis.Ticks = labelTicks(table.Rows, xs)
	} else {
		xAxis.ValueFormatter = func(v interface{}) string {
			if f, ok := v.(float64); ok && f == math.Trunc(f) {
				return strconv.FormatFloat(f, 'f', 0, 64)
			}
			return fmt.Sprint(v)
		}
	}
	xAxis.Range = paddedRange(xs, false)

	graph := gochart.Chart{
		Width:  width,
		Height: height,
		XAxis:  xAxis,
		YAxis: gochart.YAxis{
			Name:  spec.Y,
			Range: paddedRange(ys, false),
		},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name:    spec.Y,
				XValues: xs,
				YValues: ys,
			},
		},
	}
	return graph.Render(gochart.PNG, buf)
}

func renderBar(buf *bytes.Buffer, spec Spec, table query.Result, ys []float64) error {
	bars := make([]gochart.Value, len(table.Rows))
	for i, row := range table.Rows {
		bars[i] = gochart.Value{Label: label(row[0]), Value: ys[i]}
	}

	graph := gochart.BarChart{
		Title:    spec.Y + " by " + spec.X,
		Width:    width,
		Height:   height,
		BarWidth: barWidth(len(bars)),
		YAxis: gochart.YAxis{
			Name:  spec.Y,
			Range: paddedRange(ys, true),
		},
		Bars: bars,
	}
	return graph.Render(gochart.PNG, buf)
}

// paddedRange widens degenerate ranges so single points and flat series render.
func paddedRange(values []float64, includeZero bool) *gochart.ContinuousRange {
	lo, hi := math.MaxFloat64, -math.MaxFloat64
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if includeZero {
		lo = math.Min(lo, 0)
		hi = math.Max(hi, 0)
	}
	if lo == hi {
		pad := math.Max(math.Abs(lo)*0.1, 1)
		lo, hi = lo-pad, hi+pad
	}
	return &gochart.ContinuousRange{Min: lo, Max: hi}
}

func barWidth(n int) int {
	if n <= 0 {
		return 40
	}
	w := (width - 100) / (n * 2)
	switch {
	case w > 60:
		return 60
	case w < 4:
		return 4
	}
	return w
}

func labelTicks(rows [][]any, xs []float64) []gochart.Tick {
	step := 1
	if len(rows) > maxTickLabels {
		step = (len(rows) + maxTickLabels - 1) / maxTickLabels
	}
	ticks := make([]gochart.Tick, 0, len(rows)/step+1)
	for i := 0; i < len(rows); i += step {
		ticks = append(ticks, gochart.Tick{Value: xs[i], Label: label(rows[i][0])})
	}
	return ticks
}

func numericXs(rows [][]any) ([]float64, bool) {
	xs := make([]float64, len(rows))
	for i, row := range rows {
		x, err := toFloat(row[0])
		if err != nil {
			return nil, false
		}
		xs[i] = x
	}
	return xs, true
}

func label(value any) string {
	switch typed := value.(type) {
	case nil:
		return "NULL"
	case time.Time:
		return typed.Format("2006-01-02")
	default:
		return fmt.Sprint(typed)
	}
}

type float64er interface {
	Float64() float64
}

func toFloat(value any) (float64, error) {
	switch typed := value.(type) {
	case float64:
		return typed, nil
	case float32:
		return float64(typed), nil
	case int:
		return float64(typed), nil
	case int8:
		return float64(typed), nil
	case int16:
		return float64(typed), nil
	case int32:
		return float64(typed), nil
	case int64:
		return float64(typed), nil
	case uint8:
		return float64(typed), nil
	case uint16:
		return float64(typed), nil
	case uint32:
		return float64(typed), nil
	case uint64:
		return float64(typed), nil
	case *big.Int:
		if typed == nil {
			return 0, fmt.Errorf("value is NULL")
		}
		f, _ := new(big.Float).SetInt(typed).Float64()
		return f, nil
	case float64er:
		return typed.Float64(), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not numeric", typed)
		}
		return f, nil
	case nil:
		return 0, fmt.Errorf("value is NULL")
	default:
		// decimal types with a pointer-receiver Float64
		ptr := reflect.New(reflect.TypeOf(value))
		ptr.Elem().Set(reflect.ValueOf(value))
		if f, ok := ptr.Interface().(float64er); ok {
			return f.Float64(), nil
		}
		return 0, fmt.Errorf("value of type %T is not numeric", value)
	}
}
