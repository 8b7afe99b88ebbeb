// Package plot renders simulation tables as PNG line charts.
package plot

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/njchilds90/apoptosim/table"
)

// ErrEmpty indicates a table without rows or a plot without columns.
var ErrEmpty = errors.New("plot: nothing to draw")

var palette = []drawing.Color{
	chart.ColorRed,
	chart.ColorGreen,
	{R: 255, G: 165, B: 0, A: 255},
	chart.ColorBlue,
	{R: 128, G: 0, B: 128, A: 255},
	chart.ColorBlack,
}

// Options configures a chart.
type Options struct {
	Title  string
	Width  int
	Height int
	// LogY plots log10(1 + y) so that zero amounts remain drawable.
	LogY bool
}

// Render writes a PNG line chart of the named columns against the index.
// All columns are drawn when names is empty.
func Render(w io.Writer, tb *table.Table, names []string, opts Options) error {
	if tb.Len() == 0 {
		return ErrEmpty
	}
	if len(names) == 0 {
		names = tb.Columns
	}
	if len(names) == 0 {
		return ErrEmpty
	}
	if opts.Width <= 0 {
		opts.Width = 1024
	}
	if opts.Height <= 0 {
		opts.Height = 512
	}

	series := make([]chart.Series, 0, len(names))
	for i, name := range names {
		ys, ok := tb.Column(name)
		if !ok {
			return fmt.Errorf("plot: unknown column %q", name)
		}
		if opts.LogY {
			for j, y := range ys {
				ys[j] = math.Log10(1 + math.Max(y, 0))
			}
		}
		series = append(series, chart.ContinuousSeries{
			Name:    name,
			XValues: append([]float64(nil), tb.Index...),
			YValues: ys,
			Style: chart.Style{
				StrokeColor: palette[i%len(palette)],
				StrokeWidth: 2.0,
			},
		})
	}

	yName := "amount"
	if opts.LogY {
		yName = "log10(1 + amount)"
	}
	graph := chart.Chart{
		Title:  opts.Title,
		Width:  opts.Width,
		Height: opts.Height,
		XAxis: chart.XAxis{
			Name:  tb.IndexName,
			Style: chart.Style{FontSize: 10.0},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%g", v.(float64))
			},
		},
		YAxis: chart.YAxis{
			Name:  yName,
			Style: chart.Style{FontSize: 10.0},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("plot: render: %w", err)
	}
	return nil
}
