// Package render turns chart state, project slices and breakdowns into
// go-echarts charts. The site ships their option JSON to the ECharts runtime
// in the browser; the stats command can write them as standalone pages.
package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Frank-Junran-Yang/portfolio/internal/chart"
	"github.com/Frank-Junran-Yang/portfolio/internal/projects"
	"github.com/Frank-Junran-Yang/portfolio/internal/selection"
)

// Colors.
const (
	dotColor      = "steelblue"
	selectedColor = "#ff6b6b"
	pieRadius     = "75%"
)

// tableau10 is the pie palette, assigned by slice index.
var tableau10 = []string{
	"#4e79a7", "#f28e2c", "#e15759", "#76b7b2", "#59a14f",
	"#edc949", "#af7aa1", "#ff9da7", "#9c755f", "#bab0ab",
}

// Chart is the part of a go-echarts chart the adapters need.
type Chart interface {
	Validate()
	JSON() map[string]interface{}
	Render(w io.Writer) error
}

// Options returns the ECharts option object for c.
func Options(c Chart) map[string]interface{} {
	c.Validate()
	return c.JSON()
}

// Page writes c as a standalone HTML page.
func Page(c Chart, w io.Writer) error {
	if err := c.Render(w); err != nil {
		return fmt.Errorf("rendering chart page: %w", err)
	}
	return nil
}

// hourLabel prints y-axis hours as zero-padded "HH:00".
const hourLabel = `function (v) { return String(v).padStart(2, '0') + ':00'; }`

// Scatter draws the visible commits: time on x, hour of day on y, dot area
// by line count. Brushed commits go in a second series.
func Scatter(s *chart.State) *charts.Scatter {
	sc := charts.NewScatter()
	sc.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Commits by time of day",
			Width:     fmt.Sprintf("%.0fpx", s.Area.Width),
			Height:    fmt.Sprintf("%.0fpx", s.Area.Height),
		}),
		charts.WithTitleOpts(opts.Title{Title: "Commits by time of day", Subtitle: s.Selection().Label()}),
		// The grid matches the state's margins so brush pixels map onto the same scales.
		charts.WithGridOpts(opts.Grid{
			Left:   fmt.Sprintf("%.0f", s.Area.Margin.Left),
			Right:  fmt.Sprintf("%.0f", s.Area.Margin.Right),
			Top:    fmt.Sprintf("%.0f", s.Area.Margin.Top),
			Bottom: fmt.Sprintf("%.0f", s.Area.Margin.Bottom),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithXAxisOpts(opts.XAxis{
			Type: "time",
			Min:  s.XScale.Domain[0].UnixMilli(),
			Max:  s.XScale.Domain[1].UnixMilli(),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:      "value",
			Min:       0,
			Max:       24,
			AxisLabel: &opts.AxisLabel{Formatter: opts.FuncOpts(hourLabel)},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true)},
		}),
	)

	var plain, picked []opts.ScatterData
	for _, p := range s.Points() {
		d := opts.ScatterData{
			Name:       p.Commit.ID,
			Value:      []interface{}{p.Commit.Timestamp.UnixMilli(), p.Commit.HourFraction, p.Commit.TotalLines},
			SymbolSize: int(p.R*2 + 0.5),
		}
		if p.Selected {
			picked = append(picked, d)
		} else {
			plain = append(plain, d)
		}
	}

	sc.AddSeries("Commits", plain,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: dotColor, Opacity: opts.Float(0.7)}),
	)
	if s.Brush != nil {
		sc.AddSeries("Selected", picked,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: selectedColor, Opacity: opts.Float(1)}),
		)
	}
	return sc
}

// ProjectPie draws projects per year. The selected year is highlighted.
func ProjectPie(slices []projects.Slice, selected string) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Projects by year"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)

	data := make([]opts.PieData, len(slices))
	for i, sl := range slices {
		color := tableau10[i%len(tableau10)]
		if sl.Label == selected {
			color = selectedColor
		}
		data[i] = opts.PieData{
			Name:      sl.Label,
			Value:     sl.Value,
			ItemStyle: &opts.ItemStyle{Color: color},
		}
	}

	pie.AddSeries("Projects", data).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b} ({c})"}),
			charts.WithPieChartOpts(opts.PieChart{Radius: pieRadius}),
		)
	return pie
}

// BreakdownBar draws lines per type, in breakdown order.
func BreakdownBar(b selection.Breakdown) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Lines by type"}),
		charts.WithTitleOpts(opts.Title{Title: "Lines by type"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)

	names := make([]string, len(b.Entries))
	data := make([]opts.BarData, len(b.Entries))
	for i, e := range b.Entries {
		names[i] = e.Type
		data[i] = opts.BarData{Name: e.Format(), Value: e.Count}
	}

	bar.SetXAxis(names).AddSeries("Lines", data,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: dotColor}),
	)
	return bar
}
