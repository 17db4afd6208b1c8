package report

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// EnergyChart writes the traces as an interactive HTML line chart to path.
func EnergyChart(path, title string, traces ...*Trace) error {
	if len(traces) == 0 {
		return fmt.Errorf("energy chart: no traces")
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1000px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: "energy per iteration"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "iteration", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "energy", NameLocation: "middle", NameGap: 50}),
	)

	var longest int
	series := make([][]opts.LineData, len(traces))
	for i, t := range traces {
		values, err := t.Values()
		if err != nil {
			return fmt.Errorf("energy chart %s: %w", t.Label, err)
		}
		data := make([]opts.LineData, len(values))
		for k, e := range values {
			data[k] = opts.LineData{Value: e}
		}
		series[i] = data
		longest = max(longest, len(values))
	}

	x := make([]int, longest)
	for k := range x {
		x[k] = k + 1
	}
	line.SetXAxis(x)
	for i, t := range traces {
		line.AddSeries(t.Label, series[i])
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create energy chart: %w", err)
	}
	if err := line.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to render energy chart: %w", err)
	}
	return f.Close()
}
