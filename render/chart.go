package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/seisgo/curvelet/coeff"
)

// EnergyChart writes an HTML bar chart of per-wedge energy to w, one series
// per scale. Scales with fewer wedges leave the trailing bars empty.
func EnergyChart(s coeff.Struct, w io.Writer) error {
	maxWedges := 0
	for _, wedges := range s {
		maxWedges = max(maxWedges, len(wedges))
	}
	labels := make([]string, maxWedges)
	for i := range labels {
		labels[i] = fmt.Sprintf("w%d", i)
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "curvelet energy",
			Subtitle: "root mean square magnitude per wedge",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels)
	for i, wedges := range s {
		data := make([]opts.BarData, len(wedges))
		for j := range wedges {
			data[j] = opts.BarData{Value: coeff.Energy(wedges[j])}
		}
		bar.AddSeries(fmt.Sprintf("scale %d", i), data)
	}
	return bar.Render(w)
}
