package render

import (
	"bytes"
	"fmt"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/pkg/errors"

	"github.com/spektr-org/eda/engine"
)

// ============================================================================
// ECHARTS BACKEND — Interactive HTML through go-echarts
// ============================================================================
// Every Panel becomes one chart on a components.Page; a grid figure (the pair
// plot) becomes a flex page of small charts in row-major order.
// ============================================================================

// coolwarm end points and midpoint.
var coolwarm = []string{"#3b4cc0", "#dddddd", "#b40426"}

// ECharts draws interactive HTML pages.
type ECharts struct{}

// NewECharts returns the HTML backend.
func NewECharts() *ECharts { return &ECharts{} }

func (e *ECharts) Name() string      { return BackendECharts }
func (e *ECharts) Format() string    { return FormatHTML }
func (e *ECharts) MediaType() string { return "text/html; charset=utf-8" }

// Encode renders the figure as a standalone HTML page.
func (e *ECharts) Encode(fig *engine.Figure) ([]byte, error) {
	if len(fig.Panels) == 0 {
		return nil, errors.New("figure has no panels")
	}

	page := components.NewPage()
	page.SetPageTitle(fig.Title)
	if fig.Rows*fig.Cols > 1 {
		page.SetLayout(components.PageFlexLayout)
	}

	width := px(fig.Width / float64(fig.Cols))
	height := px(fig.Height / float64(fig.Rows))
	for i := range fig.Panels {
		panel := &fig.Panels[i]
		global := []charts.GlobalOpts{
			charts.WithInitializationOpts(opts.Initialization{Width: width, Height: height}),
			charts.WithTitleOpts(opts.Title{Title: panelTitle(fig, panel)}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		}
		if fig.Legend.Show && (fig.Rows*fig.Cols == 1 || panel.Row == 0 && panel.Col == fig.Cols-1) {
			legend := opts.Legend{Show: opts.Bool(true), Top: "bottom"}
			if fig.Legend.Outside {
				legend = opts.Legend{Show: opts.Bool(true), Right: "0", Orient: "vertical", Top: "middle"}
			}
			global = append(global, charts.WithLegendOpts(legend))
		}

		var (
			chart components.Charter
			err   error
		)
		switch panel.Type {
		case engine.PanelScatter:
			chart = htmlScatter(panel, global)
		case engine.PanelDensity:
			chart = htmlDensity(panel, global)
		case engine.PanelHistogram:
			chart = htmlHistogram(panel, global)
		case engine.PanelHeatmap:
			chart, err = htmlHeatmap(panel, global)
		case engine.PanelBox:
			chart = htmlBoxes(panel, global)
		default:
			err = errors.Errorf("unsupported panel type %q", panel.Type)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "panel (%d, %d)", panel.Row, panel.Col)
		}
		page.AddCharts(chart)
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, errors.Wrap(err, "render html")
	}
	return buf.Bytes(), nil
}

func panelTitle(fig *engine.Figure, panel *engine.Panel) string {
	if panel.Title != "" {
		return panel.Title
	}
	if fig.Rows*fig.Cols == 1 {
		return fig.Title
	}
	if panel.Row == panel.Col {
		return panel.XAxis
	}
	return fmt.Sprintf("%s vs %s", panel.YAxis, panel.XAxis)
}

func px(inches float64) string {
	return fmt.Sprintf("%dpx", int(math.Round(inches*96)))
}

func valueAxes(panel *engine.Panel) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithXAxisOpts(opts.XAxis{Name: panel.XAxis, Type: "value", Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: panel.YAxis, Type: "value", Scale: opts.Bool(true)}),
	}
}

func itemColor(s engine.Series) charts.SeriesOpts {
	return charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(s.Color)})
}

func htmlScatter(panel *engine.Panel, global []charts.GlobalOpts) components.Charter {
	c := charts.NewScatter()
	c.SetGlobalOptions(append(global, valueAxes(panel)...)...)
	for _, s := range panel.Series {
		data := make([]opts.ScatterData, len(s.Points))
		for i, p := range s.Points {
			data[i] = opts.ScatterData{Value: []float64{p.X, p.Y}, SymbolSize: 6}
		}
		c.AddSeries(s.Name, data, itemColor(s))
	}
	return c
}

func htmlDensity(panel *engine.Panel, global []charts.GlobalOpts) components.Charter {
	c := charts.NewLine()
	c.SetGlobalOptions(append(global, valueAxes(panel)...)...)
	for _, s := range panel.Series {
		data := make([]opts.LineData, len(s.Points))
		for i, p := range s.Points {
			data[i] = opts.LineData{Value: []float64{p.X, p.Y}}
		}
		so := []charts.SeriesOpts{
			itemColor(s),
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false), Smooth: opts.Bool(true)}),
		}
		if s.Fill {
			so = append(so, charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(float32(s.Alpha))}))
		}
		c.AddSeries(s.Name, data, so...)
	}
	return c
}

func htmlHistogram(panel *engine.Panel, global []charts.GlobalOpts) components.Charter {
	c := charts.NewBar()
	c.SetGlobalOptions(append(global,
		charts.WithXAxisOpts(opts.XAxis{Name: panel.XAxis}),
		charts.WithYAxisOpts(opts.YAxis{Name: panel.YAxis}),
	)...)
	if len(panel.Series) == 0 {
		return c
	}
	bins := panel.Series[0].Bins
	labels := make([]string, len(bins))
	for i, b := range bins {
		labels[i] = fmt.Sprintf("%.2f–%.2f", b.Min, b.Max)
	}
	c.SetXAxis(labels)
	for _, s := range panel.Series {
		data := make([]opts.BarData, len(s.Bins))
		for i, b := range s.Bins {
			data[i] = opts.BarData{Value: b.Count}
		}
		c.AddSeries(s.Name, data, itemColor(s), charts.WithBarChartOpts(opts.BarChart{BarCategoryGap: "0%"}))
	}
	return c
}

func htmlHeatmap(panel *engine.Panel, global []charts.GlobalOpts) (components.Charter, error) {
	m := panel.Matrix
	if m == nil {
		return nil, errors.New("heatmap has no matrix")
	}
	if panel.Colormap != "" && panel.Colormap != "coolwarm" {
		return nil, errors.Errorf("unknown colormap %q", panel.Colormap)
	}

	n := len(m.Columns)
	reversed := make([]string, n)
	for i, c := range m.Columns {
		reversed[n-1-i] = c
	}

	c := charts.NewHeatMap()
	c.SetGlobalOptions(append(global,
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: m.Columns}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: reversed}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        -1,
			Max:        1,
			Right:      "0",
			InRange:    &opts.VisualMapInRange{Color: coolwarm},
		}),
	)...)
	c.SetXAxis(m.Columns)

	data := make([]opts.HeatMapData, 0, n*n)
	for r := 0; r < n; r++ {
		for col := 0; col < n; col++ {
			v := math.Round(m.Values[r][col]*100) / 100
			data = append(data, opts.HeatMapData{Value: [3]interface{}{col, n - 1 - r, v}})
		}
	}
	c.AddSeries("correlation", data, charts.WithLabelOpts(opts.Label{Show: opts.Bool(panel.Annotate)}))
	return c, nil
}

func htmlBoxes(panel *engine.Panel, global []charts.GlobalOpts) components.Charter {
	c := charts.NewBoxPlot()
	c.SetGlobalOptions(append(global,
		charts.WithXAxisOpts(opts.XAxis{Name: panel.XAxis}),
		charts.WithYAxisOpts(opts.YAxis{Name: panel.YAxis, Scale: opts.Bool(true)}),
	)...)
	c.SetXAxis(panel.Categories)

	boxes := make([]opts.BoxPlotData, len(panel.Series))
	outliers := charts.NewScatter()
	var points []opts.ScatterData
	for i, s := range panel.Series {
		st := s.Box
		if st == nil {
			continue
		}
		boxes[i] = opts.BoxPlotData{
			Name:      s.Name,
			Value:     []float64{st.LowerFence, st.Q1, st.Median, st.Q3, st.UpperFence},
			ItemStyle: &opts.ItemStyle{Color: hexColor(s.Color), BorderColor: "#333333"},
		}
		for _, v := range st.Outliers {
			points = append(points, opts.ScatterData{Value: []interface{}{s.Name, v}, SymbolSize: 6})
		}
	}
	c.AddSeries(panel.YAxis, boxes)
	if len(points) > 0 {
		outliers.AddSeries("outliers", points, charts.WithItemStyleOpts(opts.ItemStyle{Color: "#333333"}))
		c.Overlap(outliers)
	}
	return c
}
