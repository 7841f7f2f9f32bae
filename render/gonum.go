package render

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/spektr-org/eda/engine"
)

// ============================================================================
// GONUM BACKEND — Static PNG / SVG through gonum.org/v1/plot
// ============================================================================
// One plot.Plot per Panel. Grids go through plot.Align. An outside legend
// and a heatmap colour bar each get a strip on the right of the canvas.
// ============================================================================

const (
	legendStrip   = 1.6 * vg.Inch
	colorbarStrip = 0.9 * vg.Inch
	defaultDPI    = 96
)

// Gonum draws static images.
type Gonum struct {
	format string
	dpi    int
}

// NewGonum returns a gonum backend for "png" or "svg".
func NewGonum(format string) *Gonum {
	if format != FormatSVG {
		format = FormatPNG
	}
	return &Gonum{format: format, dpi: defaultDPI}
}

func (g *Gonum) Name() string   { return BackendGonum }
func (g *Gonum) Format() string { return g.format }

func (g *Gonum) MediaType() string {
	if g.format == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// Encode draws the figure and returns the encoded image.
func (g *Gonum) Encode(fig *engine.Figure) ([]byte, error) {
	plots, extra, err := g.plots(fig)
	if err != nil {
		return nil, err
	}

	w := vg.Length(fig.Width) * vg.Inch
	h := vg.Length(fig.Height) * vg.Inch
	var strip vg.Length
	switch {
	case fig.Legend.Show && fig.Legend.Outside:
		strip = legendStrip
	case extra != nil:
		strip = colorbarStrip
	}
	w += strip

	var (
		canvas draw.Canvas
		out    io.WriterTo
	)
	if g.format == FormatSVG {
		c := vgsvg.New(w, h)
		canvas, out = draw.New(c), c
	} else {
		c := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(g.dpi))
		canvas, out = draw.New(c), vgimg.PngCanvas{Canvas: c}
	}

	area := draw.Crop(canvas, 0, -strip, 0, 0)
	side := draw.Crop(canvas, w-strip, 0, 0, 0)

	if fig.Rows == 1 && fig.Cols == 1 {
		plots[0][0].Draw(area)
	} else {
		tiles := draw.Tiles{
			Rows: fig.Rows, Cols: fig.Cols,
			PadX: vg.Millimeter, PadY: vg.Millimeter,
			PadTop: 2 * vg.Millimeter, PadBottom: 2 * vg.Millimeter,
			PadLeft: 2 * vg.Millimeter, PadRight: 2 * vg.Millimeter,
		}
		canvases := plot.Align(plots, tiles, area)
		for r := range plots {
			for c := range plots[r] {
				if plots[r][c] != nil {
					plots[r][c].Draw(canvases[r][c])
				}
			}
		}
	}

	switch {
	case fig.Legend.Show && fig.Legend.Outside:
		if err := drawLegend(fig.Legend, side); err != nil {
			return nil, err
		}
	case extra != nil:
		extra.Draw(draw.Crop(side, 0, 0, vg.Inch/2, -vg.Inch/2))
	}

	var buf bytes.Buffer
	if _, err := out.WriteTo(&buf); err != nil {
		return nil, errors.Wrapf(err, "encode %s", g.format)
	}
	return buf.Bytes(), nil
}

// plots builds the panel grid. The second result is an optional side plot
// (the heatmap colour bar).
func (g *Gonum) plots(fig *engine.Figure) ([][]*plot.Plot, *plot.Plot, error) {
	if fig.Rows < 1 || fig.Cols < 1 || len(fig.Panels) == 0 {
		return nil, nil, errors.New("figure has no panels")
	}
	grid := make([][]*plot.Plot, fig.Rows)
	for r := range grid {
		grid[r] = make([]*plot.Plot, fig.Cols)
	}

	var side *plot.Plot
	for i := range fig.Panels {
		panel := &fig.Panels[i]
		p := plot.New()
		title := panel.Title
		if title == "" && fig.Rows == 1 && fig.Cols == 1 {
			title = fig.Title
		}
		p.Title.Text = title

		// grids label only their outer edge
		if panel.Row == fig.Rows-1 {
			p.X.Label.Text = panel.XAxis
		}
		if panel.Col == 0 {
			p.Y.Label.Text = panel.YAxis
		}

		var err error
		switch panel.Type {
		case engine.PanelScatter:
			err = addScatter(p, panel)
		case engine.PanelDensity:
			err = addDensity(p, panel)
		case engine.PanelHistogram:
			err = addHistogram(p, panel)
		case engine.PanelBox:
			err = addBoxes(p, panel)
		case engine.PanelHeatmap:
			side, err = addHeatmap(p, panel)
		default:
			err = errors.Errorf("unsupported panel type %q", panel.Type)
		}
		if err != nil {
			return nil, nil, errors.Wrapf(err, "panel (%d, %d)", panel.Row, panel.Col)
		}

		if fig.Legend.Show && !fig.Legend.Outside && fig.Rows == 1 && fig.Cols == 1 {
			for _, e := range fig.Legend.Entries {
				thumb, err := legendThumb(e.Color)
				if err != nil {
					return nil, nil, err
				}
				p.Legend.Add(e.Name, thumb)
			}
			p.Legend.Top = true
		}
		grid[panel.Row][panel.Col] = p
	}
	return grid, side, nil
}

// ============================================================================
// PANELS
// ============================================================================

func addScatter(p *plot.Plot, panel *engine.Panel) error {
	for _, s := range panel.Series {
		c, err := parseColor(s.Color)
		if err != nil {
			return err
		}
		sc, err := plotter.NewScatter(toXYs(s.Points))
		if err != nil {
			return errors.Wrapf(err, "scatter %s", s.Name)
		}
		sc.GlyphStyle.Color = c
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(2.5)
		p.Add(sc)
	}
	return nil
}

func addDensity(p *plot.Plot, panel *engine.Panel) error {
	for _, s := range panel.Series {
		c, err := parseColor(s.Color)
		if err != nil {
			return err
		}
		xys := toXYs(s.Points)
		if s.Fill && len(xys) > 1 {
			outline := append(plotter.XYs{{X: xys[0].X, Y: 0}}, xys...)
			outline = append(outline, plotter.XY{X: xys[len(xys)-1].X, Y: 0})
			poly, err := plotter.NewPolygon(outline)
			if err != nil {
				return errors.Wrapf(err, "density fill %s", s.Name)
			}
			poly.Color = withAlpha(c, s.Alpha)
			poly.LineStyle.Width = 0
			p.Add(poly)
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return errors.Wrapf(err, "density %s", s.Name)
		}
		line.Color = c
		line.Width = vg.Points(1.5)
		p.Add(line)
	}
	return nil
}

func addHistogram(p *plot.Plot, panel *engine.Panel) error {
	for _, s := range panel.Series {
		c, err := parseColor(s.Color)
		if err != nil {
			return err
		}
		if len(s.Bins) == 0 {
			return errors.New("histogram has no bins")
		}
		bins := make([]plotter.HistogramBin, len(s.Bins))
		for i, b := range s.Bins {
			bins[i] = plotter.HistogramBin{Min: b.Min, Max: b.Max, Weight: float64(b.Count)}
		}
		h := &plotter.Histogram{
			Bins:      bins,
			Width:     s.Bins[0].Max - s.Bins[0].Min,
			FillColor: c,
			LineStyle: plotter.DefaultLineStyle,
		}
		p.Add(h)
	}
	return nil
}

// addBoxes draws precomputed box statistics. plotter.NewBoxPlot computes its
// own quartiles, so the five numbers and outliers are written back over it.
func addBoxes(p *plot.Plot, panel *engine.Panel) error {
	for i, s := range panel.Series {
		if s.Box == nil {
			return errors.Errorf("series %s has no box statistics", s.Name)
		}
		c, err := parseColor(s.Color)
		if err != nil {
			return err
		}
		st := s.Box
		values := append(plotter.Values{st.LowerFence, st.Q1, st.Median, st.Q3, st.UpperFence}, st.Outliers...)
		b, err := plotter.NewBoxPlot(vg.Points(40), float64(i), values)
		if err != nil {
			return errors.Wrapf(err, "box %s", s.Name)
		}
		b.Median, b.Quartile1, b.Quartile3 = st.Median, st.Q1, st.Q3
		b.AdjLow, b.AdjHigh = st.LowerFence, st.UpperFence
		b.Min, b.Max = st.Min, st.Max
		b.Outside = b.Outside[:0]
		for j := range st.Outliers {
			b.Outside = append(b.Outside, 5+j)
		}
		b.FillColor = c
		p.Add(b)
	}
	p.NominalX(panel.Categories...)
	return nil
}

func addHeatmap(p *plot.Plot, panel *engine.Panel) (*plot.Plot, error) {
	m := panel.Matrix
	if m == nil {
		return nil, errors.New("heatmap has no matrix")
	}
	cmap, err := colorMap(panel.Colormap)
	if err != nil {
		return nil, err
	}
	cmap.SetMin(-1)
	cmap.SetMax(1)

	grid := matrixGrid{m: m}
	hm := plotter.NewHeatMap(grid, cmap.Palette(255))
	hm.Min, hm.Max = -1, 1
	p.Add(hm)

	n := len(m.Columns)
	if panel.Annotate {
		xys := make(plotter.XYs, 0, n*n)
		labels := make([]string, 0, n*n)
		for r := 0; r < n; r++ {
			for c := 0; c < n; c++ {
				xys = append(xys, plotter.XY{X: float64(c), Y: float64(n - 1 - r)})
				labels = append(labels, fmt.Sprintf("%.2f", m.Values[r][c]))
			}
		}
		l, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
		if err != nil {
			return nil, errors.Wrap(err, "heatmap annotations")
		}
		for i := range l.TextStyle {
			l.TextStyle[i].XAlign = draw.XCenter
			l.TextStyle[i].YAlign = draw.YCenter
		}
		p.Add(l)
	}

	reversed := make([]string, n)
	for i, c := range panel.Categories {
		reversed[n-1-i] = c
	}
	p.NominalX(panel.Categories...)
	p.NominalY(reversed...)

	bar := plot.New()
	bar.Add(&plotter.ColorBar{ColorMap: cmap, Vertical: true})
	bar.HideX()
	return bar, nil
}

// matrixGrid puts the first matrix row at the top of the heatmap.
type matrixGrid struct{ m *engine.CorrelationMatrix }

func (g matrixGrid) Dims() (c, r int) { return len(g.m.Columns), len(g.m.Columns) }
func (g matrixGrid) Z(c, r int) float64 {
	n := len(g.m.Columns)
	return g.m.Values[n-1-r][c]
}
func (g matrixGrid) X(c int) float64 { return float64(c) }
func (g matrixGrid) Y(r int) float64 { return float64(r) }

func colorMap(name string) (palette.ColorMap, error) {
	switch name {
	case "", "coolwarm":
		return moreland.SmoothBlueRed(), nil
	case "kindlmann":
		return moreland.Kindlmann(), nil
	}
	return nil, errors.Errorf("unknown colormap %q", name)
}

// ============================================================================
// LEGEND
// ============================================================================

func drawLegend(l engine.Legend, c draw.Canvas) error {
	legend := plot.NewLegend()
	legend.Top = true
	legend.Left = true
	legend.XOffs = vg.Millimeter * 2
	legend.YOffs = -vg.Millimeter * 6
	for _, e := range l.Entries {
		thumb, err := legendThumb(e.Color)
		if err != nil {
			return err
		}
		legend.Add(e.Name, thumb)
	}
	legend.Draw(c)
	return nil
}

func legendThumb(name string) (plot.Thumbnailer, error) {
	c, err := parseColor(name)
	if err != nil {
		return nil, err
	}
	s, err := plotter.NewScatter(plotter.XYs{{}})
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Color = c
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Radius = vg.Points(4)
	return s, nil
}

func toXYs(points []engine.Point) plotter.XYs {
	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i] = plotter.XY{X: pt.X, Y: pt.Y}
	}
	return xys
}
