package engine

import (
	"github.com/pkg/errors"
)

// ============================================================================
// CHART BUILDER — Produces a Figure from a PlotRequest + RecordView
// ============================================================================
// One builder per chart kind. Labels are coloured in the order they first
// appear in the full view, so "Iris-setosa" has the same colour in every
// figure of a report.
// ============================================================================

// ErrUnknownColumn is wrapped when a request names a column the view lacks.
var ErrUnknownColumn = errors.New("unknown column")

// BuildFigure computes the render-ready figure for a request.
func BuildFigure(req PlotRequest, view RecordView, cfg *config) (*Figure, *CorrelationMatrix, error) {
	if err := checkColumns(req, view); err != nil {
		return nil, nil, err
	}

	switch req.Kind() {
	case KindScatter:
		fig, err := buildScatter(req, view, cfg)
		return fig, nil, err
	case KindPair:
		fig, err := buildPair(req, view, cfg)
		return fig, nil, err
	case KindHistogram:
		fig, err := buildHistogram(req, view, cfg)
		return fig, nil, err
	case KindKDE:
		fig, err := buildKDE(req, view, cfg)
		return fig, nil, err
	case KindCorrelation:
		return buildCorrelation(req, view, cfg)
	case KindBoxPlot:
		fig, err := buildBox(req, view, cfg)
		return fig, nil, err
	}
	return nil, nil, errors.Errorf("unknown chart kind %q", req.Kind())
}

func checkColumns(req PlotRequest, view RecordView) error {
	for _, c := range req.Columns() {
		if !view.HasMeasure(c) {
			return errors.Wrapf(ErrUnknownColumn, "numeric column %q", c)
		}
	}
	if g := req.GroupBy(); g != "" && !contains(view.DimensionKeys(), g) {
		return errors.Wrapf(ErrUnknownColumn, "grouping column %q", g)
	}
	return nil
}

// ============================================================================
// GROUPING + LEGEND
// ============================================================================

// labelled is one colour layer: a label, its colour and its rows.
type labelled struct {
	name  string
	color string
	view  RecordView
}

// layers splits the view by the request's grouping column. Ungrouped
// requests produce a single layer coloured by the "color" param or the
// first palette entry.
func layers(req PlotRequest, view RecordView, cfg *config) []labelled {
	if req.GroupBy() == "" {
		color, ok := req.Param(ParamColor)
		if !ok {
			color = cfg.colorFor(0)
		}
		return []labelled{{name: req.Columns()[0], color: color, view: view}}
	}

	groups := GroupBySingle(view, req.GroupBy())
	out := make([]labelled, len(groups))
	for i, g := range groups {
		out[i] = labelled{name: g.Label, color: cfg.colorFor(i), view: g.View}
	}
	return out
}

func legendFor(req PlotRequest, ls []labelled) Legend {
	if req.GroupBy() == "" {
		return Legend{}
	}
	l := Legend{
		Show:    true,
		Outside: true,
		Title:   req.GroupBy(),
	}
	if v, ok := req.Param(ParamLegend); ok && v != "outside" {
		l.Outside = false
	}
	for _, layer := range ls {
		l.Entries = append(l.Entries, LegendEntry{Name: layer.name, Color: layer.color})
	}
	return l
}

func singlePanel(req PlotRequest, cfg *config, p Panel, legend Legend) *Figure {
	p.Row, p.Col = 0, 0
	return &Figure{
		Kind:   req.Kind(),
		Title:  req.Title(),
		Rows:   1,
		Cols:   1,
		Width:  cfg.Width,
		Height: cfg.Height,
		Panels: []Panel{p},
		Legend: legend,
	}
}

// ============================================================================
// SCATTER
// ============================================================================

func buildScatter(req PlotRequest, view RecordView, cfg *config) (*Figure, error) {
	cols := req.Columns()
	ls := layers(req, view, cfg)
	return singlePanel(req, cfg, scatterPanel(cols[0], cols[1], ls), legendFor(req, ls)), nil
}

func scatterPanel(x, y string, ls []labelled) Panel {
	p := Panel{Type: PanelScatter, XAxis: x, YAxis: y}
	for _, layer := range ls {
		pts := make([]Point, layer.view.Len())
		for i := range pts {
			pts[i] = Point{X: layer.view.Measure(i, x), Y: layer.view.Measure(i, y)}
		}
		p.Series = append(p.Series, Series{Name: layer.name, Color: layer.color, Points: pts})
	}
	return p
}

// ============================================================================
// PAIR — N×N grid, scatter off the diagonal, density on it
// ============================================================================

func buildPair(req PlotRequest, view RecordView, cfg *config) (*Figure, error) {
	cols := req.Columns()
	n := len(cols)
	ls := layers(req, view, cfg)
	size := req.FloatParam(ParamHeight, 2.5)

	fig := &Figure{
		Kind:   req.Kind(),
		Title:  req.Title(),
		Rows:   n,
		Cols:   n,
		Width:  size * float64(n),
		Height: size * float64(n),
		Legend: legendFor(req, ls),
	}

	total := float64(view.Len())
	for r, yCol := range cols {
		for c, xCol := range cols {
			if r != c {
				p := scatterPanel(xCol, yCol, ls)
				p.Row, p.Col = r, c
				fig.Panels = append(fig.Panels, p)
				continue
			}

			// Diagonal densities share one normalization: each curve's area
			// is its share of the rows.
			p := Panel{Row: r, Col: c, Type: PanelDensity, XAxis: xCol, YAxis: "Density"}
			for _, layer := range ls {
				params := cfg.KDE
				params.Weight = float64(layer.view.Len()) / total
				pts, err := GaussianKDE(MeasureValues(layer.view, xCol), params)
				if err != nil {
					return nil, errors.Wrapf(err, "%s density for %s", xCol, layer.name)
				}
				p.Series = append(p.Series, Series{
					Name: layer.name, Color: layer.color, Points: pts, Fill: true, Alpha: 0.25,
				})
			}
			fig.Panels = append(fig.Panels, p)
		}
	}
	return fig, nil
}

// ============================================================================
// HISTOGRAM
// ============================================================================

func buildHistogram(req PlotRequest, view RecordView, cfg *config) (*Figure, error) {
	col := req.Columns()[0]
	bins, err := HistogramBins(MeasureValues(view, col), req.IntParam(ParamBins, 10))
	if err != nil {
		return nil, errors.Wrapf(err, "histogram of %s", col)
	}

	color, ok := req.Param(ParamColor)
	if !ok {
		color = cfg.colorFor(0)
	}
	p := Panel{
		Type:   PanelHistogram,
		Title:  req.Title(),
		XAxis:  col,
		YAxis:  "Count",
		Series: []Series{{Name: col, Color: color, Bins: bins}},
	}
	return singlePanel(req, cfg, p, Legend{}), nil
}

// ============================================================================
// KDE — one curve per label, each normalized on its own
// ============================================================================

func buildKDE(req PlotRequest, view RecordView, cfg *config) (*Figure, error) {
	col := req.Columns()[0]
	ls := layers(req, view, cfg)
	alpha := req.FloatParam(ParamAlpha, 0.25)

	p := Panel{Type: PanelDensity, XAxis: col, YAxis: "Density"}
	for _, layer := range ls {
		pts, err := GaussianKDE(MeasureValues(layer.view, col), cfg.KDE)
		if err != nil {
			return nil, errors.Wrapf(err, "%s density for %s", col, layer.name)
		}
		p.Series = append(p.Series, Series{
			Name: layer.name, Color: layer.color, Points: pts, Fill: true, Alpha: alpha,
		})
	}
	return singlePanel(req, cfg, p, legendFor(req, ls)), nil
}

// ============================================================================
// CORRELATION — heatmap over the Pearson matrix
// ============================================================================

func buildCorrelation(req PlotRequest, view RecordView, cfg *config) (*Figure, *CorrelationMatrix, error) {
	if m, ok := req.Param(ParamMethod); ok && m != "pearson" {
		return nil, nil, errors.Errorf("unsupported correlation method %q", m)
	}
	cols := req.Columns()
	matrix, err := Pearson(view, cols)
	if err != nil {
		return nil, nil, err
	}

	colormap, ok := req.Param(ParamColormap)
	if !ok {
		colormap = "coolwarm"
	}
	p := Panel{
		Type:       PanelHeatmap,
		Categories: cols,
		Matrix:     matrix,
		Colormap:   colormap,
		Annotate:   req.BoolParam(ParamAnnotate),
	}
	fig := singlePanel(req, cfg, p, Legend{})
	fig.Width, fig.Height = 8, 6
	return fig, matrix, nil
}

// ============================================================================
// BOX — one box per label on a shared axis
// ============================================================================

func buildBox(req PlotRequest, view RecordView, cfg *config) (*Figure, error) {
	col := req.Columns()[0]
	ls := layers(req, view, cfg)

	p := Panel{Type: PanelBox, XAxis: req.GroupBy(), YAxis: col}
	for _, layer := range ls {
		box, err := BoxSummary(MeasureValues(layer.view, col), cfg.Whisker)
		if err != nil {
			return nil, errors.Wrapf(err, "box of %s for %s", col, layer.name)
		}
		p.Categories = append(p.Categories, layer.name)
		p.Series = append(p.Series, Series{Name: layer.name, Color: layer.color, Box: box})
	}
	return singlePanel(req, cfg, p, Legend{}), nil
}

func contains(list []string, item string) bool {
	for _, s := range list {
		if s == item {
			return true
		}
	}
	return false
}
