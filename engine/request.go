package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ============================================================================
// PLOT REQUEST — Immutable description of one chart
// ============================================================================
// Built once by the report layer, consumed by Execute. All fields are
// unexported: accessors hand out copies so a request can be shared between
// goroutines and re-rendered without surprises.
// ============================================================================

// Kind names a chart family.
type Kind string

const (
	KindScatter     Kind = "scatter"
	KindPair        Kind = "pair"
	KindHistogram   Kind = "histogram"
	KindKDE         Kind = "kde"
	KindCorrelation Kind = "correlation"
	KindBoxPlot     Kind = "boxplot"
)

// Kinds lists every chart family in report order.
var Kinds = []Kind{KindScatter, KindPair, KindHistogram, KindKDE, KindCorrelation, KindBoxPlot}

// Valid reports whether k is a known chart family.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Parameter keys understood by the chart builders.
const (
	ParamBins     = "bins"     // histogram bucket count
	ParamColor    = "color"    // single-series colour (named or #hex)
	ParamHeight   = "height"   // pair plot panel size, inches
	ParamAlpha    = "alpha"    // density fill opacity
	ParamMethod   = "method"   // correlation method
	ParamColormap = "colormap" // heatmap colour map
	ParamAnnotate = "annotate" // heatmap cell labels
	ParamLegend   = "legend"   // "outside" moves the legend right of the axes
)

// PlotRequest describes one chart: what kind, over which columns, grouped how.
type PlotRequest struct {
	kind    Kind
	title   string
	caption string
	columns []string
	groupBy string
	params  map[string]string
}

// RequestOption customizes a PlotRequest at construction.
type RequestOption func(*PlotRequest)

// GroupBy colours and splits the chart by a categorical column.
func GroupBy(column string) RequestOption {
	return func(r *PlotRequest) { r.groupBy = column }
}

// WithTitle sets the chart subheader.
func WithTitle(title string) RequestOption {
	return func(r *PlotRequest) { r.title = title }
}

// WithCaption sets the one-line description shown under the subheader.
func WithCaption(caption string) RequestOption {
	return func(r *PlotRequest) { r.caption = caption }
}

// WithParam sets a free-form builder parameter.
func WithParam(key, value string) RequestOption {
	return func(r *PlotRequest) { r.params[key] = value }
}

// WithBins sets the histogram bucket count.
func WithBins(n int) RequestOption {
	return WithParam(ParamBins, strconv.Itoa(n))
}

// WithColor sets the colour of a single-series chart.
func WithColor(color string) RequestOption {
	return WithParam(ParamColor, color)
}

// WithFloat sets a numeric builder parameter.
func WithFloat(key string, v float64) RequestOption {
	return WithParam(key, strconv.FormatFloat(v, 'g', -1, 64))
}

// NewPlotRequest validates and freezes a chart description.
func NewPlotRequest(kind Kind, columns []string, opts ...RequestOption) (PlotRequest, error) {
	r := PlotRequest{
		kind:    kind,
		columns: append([]string(nil), columns...),
		params:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(&r)
	}

	if !kind.Valid() {
		return PlotRequest{}, errors.Errorf("unknown chart kind %q", kind)
	}
	min, max := columnArity(kind)
	if len(r.columns) < min || (max > 0 && len(r.columns) > max) {
		return PlotRequest{}, errors.Errorf("%s chart needs %s, got %d", kind, arityText(min, max), len(r.columns))
	}
	for _, c := range r.columns {
		if strings.TrimSpace(c) == "" {
			return PlotRequest{}, errors.Errorf("%s chart has an empty column name", kind)
		}
	}
	if kind == KindHistogram {
		if n, err := strconv.Atoi(r.params[ParamBins]); err != nil || n < 1 {
			return PlotRequest{}, errors.Errorf("histogram needs a positive bin count, got %q", r.params[ParamBins])
		}
	}
	if r.title == "" {
		r.title = defaultTitle(kind, r.columns)
	}
	return r, nil
}

func columnArity(kind Kind) (min, max int) {
	switch kind {
	case KindScatter:
		return 2, 2
	case KindHistogram, KindKDE, KindBoxPlot:
		return 1, 1
	default: // pair, correlation
		return 2, 0
	}
}

func arityText(min, max int) string {
	switch {
	case min == max && min == 1:
		return "exactly 1 column"
	case min == max:
		return fmt.Sprintf("exactly %d columns", min)
	default:
		return fmt.Sprintf("at least %d columns", min)
	}
}

func defaultTitle(kind Kind, columns []string) string {
	switch kind {
	case KindScatter:
		return fmt.Sprintf("Scatter Plot: %s vs %s", columns[0], columns[1])
	case KindPair:
		return "Pair Plot"
	case KindCorrelation:
		return "Correlation Matrix"
	case KindHistogram:
		return "Histogram: " + columns[0]
	case KindKDE:
		return "KDE Plot: " + columns[0]
	default:
		return "Box Plot: " + columns[0]
	}
}

// Kind returns the chart family.
func (r PlotRequest) Kind() Kind { return r.kind }

// Title returns the chart subheader.
func (r PlotRequest) Title() string { return r.title }

// Caption returns the one-line description.
func (r PlotRequest) Caption() string { return r.caption }

// Columns returns a copy of the ordered column list.
func (r PlotRequest) Columns() []string { return append([]string(nil), r.columns...) }

// GroupBy returns the grouping column, or "" when ungrouped.
func (r PlotRequest) GroupBy() string { return r.groupBy }

// Param returns a raw builder parameter.
func (r PlotRequest) Param(key string) (string, bool) {
	v, ok := r.params[key]
	return v, ok
}

// IntParam returns an integer parameter, or def when absent or malformed.
func (r PlotRequest) IntParam(key string, def int) int {
	if n, err := strconv.Atoi(r.params[key]); err == nil {
		return n
	}
	return def
}

// FloatParam returns a float parameter, or def when absent or malformed.
func (r PlotRequest) FloatParam(key string, def float64) float64 {
	if f, err := strconv.ParseFloat(r.params[key], 64); err == nil {
		return f
	}
	return def
}

// BoolParam reports whether a parameter is set to a true value.
func (r PlotRequest) BoolParam(key string) bool {
	b, _ := strconv.ParseBool(r.params[key])
	return b
}

// String identifies the request in logs.
func (r PlotRequest) String() string {
	s := fmt.Sprintf("%s(%s)", r.kind, strings.Join(r.columns, ","))
	if r.groupBy != "" {
		s += " by " + r.groupBy
	}
	return s
}
