package report

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/spektr-org/eda/engine"
	"github.com/spektr-org/eda/schema"
)

// ============================================================================
// REQUEST POLICY — Which charts each section asks for
// ============================================================================
// The catalog is curated, not combinatorial: scatter plots pair adjacent
// measurements (sepal with sepal, petal with petal), histogram bin counts
// are fixed per column, and every grouped chart is split by the label.
// ============================================================================

// Histogram bin counts per Iris measurement.
const (
	SepalLengthBins = 7
	SepalWidthBins  = 5
	PetalLengthBins = 6
	PetalWidthBins  = 6

	// DefaultBins is used for measurements outside the Iris schema.
	DefaultBins = 10
)

// Chart parameters shared by the whole report.
const (
	PairPanelHeight    = 2.0
	DensityAlpha       = 0.5
	CorrelationMethod  = "pearson"
	CorrelationPalette = "coolwarm"
)

var histogramBins = map[string]int{
	"SepalLengthCm": SepalLengthBins,
	"SepalWidthCm":  SepalWidthBins,
	"PetalLengthCm": PetalLengthBins,
	"PetalWidthCm":  PetalWidthBins,
}

// histogramColors cycle over the measurements in schema order.
var histogramColors = []string{"skyblue", "lightgreen", "orange", "purple"}

// BinsFor returns the fixed histogram bin count for a measurement.
func BinsFor(column string) int {
	if n, ok := histogramBins[column]; ok {
		return n
	}
	return DefaultBins
}

// Builder turns sections into plot requests for one dataset shape.
type Builder struct {
	schema      schema.Config
	parallelism int
}

// Option configures a Builder.
type Option func(*Builder)

// WithParallelism bounds how many charts a render pass draws at once.
// Values below 1 mean one at a time.
func WithParallelism(n int) Option {
	return func(b *Builder) {
		if n < 1 {
			n = 1
		}
		b.parallelism = n
	}
}

// NewBuilder creates a Builder over a dataset schema.
func NewBuilder(sch schema.Config, opts ...Option) *Builder {
	b := &Builder{schema: sch, parallelism: 1}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Schema returns the dataset shape the builder plans for.
func (b *Builder) Schema() schema.Config { return b.schema }

// BuildRequests returns the Iris report's requests for one section.
func BuildRequests(id string) ([]engine.PlotRequest, error) {
	return NewBuilder(schema.Iris()).BuildRequests(id)
}

// BuildRequests returns the ordered plot requests for one section.
// Table-only sections return no requests.
func (b *Builder) BuildRequests(id string) ([]engine.PlotRequest, error) {
	sec, err := Lookup(id)
	if err != nil {
		return nil, err
	}

	measures := b.schema.MeasureKeys()
	label := b.schema.Label.Key

	var reqs []engine.PlotRequest
	add := func(kind engine.Kind, columns []string, opts ...engine.RequestOption) error {
		req, err := engine.NewPlotRequest(kind, columns, opts...)
		if err != nil {
			return errors.Wrapf(err, "section %s", sec.ID)
		}
		reqs = append(reqs, req)
		return nil
	}
	grouped := func(opts ...engine.RequestOption) []engine.RequestOption {
		if label == "" {
			return opts
		}
		return append([]engine.RequestOption{engine.GroupBy(label)}, opts...)
	}

	switch sec.ID {
	case SectionScatter:
		for i := 0; i+1 < len(measures); i += 2 {
			x, y := measures[i], measures[i+1]
			caption := fmt.Sprintf("Visualizing the relationship between %s and %s.",
				b.schema.DisplayName(x), b.schema.DisplayName(y))
			err = add(engine.KindScatter, []string{x, y}, grouped(
				engine.WithCaption(caption),
				engine.WithParam(engine.ParamLegend, "outside"),
			)...)
			if err != nil {
				return nil, err
			}
		}

	case SectionPair:
		err = add(engine.KindPair, measures, grouped(
			engine.WithFloat(engine.ParamHeight, PairPanelHeight),
		)...)

	case SectionHistogram:
		for i, m := range measures {
			err = add(engine.KindHistogram, []string{m},
				engine.WithTitle(b.schema.DisplayName(m)),
				engine.WithBins(BinsFor(m)),
				engine.WithColor(histogramColors[i%len(histogramColors)]),
			)
			if err != nil {
				return nil, err
			}
		}

	case SectionKDE:
		for _, m := range measures {
			if err = add(engine.KindKDE, []string{m}, grouped(
				engine.WithFloat(engine.ParamAlpha, DensityAlpha),
			)...); err != nil {
				return nil, err
			}
		}

	case SectionCorrelation:
		err = add(engine.KindCorrelation, measures,
			engine.WithParam(engine.ParamMethod, CorrelationMethod),
			engine.WithParam(engine.ParamColormap, CorrelationPalette),
			engine.WithParam(engine.ParamAnnotate, "true"),
		)

	case SectionBoxPlot:
		for _, m := range measures {
			if err = add(engine.KindBoxPlot, []string{m}, grouped()...); err != nil {
				return nil, err
			}
		}
	}
	if err != nil {
		return nil, err
	}
	return reqs, nil
}
