package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/spektr-org/eda/engine"
	"github.com/spektr-org/eda/render"
	"github.com/spektr-org/eda/schema"
)

// ============================================================================
// RENDER PASS — Sections → ordered Outcomes
// ============================================================================
// Every request of every requested section is rendered exactly once. A
// failing chart becomes an Outcome with Err set; its siblings still render.
// Charts may be drawn in parallel, but Outcomes keep catalog order.
// ============================================================================

// Banner is printed after a full render pass completes.
const Banner = "EDA report complete!"

// Outcome is the result of one chart in a render pass.
type Outcome struct {
	Section  SectionID          `json:"section"`
	Index    int                `json:"index"` // position within the section
	Request  engine.PlotRequest `json:"-"`
	Artifact *render.Artifact   `json:"artifact,omitempty"`
	Err      error              `json:"-"`
}

// Failed reports whether the chart could not be produced.
func (o Outcome) Failed() bool { return o.Err != nil }

// Message is the inline text shown in place of a failed chart.
func (o Outcome) Message() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Report is the output of one render pass.
type Report struct {
	Pass     string        `json:"pass"`
	Sections []SectionID   `json:"sections"`
	Outcomes []Outcome     `json:"outcomes"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Failures returns the outcomes that carry an error.
func (r *Report) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Failed() {
			out = append(out, o)
		}
	}
	return out
}

// Section returns the outcomes of one section, in order.
func (r *Report) Section(id SectionID) []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Section == id {
			out = append(out, o)
		}
	}
	return out
}

// Summary is a one-line account of the pass.
func (r *Report) Summary() string {
	failed := len(r.Failures())
	return fmt.Sprintf("%d charts rendered, %d failed in %s",
		len(r.Outcomes)-failed, failed, r.Elapsed.Round(time.Millisecond))
}

// Run renders the Iris report's sections with default settings.
func Run(ctx context.Context, ds render.Dataset, r *render.Renderer, sections ...SectionID) (*Report, error) {
	return NewBuilder(schemaOf(ds)).Run(ctx, ds, r, sections...)
}

// Run renders every request of the given sections. The returned error is
// reserved for an unknown section or a cancelled context; chart failures are
// reported per Outcome.
func (b *Builder) Run(ctx context.Context, ds render.Dataset, r *render.Renderer, sections ...SectionID) (*Report, error) {
	pass := uuid.New().String()
	logger := log.WithField("pass", pass)

	var outcomes []Outcome
	for _, id := range sections {
		reqs, err := b.BuildRequests(string(id))
		if err != nil {
			return nil, err
		}
		for i, req := range reqs {
			outcomes = append(outcomes, Outcome{Section: id, Index: i, Request: req})
		}
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.parallelism)
	for i := range outcomes {
		o := &outcomes[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			chartStart := time.Now()
			o.Artifact, o.Err = r.Render(o.Request, ds)

			entry := logger.WithFields(log.Fields{
				"section":     o.Section,
				"kind":        o.Request.Kind(),
				"duration_ms": time.Since(chartStart).Milliseconds(),
			})
			if o.Err != nil {
				entry.WithError(o.Err).Warn("chart failed")
			} else {
				entry.Debug("chart rendered")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "render pass")
	}

	rep := &Report{
		Pass:     pass,
		Sections: append([]SectionID(nil), sections...),
		Outcomes: outcomes,
		Elapsed:  time.Since(start),
	}
	logger.WithFields(log.Fields{
		"charts": len(outcomes),
		"failed": len(rep.Failures()),
	}).Info("render pass finished")
	return rep, nil
}

// schemaOf uses the dataset's own schema when it exposes one.
func schemaOf(ds render.Dataset) schema.Config {
	if s, ok := ds.(interface{ Schema() schema.Config }); ok {
		return s.Schema()
	}
	return schema.Iris()
}
