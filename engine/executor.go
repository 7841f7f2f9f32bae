package engine

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ============================================================================
// EXECUTOR — Dispatcher
// ============================================================================
// Entry point: Execute(req, view, opts...)
//
// Pipeline:
//   1. Check the request's columns against the view
//   2. Dispatch to the per-kind chart builder → Figure
//   3. Attach the numeric table when the chart has one (correlation)
//   4. Return Result
//
// Execute is pure: same request + same view = identical Result.
// ============================================================================

// Execute computes the figure (and table, if any) for one PlotRequest.
//
// Options:
//   - WithKDEGridSize(n), WithKDECut(c): density estimation grid
//   - WithWhisker(k): box plot whisker reach
//   - WithPalette(colors...): label colours
//   - WithFigureSize(w, h): single-panel figure size
func Execute(req PlotRequest, view RecordView, opts ...Option) (*Result, error) {
	cfg := applyOptions(opts)

	if view == nil || view.Len() == 0 {
		return nil, errors.Wrapf(ErrNoData, "%s", req)
	}

	start := time.Now()
	fig, matrix, err := BuildFigure(req, view, cfg)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Request:     req,
		Figure:      fig,
		Correlation: matrix,
	}
	if matrix != nil {
		result.Table = BuildCorrelationTable(matrix)
	}

	log.WithFields(log.Fields{
		"kind":    req.Kind(),
		"request": req.String(),
		"rows":    view.Len(),
		"panels":  len(fig.Panels),
		"elapsed": time.Since(start),
	}).Debug("figure computed")

	return result, nil
}
