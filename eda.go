// Package eda generates interactive exploration reports for tabular datasets.
// Iris out of the box, any labelled numeric CSV with --infer.
//
// Usage:
//
//	import (
//	    "github.com/spektr-org/eda/dataset"
//	    "github.com/spektr-org/eda/render"
//	    "github.com/spektr-org/eda/report"
//	)
//
//	ds, err := dataset.Iris()
//	r := render.New(render.NewGonum(render.FormatPNG))
//	rep, err := report.Run(ctx, ds, r, report.SectionScatter, report.SectionCorrelation)
//
// The engine package turns a PlotRequest and a RecordView into a
// backend-independent Figure; render encodes figures as PNG, SVG or
// interactive HTML. Nothing is cached and nothing leaves the process.
package eda
