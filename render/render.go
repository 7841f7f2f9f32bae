package render

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/spektr-org/eda/engine"
)

// ============================================================================
// RENDERER — PlotRequest + Dataset → Artifact
// ============================================================================
// Pipeline:
//   1. engine.Execute computes the backend-independent Figure (and Table)
//   2. the Backend encodes the Figure into bytes
//   3. any failure, including a panic inside a backend, becomes *RenderError
//
// Render has no side effects and never panics outward.
// ============================================================================

// Dataset is anything that can hand the engine a view of its rows.
// *dataset.Handle satisfies it.
type Dataset interface {
	View() engine.RecordView
}

// Artifact is one rendered chart plus the data it was drawn from.
type Artifact struct {
	Title     string             `json:"title"`
	Caption   string             `json:"caption,omitempty"`
	Request   engine.PlotRequest `json:"-"`
	Kind      engine.Kind        `json:"kind"`
	Figure    *engine.Figure     `json:"figure"`
	Table     *engine.TableData  `json:"table,omitempty"`
	Format    string             `json:"format"`
	MediaType string             `json:"mediaType"`
	Content   []byte             `json:"-"`
}

// RenderError reports a chart that could not be produced.
type RenderError struct {
	Request engine.PlotRequest
	Message string
	Err     error
}

func (e *RenderError) Error() string { return e.Message }

// Cause returns the underlying error for github.com/pkg/errors.
func (e *RenderError) Cause() error { return e.Err }

func (e *RenderError) Unwrap() error { return e.Err }

func newRenderError(req engine.PlotRequest, err error) *RenderError {
	return &RenderError{
		Request: req,
		Message: fmt.Sprintf("Error generating %s: %v", req.Title(), err),
		Err:     err,
	}
}

// Renderer draws requests with one backend.
type Renderer struct {
	backend    Backend
	engineOpts []engine.Option
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithEngineOptions passes options through to engine.Execute.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(r *Renderer) { r.engineOpts = append(r.engineOpts, opts...) }
}

// New creates a Renderer around a backend.
func New(backend Backend, opts ...Option) *Renderer {
	r := &Renderer{backend: backend}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Backend returns the backend the renderer draws with.
func (r *Renderer) Backend() Backend { return r.backend }

// Render computes and encodes one chart.
func (r *Renderer) Render(req engine.PlotRequest, ds Dataset) (art *Artifact, err error) {
	defer func() {
		if p := recover(); p != nil {
			art = nil
			err = newRenderError(req, errors.Errorf("panic: %v", p))
		}
	}()

	if ds == nil {
		return nil, newRenderError(req, errors.New("no dataset"))
	}

	start := time.Now()
	res, err := engine.Execute(req, ds.View(), r.engineOpts...)
	if err != nil {
		return nil, newRenderError(req, err)
	}

	content, err := r.backend.Encode(res.Figure)
	if err != nil {
		return nil, newRenderError(req, errors.Wrapf(err, "%s backend", r.backend.Name()))
	}

	log.WithFields(log.Fields{
		"kind":        req.Kind(),
		"backend":     r.backend.Name(),
		"bytes":       len(content),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("chart rendered")

	return &Artifact{
		Title:     req.Title(),
		Caption:   req.Caption(),
		Request:   req,
		Kind:      req.Kind(),
		Figure:    res.Figure,
		Table:     res.Table,
		Format:    r.backend.Format(),
		MediaType: r.backend.MediaType(),
		Content:   content,
	}, nil
}
