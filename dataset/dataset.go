package dataset

import (
	"bytes"
	"io"
	"iter"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/spektr-org/eda/engine"
	"github.com/spektr-org/eda/helpers"
	"github.com/spektr-org/eda/schema"
)

// ============================================================================
// DATASET HANDLE — The loaded table, read-only after Load
// ============================================================================
// Load reads raw cells through gota, checks every row against the schema and
// only then builds the typed columns and the engine view. Either the whole
// table is valid and a Handle comes back, or a *DataLoadError and nil.
//
// A Handle has no mutation API; it is safe for concurrent readers.
// ============================================================================

// Row is one record, column name → raw cell value.
type Row map[string]string

// Handle owns one validated dataset.
type Handle struct {
	source  string
	schema  schema.Config
	columns []string            // schema columns, header order
	raw     map[string][]string // column → cells
	floats  map[string][]float64
	numeric []string // measures, header order
	labels  []string // distinct labels, first-seen order
	view    engine.RecordView
}

type loadConfig struct {
	source   string
	schema   schema.Config
	discover *schema.DiscoverOptions
}

// LoadOption configures Load.
type LoadOption func(*loadConfig)

// WithSchema validates against sch instead of the Iris schema.
func WithSchema(sch schema.Config) LoadOption {
	return func(c *loadConfig) { c.schema = sch }
}

// WithDiscovery infers the schema from the data itself.
func WithDiscovery(opts schema.DiscoverOptions) LoadOption {
	return func(c *loadConfig) { c.discover = &opts }
}

// WithSource names the source in errors and logs.
func WithSource(name string) LoadOption {
	return func(c *loadConfig) { c.source = name }
}

// LoadFile opens path and loads it.
func LoadFile(path string, opts ...LoadOption) (*Handle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DataLoadError{Source: path, Reason: "unreadable", Err: err}
	}
	defer f.Close()
	return Load(f, append([]LoadOption{WithSource(path)}, opts...)...)
}

// Load reads a CSV table and validates it. No partially built handle is
// ever returned.
func Load(r io.Reader, opts ...LoadOption) (*Handle, error) {
	cfg := &loadConfig{source: "<reader>", schema: schema.Iris()}
	for _, opt := range opts {
		opt(cfg)
	}
	fail := func(reason string, err error) (*Handle, error) {
		return nil, &DataLoadError{Source: cfg.source, Reason: reason, Err: err}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fail("unreadable", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fail("empty source", nil)
	}

	if cfg.discover != nil {
		sch, err := schema.DiscoverFromCSV(data, *cfg.discover)
		if err != nil {
			return fail("schema discovery failed", err)
		}
		cfg.schema = *sch
	}

	df, err := helpers.ReadFrame(bytes.NewReader(data))
	if err != nil {
		return fail("malformed csv", errors.Cause(err))
	}
	if df.Nrow() == 0 {
		return fail("no data rows", nil)
	}

	h, reason := build(df, cfg.schema)
	if reason != "" {
		return fail(reason, nil)
	}
	h.source = cfg.source

	records, err := helpers.ToRecords(df, h.schema)
	if err != nil {
		return fail("typed conversion failed", err)
	}
	h.view = engine.NewSliceViewWithKeys(records, dimensionKeys(h.schema), h.numeric)

	log.WithFields(log.Fields{
		"source":  h.source,
		"rows":    h.Len(),
		"numeric": len(h.numeric),
		"labels":  len(h.labels),
	}).Debug("dataset loaded")
	return h, nil
}

// build checks every cell and fills the handle's columns. A non-empty reason
// means the table is rejected.
func build(df dataframe.DataFrame, sch schema.Config) (*Handle, string) {
	present := make(map[string]bool)
	for _, name := range df.Names() {
		present[name] = true
	}
	for _, c := range sch.RequiredColumns() {
		if !present[c] {
			return nil, "missing required column " + strconv.Quote(c)
		}
	}

	required := make(map[string]bool)
	for _, c := range sch.RequiredColumns() {
		required[c] = true
	}

	h := &Handle{
		schema: sch,
		raw:    make(map[string][]string),
		floats: make(map[string][]float64),
	}
	for _, name := range df.Names() {
		if !required[name] {
			continue
		}
		h.columns = append(h.columns, name)
		if sch.IsMeasure(name) {
			h.numeric = append(h.numeric, name)
		}
	}

	n := df.Nrow()
	for _, name := range h.columns {
		cells := df.Col(name).Records()
		for i := range cells {
			cells[i] = strings.TrimSpace(cells[i])
			if cells[i] == "" {
				return nil, "row " + strconv.Itoa(i+1) + ": column " + strconv.Quote(name) + " is empty"
			}
		}
		h.raw[name] = cells

		if m, ok := sch.Measure(name); ok {
			values := make([]float64, n)
			for i, cell := range cells {
				v, err := strconv.ParseFloat(cell, 64)
				if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
					return nil, "row " + strconv.Itoa(i+1) + ": " + name + " value " + strconv.Quote(cell) + " is not a number"
				}
				if m.NonNegative && v < 0 {
					return nil, "row " + strconv.Itoa(i+1) + ": " + name + " value " + cell + " is negative"
				}
				values[i] = v
			}
			h.floats[name] = values
		}
	}

	if key := sch.Label.Key; key != "" {
		seen := make(map[string]bool)
		for i, v := range h.raw[key] {
			if !sch.AllowsLabel(v) {
				return nil, "row " + strconv.Itoa(i+1) + ": unknown " + key + " " + strconv.Quote(v)
			}
			if !seen[v] {
				seen[v] = true
				h.labels = append(h.labels, v)
			}
		}
	}
	return h, ""
}

func dimensionKeys(sch schema.Config) []string {
	var keys []string
	if sch.Identifier != "" {
		keys = append(keys, sch.Identifier)
	}
	if sch.Label.Key != "" {
		keys = append(keys, sch.Label.Key)
	}
	return keys
}

// ============================================================================
// ACCESSORS
// ============================================================================

// Len returns the number of rows.
func (h *Handle) Len() int { return h.view.Len() }

// Source returns the path or name the data was loaded from.
func (h *Handle) Source() string { return h.source }

// Schema returns the column roles the data was validated against.
func (h *Handle) Schema() schema.Config { return h.schema }

// Columns returns every column in header order.
func (h *Handle) Columns() []string { return append([]string(nil), h.columns...) }

// NumericColumns returns the measurement columns in header order. The
// identifier and label are never included.
func (h *Handle) NumericColumns() []string { return append([]string(nil), h.numeric...) }

// LabelColumn returns the categorical column name.
func (h *Handle) LabelColumn() string { return h.schema.Label.Key }

// IDColumn returns the identifier column name.
func (h *Handle) IDColumn() string { return h.schema.Identifier }

// Labels returns the distinct label values in first-seen order.
func (h *Handle) Labels() []string { return append([]string(nil), h.labels...) }

// View exposes the rows to the engine.
func (h *Handle) View() engine.RecordView { return h.view }

// Column returns a copy of a column's raw cells.
func (h *Handle) Column(name string) ([]string, error) {
	cells, ok := h.raw[name]
	if !ok {
		return nil, &UnknownColumnError{Column: name, Available: h.Columns()}
	}
	return append([]string(nil), cells...), nil
}

// Floats returns a copy of a numeric column.
func (h *Handle) Floats(name string) ([]float64, error) {
	values, ok := h.floats[name]
	if !ok {
		return nil, &UnknownColumnError{Column: name, Available: h.NumericColumns()}
	}
	return append([]float64(nil), values...), nil
}

// Rows iterates the table in order. Every Row is a fresh copy; the sequence
// can be ranged over any number of times.
func (h *Handle) Rows() iter.Seq[Row] {
	return func(yield func(Row) bool) {
		for i := 0; i < h.Len(); i++ {
			row := make(Row, len(h.columns))
			for _, c := range h.columns {
				row[c] = h.raw[c][i]
			}
			if !yield(row) {
				return
			}
		}
	}
}
