package engine

// ============================================================================
// ENGINE TYPES — Backend-independent chart and table models
// ============================================================================
// The engine turns a PlotRequest plus a RecordView into a Figure: panels,
// series, bins, box statistics and matrices, all computed and ready to draw.
// Backends (gonum/plot, go-echarts) only translate a Figure into pixels or
// markup. Nothing here knows about files, HTTP or rendering libraries.
// ============================================================================

// ============================================================================
// RECORD — Generic data row
// ============================================================================

// Record is a single data row with string dimensions and numeric measures.
// Iris: Dimensions["Species"]="Iris-setosa", Measures["PetalWidthCm"]=0.2
type Record struct {
	Dimensions map[string]string  `json:"dimensions"`
	Measures   map[string]float64 `json:"measures"`
}

// ============================================================================
// GROUP — Intermediate computation result
// ============================================================================

// Group represents a grouped/aggregated slice of a view.
type Group struct {
	Key   string     `json:"key"`
	Label string     `json:"label"`
	Value float64    `json:"value"`
	Count int        `json:"count"`
	View  RecordView `json:"-"` // records in this group (zero-copy)
}

// ============================================================================
// FIGURE TYPES
// ============================================================================

// PanelType tells a backend which primitive draws a panel.
type PanelType string

const (
	PanelScatter   PanelType = "scatter"
	PanelHistogram PanelType = "histogram"
	PanelDensity   PanelType = "density"
	PanelHeatmap   PanelType = "heatmap"
	PanelBox       PanelType = "box"
)

// Figure is the render-ready output of one PlotRequest: a grid of panels
// sharing one legend.
type Figure struct {
	Kind   Kind    `json:"kind"`
	Title  string  `json:"title"`
	Rows   int     `json:"rows"`
	Cols   int     `json:"cols"`
	Width  float64 `json:"width"`  // inches
	Height float64 `json:"height"` // inches
	Panels []Panel `json:"panels"`
	Legend Legend  `json:"legend"`
}

// Panel returns the panel at grid position (row, col), or nil.
func (f *Figure) Panel(row, col int) *Panel {
	for i := range f.Panels {
		if f.Panels[i].Row == row && f.Panels[i].Col == col {
			return &f.Panels[i]
		}
	}
	return nil
}

// Legend maps series names to colours. Outside places it right of the plot area.
type Legend struct {
	Show    bool          `json:"show"`
	Outside bool          `json:"outside"`
	Title   string        `json:"title,omitempty"`
	Entries []LegendEntry `json:"entries,omitempty"`
}

// LegendEntry is one legend line.
type LegendEntry struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Panel is a single set of axes.
type Panel struct {
	Row        int       `json:"row"`
	Col        int       `json:"col"`
	Type       PanelType `json:"type"`
	Title      string    `json:"title,omitempty"`
	XAxis      string    `json:"xAxis,omitempty"`
	YAxis      string    `json:"yAxis,omitempty"`
	Series     []Series  `json:"series,omitempty"`
	Categories []string  `json:"categories,omitempty"` // box panels: one per label; heatmap: column names

	// Heatmap panels only
	Matrix   *CorrelationMatrix `json:"matrix,omitempty"`
	Colormap string             `json:"colormap,omitempty"`
	Annotate bool               `json:"annotate,omitempty"`
}

// Series is one coloured layer of a panel.
type Series struct {
	Name   string    `json:"name"`
	Color  string    `json:"color"`
	Fill   bool      `json:"fill,omitempty"`
	Alpha  float64   `json:"alpha,omitempty"`
	Points []Point   `json:"points,omitempty"` // scatter, density curve
	Bins   []Bin     `json:"bins,omitempty"`   // histogram
	Box    *BoxStats `json:"box,omitempty"`    // box
}

// Point is an (x, y) pair.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bin is a histogram bucket [Min, Max) (the last bin is closed).
type Bin struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// BoxStats is a five-number summary with Tukey whiskers.
type BoxStats struct {
	Min        float64   `json:"min"`
	Q1         float64   `json:"q1"`
	Median     float64   `json:"median"`
	Q3         float64   `json:"q3"`
	Max        float64   `json:"max"`
	LowerFence float64   `json:"lowerFence"` // lowest datum ≥ Q1 - k·IQR
	UpperFence float64   `json:"upperFence"` // highest datum ≤ Q3 + k·IQR
	Outliers   []float64 `json:"outliers,omitempty"`
}

// CorrelationMatrix is a square, symmetric coefficient matrix.
// Values[i][j] is the coefficient of Columns[i] against Columns[j].
type CorrelationMatrix struct {
	Method  string      `json:"method"`
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"`
}

// At returns the coefficient between two named columns.
func (m *CorrelationMatrix) At(a, b string) (float64, bool) {
	i, j := -1, -1
	for k, c := range m.Columns {
		if c == a {
			i = k
		}
		if c == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Values[i][j], true
}

// ============================================================================
// RESULT
// ============================================================================

// Result is the engine's output for one PlotRequest.
type Result struct {
	Request     PlotRequest        `json:"-"`
	Figure      *Figure            `json:"figure"`
	Table       *TableData         `json:"table,omitempty"`
	Correlation *CorrelationMatrix `json:"correlation,omitempty"`
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData defines how to render a table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Headers returns the column labels in order.
func (t *TableData) Headers() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Label
	}
	return out
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number"
	Align string `json:"align"` // "left", "center", "right"
}

// Summary provides a footer line for a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}
