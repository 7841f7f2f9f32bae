package schema

import "strings"

// ============================================================================
// SCHEMA — Describes the column roles of a tabular dataset
// ============================================================================
// A dataset has one identifier column (never analysed), one categorical label
// column (used for colouring and grouping) and a set of numeric measurement
// columns. The dataset loader validates rows against this shape, and the
// report builder enumerates plots over the measurement columns in order.
// ============================================================================

// Config describes the complete shape of a dataset.
type Config struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	Identifier string        `json:"identifier" yaml:"identifier"`
	Label      LabelMeta     `json:"label" yaml:"label"`
	Measures   []MeasureMeta `json:"measures" yaml:"measures"`

	// Auto-discovery metadata
	DiscoveredFrom string `json:"discoveredFrom,omitempty" yaml:"-"`
	DiscoveredAt   string `json:"discoveredAt,omitempty" yaml:"-"`

	// Columns ignored during auto-discovery
	SkippedColumns []SkippedColumn `json:"skippedColumns,omitempty" yaml:"-"`
}

// LabelMeta describes the categorical column every row is classified by.
type LabelMeta struct {
	Key         string   `json:"key" yaml:"key"`
	DisplayName string   `json:"displayName" yaml:"displayName"`
	Values      []string `json:"values" yaml:"values"` // permitted values, empty = any
}

// MeasureMeta describes a numeric measurement column.
type MeasureMeta struct {
	Key         string `json:"key" yaml:"key"`
	DisplayName string `json:"displayName" yaml:"displayName"`
	Unit        string `json:"unit,omitempty" yaml:"unit,omitempty"`
	NonNegative bool   `json:"nonNegative" yaml:"nonNegative"`
}

// SkippedColumn records why a column was excluded during auto-discovery.
type SkippedColumn struct {
	Column      string `json:"column"`
	Reason      string `json:"reason"`
	Recoverable bool   `json:"recoverable"` // can be forced back in as the label
}

// Iris returns the schema of the Iris flower measurements dataset.
func Iris() Config {
	return Config{
		Name:        "Iris",
		Description: "150 iris flowers, four measurements in centimetres, three species.",
		Identifier:  "Id",
		Label: LabelMeta{
			Key:         "Species",
			DisplayName: "Species",
			Values:      []string{"Iris-setosa", "Iris-versicolor", "Iris-virginica"},
		},
		Measures: []MeasureMeta{
			{Key: "SepalLengthCm", DisplayName: "Sepal Length", Unit: "cm", NonNegative: true},
			{Key: "SepalWidthCm", DisplayName: "Sepal Width", Unit: "cm", NonNegative: true},
			{Key: "PetalLengthCm", DisplayName: "Petal Length", Unit: "cm", NonNegative: true},
			{Key: "PetalWidthCm", DisplayName: "Petal Width", Unit: "cm", NonNegative: true},
		},
	}
}

// MeasureKeys returns all measure keys in declaration order.
func (c Config) MeasureKeys() []string {
	keys := make([]string, len(c.Measures))
	for i, m := range c.Measures {
		keys[i] = m.Key
	}
	return keys
}

// RequiredColumns lists every column a conforming source must carry.
func (c Config) RequiredColumns() []string {
	cols := make([]string, 0, len(c.Measures)+2)
	if c.Identifier != "" {
		cols = append(cols, c.Identifier)
	}
	cols = append(cols, c.MeasureKeys()...)
	if c.Label.Key != "" {
		cols = append(cols, c.Label.Key)
	}
	return cols
}

// Measure looks up a measure by key.
func (c Config) Measure(key string) (MeasureMeta, bool) {
	for _, m := range c.Measures {
		if m.Key == key {
			return m, true
		}
	}
	return MeasureMeta{}, false
}

// IsMeasure reports whether key names a measurement column.
func (c Config) IsMeasure(key string) bool {
	_, ok := c.Measure(key)
	return ok
}

// DisplayName returns the human label for any column key.
func (c Config) DisplayName(key string) string {
	if m, ok := c.Measure(key); ok && m.DisplayName != "" {
		return m.DisplayName
	}
	if key == c.Label.Key && c.Label.DisplayName != "" {
		return c.Label.DisplayName
	}
	return key
}

// AllowsLabel reports whether v is a permitted label value.
// Matching is exact; an empty value list permits anything non-empty.
func (c Config) AllowsLabel(v string) bool {
	if strings.TrimSpace(v) == "" {
		return false
	}
	if len(c.Label.Values) == 0 {
		return true
	}
	for _, allowed := range c.Label.Values {
		if v == allowed {
			return true
		}
	}
	return false
}
