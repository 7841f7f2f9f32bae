package schema

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/pkg/errors"
)

// ============================================================================
// AUTO-DISCOVERY — Heuristic column role classification
// ============================================================================
// Inspects raw CSV and proposes a schema.Config.
//
// Classification pipeline per column:
//   1. Sample values → detect type (numeric or string)
//   2. Type + cardinality → candidate role (identifier, label, measure, skip)
//   3. Resolve: first identifier wins, lowest-cardinality label wins
//   4. Display names and units derived from the header
// ============================================================================

// DiscoverOptions controls discovery behavior.
type DiscoverOptions struct {
	SampleSize int    // Max rows to inspect (0 = all). Default: 1000
	Label      string // Force this column as the label
	Name       string // Dataset name override
}

// DefaultDiscoverOptions returns sensible defaults.
func DefaultDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{
		SampleSize: 1000,
	}
}

// DiscoverFromCSV generates a schema.Config by inspecting CSV data.
func DiscoverFromCSV(data []byte, opts ...DiscoverOptions) (*Config, error) {
	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	reader := csv.NewReader(bytes.NewReader(data))

	headers, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV headers")
	}
	if len(headers) == 0 {
		return nil, errors.New("CSV has no columns")
	}

	var rows [][]string
	limit := opt.SampleSize
	if limit <= 0 {
		limit = 100000 // safety cap
	}
	for i := 0; i < limit; i++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}
		rows = append(rows, row)
	}

	totalRows := len(rows)
	if totalRows == 0 {
		return nil, errors.New("CSV has no data rows")
	}

	columns := make([]columnAnalysis, len(headers))
	for i, header := range headers {
		columns[i] = analyzeColumn(strings.TrimSpace(header), i, rows, totalRows)
	}

	if opt.Label != "" {
		found := false
		for i := range columns {
			if columns[i].header == opt.Label {
				columns[i].role = roleLabel
				found = true
			}
		}
		if !found {
			return nil, errors.Errorf("label column %q not found in header", opt.Label)
		}
	}

	config := &Config{
		Name:           opt.Name,
		DiscoveredFrom: "CSV",
		DiscoveredAt:   time.Now().Format(time.RFC3339),
	}
	if config.Name == "" {
		config.Name = "Auto-discovered Dataset"
	}

	label := pickLabel(columns, opt.Label)

	for _, col := range columns {
		switch col.role {
		case roleIdentifier:
			if config.Identifier == "" {
				config.Identifier = col.header
				continue
			}
			config.SkippedColumns = append(config.SkippedColumns, SkippedColumn{
				Column: col.header,
				Reason: fmt.Sprintf("Second identifier column (%s already chosen)", config.Identifier),
			})

		case roleLabel:
			if col.index == label {
				config.Label = col.toLabel()
				continue
			}
			config.SkippedColumns = append(config.SkippedColumns, SkippedColumn{
				Column:      col.header,
				Reason:      fmt.Sprintf("Additional categorical column (%d values)", col.uniqueCount),
				Recoverable: true,
			})

		case roleMeasure:
			config.Measures = append(config.Measures, col.toMeasure())

		case roleSkipped:
			config.SkippedColumns = append(config.SkippedColumns, SkippedColumn{
				Column:      col.header,
				Reason:      col.skipReason,
				Recoverable: col.recoverable,
			})
		}
	}

	if len(config.Measures) == 0 {
		return nil, errors.New("CSV has no numeric measurement columns")
	}
	return config, nil
}

// pickLabel returns the column index of the label: the forced one if given,
// otherwise the label candidate with the fewest distinct values (first wins ties).
func pickLabel(columns []columnAnalysis, forced string) int {
	best := -1
	for _, col := range columns {
		if col.role != roleLabel {
			continue
		}
		if forced != "" {
			if col.header == forced {
				return col.index
			}
			continue
		}
		if col.uniqueCount < 2 {
			continue
		}
		if best < 0 || col.uniqueCount < columns[best].uniqueCount {
			best = col.index
		}
	}
	return best
}

// ============================================================================
// COLUMN ANALYSIS
// ============================================================================

type columnRole int

const (
	roleMeasure columnRole = iota
	roleLabel
	roleIdentifier
	roleSkipped
)

type columnType int

const (
	typeString columnType = iota
	typeNumeric
)

type columnAnalysis struct {
	header      string
	index       int
	colType     columnType
	role        columnRole
	skipReason  string
	recoverable bool

	// Stats
	uniqueCount int
	totalCount  int
	nullCount   int
	ordered     []string // distinct values, first-seen order
	integral    bool
	minValue    float64
}

// analyzeColumn inspects all values in a column and classifies it.
func analyzeColumn(header string, index int, rows [][]string, totalRows int) columnAnalysis {
	col := columnAnalysis{
		header:     header,
		index:      index,
		totalCount: totalRows,
		minValue:   math.Inf(1),
	}

	values := make([]string, 0, len(rows))
	seen := make(map[string]bool)

	for _, row := range rows {
		if index >= len(row) {
			col.nullCount++
			continue
		}
		val := strings.TrimSpace(row[index])
		if isNull(val) {
			col.nullCount++
			continue
		}
		values = append(values, val)
		if !seen[val] {
			seen[val] = true
			col.ordered = append(col.ordered, val)
		}
	}
	col.uniqueCount = len(col.ordered)

	if len(values) == 0 {
		col.role = roleSkipped
		col.skipReason = "All values are empty/null"
		return col
	}

	col.colType = detectType(values)
	if col.colType == typeNumeric {
		col.integral = true
		for _, v := range values {
			f, err := parseNumber(v)
			if err != nil {
				continue
			}
			if f != math.Trunc(f) || strings.Contains(v, ".") {
				col.integral = false
			}
			col.minValue = math.Min(col.minValue, f)
		}
	}

	col.classifyRole(totalRows)
	return col
}

// classifyRole determines identifier vs label vs measure vs skip.
func (col *columnAnalysis) classifyRole(totalRows int) {
	uniquePerRow := col.uniqueCount == totalRows && totalRows > 10

	switch col.colType {
	case typeNumeric:
		if uniquePerRow && col.integral {
			col.role = roleIdentifier
			return
		}
		// Few distinct whole numbers relative to row count → coded class (e.g. 0/1/2)
		uniqueRatio := float64(col.uniqueCount) / float64(totalRows)
		if col.integral && col.uniqueCount < 20 && uniqueRatio < 0.3 {
			col.role = roleLabel
			return
		}
		col.role = roleMeasure

	case typeString:
		if uniquePerRow {
			col.role = roleIdentifier
			return
		}
		if col.uniqueCount > totalRows/2 && col.uniqueCount > 50 {
			col.role = roleSkipped
			col.skipReason = fmt.Sprintf("High cardinality (%d unique values), not useful for grouping", col.uniqueCount)
			col.recoverable = true
			return
		}
		col.role = roleLabel
	}
}

// ============================================================================
// TYPE DETECTION
// ============================================================================

// detectType requires 80%+ of non-null values to parse as numbers.
func detectType(values []string) columnType {
	if len(values) == 0 {
		return typeString
	}
	numCount := 0
	for _, v := range values {
		if _, err := parseNumber(v); err == nil {
			numCount++
		}
	}
	if numCount >= int(float64(len(values))*0.8) {
		return typeNumeric
	}
	return typeString
}

func parseNumber(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "") // "1,234.56"
	return strconv.ParseFloat(s, 64)
}

func isNull(s string) bool {
	switch s {
	case "", "null", "NULL", "N/A", "n/a", "NA", "NaN":
		return true
	}
	return false
}

// ============================================================================
// CONVERSION HELPERS
// ============================================================================

func (col *columnAnalysis) toLabel() LabelMeta {
	name, _ := splitUnit(col.header)
	return LabelMeta{
		Key:         col.header,
		DisplayName: name,
		Values:      append([]string(nil), col.ordered...),
	}
}

func (col *columnAnalysis) toMeasure() MeasureMeta {
	name, unit := splitUnit(col.header)
	return MeasureMeta{
		Key:         col.header,
		DisplayName: name,
		Unit:        unit,
		NonNegative: col.minValue >= 0,
	}
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// knownUnits maps a trailing header word to its unit symbol.
var knownUnits = map[string]string{
	"cm": "cm", "mm": "mm", "m": "m", "km": "km",
	"g": "g", "kg": "kg", "mg": "mg",
	"s": "s", "ms": "ms", "sec": "s", "hours": "h", "hrs": "h", "days": "d",
	"pct": "%", "percent": "%",
}

// splitUnit derives a display name and unit from a header:
// "SepalLengthCm" → ("Sepal Length", "cm"), "body_mass_g" → ("Body Mass", "g").
func splitUnit(header string) (string, string) {
	words := strings.Fields(toDisplayName(header))
	if len(words) > 1 {
		last := strings.ToLower(strings.Trim(words[len(words)-1], "()"))
		if unit, ok := knownUnits[last]; ok {
			return strings.Join(words[:len(words)-1], " "), unit
		}
	}
	return strings.Join(words, " "), ""
}

// toDisplayName cleans a header for human display.
// "petal_width" → "Petal Width", "SepalLengthCm" → "Sepal Length Cm"
func toDisplayName(s string) string {
	var b strings.Builder
	runes := []rune(strings.TrimSpace(s))
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				b.WriteRune(' ')
			}
		}
		b.WriteRune(r)
	}

	out := strings.NewReplacer("_", " ", "-", " ").Replace(b.String())
	words := strings.Fields(out)
	for i, w := range words {
		if w == strings.ToUpper(w) && len(w) > 1 {
			continue // acronym
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
