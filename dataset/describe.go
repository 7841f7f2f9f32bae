package dataset

import (
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"

	"github.com/spektr-org/eda/engine"
)

// ============================================================================
// DESCRIBE — Tables behind the "Show Dataset" and "Show Statistics" toggles
// ============================================================================

// Frame returns the numeric columns as a float-typed gota DataFrame.
func (h *Handle) Frame() dataframe.DataFrame {
	cols := make([]series.Series, 0, len(h.numeric))
	for _, name := range h.numeric {
		cols = append(cols, series.New(h.floats[name], series.Float, name))
	}
	return dataframe.New(cols...)
}

// Describe computes count, mean, spread and quantiles of every numeric column.
// The identifier is not a measurement and is left out.
func (h *Handle) Describe() (*engine.TableData, error) {
	desc := h.Frame().Describe()
	if desc.Err != nil {
		return nil, errors.Wrap(desc.Err, "describe")
	}

	columns := []engine.Column{{Key: "statistic", Label: "", Type: "text", Align: "left"}}
	for _, name := range h.numeric {
		columns = append(columns, engine.Column{Key: name, Label: name, Type: "number", Align: "right"})
	}

	stats := desc.Col("column").Records()
	values := make([][]float64, len(h.numeric))
	for j, name := range h.numeric {
		values[j] = desc.Col(name).Float()
	}

	rows := make([][]string, 0, len(stats)+1)
	count := []string{"count"}
	for range h.numeric {
		count = append(count, strconv.Itoa(h.Len()))
	}
	rows = append(rows, count)
	for i, stat := range stats {
		row := []string{stat}
		for j := range h.numeric {
			row = append(row, strconv.FormatFloat(values[j][i], 'f', 4, 64))
		}
		rows = append(rows, row)
	}

	return &engine.TableData{
		Title:   "Summary Statistics",
		Columns: columns,
		Rows:    rows,
	}, nil
}

// GroupMeans averages every numeric column per label.
func (h *Handle) GroupMeans() *engine.TableData {
	return engine.BuildGroupTable("Means by "+h.LabelColumn(), h.view, h.LabelColumn(), h.numeric, "avg")
}

// Preview lists the raw rows that pass filters, every column in header order.
func (h *Handle) Preview(filters engine.Filters) *engine.TableData {
	title := h.schema.Name + " Dataset"
	if label := h.LabelColumn(); filters.HasFilter(label) {
		title += " (" + strings.Join(filters.Dimensions[label], ", ") + ")"
	}
	view := engine.ApplyFilters(h.view, filters)
	return engine.BuildRecordTable(title, view, h.columns)
}

// Summary is a one-line description of size and label balance.
func (h *Handle) Summary() *engine.TextData {
	return engine.BuildSummaryText(h.view, h.LabelColumn(), h.numeric)
}
