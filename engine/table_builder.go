package engine

import (
	"fmt"
	"strconv"
)

// ============================================================================
// TABLE BUILDER — Produces TableData for the numeric side of a report
// ============================================================================
// All functions operate on RecordView for zero-copy access to any data source.
// ============================================================================

// BuildCorrelationTable lays a correlation matrix out as a square table.
func BuildCorrelationTable(m *CorrelationMatrix) *TableData {
	columns := make([]Column, 0, len(m.Columns)+1)
	columns = append(columns, Column{Key: "column", Label: "", Type: "text", Align: "left"})
	for _, c := range m.Columns {
		columns = append(columns, Column{Key: c, Label: c, Type: "number", Align: "right"})
	}

	rows := make([][]string, 0, len(m.Columns))
	for i, c := range m.Columns {
		row := make([]string, 0, len(m.Columns)+1)
		row = append(row, c)
		for j := range m.Columns {
			row = append(row, fmt.Sprintf("%.6f", m.Values[i][j]))
		}
		rows = append(rows, row)
	}

	return &TableData{
		Title:   "Correlation Matrix",
		Columns: columns,
		Rows:    rows,
	}
}

// BuildRecordTable lists records, one row each, in the given column order.
// Measures are printed in their shortest exact form.
func BuildRecordTable(title string, view RecordView, columns []string) *TableData {
	cols := make([]Column, 0, len(columns))
	for _, key := range columns {
		if view.HasMeasure(key) {
			cols = append(cols, Column{Key: key, Label: key, Type: "number", Align: "right"})
		} else {
			cols = append(cols, Column{Key: key, Label: key, Type: "text", Align: "left"})
		}
	}

	rows := make([][]string, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		row := make([]string, 0, len(cols))
		for _, c := range cols {
			if c.Type == "number" {
				row = append(row, strconv.FormatFloat(view.Measure(i, c.Key), 'f', -1, 64))
			} else {
				row = append(row, view.Dimension(i, c.Key))
			}
		}
		rows = append(rows, row)
	}

	return &TableData{
		Title:   title,
		Columns: cols,
		Rows:    rows,
		Summary: &Summary{
			Label:  fmt.Sprintf("%d rows", view.Len()),
			Values: map[string]string{},
		},
	}
}

// BuildGroupTable aggregates every measure per value of one dimension:
// one row per group, one column per measure.
func BuildGroupTable(title string, view RecordView, dimension string, measures []string, aggregation string) *TableData {
	columns := []Column{
		{Key: "group", Label: dimension, Type: "text", Align: "left"},
		{Key: "count", Label: "Count", Type: "number", Align: "center"},
	}
	for _, m := range measures {
		columns = append(columns, Column{
			Key:   m,
			Label: fmt.Sprintf("%s %s", LabelForAggregation(aggregation), m),
			Type:  "number",
			Align: "right",
		})
	}

	groups := GroupBySingle(view, dimension)
	rows := make([][]string, len(groups))
	for i, g := range groups {
		rows[i] = []string{g.Label, fmt.Sprintf("%d", g.Count)}
	}
	for _, m := range measures {
		for i, g := range GroupAndAggregate(view, dimension, m, aggregation) {
			rows[i] = append(rows[i], fmt.Sprintf("%.3f", g.Value))
		}
	}

	return &TableData{
		Title:   title,
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{
			Label:  "Total",
			Values: map[string]string{"count": fmt.Sprintf("%d", view.Len())},
		},
	}
}
