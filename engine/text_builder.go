package engine

import (
	"fmt"
	"strings"
)

// ============================================================================
// TEXT BUILDER — One-line dataset summaries
// ============================================================================

// TextData is a short human-readable answer plus the numbers behind it.
type TextData struct {
	Value    string       `json:"value"`
	Count    int          `json:"count"`
	Measures int          `json:"measures"`
	Groups   []GroupCount `json:"groups,omitempty"`
}

// GroupCount is a label and how many rows carry it.
type GroupCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// BuildSummaryText describes a view: its size, measure count and label balance.
//
//	"150 rows, 4 measurements, 3 Species: Iris-setosa (50), Iris-versicolor (50), Iris-virginica (50)."
func BuildSummaryText(view RecordView, dimension string, measures []string) *TextData {
	td := &TextData{Count: view.Len(), Measures: len(measures)}
	if view.Len() == 0 {
		td.Value = "No rows loaded."
		return td
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d rows, %d measurements", view.Len(), len(measures))

	if dimension != "" {
		groups := GroupBySingle(view, dimension)
		parts := make([]string, len(groups))
		for i, g := range groups {
			td.Groups = append(td.Groups, GroupCount{Label: g.Label, Count: g.Count})
			parts[i] = fmt.Sprintf("%s (%d)", g.Label, g.Count)
		}
		fmt.Fprintf(&b, ", %d %s: %s", len(groups), dimension, strings.Join(parts, ", "))
	}
	b.WriteString(".")

	td.Value = b.String()
	return td
}
