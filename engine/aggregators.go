package engine

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ============================================================================
// AGGREGATORS — Grouping, Aggregation and Value Extraction via RecordView
// ============================================================================
// All functions operate on RecordView for zero-copy access to any data source.
// Grouping produces SubViews (index lists into parent view) in first-seen
// order, which is what fixes label → colour assignment across every chart.
// ============================================================================

// GroupAndAggregate groups a view by one dimension and aggregates a measure
// per group. An empty dimension yields a single "all" group.
func GroupAndAggregate(view RecordView, dimension, measure, aggregation string) []Group {
	if view.Len() == 0 {
		return nil
	}

	var groups []Group
	if dimension == "" {
		groups = []Group{{Key: "all", Label: "All", View: view}}
	} else {
		groups = GroupBySingle(view, dimension)
	}

	for i := range groups {
		aggregateGroup(&groups[i], measure, aggregation)
	}
	return groups
}

// ============================================================================
// GROUPING
// ============================================================================

// GroupBySingle splits a view by the values of one dimension, keeping the
// order in which values first appear.
func GroupBySingle(view RecordView, dimension string) []Group {
	grouped := make(map[string][]int)
	order := make([]string, 0)

	for i := 0; i < view.Len(); i++ {
		key := view.Dimension(i, dimension)
		if _, exists := grouped[key]; !exists {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], i)
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		groups = append(groups, Group{
			Key:   key,
			Label: key,
			Count: len(grouped[key]),
			View:  newSubView(view, grouped[key]),
		})
	}
	return groups
}

// ============================================================================
// AGGREGATION — gonum reductions over one measure column
// ============================================================================

func aggregateGroup(group *Group, measure string, aggregation string) {
	group.Count = group.View.Len()
	if group.Count == 0 {
		return
	}

	values := MeasureValues(group.View, measure)
	switch aggregation {
	case "sum":
		group.Value = floats.Sum(values)
	case "count":
		group.Value = float64(group.Count)
	case "max":
		group.Value = floats.Max(values)
	case "min":
		group.Value = floats.Min(values)
	case "median":
		sort.Float64s(values)
		group.Value = Percentile(values, 50)
	case "std":
		group.Value = stat.StdDev(values, nil)
	default:
		group.Value = stat.Mean(values, nil)
	}
}

// MeasureValues copies a measure column out of a view in row order.
func MeasureValues(view RecordView, measure string) []float64 {
	out := make([]float64, view.Len())
	for i := range out {
		out[i] = view.Measure(i, measure)
	}
	return out
}

// LabelForAggregation is the column heading prefix for an aggregation.
func LabelForAggregation(aggregation string) string {
	switch aggregation {
	case "sum":
		return "Total"
	case "count":
		return "Count"
	case "max":
		return "Max"
	case "min":
		return "Min"
	case "median":
		return "Median"
	case "std":
		return "Std"
	default:
		return "Mean"
	}
}
