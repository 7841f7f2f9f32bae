package engine

import (
	"strings"
)

// ============================================================================
// FILTERS — Dimension-based row selection via RecordView
// ============================================================================
// Single-pass filter: checks ALL dimension constraints per record in one loop.
// Returns a SubView (index list into parent), zero data copy.
// Used by the dataset preview (?species=Iris-setosa).
// ============================================================================

// Filters define which records to include.
// Keys are dimension names. Values are allowed values, case-insensitive.
// OR within a dimension, AND across dimensions. Empty = all.
type Filters struct {
	Dimensions map[string][]string `json:"dimensions"`
}

// Where returns a copy of f with one more dimension constraint.
// Empty values are dropped, so Where("Species", "") is a no-op.
func (f Filters) Where(dimension string, values ...string) Filters {
	out := Filters{Dimensions: make(map[string][]string, len(f.Dimensions)+1)}
	for k, v := range f.Dimensions {
		out.Dimensions[k] = v
	}
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out.Dimensions[dimension] = append(out.Dimensions[dimension], v)
		}
	}
	return out
}

// HasFilter returns true if a specific dimension filter is set.
func (f Filters) HasFilter(dimension string) bool {
	vals, ok := f.Dimensions[dimension]
	return ok && len(vals) > 0
}

// IsEmpty returns true if no filters are set.
func (f Filters) IsEmpty() bool {
	for _, vals := range f.Dimensions {
		if len(vals) > 0 {
			return false
		}
	}
	return true
}

// ApplyFilters returns a view of records matching all dimension filters.
// Empty filter = no restriction (returns original view).
func ApplyFilters(view RecordView, filters Filters) RecordView {
	if filters.IsEmpty() {
		return view
	}

	sets := make(map[string]map[string]bool)
	for dim, allowed := range filters.Dimensions {
		if len(allowed) > 0 {
			sets[dim] = toLowerSet(allowed)
		}
	}

	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		pass := true
		for dim, set := range sets {
			if !set[strings.ToLower(view.Dimension(i, dim))] {
				pass = false
				break
			}
		}
		if pass {
			indices = append(indices, i)
		}
	}

	return newSubView(view, indices)
}

// toLowerSet converts a string slice to a lowercase lookup set.
func toLowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(item)] = true
	}
	return set
}
