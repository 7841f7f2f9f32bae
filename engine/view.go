package engine

import "sort"

// ============================================================================
// RECORD VIEW — Zero-Copy Data Access Interface
// ============================================================================
// The engine never owns consumer data. It reads through this interface.
//
// Implementations:
//   SliceView: wraps []Record (dataset handle, CSV helper, tests)
//   SubView:   filtered or grouped subset (indices into parent, zero-copy)
// ============================================================================

// RecordView provides indexed access to a dataset.
// The engine calls Dimension/Measure in tight loops; keep implementations fast.
type RecordView interface {
	Len() int
	Dimension(index int, key string) string
	Measure(index int, key string) float64
	HasMeasure(key string) bool
	DimensionKeys() []string // available dimension keys
	MeasureKeys() []string   // available measure keys
}

// ============================================================================
// SLICE VIEW — wraps []Record
// ============================================================================

// SliceView wraps a []Record slice as a RecordView.
type SliceView struct {
	records []Record
	dimKeys []string
	mesKeys []string
	mesSet  map[string]bool
}

// NewSliceView creates a RecordView from a []Record slice.
// Keys are discovered from the records in sorted order.
func NewSliceView(records []Record) RecordView {
	v := &SliceView{records: records}
	v.cacheKeys()
	return v
}

// NewSliceViewWithKeys creates a RecordView with an explicit key order,
// typically the CSV header order.
func NewSliceViewWithKeys(records []Record, dimKeys, mesKeys []string) RecordView {
	v := &SliceView{
		records: records,
		dimKeys: append([]string(nil), dimKeys...),
		mesKeys: append([]string(nil), mesKeys...),
	}
	v.indexMeasures()
	return v
}

func (v *SliceView) cacheKeys() {
	dimSeen := make(map[string]bool)
	mesSeen := make(map[string]bool)
	for _, r := range v.records {
		for k := range r.Dimensions {
			dimSeen[k] = true
		}
		for k := range r.Measures {
			mesSeen[k] = true
		}
	}
	v.dimKeys = sortedKeys(dimSeen)
	v.mesKeys = sortedKeys(mesSeen)
	v.indexMeasures()
}

func (v *SliceView) indexMeasures() {
	v.mesSet = make(map[string]bool, len(v.mesKeys))
	for _, k := range v.mesKeys {
		v.mesSet[k] = true
	}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (v *SliceView) Len() int { return len(v.records) }

func (v *SliceView) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.records) {
		return ""
	}
	return v.records[i].Dimensions[key]
}

func (v *SliceView) Measure(i int, key string) float64 {
	if i < 0 || i >= len(v.records) {
		return 0
	}
	return v.records[i].Measures[key]
}

func (v *SliceView) HasMeasure(key string) bool { return v.mesSet[key] }
func (v *SliceView) DimensionKeys() []string    { return append([]string(nil), v.dimKeys...) }
func (v *SliceView) MeasureKeys() []string      { return append([]string(nil), v.mesKeys...) }

// ============================================================================
// SUB VIEW — filtered subset (zero-copy)
// ============================================================================

// SubView is a filtered subset of a parent RecordView.
// Holds indices into the parent, no data copy.
type SubView struct {
	parent  RecordView
	indices []int
}

func newSubView(parent RecordView, indices []int) RecordView {
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.indices) {
		return ""
	}
	return v.parent.Dimension(v.indices[i], key)
}

func (v *SubView) Measure(i int, key string) float64 {
	if i < 0 || i >= len(v.indices) {
		return 0
	}
	return v.parent.Measure(v.indices[i], key)
}

func (v *SubView) HasMeasure(key string) bool { return v.parent.HasMeasure(key) }
func (v *SubView) DimensionKeys() []string    { return v.parent.DimensionKeys() }
func (v *SubView) MeasureKeys() []string      { return v.parent.MeasureKeys() }
