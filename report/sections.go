package report

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ============================================================================
// SECTIONS — The fixed catalog of report regions
// ============================================================================
// Two sidebar toggles (preview, statistics) show tables; six collapsible
// sections each hold one chart family. Everything starts closed: a section
// that is not enabled is never built and never rendered.
// ============================================================================

// SectionID names one region of the report.
type SectionID string

const (
	SectionPreview     SectionID = "preview"
	SectionStatistics  SectionID = "statistics"
	SectionScatter     SectionID = "scatter"
	SectionPair        SectionID = "pair"
	SectionHistogram   SectionID = "histogram"
	SectionKDE         SectionID = "kde"
	SectionCorrelation SectionID = "correlation"
	SectionBoxPlot     SectionID = "boxplot"
)

// Section is the static description of a report region.
type Section struct {
	ID      SectionID `json:"id"`
	Title   string    `json:"title"`             // expander / sidebar label
	Heading string    `json:"heading,omitempty"` // subheader inside the section
	Caption string    `json:"caption,omitempty"`
	Toggle  bool      `json:"toggle"` // sidebar checkbox rather than collapsible section
}

// HasCharts reports whether the section produces plot requests.
func (s Section) HasCharts() bool { return !s.Toggle }

var catalog = []Section{
	{ID: SectionPreview, Title: "Show Dataset", Heading: "Dataset Preview", Toggle: true},
	{ID: SectionStatistics, Title: "Show Statistics", Heading: "Basic Statistics", Toggle: true},
	{ID: SectionScatter, Title: "Scatter Plots"},
	{ID: SectionPair, Title: "Pair Plot", Heading: "Pair Plot",
		Caption: "Exploring pairwise relationships between all variables."},
	{ID: SectionHistogram, Title: "Histograms", Heading: "Histograms",
		Caption: "Exploring the distribution of each variable."},
	{ID: SectionKDE, Title: "KDE Plots", Heading: "KDE Plots",
		Caption: "Visualizing the smoothed density distributions for each variable."},
	{ID: SectionCorrelation, Title: "Correlation Matrix", Heading: "Correlation Matrix",
		Caption: "Checking linear relationships between numerical variables."},
	{ID: SectionBoxPlot, Title: "Box Plots", Heading: "Box Plots",
		Caption: "Box plots highlight distributions and outliers for each variable across species."},
}

// Sections returns the catalog in report order.
func Sections() []Section {
	return append([]Section(nil), catalog...)
}

// ChartSections returns the ids of the collapsible chart sections in order.
func ChartSections() []SectionID {
	var ids []SectionID
	for _, s := range catalog {
		if s.HasCharts() {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// Lookup finds a section by id. Matching ignores case and surrounding space.
func Lookup(id string) (Section, error) {
	want := SectionID(strings.ToLower(strings.TrimSpace(id)))
	for _, s := range catalog {
		if s.ID == want {
			return s, nil
		}
	}
	return Section{}, errors.Errorf("unknown section %q", id)
}

func position(id SectionID) int {
	for i, s := range catalog {
		if s.ID == id {
			return i
		}
	}
	return len(catalog)
}

// ============================================================================
// SELECTION
// ============================================================================

// Selection records which sections are open. The zero value has every
// section closed. Selections are values: With and Without return copies.
type Selection struct {
	open map[SectionID]bool
}

// NewSelection opens the named sections. "all" opens every section.
func NewSelection(ids ...string) (Selection, error) {
	sel := Selection{}
	for _, id := range ids {
		if strings.EqualFold(strings.TrimSpace(id), "all") {
			for _, s := range catalog {
				sel = sel.With(s.ID)
			}
			continue
		}
		s, err := Lookup(id)
		if err != nil {
			return Selection{}, err
		}
		sel = sel.With(s.ID)
	}
	return sel, nil
}

// With returns a copy of the selection with the given sections opened.
func (s Selection) With(ids ...SectionID) Selection {
	out := Selection{open: make(map[SectionID]bool, len(s.open)+len(ids))}
	for id := range s.open {
		out.open[id] = true
	}
	for _, id := range ids {
		out.open[id] = true
	}
	return out
}

// Without returns a copy of the selection with the given sections closed.
func (s Selection) Without(ids ...SectionID) Selection {
	out := s.With()
	for _, id := range ids {
		delete(out.open, id)
	}
	return out
}

// IsEnabled reports whether a section is open.
func (s Selection) IsEnabled(id SectionID) bool { return s.open[id] }

// EnabledSections returns the open sections in catalog order.
func (s Selection) EnabledSections() []SectionID {
	ids := make([]SectionID, 0, len(s.open))
	for id := range s.open {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return position(ids[i]) < position(ids[j]) })
	return ids
}

// EnabledCharts returns the open chart sections in catalog order.
func (s Selection) EnabledCharts() []SectionID {
	var ids []SectionID
	for _, id := range s.EnabledSections() {
		if sec, err := Lookup(string(id)); err == nil && sec.HasCharts() {
			ids = append(ids, id)
		}
	}
	return ids
}
