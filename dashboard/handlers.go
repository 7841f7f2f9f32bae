package dashboard

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/spektr-org/eda/engine"
	"github.com/spektr-org/eda/render"
	"github.com/spektr-org/eda/report"
)

// ============================================================================
// VIEW MODELS
// ============================================================================

// SectionSummary describes one section for the catalog API.
type SectionSummary struct {
	report.Section
	Open   bool     `json:"open"`
	Charts []string `json:"charts,omitempty"` // chart titles in order
}

// ChartView is one chart of a section as the page and the API see it.
type ChartView struct {
	Section   report.SectionID  `json:"section"`
	Index     int               `json:"index"`
	Title     string            `json:"title"`
	Caption   string            `json:"caption,omitempty"`
	Kind      engine.Kind       `json:"kind"`
	Error     string            `json:"error,omitempty"`
	MediaType string            `json:"mediaType,omitempty"`
	Href      string            `json:"href"`
	Figure    *engine.Figure    `json:"figure,omitempty"`
	Table     *engine.TableData `json:"table,omitempty"`
	Image     template.URL      `json:"-"` // inline data URI for raster/vector output
	Frame     bool              `json:"-"` // interactive output is framed from Href
}

// SectionView is a rendered section.
type SectionView struct {
	Section report.Section `json:"section"`
	Pass    string         `json:"pass"`
	Charts  []ChartView    `json:"charts"`
	Elapsed string         `json:"elapsed"`
}

// HealthStatus represents server health.
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Dataset   string    `json:"dataset"`
	Rows      int       `json:"rows"`
	Backend   string    `json:"backend"`
}

type pageView struct {
	Title       string
	Name        string
	Measures    []string
	LabelName   string
	Labels      []string
	Summary     string
	Sections    []SectionSummary
	ShowDataset bool
	ShowStats   bool
	Banner      string
}

type tableView struct {
	Heading string
	Note    string
	Tables  []*engine.TableData
	Labels  []string
	Current string
}

// ============================================================================
// PAGES
// ============================================================================

// handleIndex serves the dashboard page. Sections are empty shells here.
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	ds := s.config.Dataset
	sch := ds.Schema()

	measures := make([]string, 0, len(sch.Measures))
	for _, m := range sch.Measures {
		name := m.DisplayName
		if m.Unit != "" {
			name += " (in " + m.Unit + ")"
		}
		measures = append(measures, name)
	}

	view := pageView{
		Title:       fmt.Sprintf("%s Dataset EDA and Outlier Handling", sch.Name),
		Name:        sch.Name,
		Measures:    measures,
		LabelName:   sch.DisplayName(sch.Label.Key),
		Labels:      ds.Labels(),
		Summary:     ds.Summary().Value,
		Sections:    s.sectionSummaries(),
		ShowDataset: s.config.Selection.IsEnabled(report.SectionPreview),
		ShowStats:   s.config.Selection.IsEnabled(report.SectionStatistics),
		Banner:      report.Banner,
	}
	s.renderHTML(w, "page", view)
}

// handleSection computes and renders one collapsible section.
func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) {
	view, status, err := s.buildSection(r, chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}
	s.renderHTML(w, "section", view)
}

// handleChart serves the raw bytes of one chart.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	reqs, err := s.builder.BuildRequests(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 || index >= len(reqs) {
		http.Error(w, fmt.Sprintf("section %s has no chart %q", id, chi.URLParam(r, "index")), http.StatusNotFound)
		return
	}

	art, err := s.config.Renderer.Render(reqs[index], s.config.Dataset)
	if err != nil {
		log.WithError(err).WithField("section", id).Warn("chart failed")
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.Header().Set("Content-Type", art.MediaType)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(art.Content)
}

// handleDataset serves the raw table, optionally filtered by label.
func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	ds := s.config.Dataset
	label := ds.LabelColumn()
	species := r.URL.Query().Get(strings.ToLower(label))
	if species == "" {
		species = r.URL.Query().Get("species")
	}

	filters := engine.Filters{}.Where(label, strings.Split(species, ",")...)
	table := ds.Preview(filters)
	s.renderHTML(w, "tables", tableView{
		Heading: "Dataset Preview",
		Note:    fmt.Sprintf("%d of %d rows", len(table.Rows), ds.Len()),
		Tables:  []*engine.TableData{table},
		Labels:  ds.Labels(),
		Current: species,
	})
}

// handleStatistics serves the summary statistics tables.
func (s *Server) handleStatistics(w http.ResponseWriter, _ *http.Request) {
	ds := s.config.Dataset
	desc, err := ds.Describe()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.renderHTML(w, "tables", tableView{
		Heading: "Basic Statistics",
		Note:    ds.Summary().Value,
		Tables:  []*engine.TableData{desc, ds.GroupMeans()},
	})
}

// ============================================================================
// API
// ============================================================================

func (s *Server) handleAPISections(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.sectionSummaries())
}

func (s *Server) handleAPISection(w http.ResponseWriter, r *http.Request) {
	view, status, err := s.buildSection(r, chi.URLParam(r, "id"))
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	s.writeJSON(w, view)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Dataset:   s.config.Dataset.Source(),
		Rows:      s.config.Dataset.Len(),
		Backend:   s.config.Renderer.Backend().Name(),
	})
}

// ============================================================================
// HELPERS
// ============================================================================

func (s *Server) sectionSummaries() []SectionSummary {
	var out []SectionSummary
	for _, sec := range report.Sections() {
		sum := SectionSummary{Section: sec, Open: s.config.Selection.IsEnabled(sec.ID)}
		reqs, _ := s.builder.BuildRequests(string(sec.ID))
		for _, req := range reqs {
			sum.Charts = append(sum.Charts, req.Title())
		}
		out = append(out, sum)
	}
	return out
}

// buildSection runs one section through the renderer.
func (s *Server) buildSection(r *http.Request, id string) (*SectionView, int, error) {
	sec, err := report.Lookup(id)
	if err != nil {
		return nil, http.StatusNotFound, err
	}
	if !sec.HasCharts() {
		return nil, http.StatusNotFound, errors.Errorf("section %s has no charts", sec.ID)
	}

	rep, err := s.builder.Run(r.Context(), s.config.Dataset, s.config.Renderer, sec.ID)
	if err != nil {
		return nil, http.StatusServiceUnavailable, err
	}

	view := &SectionView{Section: sec, Pass: rep.Pass, Elapsed: rep.Elapsed.String()}
	for _, o := range rep.Outcomes {
		cv := ChartView{
			Section: o.Section,
			Index:   o.Index,
			Title:   o.Request.Title(),
			Caption: o.Request.Caption(),
			Kind:    o.Request.Kind(),
			Href:    fmt.Sprintf("/charts/%s/%d", o.Section, o.Index),
		}
		if o.Failed() {
			cv.Error = o.Message()
		} else {
			art := o.Artifact
			cv.MediaType = art.MediaType
			cv.Figure = art.Figure
			cv.Table = art.Table
			if art.Format == render.FormatHTML {
				cv.Frame = true
			} else {
				cv.Image = dataURI(art)
			}
		}
		view.Charts = append(view.Charts, cv)
	}
	return view, http.StatusOK, nil
}

func dataURI(art *render.Artifact) template.URL {
	return template.URL("data:" + art.MediaType + ";base64," + base64.StdEncoding.EncodeToString(art.Content))
}

// renderHTML executes a template into a buffer first so a template error
// never leaves a half-written page.
func (s *Server) renderHTML(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		log.WithError(err).WithField("template", name).Error("template failed")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
