package dashboard

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/eda/dataset"
	"github.com/spektr-org/eda/render"
	"github.com/spektr-org/eda/report"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

func newTestServer(t *testing.T, backend render.Backend, open ...string) *httptest.Server {
	t.Helper()
	ds, err := dataset.Iris()
	require.NoError(t, err)
	sel, err := report.NewSelection(open...)
	require.NoError(t, err)

	srv, err := New(Config{
		Dataset:     ds,
		Renderer:    render.New(backend),
		Selection:   sel,
		Parallelism: 2,
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, ts *httptest.Server, path string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestNewRequiresDatasetAndRenderer(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)

	ds, err := dataset.Iris()
	require.NoError(t, err)
	_, err = New(Config{Dataset: ds})
	require.Error(t, err)
}

func TestIndex(t *testing.T) {
	ts := newTestServer(t, render.NewGonum(render.FormatPNG), "kde")

	resp, body := get(t, ts, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	assert.Contains(t, body, "Iris Dataset EDA and Outlier Handling")
	assert.Contains(t, body, "Show Dataset")
	assert.Contains(t, body, "Show Statistics")
	assert.Contains(t, body, "Sepal Length (in cm)")
	assert.Contains(t, body, "<strong>Iris-virginica</strong>")
	assert.Contains(t, body, report.Banner)

	for _, id := range report.ChartSections() {
		assert.Contains(t, body, `id="section-`+string(id)+`"`)
	}
	assert.Contains(t, body, `data-src="/sections/kde" open`)
	assert.NotContains(t, body, `data-src="/sections/pair" open`)

	// Sections are shells until opened: no chart is inlined in the page.
	assert.NotContains(t, body, "data:image/png")
}

func TestSectionFragment(t *testing.T) {
	ts := newTestServer(t, render.NewGonum(render.FormatPNG))

	resp, body := get(t, ts, "/sections/histogram")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 4, strings.Count(body, `<img src="data:image/png;base64,`))
	assert.Contains(t, body, "Exploring the distribution of each variable.")
	assert.Contains(t, body, "<h4>Sepal Width</h4>")
	assert.Contains(t, body, `href="/charts/histogram/3"`)

	resp, body = get(t, ts, "/sections/correlation")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<th>PetalWidthCm</th>")
	assert.Contains(t, body, "1.000000")

	resp, _ = get(t, ts, "/sections/violin")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = get(t, ts, "/sections/preview")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSectionFragmentInteractive(t *testing.T) {
	ts := newTestServer(t, render.NewECharts())

	resp, body := get(t, ts, "/sections/scatter")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, strings.Count(body, "<iframe"))
	assert.Contains(t, body, `src="/charts/scatter/1"`)
	assert.Contains(t, body, "Visualizing the relationship between Petal Length and Petal Width.")

	resp, body = get(t, ts, "/charts/scatter/1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, "echarts")
}

func TestChart(t *testing.T) {
	ts := newTestServer(t, render.NewGonum(render.FormatPNG))

	resp, body := get(t, ts, "/charts/boxplot/0")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	assert.True(t, strings.HasPrefix(body, "\x89PNG"))

	for _, path := range []string{"/charts/boxplot/4", "/charts/boxplot/-1", "/charts/boxplot/x", "/charts/violin/0"} {
		resp, _ = get(t, ts, path)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestDatasetAndStatistics(t *testing.T) {
	ts := newTestServer(t, render.NewGonum(render.FormatPNG))

	resp, body := get(t, ts, "/dataset")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "150 of 150 rows")
	assert.Contains(t, body, "<th>SepalLengthCm</th>")

	_, body = get(t, ts, "/dataset?species=Iris-setosa")
	assert.Contains(t, body, "50 of 150 rows")
	assert.Contains(t, body, `<option value="Iris-setosa" selected>`)

	_, body = get(t, ts, "/dataset?species=Iris-setosa,Iris-virginica")
	assert.Contains(t, body, "100 of 150 rows")

	resp, body = get(t, ts, "/statistics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Summary Statistics")
	assert.Contains(t, body, "5.8433")
	assert.NotContains(t, body, "<th>Id</th>")
	assert.Contains(t, body, "150 rows, 4 measurements")
}

func TestAPI(t *testing.T) {
	ts := newTestServer(t, render.NewGonum(render.FormatSVG), "scatter")

	resp, body := get(t, ts, "/api/sections")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var sections []SectionSummary
	require.NoError(t, json.Unmarshal([]byte(body), &sections))
	require.Len(t, sections, len(report.Sections()))
	assert.Equal(t, report.SectionPreview, sections[0].ID)
	assert.True(t, sections[2].Open)
	assert.Equal(t, []string{"Sepal Length", "Sepal Width", "Petal Length", "Petal Width"}, sections[4].Charts)

	resp, body = get(t, ts, "/api/sections/boxplot")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view SectionView
	require.NoError(t, json.Unmarshal([]byte(body), &view))
	require.Len(t, view.Charts, 4)
	for i, c := range view.Charts {
		assert.Equal(t, i, c.Index)
		assert.Empty(t, c.Error)
		assert.Equal(t, "image/svg+xml", c.MediaType)
		require.NotNil(t, c.Figure)
		assert.Equal(t, []string{"Iris-setosa", "Iris-versicolor", "Iris-virginica"}, c.Figure.Panels[0].Categories)
	}

	resp, body = get(t, ts, "/api/sections/violin")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, `"error"`)

	resp, body = get(t, ts, "/api/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health HealthStatus
	require.NoError(t, json.Unmarshal([]byte(body), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, 150, health.Rows)
	assert.Equal(t, "gonum", health.Backend)
}
