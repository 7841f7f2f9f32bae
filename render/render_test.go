package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/spektr-org/eda/dataset"
	"github.com/spektr-org/eda/engine"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

var numeric = []string{"SepalLengthCm", "SepalWidthCm", "PetalLengthCm", "PetalWidthCm"}

// catalog is one request of every kind, the way the report asks for them.
func catalog() []engine.PlotRequest {
	return []engine.PlotRequest{
		mustRequest(engine.KindScatter, numeric[:2], engine.GroupBy("Species"), engine.WithParam(engine.ParamLegend, "outside")),
		mustRequest(engine.KindPair, numeric, engine.GroupBy("Species"), engine.WithFloat(engine.ParamHeight, 2)),
		mustRequest(engine.KindHistogram, numeric[:1], engine.WithBins(7), engine.WithColor("skyblue")),
		mustRequest(engine.KindKDE, numeric[2:3], engine.GroupBy("Species"), engine.WithFloat(engine.ParamAlpha, 0.5)),
		mustRequest(engine.KindCorrelation, numeric, engine.WithParam(engine.ParamAnnotate, "true")),
		mustRequest(engine.KindBoxPlot, numeric[3:], engine.GroupBy("Species")),
	}
}

func mustRequest(kind engine.Kind, columns []string, opts ...engine.RequestOption) engine.PlotRequest {
	req, err := engine.NewPlotRequest(kind, columns, opts...)
	if err != nil {
		panic(err)
	}
	return req
}

type viewDataset struct{ view engine.RecordView }

func (d viewDataset) View() engine.RecordView { return d.view }

type panicBackend struct{ *Gonum }

func (panicBackend) Encode(*engine.Figure) ([]byte, error) { panic("boom") }

func TestRenderBackends(t *testing.T) {
	Convey("Given the Iris dataset", t, func() {
		ds, err := dataset.Iris()
		So(err, ShouldBeNil)

		Convey("the gonum backend draws every kind as PNG", func() {
			r := New(NewGonum(FormatPNG))
			for _, req := range catalog() {
				art, err := r.Render(req, ds)
				So(err, ShouldBeNil)
				So(art.MediaType, ShouldEqual, "image/png")
				So(bytes.HasPrefix(art.Content, []byte("\x89PNG")), ShouldBeTrue)
				So(art.Title, ShouldEqual, req.Title())
				So(art.Kind, ShouldEqual, req.Kind())
				So(art.Figure, ShouldNotBeNil)
			}
		})

		Convey("the gonum backend can write SVG", func() {
			b, err := Lookup(BackendGonum, FormatSVG)
			So(err, ShouldBeNil)
			art, err := New(b).Render(catalog()[4], ds)
			So(err, ShouldBeNil)
			So(art.MediaType, ShouldEqual, "image/svg+xml")
			So(string(art.Content), ShouldContainSubstring, "<svg")
		})

		Convey("the echarts backend writes an HTML page per figure", func() {
			r := New(NewECharts())
			for _, req := range catalog() {
				art, err := r.Render(req, ds)
				So(err, ShouldBeNil)
				So(art.Format, ShouldEqual, FormatHTML)
				html := string(art.Content)
				So(html, ShouldContainSubstring, "<html")
				So(html, ShouldContainSubstring, "echarts")
			}
		})

		Convey("the correlation artifact carries its numeric table", func() {
			art, err := New(NewGonum(FormatPNG)).Render(catalog()[4], ds)
			So(err, ShouldBeNil)
			So(art.Table, ShouldNotBeNil)
			So(art.Table.Rows, ShouldHaveLength, 4)
			So(art.Table.Headers(), ShouldNotContain, "Id")
			v, ok := art.Figure.Panels[0].Matrix.At("PetalLengthCm", "PetalWidthCm")
			So(ok, ShouldBeTrue)
			So(v, ShouldAlmostEqual, 0.9628, 0.0001)
		})

		Convey("engine options reach the figure", func() {
			r := New(NewGonum(FormatPNG), WithEngineOptions(engine.WithKDEGridSize(50)))
			art, err := r.Render(catalog()[3], ds)
			So(err, ShouldBeNil)
			series := art.Figure.Panels[0].Series
			So(series, ShouldHaveLength, 3)
			for _, s := range series {
				So(s.Points, ShouldHaveLength, 50)
				So(s.Alpha, ShouldEqual, 0.5)
			}
		})

		Convey("rendering twice yields identical figures", func() {
			r := New(NewGonum(FormatPNG))
			for _, req := range catalog() {
				a, err := r.Render(req, ds)
				So(err, ShouldBeNil)
				b, err := r.Render(req, ds)
				So(err, ShouldBeNil)
				So(b.Figure, ShouldResemble, a.Figure)
			}
		})
	})
}

func TestRenderErrors(t *testing.T) {
	Convey("Failures come back as RenderError", t, func() {
		ds, err := dataset.Iris()
		So(err, ShouldBeNil)
		r := New(NewGonum(FormatPNG))

		Convey("an unknown column", func() {
			req := mustRequest(engine.KindHistogram, []string{"Id"}, engine.WithBins(5))
			art, err := r.Render(req, ds)
			So(art, ShouldBeNil)
			var re *RenderError
			So(errors.As(err, &re), ShouldBeTrue)
			So(re.Request.String(), ShouldEqual, req.String())
			So(errors.Cause(re.Err), ShouldEqual, engine.ErrUnknownColumn)
			So(re.Error(), ShouldStartWith, "Error generating Histogram: Id")
		})

		Convey("an unknown colour", func() {
			req := mustRequest(engine.KindHistogram, numeric[:1], engine.WithBins(5), engine.WithColor("not-a-colour"))
			_, err := r.Render(req, ds)
			var re *RenderError
			So(errors.As(err, &re), ShouldBeTrue)
			So(re.Message, ShouldContainSubstring, "not-a-colour")
		})

		Convey("a zero-variance column in a correlation", func() {
			records := make([]engine.Record, 5)
			for i := range records {
				records[i] = engine.Record{
					Dimensions: map[string]string{"Species": "Iris-setosa"},
					Measures:   map[string]float64{"a": float64(i), "b": 1},
				}
			}
			view := engine.NewSliceViewWithKeys(records, []string{"Species"}, []string{"a", "b"})
			req := mustRequest(engine.KindCorrelation, []string{"a", "b"})
			_, err := r.Render(req, viewDataset{view})
			var re *RenderError
			So(errors.As(err, &re), ShouldBeTrue)
			So(errors.Cause(re.Err), ShouldEqual, engine.ErrZeroVariance)
		})

		Convey("a panicking backend", func() {
			_, err := New(panicBackend{NewGonum(FormatPNG)}).Render(catalog()[0], ds)
			var re *RenderError
			So(errors.As(err, &re), ShouldBeTrue)
			So(re.Message, ShouldContainSubstring, "boom")
		})

		Convey("a missing dataset", func() {
			_, err := r.Render(catalog()[0], nil)
			var re *RenderError
			So(errors.As(err, &re), ShouldBeTrue)
		})
	})
}

func TestLookup(t *testing.T) {
	cases := []struct {
		backend, format string
		want            string
		ok              bool
	}{
		{"gonum", "", "image/png", true},
		{"GONUM", "svg", "image/svg+xml", true},
		{"echarts", "", "text/html; charset=utf-8", true},
		{"echarts", "png", "", false},
		{"matplotlib", "", "", false},
	}
	for _, tc := range cases {
		b, err := Lookup(tc.backend, tc.format)
		if tc.ok != (err == nil) {
			t.Errorf("Lookup(%q, %q): err = %v", tc.backend, tc.format, err)
			continue
		}
		if tc.ok && b.MediaType() != tc.want {
			t.Errorf("Lookup(%q, %q) media type %q, want %q", tc.backend, tc.format, b.MediaType(), tc.want)
		}
	}
	if got := strings.Join(Backends(), ","); got != "echarts,gonum" {
		t.Errorf("Backends() = %s", got)
	}
}

func TestParseColor(t *testing.T) {
	for _, s := range []string{"skyblue", "lightgreen", "orange", "purple", "#4C72B0", " SkyBlue "} {
		if _, err := parseColor(s); err != nil {
			t.Errorf("parseColor(%q): %v", s, err)
		}
	}
	for _, s := range []string{"", "#12345", "#zzzzzz", "blurple"} {
		if _, err := parseColor(s); err == nil {
			t.Errorf("parseColor(%q) should fail", s)
		}
	}
	if got := hexColor("skyblue"); got != "#87ceeb" {
		t.Errorf("hexColor(skyblue) = %s", got)
	}
}
