package report

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/spektr-org/eda/dataset"
	"github.com/spektr-org/eda/engine"
	"github.com/spektr-org/eda/render"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

var species = []string{"Iris-setosa", "Iris-versicolor", "Iris-virginica"}

// flatPetals is a small Iris-shaped table whose PetalWidthCm never varies,
// so every chart that needs its spread fails.
func flatPetals(t *testing.T) *dataset.Handle {
	var b strings.Builder
	b.WriteString("Id,SepalLengthCm,SepalWidthCm,PetalLengthCm,PetalWidthCm,Species\n")
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&b, "%d,%.1f,%.1f,%.1f,0.2,%s\n",
			i+1, 4.5+0.1*float64(i), 3.0+0.05*float64(i%5), 1.2+0.1*float64(i%4), species[i%3])
	}
	h, err := dataset.Load(strings.NewReader(b.String()), dataset.WithSource("flat.csv"))
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	return h
}

func TestSelection(t *testing.T) {
	Convey("A zero Selection has every section closed", t, func() {
		var sel Selection
		So(sel.EnabledSections(), ShouldBeEmpty)
		for _, s := range Sections() {
			So(sel.IsEnabled(s.ID), ShouldBeFalse)
		}

		Convey("opening sections keeps catalog order", func() {
			sel = sel.With(SectionBoxPlot, SectionPreview, SectionScatter)
			So(sel.EnabledSections(), ShouldResemble, []SectionID{SectionPreview, SectionScatter, SectionBoxPlot})
			So(sel.EnabledCharts(), ShouldResemble, []SectionID{SectionScatter, SectionBoxPlot})
		})

		Convey("With and Without return copies", func() {
			open := sel.With(SectionKDE)
			closed := open.Without(SectionKDE)
			So(sel.IsEnabled(SectionKDE), ShouldBeFalse)
			So(open.IsEnabled(SectionKDE), ShouldBeTrue)
			So(closed.IsEnabled(SectionKDE), ShouldBeFalse)
		})
	})

	Convey("NewSelection parses section names", t, func() {
		sel, err := NewSelection(" Histogram", "correlation")
		So(err, ShouldBeNil)
		So(sel.EnabledSections(), ShouldResemble, []SectionID{SectionHistogram, SectionCorrelation})

		all, err := NewSelection("all")
		So(err, ShouldBeNil)
		So(all.EnabledSections(), ShouldHaveLength, len(Sections()))

		_, err = NewSelection("violin")
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "violin")
	})
}

func TestBuildRequests(t *testing.T) {
	Convey("The Iris catalog", t, func() {
		Convey("scatter pairs sepal with sepal and petal with petal", func() {
			reqs, err := BuildRequests("scatter")
			So(err, ShouldBeNil)
			So(reqs, ShouldHaveLength, 2)
			So(reqs[0].Columns(), ShouldResemble, []string{"SepalLengthCm", "SepalWidthCm"})
			So(reqs[1].Columns(), ShouldResemble, []string{"PetalLengthCm", "PetalWidthCm"})
			So(reqs[0].Title(), ShouldEqual, "Scatter Plot: SepalLengthCm vs SepalWidthCm")
			So(reqs[0].Caption(), ShouldEqual, "Visualizing the relationship between Sepal Length and Sepal Width.")
			legend, _ := reqs[1].Param(engine.ParamLegend)
			So(legend, ShouldEqual, "outside")
			So(reqs[1].GroupBy(), ShouldEqual, "Species")
		})

		Convey("pair is one request over every measurement", func() {
			reqs, err := BuildRequests("pair")
			So(err, ShouldBeNil)
			So(reqs, ShouldHaveLength, 1)
			So(reqs[0].Columns(), ShouldHaveLength, 4)
			So(reqs[0].FloatParam(engine.ParamHeight, 0), ShouldEqual, 2)
		})

		Convey("histograms use the fixed bin counts and colours", func() {
			reqs, err := BuildRequests("histogram")
			So(err, ShouldBeNil)
			So(reqs, ShouldHaveLength, 4)

			wantBins := []int{7, 5, 6, 6}
			wantColors := []string{"skyblue", "lightgreen", "orange", "purple"}
			wantTitles := []string{"Sepal Length", "Sepal Width", "Petal Length", "Petal Width"}
			for i, req := range reqs {
				So(req.IntParam(engine.ParamBins, 0), ShouldEqual, wantBins[i])
				color, _ := req.Param(engine.ParamColor)
				So(color, ShouldEqual, wantColors[i])
				So(req.Title(), ShouldEqual, wantTitles[i])
				So(req.GroupBy(), ShouldBeEmpty)
			}
		})

		Convey("kde fills each species at half opacity", func() {
			reqs, err := BuildRequests("kde")
			So(err, ShouldBeNil)
			So(reqs, ShouldHaveLength, 4)
			for _, req := range reqs {
				So(req.GroupBy(), ShouldEqual, "Species")
				So(req.FloatParam(engine.ParamAlpha, 0), ShouldEqual, 0.5)
			}
		})

		Convey("correlation is a single annotated pearson heatmap", func() {
			reqs, err := BuildRequests("correlation")
			So(err, ShouldBeNil)
			So(reqs, ShouldHaveLength, 1)
			So(reqs[0].Columns(), ShouldNotContain, "Id")
			method, _ := reqs[0].Param(engine.ParamMethod)
			cmap, _ := reqs[0].Param(engine.ParamColormap)
			So(method, ShouldEqual, "pearson")
			So(cmap, ShouldEqual, "coolwarm")
			So(reqs[0].BoolParam(engine.ParamAnnotate), ShouldBeTrue)
		})

		Convey("boxplot is one request per measurement grouped by species", func() {
			reqs, err := BuildRequests("boxplot")
			So(err, ShouldBeNil)
			So(reqs, ShouldHaveLength, 4)
			for _, req := range reqs {
				So(req.Kind(), ShouldEqual, engine.KindBoxPlot)
				So(req.Columns(), ShouldHaveLength, 1)
				So(req.GroupBy(), ShouldEqual, "Species")
			}
		})

		Convey("table sections have no charts", func() {
			for _, id := range []string{"preview", "statistics"} {
				reqs, err := BuildRequests(id)
				So(err, ShouldBeNil)
				So(reqs, ShouldBeEmpty)
			}
		})

		Convey("an unknown section is an error", func() {
			_, err := BuildRequests("violin")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestBinsFor(t *testing.T) {
	cases := map[string]int{
		"SepalLengthCm": SepalLengthBins,
		"SepalWidthCm":  SepalWidthBins,
		"PetalLengthCm": PetalLengthBins,
		"PetalWidthCm":  PetalWidthBins,
		"culmen_depth":  DefaultBins,
	}
	for column, want := range cases {
		if got := BinsFor(column); got != want {
			t.Errorf("BinsFor(%s) = %d, want %d", column, got, want)
		}
	}
	if SepalLengthBins != 7 || SepalWidthBins != 5 || PetalLengthBins != 6 || PetalWidthBins != 6 {
		t.Error("histogram bin constants changed")
	}
}

func TestRun(t *testing.T) {
	renderer := render.New(render.NewGonum(render.FormatPNG))

	Convey("Given the Iris dataset", t, func() {
		ds, err := dataset.Iris()
		So(err, ShouldBeNil)

		Convey("every chart section renders without failures", func() {
			rep, err := Run(context.Background(), ds, renderer, ChartSections()...)
			So(err, ShouldBeNil)
			So(rep.Outcomes, ShouldHaveLength, 2+1+4+4+1+4)
			So(rep.Failures(), ShouldBeEmpty)
			So(rep.Pass, ShouldNotBeEmpty)
			So(rep.Summary(), ShouldStartWith, "16 charts rendered, 0 failed")
		})

		Convey("parallel passes keep catalog order", func() {
			b := NewBuilder(ds.Schema(), WithParallelism(4))
			rep, err := b.Run(context.Background(), ds, renderer, SectionHistogram, SectionBoxPlot)
			So(err, ShouldBeNil)
			So(rep.Outcomes, ShouldHaveLength, 8)
			for i, o := range rep.Outcomes[:4] {
				So(o.Section, ShouldEqual, SectionHistogram)
				So(o.Index, ShouldEqual, i)
				So(o.Artifact.Title, ShouldEqual, o.Request.Title())
			}
			So(rep.Section(SectionBoxPlot), ShouldHaveLength, 4)
		})

		Convey("closed sections cost nothing", func() {
			rep, err := Run(context.Background(), ds, renderer, Selection{}.EnabledCharts()...)
			So(err, ShouldBeNil)
			So(rep.Outcomes, ShouldBeEmpty)
		})

		Convey("an unknown section stops the pass before rendering", func() {
			_, err := Run(context.Background(), ds, renderer, SectionScatter, SectionID("violin"))
			So(err, ShouldNotBeNil)
		})

		Convey("a cancelled context is reported", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := Run(ctx, ds, renderer, SectionBoxPlot)
			So(errors.Cause(err), ShouldEqual, context.Canceled)
		})
	})

	Convey("A failing chart does not stop the others", t, func() {
		ds := flatPetals(t)
		rep, err := Run(context.Background(), ds, renderer, SectionKDE, SectionCorrelation, SectionBoxPlot)
		So(err, ShouldBeNil)
		So(rep.Outcomes, ShouldHaveLength, 9)

		failed := rep.Failures()
		So(failed, ShouldHaveLength, 2)
		So(failed[0].Section, ShouldEqual, SectionKDE)
		So(failed[0].Index, ShouldEqual, 3)
		So(failed[1].Section, ShouldEqual, SectionCorrelation)

		var re *render.RenderError
		So(errors.As(failed[0].Err, &re), ShouldBeTrue)
		So(errors.Cause(re.Err), ShouldEqual, engine.ErrZeroVariance)
		So(failed[1].Message(), ShouldStartWith, "Error generating Correlation Matrix")
		So(failed[1].Message(), ShouldContainSubstring, "PetalWidthCm is constant")
		So(errors.Cause(failed[1].Err.(*render.RenderError).Err), ShouldEqual, engine.ErrZeroVariance)

		for _, o := range rep.Section(SectionBoxPlot) {
			So(o.Failed(), ShouldBeFalse)
			So(o.Artifact, ShouldNotBeNil)
		}
	})
}
