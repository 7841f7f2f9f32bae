package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/eda/conf"
	"github.com/spektr-org/eda/dashboard"
	"github.com/spektr-org/eda/dataset"
	"github.com/spektr-org/eda/engine"
	"github.com/spektr-org/eda/helpers"
	"github.com/spektr-org/eda/render"
	"github.com/spektr-org/eda/report"
	"github.com/spektr-org/eda/schema"
)

// ============================================================================
// EDA CLI — Exploration reports for tabular datasets
// ============================================================================

const version = "0.3.0"

var (
	app   = kingpin.New("eda", "Exploratory data analysis reports: scatter, pair, histogram, KDE, correlation and box plots.")
	flags = conf.RegisterFlags(app)
	infer = app.Flag("infer", "Infer column roles from the data instead of expecting the Iris layout").Bool()

	serveCmd = app.Command("serve", "Serve the interactive dashboard.").Default()

	renderCmd      = app.Command("render", "Render report sections in one pass.")
	renderOut      = renderCmd.Flag("out", "Write every chart into this directory").Short('o').String()
	renderSections = renderCmd.Arg("sections", "Sections to render (default: configured sections, or every chart section)").Strings()

	describeCmd = app.Command("describe", "Print the dataset summary statistics.")
	describeBy  = describeCmd.Flag("by-label", "Also print the per-label means").Bool()

	discoverCmd    = app.Command("discover", "Infer the column roles of a CSV file.")
	discoverFile   = discoverCmd.Arg("file", "CSV file to inspect").Required().ExistingFile()
	discoverLabel  = discoverCmd.Flag("label", "Force this column as the label").String()
	discoverOutput = discoverCmd.Flag("output", "Output: table, json, yaml").Default("table").Enum("table", "json", "yaml")
)

func main() {
	app.Version(version)
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := flags.Resolve()
	if err != nil {
		fatalf("%v", err)
	}
	level, err := cfg.Level()
	if err != nil {
		fatalf("%v", err)
	}
	log.SetLevel(level)

	// ── Commands without a dataset ───────────────────────────────────────
	if command == discoverCmd.FullCommand() {
		if err := runDiscover(); err != nil {
			fatalf("Discovery failed: %v", err)
		}
		return
	}

	// ── Dataset (fatal on any load error) ───────────────────────────────
	ds, err := loadDataset(cfg)
	if err != nil {
		log.WithError(err).Fatal("could not load dataset")
	}
	log.WithFields(log.Fields{
		"source":  ds.Source(),
		"rows":    ds.Len(),
		"numeric": len(ds.NumericColumns()),
		"labels":  len(ds.Labels()),
	}).Info("dataset loaded")

	backend, err := cfg.ChartBackend()
	if err != nil {
		fatalf("%v", err)
	}
	renderer := render.New(backend, render.WithEngineOptions(cfg.EngineOptions()...))

	switch command {
	case serveCmd.FullCommand():
		err = serve(cfg, ds, renderer)
	case renderCmd.FullCommand():
		err = renderReport(cfg, ds, renderer)
	case describeCmd.FullCommand():
		err = describe(ds)
	}
	if err != nil {
		fatalf("%v", err)
	}
}

func loadDataset(cfg conf.Config) (*dataset.Handle, error) {
	var opts []dataset.LoadOption
	if *infer {
		opts = append(opts, dataset.WithDiscovery(schema.DefaultDiscoverOptions()))
	}
	if cfg.Dataset == "" {
		if *infer {
			log.Warn("--infer has no effect on the embedded Iris dataset")
		}
		return dataset.Iris()
	}
	return dataset.LoadFile(cfg.Dataset, opts...)
}

// ============================================================================
// SERVE
// ============================================================================

func serve(cfg conf.Config, ds *dataset.Handle, renderer *render.Renderer) error {
	sel, err := cfg.Selection()
	if err != nil {
		return err
	}
	srv, err := dashboard.New(dashboard.Config{
		Dataset:      ds,
		Renderer:     renderer,
		Selection:    sel,
		Parallelism:  cfg.Parallelism,
		Address:      cfg.Addr,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	if err != nil {
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.WithError(err).Error("shutdown")
		}
	}()

	return srv.Start()
}

// ============================================================================
// RENDER
// ============================================================================

func renderReport(cfg conf.Config, ds *dataset.Handle, renderer *render.Renderer) error {
	sections, err := chartSections(cfg)
	if err != nil {
		return err
	}

	builder := report.NewBuilder(ds.Schema(), report.WithParallelism(cfg.Parallelism))
	rep, err := builder.Run(context.Background(), ds, renderer, sections...)
	if err != nil {
		return err
	}

	if *renderOut != "" {
		if err := os.MkdirAll(*renderOut, 0o755); err != nil {
			return errors.Wrapf(err, "create %s", *renderOut)
		}
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Section", "#", "Chart", "Status", "Output"})
	for _, o := range rep.Outcomes {
		status, output := "ok", ""
		switch {
		case o.Failed():
			status, output = "failed", o.Message()
		case *renderOut != "":
			path := filepath.Join(*renderOut, fmt.Sprintf("%s-%d.%s", o.Section, o.Index, o.Artifact.Format))
			if err := os.WriteFile(path, o.Artifact.Content, 0o644); err != nil {
				return errors.Wrapf(err, "write %s", path)
			}
			output = path
		default:
			output = fmt.Sprintf("%d bytes", len(o.Artifact.Content))
		}
		table.Append([]string{string(o.Section), strconv.Itoa(o.Index), o.Request.Title(), status, output})
	}
	table.Render()

	for _, o := range rep.Outcomes {
		if o.Artifact != nil && o.Artifact.Table != nil {
			fmt.Println()
			drawTable(o.Artifact.Table)
		}
	}

	fmt.Printf("\n%s\n%s\n", rep.Summary(), report.Banner)
	return nil
}

// chartSections picks the sections to render: command line arguments first,
// then the configured open sections, then every chart section.
func chartSections(cfg conf.Config) ([]report.SectionID, error) {
	names := *renderSections
	if len(names) == 0 {
		names = cfg.OpenSections
	}
	if len(names) == 0 {
		return report.ChartSections(), nil
	}
	sel, err := report.NewSelection(names...)
	if err != nil {
		return nil, err
	}
	return sel.EnabledCharts(), nil
}

// ============================================================================
// DESCRIBE / DISCOVER
// ============================================================================

func describe(ds *dataset.Handle) error {
	fmt.Println(ds.Summary().Value)
	fmt.Println()

	desc, err := ds.Describe()
	if err != nil {
		return err
	}
	drawTable(desc)

	if *describeBy {
		fmt.Println()
		drawTable(ds.GroupMeans())
	}
	return nil
}

func runDiscover() error {
	data, err := os.ReadFile(*discoverFile)
	if err != nil {
		return errors.Wrap(err, "read file")
	}
	opts := schema.DefaultDiscoverOptions()
	opts.Label = *discoverLabel
	opts.Name = filepath.Base(*discoverFile)

	records, sch, err := helpers.ParseCSVAuto(data, opts)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"rows":       len(records),
		"identifier": sch.Identifier,
		"label":      sch.Label.Key,
		"measures":   len(sch.Measures),
		"skipped":    len(sch.SkippedColumns),
	}).Info("🔍 schema discovered")

	switch *discoverOutput {
	case "json":
		out, err := json.MarshalIndent(sch, "", "  ")
		if err != nil {
			return errors.Wrap(err, "marshal schema")
		}
		fmt.Println(string(out))
	case "yaml":
		out, err := yaml.Marshal(sch)
		if err != nil {
			return errors.Wrap(err, "marshal schema")
		}
		fmt.Print(string(out))
	default:
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Column", "Role", "Display name", "Detail"})
		if sch.Identifier != "" {
			table.Append([]string{sch.Identifier, "identifier", "", "excluded from analysis"})
		}
		if sch.Label.Key != "" {
			table.Append([]string{sch.Label.Key, "label", sch.Label.DisplayName, fmt.Sprintf("%d values", len(sch.Label.Values))})
		}
		for _, m := range sch.Measures {
			table.Append([]string{m.Key, "measure", m.DisplayName, m.Unit})
		}
		for _, s := range sch.SkippedColumns {
			table.Append([]string{s.Column, "skipped", "", s.Reason})
		}
		table.Render()
	}
	return nil
}

// ============================================================================
// HELPERS
// ============================================================================

func drawTable(t *engine.TableData) {
	if t.Title != "" {
		fmt.Println(t.Title)
	}
	output := tablewriter.NewWriter(os.Stdout)
	output.SetHeader(t.Headers())
	output.SetAlignment(tablewriter.ALIGN_RIGHT)
	output.AppendBulk(t.Rows)
	output.Render()
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
