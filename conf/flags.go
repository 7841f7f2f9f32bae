package conf

import (
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/pkg/errors"
)

// EnvPrefix prefixes the environment variable of every flag.
const EnvPrefix = "EDA_"

// Flags holds the command line layer. A flag that was neither passed nor set
// in the environment leaves the lower layers untouched.
type Flags struct {
	config       *string
	dataset      *string
	addr         *string
	backend      *string
	format       *string
	logLevel     *string
	sections     *string
	workers      *int
	readTimeout  *time.Duration
	writeTimeout *time.Duration
	whisker      *float64
	kdeGrid      *int
	kdeCut       *float64
	palette      *string
}

// RegisterFlags adds the shared flags to app.
func RegisterFlags(app *kingpin.Application) *Flags {
	return &Flags{
		config:       app.Flag("config", "YAML configuration file").Short('c').Envar(EnvPrefix + "CONFIG").String(),
		dataset:      app.Flag("dataset", "CSV file to load (default: embedded Iris.csv)").Short('d').Envar(EnvPrefix + "DATASET").String(),
		addr:         app.Flag("addr", "Dashboard listen address").Envar(EnvPrefix + "ADDR").String(),
		backend:      app.Flag("backend", "Chart backend: gonum, echarts").Short('b').Envar(EnvPrefix + "BACKEND").String(),
		format:       app.Flag("format", "Backend output format: png, svg, html").Short('f').Envar(EnvPrefix + "FORMAT").String(),
		logLevel:     app.Flag("log", "Log level: debug, info, warn, error, fatal, panic").Short('l').Envar(EnvPrefix + "LOG").String(),
		sections:     app.Flag("sections", "Comma separated sections opened by default, or all").Short('s').Envar(EnvPrefix + "SECTIONS").String(),
		workers:      app.Flag("workers", "Charts rendered at once").Short('w').Envar(EnvPrefix + "WORKERS").Int(),
		readTimeout:  app.Flag("read-timeout", "Dashboard request read timeout").Envar(EnvPrefix + "READ_TIMEOUT").Duration(),
		writeTimeout: app.Flag("write-timeout", "Dashboard response write timeout").Envar(EnvPrefix + "WRITE_TIMEOUT").Duration(),
		whisker:      app.Flag("whisker", "Box plot whisker reach, in IQRs").Envar(EnvPrefix + "WHISKER").Float64(),
		kdeGrid:      app.Flag("kde-grid", "Points per density curve").Envar(EnvPrefix + "KDE_GRID").Int(),
		kdeCut:       app.Flag("kde-cut", "Bandwidths a density curve extends past the data").Envar(EnvPrefix + "KDE_CUT").Float64(),
		palette:      app.Flag("palette", "Comma separated label colours").Envar(EnvPrefix + "PALETTE").String(),
	}
}

// Resolve layers defaults, the config file and the flags, then validates.
// Call it after the application has parsed its arguments.
func (f *Flags) Resolve() (Config, error) {
	cfg := Default()
	if *f.config != "" {
		var err error
		if cfg, err = LoadFile(*f.config); err != nil {
			return Config{}, err
		}
	}

	setString(&cfg.Dataset, *f.dataset)
	setString(&cfg.Addr, *f.addr)
	setString(&cfg.Backend, *f.backend)
	setString(&cfg.Format, *f.format)
	setString(&cfg.LogLevel, *f.logLevel)
	if list := splitList(*f.sections); len(list) > 0 {
		cfg.OpenSections = list
	}
	if *f.workers != 0 {
		cfg.Parallelism = *f.workers
	}
	if *f.readTimeout != 0 {
		cfg.ReadTimeout = *f.readTimeout
	}
	if *f.writeTimeout != 0 {
		cfg.WriteTimeout = *f.writeTimeout
	}
	if *f.whisker != 0 {
		cfg.Whisker = *f.whisker
	}
	if *f.kdeGrid != 0 {
		cfg.KDEGridSize = *f.kdeGrid
	}
	if *f.kdeCut != 0 {
		cfg.KDECut = *f.kdeCut
	}
	if list := splitList(*f.palette); len(list) > 0 {
		cfg.Palette = list
	}
	// A backend switch without a format picks that backend's default format.
	if *f.backend != "" && *f.format == "" && cfg.Format != "" {
		if _, err := cfg.ChartBackend(); err != nil {
			cfg.Format = ""
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
