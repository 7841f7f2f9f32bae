// Package conf resolves the runtime configuration of the eda tools.
//
// Values come from four layers, highest first: command line flags, EDA_*
// environment variables, an optional YAML file (--config / EDA_CONFIG) and
// built-in defaults. Every flag can be given through its environment variable:
//
//	EDA_DATASET   -d --dataset   CSV file to load (default: embedded Iris.csv)
//	EDA_ADDR         --addr      dashboard listen address
//	EDA_BACKEND   -b --backend   chart backend: gonum, echarts
//	EDA_FORMAT    -f --format    output format of the backend: png, svg, html
//	EDA_LOG       -l --log       log level: debug, info, warn, error, fatal, panic
//	EDA_SECTIONS  -s --sections  comma separated sections opened by default
//	EDA_WORKERS   -w --workers   charts rendered at once
//	EDA_WHISKER      --whisker   box plot whisker reach in IQRs (default 1.5)
//	EDA_KDE_GRID     --kde-grid  points per density curve (default 200)
//	EDA_KDE_CUT      --kde-cut   bandwidths a density curve extends past the data (default 3)
//	EDA_PALETTE      --palette   comma separated label colours
//
// Figure size is only read from the file (figureWidth, figureHeight, inches).
package conf

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/eda/engine"
	"github.com/spektr-org/eda/render"
	"github.com/spektr-org/eda/report"
)

// Config is the resolved configuration.
type Config struct {
	Dataset      string        `yaml:"dataset"`
	Addr         string        `yaml:"addr"`
	Backend      string        `yaml:"backend"`
	Format       string        `yaml:"format"` // empty picks the backend's default
	LogLevel     string        `yaml:"log"`
	OpenSections []string      `yaml:"sections"`
	Parallelism  int           `yaml:"workers"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`

	// Chart tuning. Zero values keep the engine defaults.
	Whisker      float64  `yaml:"whisker"`
	KDEGridSize  int      `yaml:"kdeGridSize"`
	KDECut       float64  `yaml:"kdeCut"`
	Palette      []string `yaml:"palette"`
	FigureWidth  float64  `yaml:"figureWidth"`
	FigureHeight float64  `yaml:"figureHeight"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:         ":8501",
		Backend:      render.BackendGonum,
		LogLevel:     "info",
		Parallelism:  1,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
}

// LoadFile reads a YAML file over the defaults.
func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "open config %s", path)
	}
	defer f.Close()

	cfg, err := Load(f)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Load decodes YAML over the defaults. ${VAR} and $VAR references are
// expanded from the environment before decoding; unset variables become "".
func Load(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse config")
	}
	return cfg, nil
}

// Validate rejects names the tools do not know.
func (c Config) Validate() error {
	if _, err := render.Lookup(c.Backend, c.Format); err != nil {
		return errors.Wrap(err, "invalid backend")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := c.Selection(); err != nil {
		return errors.Wrap(err, "invalid sections")
	}
	if c.Parallelism < 1 {
		return errors.Errorf("workers must be at least 1, got %d", c.Parallelism)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	if c.Whisker < 0 || c.KDECut < 0 || c.FigureWidth < 0 || c.FigureHeight < 0 {
		return errors.New("whisker, kde cut and figure size must not be negative")
	}
	if c.KDEGridSize == 1 || c.KDEGridSize < 0 {
		return errors.Errorf("kde grid needs at least 2 points, got %d", c.KDEGridSize)
	}
	for _, name := range c.Palette {
		if err := render.CheckColor(name); err != nil {
			return errors.Wrap(err, "invalid palette")
		}
	}
	return nil
}

// EngineOptions turns the chart tuning fields into engine options.
func (c Config) EngineOptions() []engine.Option {
	var opts []engine.Option
	if c.Whisker > 0 {
		opts = append(opts, engine.WithWhisker(c.Whisker))
	}
	if c.KDEGridSize > 1 {
		opts = append(opts, engine.WithKDEGridSize(c.KDEGridSize))
	}
	if c.KDECut > 0 {
		opts = append(opts, engine.WithKDECut(c.KDECut))
	}
	if len(c.Palette) > 0 {
		opts = append(opts, engine.WithPalette(c.Palette...))
	}
	if c.FigureWidth > 0 && c.FigureHeight > 0 {
		opts = append(opts, engine.WithFigureSize(c.FigureWidth, c.FigureHeight))
	}
	return opts
}

// Level parses the configured log level.
func (c Config) Level() (logrus.Level, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel, errors.Wrapf(err, "parsing log level %q failed", c.LogLevel)
	}
	return level, nil
}

// Selection opens the configured sections.
func (c Config) Selection() (report.Selection, error) {
	return report.NewSelection(c.OpenSections...)
}

// ChartBackend returns the configured chart backend.
func (c Config) ChartBackend() (render.Backend, error) {
	return render.Lookup(c.Backend, c.Format)
}

// splitList splits a comma separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
