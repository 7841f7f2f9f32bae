package engine

// ============================================================================
// ENGINE OPTIONS — Functional options for Execute()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	KDE     KDEParams
	Whisker float64  // box plot whisker reach, in IQRs
	Palette []string // label colours, assigned in first-seen order
	Width   float64  // single-panel figure size, inches
	Height  float64
}

// Seaborn's "deep" palette.
var defaultPalette = []string{
	"#4C72B0", "#DD8452", "#55A868", "#C44E52", "#8172B3",
	"#937860", "#DA8BC3", "#8C8C8C", "#CCB974", "#64B5CD",
}

// WithKDEGridSize sets how many points each density curve is evaluated at.
func WithKDEGridSize(n int) Option {
	return func(c *config) {
		if n > 1 {
			c.KDE.GridSize = n
		}
	}
}

// WithKDECut sets how many bandwidths the density grid extends past the data.
func WithKDECut(cut float64) Option {
	return func(c *config) {
		if cut >= 0 {
			c.KDE.Cut = cut
		}
	}
}

// WithWhisker sets the box plot whisker reach (default 1.5 IQR).
func WithWhisker(k float64) Option {
	return func(c *config) {
		if k > 0 {
			c.Whisker = k
		}
	}
}

// WithPalette replaces the label colour cycle.
func WithPalette(colors ...string) Option {
	return func(c *config) {
		if len(colors) > 0 {
			c.Palette = append([]string(nil), colors...)
		}
	}
}

// WithFigureSize sets the single-panel figure size in inches.
func WithFigureSize(width, height float64) Option {
	return func(c *config) {
		if width > 0 && height > 0 {
			c.Width, c.Height = width, height
		}
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		KDE:     DefaultKDEParams(),
		Whisker: 1.5,
		Palette: defaultPalette,
		Width:   6.4,
		Height:  4.8,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// colorFor returns the palette entry for the i-th label.
func (c *config) colorFor(i int) string {
	return c.Palette[i%len(c.Palette)]
}
