package render

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/spektr-org/eda/engine"
)

// Backend encodes a Figure into bytes of one media type.
type Backend interface {
	Name() string
	Format() string
	MediaType() string
	Encode(fig *engine.Figure) ([]byte, error)
}

// Backend names.
const (
	BackendGonum   = "gonum"
	BackendECharts = "echarts"
)

// Output formats.
const (
	FormatPNG  = "png"
	FormatSVG  = "svg"
	FormatHTML = "html"
)

// formats lists what each backend can produce; the first entry is its default.
var formats = map[string][]string{
	BackendGonum:   {FormatPNG, FormatSVG},
	BackendECharts: {FormatHTML},
}

// Backends returns the known backend names, sorted.
func Backends() []string {
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Formats returns the formats a backend supports, default first.
func Formats(backend string) []string {
	return append([]string(nil), formats[backend]...)
}

// Lookup returns a backend by name. An empty format picks the backend default.
func Lookup(name, format string) (Backend, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	format = strings.ToLower(strings.TrimSpace(format))

	supported, ok := formats[name]
	if !ok {
		return nil, errors.Errorf("unknown backend %q (have %s)", name, strings.Join(Backends(), ", "))
	}
	if format == "" {
		format = supported[0]
	}
	if !contains(supported, format) {
		return nil, errors.Errorf("backend %s cannot produce %q (have %s)", name, format, strings.Join(supported, ", "))
	}

	switch name {
	case BackendECharts:
		return NewECharts(), nil
	default:
		return NewGonum(format), nil
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
