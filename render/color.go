package render

import (
	"image/color"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/colornames"
)

// parseColor accepts an SVG colour name ("skyblue") or #rrggbb.
func parseColor(s string) (color.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := colornames.Map[s]; ok {
		return c, nil
	}
	if len(s) == 7 && s[0] == '#' {
		v, err := strconv.ParseUint(s[1:], 16, 32)
		if err == nil {
			return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
		}
	}
	return nil, errors.Errorf("unknown colour %q", s)
}

// CheckColor reports whether a colour name or #rrggbb code can be drawn.
func CheckColor(s string) error {
	_, err := parseColor(s)
	return err
}

// withAlpha returns c with opacity a in [0, 1].
func withAlpha(c color.Color, a float64) color.Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = uint8(a*255 + 0.5)
	return n
}

// hexColor renders any colour as #rrggbb for the browser backends.
func hexColor(s string) string {
	c, err := parseColor(s)
	if err != nil {
		return s
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return "#" + hex2(n.R) + hex2(n.G) + hex2(n.B)
}

func hex2(v uint8) string {
	s := strconv.FormatUint(uint64(v), 16)
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
