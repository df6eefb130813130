package domain

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// CanonicalColor is the comparison key of a cell color.
// Empty maps to CanonicalEmpty, colors map to "#rrggbb" and anything
// unrecognized maps to the trimmed input prefixed with "?".
type CanonicalColor string

// CanonicalEmpty is the canonical form of an empty (transparent) cell.
const CanonicalEmpty CanonicalColor = "transparent"

// Cell is one grid unit: either empty or an opaque RGB color.
// The zero value is Empty.
type Cell struct {
	r, g, b uint8
	filled  bool
}

// Empty is the transparent cell.
var Empty = Cell{}

// RGB returns a filled cell with the given channels.
func RGB(r, g, b uint8) Cell {
	return Cell{r: r, g: g, b: b, filled: true}
}

// IsEmpty reports whether the cell is transparent.
func (c Cell) IsEmpty() bool { return !c.filled }

// RGB returns the channels and false for an empty cell.
func (c Cell) RGB() (r, g, b uint8, ok bool) {
	return c.r, c.g, c.b, c.filled
}

// Hex returns "#rrggbb", or "" for an empty cell.
func (c Cell) Hex() string {
	if !c.filled {
		return ""
	}
	return fmt.Sprintf("#%02x%02x%02x", c.r, c.g, c.b)
}

func (c Cell) String() string {
	if !c.filled {
		return string(CanonicalEmpty)
	}
	return c.Hex()
}

// Canonical returns the comparison key of the cell.
func (c Cell) Canonical() CanonicalColor {
	if !c.filled {
		return CanonicalEmpty
	}
	return CanonicalColor(c.Hex())
}

// NRGBA converts the cell to a raster color. Empty is fully transparent.
func (c Cell) NRGBA() color.NRGBA {
	if !c.filled {
		return color.NRGBA{}
	}
	return color.NRGBA{R: c.r, G: c.g, B: c.b, A: 0xff}
}

// MarshalText encodes the cell as its hex form ("" when empty).
func (c Cell) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText accepts every form ParseCell accepts.
func (c *Cell) UnmarshalText(text []byte) error {
	parsed, err := ParseCell(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// SameColor reports whether two cells have the same canonical color.
func SameColor(a, b Cell) bool {
	return a.Canonical() == b.Canonical()
}

// CellFromColor converts a raster sample to a cell; zero alpha is Empty.
// Partially transparent samples keep their un-premultiplied RGB.
func CellFromColor(c color.Color) Cell {
	if c == nil {
		return Empty
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	if n.A == 0 {
		return Empty
	}
	return RGB(n.R, n.G, n.B)
}

// CanonicalOf returns the canonical form of a raster sample.
func CanonicalOf(c color.Color) CanonicalColor {
	return CellFromColor(c).Canonical()
}

// Canonicalize normalizes any color representation. It never fails:
// unrecognized input becomes an opaque token so equal inputs still compare equal.
func Canonicalize(input string) CanonicalColor {
	c, err := ParseCell(input)
	if err != nil {
		return CanonicalColor("?" + strings.TrimSpace(input))
	}
	return c.Canonical()
}

// ParseCell parses hex ("#rgb", "#rgba", "#rrggbb", "#rrggbbaa"),
// functional ("rgb(r, g, b)", "rgba(r, g, b, a)"), named colors and the
// empty forms ("", "transparent", "none").
func ParseCell(input string) (Cell, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	switch {
	case s == "" || s == "transparent" || s == "none":
		return Empty, nil
	case strings.HasPrefix(s, "#"):
		return parseHexCell(s[1:], input)
	case strings.HasPrefix(s, "rgb(") || strings.HasPrefix(s, "rgba("):
		return parseFunctionalCell(s, input)
	}
	if named, ok := colornames.Map[s]; ok {
		return RGB(named.R, named.G, named.B), nil
	}
	return Empty, fmt.Errorf("%w: %q", ErrInvalidColor, input)
}

func parseHexCell(hex, input string) (Cell, error) {
	expand := func(s string) string {
		out := make([]byte, 0, len(s)*2)
		for i := 0; i < len(s); i++ {
			out = append(out, s[i], s[i])
		}
		return string(out)
	}
	switch len(hex) {
	case 3, 4:
		hex = expand(hex)
	case 6, 8:
	default:
		return Empty, fmt.Errorf("%w: %q", ErrInvalidColor, input)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Empty, fmt.Errorf("%w: %q", ErrInvalidColor, input)
	}
	if len(hex) == 8 {
		if v&0xff == 0 {
			return Empty, nil
		}
		v >>= 8
	}
	return RGB(uint8(v>>16), uint8(v>>8), uint8(v)), nil
}

func parseFunctionalCell(s, input string) (Cell, error) {
	open := strings.IndexByte(s, '(')
	if !strings.HasSuffix(s, ")") {
		return Empty, fmt.Errorf("%w: %q", ErrInvalidColor, input)
	}
	name := s[:open]
	args := strings.FieldsFunc(s[open+1:len(s)-1], func(r rune) bool {
		return r == ',' || r == ' ' || r == '/'
	})

	want := 3
	if name == "rgba" {
		want = 4
	}
	// CSS allows rgb() with an alpha component too.
	if len(args) != want && !(name == "rgb" && len(args) == 4) {
		return Empty, fmt.Errorf("%w: %q", ErrInvalidColor, input)
	}

	var ch [3]uint8
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(args[i])
		if err != nil || n < 0 || n > 255 {
			return Empty, fmt.Errorf("%w: %q", ErrInvalidColor, input)
		}
		ch[i] = uint8(n)
	}
	if len(args) == 4 {
		a, err := strconv.ParseFloat(args[3], 64)
		if err != nil || a < 0 || a > 1 {
			return Empty, fmt.Errorf("%w: %q", ErrInvalidColor, input)
		}
		if a == 0 {
			return Empty, nil
		}
	}
	return RGB(ch[0], ch[1], ch[2]), nil
}
