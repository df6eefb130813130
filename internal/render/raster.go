// Package render turns grid snapshots into pixel rasters and image files.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"pixel-board/internal/domain"

	xdraw "golang.org/x/image/draw"
)

// DefaultCellPixelSize is the edge length in pixels of one exported cell.
const DefaultCellPixelSize = 10

// MaxRasterSide caps the edge length in pixels of a raster.
const MaxRasterSide = 8192

var (
	ErrInvalidOptions    = errors.New("render: invalid options")
	ErrUnsupportedFormat = errors.New("render: unsupported image format")
)

// BackgroundMode decides what empty cells look like in an export.
type BackgroundMode string

const (
	BackgroundTransparent BackgroundMode = "transparent"
	BackgroundOpaque      BackgroundMode = "opaque"
)

// ParseBackgroundMode accepts "transparent" and "opaque" (case-insensitive).
// An empty string selects transparent.
func ParseBackgroundMode(s string) (BackgroundMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(BackgroundTransparent):
		return BackgroundTransparent, nil
	case string(BackgroundOpaque):
		return BackgroundOpaque, nil
	}
	return "", fmt.Errorf("%w: background mode %q", ErrInvalidOptions, s)
}

// Options configures Rasterize.
type Options struct {
	CellPixelSize int
	Background    BackgroundMode
	// BackgroundColor fills empty cells in opaque mode. Empty means white.
	BackgroundColor domain.Cell
}

// DefaultOptions returns 10px cells on a transparent background.
func DefaultOptions() Options {
	return Options{CellPixelSize: DefaultCellPixelSize, Background: BackgroundTransparent}
}

func (o Options) validate() error {
	if o.CellPixelSize <= 0 || o.CellPixelSize > MaxRasterSide {
		return fmt.Errorf("%w: cell pixel size %d", ErrInvalidOptions, o.CellPixelSize)
	}
	switch o.Background {
	case BackgroundTransparent, BackgroundOpaque:
	default:
		return fmt.Errorf("%w: background mode %q", ErrInvalidOptions, o.Background)
	}
	return nil
}

func (o Options) background() color.NRGBA {
	if o.BackgroundColor.IsEmpty() {
		return color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	}
	return o.BackgroundColor.NRGBA()
}

// Rasterize renders s as an (N*CellPixelSize)² image. Every cell becomes a
// solid block of its exact color; there is no blending.
func Rasterize(s domain.Snapshot, opts Options) (*image.NRGBA, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	n := s.Size()
	if n <= 0 || s.Len() != n*n {
		return nil, fmt.Errorf("%w: snapshot of %d cells with side %d", ErrInvalidOptions, s.Len(), n)
	}
	if opts.CellPixelSize > MaxRasterSide/n {
		return nil, fmt.Errorf("%w: %d cells of %d px exceed %d px", ErrInvalidOptions, n, opts.CellPixelSize, MaxRasterSide)
	}

	// One pixel per cell, then scale up by an integer factor.
	src := image.NewNRGBA(image.Rect(0, 0, n, n))
	bg := opts.background()
	for i := 0; i < s.Len(); i++ {
		c := s.At(i)
		switch {
		case !c.IsEmpty():
			src.SetNRGBA(i%n, i/n, c.NRGBA())
		case opts.Background == BackgroundOpaque:
			src.SetNRGBA(i%n, i/n, bg)
		}
	}

	side := n * opts.CellPixelSize
	dst := image.NewNRGBA(image.Rect(0, 0, side, side))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst, nil
}
