package render_test

import (
	"image"

	"pixel-board/internal/domain"
)

// cellAt samples the block of cell i back out of a raster of an n×n grid.
func cellAt(img image.Image, n, i int) domain.Cell {
	b := img.Bounds()
	cellPx := b.Dx() / n
	x := b.Min.X + (i%n)*cellPx
	y := b.Min.Y + (i/n)*cellPx
	return domain.CellFromColor(img.At(x, y))
}
