package noise

import (
	"image"
	"image/color"

	"github.com/Carmen-Shannon/oxy-clouds/common"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/texture"
	"golang.org/x/image/draw"
)

const (
	previewRows   = 3
	previewCols   = 3
	previewCellPx = 100
	previewMargin = 10
)

// SliceCell is one cell of the slice preview grid: a screen rectangle and the normalized depth
// (the _Slice material value) sampled into it.
type SliceCell struct {
	Rect  common.Rect
	Slice float32
}

// SlicePreviewLayout lays out the 3x3 volume slice preview anchored to the top-right corner of
// a screen. Cells are 100 px squares separated by a 10 px margin, and cell i samples the slice
// (i + 0.5) / 9.
//
// Parameters:
//   - screenWidth: the screen width in pixels
//
// Returns:
//   - []SliceCell: nine cells in row-major order
func SlicePreviewLayout(screenWidth float32) []SliceCell {
	gridWidth, _ := previewGridSize()
	startX := screenWidth - gridWidth - previewMargin
	startY := float32(previewMargin)

	total := previewRows * previewCols
	cells := make([]SliceCell, 0, total)
	for row := range previewRows {
		for col := range previewCols {
			i := row*previewCols + col
			cells = append(cells, SliceCell{
				Rect: common.Rect{
					X:      startX + float32(col*(previewCellPx+previewMargin)),
					Y:      startY + float32(row*(previewCellPx+previewMargin)),
					Width:  previewCellPx,
					Height: previewCellPx,
				},
				Slice: (float32(i) + 0.5) / float32(total),
			})
		}
	}
	return cells
}

func previewGridSize() (width, height float32) {
	width = float32(previewCols*previewCellPx + (previewCols-1)*previewMargin)
	height = float32(previewRows*previewCellPx + (previewRows-1)*previewMargin)
	return width, height
}

// renderPreviewSheet draws the preview grid onto a sheet exactly wide enough to hold it, so the
// top-right anchored layout lands one margin in from every edge.
func renderPreviewSheet(texels []float32, desc texture.Descriptor) *image.NRGBA64 {
	gridWidth, gridHeight := previewGridSize()
	sheetWidth := gridWidth + 2*previewMargin
	sheet := image.NewNRGBA64(image.Rect(0, 0, int(sheetWidth), int(gridHeight)+2*previewMargin))
	draw.Draw(sheet, sheet.Bounds(), image.NewUniform(color.NRGBA64{A: 0xffff}), image.Point{}, draw.Src)

	for _, cell := range SlicePreviewLayout(sheetWidth) {
		src := sliceImage(texels, desc, cell.Slice)
		dst := image.Rect(
			int(cell.Rect.X), int(cell.Rect.Y),
			int(cell.Rect.X+cell.Rect.Width), int(cell.Rect.Y+cell.Rect.Height),
		)
		draw.BiLinear.Scale(sheet, dst, src, src.Bounds(), draw.Src, nil)
	}
	return sheet
}

// sliceImage extracts the depth layer nearest to a normalized slice coordinate.
func sliceImage(texels []float32, desc texture.Descriptor, slice float32) *image.NRGBA64 {
	z := uint32(slice * float32(desc.Depth))
	z = common.Clamp(z, 0, max(desc.Depth, 1)-1)
	return texelsToNRGBA64(texels, desc, z)
}

// texelsToNRGBA64 converts one depth layer of float4 texels to 16-bit NRGBA, clamping every
// channel to [0, 1]. PNG and TIFF both store it at 16 bits per channel.
func texelsToNRGBA64(texels []float32, desc texture.Descriptor, z uint32) *image.NRGBA64 {
	w, h := int(desc.Width), int(desc.Height)
	img := image.NewNRGBA64(image.Rect(0, 0, w, h))
	for y := range desc.Height {
		for x := range desc.Width {
			i := texture.TexelIndex(desc, x, y, z)
			if i+3 >= len(texels) {
				continue
			}
			img.SetNRGBA64(int(x), int(y), color.NRGBA64{
				R: unitToUint16(texels[i+0]),
				G: unitToUint16(texels[i+1]),
				B: unitToUint16(texels[i+2]),
				A: unitToUint16(texels[i+3]),
			})
		}
	}
	return img
}

func unitToUint16(v float32) uint16 {
	if v != v {
		return 0
	}
	return uint16(common.Clamp(v, 0, 1)*0xffff + 0.5)
}
