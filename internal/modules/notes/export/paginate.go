package export

import (
	"image"
	"image/draw"
	"math"
)

// A4 portrait in millimetres.
const (
	A4Width  = 210.0
	A4Height = 297.0
)

// Paginate returns the vertical offset of each page when content of height contentHeight is
// shown through pages of height pageHeight: 0, -p, -2p and so on. Content that fits exactly in
// k pages yields k offsets. Non-positive input yields none.
func Paginate(contentHeight, pageHeight float64) []float64 {
	if contentHeight <= 0 || pageHeight <= 0 || math.IsNaN(contentHeight) || math.IsInf(contentHeight, 0) {
		return nil
	}
	// tolerate float noise so h == k*p stays k pages
	n := int(math.Ceil(contentHeight/pageHeight - 1e-9))
	if n < 1 {
		n = 1
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = -float64(i) * pageHeight
	}
	return out
}

// PageHeightFor is the height in image pixels of one A4 page when the image width spans the page.
func PageHeightFor(imageWidth int) float64 {
	return float64(imageWidth) * A4Height / A4Width
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// slicePages cuts img into one tile per offset. The last tile may be shorter than pageHeight.
func slicePages(img image.Image, offsets []float64, pageHeight float64) []image.Image {
	b := img.Bounds()
	pages := make([]image.Image, 0, len(offsets))
	for _, off := range offsets {
		top := b.Min.Y + int(math.Round(-off))
		bottom := min(b.Min.Y+int(math.Round(-off+pageHeight)), b.Max.Y)
		if top >= bottom {
			continue
		}
		r := image.Rect(b.Min.X, top, b.Max.X, bottom)
		if si, ok := img.(subImager); ok {
			pages = append(pages, si.SubImage(r))
			continue
		}
		tile := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
		draw.Draw(tile, tile.Bounds(), img, r.Min, draw.Src)
		pages = append(pages, tile)
	}
	return pages
}
