// Package geometry converts between source pixel space and PDF point space.
//
// Source coordinates have a top-left origin. PDF user space has a bottom-left
// origin, so vertical positions are flipped about the page height.
package geometry

import (
	"math"

	"github.com/gardar/scanforge/pkg/layout"
)

// PointsPerInch is the PDF user space resolution
const PointsPerInch = 72.0

// CM is one centimetre in points
const CM = PointsPerInch / 2.54

// PaperSize is a physical paper format in inches
type PaperSize struct {
	Name   string
	Width  float64
	Height float64
}

var (
	Letter = PaperSize{Name: "Letter", Width: 8.5, Height: 11}
	A4     = PaperSize{Name: "A4", Width: 8.27, Height: 11.69}
)

// Points returns the paper size in points
func (p PaperSize) Points() (w, h float64) {
	return p.Width * PointsPerInch, p.Height * PointsPerInch
}

// Rect is a bottom-left anchored rectangle in points
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// InferDPI guesses the scan resolution from the page size in pixels. It tries
// US Letter and A4 and keeps the one under which horizontal and vertical
// density agree best, returning that candidate's average density.
func InferDPI(widthPx, heightPx float64) float64 {
	best := 0.0
	bestDiff := math.Inf(1)
	for _, paper := range []PaperSize{Letter, A4} {
		wdpi := widthPx / paper.Width
		hdpi := heightPx / paper.Height
		diff := math.Abs(wdpi - hdpi)
		// Ties go to A4, the later candidate
		if diff <= bestDiff {
			bestDiff = diff
			best = (wdpi + hdpi) / 2
		}
	}
	if !(best > 0) || math.IsInf(best, 0) {
		return PointsPerInch
	}
	return best
}

// PixelsToPoints converts a pixel distance at the given resolution to points
func PixelsToPoints(px, dpi float64) float64 {
	return px / dpi * PointsPerInch
}

// PointsToPixels is the inverse of PixelsToPoints
func PointsToPixels(pt, dpi float64) float64 {
	return pt * dpi / PointsPerInch
}

// FlipY mirrors a vertical coordinate about the page height.
// Applying it twice with the same height returns the original value.
func FlipY(y, pageHeight float64) float64 {
	return pageHeight - y
}

// ConvertBBoxToPoints converts a top-left origin pixel box into a
// bottom-left origin rectangle in points. Y is the bottom edge.
func ConvertBBoxToPoints(b layout.BBox, pageHeightPt, dpi float64) Rect {
	x1 := PixelsToPoints(b.X1, dpi)
	y1 := PixelsToPoints(b.Y1, dpi)
	x2 := PixelsToPoints(b.X2, dpi)
	y2 := PixelsToPoints(b.Y2, dpi)
	return Rect{
		X:      x1,
		Y:      FlipY(y2, pageHeightPt),
		Width:  x2 - x1,
		Height: y2 - y1,
	}
}

// Top returns the top edge of the rectangle measured from the top of the
// page, which is how fpdf positions content.
func (r Rect) Top(pageHeightPt float64) float64 {
	return FlipY(r.Y+r.Height, pageHeightPt)
}
