package spacing

import (
	"math"

	"github.com/gardar/scanforge/pkg/geometry"
	"github.com/gardar/scanforge/pkg/layout"
)

// Margin bounds in points
var (
	MinMargin = 0.5 * geometry.CM
	MaxMargin = 2 * geometry.CM
)

// InferMargin derives a uniform page margin from the outermost content across
// all pages. The right margin is measured against the width of the first
// page. Without any content blocks it returns MinMargin.
func InferMargin(doc *layout.Document, dpi float64) float64 {
	if doc == nil || len(doc.Pages) == 0 || !(dpi > 0) {
		return MinMargin
	}

	minLeft := math.Inf(1)
	maxRight := math.Inf(-1)
	for _, p := range doc.Pages {
		for _, b := range p.Blocks {
			if !b.BBox.Valid() {
				continue
			}
			minLeft = math.Min(minLeft, b.BBox.X1)
			maxRight = math.Max(maxRight, b.BBox.X2)
		}
	}
	if math.IsInf(minLeft, 1) {
		return MinMargin
	}

	pageWidth := layout.SortedPages(doc)[0].Width
	left := geometry.PixelsToPoints(minLeft, dpi)
	right := geometry.PixelsToPoints(pageWidth-maxRight, dpi)
	return ClampMargin(math.Max(left, right))
}

// ClampMargin limits a margin to [MinMargin, MaxMargin]
func ClampMargin(m float64) float64 {
	return math.Min(math.Max(m, MinMargin), MaxMargin)
}
