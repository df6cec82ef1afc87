// Package render draws a layout tree onto PDF pages with fpdf.
//
// Two strategies share one Canvas:
//
// - Exact places every line and image at its converted source position.
// - Flow linearizes each page into typed items and stacks them on an A4
// frame, compressing spacing so the content fits.
//
// Rendering is best effort. A block that fails to draw is logged and
// skipped, and the page carries on with the next block.
package render

import (
	"github.com/gardar/scanforge/pkg/geometry"
	"github.com/gardar/scanforge/pkg/layout"
)

// Renderer is a page layout strategy
type Renderer interface {
	// Name identifies the strategy in logs and metrics
	Name() string
	// Prepare computes document-wide values before the first page
	Prepare(doc *layout.Document)
	// RenderPage adds one output page to the canvas. n is 1-based.
	RenderPage(c *Canvas, p layout.Page, n int) PageStats
}

// PageStats reports what happened on one page
type PageStats struct {
	Drawn      int     // Blocks or items drawn
	Skipped    int     // Blocks skipped for bad geometry or failed drawing
	Overflow   bool    // Flow content did not fit the frame
	Multiplier float64 // Flow spacing multiplier, 1 in exact mode
}

// Observer receives degradation events. All methods must be cheap.
type Observer interface {
	BlockSkipped(reason string)
	ImageMissing()
	PageOverflow()
	FontFallback()
	GlyphsReplaced(n int)
}

type nopObserver struct{}

func (nopObserver) BlockSkipped(string) {}
func (nopObserver) ImageMissing()       {}
func (nopObserver) PageOverflow()       {}
func (nopObserver) FontFallback()       {}
func (nopObserver) GlyphsReplaced(int)  {}

// Skip reasons passed to Observer.BlockSkipped
const (
	ReasonGeometry = "geometry"
	ReasonDraw     = "draw"
)

// AscentRatio is the Helvetica ascender as a fraction of the font size; it
// places baselines below a line's top edge
const AscentRatio = 0.718

// A4 page size in points, the same paper DPI inference matches against
var A4Width, A4Height = geometry.A4.Points()
