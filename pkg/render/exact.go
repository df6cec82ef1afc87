package render

import (
	"fmt"

	"github.com/gardar/scanforge/pkg/classify"
	"github.com/gardar/scanforge/pkg/fontsize"
	"github.com/gardar/scanforge/pkg/geometry"
	"github.com/gardar/scanforge/pkg/layout"
)

// PageSize selects the output page size in exact mode
type PageSize string

const (
	SourceSize PageSize = "source" // Source page at the inferred DPI
	A4Size     PageSize = "a4"     // A4 with a fixed margin offset
)

// LineStep is the vertical distance between consecutive lines of a block in
// exact mode, in points
const LineStep = 14.0

// A4Offset shifts content on A4 pages away from the page edge
var A4Offset = 1 * geometry.CM

// captionSize is the font size of image captions
const captionSize = 9.0

// ExactOptions configures the exact strategy
type ExactOptions struct {
	Buckets         fontsize.Buckets
	DetectFootnotes bool
	PageSize        PageSize
}

// Exact draws every block at its converted source position. Lines are not
// wrapped or clipped.
type Exact struct {
	opts ExactOptions
	dpi  float64
}

// NewExact creates the exact strategy
func NewExact(opts ExactOptions) *Exact {
	if opts.PageSize == "" {
		opts.PageSize = SourceSize
	}
	return &Exact{opts: opts, dpi: geometry.PointsPerInch}
}

// Name implements Renderer
func (e *Exact) Name() string { return "exact" }

// DPI returns the resolution used for conversion
func (e *Exact) DPI() float64 { return e.dpi }

// Prepare infers the document DPI from the first page
func (e *Exact) Prepare(doc *layout.Document) {
	if doc == nil || len(doc.Pages) == 0 {
		return
	}
	first := layout.SortedPages(doc)[0]
	e.dpi = geometry.InferDPI(first.Width, first.Height)
}

// RenderPage implements Renderer
func (e *Exact) RenderPage(c *Canvas, p layout.Page, n int) PageStats {
	stats := PageStats{Multiplier: 1}
	log := c.Logger()

	pageW := geometry.PixelsToPoints(p.Width, e.dpi)
	pageH := geometry.PixelsToPoints(p.Height, e.dpi)
	offset := 0.0
	if e.opts.PageSize == A4Size {
		pageW, pageH, offset = A4Width, A4Height, A4Offset
	}
	c.BeginPage(pageW, pageH, n)
	defer c.EndPage()

	draw := func(idx int, b layout.Block, discarded bool) {
		if !b.BBox.Valid() {
			log.Warn().Int("page", p.Index).Int("block", idx).Bool("discarded", discarded).Msg("skipping block with invalid bbox")
			c.Observer().BlockSkipped(ReasonGeometry)
			stats.Skipped++
			return
		}
		if e.drawBlock(c, p, b, discarded, pageH, offset) {
			stats.Drawn++
		} else {
			c.Observer().BlockSkipped(ReasonDraw)
			stats.Skipped++
		}
	}
	for i, b := range p.Blocks {
		draw(i, b, false)
	}
	for i, b := range p.Discarded {
		draw(i, b, true)
	}
	return stats
}

func (e *Exact) drawBlock(c *Canvas, p layout.Page, b layout.Block, discarded bool, pageH, offset float64) bool {
	r, x, top := e.position(b.BBox, pageH, offset)
	c.Outline(x, top, r.Width, r.Height)
	what := fmt.Sprintf("page %d block %s", p.Index, b.Type)

	if !discarded && b.IsImage() {
		ok := c.guard(what, func() error {
			return e.drawImage(c, b, x, top, r.Width, r.Height)
		})
		if len(b.Caption) > 0 {
			caption := layout.Block{Lines: b.Caption}
			ctop := top + r.Height
			if box := captionBox(b.Caption); box.Valid() {
				ctop = geometry.ConvertBBoxToPoints(box, pageH, e.dpi).Top(pageH) + offset
			}
			c.guard(what+" caption", func() error {
				drawLines(c, caption.TextLines(), x, ctop, false, captionSize)
				return nil
			})
		}
		return ok
	}

	lines := b.TextLines()
	if len(lines) == 0 {
		return true
	}
	size, bold := e.blockFont(b, p.Height, discarded)
	if c.guard(what, func() error {
		drawLines(c, lines, x, top, bold, size)
		return nil
	}) {
		return true
	}

	// One retry in the plainest style before giving up on the block
	return c.guard(what+" fallback", func() error {
		drawLines(c, lines, x, top, false, fontsize.FallbackSize)
		return nil
	})
}

// position converts a block box to points and returns its left edge and its
// top measured from the page top. A non-zero offset moves the box right and
// down, away from the top-left corner of the page.
func (e *Exact) position(box layout.BBox, pageH, offset float64) (geometry.Rect, float64, float64) {
	r := geometry.ConvertBBoxToPoints(box, pageH, e.dpi)
	return r, r.X + offset, r.Top(pageH) + offset
}

func (e *Exact) drawImage(c *Canvas, b layout.Block, x, top, w, h float64) error {
	err := c.DrawImage(b.ImagePath, x, top, w, h)
	if err == nil {
		return nil
	}
	reportMissingImage(c, b.ImagePath, err)
	drawLines(c, []string{ImagePlaceholder(b.ImagePath)}, x, top, false, captionSize)
	return nil
}

// blockFont picks the font size and weight of a text block
func (e *Exact) blockFont(b layout.Block, pageHeightPx float64, discarded bool) (float64, bool) {
	switch {
	case discarded:
		return fontsize.DiscardedSize, false
	case b.Type == layout.TypeTitle:
		return fontsize.TitleSize, true
	case classify.Content(b, pageHeightPx, e.opts.DetectFootnotes) == classify.KindFootnote:
		return fontsize.DiscardedSize, false
	}

	median, err := fontsize.Median(b.LineHeights())
	if err != nil {
		return fontsize.FallbackSize, false
	}
	return fontsize.Classify(geometry.PixelsToPoints(median, e.dpi), e.opts.Buckets), false
}

// drawLines draws line i with its baseline one LineStep per line below top,
// lifted by the font's descent
func drawLines(c *Canvas, lines []string, x, top float64, bold bool, size float64) {
	c.SetFont(bold, size)
	descent := (1 - AscentRatio) * size
	for i, l := range lines {
		c.Text(x, top+float64(i+1)*LineStep-descent, l)
	}
}

func captionBox(lines []layout.Line) layout.BBox {
	box := layout.NoBBox
	for _, l := range lines {
		box = box.Union(l.BBox)
	}
	return box
}
