package render

import (
	"fmt"

	"github.com/gardar/scanforge/pkg/classify"
	"github.com/gardar/scanforge/pkg/geometry"
	"github.com/gardar/scanforge/pkg/layout"
	"github.com/gardar/scanforge/pkg/spacing"
)

// FlowOptions configures the flow strategy
type FlowOptions struct {
	Margin          float64 // Points; zero or less infers the margin from the content
	DetectFootnotes bool
}

// Flow stacks each page's items on an A4 frame with compressed spacing. Every
// input page produces exactly one output page; content that still overflows
// runs past the bottom margin.
type Flow struct {
	opts   FlowOptions
	dpi    float64
	margin float64
}

// NewFlow creates the flow strategy
func NewFlow(opts FlowOptions) *Flow {
	return &Flow{opts: opts, dpi: geometry.PointsPerInch, margin: spacing.MinMargin}
}

// Name implements Renderer
func (f *Flow) Name() string { return "flow" }

// Margin returns the page margin in points
func (f *Flow) Margin() float64 { return f.margin }

// Prepare infers DPI from the first page and the margin from all content
func (f *Flow) Prepare(doc *layout.Document) {
	if doc == nil || len(doc.Pages) == 0 {
		return
	}
	first := layout.SortedPages(doc)[0]
	f.dpi = geometry.InferDPI(first.Width, first.Height)
	if f.opts.Margin > 0 {
		f.margin = f.opts.Margin
	} else {
		f.margin = spacing.InferMargin(doc, f.dpi)
	}
}

// RenderPage implements Renderer
func (f *Flow) RenderPage(c *Canvas, p layout.Page, n int) PageStats {
	log := c.Logger()
	frameW := A4Width - 2*f.margin
	frameH := A4Height - 2*f.margin

	c.BeginPage(A4Width, A4Height, n)
	defer c.EndPage()
	c.Outline(f.margin, f.margin, frameW, frameH)

	items, skipped := PageItems(p, f.dpi, frameW, f.opts.DetectFootnotes)
	for i := 0; i < skipped; i++ {
		c.Observer().BlockSkipped(ReasonGeometry)
	}
	if skipped > 0 {
		log.Warn().Int("page", p.Index).Int("count", skipped).Msg("skipped blocks with invalid bbox")
	}
	items = f.substituteMissingImages(c, items)

	plan := PlanPage(items, c, frameW, frameH)
	stats := PageStats{Skipped: skipped, Multiplier: plan.Multiplier, Overflow: plan.Overflow}
	if plan.Overflow {
		log.Warn().
			Int("page", p.Index).
			Float64("used", plan.Used).
			Float64("available", frameH).
			Float64("multiplier", plan.Multiplier).
			Msg("content overflows page at maximum spacing compression")
		c.Observer().PageOverflow()
	}
	log.Debug().Int("page", p.Index).Int("items", len(items)).Float64("multiplier", plan.Multiplier).Msg("page planned")

	y := f.margin
	for i, el := range plan.Elements {
		y += el.SpaceBefore
		what := fmt.Sprintf("page %d item %d %s", p.Index, i, el.Kind)
		top := y
		ok := c.guard(what, func() error {
			return f.drawElement(c, el, top, frameW)
		})
		if ok {
			stats.Drawn++
		} else {
			c.Observer().BlockSkipped(ReasonDraw)
			stats.Skipped++
		}
		y += el.Height + el.SpaceAfter
	}
	return stats
}

func (f *Flow) drawElement(c *Canvas, el Element, top, frameW float64) error {
	switch el.Kind {
	case classify.KindSpacer:
		return nil
	case classify.KindImage:
		x := f.margin + (frameW-el.ImageWidth)/2
		return c.DrawImage(el.Image, x, top, el.ImageWidth, el.ImageHeight)
	}

	c.SetFont(el.Style.Bold, el.Style.Size)
	for i, line := range el.Lines {
		lineTop := top + float64(i)*el.Style.Leading
		c.TextAligned(f.margin, baseline(lineTop, el.Style), frameW, line, el.Style.Align)
	}
	return nil
}

// substituteMissingImages replaces image items that cannot be drawn with a
// placeholder caption
func (f *Flow) substituteMissingImages(c *Canvas, items []Item) []Item {
	for i, it := range items {
		if it.Kind != classify.KindImage {
			continue
		}
		err := c.CheckImage(it.Image)
		if err == nil {
			continue
		}
		reportMissingImage(c, it.Image, err)
		items[i] = Item{
			Kind:       classify.KindText,
			Text:       ImagePlaceholder(it.Image),
			Style:      CaptionStyle,
			SpaceAfter: it.SpaceAfter,
		}
	}
	return items
}

// baseline centres the font within the leading and sits the text on the
// Helvetica ascender line
func baseline(lineTop float64, s Style) float64 {
	return lineTop + (s.Leading+s.Size)/2 - (1-AscentRatio)*s.Size
}
