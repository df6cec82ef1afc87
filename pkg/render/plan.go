package render

import (
	"math"

	"github.com/gardar/scanforge/pkg/classify"
	"github.com/gardar/scanforge/pkg/geometry"
	"github.com/gardar/scanforge/pkg/layout"
	"github.com/gardar/scanforge/pkg/spacing"
)

// Style is the typography of one flow item kind
type Style struct {
	Name    string
	Size    float64
	Leading float64
	Bold    bool
	Align   string // "L", "C" or "R"
}

// Flow styles
var (
	TitleStyle      = Style{Name: "title", Size: 12, Leading: 15, Bold: true, Align: "C"}
	BodyStyle       = Style{Name: "body", Size: 10.5, Leading: 12, Align: "L"}
	PageNumberStyle = Style{Name: "page-number", Size: 8, Leading: 10, Align: "R"}
	FootnoteStyle   = Style{Name: "footnote", Size: 8, Leading: 10, Align: "L"}
	CaptionStyle    = Style{Name: "caption", Size: 9, Leading: 11, Align: "C"}
)

// Nominal spacing in points
var (
	TitleSpaceBefore = 0.4 * geometry.CM
	TitleSpaceAfter  = 0.4 * geometry.CM // After the last line of a title
	LineSpaceAfter   = 0.1 * geometry.CM // After body lines and inner title lines
	ImageSpaceAfter  = 0.1 * geometry.CM
	MinSpacing       = 0.1 * geometry.CM // Floor for any compressed non-zero spacing
)

// Item is one linearized unit of a page in flow mode
type Item struct {
	Kind        classify.Kind
	Text        string
	Style       Style
	SpaceBefore float64
	SpaceAfter  float64 // For spacers this is the spacer height
	Image       string  // Image reference
	ImageWidth  float64 // Points
	ImageHeight float64 // Points
}

// Element is an item placed by the planner
type Element struct {
	Item
	Lines  []string // Wrapped text
	Height float64  // Content height; spacing excluded
}

// Plan is the result of laying out one page
type Plan struct {
	Elements   []Element
	Content    float64 // Sum of element heights
	Spacing    float64 // Sum of nominal spacing
	Multiplier float64
	Used       float64 // Height used after compression
	Overflow   bool
}

// Measurer wraps text to a width in a given style
type Measurer interface {
	Wrap(text string, bold bool, size, width float64) []string
}

// PageItems linearizes a page: content blocks in order with gap spacers
// between them, then discarded lines as page numbers or footnotes. Blocks
// with invalid geometry are left out and counted.
func PageItems(p layout.Page, dpi, frameWidth float64, detectFootnotes bool) ([]Item, int) {
	var items []Item
	skipped := 0
	lastBottom := 0.0
	haveLast := false

	for _, b := range p.Blocks {
		if !b.BBox.Valid() {
			skipped++
			continue
		}
		kind := classify.Content(b, p.Height, detectFootnotes)

		var blockItems []Item
		if kind == classify.KindImage {
			blockItems = imageItems(b, dpi, frameWidth)
		} else {
			blockItems = textItems(b, kind)
		}
		if len(blockItems) == 0 {
			continue
		}

		if haveLast && spacing.DetectGap(lastBottom, b.BBox.Y1) {
			items = append(items, Item{
				Kind:       classify.KindSpacer,
				SpaceAfter: spacing.GapSpacer(kind == classify.KindTitle),
			})
		}
		items = append(items, blockItems...)
		lastBottom = b.BBox.Y2
		haveLast = true
	}

	for _, b := range p.Discarded {
		if !b.BBox.Valid() {
			skipped++
			continue
		}
		for _, line := range b.TextLines() {
			item := Item{Kind: classify.ClassifyDiscarded(line), Text: line, Style: FootnoteStyle}
			if item.Kind == classify.KindPageNumber {
				item.Style = PageNumberStyle
			}
			items = append(items, item)
		}
	}
	return items, skipped
}

func textItems(b layout.Block, kind classify.Kind) []Item {
	lines := b.TextLines()
	items := make([]Item, 0, len(lines))
	for i, line := range lines {
		item := Item{Kind: kind, Text: line}
		switch kind {
		case classify.KindTitle:
			item.Style = TitleStyle
			item.SpaceAfter = LineSpaceAfter
			if i == 0 {
				item.SpaceBefore = TitleSpaceBefore
			}
			if i == len(lines)-1 {
				item.SpaceAfter = TitleSpaceAfter
			}
		case classify.KindFootnote:
			item.Style = FootnoteStyle
		default:
			item.Style = BodyStyle
			item.SpaceAfter = LineSpaceAfter
		}
		items = append(items, item)
	}
	return items
}

// imageItems sizes the image from its source box, scaled down to the frame
// width, followed by its caption lines
func imageItems(b layout.Block, dpi, frameWidth float64) []Item {
	w := geometry.PixelsToPoints(b.BBox.Width(), dpi)
	h := geometry.PixelsToPoints(b.BBox.Height(), dpi)
	if w > frameWidth && w > 0 {
		h *= frameWidth / w
		w = frameWidth
	}
	items := []Item{{
		Kind:        classify.KindImage,
		Image:       b.ImagePath,
		ImageWidth:  w,
		ImageHeight: h,
		SpaceAfter:  ImageSpaceAfter,
	}}
	for _, line := range (layout.Block{Lines: b.Caption}).TextLines() {
		items = append(items, Item{Kind: classify.KindText, Text: line, Style: CaptionStyle, SpaceAfter: LineSpaceAfter})
	}
	return items
}

// PlanPage measures the items, derives the spacing multiplier for the frame
// height and returns the elements with compressed spacing. Element heights
// are never scaled.
func PlanPage(items []Item, m Measurer, frameWidth, frameHeight float64) Plan {
	plan := Plan{Elements: make([]Element, 0, len(items))}
	for _, it := range items {
		el := Element{Item: it}
		switch it.Kind {
		case classify.KindSpacer:
		case classify.KindImage:
			el.Height = it.ImageHeight
		default:
			el.Lines = m.Wrap(it.Text, it.Style.Bold, it.Style.Size, frameWidth)
			el.Height = float64(len(el.Lines)) * it.Style.Leading
		}
		plan.Content += el.Height
		plan.Spacing += it.SpaceBefore + it.SpaceAfter
		plan.Elements = append(plan.Elements, el)
	}

	plan.Multiplier, plan.Overflow = spacing.Multiplier(plan.Content, plan.Spacing, frameHeight)

	plan.Used = plan.Content
	for i := range plan.Elements {
		el := &plan.Elements[i]
		el.SpaceBefore = compress(el.SpaceBefore, plan.Multiplier)
		el.SpaceAfter = compress(el.SpaceAfter, plan.Multiplier)
		plan.Used += el.SpaceBefore + el.SpaceAfter
	}
	if plan.Used > frameHeight+1e-9 {
		plan.Overflow = true
	}
	return plan
}

func compress(v, m float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Max(v*m, MinSpacing)
}
