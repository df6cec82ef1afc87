package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/scanforge/pkg/classify"
	"github.com/gardar/scanforge/pkg/layout"
	"github.com/gardar/scanforge/pkg/spacing"
)

// lineMeasurer puts every item on a single line, or splits on "|" so tests
// can ask for multi-line items
type lineMeasurer struct{}

func (lineMeasurer) Wrap(text string, bold bool, size, width float64) []string {
	return strings.Split(text, "|")
}

func line(y1, y2 float64, text string) layout.Line {
	return layout.Line{
		BBox:  layout.NewBBox(50, y1, 500, y2),
		Spans: []layout.Span{{Type: "text", Content: text, Score: 1}},
	}
}

func kinds(items []Item) []classify.Kind {
	out := make([]classify.Kind, len(items))
	for i, it := range items {
		out[i] = it.Kind
	}
	return out
}

func TestPageItems(t *testing.T) {
	p := layout.Page{
		Index: 0, Width: 612, Height: 792,
		Blocks: []layout.Block{
			{Type: layout.TypeTitle, BBox: layout.NewBBox(50, 40, 560, 80), Lines: []layout.Line{line(40, 60, "Big"), line(60, 80, "Title")}},
			{Type: layout.TypeText, BBox: layout.NewBBox(50, 90, 560, 130), Lines: []layout.Line{line(90, 110, "first"), line(110, 130, "second")}},
			{Type: layout.TypeText, BBox: layout.NoBBox, Lines: []layout.Line{line(0, 0, "lost")}},
			{Type: layout.TypeImage, BBox: layout.NewBBox(0, 200, 1224, 400), ImagePath: "fig.png", Caption: []layout.Line{line(400, 410, "Figure 1")}},
			{Type: layout.TypeTitle, BBox: layout.NewBBox(50, 500, 560, 520), Lines: []layout.Line{line(500, 520, "Next")}},
			{Type: layout.TypeText, BBox: layout.NewBBox(50, 530, 560, 540)},
			{Type: layout.TypeText, BBox: layout.NewBBox(50, 740, 560, 760), Lines: []layout.Line{line(740, 760, "1 A footnote")}},
		},
		Discarded: []layout.Block{
			{Type: layout.TypeDiscarded, BBox: layout.NewBBox(500, 770, 560, 780), Lines: []layout.Line{line(770, 780, "12")}},
			{Type: layout.TypeDiscarded, BBox: layout.NewBBox(50, 760, 560, 770), Lines: []layout.Line{line(760, 770, "* Translated from the original edition")}},
		},
	}

	items, skipped := PageItems(p, 72, 400, true)
	assert.Equal(t, 1, skipped)

	want := []classify.Kind{
		classify.KindTitle, classify.KindTitle,
		classify.KindText, classify.KindText,
		classify.KindSpacer,
		classify.KindImage, classify.KindText,
		classify.KindSpacer,
		classify.KindTitle,
		classify.KindSpacer,
		classify.KindFootnote,
		classify.KindPageNumber,
		classify.KindFootnote,
	}
	require.Equal(t, want, kinds(items))

	// Title spacing
	assert.Equal(t, TitleSpaceBefore, items[0].SpaceBefore)
	assert.Equal(t, LineSpaceAfter, items[0].SpaceAfter)
	assert.Zero(t, items[1].SpaceBefore)
	assert.Equal(t, TitleSpaceAfter, items[1].SpaceAfter)
	assert.Equal(t, BodyStyle, items[2].Style)

	// Gap before image is a body gap, gap before a title is the smaller one
	assert.Equal(t, spacing.BodyGap, items[4].SpaceAfter)
	assert.Equal(t, spacing.TitleGap, items[7].SpaceAfter)

	// Image scaled to the frame width
	img := items[5]
	assert.Equal(t, "fig.png", img.Image)
	assert.InDelta(t, 400, img.ImageWidth, 1e-9)
	assert.InDelta(t, 200*400.0/1224, img.ImageHeight, 1e-9)
	assert.Equal(t, CaptionStyle, items[6].Style)

	assert.Equal(t, FootnoteStyle, items[10].Style)
	assert.Zero(t, items[10].SpaceAfter)
	assert.Equal(t, PageNumberStyle, items[11].Style)
	assert.Equal(t, "12", items[11].Text)
}

func TestPageItemsNoFootnoteDetection(t *testing.T) {
	p := layout.Page{Width: 612, Height: 792, Blocks: []layout.Block{
		{Type: layout.TypeText, BBox: layout.NewBBox(50, 740, 560, 760), Lines: []layout.Line{line(740, 760, "1 A footnote")}},
	}}
	items, _ := PageItems(p, 72, 400, false)
	require.Len(t, items, 1)
	assert.Equal(t, classify.KindText, items[0].Kind)
}

func TestPlanPageFits(t *testing.T) {
	items := []Item{
		{Kind: classify.KindTitle, Text: "T", Style: TitleStyle, SpaceBefore: 10, SpaceAfter: 10},
		{Kind: classify.KindText, Text: "a|b", Style: BodyStyle, SpaceAfter: 3},
		{Kind: classify.KindSpacer, SpaceAfter: 11},
		{Kind: classify.KindImage, Image: "x", ImageWidth: 100, ImageHeight: 50, SpaceAfter: 3},
	}
	plan := PlanPage(items, lineMeasurer{}, 400, 700)

	assert.Equal(t, 1.0, plan.Multiplier)
	assert.False(t, plan.Overflow)
	assert.InDelta(t, 15+24+50, plan.Content, 1e-9)
	assert.InDelta(t, 37, plan.Spacing, 1e-9)
	assert.InDelta(t, 15+24+50+37, plan.Used, 1e-9)

	require.Len(t, plan.Elements, 4)
	assert.Equal(t, []string{"a", "b"}, plan.Elements[1].Lines)
	assert.Equal(t, 24.0, plan.Elements[1].Height)
	assert.Equal(t, 10.0, plan.Elements[0].SpaceBefore)
	assert.Equal(t, 11.0, plan.Elements[2].SpaceAfter)
}

func TestPlanPageCompresses(t *testing.T) {
	// 40 body lines of 12pt plus 40 spacings of 10pt in a 600pt frame
	var items []Item
	for i := 0; i < 40; i++ {
		items = append(items, Item{Kind: classify.KindText, Text: "x", Style: BodyStyle, SpaceAfter: 10})
	}
	items = append(items, Item{Kind: classify.KindPageNumber, Text: "3", Style: PageNumberStyle})

	plan := PlanPage(items, lineMeasurer{}, 400, 600)
	content := 40*12.0 + 10
	assert.InDelta(t, 600/(content+400), plan.Multiplier, 1e-9)

	for i, el := range plan.Elements[:40] {
		assert.Equal(t, 12.0, el.Height, "heights are never scaled (element %d)", i)
		assert.InDelta(t, 10*plan.Multiplier, el.SpaceAfter, 1e-9)
	}
	assert.Zero(t, plan.Elements[40].SpaceAfter, "zero spacing stays zero")
}

func TestPlanPageOverflow(t *testing.T) {
	var items []Item
	for i := 0; i < 200; i++ {
		items = append(items, Item{Kind: classify.KindText, Text: "x", Style: BodyStyle, SpaceAfter: LineSpaceAfter})
	}
	plan := PlanPage(items, lineMeasurer{}, 400, 600)

	assert.Equal(t, spacing.MinMultiplier, plan.Multiplier)
	assert.True(t, plan.Overflow)
	for _, el := range plan.Elements {
		assert.GreaterOrEqual(t, el.SpaceAfter, MinSpacing)
	}
}
