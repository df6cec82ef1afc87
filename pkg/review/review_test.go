package review

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/scanforge/pkg/layout"
)

func span(content string, score float64) layout.Span {
	return layout.Span{Type: "text", Content: content, Score: score}
}

func testDoc() *layout.Document {
	return &layout.Document{Pages: []layout.Page{
		{
			Index: 1, Width: 612, Height: 792,
			Blocks: []layout.Block{
				{Type: layout.TypeText, Lines: []layout.Line{{Spans: []layout.Span{span("good", 0.99), span("bad", 0.4)}}}},
			},
		},
		{
			Index: 0, Width: 612, Height: 792,
			Blocks: []layout.Block{
				{Type: layout.TypeTitle, Lines: []layout.Line{{Spans: []layout.Span{span("Tit1e", 0.7)}}}},
				{Type: layout.TypeImage, ImagePath: "a.png", Lines: []layout.Line{{Spans: []layout.Span{span("ignored", 0.1)}}}},
				{Type: layout.TypeText, Lines: []layout.Line{{Spans: []layout.Span{
					span("  ", 0.1),
					{Type: "inline_equation", Content: "x^2", Score: 0.2},
					span("edge", 0.9),
				}}}},
			},
			Discarded: []layout.Block{
				{Type: layout.TypeDiscarded, Lines: []layout.Line{{Spans: []layout.Span{span("l2", 0.5)}}}},
				{Type: layout.TypeText, Lines: []layout.Line{{Spans: []layout.Span{span("fo0tnote", 0.3)}}}},
			},
		},
	}}
}

func TestLowConfidence(t *testing.T) {
	items, err := LowConfidence(testDoc(), DefaultThreshold)
	require.NoError(t, err)

	want := []Item{
		{ID: 1, Location: Location{Page: 0, Category: Content, Block: 0}, BlockType: layout.TypeTitle, Content: "Tit1e", Score: 0.7},
		{ID: 2, Location: Location{Page: 0, Category: Discarded, Block: 1}, BlockType: layout.TypeText, Content: "fo0tnote", Score: 0.3},
		{ID: 3, Location: Location{Page: 1, Category: Content, Block: 0, Span: 1}, BlockType: layout.TypeText, Content: "bad", Score: 0.4},
	}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Errorf("LowConfidence mismatch (-want +got):\n%s", diff)
	}

	for _, it := range items {
		assert.NotEqual(t, layout.TypeDiscarded, it.BlockType, "discarded-typed blocks are not reviewed")
	}

	_, err = LowConfidence(testDoc(), 1.5)
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	in := testDoc()
	corrections := []Correction{
		{Location: Location{Page: 0, Category: Content, Block: 0}, Original: "Tit1e", Text: "Title"},
		{Location: Location{Page: 1, Category: Content, Block: 0, Span: 1}, Text: ""},
		{Location: Location{Page: 0, Category: Discarded, Block: 0}, Text: "l2"},
	}

	out, sum, err := Apply(in, corrections)
	require.NoError(t, err)
	assert.Equal(t, Summary{Applied: 1, Deleted: 1, Skipped: 1}, sum)

	assert.Equal(t, "Title", out.Pages[1].Blocks[0].Lines[0].Spans[0].Content)
	assert.Equal(t, "", out.Pages[0].Blocks[0].Lines[0].Spans[1].Content)
	assert.Equal(t, "Tit1e", in.Pages[1].Blocks[0].Lines[0].Spans[0].Content, "input must not change")
}

func TestApplyBadLocation(t *testing.T) {
	bad := []Location{
		{Page: 7},
		{Page: 0, Category: Content, Block: 9},
		{Page: 0, Category: Content, Block: 0, Line: 3},
		{Page: 0, Category: Content, Block: 0, Span: -1},
	}
	for _, loc := range bad {
		_, _, err := Apply(testDoc(), []Correction{{Location: loc, Text: "x"}})
		assert.ErrorIs(t, err, ErrLocation, "%s", loc)
	}

	_, _, err := Apply(testDoc(), []Correction{{Location: Location{Category: "footer"}, Text: "x"}})
	assert.Error(t, err)
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	items, err := LowConfidence(testDoc(), DefaultThreshold)
	require.NoError(t, err)

	for _, name := range []string{"items.json", "items.yaml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteItems(path, items))
	}

	yamlCorrections := `
- location:
    page_idx: 0
    block_category: preproc_blocks
    block_idx: 0
    line_idx: 0
    span_idx: 0
  corrected: Title
`
	jsonCorrections := `[{"location": {"page_idx": 0, "block_category": "preproc_blocks", "block_idx": 0, "line_idx": 0, "span_idx": 0}, "corrected": "Title"}]`

	want := []Correction{{Location: Location{Page: 0, Category: Content}, Text: "Title"}}
	for name, body := range map[string]string{"c.yml": yamlCorrections, "c.json": jsonCorrections} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
		got, err := LoadCorrections(path)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err = LoadCorrections(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
