package layout

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLayout = `{
  "pdf_info": [
    {
      "page_idx": 1,
      "page_size": [612, 792],
      "preproc_blocks": [
        {"type": "title", "bbox": [50, 40, 560, 80], "lines": [
          {"bbox": [50, 40, 560, 80], "spans": [{"type": "text", "content": "Chapter", "score": 0.99}, {"type": "text", "content": "One", "score": 0.5}]}
        ]},
        {"type": "image", "bbox": [100, 100, 300, 250], "blocks": [
          {"type": "image_body", "bbox": [100, 100, 300, 230], "lines": [
            {"bbox": [100, 100, 300, 230], "spans": [{"type": "image", "image_path": "abc.jpg"}]}
          ]},
          {"type": "image_caption", "bbox": [100, 232, 300, 250], "lines": [
            {"bbox": [100, 232, 300, 250], "spans": [{"type": "text", "content": "Figure 1", "score": 0.97}]}
          ]}
        ]},
        {"type": "text", "bbox": [10, 20], "lines": []}
      ],
      "discarded_blocks": [
        {"type": "discarded", "bbox": [290, 760, 320, 775], "lines": [
          {"bbox": [290, 760, 320, 775], "spans": [{"type": "text", "content": "12"}]}
        ]}
      ]
    },
    {
      "page_idx": 0,
      "preproc_blocks": []
    }
  ]
}`

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(sampleLayout))
	require.NoError(t, err)
	require.Len(t, doc.Pages, 2)

	p := doc.Pages[0]
	assert.Equal(t, 1, p.Index)
	assert.Equal(t, 612.0, p.Width)
	assert.False(t, p.DefaultSize)
	require.Len(t, p.Blocks, 3)

	title := p.Blocks[0]
	assert.Equal(t, TypeTitle, title.Type)
	assert.Equal(t, "Chapter One", title.FirstLineText())
	assert.Equal(t, 0.5, title.Lines[0].Spans[1].Score)

	img := p.Blocks[1]
	assert.True(t, img.IsImage())
	assert.Equal(t, "abc.jpg", img.ImagePath)
	assert.Empty(t, img.Lines)
	require.Len(t, img.Caption, 1)
	assert.Equal(t, "Figure 1", img.Caption[0].Text())

	assert.False(t, p.Blocks[2].BBox.Valid(), "short bbox must be invalid")

	require.Len(t, p.Discarded, 1)
	assert.Equal(t, "12", p.Discarded[0].Text())
	assert.Equal(t, 1.0, p.Discarded[0].Lines[0].Spans[0].Score, "missing score defaults to 1")

	second := doc.Pages[1]
	assert.True(t, second.DefaultSize)
	assert.Equal(t, DefaultPageHeight, second.Height)

	sorted := SortedPages(doc)
	assert.Equal(t, 0, sorted[0].Index)
	assert.Equal(t, 1, sorted[1].Index)
	assert.Equal(t, 1, doc.Pages[0].Index, "SortedPages must not reorder the input")
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"missing pdf_info", `{"other": []}`, ErrNoPages},
		{"empty pdf_info", `{"pdf_info": []}`, ErrNoPages},
		{"duplicate index", `{"pdf_info": [{"page_idx": 0}, {"page_idx": 0}]}`, ErrDuplicatePage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	_, err := Parse([]byte(`{not json`))
	assert.Error(t, err)
}

func TestEncodeRoundTrip(t *testing.T) {
	doc, err := Parse([]byte(sampleLayout))
	require.NoError(t, err)

	data, err := Encode(doc)
	require.NoError(t, err)

	again, err := Parse(data)
	require.NoError(t, err)

	// The second page had its size defaulted; after encoding the size is explicit.
	doc.Pages[1].DefaultSize = false
	if diff := cmp.Diff(doc, again, cmpopts.EquateNaNs(), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestBBox(t *testing.T) {
	assert.True(t, NewBBox(0, 0, 0, 0).Valid())
	assert.False(t, NewBBox(10, 0, 5, 5).Valid())
	assert.False(t, NoBBox.Valid())

	u := NewBBox(0, 10, 5, 20).Union(NewBBox(3, 2, 8, 15))
	assert.Equal(t, NewBBox(0, 2, 8, 20), u)
	assert.Equal(t, u, NoBBox.Union(u))
}

func TestClone(t *testing.T) {
	doc, err := Parse([]byte(sampleLayout))
	require.NoError(t, err)

	cp := Clone(doc)
	cp.Pages[0].Blocks[0].Lines[0].Spans[0].Content = "changed"
	cp.Pages[0].Blocks[0].Lines[0].BBox.Y2 = 1

	assert.Equal(t, "Chapter", doc.Pages[0].Blocks[0].Lines[0].Spans[0].Content)
	assert.Equal(t, 80.0, doc.Pages[0].Blocks[0].Lines[0].BBox.Y2)
}

func TestPlainText(t *testing.T) {
	doc, err := Parse([]byte(sampleLayout))
	require.NoError(t, err)

	want := "\fChapter One\n\nFigure 1\n\n12\n\n"
	assert.Equal(t, want, PlainText(doc))
}
