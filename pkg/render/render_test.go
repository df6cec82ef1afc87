package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"github.com/gardar/scanforge/internal/pdfcheck"
	"github.com/gardar/scanforge/pkg/classify"
	"github.com/gardar/scanforge/pkg/fontsize"
	"github.com/gardar/scanforge/pkg/layout"
)

var testBuckets = fontsize.Buckets{Bucket9: 20, Bucket10: 23, Bucket11: 26, Bucket12: 30, Bucket14: 36}

type recorder struct {
	skipped  map[string]int
	missing  int
	overflow int
	fallback int
	glyphs   int
}

func newRecorder() *recorder { return &recorder{skipped: map[string]int{}} }

func (r *recorder) BlockSkipped(reason string) { r.skipped[reason]++ }
func (r *recorder) ImageMissing()              { r.missing++ }
func (r *recorder) PageOverflow()              { r.overflow++ }
func (r *recorder) FontFallback()              { r.fallback++ }
func (r *recorder) GlyphsReplaced(n int)       { r.glyphs += n }

func newTestCanvas(t *testing.T, root string, obs Observer) *Canvas {
	t.Helper()
	c, err := NewCanvas(CanvasOptions{
		Title:     "test",
		Fonts:     []FontCandidate{},
		ImageRoot: root,
		Logger:    zerolog.Nop(),
		Observer:  obs,
	})
	require.NoError(t, err)
	return c
}

func finish(t *testing.T, c *Canvas) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Finish(&buf))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	return buf.Bytes()
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func writeTIFF(t *testing.T, path string) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 16, 8))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, tiff.Encode(f, img, nil))
}

// twoPageDoc is a 72 DPI letter document: a title and a three line text
// block on the first page, a lone page number on the second
func twoPageDoc() *layout.Document {
	text := layout.Block{
		Type: layout.TypeText,
		BBox: layout.NewBBox(72, 150, 540, 170),
		Lines: []layout.Line{
			line(150, 156, "first line of body text"),
			line(156, 163, "second line"),
			line(163, 170, "third line"),
		},
	}
	return &layout.Document{Pages: []layout.Page{
		{
			Index: 0, Width: 612, Height: 792,
			Blocks: []layout.Block{
				{Type: layout.TypeTitle, BBox: layout.NewBBox(72, 72, 540, 112), Lines: []layout.Line{line(72, 112, "A Title")}},
				text,
			},
		},
		{
			Index: 1, Width: 612, Height: 792,
			Discarded: []layout.Block{
				{Type: layout.TypeDiscarded, BBox: layout.NewBBox(290, 750, 320, 765), Lines: []layout.Line{line(750, 765, "12")}},
			},
		},
	}}
}

func TestExactRender(t *testing.T) {
	doc := twoPageDoc()
	obs := newRecorder()
	c := newTestCanvas(t, "", obs)
	assert.False(t, c.Font().UTF8)
	assert.Equal(t, 1, obs.fallback)

	e := NewExact(ExactOptions{Buckets: testBuckets})
	e.Prepare(doc)
	assert.InDelta(t, 72, e.DPI(), 1e-9)

	stats := e.RenderPage(c, doc.Pages[0], 1)
	assert.Equal(t, 2, stats.Drawn)
	stats = e.RenderPage(c, doc.Pages[1], 2)
	assert.Equal(t, 1, stats.Drawn)

	// Title is fixed, body follows its median line height, the page number is discarded text
	size, bold := e.blockFont(doc.Pages[0].Blocks[0], 792, false)
	assert.Equal(t, fontsize.TitleSize, size)
	assert.True(t, bold)
	size, _ = e.blockFont(doc.Pages[0].Blocks[1], 792, false)
	assert.Equal(t, fontsize.Classify(7, testBuckets), size)
	size, _ = e.blockFont(doc.Pages[1].Discarded[0], 792, true)
	assert.Equal(t, fontsize.DiscardedSize, size)
	assert.Equal(t, classify.KindPageNumber, classify.ClassifyDiscarded(doc.Pages[1].Discarded[0].Text()))

	data := finish(t, c)
	n, err := pdfcheck.PageCount(data)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, pdfcheck.Validate(data))
}

func TestExactSkipsBadGeometryAndMissingImages(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "images"), 0755))
	writePNG(t, filepath.Join(dir, "images", "ok.png"), 40, 20)

	doc := &layout.Document{Pages: []layout.Page{{
		Index: 0, Width: 612, Height: 792,
		Blocks: []layout.Block{
			{Type: layout.TypeText, BBox: layout.NoBBox, Lines: []layout.Line{line(0, 10, "lost")}},
			{Type: layout.TypeText, BBox: layout.NewBBox(100, 10, 50, 20), Lines: []layout.Line{line(0, 10, "inverted")}},
			{Type: layout.TypeImage, BBox: layout.NewBBox(72, 200, 272, 300), ImagePath: "ok.png"},
			{Type: layout.TypeImage, BBox: layout.NewBBox(72, 400, 272, 500), ImagePath: "gone.png",
				Caption: []layout.Line{line(500, 510, "Figure 2")}},
			{Type: layout.TypeText, BBox: layout.NewBBox(72, 600, 400, 620), Lines: []layout.Line{line(600, 620, "Ünïcödé and жук")}},
		},
	}}}

	obs := newRecorder()
	c := newTestCanvas(t, dir, obs)
	e := NewExact(ExactOptions{Buckets: testBuckets, PageSize: A4Size})
	e.Prepare(doc)
	stats := e.RenderPage(c, doc.Pages[0], 1)

	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 3, stats.Drawn)
	assert.Equal(t, 2, obs.skipped[ReasonGeometry])
	assert.Equal(t, 1, obs.missing)
	assert.Equal(t, 3, obs.glyphs, "ж, у and к are outside Windows-1252")

	n, err := pdfcheck.PageCount(finish(t, c))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFlowRender(t *testing.T) {
	dir := t.TempDir()
	writeTIFF(t, filepath.Join(dir, "scan.tiff"))

	doc := twoPageDoc()
	doc.Pages[0].Blocks = append(doc.Pages[0].Blocks, layout.Block{
		Type: layout.TypeImage, BBox: layout.NewBBox(72, 300, 372, 450), ImagePath: "scan.tiff",
	})

	// A third page with far more text than fits
	var lines []layout.Line
	for i := 0; i < 120; i++ {
		lines = append(lines, line(float64(i*6), float64(i*6+6), strings.Repeat("word ", 30)))
	}
	doc.Pages = append(doc.Pages, layout.Page{
		Index: 2, Width: 612, Height: 792,
		Blocks: []layout.Block{{Type: layout.TypeText, BBox: layout.NewBBox(72, 0, 540, 720), Lines: lines}},
	})

	obs := newRecorder()
	c := newTestCanvas(t, dir, obs)
	f := NewFlow(FlowOptions{})
	f.Prepare(doc)
	assert.InDelta(t, 2*72.0/2.54, f.Margin(), 1e-9, "72pt of whitespace clamps to 2cm")

	for i, p := range layout.SortedPages(doc) {
		stats := f.RenderPage(c, p, i+1)
		assert.Zero(t, stats.Skipped, "page %d", i)
	}
	assert.Zero(t, obs.missing, "TIFF is transcoded, not missing")
	assert.Equal(t, 1, obs.overflow)
	assert.Equal(t, 3, c.PageCount())

	n, err := pdfcheck.PageCount(finish(t, c))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestFlowPlaceholderForMissingImage(t *testing.T) {
	doc := &layout.Document{Pages: []layout.Page{{
		Index: 0, Width: 612, Height: 792,
		Blocks: []layout.Block{{Type: layout.TypeImage, BBox: layout.NewBBox(72, 72, 300, 300), ImagePath: "nowhere/lost.jpg"}},
	}}}
	obs := newRecorder()
	c := newTestCanvas(t, t.TempDir(), obs)
	f := NewFlow(FlowOptions{Margin: 50})
	f.Prepare(doc)
	assert.Equal(t, 50.0, f.Margin())

	stats := f.RenderPage(c, doc.Pages[0], 1)
	assert.Equal(t, 1, stats.Drawn)
	assert.Equal(t, 1, obs.missing)
	finish(t, c)
}

func TestCanvasLayersAndDebug(t *testing.T) {
	c, err := NewCanvas(CanvasOptions{
		Fonts:     []FontCandidate{{Regular: "/does/not/exist.ttf"}},
		LayerName: "Text",
		Debug:     true,
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)

	doc := twoPageDoc()
	e := NewExact(ExactOptions{Buckets: testBuckets})
	e.Prepare(doc)
	for i, p := range doc.Pages {
		e.RenderPage(c, p, i+1)
	}
	assert.False(t, c.Font().UTF8)

	n, err := pdfcheck.PageCount(finish(t, c))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestWrap(t *testing.T) {
	c := newTestCanvas(t, "", nil)
	c.BeginPage(A4Width, A4Height, 1)

	text := "the quick brown fox jumps over the lazy dog"
	lines := c.Wrap(text, false, 10, 80)
	require.Greater(t, len(lines), 1)
	assert.Equal(t, text, strings.Join(lines, " "))
	for _, l := range lines {
		if strings.Contains(l, " ") {
			assert.LessOrEqual(t, c.StringWidth(l), 80.0)
		}
	}

	assert.Equal(t, []string{"unbreakable"}, c.Wrap("unbreakable", false, 10, 5))
	assert.Empty(t, c.Wrap("   ", false, 10, 100))
}

func TestEncodeCore(t *testing.T) {
	s, n := encodeCore("café €5 ж")
	assert.Equal(t, 1, n)
	assert.Equal(t, "caf\xe9 \x805 ?", s)
}

func TestFit(t *testing.T) {
	w, h := fit(200, 100, 100, 100)
	assert.Equal(t, 100.0, w)
	assert.Equal(t, 50.0, h)

	w, h = fit(100, 400, 100, 100)
	assert.Equal(t, 25.0, w)
	assert.Equal(t, 100.0, h)
}

func TestImagePlaceholder(t *testing.T) {
	assert.Equal(t, "[Image: a.jpg]", ImagePlaceholder("images/a.jpg"))
	assert.Equal(t, "[Image: missing]", ImagePlaceholder(""))
}

func TestTrueTypeFont(t *testing.T) {
	const regular = "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf"
	if _, err := os.Stat(regular); err != nil {
		t.Skip("DejaVu Sans not installed")
	}
	obs := newRecorder()
	c, err := NewCanvas(CanvasOptions{
		Fonts:    []FontCandidate{{Regular: "/missing.ttf"}, {Regular: regular, Bold: "/missing-bold.ttf"}},
		Logger:   zerolog.Nop(),
		Observer: obs,
	})
	require.NoError(t, err)
	assert.True(t, c.Font().UTF8)
	assert.Equal(t, regular, c.Font().Source)
	assert.Empty(t, c.Font().BoldStyle, "missing bold face reuses regular")
	assert.Zero(t, obs.fallback)

	doc := twoPageDoc()
	doc.Pages[0].Blocks[1].Lines[0] = line(150, 156, "3 Автор текста")
	e := NewExact(ExactOptions{Buckets: testBuckets})
	e.Prepare(doc)
	for i, p := range doc.Pages {
		e.RenderPage(c, p, i+1)
	}
	assert.Zero(t, obs.glyphs)

	n, err := pdfcheck.PageCount(finish(t, c))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
