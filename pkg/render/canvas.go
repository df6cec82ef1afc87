package render

import (
	"fmt"
	"io"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"github.com/rs/zerolog"
)

// CanvasOptions configures the output document
type CanvasOptions struct {
	Title     string
	Fonts     []FontCandidate // nil selects DefaultFontCandidates
	ImageRoot string          // Directory image references are resolved against
	LayerName string          // When set, page content goes into a named OCG layer
	Debug     bool            // Outline block boxes
	Logger    zerolog.Logger
	Observer  Observer
}

// Canvas owns the fpdf document for one run
type Canvas struct {
	pdf     *fpdf.Fpdf
	font    FontSet
	images  *imageStore
	log     zerolog.Logger
	obs     Observer
	layer   string
	debug   bool
	inLayer bool
}

// NewCanvas creates an empty document and registers its fonts
func NewCanvas(opts CanvasOptions) (*Canvas, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("scanforge", true)
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}

	obs := opts.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	c := &Canvas{
		pdf:    pdf,
		images: newImageStore(opts.ImageRoot),
		log:    opts.Logger,
		obs:    obs,
		layer:  opts.LayerName,
		debug:  opts.Debug,
	}

	candidates := opts.Fonts
	if candidates == nil {
		candidates = DefaultFontCandidates()
	}
	c.font = loadFonts(pdf, candidates, c.log)
	if !c.font.UTF8 {
		c.log.Warn().Msg("no TrueType font available, using Helvetica; characters outside Windows-1252 will be replaced")
		obs.FontFallback()
	}
	if pdf.Err() {
		return nil, fmt.Errorf("failed to set up document: %w", pdf.Error())
	}
	return c, nil
}

// Font returns the font set in use
func (c *Canvas) Font() FontSet { return c.font }

// Logger returns the canvas logger
func (c *Canvas) Logger() *zerolog.Logger { return &c.log }

// Observer returns the event sink
func (c *Canvas) Observer() Observer { return c.obs }

// PageCount returns the number of pages added so far
func (c *Canvas) PageCount() int { return c.pdf.PageCount() }

// BeginPage adds a page of the given size in points. n is the 1-based page
// number used for the layer name.
func (c *Canvas) BeginPage(width, height float64, n int) {
	c.endLayer()
	c.pdf.AddPageFormat("P", fpdf.SizeType{Wd: width, Ht: height})
	if c.layer != "" {
		id := c.pdf.AddLayer(fmt.Sprintf("%s (Page %d)", c.layer, n), true)
		c.pdf.BeginLayer(id)
		c.inLayer = true
	}
}

// EndPage closes the page layer, if any
func (c *Canvas) EndPage() { c.endLayer() }

func (c *Canvas) endLayer() {
	if c.inLayer {
		c.pdf.EndLayer()
		c.inLayer = false
	}
}

// SetFont selects the body face. Bold falls back to regular when the font
// set has no bold face.
func (c *Canvas) SetFont(bold bool, size float64) {
	style := ""
	if bold {
		style = c.font.BoldStyle
	}
	c.pdf.SetFont(c.font.Family, style, size)
}

// StringWidth measures s in the current font
func (c *Canvas) StringWidth(s string) float64 {
	if !c.font.UTF8 {
		s, _ = encodeCore(s)
	}
	return c.pdf.GetStringWidth(s)
}

// Text draws s with its baseline at y, x from the left page edge
func (c *Canvas) Text(x, y float64, s string) {
	if !c.font.UTF8 {
		var replaced int
		s, replaced = encodeCore(s)
		if replaced > 0 {
			c.obs.GlyphsReplaced(replaced)
			c.log.Debug().Int("count", replaced).Msg("replaced characters missing from core font")
		}
	}
	c.pdf.Text(x, y, s)
}

// TextAligned draws s within [x, x+width] using "L", "C" or "R" alignment
func (c *Canvas) TextAligned(x, y, width float64, s, align string) {
	switch align {
	case "C":
		x += (width - c.StringWidth(s)) / 2
	case "R":
		x += width - c.StringWidth(s)
	}
	c.Text(x, y, s)
}

// Wrap breaks text into lines no wider than width at the given font.
// A single word wider than width gets a line of its own.
func (c *Canvas) Wrap(text string, bold bool, size, width float64) []string {
	c.SetFont(bold, size)
	words := strings.Fields(text)
	var lines []string
	cur := ""
	for _, w := range words {
		if cur == "" {
			cur = w
			continue
		}
		candidate := cur + " " + w
		if c.StringWidth(candidate) <= width {
			cur = candidate
			continue
		}
		lines = append(lines, cur)
		cur = w
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

// Outline draws a debug rectangle when debug mode is on
func (c *Canvas) Outline(x, top, w, h float64) {
	if !c.debug {
		return
	}
	c.pdf.SetDrawColor(255, 0, 0)
	c.pdf.SetLineWidth(0.5)
	c.pdf.Rect(x, top, w, h, "D")
	c.pdf.SetDrawColor(0, 0, 0)
}

// guard runs one drawing step. Errors and panics are logged and cleared so
// the rest of the page can still be drawn.
func (c *Canvas) guard(what string, fn func() error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Warn().Str("element", what).Interface("panic", r).Msg("recovered while drawing")
			c.pdf.ClearError()
			ok = false
		}
	}()

	if err := fn(); err != nil {
		c.log.Warn().Str("element", what).Err(err).Msg("failed to draw")
		c.pdf.ClearError()
		return false
	}
	if c.pdf.Err() {
		c.log.Warn().Str("element", what).Err(c.pdf.Error()).Msg("failed to draw")
		c.pdf.ClearError()
		return false
	}
	return true
}

// Finish writes the document to w
func (c *Canvas) Finish(w io.Writer) error {
	c.endLayer()
	if err := c.pdf.Output(w); err != nil {
		return fmt.Errorf("failed to generate PDF: %w", err)
	}
	return nil
}
