package hocr

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding/charmap"

	"github.com/gardar/scanforge/pkg/layout"
)

var (
	lineClasses  = []string{"ocr_line", "ocr_header", "ocr_caption", "ocr_textfloat"}
	imageClasses = []string{"ocr_photo", "ocr_image", "ocr_graphic"}
)

// ToLayout converts raw hOCR data into a layout document
func ToLayout(data []byte) (*layout.Document, error) {
	decoded, err := decode(data)
	if err != nil {
		return nil, err
	}
	root, err := html.Parse(bytes.NewReader(decoded))
	if err != nil {
		return nil, fmt.Errorf("failed to parse hOCR: %w", err)
	}

	doc := &layout.Document{}
	for _, n := range findAll(root, "ocr_page") {
		doc.Pages = append(doc.Pages, convertPage(n, len(doc.Pages)))
	}
	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("%w: no ocr_page elements found in hOCR data", layout.ErrNoPages)
	}
	if err := layout.Validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// decode converts Latin-1 declared documents to UTF-8
func decode(data []byte) ([]byte, error) {
	head := strings.ToLower(string(data[:min(len(data), 2048)]))
	i := strings.Index(head, "charset=")
	if i < 0 {
		return data, nil
	}
	enc := strings.TrimLeft(head[i+len("charset="):], `"'`)
	if end := strings.IndexAny(enc, `"'; />`); end >= 0 {
		enc = enc[:end]
	}
	switch enc {
	case "iso-8859-1", "latin1", "latin-1", "windows-1252":
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", enc, err)
		}
		return decoded, nil
	}
	return data, nil
}

func convertPage(n *html.Node, idx int) layout.Page {
	page := layout.Page{Index: idx}
	if box := BBoxFromTitle(attr(n, "title")); box.Valid() && box.X2 > 0 && box.Y2 > 0 {
		page.Width, page.Height = box.X2, box.Y2
	} else {
		page.Width, page.Height = layout.DefaultPageWidth, layout.DefaultPageHeight
		page.DefaultSize = true
	}

	var visit func(*html.Node)
	visit = func(c *html.Node) {
		switch {
		case hasClass(c, "ocr_par"):
			if b, ok := paragraphBlock(c); ok {
				page.Blocks = append(page.Blocks, b)
			}
			return
		case hasAnyClass(c, lineClasses):
			l := convertLine(c)
			if len(l.Spans) > 0 {
				page.Blocks = append(page.Blocks, layout.Block{
					Type:  lineBlockType(c),
					BBox:  l.BBox,
					Lines: []layout.Line{l},
				})
			}
			return
		case hasAnyClass(c, imageClasses):
			page.Blocks = append(page.Blocks, layout.Block{
				Type:      layout.TypeImage,
				BBox:      BBoxFromTitle(attr(c, "title")),
				ImagePath: imageName(attr(c, "title")),
			})
			return
		}
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			visit(ch)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		visit(c)
	}
	return page
}

// paragraphBlock builds a block from an ocr_par element. Words without a
// line parent are gathered into one line.
func paragraphBlock(n *html.Node) (layout.Block, bool) {
	b := layout.Block{Type: layout.TypeText, BBox: BBoxFromTitle(attr(n, "title"))}
	lineNodes := findAllAny(n, lineClasses)

	allHeaders := len(lineNodes) > 0
	for _, ln := range lineNodes {
		if l := convertLine(ln); len(l.Spans) > 0 {
			b.Lines = append(b.Lines, l)
		}
		if !hasClass(ln, "ocr_header") {
			allHeaders = false
		}
	}
	if len(lineNodes) == 0 {
		if l := convertLine(n); len(l.Spans) > 0 {
			b.Lines = append(b.Lines, l)
		}
	}
	if len(b.Lines) == 0 {
		return b, false
	}
	if allHeaders {
		b.Type = layout.TypeTitle
	}
	if !b.BBox.Valid() {
		for _, l := range b.Lines {
			b.BBox = b.BBox.Union(l.BBox)
		}
	}
	return b, true
}

// convertLine turns the words under n into spans. A line without word
// elements becomes a single span of its text.
func convertLine(n *html.Node) layout.Line {
	l := layout.Line{BBox: BBoxFromTitle(attr(n, "title"))}
	for _, w := range findAll(n, "ocrx_word") {
		text := textContent(w)
		if text == "" {
			continue
		}
		l.Spans = append(l.Spans, layout.Span{
			Type:    "text",
			Content: text,
			Score:   confidence(attr(w, "title")),
		})
	}
	if len(l.Spans) == 0 {
		if text := textContent(n); text != "" {
			l.Spans = []layout.Span{{Type: "text", Content: text, Score: confidence(attr(n, "title"))}}
		}
	}
	return l
}

func lineBlockType(n *html.Node) layout.BlockType {
	if hasClass(n, "ocr_header") {
		return layout.TypeTitle
	}
	return layout.TypeText
}

// findAll returns the outermost descendants of n carrying class
func findAll(n *html.Node, class string) []*html.Node {
	return findAllAny(n, []string{class})
}

func findAllAny(n *html.Node, classes []string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if hasAnyClass(c, classes) {
			out = append(out, c)
			return
		}
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return out
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func hasAnyClass(n *html.Node, classes []string) bool {
	for _, c := range classes {
		if hasClass(n, c) {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// textContent joins the text nodes below n with single spaces
func textContent(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			if t := strings.TrimSpace(c.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	return strings.Join(parts, " ")
}
