// Package gdocai reads Google Document AI output into a layout document.
//
// Documents are accepted either as the documentaipb.Document proto returned by
// the Document AI client or as its JSON export (the format written by batch
// processing and by `gcloud documentai`).
//
// The conversion keeps the hierarchy the renderer cares about:
//
// - Page: sized by its dimension
// - Paragraph: text block
// - Line: line, assigned to the paragraph whose text anchor contains it
// - Token: span, with the layout confidence as its score
//
// Bounding polygons given in normalized vertices are scaled by the page
// dimension. Absolute vertices are used as they are.
package gdocai

import (
	"fmt"
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/gardar/scanforge/pkg/layout"
)

// FromJSON parses a Document AI JSON export and converts it
func FromJSON(data []byte) (*layout.Document, error) {
	var doc documentaipb.Document
	opts := protojson.UnmarshalOptions{DiscardUnknown: true}
	if err := opts.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse Document AI JSON: %w", err)
	}
	return FromProto(&doc)
}

// FromProto converts a Document AI response into a layout document
func FromProto(doc *documentaipb.Document) (*layout.Document, error) {
	if doc == nil || len(doc.Pages) == 0 {
		return nil, fmt.Errorf("%w: Document AI response has no pages", layout.ErrNoPages)
	}

	text := []rune(doc.Text)
	out := &layout.Document{Pages: make([]layout.Page, 0, len(doc.Pages))}
	for i, page := range doc.Pages {
		out.Pages = append(out.Pages, convertPage(page, text, i))
	}
	if err := layout.Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

func convertPage(page *documentaipb.Document_Page, text []rune, idx int) layout.Page {
	p := layout.Page{Index: idx}
	if d := page.Dimension; d != nil && d.Width > 0 && d.Height > 0 {
		p.Width, p.Height = float64(d.Width), float64(d.Height)
	} else {
		p.Width, p.Height = layout.DefaultPageWidth, layout.DefaultPageHeight
		p.DefaultSize = true
	}

	for _, para := range page.Paragraphs {
		b := layout.Block{Type: layout.TypeText, BBox: bboxFromLayout(para.Layout, page.Dimension)}
		for _, line := range page.Lines {
			if !isElementInParent(line.Layout, para.Layout) {
				continue
			}
			if l := convertLine(line.Layout, page, text); len(l.Spans) > 0 {
				b.Lines = append(b.Lines, l)
			}
		}
		// Paragraphs without line detail still carry their tokens
		if len(b.Lines) == 0 {
			if l := convertLine(para.Layout, page, text); len(l.Spans) > 0 {
				b.Lines = append(b.Lines, l)
			}
		}
		if len(b.Lines) > 0 {
			p.Blocks = append(p.Blocks, b)
		}
	}
	return p
}

// convertLine collects the tokens contained in lay. Without tokens the whole
// anchored text becomes one span.
func convertLine(lay *documentaipb.Document_Page_Layout, page *documentaipb.Document_Page, text []rune) layout.Line {
	l := layout.Line{BBox: bboxFromLayout(lay, page.Dimension)}
	for _, tok := range page.Tokens {
		if !isElementInParent(tok.Layout, lay) {
			continue
		}
		content := strings.TrimSpace(anchorText(tok.Layout, text))
		if content == "" {
			continue
		}
		l.Spans = append(l.Spans, layout.Span{Type: "text", Content: content, Score: confidence(tok.Layout)})
	}
	if len(l.Spans) == 0 {
		if content := strings.Join(strings.Fields(anchorText(lay, text)), " "); content != "" {
			l.Spans = []layout.Span{{Type: "text", Content: content, Score: confidence(lay)}}
		}
	}
	return l
}

// confidence treats an unset (zero) confidence as certain
func confidence(lay *documentaipb.Document_Page_Layout) float64 {
	if lay == nil || lay.Confidence <= 0 {
		return 1
	}
	return min(float64(lay.Confidence), 1)
}

// isElementInParent reports whether the first text segment of element lies
// within the first text segment of parent
func isElementInParent(element, parent *documentaipb.Document_Page_Layout) bool {
	if element == nil || parent == nil ||
		element.TextAnchor == nil || parent.TextAnchor == nil ||
		len(element.TextAnchor.TextSegments) == 0 || len(parent.TextAnchor.TextSegments) == 0 {
		return false
	}

	e := element.TextAnchor.TextSegments[0]
	p := parent.TextAnchor.TextSegments[0]
	return e.StartIndex >= p.StartIndex && e.EndIndex <= p.EndIndex
}
