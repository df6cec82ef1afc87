package layout

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNoPages is returned when the input has no page list or it is empty
	ErrNoPages = errors.New("layout has no pages")
	// ErrDuplicatePage is returned when two pages share an index
	ErrDuplicatePage = errors.New("duplicate page index")
)

type rawDocument struct {
	PDFInfo []rawPage `json:"pdf_info"`
}

type rawPage struct {
	PageIdx         *int       `json:"page_idx"`
	PageSize        []float64  `json:"page_size"`
	PreprocBlocks   []rawBlock `json:"preproc_blocks"`
	DiscardedBlocks []rawBlock `json:"discarded_blocks"`
}

type rawBlock struct {
	Type   string          `json:"type"`
	BBox   json.RawMessage `json:"bbox,omitempty"`
	Lines  []rawLine       `json:"lines,omitempty"`
	Blocks []rawBlock      `json:"blocks,omitempty"`
}

type rawLine struct {
	BBox  json.RawMessage `json:"bbox,omitempty"`
	Spans []rawSpan       `json:"spans"`
}

type rawSpan struct {
	Type      string   `json:"type,omitempty"`
	Content   string   `json:"content"`
	Score     *float64 `json:"score,omitempty"`
	ImagePath string   `json:"image_path,omitempty"`
}

// Parse decodes MinerU layout.json data into a Document.
// A missing or empty pdf_info list is fatal; malformed geometry is not.
func Parse(data []byte) (*Document, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode layout: %w", err)
	}
	if len(raw.PDFInfo) == 0 {
		return nil, ErrNoPages
	}

	doc := &Document{Pages: make([]Page, 0, len(raw.PDFInfo))}
	for i, rp := range raw.PDFInfo {
		page := Page{Index: i}
		if rp.PageIdx != nil {
			page.Index = *rp.PageIdx
		}
		if len(rp.PageSize) >= 2 && rp.PageSize[0] > 0 && rp.PageSize[1] > 0 {
			page.Width, page.Height = rp.PageSize[0], rp.PageSize[1]
		} else {
			page.Width, page.Height = DefaultPageWidth, DefaultPageHeight
			page.DefaultSize = true
		}
		for _, rb := range rp.PreprocBlocks {
			page.Blocks = append(page.Blocks, convertBlock(rb))
		}
		for _, rb := range rp.DiscardedBlocks {
			page.Discarded = append(page.Discarded, convertBlock(rb))
		}
		doc.Pages = append(doc.Pages, page)
	}

	if err := Validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Validate checks that the document can be rendered: at least one page,
// unique page indices and positive page sizes.
func Validate(doc *Document) error {
	if doc == nil || len(doc.Pages) == 0 {
		return ErrNoPages
	}
	seen := make(map[int]bool, len(doc.Pages))
	for _, p := range doc.Pages {
		if seen[p.Index] {
			return fmt.Errorf("%w: %d", ErrDuplicatePage, p.Index)
		}
		seen[p.Index] = true
		if !(p.Width > 0) || !(p.Height > 0) {
			return fmt.Errorf("page %d has invalid size %gx%g", p.Index, p.Width, p.Height)
		}
	}
	return nil
}

// SortedPages returns the pages ordered by ascending page index.
// The input document is not modified.
func SortedPages(doc *Document) []Page {
	pages := make([]Page, len(doc.Pages))
	copy(pages, doc.Pages)
	sort.SliceStable(pages, func(i, j int) bool { return pages[i].Index < pages[j].Index })
	return pages
}

func convertBlock(rb rawBlock) Block {
	b := Block{Type: BlockType(rb.Type), BBox: parseBBox(rb.BBox)}

	for _, rl := range rb.Lines {
		line, img := convertLine(rl)
		if img != "" && b.ImagePath == "" {
			b.ImagePath = img
		}
		if img != "" && len(line.Spans) == 0 {
			continue
		}
		b.Lines = append(b.Lines, line)
	}

	// Image bodies and captions arrive as nested blocks
	for _, nested := range rb.Blocks {
		child := convertBlock(nested)
		if child.ImagePath != "" && b.ImagePath == "" {
			b.ImagePath = child.ImagePath
		}
		switch {
		case strings.HasSuffix(nested.Type, "_caption"):
			b.Caption = append(b.Caption, child.Lines...)
		case b.Type != TypeImage:
			b.Lines = append(b.Lines, child.Lines...)
		}
		if !b.BBox.Valid() {
			b.BBox = b.BBox.Union(child.BBox)
		}
	}

	if b.Type == TypeImage {
		b.Lines = nil
	}
	return b
}

// convertLine returns the line and the first image path found in its spans.
// Image spans are not kept as text.
func convertLine(rl rawLine) (Line, string) {
	line := Line{BBox: parseBBox(rl.BBox)}
	img := ""
	for _, rs := range rl.Spans {
		if rs.Type == SpanImage || (rs.ImagePath != "" && rs.Content == "") {
			if img == "" {
				img = rs.ImagePath
			}
			continue
		}
		score := 1.0
		if rs.Score != nil {
			score = *rs.Score
		}
		line.Spans = append(line.Spans, Span{
			Type:      rs.Type,
			Content:   rs.Content,
			Score:     score,
			ImagePath: rs.ImagePath,
		})
	}
	return line, img
}

// parseBBox leniently decodes [x1,y1,x2,y2]; anything else is NoBBox
func parseBBox(raw json.RawMessage) BBox {
	if len(raw) == 0 {
		return NoBBox
	}
	var v []float64
	if err := json.Unmarshal(raw, &v); err != nil || len(v) != 4 {
		return NoBBox
	}
	return NewBBox(v[0], v[1], v[2], v[3])
}
