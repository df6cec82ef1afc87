// Package review finds low-confidence spans for a human to check and applies
// the corrections that come back.
//
// Items and corrections address a span by page index, block list, block,
// line and span position, so both survive a round trip through a file.
package review

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gardar/scanforge/pkg/layout"
)

// DefaultThreshold is the score below which a span is offered for review
const DefaultThreshold = 0.9

// Category names the block list a location points into
type Category string

const (
	Content   Category = "preproc_blocks"
	Discarded Category = "discarded_blocks"
)

// ErrLocation is returned for a correction that points outside the document
var ErrLocation = errors.New("location not found")

// Location addresses one span in a document
type Location struct {
	Page     int      `json:"page_idx" yaml:"page_idx"`
	Category Category `json:"block_category" yaml:"block_category"`
	Block    int      `json:"block_idx" yaml:"block_idx"`
	Line     int      `json:"line_idx" yaml:"line_idx"`
	Span     int      `json:"span_idx" yaml:"span_idx"`
}

// String formats the location for log messages
func (l Location) String() string {
	return fmt.Sprintf("page %d %s block %d line %d span %d", l.Page, l.Category, l.Block, l.Line, l.Span)
}

// Item is a span offered for review
type Item struct {
	ID        int              `json:"id" yaml:"id"`
	Location  Location         `json:"location" yaml:"location"`
	BlockType layout.BlockType `json:"block_type" yaml:"block_type"`
	Content   string           `json:"content" yaml:"content"`
	Score     float64          `json:"score" yaml:"score"`
}

// Correction is the reviewed text for one span. An empty Text deletes the
// span content.
type Correction struct {
	Location Location `json:"location" yaml:"location"`
	Original string   `json:"original,omitempty" yaml:"original,omitempty"`
	Text     string   `json:"corrected" yaml:"corrected"`
}

// Summary counts the outcome of Apply
type Summary struct {
	Applied int // Span content replaced
	Deleted int // Span content cleared
	Skipped int // Correction equal to current content
}

// LowConfidence lists every non-empty text span scored below threshold, in
// document order: pages by index, content blocks before discarded blocks.
// Only text and title blocks are inspected, in both lists.
func LowConfidence(doc *layout.Document, threshold float64) ([]Item, error) {
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("threshold must be within [0,1], got %g", threshold)
	}
	if doc == nil {
		return nil, layout.ErrNoPages
	}

	var items []Item
	for _, p := range layout.SortedPages(doc) {
		lists := []struct {
			cat    Category
			blocks []layout.Block
		}{{Content, p.Blocks}, {Discarded, p.Discarded}}

		for _, list := range lists {
			for bi, b := range list.blocks {
				if b.Type != layout.TypeText && b.Type != layout.TypeTitle {
					continue
				}
				for li, l := range b.Lines {
					for si, s := range l.Spans {
						if !isText(s) || strings.TrimSpace(s.Content) == "" || s.Score >= threshold {
							continue
						}
						items = append(items, Item{
							ID:        len(items) + 1,
							Location:  Location{Page: p.Index, Category: list.cat, Block: bi, Line: li, Span: si},
							BlockType: b.Type,
							Content:   s.Content,
							Score:     s.Score,
						})
					}
				}
			}
		}
	}
	return items, nil
}

// Apply returns a copy of doc with the corrections applied. The input is not
// modified. Any correction with an unknown location fails the whole call.
func Apply(doc *layout.Document, corrections []Correction) (*layout.Document, Summary, error) {
	var sum Summary
	if doc == nil {
		return nil, sum, layout.ErrNoPages
	}
	out := layout.Clone(doc)

	pages := make(map[int]*layout.Page, len(out.Pages))
	for i := range out.Pages {
		pages[out.Pages[i].Index] = &out.Pages[i]
	}

	for i, c := range corrections {
		span, err := lookup(pages, c.Location)
		if err != nil {
			return nil, Summary{}, fmt.Errorf("correction %d (%s): %w", i+1, c.Location, err)
		}
		text := strings.TrimSpace(c.Text)
		switch {
		case text == span.Content:
			sum.Skipped++
		case text == "":
			span.Content = ""
			sum.Deleted++
		default:
			span.Content = text
			sum.Applied++
		}
	}
	return out, sum, nil
}

func lookup(pages map[int]*layout.Page, loc Location) (*layout.Span, error) {
	p, ok := pages[loc.Page]
	if !ok {
		return nil, ErrLocation
	}
	var blocks []layout.Block
	switch loc.Category {
	case Content, "":
		blocks = p.Blocks
	case Discarded:
		blocks = p.Discarded
	default:
		return nil, fmt.Errorf("unknown block category %q", loc.Category)
	}
	if loc.Block < 0 || loc.Block >= len(blocks) {
		return nil, ErrLocation
	}
	lines := blocks[loc.Block].Lines
	if loc.Line < 0 || loc.Line >= len(lines) {
		return nil, ErrLocation
	}
	spans := lines[loc.Line].Spans
	if loc.Span < 0 || loc.Span >= len(spans) {
		return nil, ErrLocation
	}
	return &spans[loc.Span], nil
}

func isText(s layout.Span) bool {
	return s.Type == "" || s.Type == "text"
}
