// Package classify decides the role of each block on a page: body text,
// title, footnote, page number or image.
//
// The footnote and page-number rules are position and pattern heuristics.
// They are best effort and can misread other short text, such as a chapter
// number set on its own line.
package classify

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gardar/scanforge/pkg/layout"
)

// Kind is the rendering role of a block or flow item
type Kind int

const (
	KindText Kind = iota
	KindTitle
	KindFootnote
	KindPageNumber
	KindImage
	KindSpacer
)

// String returns the name of the kind
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindTitle:
		return "title"
	case KindFootnote:
		return "footnote"
	case KindPageNumber:
		return "page-number"
	case KindImage:
		return "image"
	case KindSpacer:
		return "spacer"
	default:
		return "unknown"
	}
}

// FootnoteZone is the fraction of page height below which a block top must
// start to be considered a footnote
const FootnoteZone = 0.80

// maxPageNumberLen bounds the trimmed length of a page-number line
const maxPageNumberLen = 20

// A footnote marker is a number followed by whitespace and a letter. "1. Word"
// is a list item, not a footnote.
var footnotePattern = regexp.MustCompile(`^\d+\s+\p{L}`)

// IsFootnote reports whether a block sits in the bottom fifth of the page and
// its first line starts with a footnote marker. Both must hold.
func IsFootnote(b layout.Block, pageHeightPx float64) bool {
	if !b.BBox.Valid() || b.BBox.Y1 <= FootnoteZone*pageHeightPx {
		return false
	}
	return footnotePattern.MatchString(b.FirstLineText())
}

// ClassifyDiscarded labels a line of discarded text as a page number or a
// footnote.
func ClassifyDiscarded(text string) Kind {
	trimmed := strings.TrimSpace(text)
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '-', '—', ' ', '.':
			return -1
		}
		return r
	}, trimmed)

	short := utf8.RuneCountInString(cleaned) <= 3
	if (isNumeric(cleaned) || short) && utf8.RuneCountInString(trimmed) < maxPageNumberLen {
		return KindPageNumber
	}
	return KindFootnote
}

// Content classifies a content block. Footnote detection only applies to
// plain text blocks and only when enabled.
func Content(b layout.Block, pageHeightPx float64, detectFootnotes bool) Kind {
	switch {
	case b.IsImage():
		return KindImage
	case b.Type == layout.TypeTitle:
		return KindTitle
	case detectFootnotes && b.Type == layout.TypeText && IsFootnote(b, pageHeightPx):
		return KindFootnote
	default:
		return KindText
	}
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
