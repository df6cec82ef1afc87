package layout

import "strings"

// Text joins the non-empty span contents of the line with single spaces
func (l Line) Text() string {
	parts := make([]string, 0, len(l.Spans))
	for _, s := range l.Spans {
		if c := strings.TrimSpace(s.Content); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " ")
}

// TextLines returns the text of every line that has any, in order
func (b Block) TextLines() []string {
	var out []string
	for _, l := range b.Lines {
		if t := l.Text(); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// FirstLineText returns the text of the first line, or "" for a block without lines
func (b Block) FirstLineText() string {
	if len(b.Lines) == 0 {
		return ""
	}
	return b.Lines[0].Text()
}

// Text returns all lines of the block joined by spaces
func (b Block) Text() string {
	return strings.Join(b.TextLines(), " ")
}

// LineHeights returns the pixel heights of the lines with valid geometry
func (b Block) LineHeights() []float64 {
	heights := make([]float64, 0, len(b.Lines))
	for _, l := range b.Lines {
		if l.BBox.Valid() {
			heights = append(heights, l.BBox.Height())
		}
	}
	return heights
}

// PlainText extracts the document text, one line per text line, with a blank
// line between blocks and a form feed between pages.
func PlainText(doc *Document) string {
	var sb strings.Builder
	for i, p := range SortedPages(doc) {
		if i > 0 {
			sb.WriteString("\f")
		}
		blocks := append(append([]Block{}, p.Blocks...), p.Discarded...)
		for _, b := range blocks {
			lines := b.TextLines()
			if b.IsImage() {
				lines = Block{Lines: b.Caption}.TextLines()
			}
			if len(lines) == 0 {
				continue
			}
			for _, l := range lines {
				sb.WriteString(l)
				sb.WriteString("\n")
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
