package layout

// Clone returns a deep copy of the document.
// Transforms work on clones so the caller's tree is never aliased.
func Clone(doc *Document) *Document {
	if doc == nil {
		return nil
	}
	out := &Document{Pages: make([]Page, len(doc.Pages))}
	for i, p := range doc.Pages {
		cp := p
		cp.Blocks = cloneBlocks(p.Blocks)
		cp.Discarded = cloneBlocks(p.Discarded)
		out.Pages[i] = cp
	}
	return out
}

func cloneBlocks(blocks []Block) []Block {
	if blocks == nil {
		return nil
	}
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		cb := b
		cb.Lines = cloneLines(b.Lines)
		cb.Caption = cloneLines(b.Caption)
		out[i] = cb
	}
	return out
}

func cloneLines(lines []Line) []Line {
	if lines == nil {
		return nil
	}
	out := make([]Line, len(lines))
	for i, l := range lines {
		cl := l
		if l.Spans != nil {
			cl.Spans = append([]Span(nil), l.Spans...)
		}
		out[i] = cl
	}
	return out
}
