package layout

import (
	"encoding/json"
	"fmt"
)

// Encode writes the document in the layout.json shape accepted by Parse.
// Invalid boxes are omitted; image references are written as image spans.
func Encode(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, ErrNoPages
	}
	raw := rawDocument{PDFInfo: make([]rawPage, 0, len(doc.Pages))}
	for _, p := range doc.Pages {
		idx := p.Index
		rp := rawPage{
			PageIdx:         &idx,
			PageSize:        []float64{p.Width, p.Height},
			PreprocBlocks:   make([]rawBlock, 0, len(p.Blocks)),
			DiscardedBlocks: make([]rawBlock, 0, len(p.Discarded)),
		}
		for _, b := range p.Blocks {
			rp.PreprocBlocks = append(rp.PreprocBlocks, encodeBlock(b))
		}
		for _, b := range p.Discarded {
			rp.DiscardedBlocks = append(rp.DiscardedBlocks, encodeBlock(b))
		}
		raw.PDFInfo = append(raw.PDFInfo, rp)
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode layout: %w", err)
	}
	return data, nil
}

func encodeBlock(b Block) rawBlock {
	rb := rawBlock{Type: string(b.Type), BBox: encodeBBox(b.BBox)}
	for _, l := range b.Lines {
		rb.Lines = append(rb.Lines, encodeLine(l))
	}
	if b.ImagePath != "" {
		rb.Blocks = append(rb.Blocks, rawBlock{
			Type: "image_body",
			BBox: encodeBBox(b.BBox),
			Lines: []rawLine{{
				BBox:  encodeBBox(b.BBox),
				Spans: []rawSpan{{Type: SpanImage, ImagePath: b.ImagePath}},
			}},
		})
	}
	if len(b.Caption) > 0 {
		caption := rawBlock{Type: "image_caption"}
		box := NoBBox
		for _, l := range b.Caption {
			caption.Lines = append(caption.Lines, encodeLine(l))
			box = box.Union(l.BBox)
		}
		caption.BBox = encodeBBox(box)
		rb.Blocks = append(rb.Blocks, caption)
	}
	return rb
}

func encodeLine(l Line) rawLine {
	rl := rawLine{BBox: encodeBBox(l.BBox), Spans: make([]rawSpan, 0, len(l.Spans))}
	for _, s := range l.Spans {
		score := s.Score
		rl.Spans = append(rl.Spans, rawSpan{
			Type:      s.Type,
			Content:   s.Content,
			Score:     &score,
			ImagePath: s.ImagePath,
		})
	}
	return rl
}

func encodeBBox(b BBox) json.RawMessage {
	if !b.Valid() {
		return nil
	}
	data, err := json.Marshal([]float64{b.X1, b.Y1, b.X2, b.Y2})
	if err != nil {
		return nil
	}
	return data
}
