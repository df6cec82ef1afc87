package layout

import "math"

// BlockType is the tag the upstream parser assigns to a block
type BlockType string

const (
	TypeText      BlockType = "text"
	TypeTitle     BlockType = "title"
	TypeImage     BlockType = "image"
	TypeDiscarded BlockType = "discarded"
)

// SpanImage marks a span that references an image file instead of text
const SpanImage = "image"

// Default page size used when the input omits page_size (US Letter at 72 DPI)
const (
	DefaultPageWidth  float64 = 612
	DefaultPageHeight float64 = 792
)

// Document is the full layout tree of one run
type Document struct {
	Pages []Page // Pages in input order
}

// Page is one source page
type Page struct {
	Index       int     // 0-based page index
	Width       float64 // Width in pixels
	Height      float64 // Height in pixels
	DefaultSize bool    // Set when the input had no usable page size
	Blocks      []Block // Content blocks in reading order
	Discarded   []Block // Blocks the parser excluded from reading order
}

// Block is a text, title or image region on a page
type Block struct {
	Type      BlockType
	BBox      BBox
	Lines     []Line // Text lines, top to bottom
	ImagePath string // Image reference, image blocks only
	Caption   []Line // Caption lines attached to an image block
}

// Line is a single text line inside a block
type Line struct {
	BBox  BBox
	Spans []Span
}

// Span is the smallest recognized unit of content
type Span struct {
	Type      string  // "text", "inline_equation", "image", ...
	Content   string  // Recognized text, may be empty
	Score     float64 // Recognition confidence in [0,1]
	ImagePath string  // Only set on image spans
}

// BBox is an axis-aligned rectangle in pixels, top-left origin
type BBox struct {
	X1 float64 // Left
	Y1 float64 // Top
	X2 float64 // Right
	Y2 float64 // Bottom
}

// NoBBox stands in for absent geometry; it is never Valid
var NoBBox = BBox{X1: math.NaN(), Y1: math.NaN(), X2: math.NaN(), Y2: math.NaN()}

// NewBBox creates a bounding box from corner coordinates
func NewBBox(x1, y1, x2, y2 float64) BBox {
	return BBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Valid reports whether all coordinates are finite and the corners are ordered
func (b BBox) Valid() bool {
	for _, v := range [4]float64{b.X1, b.Y1, b.X2, b.Y2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.X2 >= b.X1 && b.Y2 >= b.Y1
}

// Width of the box in pixels
func (b BBox) Width() float64 { return b.X2 - b.X1 }

// Height of the box in pixels
func (b BBox) Height() float64 { return b.Y2 - b.Y1 }

// Union returns the smallest box containing both b and o.
// An invalid operand is ignored.
func (b BBox) Union(o BBox) BBox {
	if !b.Valid() {
		return o
	}
	if !o.Valid() {
		return b
	}
	return BBox{
		X1: math.Min(b.X1, o.X1),
		Y1: math.Min(b.Y1, o.Y1),
		X2: math.Max(b.X2, o.X2),
		Y2: math.Max(b.Y2, o.Y2),
	}
}

// IsImage reports whether the block should be drawn as an image.
// Blocks of other types only qualify when they carry no text lines.
func (b Block) IsImage() bool {
	return b.Type == TypeImage || (b.ImagePath != "" && len(b.Lines) == 0)
}
