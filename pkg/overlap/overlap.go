// Package overlap shrinks line boxes that upstream measurement made too tall,
// so that consecutive lines of a block do not draw over each other.
//
// The correction is heuristic. It narrows the tallest cases but does not
// promise that no overlap remains.
package overlap

import (
	"math"

	"github.com/gardar/scanforge/pkg/fontsize"
	"github.com/gardar/scanforge/pkg/layout"
)

// Options controls when a block is corrected
type Options struct {
	TargetLineHeightPx float64 `yaml:"target_line_height_px"` // Height lines are scaled toward
	ThresholdPx        float64 `yaml:"threshold_px"`          // Negative: required worst overlap between lines
}

// DefaultOptions are the values used by the command line tool
func DefaultOptions() Options {
	return Options{TargetLineHeightPx: 34, ThresholdPx: -10}
}

// Stats summarizes a correction pass
type Stats struct {
	Blocks int // Blocks whose lines were rescaled
	Lines  int // Lines rescaled
}

// Fix returns a corrected copy of doc. The input is left untouched.
//
// A text or title block with at least two measurable lines is corrected when
// its median line height exceeds the target and, for a negative threshold,
// when some pair of consecutive lines overlaps by more than the threshold.
// Each line keeps its top edge and has its height scaled by target/median.
// The block box becomes the union of its lines.
func Fix(doc *layout.Document, opts Options) (*layout.Document, Stats) {
	out := layout.Clone(doc)
	var stats Stats
	if out == nil || !(opts.TargetLineHeightPx > 0) {
		return out, stats
	}

	for pi := range out.Pages {
		blocks := out.Pages[pi].Blocks
		for bi := range blocks {
			if n := fixBlock(&blocks[bi], opts); n > 0 {
				stats.Blocks++
				stats.Lines += n
			}
		}
	}
	return out, stats
}

// fixBlock rescales the block's lines in place and returns how many changed
func fixBlock(b *layout.Block, opts Options) int {
	if b.Type != layout.TypeText && b.Type != layout.TypeTitle {
		return 0
	}
	heights := b.LineHeights()
	if len(heights) < 2 {
		return 0
	}
	median, err := fontsize.Median(heights)
	if err != nil || median <= opts.TargetLineHeightPx {
		return 0
	}
	if opts.ThresholdPx < 0 && worstGap(b.Lines) >= opts.ThresholdPx {
		return 0
	}

	ratio := opts.TargetLineHeightPx / median
	box := layout.NoBBox
	n := 0
	for i := range b.Lines {
		l := &b.Lines[i]
		if !l.BBox.Valid() {
			continue
		}
		l.BBox.Y2 = l.BBox.Y1 + l.BBox.Height()*ratio
		box = box.Union(l.BBox)
		n++
	}
	b.BBox = box
	return n
}

// worstGap returns the smallest vertical gap between consecutive measurable
// lines; negative values are overlaps
func worstGap(lines []layout.Line) float64 {
	worst := math.Inf(1)
	var prev *layout.Line
	for i := range lines {
		l := &lines[i]
		if !l.BBox.Valid() {
			continue
		}
		if prev != nil {
			worst = math.Min(worst, l.BBox.Y1-prev.BBox.Y2)
		}
		prev = l
	}
	return worst
}
