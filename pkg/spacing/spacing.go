// Package spacing decides vertical spacing for flow layout: where to insert
// gap spacers, how far to compress spacing so a page fits, and how wide the
// page margin should be.
package spacing

import (
	"math"

	"github.com/gardar/scanforge/pkg/geometry"
)

// GapThresholdPx is the vertical distance between consecutive blocks, in
// source pixels, above which a spacer is inserted
const GapThresholdPx = 30.0

// Spacer heights in points
var (
	TitleGap = 0.2 * geometry.CM // Before a title, which has its own space-before
	BodyGap  = 0.4 * geometry.CM // Before any other content
)

// MinMultiplier is the strongest compression ever applied to spacing
const MinMultiplier = 0.4

// DetectGap reports whether the distance from the previous block's bottom to
// the current block's top is abnormally large
func DetectGap(prevBottomPx, curTopPx float64) bool {
	return curTopPx-prevBottomPx > GapThresholdPx
}

// GapSpacer returns the spacer height inserted for a detected gap
func GapSpacer(beforeTitle bool) float64 {
	if beforeTitle {
		return TitleGap
	}
	return BodyGap
}

// Multiplier computes the factor applied to every spacing value on a page.
// Element heights are never scaled. The second result reports whether the
// page still overflows after compression.
func Multiplier(contentHeight, baseSpacing, available float64) (float64, bool) {
	total := contentHeight + baseSpacing
	if total <= available || total <= 0 {
		return 1.0, false
	}
	m := math.Max(available/total, MinMultiplier)
	return m, contentHeight+baseSpacing*m > available
}
