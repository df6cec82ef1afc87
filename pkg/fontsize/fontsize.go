// Package fontsize infers a discrete font size from measured line heights.
package fontsize

import (
	"errors"
	"fmt"
	"sort"
)

// Fixed sizes that bypass the bucket ladder
const (
	TitleSize     = 12.0 // Every title line
	DiscardedSize = 8.0  // Discarded blocks and detected footnotes
	FallbackSize  = 11.0 // Text blocks without measurable lines
)

// smallestBucket is the line height in points below which text is set at 8pt
const smallestBucket = 18.0

// ErrEmpty is returned by Median for an empty input
var ErrEmpty = errors.New("no line heights")

// Buckets holds the line-height thresholds in points. A line height below
// Bucket9 maps to 9pt, below Bucket10 to 10pt and so on; at or above Bucket14
// it maps to 14pt. Values must be strictly ascending.
type Buckets struct {
	Bucket9  float64 `yaml:"bucket_9"`
	Bucket10 float64 `yaml:"bucket_10"`
	Bucket11 float64 `yaml:"bucket_11"`
	Bucket12 float64 `yaml:"bucket_12"`
	Bucket14 float64 `yaml:"bucket_14"`
}

// Validate checks that all thresholds are positive and strictly ascending
func (b Buckets) Validate() error {
	values := []float64{b.Bucket9, b.Bucket10, b.Bucket11, b.Bucket12, b.Bucket14}
	for i, v := range values {
		if !(v > 0) {
			return fmt.Errorf("font bucket %d must be positive, got %g", i, v)
		}
		if i > 0 && v <= values[i-1] {
			return fmt.Errorf("font buckets must be strictly ascending: %g after %g", v, values[i-1])
		}
	}
	return nil
}

// Classify maps a line height in points to a font size.
// Boundary values fall into the lower bucket.
func Classify(lineHeightPt float64, b Buckets) float64 {
	switch {
	case lineHeightPt < smallestBucket:
		return 8
	case lineHeightPt < b.Bucket9:
		return 9
	case lineHeightPt < b.Bucket10:
		return 10
	case lineHeightPt < b.Bucket11:
		return 11
	case lineHeightPt < b.Bucket12:
		return 12
	case lineHeightPt < b.Bucket14:
		return 13
	default:
		return 14
	}
}

// Median returns the median of the values without modifying them
func Median(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmpty
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], nil
	}
	return (sorted[mid-1] + sorted[mid]) / 2, nil
}
