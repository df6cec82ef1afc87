package hocr

import (
	"strconv"
	"strings"

	"github.com/gardar/scanforge/pkg/layout"
)

// ParseTitle breaks down an hOCR title attribute into its properties
// Example input: "bbox 100 200 300 400; x_wconf 95"
func ParseTitle(title string) map[string][]string {
	result := make(map[string][]string)
	for _, part := range strings.Split(title, ";") {
		items := strings.Fields(part)
		if len(items) > 0 {
			result[items[0]] = items[1:]
		}
	}
	return result
}

// BBoxFromTitle extracts the bbox property. Missing or malformed boxes
// return layout.NoBBox.
func BBoxFromTitle(title string) layout.BBox {
	v, ok := ParseTitle(title)["bbox"]
	if !ok || len(v) < 4 {
		return layout.NoBBox
	}
	var c [4]float64
	for i := range c {
		f, err := strconv.ParseFloat(v[i], 64)
		if err != nil {
			return layout.NoBBox
		}
		c[i] = f
	}
	return layout.NewBBox(c[0], c[1], c[2], c[3])
}

// confidence returns x_wconf scaled to [0,1], or 1 when absent
func confidence(title string) float64 {
	v, ok := ParseTitle(title)["x_wconf"]
	if !ok || len(v) == 0 {
		return 1
	}
	f, err := strconv.ParseFloat(v[0], 64)
	if err != nil {
		return 1
	}
	switch {
	case f < 0:
		return 0
	case f > 100:
		return 1
	}
	return f / 100
}

// imageName returns the image property without surrounding quotes
func imageName(title string) string {
	_, rest, found := strings.Cut(title, "image ")
	if !found {
		return ""
	}
	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, `"`) {
		if end := strings.Index(rest[1:], `"`); end >= 0 {
			return rest[1 : end+1]
		}
	}
	name, _, _ := strings.Cut(rest, ";")
	return strings.TrimSpace(name)
}
