package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gardar/scanforge/pkg/fontsize"
	"github.com/gardar/scanforge/pkg/render"
)

// EnvPrefix is prepended to every recognized variable name
const EnvPrefix = "SCANFORGE_"

type lookupFunc func(string) (string, bool)

// applyEnv overrides fields from SCANFORGE_* variables
func (c *Config) applyEnv(lookup lookupFunc) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return "", false
		}
		return strings.TrimSpace(v), true
	}

	strs := map[string]*string{
		"MODE":       &c.Mode,
		"PAGE_SIZE":  &c.PageSize,
		"IMAGE_ROOT": &c.ImageRoot,
		"LAYER_NAME": &c.LayerName,
		"TITLE":      &c.Title,
		"LOG_LEVEL":  &c.Logging.Level,
		"LOG_FILE":   &c.Logging.File,
	}
	for name, dst := range strs {
		if v, ok := get(name); ok {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"DETECT_FOOTNOTES": &c.DetectFootnotes,
		"FIX_OVERLAP":      &c.FixOverlap,
		"DEBUG":            &c.Debug,
		"LOG_PRETTY":       &c.Logging.Pretty,
	}
	for name, dst := range bools {
		if v, ok := get(name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = b
		}
	}

	floats := map[string]*float64{
		"FLOW_MARGIN_CM":       &c.FlowMarginCM,
		"REVIEW_THRESHOLD":     &c.ReviewThreshold,
		"OVERLAP_TARGET_PX":    &c.Overlap.TargetLineHeightPx,
		"OVERLAP_THRESHOLD_PX": &c.Overlap.ThresholdPx,
	}
	for name, dst := range floats {
		if v, ok := get(name); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = f
		}
	}

	if v, ok := get("FONT_BUCKETS"); ok {
		b, err := parseBuckets(v)
		if err != nil {
			return fmt.Errorf("%sFONT_BUCKETS: %w", EnvPrefix, err)
		}
		c.FontBuckets = b
	}

	// A font given in the environment is tried before the configured ones
	if v, ok := get("FONT_REGULAR"); ok && v != "" {
		bold, _ := get("FONT_BOLD")
		c.Fonts = append([]render.FontCandidate{{Regular: v, Bold: bold}}, c.Fonts...)
	}
	return nil
}

// parseBuckets reads five comma separated thresholds for 9, 10, 11, 12 and
// 14 pt
func parseBuckets(s string) (*fontsize.Buckets, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 5 {
		return nil, fmt.Errorf("expected 5 comma separated values, got %d", len(parts))
	}
	var v [5]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		v[i] = f
	}
	b := &fontsize.Buckets{Bucket9: v[0], Bucket10: v[1], Bucket11: v[2], Bucket12: v[3], Bucket14: v[4]}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}
