package scanpdf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gardar/scanforge/pkg/fontsize"
	"github.com/gardar/scanforge/pkg/overlap"
	"github.com/gardar/scanforge/pkg/render"
)

// Mode selects the rendering strategy
type Mode string

const (
	ModeExact Mode = "exact"
	ModeFlow  Mode = "flow"
)

// ParseMode converts a flag value into a Mode
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeExact, ModeFlow:
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q, expected exact or flow", s)
}

// Config enumerates every option of a run. Nothing is defaulted silently:
// exact mode needs FontBuckets, and the mode must be set.
type Config struct {
	Mode            Mode
	FontBuckets     *fontsize.Buckets // Required in exact mode
	DetectFootnotes bool              // Position and marker based footnote detection
	FixOverlap      bool              // Run the overlap correction first
	Overlap         overlap.Options
	PageSize        render.PageSize // Exact mode page size; empty means source size
	FlowMargin      float64         // Flow mode margin in points; zero infers it
	ImageRoot       string          // Directory image references are resolved against
	Fonts           []render.FontCandidate
	Debug           bool   // Outline block boxes
	LayerName       string // Put page content into a named OCG layer
	Title           string // Document title metadata
	Logger          *zerolog.Logger
	Observer        Observer
}

// Validate reports the first invalid option
func (c Config) Validate() error {
	switch c.Mode {
	case ModeExact:
		if c.FontBuckets == nil {
			return errors.New("exact mode requires font bucket thresholds")
		}
		if err := c.FontBuckets.Validate(); err != nil {
			return err
		}
		switch c.PageSize {
		case "", render.SourceSize, render.A4Size:
		default:
			return fmt.Errorf("unknown page size %q", c.PageSize)
		}
	case ModeFlow:
		if c.FlowMargin < 0 {
			return fmt.Errorf("flow margin must not be negative, got %g", c.FlowMargin)
		}
	case "":
		return errors.New("rendering mode is required")
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}

	if c.FixOverlap && !(c.Overlap.TargetLineHeightPx > 0) {
		return fmt.Errorf("overlap target line height must be positive, got %g", c.Overlap.TargetLineHeightPx)
	}
	return nil
}

func (c Config) renderer() render.Renderer {
	if c.Mode == ModeFlow {
		return render.NewFlow(render.FlowOptions{
			Margin:          c.FlowMargin,
			DetectFootnotes: c.DetectFootnotes,
		})
	}
	return render.NewExact(render.ExactOptions{
		Buckets:         *c.FontBuckets,
		DetectFootnotes: c.DetectFootnotes,
		PageSize:        c.PageSize,
	})
}

func (c Config) logger() *zerolog.Logger {
	if c.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return c.Logger
}

func (c Config) observer() Observer {
	if c.Observer == nil {
		return nopObserver{}
	}
	return c.Observer
}
