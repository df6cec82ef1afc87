// Package scanpdf rebuilds a searchable PDF from a page-layout description.
//
// It is the entry point of scanforge: it loads the layout tree, optionally
// corrects overlapping lines, then drives an exact or flow renderer across
// the pages in index order and returns the finished document.
//
// Main Functions:
//
// - Build: layout tree and configuration in, PDF bytes out
// - BuildWithCorrections: applies reviewed span corrections before Build
// - Assemble: streaming variant that also returns a run report
package scanpdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gardar/scanforge/pkg/layout"
	"github.com/gardar/scanforge/pkg/overlap"
	"github.com/gardar/scanforge/pkg/render"
	"github.com/gardar/scanforge/pkg/review"
)

// Report summarizes one run
type Report struct {
	RunID         string
	Mode          Mode
	Pages         int
	Drawn         int
	Skipped       int
	OverflowPages []int // Page indices whose flow content did not fit
	Overlap       overlap.Stats
}

// Build renders the input and returns the PDF bytes. The input is raw
// layout.json data ([]byte) or a *layout.Document, which is not modified.
func Build(input interface{}, cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := Assemble(input, cfg, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildWithCorrections applies span corrections to a copy of the input and
// renders the result
func BuildWithCorrections(input interface{}, corrections []review.Correction, cfg Config) ([]byte, review.Summary, error) {
	doc, err := loadInput(input)
	if err != nil {
		return nil, review.Summary{}, err
	}
	corrected, summary, err := review.Apply(doc, corrections)
	if err != nil {
		return nil, review.Summary{}, fmt.Errorf("failed to apply corrections: %w", err)
	}
	cfg.logger().Info().
		Int("applied", summary.Applied).
		Int("deleted", summary.Deleted).
		Int("skipped", summary.Skipped).
		Msg("corrections applied")

	data, err := Build(corrected, cfg)
	if err != nil {
		return nil, summary, err
	}
	return data, summary, nil
}

// BuildFile renders the input with optional corrections and writes the PDF
// to outputPath. Nothing is written when rendering fails.
func BuildFile(input interface{}, corrections []review.Correction, cfg Config, outputPath string) (Report, error) {
	doc, err := loadInput(input)
	if err != nil {
		return Report{}, err
	}
	if len(corrections) > 0 {
		if doc, _, err = review.Apply(doc, corrections); err != nil {
			return Report{}, fmt.Errorf("failed to apply corrections: %w", err)
		}
	}

	var buf bytes.Buffer
	report, err := Assemble(doc, cfg, &buf)
	if err != nil {
		return report, err
	}
	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return report, fmt.Errorf("failed to write output file: %w", err)
	}
	return report, nil
}

// Assemble renders the input and writes the PDF to w in one piece once all
// pages are drawn. On error nothing is written.
func Assemble(input interface{}, cfg Config, w io.Writer) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, fmt.Errorf("invalid configuration: %w", err)
	}

	report := Report{RunID: uuid.NewString(), Mode: cfg.Mode}
	log := cfg.logger().With().Str("run_id", report.RunID).Str("mode", string(cfg.Mode)).Logger()
	obs := cfg.observer()
	a := &assembler{log: log}

	a.enter(StageLoading)
	doc, err := loadInput(input)
	if err != nil {
		return report, err
	}

	if cfg.FixOverlap {
		a.enter(StageOverlapCorrecting)
		doc, report.Overlap = overlap.Fix(doc, cfg.Overlap)
		log.Debug().Int("blocks", report.Overlap.Blocks).Int("lines", report.Overlap.Lines).Msg("overlap correction done")
	}

	pages := layout.SortedPages(doc)
	for _, p := range pages {
		if p.DefaultSize {
			log.Warn().Int("page", p.Index).Msg("page has no size, assuming 612x792 px")
		}
	}

	r := cfg.renderer()
	r.Prepare(doc)

	canvas, err := render.NewCanvas(render.CanvasOptions{
		Title:     cfg.Title,
		Fonts:     cfg.Fonts,
		ImageRoot: cfg.ImageRoot,
		LayerName: cfg.LayerName,
		Debug:     cfg.Debug,
		Logger:    log,
		Observer:  obs,
	})
	if err != nil {
		return report, err
	}

	a.enter(StageRendering)
	for i, p := range pages {
		log.Debug().Int("page", i+1).Int("of", len(pages)).Int("page_idx", p.Index).Msg("rendering page")
		stats := r.RenderPage(canvas, p, i+1)
		report.Pages++
		report.Drawn += stats.Drawn
		report.Skipped += stats.Skipped
		if stats.Overflow {
			report.OverflowPages = append(report.OverflowPages, p.Index)
		}
		obs.PageRendered(r.Name())
	}

	a.enter(StageFinalizing)
	if err := canvas.Finish(w); err != nil {
		return report, err
	}
	a.enter(StageDone)

	log.Info().
		Int("pages", report.Pages).
		Int("drawn", report.Drawn).
		Int("skipped", report.Skipped).
		Ints("overflow_pages", report.OverflowPages).
		Msg("document assembled")
	return report, nil
}

// loadInput accepts raw layout.json data or a parsed document
func loadInput(input interface{}) (*layout.Document, error) {
	switch v := input.(type) {
	case []byte:
		return layout.Parse(v)
	case *layout.Document:
		if err := layout.Validate(v); err != nil {
			return nil, err
		}
		return v, nil
	case nil:
		return nil, errors.New("input is nil")
	default:
		return nil, fmt.Errorf("unsupported input type %T, expected []byte or *layout.Document", input)
	}
}

type assembler struct {
	log   zerolog.Logger
	stage Stage
}

func (a *assembler) enter(s Stage) {
	a.log.Debug().Stringer("from", a.stage).Stringer("to", s).Msg("stage")
	a.stage = s
}
