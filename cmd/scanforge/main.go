// scanforge is a command-line tool for re-synthesizing searchable PDFs from
// document layout analysis output.
//
// The input is a MinerU style layout.json, an hOCR file or a saved Google
// Document AI JSON response. The tool draws every recognized block as real
// text, either at the source position (exact mode) or reflowed onto A4
// pages (flow mode), and embeds the referenced images.
//
// Usage:
//
//	scanforge -layout layout.json -output book.pdf [options]
//
// Input flags (exactly one required):
//
//	-layout string   Path to a layout.json file
//	-hocr string     Path to an hOCR file
//	-docai string    Path to a Document AI JSON response
//
// Output flags:
//
//	-output string       Output PDF path (required)
//	-overwrite           Overwrite the output PDF if it already exists
//	-text string         Also write the plain text of the layout
//	-save-layout string  Write the (corrected) layout tree as layout.json
//	-review-out string   Write low-confidence spans for review (JSON or YAML)
//	-metrics-file string Write Prometheus metrics in textfile format
//
// Rendering options:
//
//	-config string             YAML configuration file
//	-mode string               exact or flow (overrides the configuration)
//	-images string             Directory image references are resolved against
//	-footnotes                 Detect footnotes by position and marker
//	-fix-overlap               Shrink overlapping line boxes before rendering
//	-corrections string        Apply span corrections from a JSON or YAML file
//	-review-threshold float    Confidence below which spans are written for review
//	-debug                     Outline block boxes in the output
//	-validate                  Check the written PDF with pdfcpu
//
// Logging:
//
//	-log-level string  debug, info, warn or error
//	-log-file string   Also log to a rotating file
//
// Environment variables prefixed SCANFORGE_ override the configuration file,
// and a .env file in the working directory is loaded when present.
//
// Examples:
//
//	scanforge -layout layout.json -images ./out -mode flow -output book.pdf
//	scanforge -config scanforge.yaml -layout layout.json -mode exact -output scan.pdf -validate
//	scanforge -hocr page.hocr -review-out review.yaml -output page.pdf
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/gardar/scanforge/internal/config"
	"github.com/gardar/scanforge/internal/logger"
	"github.com/gardar/scanforge/internal/metrics"
	"github.com/gardar/scanforge/internal/pdfcheck"
	"github.com/gardar/scanforge/pkg/gdocai"
	"github.com/gardar/scanforge/pkg/hocr"
	"github.com/gardar/scanforge/pkg/layout"
	"github.com/gardar/scanforge/pkg/review"
	"github.com/gardar/scanforge/pkg/scanpdf"
)

// options holds the parsed command line
type options struct {
	layoutPath      string
	hocrPath        string
	docaiPath       string
	outputPath      string
	configPath      string
	correctionsPath string
	saveLayout      string
	reviewOut       string
	textPath        string
	metricsFile     string
	validate        bool
	overwrite       bool

	// Overrides applied only when the flag was given
	mode            string
	imageRoot       string
	footnotes       bool
	fixOverlap      bool
	debug           bool
	reviewThreshold float64
	logLevel        string
	logFile         string
	set             map[string]bool
}

func main() {
	var o options
	flag.StringVar(&o.layoutPath, "layout", "", "Path to a layout.json file")
	flag.StringVar(&o.hocrPath, "hocr", "", "Path to an hOCR file")
	flag.StringVar(&o.docaiPath, "docai", "", "Path to a Document AI JSON response")
	flag.StringVar(&o.outputPath, "output", "", "Output PDF path")
	flag.StringVar(&o.configPath, "config", "", "Path to the YAML configuration file")
	flag.StringVar(&o.mode, "mode", "", "Rendering mode: exact or flow")
	flag.StringVar(&o.imageRoot, "images", "", "Directory image references are resolved against")
	flag.BoolVar(&o.footnotes, "footnotes", false, "Detect footnotes by position and marker")
	flag.BoolVar(&o.fixOverlap, "fix-overlap", false, "Shrink overlapping line boxes before rendering")
	flag.StringVar(&o.correctionsPath, "corrections", "", "Apply span corrections from a JSON or YAML file")
	flag.StringVar(&o.saveLayout, "save-layout", "", "Write the (corrected) layout tree to this path")
	flag.StringVar(&o.reviewOut, "review-out", "", "Write low-confidence spans to this path")
	flag.Float64Var(&o.reviewThreshold, "review-threshold", review.DefaultThreshold, "Confidence below which spans are written for review")
	flag.StringVar(&o.textPath, "text", "", "Write the plain text of the layout to this path")
	flag.BoolVar(&o.validate, "validate", false, "Validate the written PDF")
	flag.StringVar(&o.metricsFile, "metrics-file", "", "Write Prometheus metrics to this path")
	flag.BoolVar(&o.debug, "debug", false, "Outline block boxes in the output")
	flag.BoolVar(&o.overwrite, "overwrite", false, "Overwrite the output PDF if it already exists")
	flag.StringVar(&o.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flag.StringVar(&o.logFile, "log-file", "", "Also write logs to this rotating file")
	flag.Parse()

	o.set = map[string]bool{}
	flag.Visit(func(f *flag.Flag) { o.set[f.Name] = true })

	os.Exit(execute(o, os.Stderr))
}

// execute runs one invocation and returns the process exit code. The log
// file is closed before it returns.
func execute(o options, stderr io.Writer) int {
	inputs := 0
	for _, p := range []string{o.layoutPath, o.hocrPath, o.docaiPath} {
		if p != "" {
			inputs++
		}
	}
	if inputs != 1 {
		fmt.Fprintln(stderr, "Error: Must provide exactly one of -layout, -hocr or -docai")
		return 1
	}
	if o.outputPath == "" {
		fmt.Fprintln(stderr, "Error: Must provide -output path")
		return 1
	}
	if _, err := os.Stat(o.outputPath); err == nil && !o.overwrite {
		fmt.Fprintf(stderr, "Output file %s already exists. Use -overwrite to overwrite.\n", o.outputPath)
		return 1
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	o.applyOverrides(&cfg)

	cfg.Logging.Console = stderr
	log, closer, err := logger.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to set up logging: %v\n", err)
		return 1
	}
	defer closer.Close()

	if err := run(o, cfg, log); err != nil {
		log.Error().Err(err).Msg("run failed")
		return 1
	}
	return 0
}

// applyOverrides lets flags given on the command line win over file and
// environment
func (o options) applyOverrides(cfg *config.Config) {
	if o.set["mode"] {
		cfg.Mode = o.mode
	}
	if o.set["images"] {
		cfg.ImageRoot = o.imageRoot
	}
	if o.set["footnotes"] {
		cfg.DetectFootnotes = o.footnotes
	}
	if o.set["fix-overlap"] {
		cfg.FixOverlap = o.fixOverlap
	}
	if o.set["debug"] {
		cfg.Debug = o.debug
	}
	if o.set["review-threshold"] {
		cfg.ReviewThreshold = o.reviewThreshold
	}
	if o.set["log-level"] {
		cfg.Logging.Level = o.logLevel
	}
	if o.set["log-file"] {
		cfg.Logging.File = o.logFile
	}
}

func run(o options, cfg config.Config, log zerolog.Logger) error {
	var recorder *metrics.Recorder
	var observer scanpdf.Observer
	if o.metricsFile != "" {
		recorder = metrics.NewRecorder()
		observer = recorder
	}

	renderCfg, err := cfg.ToRender(&log, observer)
	if err != nil {
		return err
	}

	doc, err := readInput(o.layoutPath, o.hocrPath, o.docaiPath)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	log.Info().Int("pages", len(doc.Pages)).Msg("input loaded")

	if o.reviewOut != "" {
		items, err := review.LowConfidence(doc, cfg.ReviewThreshold)
		if err != nil {
			return fmt.Errorf("failed to collect low-confidence spans: %w", err)
		}
		if err := review.WriteItems(o.reviewOut, items); err != nil {
			return fmt.Errorf("failed to write review file: %w", err)
		}
		log.Info().Int("items", len(items)).Str("path", o.reviewOut).Msg("review file written")
	}

	if o.correctionsPath != "" {
		corrections, err := review.LoadCorrections(o.correctionsPath)
		if err != nil {
			return fmt.Errorf("failed to load corrections: %w", err)
		}
		var summary review.Summary
		doc, summary, err = review.Apply(doc, corrections)
		if err != nil {
			return fmt.Errorf("failed to apply corrections: %w", err)
		}
		log.Info().
			Int("applied", summary.Applied).
			Int("deleted", summary.Deleted).
			Int("skipped", summary.Skipped).
			Msg("corrections applied")
	}

	if o.saveLayout != "" {
		data, err := layout.Encode(doc)
		if err != nil {
			return fmt.Errorf("failed to encode layout: %w", err)
		}
		if err := os.WriteFile(o.saveLayout, data, 0644); err != nil {
			return fmt.Errorf("failed to write layout: %w", err)
		}
	}

	if o.textPath != "" {
		if err := os.WriteFile(o.textPath, []byte(layout.PlainText(doc)), 0644); err != nil {
			return fmt.Errorf("failed to write text output: %w", err)
		}
	}

	start := time.Now()
	report, err := scanpdf.BuildFile(doc, nil, renderCfg, o.outputPath)
	if recorder != nil {
		recorder.ObserveRun(string(renderCfg.Mode), time.Since(start), err)
		if werr := recorder.WriteTextfile(o.metricsFile); werr != nil {
			log.Error().Err(werr).Str("path", o.metricsFile).Msg("failed to write metrics")
		}
	}
	if err != nil {
		return fmt.Errorf("failed to build PDF: %w", err)
	}

	if o.validate {
		if err := validateOutput(o.outputPath, report.Pages); err != nil {
			return fmt.Errorf("output validation failed: %w", err)
		}
		log.Info().Msg("output validated")
	}

	log.Info().
		Str("run_id", report.RunID).
		Str("output", o.outputPath).
		Int("pages", report.Pages).
		Int("skipped", report.Skipped).
		Msg("searchable PDF created")
	return nil
}

// readInput loads whichever input flag was given
func readInput(layoutPath, hocrPath, docaiPath string) (*layout.Document, error) {
	path := layoutPath + hocrPath + docaiPath
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch {
	case layoutPath != "":
		return layout.Parse(data)
	case hocrPath != "":
		return hocr.ToLayout(data)
	default:
		return gdocai.FromJSON(data)
	}
}

func validateOutput(path string, wantPages int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := pdfcheck.Validate(data); err != nil {
		return err
	}
	n, err := pdfcheck.PageCountFile(path)
	if err != nil {
		return err
	}
	if n != wantPages {
		return fmt.Errorf("output has %d pages, expected %d", n, wantPages)
	}
	return nil
}
