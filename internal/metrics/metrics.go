// Package metrics counts render events with Prometheus collectors. A
// Recorder owns its registry so batch runs can export it as a node exporter
// textfile.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "scanforge"

// Recorder implements scanpdf.Observer
type Recorder struct {
	registry *prometheus.Registry

	pagesRendered  *prometheus.CounterVec
	blocksSkipped  *prometheus.CounterVec
	imagesMissing  prometheus.Counter
	pageOverflows  prometheus.Counter
	fontFallbacks  prometheus.Counter
	glyphsReplaced prometheus.Counter
	runs           *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
}

// NewRecorder creates a Recorder with all collectors registered
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		pagesRendered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pages_rendered_total",
				Help:      "Total output pages rendered by mode",
			},
			[]string{"mode"},
		),
		blocksSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "blocks_skipped_total",
				Help:      "Blocks left out of the output by reason",
			},
			[]string{"reason"},
		),
		imagesMissing: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "images_missing_total",
			Help:      "Image references replaced by a placeholder caption",
		}),
		pageOverflows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_overflows_total",
			Help:      "Flow pages whose content did not fit at minimum spacing",
		}),
		fontFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "font_fallbacks_total",
			Help:      "Runs that fell back to the built-in core font",
		}),
		glyphsReplaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "glyphs_replaced_total",
			Help:      "Characters the core font could not encode",
		}),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Completed runs by mode and result",
			},
			[]string{"mode", "result"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of runs by mode",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
	}
	r.registry.MustRegister(
		r.pagesRendered, r.blocksSkipped, r.imagesMissing, r.pageOverflows,
		r.fontFallbacks, r.glyphsReplaced, r.runs, r.runDuration,
	)
	return r
}

func (r *Recorder) PageRendered(mode string)   { r.pagesRendered.WithLabelValues(mode).Inc() }
func (r *Recorder) BlockSkipped(reason string) { r.blocksSkipped.WithLabelValues(reason).Inc() }
func (r *Recorder) ImageMissing()              { r.imagesMissing.Inc() }
func (r *Recorder) PageOverflow()              { r.pageOverflows.Inc() }
func (r *Recorder) FontFallback()              { r.fontFallbacks.Inc() }

// GlyphsReplaced adds n replaced characters; non-positive counts are ignored
func (r *Recorder) GlyphsReplaced(n int) {
	if n > 0 {
		r.glyphsReplaced.Add(float64(n))
	}
}

// ObserveRun records a finished run. A nil err counts as success.
func (r *Recorder) ObserveRun(mode string, dur time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	r.runs.WithLabelValues(mode, result).Inc()
	r.runDuration.WithLabelValues(mode).Observe(dur.Seconds())
}

// WriteTextfile writes all metrics in the text exposition format. The file
// is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
