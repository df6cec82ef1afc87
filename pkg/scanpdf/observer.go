package scanpdf

import "github.com/gardar/scanforge/pkg/render"

// Observer receives run events, e.g. for metrics. It extends the renderer's
// degradation events with page completion.
type Observer interface {
	render.Observer
	PageRendered(mode string)
}

type nopObserver struct{}

func (nopObserver) BlockSkipped(string) {}
func (nopObserver) ImageMissing()       {}
func (nopObserver) PageOverflow()       {}
func (nopObserver) FontFallback()       {}
func (nopObserver) GlyphsReplaced(int)  {}
func (nopObserver) PageRendered(string) {}

// Stage is a step of the run state machine
type Stage int

const (
	StageIdle Stage = iota
	StageLoading
	StageOverlapCorrecting
	StageRendering
	StageFinalizing
	StageDone
)

// String returns the stage name
func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageLoading:
		return "loading"
	case StageOverlapCorrecting:
		return "overlap-correcting"
	case StageRendering:
		return "rendering"
	case StageFinalizing:
		return "finalizing"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}
