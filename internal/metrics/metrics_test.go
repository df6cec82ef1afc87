package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/scanforge/pkg/scanpdf"
)

var _ scanpdf.Observer = (*Recorder)(nil)

func TestRecorderCounts(t *testing.T) {
	r := NewRecorder()
	r.PageRendered("flow")
	r.PageRendered("flow")
	r.PageRendered("exact")
	r.BlockSkipped("geometry")
	r.ImageMissing()
	r.PageOverflow()
	r.FontFallback()
	r.GlyphsReplaced(3)
	r.GlyphsReplaced(0)
	r.GlyphsReplaced(-2)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.pagesRendered.WithLabelValues("flow")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.pagesRendered.WithLabelValues("exact")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.blocksSkipped.WithLabelValues("geometry")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.imagesMissing))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.pageOverflows))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fontFallbacks))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.glyphsReplaced))
}

func TestObserveRun(t *testing.T) {
	r := NewRecorder()
	r.ObserveRun("exact", 50*time.Millisecond, nil)
	r.ObserveRun("exact", time.Second, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(r.runs.WithLabelValues("exact", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runs.WithLabelValues("exact", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.runDuration))
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.PageRendered("flow")

	path := filepath.Join(t.TempDir(), "scanforge.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `scanforge_pages_rendered_total{mode="flow"} 1`)
	assert.Contains(t, string(data), "# HELP scanforge_images_missing_total")

	count, err := testutil.GatherAndCount(r.registry)
	require.NoError(t, err)
	assert.Equal(t, 5, count, "four unlabelled counters plus the one rendered mode")
}
