package profiler

import (
	"bytes"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-drawbench/engine/bench"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/renderer"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProfiler(buf *bytes.Buffer) *Profiler {
	return NewProfiler(WithLogger(log.New(buf)), WithRunID("run-1"))
}

func TestTickReportsOncePerInterval(t *testing.T) {
	var buf bytes.Buffer
	p := newTestProfiler(&buf)
	stats := renderer.FrameStats{DrawCommands: 1, Vertices: 36, UploadedBytes: 1 << 20}

	reported := 0
	for i := 0; i <= 100; i++ {
		if p.Tick(time.Duration(i)*10*time.Millisecond, bench.ModeTextureUpload, stats) {
			reported++
		}
	}
	require.Equal(t, 1, reported)

	r := p.LastReport()
	assert.Equal(t, bench.ModeTextureUpload, r.Mode)
	assert.InDelta(t, 100, r.FPS, 1e-9)
	assert.InDelta(t, 10, r.FrameMS, 1e-9)
	assert.Equal(t, 1, r.DrawCommands)
	assert.Equal(t, int64(36), r.Vertices)
	assert.InDelta(t, 100, r.UploadMBps, 1e-9)
	assert.Contains(t, buf.String(), "frame stats")
	assert.Contains(t, buf.String(), "run-1")
}

func TestRollingAverageUsesRecentFrames(t *testing.T) {
	p := NewProfiler(WithLogger(log.New(&bytes.Buffer{})))
	now := time.Duration(0)
	p.Tick(now, bench.ModeInstancing, renderer.FrameStats{})
	for range averageWindow {
		now += 40 * time.Millisecond
		p.Tick(now, bench.ModeInstancing, renderer.FrameStats{})
	}
	assert.InDelta(t, 40, p.averageFrameMS(), 1e-9)

	for range averageWindow {
		now += 20 * time.Millisecond
		p.Tick(now, bench.ModeInstancing, renderer.FrameStats{})
	}
	assert.InDelta(t, 20, p.averageFrameMS(), 1e-9)
}

func TestObserveUsesFrameState(t *testing.T) {
	p := NewProfiler(WithLogger(log.New(&bytes.Buffer{})), WithInterval(time.Second))
	state := &bench.FrameState{Mode: bench.ModeMultiDraw}
	p.Observe(state, renderer.FrameStats{})
	state.LastTime = time.Second
	p.Observe(state, renderer.FrameStats{DrawCommands: 1})

	r := p.LastReport()
	assert.Equal(t, bench.ModeMultiDraw, r.Mode)
	assert.InDelta(t, 1, r.FPS, 1e-9)
}
