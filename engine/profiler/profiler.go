package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-drawbench/common"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/bench"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/renderer"
	"github.com/charmbracelet/log"
)

// averageWindow is the number of frames in the rolling frame-time average.
const averageWindow = 30

// Report is one interval's worth of statistics.
type Report struct {
	Mode         bench.Mode
	FPS          float64
	FrameMS      float64 // rolling average over the last averageWindow frames
	DrawCommands int
	Vertices     int64
	UploadMBps   float64
	HeapMB       float64
	AllocRateMB  float64
	GCCount      uint32
	LastPauseUs  uint64
	MaxPauseUs   uint64
	SysMB        float64
}

// Profiler tracks frame rate, submitted work and memory statistics for performance monitoring.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	updateInterval time.Duration
	logger         *log.Logger
	runID          string

	started    bool
	lastFrame  time.Duration
	lastReport time.Duration
	frameCount int

	frameMS   [averageWindow]float64
	frameIdx  int
	frameFull bool

	drawCommands  int
	vertices      int64
	uploadedBytes int64

	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	last Report
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: variadic list of ProfilerOption functions
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		logger:         common.Logger().WithPrefix("profiler"),
	}
	for _, opt := range options {
		opt(p)
	}
	if p.runID != "" {
		p.logger = p.logger.With("run", p.runID)
	}
	return p
}

// Observe records a completed frame. Its signature matches bench.FrameHook.
func (p *Profiler) Observe(state *bench.FrameState, stats renderer.FrameStats) {
	p.Tick(state.LastTime, state.Mode, stats)
}

// Tick should be called once per frame with the frame's timestamp.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, average frame time, draw calls, vertices, texture upload rate,
// heap usage, allocation rate, GC count/pause times, total memory.
//
// Parameters:
//   - now: the frame timestamp
//   - mode: the mode the frame was drawn in
//   - stats: the frame's submitted work
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(now time.Duration, mode bench.Mode, stats renderer.FrameStats) bool {
	if !p.started {
		// The first frame only sets the baseline.
		p.started = true
		p.lastFrame = now
		p.lastReport = now
		return false
	}

	p.frameMS[p.frameIdx] = float64(max(now-p.lastFrame, 0)) / float64(time.Millisecond)
	p.frameIdx = (p.frameIdx + 1) % averageWindow
	if p.frameIdx == 0 {
		p.frameFull = true
	}
	p.lastFrame = now

	p.frameCount++
	p.drawCommands += stats.DrawCommands
	p.vertices += stats.Vertices
	p.uploadedBytes += stats.UploadedBytes

	elapsed := now - p.lastReport
	if elapsed < p.updateInterval || elapsed <= 0 {
		return false
	}
	seconds := elapsed.Seconds()

	r := Report{
		Mode:         mode,
		FPS:          float64(p.frameCount) / seconds,
		FrameMS:      p.averageFrameMS(),
		DrawCommands: p.drawCommands / p.frameCount,
		Vertices:     p.vertices / int64(p.frameCount),
		UploadMBps:   float64(p.uploadedBytes) / 1024 / 1024 / seconds,
	}
	p.readMemStats(&r, seconds)

	p.logger.Info("frame stats",
		"mode", r.Mode,
		"fps", round2(r.FPS),
		"frame_ms", round2(r.FrameMS),
		"draws", r.DrawCommands,
		"vertices", r.Vertices,
		"upload_mb_s", round2(r.UploadMBps),
	)
	p.logger.Debug("memory",
		"heap_mb", round2(r.HeapMB),
		"alloc_mb_s", round2(r.AllocRateMB),
		"gc", r.GCCount,
		"gc_last_us", r.LastPauseUs,
		"gc_max_us", r.MaxPauseUs,
		"sys_mb", round2(r.SysMB),
	)

	p.last = r
	p.frameCount = 0
	p.drawCommands = 0
	p.vertices = 0
	p.uploadedBytes = 0
	p.lastReport = now
	return true
}

// LastReport returns the most recently logged report.
func (p *Profiler) LastReport() Report {
	return p.last
}

func (p *Profiler) averageFrameMS() float64 {
	n := p.frameIdx
	if p.frameFull {
		n = averageWindow
	}
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += p.frameMS[i]
	}
	return sum / float64(n)
}

func (p *Profiler) readMemStats(r *Report, seconds float64) {
	runtime.ReadMemStats(&p.memStats)
	// Alloc: live heap. TotalAlloc: cumulative, tracks churn. Sys: obtained from the OS.
	r.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024
	r.SysMB = float64(p.memStats.Sys) / 1024 / 1024
	if p.lastTotalAlloc > 0 {
		r.AllocRateMB = float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / seconds
	}

	gcCount := p.memStats.NumGC
	r.GCCount = gcCount
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 pauses.
		r.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			r.MaxPauseUs = max(r.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
