package bench_test

import (
	"context"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-drawbench/engine/bench"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/camera"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/renderer"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/renderer/renderertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedParams struct {
	mode   bench.Mode
	inView bool
}

func (p *fixedParams) Mode() bench.Mode  { return p.mode }
func (p *fixedParams) ModelInView() bool { return p.inView }

// tickScheduler yields the given timestamps, then ErrStopped.
type tickScheduler struct {
	ticks []time.Duration
	next  int
}

func (s *tickScheduler) WaitFrame(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s.next >= len(s.ticks) {
		return 0, bench.ErrStopped
	}
	t := s.ticks[s.next]
	s.next++
	return t, nil
}

type driverFixture struct {
	rec    *renderertest.Recorder
	r      renderer.Renderer
	res    *bench.Resources
	cam    camera.Camera
	params *fixedParams
	driver *bench.Driver
}

func newDriverFixture(t *testing.T, mode bench.Mode, options ...bench.DriverOption) *driverFixture {
	t.Helper()
	rec, r, res := setup(t, 6)
	f := &driverFixture{
		rec:    rec,
		r:      r,
		res:    res,
		cam:    camera.NewCamera(),
		params: &fixedParams{mode: mode},
	}
	f.driver = bench.NewDriver(r, f.cam, res, f.params, options...)
	rec.Reset()
	return f
}

func TestFrameZeroElapsedKeepsAngles(t *testing.T) {
	f := newDriverFixture(t, bench.ModeInstancing)
	state := bench.NewFrameState(bench.ModeInstancing, false)

	require.NoError(t, f.driver.Frame(state, 5*time.Second))
	assert.Zero(t, state.AngleX)
	assert.Zero(t, state.AngleY)

	state.AngleX, state.AngleY = 0.25, -1.5
	require.NoError(t, f.driver.Frame(state, 5*time.Second))
	assert.Equal(t, 0.25, state.AngleX)
	assert.Equal(t, -1.5, state.AngleY)
	assert.Equal(t, uint64(2), state.Frames)
}

func TestFrameAdvancesAngles(t *testing.T) {
	f := newDriverFixture(t, bench.ModeInstancing)
	state := bench.NewFrameState(bench.ModeInstancing, false)

	require.NoError(t, f.driver.Frame(state, time.Second))
	require.NoError(t, f.driver.Frame(state, 3*time.Second))
	assert.InDelta(t, -0.8, state.AngleX, 1e-12)
	assert.InDelta(t, -1.4, state.AngleY, 1e-12)
	assert.Equal(t, 3*time.Second, state.LastTime)
}

func TestFrameClampsNegativeElapsed(t *testing.T) {
	f := newDriverFixture(t, bench.ModeInstancing)
	state := bench.NewFrameState(bench.ModeInstancing, false)

	require.NoError(t, f.driver.Frame(state, 2*time.Second))
	require.NoError(t, f.driver.Frame(state, time.Second))
	assert.Zero(t, state.AngleX)
	assert.Zero(t, state.AngleY)
	assert.Equal(t, 2*time.Second, state.LastTime)
}

func TestFrameSequence(t *testing.T) {
	f := newDriverFixture(t, bench.ModeTextureUpload)
	state := bench.NewFrameState(bench.ModeTextureUpload, false)

	require.NoError(t, f.driver.Frame(state, 0))
	assert.Equal(t, []string{
		"BeginFrame", "WriteUniforms", "BindGeometry", "BindTexture",
		"UploadTexture", "Draw", "EndFrame", "Present",
	}, f.rec.Ops())
	assert.Equal(t, 1, f.rec.Frames())
}

func TestModesShareMatrixAndBindings(t *testing.T) {
	f := newDriverFixture(t, bench.ModeTextureUpload)

	for _, mode := range bench.Modes() {
		f.params.mode = mode
		state := &bench.FrameState{AngleX: 0.3, AngleY: -0.9, LastTime: time.Second, Started: true, Mode: mode}
		require.NoError(t, f.driver.Frame(state, time.Second))
	}

	uniforms := f.rec.Uniforms()
	require.Len(t, uniforms, 3)
	assert.Equal(t, uniforms[0], uniforms[1])
	assert.Equal(t, uniforms[0], uniforms[2])
	assert.Equal(t, int32(0), uniforms[0].TextureUnit)

	var binds []renderertest.Call
	for _, c := range f.rec.Calls() {
		if c.Op == "BindGeometry" || c.Op == "BindTexture" {
			binds = append(binds, c)
		}
	}
	require.Len(t, binds, 6)
	for i := 2; i < len(binds); i++ {
		assert.Equal(t, binds[i%2], binds[i])
	}
}

func TestUniformMatrixUsesViewportAspect(t *testing.T) {
	f := newDriverFixture(t, bench.ModeInstancing)
	f.params.inView = true
	state := &bench.FrameState{AngleX: 0.5, AngleY: 1.25, Started: true, Mode: bench.ModeInstancing}
	require.NoError(t, f.driver.Frame(state, 0))

	want := camera.NewCamera(
		camera.WithAspect(640.0/480.0),
		camera.WithController(camera.NewCameraController(camera.WithModelInView(true))),
	).CombinedMatrix(0.5, 1.25)
	uniforms := f.rec.Uniforms()
	require.Len(t, uniforms, 1)
	for i := range 16 {
		assert.InDelta(t, want[i], uniforms[0].Matrix[i], 1e-6)
	}
	assert.InDelta(t, 640.0/480.0, f.cam.Aspect(), 1e-6)
}

func TestModelInViewToggleRecomputesMatrix(t *testing.T) {
	f := newDriverFixture(t, bench.ModeInstancing)
	state := bench.NewFrameState(bench.ModeInstancing, false)
	require.NoError(t, f.driver.Frame(state, 0))

	f.params.inView = true
	require.NoError(t, f.driver.Frame(state, 0))

	want := camera.NewCamera(
		camera.WithAspect(640.0/480.0),
		camera.WithController(camera.NewCameraController(camera.WithModelInView(true))),
	).CombinedMatrix(0, 0)
	uniforms := f.rec.Uniforms()
	require.Len(t, uniforms, 2)
	assert.NotEqual(t, uniforms[0].Matrix, uniforms[1].Matrix)
	for i := range 16 {
		assert.InDelta(t, want[i], uniforms[1].Matrix[i], 1e-6)
	}
}

func TestFramePollsParams(t *testing.T) {
	f := newDriverFixture(t, bench.ModeTextureUpload)
	state := bench.NewFrameState(bench.ModeTextureUpload, false)

	f.params.mode = bench.ModeMultiDraw
	f.params.inView = true
	require.NoError(t, f.driver.Frame(state, 0))

	assert.Equal(t, bench.ModeMultiDraw, state.Mode)
	assert.True(t, state.ModelInView)
	assert.True(t, f.cam.Controller().ModelInView())
	assert.Contains(t, f.rec.Ops(), "MultiDraw")
}

func TestFrameWithoutParamsKeepsState(t *testing.T) {
	rec, r, res := setup(t, 6)
	d := bench.NewDriver(r, camera.NewCamera(), res, nil)
	state := bench.NewFrameState(bench.ModeInstancing, false)
	rec.Reset()

	require.NoError(t, d.Frame(state, 0))
	assert.Equal(t, bench.ModeInstancing, state.Mode)
	assert.Contains(t, rec.Ops(), "DrawInstanced")
}

func TestModeSwitchKeepsResources(t *testing.T) {
	f := newDriverFixture(t, bench.ModeTextureUpload)
	state := bench.NewFrameState(bench.ModeTextureUpload, false)

	for i, mode := range []bench.Mode{bench.ModeTextureUpload, bench.ModeInstancing, bench.ModeMultiDraw, bench.ModeTextureUpload} {
		f.params.mode = mode
		require.NoError(t, f.driver.Frame(state, time.Duration(i)*time.Millisecond))
	}
	for _, op := range f.rec.Ops() {
		assert.NotRegexp(t, "^Create|^RegisterProgram", op)
	}
	assert.Equal(t, 4, f.rec.Frames())
}

func TestFrameSubmissionErrors(t *testing.T) {
	for _, op := range []string{"BeginFrame", "WriteUniforms", "DrawInstanced", "EndFrame"} {
		t.Run(op, func(t *testing.T) {
			f := newDriverFixture(t, bench.ModeInstancing)
			state := bench.NewFrameState(bench.ModeInstancing, false)
			f.rec.FailOn(op, errBoom)

			err := f.driver.Frame(state, 0)
			assert.ErrorIs(t, err, bench.ErrSubmission)
			assert.ErrorIs(t, err, errBoom)
			assert.Zero(t, state.Frames)
			assert.NotContains(t, f.rec.Ops(), "Present")

			// The renderer accepts a new frame once the fault clears.
			f.rec.FailOn(op, nil)
			assert.NoError(t, f.driver.Frame(state, 0))
		})
	}
}

func TestFrameHookReceivesStats(t *testing.T) {
	var seen []renderer.FrameStats
	f := newDriverFixture(t, bench.ModeInstancing, bench.WithFrameHook(func(_ *bench.FrameState, stats renderer.FrameStats) {
		seen = append(seen, stats)
	}))
	state := bench.NewFrameState(bench.ModeInstancing, false)

	require.NoError(t, f.driver.Frame(state, 0))
	require.Len(t, seen, 1)
	assert.Equal(t, renderer.FrameStats{DrawCommands: 1, Vertices: 6 * 36}, seen[0])
}

func TestRunUntilStopped(t *testing.T) {
	frames := 0
	f := newDriverFixture(t, bench.ModeMultiDraw, bench.WithFrameHook(func(*bench.FrameState, renderer.FrameStats) {
		frames++
	}))
	state := bench.NewFrameState(bench.ModeMultiDraw, false)
	sched := &tickScheduler{ticks: []time.Duration{0, 500 * time.Millisecond, time.Second}}

	require.NoError(t, f.driver.Run(context.Background(), state, sched))
	assert.Equal(t, 3, frames)
	assert.Equal(t, uint64(3), state.Frames)
	assert.InDelta(t, -0.7, state.AngleY, 1e-12)
}

func TestRunStopsOnFrameError(t *testing.T) {
	f := newDriverFixture(t, bench.ModeInstancing)
	f.rec.FailOn("EndFrame", errBoom)
	state := bench.NewFrameState(bench.ModeInstancing, false)

	err := f.driver.Run(context.Background(), state, &tickScheduler{ticks: []time.Duration{0, time.Second}})
	assert.ErrorIs(t, err, bench.ErrSubmission)
	assert.Equal(t, 1, countOps(f.rec.Ops(), "BeginFrame"))
}

func TestRunZeroFramesOnCancelledContext(t *testing.T) {
	f := newDriverFixture(t, bench.ModeInstancing)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, f.driver.Run(ctx, bench.NewFrameState(bench.ModeInstancing, false), &tickScheduler{ticks: []time.Duration{0}}))
	assert.Empty(t, f.rec.Ops())
}

func countOps(ops []string, op string) int {
	n := 0
	for _, o := range ops {
		if o == op {
			n++
		}
	}
	return n
}
