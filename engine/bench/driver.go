package bench

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-drawbench/common"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/camera"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/renderer"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/renderer/shader"
	"github.com/charmbracelet/log"
)

// Model rotation speeds in radians per second.
const (
	AngularVelocityX = -0.4
	AngularVelocityY = -0.7
)

// ErrStopped is returned by a Scheduler when no further frames should run.
var ErrStopped = errors.New("frame loop stopped")

// FrameState is the animation state carried from one frame to the next.
type FrameState struct {
	// AngleX and AngleY are the accumulated model rotations in radians. They are never wrapped.
	AngleX float64
	AngleY float64
	// LastTime is the scheduler timestamp of the previous frame.
	LastTime time.Duration
	// Started is false until the first frame has run.
	Started bool
	// Mode is the draw strategy used by the most recent frame.
	Mode Mode
	// ModelInView is the camera aim used by the most recent frame.
	ModelInView bool
	// Frames counts completed frames.
	Frames uint64
}

// NewFrameState returns a state that has not run any frame yet.
func NewFrameState(mode Mode, modelInView bool) *FrameState {
	return &FrameState{Mode: mode, ModelInView: modelInView}
}

// ParamSource supplies the externally selected parameters. The driver polls it once per frame.
type ParamSource interface {
	Mode() Mode
	ModelInView() bool
}

// Scheduler paces the frame loop. WaitFrame blocks until the next frame is due and returns a
// timestamp that never decreases between calls.
type Scheduler interface {
	WaitFrame(ctx context.Context) (time.Duration, error)
}

// FrameHook observes every completed frame.
type FrameHook func(state *FrameState, stats renderer.FrameStats)

// Driver runs the per-frame sequence: advance rotation, rebuild matrices, bind the shared state,
// dispatch to RenderFrame, submit and present.
type Driver struct {
	renderer renderer.Renderer
	camera   camera.Camera
	res      *Resources
	params   ParamSource

	hooks  []FrameHook
	logger *log.Logger
}

// NewDriver creates a Driver.
//
// Parameters:
//   - r: the renderer to draw with
//   - cam: the camera providing the view and projection
//   - res: the resources built by Setup
//   - params: the parameter source polled each frame; nil keeps the FrameState values
//   - options: variadic list of DriverOption functions
//
// Returns:
//   - *Driver: the configured driver
func NewDriver(r renderer.Renderer, cam camera.Camera, res *Resources, params ParamSource, options ...DriverOption) *Driver {
	d := &Driver{
		renderer: r,
		camera:   cam,
		res:      res,
		params:   params,
		logger:   common.Logger().WithPrefix("driver"),
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

// Frame runs one frame at timestamp now. The first frame, and any frame whose timestamp precedes
// the previous one, advances the rotation by zero.
//
// Parameters:
//   - state: the state carried between frames, updated in place
//   - now: the scheduler timestamp
//
// Returns:
//   - error: an error wrapping ErrSubmission if recording, submission or presentation failed
func (d *Driver) Frame(state *FrameState, now time.Duration) error {
	var dt float64
	if state.Started {
		dt = max((now - state.LastTime).Seconds(), 0)
	}
	if !state.Started || now > state.LastTime {
		state.LastTime = now
	}
	state.Started = true

	state.AngleY += AngularVelocityY * dt
	state.AngleX += AngularVelocityX * dt

	d.pollParams(state)

	if aspect := d.renderer.Viewport().Aspect(); aspect != d.camera.Aspect() {
		d.camera.SetAspect(aspect)
	}
	matrix := d.camera.CombinedMatrix(float32(state.AngleX), float32(state.AngleY))

	if err := d.renderer.BeginFrame(); err != nil {
		return fmt.Errorf("%w: begin frame: %w", ErrSubmission, err)
	}
	if err := d.record(state.Mode, matrix); err != nil {
		// End the pass before reporting the failure.
		return fmt.Errorf("%w: %w", ErrSubmission, errors.Join(err, d.renderer.EndFrame()))
	}
	if err := d.renderer.EndFrame(); err != nil {
		return fmt.Errorf("%w: end frame: %w", ErrSubmission, err)
	}
	d.renderer.Present()

	state.Frames++
	stats := d.renderer.LastFrameStats()
	for _, hook := range d.hooks {
		hook(state, stats)
	}
	return nil
}

// Run calls Frame for every timestamp the scheduler yields until it reports ErrStopped or the
// context is cancelled, both of which end the loop without error. Any frame error ends the loop.
//
// Parameters:
//   - ctx: cancels the loop
//   - state: the state carried between frames
//   - sched: the frame pacing source
//
// Returns:
//   - error: the first frame or scheduler error
func (d *Driver) Run(ctx context.Context, state *FrameState, sched Scheduler) error {
	for {
		now, err := sched.WaitFrame(ctx)
		if errors.Is(err, ErrStopped) || errors.Is(err, context.Canceled) {
			d.logger.Debug("frame loop stopped", "frames", state.Frames)
			return nil
		}
		if err != nil {
			return err
		}
		if err := d.Frame(state, now); err != nil {
			return err
		}
	}
}

func (d *Driver) pollParams(state *FrameState) {
	if d.params == nil {
		return
	}
	if mode := d.params.Mode(); mode != state.Mode {
		d.logger.Info("mode changed", "from", state.Mode, "to", mode)
		state.Mode = mode
	}
	if inView := d.params.ModelInView(); inView != state.ModelInView {
		d.logger.Debug("model in view changed", "in_view", inView)
		state.ModelInView = inView
	}
	if ctrl := d.camera.Controller(); ctrl != nil && ctrl.ModelInView() != state.ModelInView {
		ctrl.SetModelInView(state.ModelInView)
		d.camera.Update()
	}
}

// record binds the shared state, identical for every mode, then dispatches.
func (d *Driver) record(mode Mode, matrix [16]float32) error {
	if err := d.renderer.SetUniforms(shader.Uniforms{Matrix: matrix, TextureUnit: 0}); err != nil {
		return err
	}
	if err := d.renderer.BindGeometry(d.res.Geometry.Positions, d.res.Geometry.Texcoords); err != nil {
		return err
	}
	if err := d.renderer.BindTexture(d.res.Texture); err != nil {
		return err
	}
	return RenderFrame(d.renderer, mode, d.res)
}
