package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-drawbench/common"
	"github.com/Carmen-Shannon/oxy-drawbench/config"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/bench"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/camera"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/instance"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/params"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/profiler"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/renderer"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/window"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// engine implements the Engine interface.
// Owns the window, renderer and frame driver for one benchmark run.
type engine struct {
	cfg        config.Config
	configPath string
	runID      string
	logger     *log.Logger

	window   window.Window
	renderer renderer.Renderer
	camera   camera.Camera
	params   *params.Store
	res      *bench.Resources
	driver   *bench.Driver

	profiler         *profiler.Profiler
	profilingEnabled bool

	titleMode bench.Mode
	titled    bool

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once
}

// Engine is the benchmark host: it builds every resource from the configuration and runs the
// frame loop until the window closes.
type Engine interface {
	// RunID returns the identifier logged with every report of this run.
	RunID() string

	// Params returns the live parameter store read by the frame driver.
	Params() *params.Store

	// Resources returns the resources built at startup.
	Resources() *bench.Resources

	// Run drives frames until the window closes, Quit is called or ctx is done, then releases
	// the renderer and window.
	//
	// Parameters:
	//   - ctx: cancels the run
	//
	// Returns:
	//   - error: the first frame error, wrapping bench.ErrSubmission
	Run(ctx context.Context) error

	// Quit stops the frame loop after the current frame.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates the window (unless one is supplied), the WebGPU renderer (unless one is
// supplied) and every benchmark resource described by cfg.
//
// Parameters:
//   - cfg: the validated configuration
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the ready-to-run engine
//   - error: a configuration, capability or allocation error
func NewEngine(cfg config.Config, options ...EngineBuilderOption) (Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := common.SetLogLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	e := &engine{
		cfg:              cfg,
		runID:            uuid.NewString(),
		profilingEnabled: cfg.Profiling,
		quitChannel:      make(chan struct{}),
	}
	for _, opt := range options {
		opt(e)
	}
	e.logger = common.Logger().WithPrefix("engine").With("run", e.runID)
	e.logger.Info("starting", "instances", cfg.InstanceCount, "mode", cfg.Mode)

	if err := e.initWindow(); err != nil {
		return nil, err
	}
	if err := e.initRenderer(); err != nil {
		e.closeWindow()
		return nil, err
	}

	res, err := bench.Setup(e.renderer, cfg.InstanceCount,
		bench.WithStartMode(cfg.Mode),
		bench.WithRefreshTexture(cfg.RefreshTexture),
		bench.WithEncoderOptions(e.encoderOptions()...),
	)
	if err != nil {
		e.renderer.Release()
		e.closeWindow()
		return nil, err
	}
	e.res = res

	e.params = params.NewStore(cfg.Mode, cfg.ModelInView)
	e.params.Restrict(res.EnabledModes())

	e.camera = camera.NewCamera(
		camera.WithFov(common.DegToRad(cfg.Camera.FovDegrees)),
		camera.WithNear(cfg.Camera.Near),
		camera.WithFar(cfg.Camera.Far),
		camera.WithController(camera.NewCameraController(camera.WithModelInView(cfg.ModelInView))),
	)

	driverOptions := []bench.DriverOption{bench.WithFrameHook(e.updateTitle)}
	if e.profilingEnabled {
		e.profiler = profiler.NewProfiler(profiler.WithRunID(e.runID))
		driverOptions = append(driverOptions, bench.WithFrameHook(e.profiler.Observe))
	}
	e.driver = bench.NewDriver(e.renderer, e.camera, res, e.params, driverOptions...)

	e.window.SetResizeCallback(e.handleResize)
	e.window.SetKeyDownCallback(e.handleKey)
	return e, nil
}

func (e *engine) RunID() string {
	return e.runID
}

func (e *engine) Params() *params.Store {
	return e.params
}

func (e *engine) Resources() *bench.Resources {
	return e.res
}

func (e *engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-e.quitChannel:
			cancel()
		case <-ctx.Done():
		}
	}()

	if e.cfg.Watch && e.configPath != "" {
		go func() {
			if err := config.Watch(ctx, e.configPath, e.cfg.Live(), e.applyLive); err != nil {
				e.logger.Warn("config hot reload disabled", "err", err)
			}
		}()
	}

	state := bench.NewFrameState(e.params.Mode(), e.params.ModelInView())
	start := time.Now()
	err := e.driver.Run(ctx, state, scheduler{e.window})
	e.logger.Info("stopped", "frames", state.Frames, "elapsed", time.Since(start).Round(time.Millisecond))

	e.renderer.Release()
	e.res.Close()
	e.closeWindow()
	if err != nil {
		return fmt.Errorf("run %s: %w", e.runID, err)
	}
	return nil
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
		e.window.RequestClose()
	})
}

func (e *engine) initWindow() error {
	if e.window != nil {
		return nil
	}
	w, err := window.NewWindow(
		window.WithTitle(e.cfg.Window.Title),
		window.WithWidth(e.cfg.Window.Width),
		window.WithHeight(e.cfg.Window.Height),
	)
	if err != nil {
		return err
	}
	e.window = w
	return nil
}

func (e *engine) initRenderer() error {
	if e.renderer != nil {
		return nil
	}
	presentMode := renderer.PresentModeUncapped
	if e.cfg.Renderer.PresentMode == config.PresentModeVSync {
		presentMode = renderer.PresentModeVSync
	}
	r, err := renderer.NewRenderer(renderer.BackendTypeWGPU, e.window,
		renderer.WithPresentMode(presentMode),
		renderer.WithMSAA(renderer.MSAASampleCount(e.cfg.Renderer.MSAA)),
		renderer.WithForceSoftwareRenderer(e.cfg.Renderer.ForceSoftware),
	)
	if err != nil {
		return fmt.Errorf("%w: create renderer: %w", bench.ErrAllocation, err)
	}
	e.renderer = r
	return nil
}

func (e *engine) encoderOptions() []instance.EncoderBuilderOption {
	var opts []instance.EncoderBuilderOption
	if e.cfg.Seed != 0 {
		opts = append(opts, instance.WithSeed(e.cfg.Seed))
	}
	if e.cfg.FillWorkers > 0 {
		opts = append(opts, instance.WithWorkers(e.cfg.FillWorkers))
	}
	return opts
}

func (e *engine) closeWindow() {
	if err := e.window.Close(); err != nil {
		e.logger.Warn("close window", "err", err)
	}
}

func (e *engine) handleResize(width, height int) {
	if err := e.renderer.Resize(width, height); err != nil {
		e.logger.Error("resize", "width", width, "height", height, "err", err)
	}
}

func (e *engine) handleKey(keyCode uint32) {
	switch keyCode {
	case common.Key1:
		e.selectMode(bench.ModeTextureUpload)
	case common.Key2:
		e.selectMode(bench.ModeInstancing)
	case common.Key3:
		e.selectMode(bench.ModeMultiDraw)
	case common.KeyV:
		e.params.ToggleModelInView()
	case common.KeyEsc:
		e.Quit()
	}
}

// selectMode logs refusals; the store keeps the current mode.
func (e *engine) selectMode(m bench.Mode) {
	if err := e.params.SetMode(m); err != nil {
		e.logger.Warn("cannot switch mode", "err", err)
	}
}

func (e *engine) applyLive(l config.Live) {
	e.selectMode(l.Mode)
	e.params.SetModelInView(l.ModelInView)
}

// updateTitle shows the active mode in the title bar whenever it changes.
func (e *engine) updateTitle(state *bench.FrameState, _ renderer.FrameStats) {
	if e.titled && state.Mode == e.titleMode {
		return
	}
	e.window.SetTitle(fmt.Sprintf("%s [%s]", e.cfg.Window.Title, state.Mode))
	e.titleMode = state.Mode
	e.titled = true
}

// scheduler adapts the window to bench.Scheduler.
type scheduler struct {
	w window.Window
}

func (s scheduler) WaitFrame(ctx context.Context) (time.Duration, error) {
	now, err := s.w.WaitFrame(ctx)
	if errors.Is(err, window.ErrClosed) {
		return 0, bench.ErrStopped
	}
	return now, err
}
