package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-drawbench/common"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/window"
)

// ErrNoFrame is returned when a per-frame command is issued outside BeginFrame/EndFrame.
var ErrNoFrame = errors.New("no frame in progress")

// FrameStats counts the work submitted in one frame.
type FrameStats struct {
	// DrawCommands is the number of draw calls issued; a multi-draw counts as one.
	DrawCommands int
	// Vertices is the number of vertices submitted across all draws and instances.
	Vertices int64
	// UploadedBytes is the number of texture bytes written during the frame.
	UploadedBytes int64
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend

	viewport common.Viewport
	inFrame  bool
	ranges   map[RangesHandle]int64 // vertices per range table
	current  FrameStats
	last     FrameStats

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
}

// Renderer defines the interface for the rendering system.
//
// This is a high-level API over a RendererBackend that hands out typed handles for GPU resources
// and enforces frame bracketing: every per-frame command must sit between BeginFrame and EndFrame.
type Renderer interface {
	// Capabilities reports which draw strategies the device supports.
	//
	// Returns:
	//   - Capabilities: the device capabilities
	Capabilities() Capabilities

	// Resize configures the underlying backend to handle a new surface size.
	// A zero-sized surface (minimized window) is remembered but not configured.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	//
	// Returns:
	//   - error: an error if the backend could not reconfigure the surface
	Resize(width, height int) error

	// Viewport returns the current drawable size.
	//
	// Returns:
	//   - common.Viewport: width and height in pixels
	Viewport() common.Viewport

	// SetPresentMode sets the surface present mode. A call to Resize is required after changing this
	// for the new mode to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// RegisterProgram compiles the program into the pipeline used by all subsequent draws.
	//
	// Parameters:
	//   - p: the shader program
	//
	// Returns:
	//   - error: an error if pipeline creation fails
	RegisterProgram(p shader.Program) error

	// CreateVertexBuffer uploads static vertex data.
	//
	// Parameters:
	//   - label: debug label for the buffer
	//   - data: the raw vertex bytes
	//
	// Returns:
	//   - BufferHandle: the handle to bind the buffer with
	//   - error: an error if the buffer could not be created
	CreateVertexBuffer(label string, data []byte) (BufferHandle, error)

	// CreateTexture creates an RGBA8 texture with nearest filtering and clamp-to-edge wrapping and
	// uploads the staging pixels into it.
	//
	// Parameters:
	//   - label: debug label for the texture
	//   - staging: the pixel data and dimensions
	//
	// Returns:
	//   - TextureHandle: the handle to bind or re-upload the texture with
	//   - error: an error if the texture could not be created
	CreateTexture(label string, staging common.TextureStagingData) (TextureHandle, error)

	// CreateDrawRanges uploads a multi-draw range table. starts and counts must have equal length.
	//
	// Parameters:
	//   - label: debug label for the table
	//   - starts: first vertex of each range
	//   - counts: vertex count of each range
	//
	// Returns:
	//   - RangesHandle: the handle to pass to MultiDraw
	//   - error: an error if the table could not be created
	CreateDrawRanges(label string, starts, counts []int32) (RangesHandle, error)

	// BeginFrame acquires the swapchain texture and begins the main render pass, clearing color and depth.
	// Must be paired with EndFrame.
	//
	// Returns:
	//   - error: an error if a frame is already in progress or the swapchain texture could not be acquired
	BeginFrame() error

	// SetUniforms writes the uniform block read by the program.
	SetUniforms(u shader.Uniforms) error

	// BindGeometry binds the position and texcoord buffers to their attribute slots.
	BindGeometry(positions, texcoords BufferHandle) error

	// BindTexture makes tex the texture sampled by the program.
	BindTexture(tex TextureHandle) error

	// UploadTexture replaces the full contents of tex with pixels.
	UploadTexture(tex TextureHandle, pixels []byte) error

	// Draw records a single non-instanced draw of count vertices starting at first.
	Draw(first, count int) error

	// DrawInstanced records one draw of count vertices repeated for instances instances.
	DrawInstanced(first, count, instances int) error

	// MultiDraw submits every entry of the range table as one multi-draw command.
	MultiDraw(ranges RangesHandle) error

	// EndFrame ends the current render pass and submits the command buffer to the GPU.
	// Does not present the surface; call Present() after EndFrame to display the frame.
	EndFrame() error

	// Present presents the surface to the display and releases the swapchain texture.
	Present()

	// LastFrameStats returns the counters of the most recently submitted frame.
	LastFrameStats() FrameStats

	// Release frees all GPU resources.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer instance with the specified backend type, presenting into the window's surface.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - win: the window whose surface descriptor and size seed the backend
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
//   - error: an error if no adapter or device could be acquired
func NewRenderer(backendType RendererBackendType, win window.Window, options ...RendererBuilderOption) (Renderer, error) {
	r := newRenderer(backendType, options...)

	msaa := MSAAOff
	if r.pendingMSAA != nil {
		msaa = *r.pendingMSAA
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		b, err := newWGPURendererBackend(win.SurfaceDescriptor(), r.forceFallbackAdapter, msaa)
		if err != nil {
			return nil, err
		}
		r.backend = b
	}

	return r, r.init(win.Width(), win.Height())
}

// NewRendererWithBackend wraps an existing backend, typically a test double.
//
// Parameters:
//   - backend: the backend to drive
//   - width: initial surface width in pixels
//   - height: initial surface height in pixels
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the facade over backend
//   - error: an error if the initial surface configuration fails
func NewRendererWithBackend(backend RendererBackend, width, height int, options ...RendererBuilderOption) (Renderer, error) {
	r := newRenderer(BackendTypeWGPU, options...)
	r.backend = backend
	return r, r.init(width, height)
}

func newRenderer(backendType RendererBackendType, options ...RendererBuilderOption) *renderer {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
		ranges:      make(map[RangesHandle]int64),
	}
	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *renderer) init(width, height int) error {
	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	return r.Resize(width, height)
}

func (r *renderer) Capabilities() Capabilities {
	return r.backend.Capabilities()
}

func (r *renderer) Resize(width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.viewport = common.Viewport{Width: width, Height: height}
	if width <= 0 || height <= 0 {
		return nil
	}
	return r.backend.ConfigureSurface(width, height)
}

func (r *renderer) Viewport() common.Viewport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewport
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) RegisterProgram(p shader.Program) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.backend.RegisterProgram(p); err != nil {
		return fmt.Errorf("register program %q: %w", p.Label, err)
	}
	return nil
}

func (r *renderer) CreateVertexBuffer(label string, data []byte) (BufferHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(data) == 0 {
		return 0, fmt.Errorf("vertex buffer %q: no data", label)
	}
	return r.backend.CreateVertexBuffer(label, data)
}

func (r *renderer) CreateTexture(label string, staging common.TextureStagingData) (TextureHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if staging.Width == 0 || staging.Height == 0 {
		return 0, fmt.Errorf("texture %q: zero size", label)
	}
	if len(staging.Pixels) != staging.ByteSize() {
		return 0, fmt.Errorf("texture %q: have %d bytes, want %d", label, len(staging.Pixels), staging.ByteSize())
	}
	if limit := r.backend.Capabilities().MaxTextureDimension; limit > 0 && (staging.Width > limit || staging.Height > limit) {
		return 0, fmt.Errorf("texture %q: %dx%d exceeds device limit %d", label, staging.Width, staging.Height, limit)
	}
	return r.backend.CreateTexture(label, staging)
}

func (r *renderer) CreateDrawRanges(label string, starts, counts []int32) (RangesHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(starts) != len(counts) {
		return 0, fmt.Errorf("draw ranges %q: %d starts but %d counts", label, len(starts), len(counts))
	}
	h, err := r.backend.CreateDrawRanges(label, starts, counts)
	if err != nil {
		return 0, err
	}
	var vertices int64
	for _, c := range counts {
		vertices += int64(c)
	}
	r.ranges[h] = vertices
	return h, nil
}

func (r *renderer) BeginFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inFrame {
		return errors.New("previous frame not ended")
	}
	if err := r.backend.BeginFrame(); err != nil {
		return err
	}
	r.inFrame = true
	r.current = FrameStats{}
	return nil
}

func (r *renderer) SetUniforms(u shader.Uniforms) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.inFrame {
		return ErrNoFrame
	}
	return r.backend.WriteUniforms(u)
}

func (r *renderer) BindGeometry(positions, texcoords BufferHandle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.inFrame {
		return ErrNoFrame
	}
	return r.backend.BindGeometry(positions, texcoords)
}

func (r *renderer) BindTexture(tex TextureHandle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.inFrame {
		return ErrNoFrame
	}
	return r.backend.BindTexture(tex)
}

func (r *renderer) UploadTexture(tex TextureHandle, pixels []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.inFrame {
		return ErrNoFrame
	}
	if err := r.backend.UploadTexture(tex, pixels); err != nil {
		return err
	}
	r.current.UploadedBytes += int64(len(pixels))
	return nil
}

func (r *renderer) Draw(first, count int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.inFrame {
		return ErrNoFrame
	}
	if err := r.backend.Draw(first, count); err != nil {
		return err
	}
	r.current.DrawCommands++
	r.current.Vertices += int64(count)
	return nil
}

func (r *renderer) DrawInstanced(first, count, instances int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.inFrame {
		return ErrNoFrame
	}
	if err := r.backend.DrawInstanced(first, count, instances); err != nil {
		return err
	}
	r.current.DrawCommands++
	r.current.Vertices += int64(count) * int64(instances)
	return nil
}

func (r *renderer) MultiDraw(ranges RangesHandle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.inFrame {
		return ErrNoFrame
	}
	vertices, ok := r.ranges[ranges]
	if !ok {
		return fmt.Errorf("unknown draw ranges handle %d", ranges)
	}
	if err := r.backend.MultiDraw(ranges); err != nil {
		return err
	}
	r.current.DrawCommands++
	r.current.Vertices += vertices
	return nil
}

func (r *renderer) EndFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.inFrame {
		return ErrNoFrame
	}
	r.inFrame = false
	if err := r.backend.EndFrame(); err != nil {
		return err
	}
	r.last = r.current
	return nil
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) LastFrameStats() FrameStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.Release()
}
