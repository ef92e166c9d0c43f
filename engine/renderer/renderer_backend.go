package renderer

import (
	"github.com/Carmen-Shannon/oxy-drawbench/common"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/renderer/shader"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// WebGPU guarantees support for 1 (off) and 4.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1). This is the default.
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing.
	MSAA4x MSAASampleCount = 4
)

// BufferHandle identifies a vertex buffer created by the renderer. The zero value is invalid.
type BufferHandle int

// TextureHandle identifies a texture (and its bind group) created by the renderer. The zero value is invalid.
type TextureHandle int

// RangesHandle identifies an uploaded multi-draw range table. The zero value is invalid.
type RangesHandle int

// Capabilities reports which draw strategies the active device supports.
type Capabilities struct {
	// Instancing is true when a single draw may submit many instances.
	Instancing bool
	// MultiDraw is true when a batch of (start, count) draws may be issued from one range table.
	MultiDraw bool
	// MaxTextureDimension is the largest width or height a 2D texture may have.
	MaxTextureDimension uint32
}

// RendererBackend is the contract a GPU API must fulfil to be driven by the Renderer facade.
// Calls between BeginFrame and EndFrame record into a single render pass.
type RendererBackend interface {
	// Capabilities reports what the device can do.
	Capabilities() Capabilities

	// ConfigureSurface (re)creates the swapchain and depth attachments for the given size.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	//
	// Returns:
	//   - error: an error if any attachment could not be created
	ConfigureSurface(width, height int) error

	// SetPresentMode sets the surface present mode. Takes effect on the next ConfigureSurface.
	SetPresentMode(mode PresentMode)

	// RegisterProgram creates the render pipeline, uniform buffer and sampler for the program.
	// Back-face culling and depth testing are always enabled.
	RegisterProgram(p shader.Program) error

	CreateVertexBuffer(label string, data []byte) (BufferHandle, error)
	CreateTexture(label string, staging common.TextureStagingData) (TextureHandle, error)
	CreateDrawRanges(label string, starts, counts []int32) (RangesHandle, error)

	BeginFrame() error
	WriteUniforms(u shader.Uniforms) error
	BindGeometry(positions, texcoords BufferHandle) error
	BindTexture(tex TextureHandle) error
	UploadTexture(tex TextureHandle, pixels []byte) error
	Draw(first, count int) error
	DrawInstanced(first, count, instances int) error
	MultiDraw(ranges RangesHandle) error
	EndFrame() error
	Present()

	// Release frees every GPU object the backend owns.
	Release()
}
