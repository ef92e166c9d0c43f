// Package renderertest provides an in-memory RendererBackend that records every command it receives.
package renderertest

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-drawbench/common"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/renderer"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/renderer/shader"
)

// Call is one recorded backend command.
type Call struct {
	Op   string
	Args []int
}

// Texture is the recorder's view of a created texture.
type Texture struct {
	Label   string
	Width   uint32
	Height  uint32
	Pixels  []byte // copy of the most recent upload
	Uploads int    // uploads after creation
}

// Recorder is a RendererBackend that performs no GPU work.
type Recorder struct {
	mu *sync.Mutex

	caps     renderer.Capabilities
	failures map[string]error

	calls    []Call
	program  *shader.Program
	uniforms []shader.Uniforms
	buffers  [][]byte
	textures []*Texture
	ranges   [][2][]int32
	surfaces [][2]int
	frames   int
}

var _ renderer.RendererBackend = &Recorder{}

// NewRecorder creates a Recorder reporting full capabilities and an 8192 texture limit.
func NewRecorder() *Recorder {
	return &Recorder{
		mu: &sync.Mutex{},
		caps: renderer.Capabilities{
			Instancing:          true,
			MultiDraw:           true,
			MaxTextureDimension: 8192,
		},
		failures: make(map[string]error),
	}
}

// SetCapabilities overrides what Capabilities reports.
func (r *Recorder) SetCapabilities(c renderer.Capabilities) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.caps = c
}

// FailOn makes every later call to op return err. A nil err clears the failure.
func (r *Recorder) FailOn(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.failures, op)
		return
	}
	r.failures[op] = err
}

// Calls returns a copy of the recorded commands.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Ops returns just the command names, in order.
func (r *Recorder) Ops() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ops := make([]string, len(r.calls))
	for i, c := range r.calls {
		ops[i] = c.Op
	}
	return ops
}

// Reset forgets recorded calls and uniforms but keeps created resources.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
	r.uniforms = nil
}

// Uniforms returns every uniform block written, in order.
func (r *Recorder) Uniforms() []shader.Uniforms {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]shader.Uniforms(nil), r.uniforms...)
}

// Texture returns the recorded state of the texture behind h, or nil.
func (r *Recorder) Texture(h renderer.TextureHandle) *Texture {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h <= 0 || int(h) > len(r.textures) {
		return nil
	}
	return r.textures[h-1]
}

// Buffer returns the bytes uploaded for the vertex buffer behind h, or nil.
func (r *Recorder) Buffer(h renderer.BufferHandle) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h <= 0 || int(h) > len(r.buffers) {
		return nil
	}
	return r.buffers[h-1]
}

// Ranges returns the starts and counts uploaded for the table behind h.
func (r *Recorder) Ranges(h renderer.RangesHandle) (starts, counts []int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h <= 0 || int(h) > len(r.ranges) {
		return nil, nil
	}
	return r.ranges[h-1][0], r.ranges[h-1][1]
}

// Program returns the registered program, or nil.
func (r *Recorder) Program() *shader.Program {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.program
}

// Surfaces returns every size the surface was configured with.
func (r *Recorder) Surfaces() [][2]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][2]int(nil), r.surfaces...)
}

// Frames returns the number of frames that reached EndFrame successfully.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// record appends a call and returns the injected failure for op, if any. Caller holds r.mu.
func (r *Recorder) record(op string, args ...int) error {
	r.calls = append(r.calls, Call{Op: op, Args: args})
	return r.failures[op]
}

func (r *Recorder) Capabilities() renderer.Capabilities {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.caps
}

func (r *Recorder) ConfigureSurface(width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("ConfigureSurface", width, height); err != nil {
		return err
	}
	r.surfaces = append(r.surfaces, [2]int{width, height})
	return nil
}

func (r *Recorder) SetPresentMode(mode renderer.PresentMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.record("SetPresentMode", int(mode))
}

func (r *Recorder) RegisterProgram(p shader.Program) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("RegisterProgram"); err != nil {
		return err
	}
	r.program = &p
	return nil
}

func (r *Recorder) CreateVertexBuffer(label string, data []byte) (renderer.BufferHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("CreateVertexBuffer", len(data)); err != nil {
		return 0, err
	}
	r.buffers = append(r.buffers, append([]byte(nil), data...))
	return renderer.BufferHandle(len(r.buffers)), nil
}

func (r *Recorder) CreateTexture(label string, staging common.TextureStagingData) (renderer.TextureHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("CreateTexture", int(staging.Width), int(staging.Height)); err != nil {
		return 0, err
	}
	r.textures = append(r.textures, &Texture{
		Label:  label,
		Width:  staging.Width,
		Height: staging.Height,
		Pixels: append([]byte(nil), staging.Pixels...),
	})
	return renderer.TextureHandle(len(r.textures)), nil
}

func (r *Recorder) CreateDrawRanges(label string, starts, counts []int32) (renderer.RangesHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("CreateDrawRanges", len(starts)); err != nil {
		return 0, err
	}
	r.ranges = append(r.ranges, [2][]int32{starts, counts})
	return renderer.RangesHandle(len(r.ranges)), nil
}

func (r *Recorder) BeginFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.record("BeginFrame")
}

func (r *Recorder) WriteUniforms(u shader.Uniforms) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("WriteUniforms", int(u.TextureUnit)); err != nil {
		return err
	}
	r.uniforms = append(r.uniforms, u)
	return nil
}

func (r *Recorder) BindGeometry(positions, texcoords renderer.BufferHandle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("BindGeometry", int(positions), int(texcoords)); err != nil {
		return err
	}
	if positions <= 0 || int(positions) > len(r.buffers) || texcoords <= 0 || int(texcoords) > len(r.buffers) {
		return fmt.Errorf("invalid buffer handles %d, %d", positions, texcoords)
	}
	return nil
}

func (r *Recorder) BindTexture(tex renderer.TextureHandle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("BindTexture", int(tex)); err != nil {
		return err
	}
	if tex <= 0 || int(tex) > len(r.textures) {
		return fmt.Errorf("invalid texture handle %d", tex)
	}
	return nil
}

func (r *Recorder) UploadTexture(tex renderer.TextureHandle, pixels []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("UploadTexture", int(tex), len(pixels)); err != nil {
		return err
	}
	if tex <= 0 || int(tex) > len(r.textures) {
		return fmt.Errorf("invalid texture handle %d", tex)
	}
	t := r.textures[tex-1]
	t.Pixels = append(t.Pixels[:0], pixels...)
	t.Uploads++
	return nil
}

func (r *Recorder) Draw(first, count int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.record("Draw", first, count)
}

func (r *Recorder) DrawInstanced(first, count, instances int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.record("DrawInstanced", first, count, instances)
}

func (r *Recorder) MultiDraw(ranges renderer.RangesHandle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("MultiDraw", int(ranges)); err != nil {
		return err
	}
	if ranges <= 0 || int(ranges) > len(r.ranges) {
		return fmt.Errorf("invalid draw ranges handle %d", ranges)
	}
	return nil
}

func (r *Recorder) EndFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("EndFrame"); err != nil {
		return err
	}
	r.frames++
	return nil
}

func (r *Recorder) Present() {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.record("Present")
}

func (r *Recorder) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.record("Release")
}
