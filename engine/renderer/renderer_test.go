package renderer_test

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-drawbench/common"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/renderer"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(t *testing.T, opts ...renderer.RendererBuilderOption) (renderer.Renderer, *renderertest.Recorder) {
	t.Helper()
	rec := renderertest.NewRecorder()
	r, err := renderer.NewRendererWithBackend(rec, 640, 480, opts...)
	require.NoError(t, err)
	require.NoError(t, r.RegisterProgram(shader.TexturedCube()))
	return r, rec
}

func TestNewRendererConfiguresSurface(t *testing.T) {
	r, rec := newTestRenderer(t, renderer.WithPresentMode(renderer.PresentModeVSync))

	assert.Equal(t, common.Viewport{Width: 640, Height: 480}, r.Viewport())
	assert.Equal(t, [][2]int{{640, 480}}, rec.Surfaces())
	assert.Equal(t, []string{"SetPresentMode", "ConfigureSurface", "RegisterProgram"}, rec.Ops())
}

func TestResizeSkipsZeroSize(t *testing.T) {
	r, rec := newTestRenderer(t)

	require.NoError(t, r.Resize(0, 0))
	assert.Equal(t, common.Viewport{}, r.Viewport())
	require.NoError(t, r.Resize(800, 600))
	assert.Equal(t, [][2]int{{640, 480}, {800, 600}}, rec.Surfaces())
}

func TestCommandsOutsideFrame(t *testing.T) {
	r, _ := newTestRenderer(t)

	assert.ErrorIs(t, r.Draw(0, 36), renderer.ErrNoFrame)
	assert.ErrorIs(t, r.DrawInstanced(0, 36, 2), renderer.ErrNoFrame)
	assert.ErrorIs(t, r.SetUniforms(shader.Uniforms{}), renderer.ErrNoFrame)
	assert.ErrorIs(t, r.EndFrame(), renderer.ErrNoFrame)

	require.NoError(t, r.BeginFrame())
	assert.Error(t, r.BeginFrame())
}

func TestCreateTextureValidation(t *testing.T) {
	r, rec := newTestRenderer(t)

	_, err := r.CreateTexture("short", common.TextureStagingData{Pixels: make([]byte, 3), Width: 1, Height: 1})
	assert.Error(t, err)

	_, err = r.CreateTexture("empty", common.TextureStagingData{})
	assert.Error(t, err)

	rec.SetCapabilities(renderer.Capabilities{MaxTextureDimension: 4})
	_, err = r.CreateTexture("big", common.TextureStagingData{Pixels: make([]byte, 5*5*4), Width: 5, Height: 5})
	assert.Error(t, err)

	h, err := r.CreateTexture("ok", common.TextureStagingData{Pixels: make([]byte, 4*4*4), Width: 4, Height: 4})
	require.NoError(t, err)
	assert.Equal(t, uint32(4), rec.Texture(h).Width)
}

func TestCreateDrawRangesLengthMismatch(t *testing.T) {
	r, _ := newTestRenderer(t)
	_, err := r.CreateDrawRanges("bad", []int32{0, 0}, []int32{36})
	assert.Error(t, err)
}

func TestFrameStats(t *testing.T) {
	r, _ := newTestRenderer(t)

	tex, err := r.CreateTexture("t", common.TextureStagingData{Pixels: make([]byte, 16), Width: 2, Height: 2})
	require.NoError(t, err)
	ranges, err := r.CreateDrawRanges("r", []int32{0, 0, 0}, []int32{36, 36, 36})
	require.NoError(t, err)

	require.NoError(t, r.BeginFrame())
	require.NoError(t, r.UploadTexture(tex, make([]byte, 16)))
	require.NoError(t, r.Draw(0, 36))
	require.NoError(t, r.DrawInstanced(0, 36, 10))
	require.NoError(t, r.MultiDraw(ranges))
	require.NoError(t, r.EndFrame())

	stats := r.LastFrameStats()
	assert.Equal(t, 3, stats.DrawCommands)
	assert.Equal(t, int64(36+360+108), stats.Vertices)
	assert.Equal(t, int64(16), stats.UploadedBytes)
}

func TestEndFrameFailureKeepsPreviousStats(t *testing.T) {
	r, rec := newTestRenderer(t)

	require.NoError(t, r.BeginFrame())
	require.NoError(t, r.Draw(0, 36))
	require.NoError(t, r.EndFrame())

	boom := errors.New("device lost")
	rec.FailOn("EndFrame", boom)
	require.NoError(t, r.BeginFrame())
	require.NoError(t, r.Draw(0, 36))
	require.NoError(t, r.Draw(0, 36))
	assert.ErrorIs(t, r.EndFrame(), boom)
	assert.Equal(t, 1, r.LastFrameStats().DrawCommands)

	// A failed EndFrame still closes the frame.
	rec.FailOn("EndFrame", nil)
	require.NoError(t, r.BeginFrame())
}

func TestMultiDrawUnknownHandle(t *testing.T) {
	r, _ := newTestRenderer(t)
	require.NoError(t, r.BeginFrame())
	assert.Error(t, r.MultiDraw(renderer.RangesHandle(42)))
}
