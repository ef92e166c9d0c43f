package bench

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-drawbench/engine/renderer"
)

// RenderFrame records the draw work of one frame for mode. Geometry, uniforms and the instance
// texture must already be bound; only the submission differs between modes.
//
//   - ModeTextureUpload replaces the full instance texture, then draws the cube once.
//   - ModeInstancing draws the cube InstanceCount times with one instanced draw.
//   - ModeMultiDraw submits the range table, one draw per instance.
//
// Parameters:
//   - r: the renderer with a frame in progress
//   - mode: the draw strategy
//   - res: the shared resources from Setup
//
// Returns:
//   - error: a CapabilityError if mode is disabled for res, ErrUnknownMode for an invalid mode,
//     or the renderer's error
func RenderFrame(r renderer.Renderer, mode Mode, res *Resources) error {
	if mode.Valid() && !res.Enabled(mode) {
		return &CapabilityError{Mode: mode, Feature: mode.Feature()}
	}

	switch mode {
	case ModeTextureUpload:
		if res.RefreshTexture {
			if err := res.Encoder.Refill(res.Pixels); err != nil {
				return err
			}
		}
		if err := r.UploadTexture(res.Texture, res.Pixels); err != nil {
			return err
		}
		return r.Draw(0, res.Geometry.VertexCount)
	case ModeInstancing:
		return r.DrawInstanced(0, res.Geometry.VertexCount, res.InstanceCount)
	case ModeMultiDraw:
		return r.MultiDraw(res.RangesHandle)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownMode, int(mode))
	}
}
