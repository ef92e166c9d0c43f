package renderer

import (
	"sync"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestDeviceFeaturesRequestsMultiDrawWhenSupported(t *testing.T) {
	var asked []wgpu.FeatureName
	features := deviceFeatures(func(f wgpu.FeatureName) bool {
		asked = append(asked, f)
		return true
	})
	assert.Equal(t, []wgpu.FeatureName{wgpu.NativeFeatureMultiDrawIndirect}, features)
	assert.Equal(t, []wgpu.FeatureName{wgpu.NativeFeatureMultiDrawIndirect}, asked)
}

func TestDeviceFeaturesWithoutMultiDraw(t *testing.T) {
	features := deviceFeatures(func(wgpu.FeatureName) bool { return false })
	assert.Empty(t, features)

	b := &wgpuRendererBackendImpl{mu: &sync.Mutex{}, multiDraw: len(features) > 0}
	caps := b.Capabilities()
	assert.False(t, caps.MultiDraw)
	assert.True(t, caps.Instancing)
	assert.Error(t, b.MultiDraw(1))
}
