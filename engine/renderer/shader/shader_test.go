package shader

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformsLayout(t *testing.T) {
	u := Uniforms{TextureUnit: 3}
	for i := range u.Matrix {
		u.Matrix[i] = float32(i) + 0.5
	}

	assert.Equal(t, 80, u.Size())

	buf := u.Marshal()
	require.Len(t, buf, 80)
	assert.Equal(t, float32(5.5), math.Float32frombits(binary.LittleEndian.Uint32(buf[20:24])))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(buf[64:68]))
	assert.Equal(t, make([]byte, 12), buf[68:])
}

func TestTexturedCubeEntryPoints(t *testing.T) {
	p := TexturedCube()
	assert.Contains(t, p.Source, "fn "+p.VertexEntry+"(")
	assert.Contains(t, p.Source, "fn "+p.FragmentEntry+"(")
	assert.Contains(t, p.Source, "@group(0) @binding(0) var<uniform>")
}
