package geometry

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-drawbench/engine/renderer"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/renderer/renderertest"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCubeShape(t *testing.T) {
	pos := CubePositions()
	tex := CubeTexcoords()
	require.Len(t, pos, VertexCount*3)
	require.Len(t, tex, VertexCount*2)

	for i, v := range pos {
		assert.Equal(t, float32(0.5), float32(math.Abs(float64(v))), "position component %d", i)
	}
	for i, v := range tex {
		assert.True(t, v == 0 || v == 1, "texcoord component %d = %v", i, v)
	}
}

func TestCubeTrianglesFaceOutward(t *testing.T) {
	pos := CubePositions()
	vertex := func(i int) mgl32.Vec3 {
		return mgl32.Vec3{pos[i*3], pos[i*3+1], pos[i*3+2]}
	}
	for tri := 0; tri < VertexCount/3; tri++ {
		a, b, c := vertex(tri*3), vertex(tri*3+1), vertex(tri*3+2)
		normal := b.Sub(a).Cross(c.Sub(a))
		centroid := a.Add(b).Add(c).Mul(1.0 / 3.0)
		assert.Greater(t, normal.Dot(centroid), float32(0), "triangle %d winds inward", tri)
	}
}

func TestCopiesAreIndependent(t *testing.T) {
	p := CubePositions()
	p[0] = 42
	assert.Equal(t, float32(-0.5), CubePositions()[0])
}

func TestNewStoreUploadsBuffers(t *testing.T) {
	rec := renderertest.NewRecorder()
	r, err := renderer.NewRendererWithBackend(rec, 1, 1)
	require.NoError(t, err)

	s, err := NewStore(r)
	require.NoError(t, err)
	assert.Equal(t, VertexCount, s.VertexCount)

	posBytes := rec.Buffer(s.Positions)
	require.Len(t, posBytes, VertexCount*3*4)
	assert.Equal(t, float32(-0.5), math.Float32frombits(binary.LittleEndian.Uint32(posBytes[0:4])))
	assert.Len(t, rec.Buffer(s.Texcoords), VertexCount*2*4)
}

func TestNewStoreFailure(t *testing.T) {
	rec := renderertest.NewRecorder()
	r, err := renderer.NewRendererWithBackend(rec, 1, 1)
	require.NoError(t, err)
	rec.FailOn("CreateVertexBuffer", assert.AnError)

	_, err = NewStore(r)
	assert.ErrorIs(t, err, assert.AnError)
}
