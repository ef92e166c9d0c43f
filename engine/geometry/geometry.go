// Package geometry holds the static cube mesh drawn by every render mode.
package geometry

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-drawbench/common"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/renderer"
)

// VertexCount is the number of vertices in the cube: 6 faces x 2 triangles x 3 vertices.
const VertexCount = 36

// cubePositions is a unit cube centred on the origin, 3 floats per vertex.
// Triangles wind counter-clockwise when seen from outside the cube.
var cubePositions = [VertexCount * 3]float32{
	// -Z
	-0.5, -0.5, -0.5,
	-0.5, 0.5, -0.5,
	0.5, -0.5, -0.5,
	-0.5, 0.5, -0.5,
	0.5, 0.5, -0.5,
	0.5, -0.5, -0.5,

	// +Z
	-0.5, -0.5, 0.5,
	0.5, -0.5, 0.5,
	-0.5, 0.5, 0.5,
	-0.5, 0.5, 0.5,
	0.5, -0.5, 0.5,
	0.5, 0.5, 0.5,

	// +Y
	-0.5, 0.5, -0.5,
	-0.5, 0.5, 0.5,
	0.5, 0.5, -0.5,
	-0.5, 0.5, 0.5,
	0.5, 0.5, 0.5,
	0.5, 0.5, -0.5,

	// -Y
	-0.5, -0.5, -0.5,
	0.5, -0.5, -0.5,
	-0.5, -0.5, 0.5,
	-0.5, -0.5, 0.5,
	0.5, -0.5, -0.5,
	0.5, -0.5, 0.5,

	// -X
	-0.5, -0.5, -0.5,
	-0.5, -0.5, 0.5,
	-0.5, 0.5, -0.5,
	-0.5, -0.5, 0.5,
	-0.5, 0.5, 0.5,
	-0.5, 0.5, -0.5,

	// +X
	0.5, -0.5, -0.5,
	0.5, 0.5, -0.5,
	0.5, -0.5, 0.5,
	0.5, -0.5, 0.5,
	0.5, 0.5, -0.5,
	0.5, 0.5, 0.5,
}

// cubeTexcoords maps each face onto the full texture, 2 floats per vertex.
var cubeTexcoords = [VertexCount * 2]float32{
	0, 0, 0, 1, 1, 0, 0, 1, 1, 1, 1, 0,
	0, 0, 0, 1, 1, 0, 1, 0, 0, 1, 1, 1,
	0, 0, 0, 1, 1, 0, 0, 1, 1, 1, 1, 0,
	0, 0, 0, 1, 1, 0, 1, 0, 0, 1, 1, 1,
	0, 0, 0, 1, 1, 0, 0, 1, 1, 1, 1, 0,
	0, 0, 0, 1, 1, 0, 1, 0, 0, 1, 1, 1,
}

// CubePositions returns a copy of the cube's vertex positions (x, y, z per vertex).
func CubePositions() []float32 {
	out := make([]float32, len(cubePositions))
	copy(out, cubePositions[:])
	return out
}

// CubeTexcoords returns a copy of the cube's texture coordinates (u, v per vertex).
func CubeTexcoords() []float32 {
	out := make([]float32, len(cubeTexcoords))
	copy(out, cubeTexcoords[:])
	return out
}

// Store is the cube mesh after upload. Its buffers are immutable for the life of the renderer.
type Store struct {
	Positions   renderer.BufferHandle
	Texcoords   renderer.BufferHandle
	VertexCount int
}

// NewStore uploads the cube positions and texture coordinates as two vertex buffers.
//
// Parameters:
//   - r: the renderer that owns the buffers
//
// Returns:
//   - *Store: handles to the uploaded buffers
//   - error: an error if either buffer could not be created
func NewStore(r renderer.Renderer) (*Store, error) {
	pos, err := r.CreateVertexBuffer("Cube Positions", common.SliceToBytes(cubePositions[:]))
	if err != nil {
		return nil, fmt.Errorf("upload cube positions: %w", err)
	}
	tex, err := r.CreateVertexBuffer("Cube Texcoords", common.SliceToBytes(cubeTexcoords[:]))
	if err != nil {
		return nil, fmt.Errorf("upload cube texcoords: %w", err)
	}
	return &Store{Positions: pos, Texcoords: tex, VertexCount: VertexCount}, nil
}
