// Package shader holds the WGSL program and the CPU-side layout of its uniform block.
package shader

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// TexturedCubeSource is the WGSL program that draws the cube with the instance-data texture.
// Group 0 holds the Uniforms block (binding 0), the texture (binding 1) and its sampler (binding 2).
//
//go:embed assets/textured_cube.wgsl
var TexturedCubeSource string

// Vertex attribute locations consumed by TexturedCubeSource.
const (
	PositionLocation = 0
	TexcoordLocation = 1
)

// Bind group 0 binding indices consumed by TexturedCubeSource.
const (
	UniformBinding = 0
	TextureBinding = 1
	SamplerBinding = 2
)

// Program is a linked vertex/fragment pair ready to be turned into a render pipeline.
type Program struct {
	// Label names the program in backend debug output.
	Label string
	// Source is the WGSL module containing both entry points.
	Source string
	// VertexEntry is the name of the @vertex function.
	VertexEntry string
	// FragmentEntry is the name of the @fragment function.
	FragmentEntry string
}

// TexturedCube returns the program used by every render mode.
func TexturedCube() Program {
	return Program{
		Label:         "Textured Cube",
		Source:        TexturedCubeSource,
		VertexEntry:   "vs_main",
		FragmentEntry: "fs_main",
	}
}

// Uniforms is the GPU-aligned representation of the WGSL Uniforms struct.
// Size: 80 bytes (mat4x4 at offset 0, i32 at offset 64, struct padded to 16-byte alignment).
type Uniforms struct {
	Matrix      [16]float32 // offset  0: combined projection * view * model rotation, column-major
	TextureUnit int32       // offset 64: texture unit the sampler reads from
	_           [3]int32    // offset 68: padding to 80 bytes
}

// Size returns the size of the Uniforms struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (u *Uniforms) Size() int {
	return int(unsafe.Sizeof(*u))
}

// Marshal serializes the Uniforms struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 80-byte buffer ready for GPU upload.
func (u *Uniforms) Marshal() []byte {
	buf := make([]byte, 80)
	for i, v := range u.Matrix {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(v))
	}
	binary.LittleEndian.PutUint32(buf[64:68], uint32(u.TextureUnit))
	return buf
}
