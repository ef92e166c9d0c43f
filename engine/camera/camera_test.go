package camera

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-drawbench/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func assertMatNear(t *testing.T, want mgl32.Mat4, got [16]float32) {
	t.Helper()
	for i := range 16 {
		assert.InDelta(t, want[i], got[i], 1e-4, "element %d", i)
	}
}

func TestDefaults(t *testing.T) {
	c := NewCamera()
	assert.InDelta(t, common.DegToRad(60), c.Fov(), 1e-6)
	assert.Equal(t, float32(1), c.Near())
	assert.Equal(t, float32(2000), c.Far())

	x, y, z := c.Controller().Position()
	assert.Equal(t, [3]float32{0, 0, 2}, [3]float32{x, y, z})
	assert.False(t, c.Controller().ModelInView())
}

func TestViewFollowsModelInView(t *testing.T) {
	ctrl := NewCameraController()
	c := NewCamera(WithController(ctrl))

	eye := mgl32.Vec3{0, 0, 2}
	up := mgl32.Vec3{0, 1, 0}
	assertMatNear(t, mgl32.LookAtV(eye, mgl32.Vec3{0, 0, 10}, up), c.ViewMatrix())

	ctrl.SetModelInView(true)
	c.Update()
	assertMatNear(t, mgl32.LookAtV(eye, mgl32.Vec3{0, 0, 0}, up), c.ViewMatrix())
}

func TestCameraMatrixIsInverseOfView(t *testing.T) {
	c := NewCamera(WithController(NewCameraController(WithPosition(1, 2, 3), WithModelInView(true))))
	cam := c.CameraMatrix()
	view := c.ViewMatrix()
	var product [16]float32
	common.Mul4(product[:], cam[:], view[:])
	assertMatNear(t, mgl32.Ident4(), product)
}

func TestCombinedMatrix(t *testing.T) {
	c := NewCamera(WithAspect(16.0/9.0), WithController(NewCameraController(WithModelInView(true))))

	vp := c.ViewProjectionMatrix()
	want := mgl32.Mat4(vp).Mul4(mgl32.HomogRotate3DX(-0.4)).Mul4(mgl32.HomogRotate3DY(-0.7))
	assertMatNear(t, want, c.CombinedMatrix(-0.4, -0.7))

	// Zero angles leave the view-projection unchanged.
	assertMatNear(t, mgl32.Mat4(vp), c.CombinedMatrix(0, 0))
}

func TestSetAspectUpdatesProjection(t *testing.T) {
	c := NewCamera()
	c.SetAspect(2)
	p := c.ProjectionMatrix()
	assert.InDelta(t, p[5]/2, p[0], 1e-6)
}

func TestModelInViewCentresCube(t *testing.T) {
	c := NewCamera(WithController(NewCameraController(WithModelInView(true))))
	m := c.CombinedMatrix(0, 0)
	clip := mgl32.Mat4(m).Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	ndc := clip.Vec3().Mul(1 / clip.W())
	assert.InDelta(t, 0, ndc.X(), 1e-5)
	assert.InDelta(t, 0, ndc.Y(), 1e-5)
	assert.True(t, ndc.Z() > 0 && ndc.Z() < 1, "origin depth %v outside [0,1]", ndc.Z())

	// Looking away, the origin falls behind the camera.
	c.Controller().SetModelInView(false)
	c.Update()
	m = c.CombinedMatrix(0, 0)
	clip = mgl32.Mat4(m).Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.Less(t, clip.W(), float32(0))
}
