package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-drawbench/common"
)

// cameraImpl is the implementation of the Camera interface.
type cameraImpl struct {
	mu *sync.Mutex

	up [3]float32

	fov    float32
	aspect float32
	near   float32
	far    float32

	cameraMatrix         [16]float32
	viewMatrix           [16]float32
	projectionMatrix     [16]float32
	viewProjectionMatrix [16]float32

	controller CameraController
}

// Camera holds the projection parameters and derives the per-frame transform matrices.
// All matrices are column-major.
type Camera interface {
	// Up returns the up vector.
	Up() (x, y, z float32)

	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns the viewport aspect ratio (width / height).
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// CameraMatrix returns the camera's placement in world space (the inverse of the view matrix).
	CameraMatrix() [16]float32

	// ViewMatrix returns the world-to-camera transform.
	ViewMatrix() [16]float32

	// ProjectionMatrix returns the perspective projection.
	ProjectionMatrix() [16]float32

	// ViewProjectionMatrix returns projection * view.
	ViewProjectionMatrix() [16]float32

	// CombinedMatrix returns projection * view * Rx(angleX) * Ry(angleY), the single transform
	// applied to every instance.
	//
	// Parameters:
	//   - angleX: model rotation around X in radians
	//   - angleY: model rotation around Y in radians
	//
	// Returns:
	//   - [16]float32: the combined matrix
	CombinedMatrix(angleX, angleY float32) [16]float32

	// Controller returns the controller that places the camera.
	Controller() CameraController

	// Update recomputes all matrices from the controller's current position and target.
	Update()

	SetFov(fov float32)
	SetAspect(aspect float32)
	SetNear(near float32)
	SetFar(far float32)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera with a 60 degree field of view, near plane 1, far plane 2000
// and a default CameraController, then applies the options.
//
// Parameters:
//   - options: variadic list of CameraBuilderOption functions to configure the Camera
//
// Returns:
//   - Camera: the configured camera with matrices already computed
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:         &sync.Mutex{},
		up:         [3]float32{0, 1, 0},
		fov:        60.0 * (math.Pi / 180.0), // radians
		aspect:     1.0,
		near:       1,
		far:        2000,
		controller: NewCameraController(),
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Up() (x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up[0], c.up[1], c.up[2]
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) CameraMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cameraMatrix
}

func (c *cameraImpl) ViewMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) CombinedMatrix(angleX, angleY float32) [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var m [16]float32
	common.XRotate(m[:], c.viewProjectionMatrix[:], angleX)
	common.YRotate(m[:], m[:], angleY)
	return m
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateMatrices()
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetNear(near float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.updateMatrices()
}

func (c *cameraImpl) SetFar(far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.far = far
	c.updateMatrices()
}

// updateMatrices recomputes every matrix. Caller holds c.mu.
func (c *cameraImpl) updateMatrices() {
	if c.controller == nil {
		return
	}

	px, py, pz := c.controller.Position()
	tx, ty, tz := c.controller.Target()

	common.CameraLookAt(c.cameraMatrix[:], [3]float32{px, py, pz}, [3]float32{tx, ty, tz}, c.up)
	common.Invert4(c.viewMatrix[:], c.cameraMatrix[:])
	common.Perspective(c.projectionMatrix[:], c.fov, c.aspect, c.near, c.far)
	common.Mul4(c.viewProjectionMatrix[:], c.projectionMatrix[:], c.viewMatrix[:])
}
