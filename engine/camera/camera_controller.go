package camera

import "sync"

// Default camera placement: the eye sits just in front of the cube, looking either at it or
// straight past it down +Z.
var (
	DefaultPosition    = [3]float32{0, 0, 2}
	DefaultModelTarget = [3]float32{0, 0, 0}
	DefaultAwayTarget  = [3]float32{0, 0, 10}
)

// cameraControllerImpl is the implementation of the CameraController interface.
type cameraControllerImpl struct {
	mu *sync.Mutex

	position    [3]float32
	modelTarget [3]float32
	awayTarget  [3]float32
	modelInView bool
}

// CameraController places the camera. The eye is fixed; the target switches between the model
// and a point behind it, which decides whether the drawn geometry is on screen.
type CameraController interface {
	// Position returns the eye position.
	//
	// Returns:
	//   - x, y, z: world-space eye coordinates
	Position() (x, y, z float32)

	// Target returns the point currently looked at, which depends on ModelInView.
	//
	// Returns:
	//   - x, y, z: world-space target coordinates
	Target() (x, y, z float32)

	// SetPosition moves the eye.
	SetPosition(x, y, z float32)

	// ModelInView reports whether the camera is aimed at the model.
	ModelInView() bool

	// SetModelInView aims the camera at the model (true) or away from it (false).
	SetModelInView(inView bool)
}

var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a controller at DefaultPosition aimed away from the model.
//
// Parameters:
//   - options: variadic list of CameraControllerOption functions to configure the controller
//
// Returns:
//   - CameraController: the configured controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:          &sync.Mutex{},
		position:    DefaultPosition,
		modelTarget: DefaultModelTarget,
		awayTarget:  DefaultAwayTarget,
	}
	for _, opt := range options {
		opt(cc)
	}
	return cc
}

func (cc *cameraControllerImpl) Position() (x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position[0], cc.position[1], cc.position[2]
}

func (cc *cameraControllerImpl) Target() (x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	t := cc.awayTarget
	if cc.modelInView {
		t = cc.modelTarget
	}
	return t[0], t[1], t[2]
}

func (cc *cameraControllerImpl) SetPosition(x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.position = [3]float32{x, y, z}
}

func (cc *cameraControllerImpl) ModelInView() bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.modelInView
}

func (cc *cameraControllerImpl) SetModelInView(inView bool) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.modelInView = inView
}
