package camera

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithPosition sets the eye position.
//
// Parameters:
//   - x: X coordinate of the eye
//   - y: Y coordinate of the eye
//   - z: Z coordinate of the eye
//
// Returns:
//   - CameraControllerOption: functional option to set the position
func WithPosition(x, y, z float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.position = [3]float32{x, y, z}
	}
}

// WithTargets sets the two look-at points the controller switches between.
//
// Parameters:
//   - model: the target used while the model is in view
//   - away: the target used otherwise
//
// Returns:
//   - CameraControllerOption: functional option to set both targets
func WithTargets(model, away [3]float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.modelTarget = model
		cc.awayTarget = away
	}
}

// WithModelInView sets the initial aim.
//
// Parameters:
//   - inView: true to start aimed at the model
//
// Returns:
//   - CameraControllerOption: functional option to set the initial aim
func WithModelInView(inView bool) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.modelInView = inView
	}
}
