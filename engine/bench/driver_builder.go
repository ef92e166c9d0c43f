package bench

import "github.com/charmbracelet/log"

// DriverOption is a functional option for configuring a Driver.
type DriverOption func(*Driver)

// WithFrameHook registers a function called after every successfully presented frame.
//
// Parameters:
//   - hook: the function to call
//
// Returns:
//   - DriverOption: option function to apply
func WithFrameHook(hook FrameHook) DriverOption {
	return func(d *Driver) {
		if hook != nil {
			d.hooks = append(d.hooks, hook)
		}
	}
}

// WithDriverLogger replaces the driver's logger.
func WithDriverLogger(logger *log.Logger) DriverOption {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}
