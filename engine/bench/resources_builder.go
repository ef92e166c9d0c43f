package bench

import (
	"github.com/Carmen-Shannon/oxy-drawbench/engine/instance"
	"github.com/charmbracelet/log"
)

// setupConfig collects the SetupOption values.
type setupConfig struct {
	startMode      Mode
	refreshTexture bool
	logger         *log.Logger
	encoderOptions []instance.EncoderBuilderOption
}

// SetupOption is a functional option applied by Setup.
type SetupOption func(*setupConfig)

// WithStartMode sets the mode the first frame will use; Setup fails if the device cannot run it.
//
// Parameters:
//   - mode: the starting mode
//
// Returns:
//   - SetupOption: option function to apply
func WithStartMode(mode Mode) SetupOption {
	return func(c *setupConfig) {
		c.startMode = mode
	}
}

// WithRefreshTexture selects whether TextureUpload frames regenerate the instance bytes (true) or
// re-upload the bytes generated at startup (false).
//
// Parameters:
//   - refresh: whether to regenerate the bytes every frame
//
// Returns:
//   - SetupOption: option function to apply
func WithRefreshTexture(refresh bool) SetupOption {
	return func(c *setupConfig) {
		c.refreshTexture = refresh
	}
}

// WithSetupLogger replaces the logger used for startup diagnostics.
func WithSetupLogger(logger *log.Logger) SetupOption {
	return func(c *setupConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithEncoderOptions forwards options to the instance encoder.
func WithEncoderOptions(options ...instance.EncoderBuilderOption) SetupOption {
	return func(c *setupConfig) {
		c.encoderOptions = append(c.encoderOptions, options...)
	}
}
