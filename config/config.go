// Package config loads the benchmark configuration from a TOML file layered over defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/Carmen-Shannon/oxy-drawbench/common"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/bench"
	"github.com/pelletier/go-toml/v2"
)

// DefaultTitle is the window title used when none is configured.
const DefaultTitle = "oxy drawbench"

// Present modes accepted by RendererConfig.PresentMode.
const (
	PresentModeUncapped = "uncapped"
	PresentModeVSync    = "vsync"
)

// Config is the full benchmark configuration.
type Config struct {
	// InstanceCount is N. It cannot change after startup.
	InstanceCount int `toml:"instance_count"`
	// Mode is the draw strategy the benchmark starts in.
	Mode bench.Mode `toml:"mode"`
	// ModelInView aims the camera at the cubes.
	ModelInView bool `toml:"model_in_view"`
	// RefreshTexture regenerates the instance bytes on every TextureUpload frame.
	RefreshTexture bool `toml:"refresh_texture"`
	// Seed fixes the instance byte stream; 0 picks a time-based seed.
	Seed uint64 `toml:"seed"`
	// FillWorkers is the number of goroutines filling the instance texture; 0 picks NumCPU-1.
	FillWorkers int `toml:"fill_workers"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`
	// Profiling logs frame statistics every second.
	Profiling bool `toml:"profiling"`
	// Watch reloads Mode and ModelInView when the file changes.
	Watch bool `toml:"watch"`

	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Camera   CameraConfig   `toml:"camera"`
}

// WindowConfig sizes the window.
type WindowConfig struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

// RendererConfig selects surface and device options.
type RendererConfig struct {
	PresentMode   string `toml:"present_mode"`
	MSAA          int    `toml:"msaa"`
	ForceSoftware bool   `toml:"force_software"`
}

// CameraConfig holds the projection parameters.
type CameraConfig struct {
	FovDegrees float32 `toml:"fov_degrees"`
	Near       float32 `toml:"near"`
	Far        float32 `toml:"far"`
}

// Live is the subset of the configuration that may change while the benchmark runs.
type Live struct {
	Mode        bench.Mode
	ModelInView bool
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		InstanceCount:  500000,
		Mode:           bench.ModeTextureUpload,
		RefreshTexture: true,
		LogLevel:       "info",
		Profiling:      true,
		Watch:          true,
		Window: WindowConfig{
			Title:  DefaultTitle,
			Width:  1280,
			Height: 720,
		},
		Renderer: RendererConfig{
			PresentMode: PresentModeUncapped,
			MSAA:        1,
		},
		Camera: CameraConfig{
			FovDegrees: 60,
			Near:       1,
			Far:        2000,
		},
	}
}

// Live returns the hot-reloadable part of c.
func (c Config) Live() Live {
	return Live{Mode: c.Mode, ModelInView: c.ModelInView}
}

// Load reads the TOML file at path over Default and validates the result. Unknown keys are an
// error. An empty path returns the defaults.
//
// Parameters:
//   - path: the configuration file, or ""
//
// Returns:
//   - Config: the loaded configuration
//   - error: an error if the file cannot be read, decoded or validated
func Load(path string) (Config, error) {
	if path == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML data over Default and validates the result.
//
// Parameters:
//   - data: the TOML document
//
// Returns:
//   - Config: the decoded configuration
//   - error: an error if decoding or validation fails
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("unknown config keys:\n%s", strict.String())
		}
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Window.Title = common.Coalesce(cfg.Window.Title, DefaultTitle)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Encode renders c as TOML.
func (c Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// Validate checks every field's range.
func (c Config) Validate() error {
	var errs []error
	if c.InstanceCount <= 0 {
		errs = append(errs, fmt.Errorf("instance_count must be positive, got %d", c.InstanceCount))
	}
	if !c.Mode.Valid() {
		errs = append(errs, fmt.Errorf("mode: %w: %d", bench.ErrUnknownMode, int(c.Mode)))
	}
	if c.FillWorkers < 0 {
		errs = append(errs, fmt.Errorf("fill_workers must not be negative, got %d", c.FillWorkers))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel))
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height))
	}
	switch c.Renderer.PresentMode {
	case PresentModeUncapped, PresentModeVSync:
	default:
		errs = append(errs, fmt.Errorf("renderer.present_mode must be %q or %q, got %q",
			PresentModeUncapped, PresentModeVSync, c.Renderer.PresentMode))
	}
	if c.Renderer.MSAA != 1 && c.Renderer.MSAA != 4 {
		errs = append(errs, fmt.Errorf("renderer.msaa must be 1 or 4, got %d", c.Renderer.MSAA))
	}
	if c.Camera.FovDegrees <= 0 || c.Camera.FovDegrees >= 180 {
		errs = append(errs, fmt.Errorf("camera.fov_degrees must be in (0, 180), got %g", c.Camera.FovDegrees))
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		errs = append(errs, fmt.Errorf("camera planes must satisfy 0 < near < far, got near %g far %g", c.Camera.Near, c.Camera.Far))
	}
	return errors.Join(errs...)
}
