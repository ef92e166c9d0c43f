package bench

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-drawbench/common"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/geometry"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/instance"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/multidraw"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/renderer"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/renderer/shader"
	"github.com/charmbracelet/log"
)

// Resources are the mode-independent objects built once before the first frame.
// Switching modes never rebuilds any of them.
type Resources struct {
	// InstanceCount is N.
	InstanceCount int
	// Geometry holds the uploaded cube buffers.
	Geometry *geometry.Store
	// Encoder produces the instance texture content.
	Encoder instance.Encoder
	// Pixels is the CPU copy of the instance texture, rewritten in place on refresh.
	Pixels []byte
	// Texture is the GPU instance texture.
	Texture renderer.TextureHandle
	// RefreshTexture regenerates Pixels before every TextureUpload frame.
	RefreshTexture bool
	// Ranges is the multi-draw range table.
	Ranges *multidraw.Table
	// RangesHandle is the uploaded table; zero when multi-draw is disabled.
	RangesHandle renderer.RangesHandle

	enabled [len(modeNames)]bool
}

// Enabled reports whether m can run on the device the resources were built for.
func (res *Resources) Enabled(m Mode) bool {
	return m.Valid() && res.enabled[m]
}

// EnabledModes lists the runnable modes in declaration order.
func (res *Resources) EnabledModes() []Mode {
	var out []Mode
	for _, m := range Modes() {
		if res.enabled[m] {
			out = append(out, m)
		}
	}
	return out
}

// Setup builds the Resources for n instances on r: it registers the shader program, uploads the
// cube, creates the instance texture and, when the device supports multi-draw, the range table.
// Modes whose capability is missing are disabled. The configured start mode must be enabled.
//
// Parameters:
//   - r: the renderer that owns every GPU resource
//   - n: the instance count (must be > 0)
//   - options: variadic list of SetupOption functions
//
// Returns:
//   - *Resources: the assembled resources
//   - error: a CapabilityError if the start mode is unsupported, or an error wrapping ErrAllocation
func Setup(r renderer.Renderer, n int, options ...SetupOption) (_ *Resources, err error) {
	cfg := &setupConfig{
		startMode:      ModeTextureUpload,
		refreshTexture: true,
		logger:         common.Logger().WithPrefix("bench"),
	}
	for _, opt := range options {
		opt(cfg)
	}
	if !cfg.startMode.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(cfg.startMode))
	}

	caps := r.Capabilities()
	res := &Resources{InstanceCount: n, RefreshTexture: cfg.refreshTexture}
	res.enabled[ModeTextureUpload] = true
	res.enabled[ModeInstancing] = caps.Instancing
	res.enabled[ModeMultiDraw] = caps.MultiDraw
	for _, m := range Modes() {
		if !res.enabled[m] {
			cfg.logger.Warn("mode disabled", "mode", m, "missing", m.Feature())
		}
	}
	if !res.enabled[cfg.startMode] {
		return nil, &CapabilityError{Mode: cfg.startMode, Feature: cfg.startMode.Feature()}
	}

	if err := r.RegisterProgram(shader.TexturedCube()); err != nil {
		return nil, fmt.Errorf("%w: register program: %w", ErrAllocation, err)
	}

	store, err := geometry.NewStore(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAllocation, err)
	}
	res.Geometry = store

	enc, err := instance.NewEncoder(n, cfg.encoderOptions...)
	if err != nil {
		return nil, err
	}
	res.Encoder = enc
	defer func() {
		if err != nil {
			enc.Close()
		}
	}()
	if limit := caps.MaxTextureDimension; limit > 0 && uint32(enc.Side()) > limit {
		return nil, fmt.Errorf("%w: instance texture side %d exceeds device limit %d", ErrAllocation, enc.Side(), limit)
	}

	staging := enc.Encode()
	res.Pixels = staging.Pixels
	tex, err := r.CreateTexture("Instance Texture", staging)
	if err != nil {
		return nil, fmt.Errorf("%w: instance texture: %w", ErrAllocation, err)
	}
	res.Texture = tex

	table, err := multidraw.NewTable(n, 0, int32(store.VertexCount))
	if err != nil {
		return nil, err
	}
	res.Ranges = table
	if res.enabled[ModeMultiDraw] {
		h, err := r.CreateDrawRanges("Multi-Draw Ranges", table.Starts(), table.Counts())
		if err != nil {
			return nil, fmt.Errorf("%w: range table: %w", ErrAllocation, err)
		}
		res.RangesHandle = h
	}

	logDiagnostics(cfg.logger, res)
	return res, nil
}

// Close stops the encoder's worker pool. GPU objects belong to the renderer and are freed by
// its Release.
func (res *Resources) Close() {
	if res.Encoder != nil {
		res.Encoder.Close()
	}
}

func logDiagnostics(logger *log.Logger, res *Resources) {
	starts, counts := res.Ranges.ByteSizes()
	logger.Info("instance count", "n", res.InstanceCount)
	logger.Info("instance texture", "side", res.Encoder.Side(), "size", megabytes(res.Encoder.ByteSize()))
	logger.Info("multi-draw starts", "size", megabytes(starts))
	logger.Info("multi-draw counts", "size", megabytes(counts))
	logger.Info("vertices per frame", "n", res.Ranges.TotalVertices())
	logger.Info("modes enabled", "modes", fmt.Sprint(res.EnabledModes()))
}

// megabytes formats a byte count in decimal megabytes with three decimals.
func megabytes(n int) string {
	return fmt.Sprintf("%.3f MB", float64(n)*1e-6)
}
