package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-drawbench/engine/bench"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 500000, cfg.InstanceCount)
	assert.Equal(t, bench.ModeTextureUpload, cfg.Mode)
	assert.True(t, cfg.RefreshTexture)
	assert.Equal(t, float32(60), cfg.Camera.FovDegrees)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
instance_count = 6
mode = "multi_draw"
model_in_view = true
seed = 42

[window]
title = ""
width = 800

[renderer]
present_mode = "vsync"
msaa = 4
`))
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.InstanceCount)
	assert.Equal(t, bench.ModeMultiDraw, cfg.Mode)
	assert.True(t, cfg.ModelInView)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, DefaultTitle, cfg.Window.Title)
	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height)
	assert.Equal(t, PresentModeVSync, cfg.Renderer.PresentMode)
	assert.Equal(t, 4, cfg.Renderer.MSAA)
	assert.Equal(t, Live{Mode: bench.ModeMultiDraw, ModelInView: true}, cfg.Live())
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"unknown key":    `instances = 5`,
		"unknown mode":   `mode = "wireframe"`,
		"zero instances": `instance_count = 0`,
		"bad msaa":       "[renderer]\nmsaa = 2",
		"bad present":    "[renderer]\npresent_mode = \"mailbox\"",
		"bad planes":     "[camera]\nnear = 10\nfar = 5",
		"bad level":      `log_level = "trace"`,
		"bad workers":    `fill_workers = -1`,
		"not toml":       `instance_count = = 1`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestEncodeRoundTrips(t *testing.T) {
	cfg := Default()
	cfg.Mode = bench.ModeInstancing
	data, err := cfg.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(data), "instancing")

	back, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestWatchReportsLiveChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bench.toml")
	require.NoError(t, os.WriteFile(path, []byte(`mode = "texture_upload"`), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan Live, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, Live{Mode: bench.ModeTextureUpload}, func(l Live) { changes <- l })
	}()

	want := Live{Mode: bench.ModeInstancing, ModelInView: true}
	assert.Eventually(t, func() bool {
		// Rewrite until the watcher has registered and picked up the change.
		_ = os.WriteFile(path, []byte("mode = \"instancing\"\nmodel_in_view = true\n"), 0o644)
		select {
		case got := <-changes:
			return got == want
		default:
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestSampleConfigMatchesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "examples", "drawbench.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSmallSampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "examples", "small.toml"))
	require.NoError(t, err)
	assert.Equal(t, 10000, cfg.InstanceCount)
	assert.Equal(t, bench.ModeInstancing, cfg.Mode)
	assert.Equal(t, uint64(1), cfg.Seed)
}
