package config

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 13, cfg.Render.Zoom)
	assert.Equal(t, 2048, cfg.Render.ImageWidth)
	assert.Equal(t, 8, cfg.Render.LineWidth)
	assert.Equal(t, "#FF0000", cfg.Render.LineColor)
	assert.Equal(t, "output.png", cfg.Output)
	assert.Equal(t, 5, cfg.Tiles.RetryBudget)
	assert.Equal(t, 3*time.Second, cfg.Tiles.Timeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gpxmap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tiles:
  url_template: http://tiles.example.org/cycle/{z}/{x}/{y}.png
  cache_root: /var/cache/gpxmap
  timeout: 5s
render:
  zoom: 15
  line_color: "#00F"
output: rides.png
`), 0644))
	t.Setenv("GPXMAP_RENDER_IMAGE_WIDTH", "4096")
	t.Setenv("GPXMAP_TILES_RETRY_BUDGET", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://tiles.example.org/cycle/{z}/{x}/{y}.png", cfg.Tiles.URLTemplate)
	assert.Equal(t, "/var/cache/gpxmap", cfg.Tiles.CacheRoot)
	assert.Equal(t, 5*time.Second, cfg.Tiles.Timeout)
	assert.Equal(t, 7, cfg.Tiles.RetryBudget)
	assert.Equal(t, 15, cfg.Render.Zoom)
	assert.Equal(t, 4096, cfg.Render.ImageWidth)
	assert.Equal(t, 8, cfg.Render.LineWidth, "untouched settings keep their default")
	assert.Equal(t, "rides.png", cfg.Output)

	c, err := cfg.Render.Color()
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{B: 255, A: 255}, c)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gpxmap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("render:\n  zoom: 30\n"), 0644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "Zoom")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_Style(t *testing.T) {
	t.Setenv("GPXMAP_STYLE", "cyclosm")
	t.Setenv("GPXMAP_TILES_CACHE_ROOT", "/tmp/tiles")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "cyclosm", cfg.Style)
	assert.Equal(t, "/tmp/tiles", cfg.Tiles.CacheRoot)

	fc, err := cfg.FetcherConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://c.tile-cyclosm.openstreetmap.fr/cyclosm/{z}/{x}/{y}.png", fc.URLTemplate)
	assert.Equal(t, filepath.Join("/tmp/tiles", "c.tile-cyclosm.openstreetmap.fr", "cyclosm"), fc.CacheDir())

	again, err := cfg.FetcherConfig()
	require.NoError(t, err)
	assert.Equal(t, fc.CacheDir(), again.CacheDir(), "resolving twice does not nest directories")
	assert.Equal(t, "/tmp/tiles", cfg.Tiles.CacheRoot)

	t.Setenv("GPXMAP_STYLE", "watercolor")
	_, err = Load("")
	assert.ErrorContains(t, err, "unknown map style")
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.Color
		wantErr bool
	}{
		{in: "#FF0000", want: color.RGBA{R: 255, A: 255}},
		{in: "#ff9800", want: color.RGBA{R: 255, G: 152, A: 255}},
		{in: "#0F0", want: color.RGBA{G: 255, A: 255}},
		{in: "red", wantErr: true},
		{in: "#12345", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHexColor(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
