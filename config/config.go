// Package config loads renderer settings from defaults, an optional YAML
// file and GPXMAP_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"gpx_tile_map/tiles"
)

type Config struct {
	Tiles       tiles.FetcherConfig `mapstructure:"tiles"`
	Render      RenderConfig        `mapstructure:"render"`
	Style       string              `mapstructure:"style"`
	Output      string              `mapstructure:"output" default:"output.png" validate:"required"`
	MetricsFile string              `mapstructure:"metrics_file"`
}

type RenderConfig struct {
	Zoom        int           `mapstructure:"zoom" default:"13" validate:"min=0,max=22"`
	ImageWidth  int           `mapstructure:"image_width" default:"2048" validate:"min=1"`
	LineWidth   int           `mapstructure:"line_width" default:"8" validate:"min=1"`
	LineColor   string        `mapstructure:"line_color" default:"#FF0000" validate:"hexcolor"`
	Workers     int           `mapstructure:"workers" validate:"min=0"`
	Strict      bool          `mapstructure:"strict"`
	Attribution string        `mapstructure:"attribution" default:"© OpenStreetMap contributors"`
	Timeout     time.Duration `mapstructure:"timeout" default:"10m" validate:"gte=0"`
}

// keys lists every setting so that viper picks them up from the environment
// even when no config file mentions them.
var keys = []string{
	"tiles.url_template",
	"tiles.cache_root",
	"tiles.timeout",
	"tiles.retry_budget",
	"tiles.backoff",
	"tiles.max_backoff",
	"tiles.user_agent",
	"render.zoom",
	"render.image_width",
	"render.line_width",
	"render.line_color",
	"render.workers",
	"render.strict",
	"render.attribution",
	"render.timeout",
	"style",
	"output",
	"metrics_file",
}

func Default() *Config {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		panic(err)
	}
	return &cfg
}

// Load reads path when given, otherwise gpxmap.yaml in the working
// directory if there is one.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("gpxmap")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	// GPXMAP_TILES_CACHE_ROOT -> tiles.cache_root
	v.SetEnvPrefix("GPXMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if c.Style != "" {
		if _, err := tiles.LookupStyle(c.Style); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}
	return nil
}

// FetcherConfig returns the tile settings with Style, when set, replacing
// the URL template and headers. Call it once every override is in.
func (c *Config) FetcherConfig() (tiles.FetcherConfig, error) {
	fc := c.Tiles
	if c.Style == "" {
		return fc, nil
	}
	if err := fc.UseStyle(c.Style); err != nil {
		return tiles.FetcherConfig{}, err
	}
	return fc, nil
}

// Color parses LineColor, e.g. #FF0000 or #F00.
func (r RenderConfig) Color() (color.Color, error) {
	return ParseHexColor(r.LineColor)
}

func ParseHexColor(s string) (color.Color, error) {
	var r, g, b uint8
	var err error
	switch len(s) {
	case 7:
		_, err = fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b)
	case 4:
		_, err = fmt.Sscanf(s, "#%1x%1x%1x", &r, &g, &b)
		r, g, b = r*17, g*17, b*17
	default:
		err = fmt.Errorf("invalid length %d", len(s))
	}
	if err != nil {
		return color.Black, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}
