package tiles

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/paulmach/orb/maptile"
	"golang.org/x/sync/singleflight"

	"gpx_tile_map/metrics"
)

// FetcherConfig describes where tiles come from and how hard to try.
type FetcherConfig struct {
	URLTemplate string            `mapstructure:"url_template" default:"https://tile.openstreetmap.org/{z}/{x}/{y}.png" validate:"required,startswith=http"`
	CacheRoot   string            `mapstructure:"cache_root" default:"cache" validate:"required"`
	Timeout     time.Duration     `mapstructure:"timeout" default:"3s" validate:"gt=0"`
	RetryBudget int               `mapstructure:"retry_budget" default:"5" validate:"min=1"`
	Backoff     time.Duration     `mapstructure:"backoff" default:"200ms" validate:"gte=0"`
	MaxBackoff  time.Duration     `mapstructure:"max_backoff" default:"2s" validate:"gte=0"`
	UserAgent   string            `mapstructure:"user_agent" default:"gpxmap/0.1"`
	Headers     map[string]string `mapstructure:"headers"`
}

func DefaultFetcherConfig() FetcherConfig {
	var cfg FetcherConfig
	if err := defaults.Set(&cfg); err != nil {
		panic(err)
	}
	return cfg
}

// CacheDir is the directory under CacheRoot that holds the tiles of
// URLTemplate: its host and the path up to the first placeholder, e.g.
// cache/tiles.stadiamaps.com/tiles/stamen_toner.
func (c FetcherConfig) CacheDir() string {
	src := c.URLTemplate
	if i := strings.Index(src, "://"); i >= 0 {
		src = src[i+3:]
	}
	if i := strings.IndexAny(src, "{?#"); i >= 0 {
		src = src[:i]
	}
	src = strings.NewReplacer(":", "_", "@", "_", "..", "_").Replace(strings.Trim(src, "/"))
	return filepath.Join(c.CacheRoot, filepath.FromSlash(src))
}

func (c FetcherConfig) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return validate.Struct(c)
}

// Fetcher resolves tiles from its cache or, failing that, from the tile
// server. It is safe for concurrent use.
type Fetcher struct {
	cfg     FetcherConfig
	client  *http.Client
	cache   Cache
	metrics *metrics.Metrics
	logger  *log.Logger
	group   singleflight.Group
}

type FetcherOption func(*Fetcher)

// WithCache replaces the default DiskCache rooted at FetcherConfig.CacheDir.
func WithCache(c Cache) FetcherOption {
	return func(f *Fetcher) { f.cache = c }
}

func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) { f.client = c }
}

func WithMetrics(m *metrics.Metrics) FetcherOption {
	return func(f *Fetcher) { f.metrics = m }
}

func WithLogger(l *log.Logger) FetcherOption {
	return func(f *Fetcher) { f.logger = l }
}

func NewFetcher(cfg FetcherConfig, opts ...FetcherOption) (*Fetcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fetcher config: %w", err)
	}
	f := &Fetcher{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 16,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		cache:  NewDiskCache(cfg.CacheDir()),
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// URL expands the {z}, {x} and {y} placeholders of the URL template.
func (f *Fetcher) URL(tile maptile.Tile) string {
	return strings.NewReplacer(
		"{z}", strconv.Itoa(int(tile.Z)),
		"{x}", strconv.FormatUint(uint64(tile.X), 10),
		"{y}", strconv.FormatUint(uint64(tile.Y), 10),
	).Replace(f.cfg.URLTemplate)
}

// Fetch returns the decoded image of tile. A cached tile is returned without
// touching the network. Otherwise the tile is downloaded with up to
// RetryBudget attempts and stored in the cache before it is returned.
// Concurrent calls for the same tile share a single download.
func (f *Fetcher) Fetch(ctx context.Context, tile maptile.Tile) (image.Image, error) {
	defer f.metrics.ObserveFetch(time.Now())

	v, err, _ := f.group.Do(tileString(tile), func() (interface{}, error) {
		return f.fetch(ctx, tile)
	})
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

func (f *Fetcher) fetch(ctx context.Context, tile maptile.Tile) (image.Image, error) {
	if img, ok := f.cached(ctx, tile); ok {
		f.metrics.CacheHit()
		return img, nil
	}

	var lastErr error
	delay := f.cfg.Backoff
	for attempt := 1; attempt <= f.cfg.RetryBudget; attempt++ {
		if attempt > 1 && delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if f.cfg.MaxBackoff > 0 && delay > f.cfg.MaxBackoff {
				delay = f.cfg.MaxBackoff
			}
		}

		data, img, err := f.download(ctx, tile)
		if err == nil {
			f.metrics.Downloaded()
			f.store(ctx, tile, data)
			return img, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		f.metrics.AttemptFailed()
		f.logger.Printf("tile %s attempt %d/%d failed: %v", tileString(tile), attempt, f.cfg.RetryBudget, err)
	}

	f.metrics.Unavailable()
	return nil, &TileUnavailableError{Tile: tile, Attempts: f.cfg.RetryBudget, Err: lastErr}
}

func (f *Fetcher) cached(ctx context.Context, tile maptile.Tile) (image.Image, bool) {
	data, err := f.cache.Get(ctx, tile)
	if errors.Is(err, ErrCacheMiss) {
		return nil, false
	}
	if err != nil {
		f.logger.Printf("reading cached tile %s: %v", tileString(tile), err)
		return nil, false
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		f.logger.Printf("cached tile %s is corrupt, downloading again: %v", tileString(tile), err)
		return nil, false
	}
	return img, true
}

func (f *Fetcher) store(ctx context.Context, tile maptile.Tile, data []byte) {
	if err := f.cache.Put(ctx, tile, data); err != nil {
		f.metrics.CacheWriteFailed()
		f.logger.Print(&CacheWriteError{Tile: tile, Err: err})
	}
}

func (f *Fetcher) download(ctx context.Context, tile maptile.Tile) ([]byte, image.Image, error) {
	url := f.URL(tile)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, err
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}
	for k, v := range f.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to download tile %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, nil, fmt.Errorf("failed to download tile %s: status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading tile %s: %w", url, err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("decoding tile %s: %w", url, err)
	}
	return data, img, nil
}
