// Package mosaic assembles the tiles of a plan into one raster.
package mosaic

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/paulmach/orb/maptile"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"gpx_tile_map/metrics"
	"gpx_tile_map/tiles"
)

// TileSource yields the image of one tile. *tiles.Fetcher implements it.
type TileSource interface {
	Fetch(ctx context.Context, tile maptile.Tile) (image.Image, error)
}

// Policy decides what a tile that cannot be fetched does to the render.
type Policy int

const (
	// Degrade leaves the tile's rectangle transparent and carries on.
	Degrade Policy = iota
	// Strict aborts the render on the first unavailable tile.
	Strict
)

func (p Policy) String() string {
	if p == Strict {
		return "strict"
	}
	return "degrade"
}

type Result struct {
	Image  *image.RGBA
	Plan   tiles.Plan
	Failed []maptile.Tile
}

// Complete reports whether every tile of the plan made it into the image.
func (r *Result) Complete() bool {
	return len(r.Failed) == 0
}

type Compositor struct {
	src      TileSource
	workers  int
	policy   Policy
	progress io.Writer
	metrics  *metrics.Metrics
	logger   *log.Logger
	scaler   draw.Scaler
}

type Option func(*Compositor)

func WithWorkers(n int) Option {
	return func(c *Compositor) {
		if n > 0 {
			c.workers = n
		}
	}
}

func WithPolicy(p Policy) Option {
	return func(c *Compositor) { c.policy = p }
}

// WithProgress draws a progress bar on w while tiles are fetched.
func WithProgress(w io.Writer) Option {
	return func(c *Compositor) { c.progress = w }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Compositor) { c.metrics = m }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Compositor) { c.logger = l }
}

func New(src TileSource, opts ...Option) *Compositor {
	c := &Compositor{
		src:     src,
		workers: runtime.NumCPU(),
		policy:  Degrade,
		logger:  log.Default(),
		scaler:  draw.BiLinear,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Render fetches every tile of plan and scales it into its Res x Res cell
// of a new raster. Tiles are processed concurrently; each worker only
// writes to the sub-image of its own tile, so no locking is needed.
func (c *Compositor) Render(ctx context.Context, plan tiles.Plan) (*Result, error) {
	start := time.Now()
	raster := image.NewRGBA(image.Rect(0, 0, plan.Width, plan.Height))
	all := plan.Tiles()
	bar := c.newBar(len(all))
	defer bar.Close()

	var (
		mu     sync.Mutex
		failed []maptile.Tile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for _, tile := range all {
		tile := tile
		g.Go(func() error {
			defer bar.Add(1)
			err := c.composite(gctx, raster, plan, tile)
			if err == nil {
				return nil
			}
			var unavailable *tiles.TileUnavailableError
			if c.policy == Degrade && errors.As(err, &unavailable) {
				c.logger.Printf("leaving tile %d/%d/%d blank: %v", tile.Z, tile.X, tile.Y, err)
				mu.Lock()
				failed = append(failed, tile)
				mu.Unlock()
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(failed, func(i, j int) bool {
		if failed[i].X != failed[j].X {
			return failed[i].X < failed[j].X
		}
		return failed[i].Y < failed[j].Y
	})
	c.metrics.ObserveMosaic(start, len(all)-len(failed), len(failed))
	return &Result{Image: raster, Plan: plan, Failed: failed}, nil
}

func (c *Compositor) composite(ctx context.Context, raster *image.RGBA, plan tiles.Plan, tile maptile.Tile) error {
	img, err := c.src.Fetch(ctx, tile)
	if err != nil {
		return err
	}
	if img == nil {
		return fmt.Errorf("tile %d/%d/%d: no image", tile.Z, tile.X, tile.Y)
	}
	cell := raster.SubImage(plan.Rect(tile)).(*image.RGBA)
	c.scaler.Scale(cell, cell.Bounds(), img, img.Bounds(), draw.Src, nil)
	return nil
}

func (c *Compositor) newBar(n int) *progressbar.ProgressBar {
	if c.progress == nil {
		return progressbar.DefaultSilent(int64(n), "Downloading Tiles")
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(c.progress),
		progressbar.OptionSetDescription("Downloading Tiles"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(c.progress) }),
	)
}
