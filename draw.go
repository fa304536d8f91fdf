package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"gpx_tile_map/config"
	"gpx_tile_map/gpxfile"
	"gpx_tile_map/metrics"
	"gpx_tile_map/mosaic"
	"gpx_tile_map/overlay"
	"gpx_tile_map/render"
	"gpx_tile_map/tiles"
)

// memoryCacheTiles bounds the in-process tile cache in front of the disk
// cache.
const memoryCacheTiles = 1024

func draw(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("expected exactly one GPX file or directory", 2)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	tileCfg, err := cfg.FetcherConfig()
	if err != nil {
		return err
	}
	lineColor, err := cfg.Render.Color()
	if err != nil {
		return err
	}

	points, err := gpxfile.Load(c.Args().First())
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	memory := tiles.NewMemoryCache(memoryCacheTiles)
	defer memory.Close()
	fetcher, err := tiles.NewFetcher(tileCfg,
		tiles.WithCache(tiles.NewLayered(nil, memory, tiles.NewDiskCache(tileCfg.CacheDir()))),
		tiles.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	ctx := c.Context
	if cfg.Render.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Render.Timeout)
		defer cancel()
	}

	policy := mosaic.Degrade
	if cfg.Render.Strict {
		policy = mosaic.Strict
	}
	log.Printf("drawing %s at zoom %d from %s", c.Args().First(), cfg.Render.Zoom, tileCfg.URLTemplate)
	out, err := render.Render(ctx, fetcher, points, render.Options{
		Zoom:        cfg.Render.Zoom,
		ImageWidth:  cfg.Render.ImageWidth,
		LineWidth:   cfg.Render.LineWidth,
		LineColor:   lineColor,
		Attribution: overlay.Attribution{Text: cfg.Render.Attribution},
		Policy:      policy,
		Workers:     cfg.Render.Workers,
		Progress:    os.Stderr,
		Metrics:     m,
	})
	if err != nil {
		return err
	}

	if err := out.Save(cfg.Output); err != nil {
		return err
	}
	log.Printf("saved %s (%dx%d, %d segments)", cfg.Output, out.Plan.Width, out.Plan.Height, out.Segments)
	if len(out.Failed) > 0 {
		log.Printf("%d tiles could not be fetched and are blank: %v", len(out.Failed), out.Failed)
	}

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

// loadConfig reads the config file and environment, then applies the flags
// that were given explicitly.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String(CONFIG))
	if err != nil {
		return nil, err
	}
	if err := applyFlags(c, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(c *cli.Context, cfg *config.Config) error {
	if c.IsSet(ZOOM) {
		cfg.Render.Zoom = c.Int(ZOOM)
	}
	if c.IsSet(IMAGEWIDTH) {
		cfg.Render.ImageWidth = c.Int(IMAGEWIDTH)
	}
	if c.IsSet(LINEWIDTH) {
		cfg.Render.LineWidth = c.Int(LINEWIDTH)
	}
	if c.IsSet(LINECOLOR) {
		cfg.Render.LineColor = c.String(LINECOLOR)
	}
	if c.IsSet(OUTPUT) {
		cfg.Output = c.String(OUTPUT)
	}
	if c.IsSet(CACHEDIR) {
		cfg.Tiles.CacheRoot = c.String(CACHEDIR)
	}
	if c.IsSet(STYLE) {
		cfg.Style = c.String(STYLE)
	}
	if c.IsSet(TILEURL) {
		cfg.Style = ""
		cfg.Tiles.URLTemplate = c.String(TILEURL)
		cfg.Tiles.Headers = nil
	}
	if c.IsSet(WORKERS) {
		cfg.Render.Workers = c.Int(WORKERS)
	}
	if c.IsSet(STRICT) {
		cfg.Render.Strict = c.Bool(STRICT)
	}
	if c.IsSet(ATTRIBUTION) {
		cfg.Render.Attribution = c.String(ATTRIBUTION)
	}
	if c.IsSet(TIMEOUT) {
		cfg.Render.Timeout = c.Duration(TIMEOUT)
	}
	if c.IsSet(METRICSFILE) {
		cfg.MetricsFile = c.String(METRICSFILE)
	}
	return cfg.Validate()
}
