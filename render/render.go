// Package render runs the whole pipeline from a point sequence to a map
// image: bounding box, tile plan, mosaic and track overlay.
package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"log"

	"github.com/fogleman/gg"
	"github.com/paulmach/orb/maptile"

	"gpx_tile_map/geo"
	"gpx_tile_map/metrics"
	"gpx_tile_map/mosaic"
	"gpx_tile_map/overlay"
	"gpx_tile_map/tiles"
)

type Options struct {
	Zoom        int
	ImageWidth  int
	LineWidth   int
	LineColor   color.Color
	Attribution overlay.Attribution
	Policy      mosaic.Policy
	Workers     int
	Progress    io.Writer
	Metrics     *metrics.Metrics
	Logger      *log.Logger
}

type Output struct {
	Image    *image.RGBA
	BBox     geo.BoundingBox
	Plan     tiles.Plan
	Failed   []maptile.Tile
	Segments int
}

// Render draws points over the tiles from src. Errors name the stage that
// failed. With the Degrade policy a render with missing tiles still
// succeeds; Output.Failed lists them. Cancelling ctx, including its deadline
// passing, aborts the render without any output.
func Render(ctx context.Context, src mosaic.TileSource, points []geo.GeoPoint, opts Options) (*Output, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	bbox, err := geo.Bounds(points)
	if err != nil {
		return nil, fmt.Errorf("bounding box: %w", err)
	}
	plan, err := tiles.PlanGrid(bbox, opts.Zoom, opts.ImageWidth)
	if err != nil {
		return nil, fmt.Errorf("plan grid: %w", err)
	}
	logger.Printf("bbox %v, %d tiles %v", bbox, plan.Len(), plan)

	compositor := mosaic.New(src,
		mosaic.WithWorkers(opts.Workers),
		mosaic.WithPolicy(opts.Policy),
		mosaic.WithProgress(opts.Progress),
		mosaic.WithMetrics(opts.Metrics),
		mosaic.WithLogger(logger),
	)
	res, err := compositor.Render(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("mosaic: %w", err)
	}
	if !res.Complete() {
		logger.Printf("%d of %d tiles missing, rendering with gaps", len(res.Failed), plan.Len())
	}

	track := overlay.NewRenderer()
	if opts.LineColor != nil {
		track.Color = opts.LineColor
	}
	if opts.LineWidth > 0 {
		track.LineWidth = opts.LineWidth
	}
	segments := track.Draw(res.Image, points, plan)

	if err := opts.Attribution.Draw(res.Image); err != nil {
		return nil, fmt.Errorf("attribution: %w", err)
	}

	return &Output{
		Image:    res.Image,
		BBox:     bbox,
		Plan:     plan,
		Failed:   res.Failed,
		Segments: segments,
	}, nil
}

func (o *Output) Save(path string) error {
	if err := gg.SavePNG(path, o.Image); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
