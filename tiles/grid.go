// Package tiles plans the slippy-map tile grid covering a bounding box and
// obtains tile images from a cache or a tile server.
package tiles

import (
	"fmt"
	"image"
	"math"

	"github.com/paulmach/orb/maptile"

	"gpx_tile_map/geo"
)

const MaxZoom = 22

// Grid is the rectangular span of tiles covering a bounding box at one zoom.
type Grid struct {
	Zoom       maptile.Zoom
	XMin, XMax uint32
	YMin, YMax uint32
}

func (g Grid) CountX() int { return int(g.XMax-g.XMin) + 1 }
func (g Grid) CountY() int { return int(g.YMax-g.YMin) + 1 }
func (g Grid) Len() int    { return g.CountX() * g.CountY() }

func (g Grid) Contains(t maptile.Tile) bool {
	return t.Z == g.Zoom && t.X >= g.XMin && t.X <= g.XMax && t.Y >= g.YMin && t.Y <= g.YMax
}

// Tiles lists the grid column by column: x outer, y inner.
func (g Grid) Tiles() []maptile.Tile {
	tiles := make([]maptile.Tile, 0, g.Len())
	for x := g.XMin; x <= g.XMax; x++ {
		for y := g.YMin; y <= g.YMax; y++ {
			tiles = append(tiles, maptile.New(x, y, g.Zoom))
		}
	}
	return tiles
}

func (g Grid) String() string {
	return fmt.Sprintf("z%d x[%d..%d] y[%d..%d]", g.Zoom, g.XMin, g.XMax, g.YMin, g.YMax)
}

// Plan is a Grid together with the output raster layout: every tile is
// scaled to Res x Res pixels.
type Plan struct {
	Grid
	Res    int
	Width  int
	Height int
}

// Offset is the top-left pixel of tile t in the output raster.
func (p Plan) Offset(t maptile.Tile) image.Point {
	return image.Pt(int(t.X-p.XMin)*p.Res, int(t.Y-p.YMin)*p.Res)
}

func (p Plan) Rect(t maptile.Tile) image.Rectangle {
	off := p.Offset(t)
	return image.Rect(off.X, off.Y, off.X+p.Res, off.Y+p.Res)
}

// Pixel converts fractional tile coordinates from geo.Project to raster pixels.
func (p Plan) Pixel(x, y float64) (float64, float64) {
	return (x - float64(p.XMin)) * float64(p.Res), (y - float64(p.YMin)) * float64(p.Res)
}

func (p Plan) String() string {
	return fmt.Sprintf("%v res %d -> %dx%d", p.Grid, p.Res, p.Width, p.Height)
}

// PlanGrid finds the tiles covering bbox at zoom and sizes them so that the
// mosaic is as close to width pixels wide as an integer tile resolution
// allows. The resulting width is never larger than requested.
func PlanGrid(bbox geo.BoundingBox, zoom, width int) (Plan, error) {
	if zoom < 0 || zoom > MaxZoom {
		return Plan{}, ErrInvalidZoom
	}
	if width <= 0 {
		return Plan{}, ErrInvalidWidth
	}

	last := uint32(1)<<uint(zoom) - 1
	grid := Grid{Zoom: maptile.Zoom(zoom), XMin: last, YMin: last}
	for _, c := range bbox.Corners() {
		if !c.Valid() {
			return Plan{}, fmt.Errorf("corner %v: %w", c, geo.ErrProjectionDegenerate)
		}
		fx, fy := geo.Project(c, zoom)
		if math.IsNaN(fx) || math.IsNaN(fy) || math.IsInf(fx, 0) || math.IsInf(fy, 0) {
			return Plan{}, fmt.Errorf("corner %v: %w", c, geo.ErrProjectionDegenerate)
		}
		x, y := tileIndex(fx, last), tileIndex(fy, last)
		grid.XMin, grid.XMax = min(grid.XMin, x), max(grid.XMax, x)
		grid.YMin, grid.YMax = min(grid.YMin, y), max(grid.YMax, y)
	}

	res := width / grid.CountX()
	if res == 0 {
		return Plan{}, &ZoomTooCoarseError{Zoom: zoom, Width: width, TilesX: grid.CountX()}
	}
	return Plan{
		Grid:   grid,
		Res:    res,
		Width:  res * grid.CountX(),
		Height: res * grid.CountY(),
	}, nil
}

// tileIndex floors a fractional tile coordinate into [0, last]. The east
// edge (lon 180) and latitudes beyond the Mercator limit fall outside the
// tile range otherwise.
func tileIndex(f float64, last uint32) uint32 {
	f = math.Floor(f)
	if f < 0 {
		return 0
	}
	if f > float64(last) {
		return last
	}
	return uint32(f)
}
