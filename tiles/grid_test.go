package tiles

import (
	"image"
	"math"
	"math/rand"
	"testing"

	"github.com/paulmach/orb/maptile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gpx_tile_map/geo"
)

// bboxBetweenTiles spans from the centre of tile (x0, y0) to the centre of
// tile (x1, y1).
func bboxBetweenTiles(x0, y0, x1, y1 float64, zoom int) geo.BoundingBox {
	nw := geo.Unproject(x0+0.5, y0+0.5, zoom)
	se := geo.Unproject(x1+0.5, y1+0.5, zoom)
	return geo.BoundingBox{LatMin: se.Lat, LatMax: nw.Lat, LonMin: nw.Lon, LonMax: se.Lon}
}

func TestPlanGrid(t *testing.T) {
	tests := []struct {
		name  string
		bbox  geo.BoundingBox
		zoom  int
		width int
		want  Plan
	}{
		{
			name:  "2x2 tiles at zoom 10",
			bbox:  bboxBetweenTiles(527, 338, 528, 339, 10),
			zoom:  10,
			width: 512,
			want: Plan{
				Grid: Grid{Zoom: 10, XMin: 527, XMax: 528, YMin: 338, YMax: 339},
				Res:  256, Width: 512, Height: 512,
			},
		},
		{
			name:  "width is floored to a multiple of the tile count",
			bbox:  bboxBetweenTiles(100, 200, 102, 200, 9),
			zoom:  9,
			width: 1000,
			want: Plan{
				Grid: Grid{Zoom: 9, XMin: 100, XMax: 102, YMin: 200, YMax: 200},
				Res:  333, Width: 999, Height: 333,
			},
		},
		{
			name:  "tall grid",
			bbox:  bboxBetweenTiles(10, 10, 10, 13, 5),
			zoom:  5,
			width: 300,
			want: Plan{
				Grid: Grid{Zoom: 5, XMin: 10, XMax: 10, YMin: 10, YMax: 13},
				Res:  300, Width: 300, Height: 1200,
			},
		},
		{
			name:  "single point",
			bbox:  geo.BoundingBox{LatMin: 0.1, LatMax: 0.1, LonMin: 0.1, LonMax: 0.1},
			zoom:  0,
			width: 64,
			want: Plan{
				Grid: Grid{Zoom: 0},
				Res:  64, Width: 64, Height: 64,
			},
		},
		{
			name:  "antimeridian east edge is clamped",
			bbox:  geo.BoundingBox{LatMin: -1, LatMax: 1, LonMin: 179, LonMax: 180},
			zoom:  2,
			width: 256,
			want: Plan{
				Grid: Grid{Zoom: 2, XMin: 3, XMax: 3, YMin: 1, YMax: 2},
				Res:  256, Width: 256, Height: 512,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PlanGrid(tt.bbox, tt.zoom, tt.width)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlanGrid_Errors(t *testing.T) {
	bbox := bboxBetweenTiles(0, 0, 3, 0, 4)

	_, err := PlanGrid(bbox, 4, 3)
	var coarse *ZoomTooCoarseError
	require.ErrorAs(t, err, &coarse)
	assert.Equal(t, 4, coarse.TilesX)
	assert.Equal(t, 3, coarse.Width)

	_, err = PlanGrid(bbox, -1, 512)
	assert.ErrorIs(t, err, ErrInvalidZoom)
	_, err = PlanGrid(bbox, MaxZoom+1, 512)
	assert.ErrorIs(t, err, ErrInvalidZoom)
	_, err = PlanGrid(bbox, 4, 0)
	assert.ErrorIs(t, err, ErrInvalidWidth)

	_, err = PlanGrid(geo.BoundingBox{LatMin: 10, LatMax: 91, LonMin: 0, LonMax: 1}, 4, 512)
	assert.ErrorIs(t, err, geo.ErrProjectionDegenerate)
}

func TestPlanGrid_CoversCorners(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		zoom := r.Intn(19)
		latA, latB := r.Float64()*160-80, r.Float64()*160-80
		lonA, lonB := r.Float64()*358-179, r.Float64()*358-179
		bbox := geo.BoundingBox{
			LatMin: math.Min(latA, latB), LatMax: math.Max(latA, latB),
			LonMin: math.Min(lonA, lonB), LonMax: math.Max(lonA, lonB),
		}
		plan, err := PlanGrid(bbox, zoom, 1<<22)
		require.NoError(t, err)

		for _, c := range bbox.Corners() {
			x, y := geo.Project(c, zoom)
			tile := maptile.New(uint32(math.Floor(x)), uint32(math.Floor(y)), maptile.Zoom(zoom))
			assert.Truef(t, plan.Contains(tile), "corner %v tile %v outside %v", c, tile, plan.Grid)
		}

		nw := geo.Unproject(float64(plan.XMin), float64(plan.YMin), zoom)
		se := geo.Unproject(float64(plan.XMax+1), float64(plan.YMax+1), zoom)
		assert.LessOrEqual(t, nw.Lon, bbox.LonMin+1e-9)
		assert.GreaterOrEqual(t, nw.Lat, bbox.LatMax-1e-9)
		assert.GreaterOrEqual(t, se.Lon, bbox.LonMax-1e-9)
		assert.LessOrEqual(t, se.Lat, bbox.LatMin+1e-9)
	}
}

func TestGrid_Tiles(t *testing.T) {
	g := Grid{Zoom: 3, XMin: 2, XMax: 3, YMin: 5, YMax: 7}
	tiles := g.Tiles()
	require.Len(t, tiles, g.Len())
	assert.Equal(t, 6, g.Len())
	assert.Equal(t, maptile.New(2, 5, 3), tiles[0])
	assert.Equal(t, maptile.New(2, 6, 3), tiles[1])
	assert.Equal(t, maptile.New(3, 7, 3), tiles[5])
	for _, tile := range tiles {
		assert.True(t, g.Contains(tile))
	}
	assert.False(t, g.Contains(maptile.New(2, 5, 4)))
}

func TestPlan_Offset(t *testing.T) {
	p := Plan{Grid: Grid{Zoom: 10, XMin: 527, XMax: 528, YMin: 338, YMax: 339}, Res: 256, Width: 512, Height: 512}
	assert.Equal(t, image.Pt(256, 0), p.Offset(maptile.New(528, 338, 10)))
	assert.Equal(t, image.Rect(256, 256, 512, 512), p.Rect(maptile.New(528, 339, 10)))

	x, y := p.Pixel(527.5, 339.25)
	assert.InDelta(t, 128, x, 1e-9)
	assert.InDelta(t, 320, y, 1e-9)
}
