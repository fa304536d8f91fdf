// Package overlay draws tracks and captions on top of a composited mosaic.
package overlay

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"

	"gpx_tile_map/geo"
	"gpx_tile_map/tiles"
)

var DefaultColor = color.RGBA{R: 255, A: 255}

const DefaultLineWidth = 8

// Segment is one straight piece of a track between consecutive points.
type Segment struct {
	From, To geo.Coordinate
}

// Segments pairs up consecutive coordinates. A TrackBreak between two
// coordinates ends one track and starts the next, so no segment crosses it.
func Segments(points []geo.GeoPoint) []Segment {
	var segs []Segment
	for i := 1; i < len(points); i++ {
		from, ok := points[i-1].(geo.Coordinate)
		if !ok {
			continue
		}
		to, ok := points[i].(geo.Coordinate)
		if !ok {
			continue
		}
		segs = append(segs, Segment{From: from, To: to})
	}
	return segs
}

type Renderer struct {
	Color     color.Color
	LineWidth int
}

func NewRenderer() *Renderer {
	return &Renderer{Color: DefaultColor, LineWidth: DefaultLineWidth}
}

// Draw paints every segment of points onto img, which must be laid out as
// plan describes. It returns the number of segments drawn.
//
// Thickness comes from repeating a one pixel line over a LineWidth square
// of offsets around the exact position.
func (r *Renderer) Draw(img *image.RGBA, points []geo.GeoPoint, plan tiles.Plan) int {
	segs := Segments(points)
	if len(segs) == 0 {
		return 0
	}

	offsets := brush(r.LineWidth)
	dc := gg.NewContextForRGBA(img)
	dc.SetColor(r.Color)
	dc.SetLineWidth(1)
	zoom := int(plan.Zoom)
	for _, s := range segs {
		x1, y1 := plan.Pixel(geo.Project(s.From, zoom))
		x2, y2 := plan.Pixel(geo.Project(s.To, zoom))
		for _, dx := range offsets {
			for _, dy := range offsets {
				dc.DrawLine(x1+dx, y1+dy, x2+dx, y2+dy)
			}
		}
		dc.Stroke()
	}
	return len(segs)
}

func brush(width int) []float64 {
	half := width / 2
	if half == 0 {
		return []float64{0}
	}
	offsets := make([]float64, 0, 2*half)
	for o := -half; o < half; o++ {
		offsets = append(offsets, float64(o))
	}
	return offsets
}
