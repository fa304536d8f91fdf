package geo

import (
	"fmt"

	"github.com/paulmach/orb"
)

type BoundingBox struct {
	LatMin, LatMax float64
	LonMin, LonMax float64
}

// Bounds returns the smallest box enclosing every Coordinate of points.
// Track breaks are ignored.
func Bounds(points []GeoPoint) (BoundingBox, error) {
	var bound orb.Bound
	found := false
	for _, p := range points {
		c, ok := p.(Coordinate)
		if !ok {
			continue
		}
		if !found {
			bound = orb.Bound{Min: c.Point(), Max: c.Point()}
			found = true
			continue
		}
		bound = bound.Extend(c.Point())
	}
	if !found {
		return BoundingBox{}, ErrEmptyInput
	}
	return FromBound(bound), nil
}

func FromBound(b orb.Bound) BoundingBox {
	return BoundingBox{
		LatMin: b.Bottom(),
		LatMax: b.Top(),
		LonMin: b.Left(),
		LonMax: b.Right(),
	}
}

func (b BoundingBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.LonMin, b.LatMin},
		Max: orb.Point{b.LonMax, b.LatMax},
	}
}

func (b BoundingBox) Contains(c Coordinate) bool {
	return b.Bound().Contains(c.Point())
}

// Corners returns the north-west, north-east, south-west and south-east corners.
func (b BoundingBox) Corners() [4]Coordinate {
	return [4]Coordinate{
		{Lat: b.LatMax, Lon: b.LonMin},
		{Lat: b.LatMax, Lon: b.LonMax},
		{Lat: b.LatMin, Lon: b.LonMin},
		{Lat: b.LatMin, Lon: b.LonMax},
	}
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("lat [%.6f, %.6f] lon [%.6f, %.6f]", b.LatMin, b.LatMax, b.LonMin, b.LonMax)
}
