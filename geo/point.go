// Package geo holds the geodetic side of the renderer: track point
// sequences, their bounding box and the Web-Mercator tile projection.
package geo

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
)

var (
	ErrEmptyInput           = errors.New("no coordinates in point sequence")
	ErrProjectionDegenerate = errors.New("coordinate cannot be projected to Web-Mercator")
)

// GeoPoint is one entry of a track point sequence: either a Coordinate or a
// TrackBreak separating two independently drawn tracks.
type GeoPoint interface {
	geoPoint()
}

type Coordinate struct {
	Lat, Lon float64
}

// TrackBreak marks the start of a new track. Label is usually the source file.
type TrackBreak struct {
	Label string
}

func (Coordinate) geoPoint() {}
func (TrackBreak) geoPoint() {}

func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Point returns the coordinate in orb's lon/lat order.
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", c.Lat, c.Lon)
}

// Coordinates returns only the Coordinate entries of points, in order.
func Coordinates(points []GeoPoint) []Coordinate {
	var coords []Coordinate
	for _, p := range points {
		if c, ok := p.(Coordinate); ok {
			coords = append(coords, c)
		}
	}
	return coords
}
