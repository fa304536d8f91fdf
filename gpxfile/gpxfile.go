// Package gpxfile turns GPX files into the point sequence the renderer draws.
package gpxfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tkrajina/gpxgo/gpx"

	"gpx_tile_map/geo"
)

// Load reads path, a single GPX file or a directory of them. Every file
// with at least one track point contributes a TrackBreak labelled with its
// path, followed by its track points in document order.
func Load(path string) ([]geo.GeoPoint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return LoadFile(path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var points []geo.GeoPoint
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".gpx") {
			continue
		}
		filePoints, err := LoadFile(filepath.Join(path, e.Name()))
		if err != nil {
			return nil, err
		}
		points = append(points, filePoints...)
	}
	return points, nil
}

func LoadFile(path string) ([]geo.GeoPoint, error) {
	gpxFile, err := gpx.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GPX file %s: %w", path, err)
	}

	var points []geo.GeoPoint
	for _, track := range gpxFile.Tracks {
		for _, segment := range track.Segments {
			for _, p := range segment.Points {
				c := geo.Coordinate{Lat: p.Latitude, Lon: p.Longitude}
				if !c.Valid() {
					return nil, fmt.Errorf("%s: track point %v out of range", path, c)
				}
				if len(points) == 0 {
					points = append(points, geo.TrackBreak{Label: path})
				}
				points = append(points, c)
			}
		}
	}
	return points, nil
}
