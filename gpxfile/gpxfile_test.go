package gpxfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gpx_tile_map/geo"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join("testdata", "morning.gpx")
	points, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []geo.GeoPoint{
		geo.TrackBreak{Label: path},
		geo.Coordinate{Lat: 46.0201, Lon: 8.9601},
		geo.Coordinate{Lat: 46.0212, Lon: 8.9623},
		geo.Coordinate{Lat: 46.0230, Lon: 8.9650},
	}, points)
}

func TestLoadFile_NoTrackPoints(t *testing.T) {
	points, err := LoadFile(filepath.Join("testdata", "waypoints.gpx"))
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestLoad_Directory(t *testing.T) {
	points, err := Load("testdata")
	require.NoError(t, err)

	var labels []string
	for _, p := range points {
		if b, ok := p.(geo.TrackBreak); ok {
			labels = append(labels, b.Label)
		}
	}
	assert.Equal(t, []string{
		filepath.Join("testdata", "evening.GPX"),
		filepath.Join("testdata", "morning.gpx"),
	}, labels, "one break per file with points, in file name order")
	assert.Len(t, geo.Coordinates(points), 5)
	assert.Equal(t, geo.TrackBreak{Label: filepath.Join("testdata", "evening.GPX")}, points[0])
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "missing.gpx"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.gpx")
	require.NoError(t, os.WriteFile(bad, []byte("<gpx><trk><trkseg><trkpt lat="), 0644))
	_, err = Load(filepath.Dir(bad))
	assert.ErrorContains(t, err, "bad.gpx")
}
