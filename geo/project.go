package geo

import "math"

// Project maps c to fractional slippy-map tile coordinates at zoom. The
// integer part is the tile index, the fraction the position inside the tile.
// Nothing is clamped: latitudes at the poles give non-finite or far out of
// range values.
func Project(c Coordinate, zoom int) (x, y float64) {
	n := math.Pow(2, float64(zoom))
	x = n * (c.Lon + 180) / 360
	latRad := c.Lat * math.Pi / 180
	y = n * (1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2
	return x, y
}

// Unproject is the inverse of Project.
func Unproject(x, y float64, zoom int) Coordinate {
	n := math.Pow(2, float64(zoom))
	lon := x/n*360 - 180
	latRad := math.Atan(math.Sinh(math.Pi * (1 - 2*y/n)))
	return Coordinate{Lat: latRad * 180 / math.Pi, Lon: lon}
}
