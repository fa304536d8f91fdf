package tiles

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb/maptile"
)

var (
	ErrCacheMiss    = errors.New("tile not in cache")
	ErrInvalidZoom  = fmt.Errorf("zoom must be between 0 and %d", MaxZoom)
	ErrInvalidWidth = errors.New("image width must be positive")
)

// ZoomTooCoarseError is returned when the grid has more tiles across than
// the requested image has pixels.
type ZoomTooCoarseError struct {
	Zoom   int
	Width  int
	TilesX int
}

func (e *ZoomTooCoarseError) Error() string {
	return fmt.Sprintf("zoom %d needs %d tiles across, more than the %d px image width", e.Zoom, e.TilesX, e.Width)
}

// TileUnavailableError is returned once every download attempt for Tile failed.
type TileUnavailableError struct {
	Tile     maptile.Tile
	Attempts int
	Err      error
}

func (e *TileUnavailableError) Error() string {
	return fmt.Sprintf("tile %s unavailable after %d attempts: %v", tileString(e.Tile), e.Attempts, e.Err)
}

func (e *TileUnavailableError) Unwrap() error {
	return e.Err
}

// CacheWriteError wraps a failure to persist a downloaded tile. It is only
// logged: the tile itself was obtained.
type CacheWriteError struct {
	Tile maptile.Tile
	Err  error
}

func (e *CacheWriteError) Error() string {
	return fmt.Sprintf("caching tile %s: %v", tileString(e.Tile), e.Err)
}

func (e *CacheWriteError) Unwrap() error {
	return e.Err
}

func tileString(t maptile.Tile) string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}
