package tiles

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/karlseguin/ccache/v3"
	"github.com/paulmach/orb/maptile"
)

// Cache stores raw encoded tile images. Entries are never invalidated.
type Cache interface {
	// Get returns ErrCacheMiss when tile is not cached.
	Get(ctx context.Context, tile maptile.Tile) ([]byte, error)
	Put(ctx context.Context, tile maptile.Tile, data []byte) error
}

// DiskCache keeps one PNG per tile under Root/<z>/<x>/<y>.png.
type DiskCache struct {
	Root string
}

func NewDiskCache(root string) *DiskCache {
	return &DiskCache{Root: root}
}

func (c *DiskCache) Path(tile maptile.Tile) string {
	return filepath.Join(c.Root,
		strconv.Itoa(int(tile.Z)),
		strconv.FormatUint(uint64(tile.X), 10),
		strconv.FormatUint(uint64(tile.Y), 10)+".png")
}

func (c *DiskCache) Get(_ context.Context, tile maptile.Tile) ([]byte, error) {
	data, err := os.ReadFile(c.Path(tile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrCacheMiss
	}
	return data, err
}

// Put writes through a temporary file in the target directory so that a
// concurrent Get never reads a partially written tile.
func (c *DiskCache) Put(_ context.Context, tile maptile.Tile, data []byte) error {
	path := c.Path(tile)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tile-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

const forever = 100 * 365 * 24 * time.Hour

// MemoryCache is an in-process LRU of encoded tiles.
type MemoryCache struct {
	lru *ccache.Cache[[]byte]
}

func NewMemoryCache(maxTiles int64) *MemoryCache {
	return &MemoryCache{
		lru: ccache.New(ccache.Configure[[]byte]().MaxSize(maxTiles)),
	}
}

func (c *MemoryCache) Get(_ context.Context, tile maptile.Tile) ([]byte, error) {
	item := c.lru.Get(tileString(tile))
	if item == nil {
		return nil, ErrCacheMiss
	}
	return item.Value(), nil
}

func (c *MemoryCache) Put(_ context.Context, tile maptile.Tile, data []byte) error {
	c.lru.Set(tileString(tile), data, forever)
	return nil
}

func (c *MemoryCache) Len() int {
	return c.lru.ItemCount()
}

func (c *MemoryCache) Close() {
	c.lru.Stop()
}

// Layered reads from the first cache holding a tile and copies it into the
// layers before it. Writes go to every layer.
type Layered struct {
	caches []Cache
	logger *log.Logger
}

// NewLayered stacks caches, fastest first. Failed back-fills are logged to
// logger, or log.Default() when it is nil, and do not fail the read.
func NewLayered(logger *log.Logger, caches ...Cache) *Layered {
	if logger == nil {
		logger = log.Default()
	}
	return &Layered{caches: caches, logger: logger}
}

func (l *Layered) Get(ctx context.Context, tile maptile.Tile) ([]byte, error) {
	for i, c := range l.caches {
		data, err := c.Get(ctx, tile)
		if errors.Is(err, ErrCacheMiss) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, front := range l.caches[:i] {
			if err := front.Put(ctx, tile, data); err != nil {
				l.logger.Printf("back-fill: %v", &CacheWriteError{Tile: tile, Err: err})
			}
		}
		return data, nil
	}
	return nil, ErrCacheMiss
}

func (l *Layered) Put(ctx context.Context, tile maptile.Tile, data []byte) error {
	var errs []error
	for _, c := range l.caches {
		if err := c.Put(ctx, tile, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
