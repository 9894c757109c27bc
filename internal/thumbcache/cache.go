package thumbcache

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrSourceNotLoaded is returned when a thumbnail has to be derived but
	// the entity has no source image.
	ErrSourceNotLoaded = errors.New("source image not loaded")

	// ErrInvalidFormat is returned for formats without a name or size.
	ErrInvalidFormat = errors.New("invalid thumbnail format")
)

// Entity is an image the cache derives thumbnails from.
type Entity interface {
	SourceImageUUID() string
	SourceImage() image.Image
}

// Cache stores derived thumbnails in memory and, when a directory is set, on disk.
type Cache struct {
	dir    string
	memory *lru.Cache[string, image.Image]
	group  singleflight.Group
	logger *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithDir stores thumbnails as PNG files below dir.
func WithDir(dir string) Option {
	return func(c *Cache) {
		c.dir = dir
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// New creates a cache holding up to entries thumbnails in memory.
func New(entries int, opts ...Option) (*Cache, error) {
	memory, err := lru.New[string, image.Image](entries)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}
	c := &Cache{memory: memory, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// RetrieveImage returns the thumbnail of e in format f. It looks in memory,
// then on disk, and otherwise renders one with drawFn (DrawSquare of the
// format when nil) and stores it in both tiers. Concurrent calls for the
// same thumbnail render it once.
func (c *Cache) RetrieveImage(ctx context.Context, e Entity, f Format, drawFn DrawFunc) (image.Image, error) {
	if f.Name == "" || f.Size <= 0 {
		return nil, ErrInvalidFormat
	}
	id := e.SourceImageUUID()
	key := cacheKey(id, f)
	if img, ok := c.memory.Get(key); ok {
		return img, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if img, ok := c.memory.Get(key); ok {
			return img, nil
		}
		if img, err := c.load(id, f); err == nil {
			c.memory.Add(key, img)
			return img, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			c.logger.Debug("ignoring unreadable thumbnail", "uuid", id, "format", f.Name, "error", err)
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		src := e.SourceImage()
		if src == nil {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotLoaded, id)
		}
		if drawFn == nil {
			drawFn = DrawSquare(f.Opaque)
		}
		dst := image.NewNRGBA(image.Rect(0, 0, f.Size, f.Size))
		drawFn(dst, src)

		c.memory.Add(key, dst)
		if err := c.store(id, f, dst); err != nil {
			c.logger.Warn("failed to store thumbnail", "uuid", id, "format", f.Name, "error", err)
		}
		return image.Image(dst), nil
	})
	if err != nil {
		return nil, err
	}
	img, ok := v.(image.Image)
	if !ok {
		return nil, fmt.Errorf("unexpected thumbnail result %T", v)
	}
	return img, nil
}

// Contains reports whether a thumbnail is cached in either tier.
func (c *Cache) Contains(id string, f Format) bool {
	if c.memory.Contains(cacheKey(id, f)) {
		return true
	}
	if c.dir == "" {
		return false
	}
	_, err := os.Stat(c.path(id, f))
	return err == nil
}

// Remove drops the thumbnail of id in format f from both tiers.
func (c *Cache) Remove(id string, f Format) error {
	c.memory.Remove(cacheKey(id, f))
	if c.dir == "" {
		return nil
	}
	if err := os.Remove(c.path(id, f)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove thumbnail: %w", err)
	}
	return nil
}

// Purge empties the memory tier and deletes the disk tier of format f.
func (c *Cache) Purge(f Format) error {
	c.memory.Purge()
	if c.dir == "" {
		return nil
	}
	if err := os.RemoveAll(filepath.Join(c.dir, f.Name)); err != nil {
		return fmt.Errorf("failed to purge %s: %w", f.Name, err)
	}
	return nil
}

// Len returns the number of thumbnails held in memory.
func (c *Cache) Len() int {
	return c.memory.Len()
}

func (c *Cache) load(id string, f Format) (image.Image, error) {
	if c.dir == "" {
		return nil, os.ErrNotExist
	}
	file, err := os.Open(c.path(id, f))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		return nil, err
	}
	if b := img.Bounds(); b.Dx() != f.Size || b.Dy() != f.Size {
		return nil, fmt.Errorf("cached thumbnail is %dx%d, expected %d", b.Dx(), b.Dy(), f.Size)
	}
	return img, nil
}

func (c *Cache) store(id string, f Format, img image.Image) error {
	if c.dir == "" {
		return nil
	}
	path := c.path(id, f)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".thumb-*")
	if err != nil {
		return err
	}
	if err := png.Encode(tmp, img); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (c *Cache) path(id string, f Format) string {
	return filepath.Join(c.dir, f.Name, id+".png")
}

func cacheKey(id string, f Format) string {
	return fmt.Sprintf("%s/%d/%s", f.Name, f.Size, id)
}
