package gallery

import (
	"fmt"

	"github.com/nao1215/photobrowse/internal/entity"
)

// Gallery serves the entities of a manifest by page index. Each entity is
// created once, so the same index always yields the same entity.
type Gallery struct {
	manifest *Manifest
	images   []*entity.ImageEntity
}

// New creates the entities of m through loader.
func New(loader *entity.Loader, m *Manifest) (*Gallery, error) {
	if m == nil || len(m.Images) == 0 {
		return nil, ErrEmptyGallery
	}
	g := &Gallery{
		manifest: m,
		images:   make([]*entity.ImageEntity, len(m.Images)),
	}
	for i, item := range m.Images {
		img, err := loader.NewImage(item.URL)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		g.images[i] = img
	}
	return g, nil
}

// ImageEntityForPage returns the entity of page, or nil when out of range.
func (g *Gallery) ImageEntityForPage(page int) *entity.ImageEntity {
	if page < 0 || page >= len(g.images) {
		return nil
	}
	return g.images[page]
}

// NumberOfImages returns the number of pages.
func (g *Gallery) NumberOfImages() int {
	return len(g.images)
}

// PhotoID returns the photo API id of page, or "".
func (g *Gallery) PhotoID(page int) string {
	if page < 0 || page >= len(g.manifest.Images) {
		return ""
	}
	return g.manifest.Images[page].PhotoID
}

// Title returns the gallery title.
func (g *Gallery) Title() string { return g.manifest.Title }

// Key returns the key side data of the gallery is stored under.
func (g *Gallery) Key() string { return g.manifest.Key() }

// StartPage returns the page the manifest asks to open on.
func (g *Gallery) StartPage() int { return g.manifest.StartPage }

// Entities returns all entities in page order.
func (g *Gallery) Entities() []*entity.ImageEntity {
	return g.images
}
