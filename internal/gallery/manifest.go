package gallery

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/nao1215/photobrowse/internal/entity"
)

// Item is one photo of a manifest.
type Item struct {
	URL string `yaml:"url"`
	// PhotoID is the id of the photo in the photo API. Empty means the
	// photo has no side data.
	PhotoID string `yaml:"photoId,omitempty"`
}

// Manifest describes a gallery.
type Manifest struct {
	// ID keys stored side data. Defaults to an identity derived from Source.
	ID        string `yaml:"id,omitempty"`
	Title     string `yaml:"title,omitempty"`
	StartPage int    `yaml:"startPage,omitempty"`
	Images    []Item `yaml:"images"`

	// Source is where the manifest came from: a file path, a page URL or
	// the joined command line arguments.
	Source string `yaml:"-"`
}

// Key returns the key side data of this gallery is stored under.
func (m *Manifest) Key() string {
	if m.ID != "" {
		return m.ID
	}
	return entity.Identity(m.Source)
}

// LoadFile reads a YAML gallery file. Relative image paths are resolved
// against the directory of the file and turned into file URLs.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided gallery path
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrGalleryNotFound, path)
		}
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse gallery %s: %w", path, err)
	}
	if len(m.Images) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyGallery, path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	m.Source = abs
	dir := filepath.Dir(abs)
	for i, item := range m.Images {
		u, err := normalizeLocation(item.URL, dir)
		if err != nil {
			return nil, fmt.Errorf("image %d of %s: %w", i, path, err)
		}
		m.Images[i].URL = u
	}
	if m.Title == "" {
		m.Title = filepath.Base(path)
	}
	return &m, nil
}

// WriteFile stores m as a YAML gallery file.
func (m *Manifest) WriteFile(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode gallery: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}
