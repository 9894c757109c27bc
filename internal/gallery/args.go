package gallery

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/nao1215/photobrowse/internal/transport"
)

// imageExtensions are the file extensions picked up from directories.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// IsImageFile reports whether name has a supported image extension.
func IsImageFile(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// FromArgs builds a manifest from URLs, image files and directories. Directories
// contribute their image files (not recursively) in name order.
func FromArgs(args []string) (*Manifest, error) {
	m := &Manifest{Source: strings.Join(args, "\n")}

	for _, arg := range args {
		if isRemote(arg) {
			m.Images = append(m.Images, Item{URL: arg})
			continue
		}

		path := arg
		if strings.HasPrefix(arg, "file://") {
			p, err := transport.FilePath(arg)
			if err != nil {
				return nil, err
			}
			path = p
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", arg, err)
		}
		if !info.IsDir() {
			u, err := fileURL(path)
			if err != nil {
				return nil, err
			}
			m.Images = append(m.Images, Item{URL: u})
			continue
		}

		items, err := dirItems(path)
		if err != nil {
			return nil, err
		}
		m.Images = append(m.Images, items...)
	}

	if len(m.Images) == 0 {
		return nil, ErrEmptyGallery
	}
	if len(args) == 1 {
		m.Title = filepath.Base(args[0])
	}
	return m, nil
}

func dirItems(dir string) ([]Item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && IsImageFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	items := make([]Item, 0, len(names))
	for _, name := range names {
		u, err := fileURL(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		items = append(items, Item{URL: u})
	}
	return items, nil
}

func fileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

func isRemote(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// normalizeLocation turns a manifest location into an absolute URL. Paths
// are relative to dir.
func normalizeLocation(loc, dir string) (string, error) {
	if loc == "" {
		return "", fmt.Errorf("empty image url")
	}
	if isRemote(loc) || strings.HasPrefix(loc, "file://") {
		return loc, nil
	}
	if !filepath.IsAbs(loc) {
		loc = filepath.Join(dir, loc)
	}
	return fileURL(loc)
}
