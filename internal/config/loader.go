package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the config file name searched in the working and home directories.
const DefaultConfigFile = ".photobrowse"

var (
	// ErrConfigNotFound is returned when the config file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrUnknownGallery is returned for a gallery name the config file does not define.
	ErrUnknownGallery = errors.New("unknown gallery")
)

// API configures the photo API used for side data.
type API struct {
	BaseURL string `yaml:"baseUrl,omitempty"`
	Token   string `yaml:"token,omitempty"`
}

// File is the structure of the .photobrowse file.
type File struct {
	API       API    `yaml:"api,omitempty"`
	UserAgent string `yaml:"userAgent,omitempty"`

	// Headers are added to every image request.
	Headers map[string]string `yaml:"headers,omitempty"`

	CacheDir string `yaml:"cacheDir,omitempty"`
	DataDir  string `yaml:"dataDir,omitempty"`
	TorProxy string `yaml:"torProxy,omitempty"`

	// Galleries maps short names to gallery files, so that
	// "photobrowse view holiday" opens the file registered as holiday.
	// Relative paths are relative to the config file.
	Galleries map[string]string `yaml:"galleries,omitempty"`

	path string
}

// LoadConfigFile reads a config file. A missing file yields ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided config path
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if f.Galleries == nil {
		f.Galleries = make(map[string]string)
	}
	f.path = path
	return &f, nil
}

// GalleryPath resolves a gallery name to its file path.
func (f *File) GalleryPath(name string) (string, error) {
	p, ok := f.Galleries[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownGallery, name)
	}
	if filepath.IsAbs(p) || f.path == "" {
		return p, nil
	}
	return filepath.Join(filepath.Dir(f.path), p), nil
}

// GalleryNames returns the registered gallery names in sorted order.
func (f *File) GalleryNames() []string {
	names := make([]string, 0, len(f.Galleries))
	for name := range f.Galleries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FindConfigFile returns the config file to use: configPath if given and
// present, otherwise .photobrowse in the working directory, then in the
// home directory, then config.yaml in the XDG config directory.
// It returns "" when none exists.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}
