package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("viewer defaults open the first page with 24 rows", func(t *testing.T) {
		t.Parallel()
		if cfg.StartPage != 0 || cfg.PageExtent != 24 {
			t.Errorf("expected start 0 and extent 24, got %d and %d", cfg.StartPage, cfg.PageExtent)
		}
	})

	t.Run("network defaults", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 30*time.Second {
			t.Errorf("expected Timeout to be 30s, got %v", cfg.Timeout)
		}
		if cfg.RetryMax != 3 {
			t.Errorf("expected RetryMax to be 3, got %d", cfg.RetryMax)
		}
		if cfg.MaxImageSize != 20*1024*1024 {
			t.Errorf("expected MaxImageSize to be 20MiB, got %d", cfg.MaxImageSize)
		}
		if !strings.HasPrefix(cfg.UserAgent, "photobrowse/") {
			t.Errorf("unexpected UserAgent %q", cfg.UserAgent)
		}
	})

	t.Run("cache defaults", func(t *testing.T) {
		t.Parallel()
		if cfg.ThumbnailSize != 64 || cfg.MemoryCacheEntries != 128 {
			t.Errorf("expected 64px thumbnails and 128 entries, got %d and %d", cfg.ThumbnailSize, cfg.MemoryCacheEntries)
		}
		if cfg.CacheDir != XDGCacheDir() || cfg.DataDir != XDGDataDir() {
			t.Errorf("expected XDG directories, got %q and %q", cfg.CacheDir, cfg.DataDir)
		}
	})

	t.Run("tor is off by default", func(t *testing.T) {
		t.Parallel()
		if cfg.UseTor || cfg.TorProxyAddress != "" {
			t.Error("expected no tor routing by default")
		}
		if cfg.TorStartupTimeout != 3*time.Minute {
			t.Errorf("expected TorStartupTimeout to be 3m, got %v", cfg.TorStartupTimeout)
		}
	})

	t.Run("defaults are valid", func(t *testing.T) {
		t.Parallel()
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected defaults to validate, got %v", err)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{name: "negative start page", modify: func(c *Config) { c.StartPage = -1 }, want: ErrInvalidStartPage},
		{name: "zero page extent", modify: func(c *Config) { c.PageExtent = 0 }, want: ErrInvalidPageExtent},
		{name: "zero timeout", modify: func(c *Config) { c.Timeout = 0 }, want: ErrInvalidTimeout},
		{name: "negative image size", modify: func(c *Config) { c.MaxImageSize = -1 }, want: ErrInvalidMaxImageSize},
		{name: "unlimited image size", modify: func(c *Config) { c.MaxImageSize = 0 }, want: nil},
		{name: "negative retries", modify: func(c *Config) { c.RetryMax = -1 }, want: ErrInvalidRetryMax},
		{name: "no retries", modify: func(c *Config) { c.RetryMax = 0 }, want: nil},
		{name: "zero thumbnail size", modify: func(c *Config) { c.ThumbnailSize = 0 }, want: ErrInvalidThumbnailSize},
		{name: "zero cache entries", modify: func(c *Config) { c.MemoryCacheEntries = 0 }, want: ErrInvalidCacheEntries},
		{name: "zero batch size", modify: func(c *Config) { c.BatchSize = 0 }, want: ErrInvalidBatchSize},
		{
			name:   "both report formats",
			modify: func(c *Config) { c.JSONReport, c.MarkdownReport = true, true },
			want:   ErrConflictingReportFormats,
		},
		{name: "token without endpoint", modify: func(c *Config) { c.APIToken = "t" }, want: ErrTokenWithoutAPI},
		{
			name:   "token with endpoint",
			modify: func(c *Config) { c.APIToken, c.APIBaseURL = "t", "https://api.example.com" },
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		f, err := LoadConfigFile("/nonexistent/path/.photobrowse")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if f != nil {
			t.Error("expected nil file when not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, ".photobrowse")
		content := `api:
  baseUrl: https://api.example.com/v1
  token: secret
userAgent: custom/1.0
torProxy: 127.0.0.1:9150
galleries:
  holiday: galleries/holiday.yaml
  absolute: /srv/photos/all.yaml
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		f, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.API.BaseURL != "https://api.example.com/v1" || f.API.Token != "secret" {
			t.Errorf("unexpected api section: %+v", f.API)
		}

		got, err := f.GalleryPath("holiday")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := filepath.Join(dir, "galleries", "holiday.yaml"); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
		if got, _ := f.GalleryPath("absolute"); got != "/srv/photos/all.yaml" {
			t.Errorf("expected absolute path kept, got %q", got)
		}
		if _, err := f.GalleryPath("missing"); !errors.Is(err, ErrUnknownGallery) {
			t.Errorf("expected ErrUnknownGallery, got %v", err)
		}
		if names := f.GalleryNames(); len(names) != 2 || names[0] != "absolute" {
			t.Errorf("expected sorted names, got %v", names)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".photobrowse")
		if err := os.WriteFile(path, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("initializes nil Galleries map", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".photobrowse")
		if err := os.WriteFile(path, []byte("userAgent: x\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		f, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.Galleries == nil {
			t.Error("expected Galleries map to be initialized")
		}
	})
}

func TestApplyFile(t *testing.T) {
	t.Parallel()

	f := &File{
		API:       API{BaseURL: "https://api.example.com", Token: "file-token"},
		UserAgent: "file-agent",
		TorProxy:  "127.0.0.1:9150",
	}

	t.Run("file fills unset options", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.ApplyFile(f, nil)
		if cfg.APIBaseURL != "https://api.example.com" || cfg.APIToken != "file-token" {
			t.Errorf("expected api settings from file, got %q %q", cfg.APIBaseURL, cfg.APIToken)
		}
		if cfg.UserAgent != "file-agent" || cfg.TorProxyAddress != "127.0.0.1:9150" {
			t.Errorf("expected agent and proxy from file, got %q %q", cfg.UserAgent, cfg.TorProxyAddress)
		}
	})

	t.Run("flags win over the file", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.APIToken = "flag-token"
		cfg.ApplyFile(f, func(flag string) bool { return flag == "token" })
		if cfg.APIToken != "flag-token" {
			t.Errorf("expected flag token kept, got %q", cfg.APIToken)
		}
		if cfg.APIBaseURL != "https://api.example.com" {
			t.Errorf("expected base url from file, got %q", cfg.APIBaseURL)
		}
	})

	t.Run("nil file is ignored", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.ApplyFile(nil, nil)
		if cfg.APIBaseURL != "" {
			t.Errorf("expected no api url, got %q", cfg.APIBaseURL)
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile("/nonexistent/path/config.yaml"); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})
}

func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{
		"data":   XDGDataDir(),
		"config": XDGConfigDir(),
		"cache":  XDGCacheDir(),
	} {
		if filepath.Base(dir) != AppName {
			t.Errorf("expected %s dir to end with %q, got %q", name, AppName, dir)
		}
	}
}
