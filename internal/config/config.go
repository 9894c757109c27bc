package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName names the XDG directories.
	AppName = "photobrowse"

	// DefaultPageExtent is the number of terminal rows one page occupies.
	DefaultPageExtent = 24

	// DefaultTimeout bounds a single HTTP exchange.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent is sent with image and API requests.
	DefaultUserAgent = "photobrowse/1.0 (+https://github.com/nao1215/photobrowse)"

	// DefaultMaxImageSize bounds the bytes of one source image.
	DefaultMaxImageSize = 20 * 1024 * 1024

	// DefaultRetryMax is the number of retries for transient HTTP failures.
	DefaultRetryMax = 3

	// DefaultThumbnailSize is the edge length of square thumbnails in pixels.
	DefaultThumbnailSize = 64

	// DefaultMemoryCacheEntries is the capacity of the in-memory thumbnail tier.
	DefaultMemoryCacheEntries = 128

	// DefaultBatchSize is the number of concurrent downloads of the warm command.
	DefaultBatchSize = 8

	// DefaultTorProxyAddress is the SOCKS5 port of a system Tor daemon.
	DefaultTorProxyAddress = "127.0.0.1:9050"

	// DefaultTorStartupTimeout bounds bootstrapping of the embedded Tor daemon.
	DefaultTorStartupTimeout = 3 * time.Minute
)

// Config holds the options of one photobrowse run. It is filled from flags
// and the config file and passed down explicitly.
type Config struct {
	// StartPage is the 0-based page the viewer opens on.
	StartPage int

	// PageExtent is the height of a page in terminal rows.
	PageExtent int

	// Timeout bounds a single HTTP exchange.
	Timeout time.Duration

	// UserAgent is sent with every HTTP request.
	UserAgent string

	// Headers are added to every image request, e.g. a session cookie.
	Headers map[string]string

	// MaxImageSize bounds source image bytes. 0 disables the limit.
	MaxImageSize int64

	// RetryMax is the number of retries for transient HTTP failures.
	RetryMax int

	// ThumbnailSize is the edge length of square thumbnails.
	ThumbnailSize int

	// MemoryCacheEntries is the capacity of the in-memory thumbnail tier.
	MemoryCacheEntries int

	// CacheDir holds derived thumbnails.
	CacheDir string

	// DataDir holds the sidecar database.
	DataDir string

	// APIBaseURL is the photo API endpoint. Empty disables remote side data.
	APIBaseURL string

	// APIToken is sent as a bearer token to the photo API.
	APIToken string

	// Verbose enables debug logging.
	Verbose bool

	// UseTor routes every request through an embedded Tor daemon.
	UseTor bool

	// TorProxyAddress routes requests through an already running Tor
	// SOCKS5 proxy. Empty means no external proxy.
	TorProxyAddress string

	// TorStartupTimeout bounds bootstrapping of the embedded Tor daemon.
	TorStartupTimeout time.Duration

	// BatchSize is the number of concurrent downloads of the warm command.
	BatchSize int

	// JSONReport selects JSON output for inspect.
	JSONReport bool

	// MarkdownReport selects Markdown output for inspect.
	MarkdownReport bool

	// ReportFile is written instead of stdout when set.
	ReportFile string

	// ConfigFilePath is an explicit .photobrowse path.
	ConfigFilePath string
}

// NewConfig returns a Config with default values.
func NewConfig() *Config {
	return &Config{
		PageExtent:         DefaultPageExtent,
		Timeout:            DefaultTimeout,
		UserAgent:          DefaultUserAgent,
		MaxImageSize:       DefaultMaxImageSize,
		RetryMax:           DefaultRetryMax,
		ThumbnailSize:      DefaultThumbnailSize,
		MemoryCacheEntries: DefaultMemoryCacheEntries,
		CacheDir:           XDGCacheDir(),
		DataDir:            XDGDataDir(),
		TorStartupTimeout:  DefaultTorStartupTimeout,
		BatchSize:          DefaultBatchSize,
	}
}

// XDGDataDir returns the data directory, e.g. ~/.local/share/photobrowse.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the config directory, e.g. ~/.config/photobrowse.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the cache directory, e.g. ~/.cache/photobrowse.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// ApplyFile fills options the user did not set on the command line from the
// config file. set reports whether a flag was given explicitly.
func (c *Config) ApplyFile(f *File, set func(flag string) bool) {
	if f == nil {
		return
	}
	if set == nil {
		set = func(string) bool { return false }
	}
	if f.API.BaseURL != "" && !set("api") {
		c.APIBaseURL = f.API.BaseURL
	}
	if f.API.Token != "" && !set("token") {
		c.APIToken = f.API.Token
	}
	if f.UserAgent != "" && !set("user-agent") {
		c.UserAgent = f.UserAgent
	}
	if len(f.Headers) > 0 {
		c.Headers = f.Headers
	}
	if f.CacheDir != "" && !set("cache-dir") {
		c.CacheDir = f.CacheDir
	}
	if f.DataDir != "" && !set("data-dir") {
		c.DataDir = f.DataDir
	}
	if f.TorProxy != "" && !set("tor-proxy") {
		c.TorProxyAddress = f.TorProxy
	}
}

// Validate reports the first invalid option.
func (c *Config) Validate() error {
	if c.StartPage < 0 {
		return ErrInvalidStartPage
	}
	if c.PageExtent <= 0 {
		return ErrInvalidPageExtent
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxImageSize < 0 {
		return ErrInvalidMaxImageSize
	}
	if c.RetryMax < 0 {
		return ErrInvalidRetryMax
	}
	if c.ThumbnailSize <= 0 {
		return ErrInvalidThumbnailSize
	}
	if c.MemoryCacheEntries <= 0 {
		return ErrInvalidCacheEntries
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.APIToken != "" && c.APIBaseURL == "" {
		return ErrTokenWithoutAPI
	}
	return nil
}
