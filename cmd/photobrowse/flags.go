package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nao1215/photobrowse/internal/config"
)

// addSourceFlags adds the flags shared by every command that opens a gallery.
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("html", "",
		"Browse the photos of an HTML page instead of the arguments")

	// Network
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout of a single HTTP exchange")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent of image and API requests")
	cmd.Flags().Int64("max-image-size", config.DefaultMaxImageSize,
		"Maximum bytes of one image (0 disables the limit)")
	cmd.Flags().Int("retry", config.DefaultRetryMax,
		"Retries of transient HTTP failures")

	// Tor
	cmd.Flags().Bool("tor", false,
		"Route every request through an embedded Tor daemon")
	cmd.Flags().String("tor-proxy", "",
		"Route every request through a running Tor SOCKS5 proxy (e.g. "+config.DefaultTorProxyAddress+")")
	cmd.Flags().DurationP("tor-timeout", "T", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")

	// Side data
	cmd.Flags().String("api", "",
		"Base URL of the photo API for owner, likes and comments")
	cmd.Flags().String("token", "",
		"Bearer token of the photo API")

	// Storage
	cmd.Flags().String("cache-dir", config.XDGCacheDir(),
		"Thumbnail cache directory")
	cmd.Flags().String("data-dir", config.XDGDataDir(),
		"Side data database directory")
	cmd.Flags().Int("thumbnail-size", config.DefaultThumbnailSize,
		"Edge length of square thumbnails in pixels")

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .photobrowse in current or home directory)")
}

// buildConfig creates a Config from the flags of cmd and the config file.
// Flags the command does not define keep their defaults.
func buildConfig(cmd *cobra.Command) (*config.Config, *config.File, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	getString := func(name string, dst *string) {
		if err == nil && flags.Lookup(name) != nil {
			*dst, err = flags.GetString(name)
		}
	}
	getInt := func(name string, dst *int) {
		if err == nil && flags.Lookup(name) != nil {
			*dst, err = flags.GetInt(name)
		}
	}
	getBool := func(name string, dst *bool) {
		if err == nil && flags.Lookup(name) != nil {
			*dst, err = flags.GetBool(name)
		}
	}

	getString("user-agent", &cfg.UserAgent)
	getString("tor-proxy", &cfg.TorProxyAddress)
	getString("api", &cfg.APIBaseURL)
	getString("token", &cfg.APIToken)
	getString("cache-dir", &cfg.CacheDir)
	getString("data-dir", &cfg.DataDir)
	getString("config", &cfg.ConfigFilePath)
	getString("output", &cfg.ReportFile)
	getInt("retry", &cfg.RetryMax)
	getInt("thumbnail-size", &cfg.ThumbnailSize)
	getInt("batch", &cfg.BatchSize)
	getInt("start", &cfg.StartPage)
	getBool("tor", &cfg.UseTor)
	getBool("json", &cfg.JSONReport)
	getBool("markdown", &cfg.MarkdownReport)
	cfg.Verbose = getVerboseFlag(cmd)
	if err != nil {
		return nil, nil, err
	}

	if flags.Lookup("timeout") != nil {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, nil, err
		}
	}
	if flags.Lookup("tor-timeout") != nil {
		if cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout"); err != nil {
			return nil, nil, err
		}
	}
	if flags.Lookup("max-image-size") != nil {
		if cfg.MaxImageSize, err = flags.GetInt64("max-image-size"); err != nil {
			return nil, nil, err
		}
	}

	// An explicit config path must exist; otherwise a missing file means
	// no file.
	var file *config.File
	if path := config.FindConfigFile(cfg.ConfigFilePath); path != "" {
		file, err = config.LoadConfigFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		cfg.ApplyFile(file, func(name string) bool {
			return flagChanged(flags, name)
		})
	} else if cfg.ConfigFilePath != "" {
		return nil, nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if cfg.UseTor && cfg.TorProxyAddress != "" && flagChanged(flags, "tor-proxy") {
		return nil, nil, errors.New("--tor and --tor-proxy cannot be used together")
	}
	// An embedded daemon wins over a proxy from the config file.
	if cfg.UseTor {
		cfg.TorProxyAddress = ""
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, file, nil
}

func flagChanged(flags *pflag.FlagSet, name string) bool {
	f := flags.Lookup(name)
	return f != nil && f.Changed
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}
