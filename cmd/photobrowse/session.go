package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/photobrowse/internal/api"
	"github.com/nao1215/photobrowse/internal/config"
	"github.com/nao1215/photobrowse/internal/database"
	"github.com/nao1215/photobrowse/internal/dispatch"
	"github.com/nao1215/photobrowse/internal/entity"
	"github.com/nao1215/photobrowse/internal/gallery"
	"github.com/nao1215/photobrowse/internal/sidecar"
	"github.com/nao1215/photobrowse/internal/thumbcache"
	"github.com/nao1215/photobrowse/internal/tor"
	"github.com/nao1215/photobrowse/internal/transport"
)

// errNoGallery is returned when neither arguments nor --html name a gallery.
var errNoGallery = errors.New("no gallery given (pass a gallery file, image files, a directory, URLs or --html)")

// source names the gallery on the command line.
type source struct {
	args []string
	html string
}

// sourceFromFlags reads the gallery source of cmd.
func sourceFromFlags(cmd *cobra.Command, args []string) (source, error) {
	html, err := cmd.Flags().GetString("html")
	if err != nil {
		return source{}, err
	}
	return source{args: args, html: html}, nil
}

// session holds everything a command needs to open one gallery.
type session struct {
	cfg    *config.Config
	file   *config.File
	logger *slog.Logger
	status io.Writer

	base     *http.Client
	client   *http.Client
	embedded *tor.EmbeddedTor
	db       *database.SidecarDB
	remote   *api.Client
	cache    *thumbcache.Cache
	manifest *gallery.Manifest
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// openSession sets up networking, storage and the manifest of the gallery
// named by src. Close must be called on the returned session.
func openSession(ctx context.Context, cfg *config.Config, file *config.File, src source, logger *slog.Logger, status io.Writer) (*session, error) {
	s := &session{cfg: cfg, file: file, logger: logger, status: status}
	if err := s.open(ctx, src); err != nil {
		s.Close()
		return nil, err
	}
	logger.Info("gallery opened", "title", s.manifest.Title, "pages", len(s.manifest.Images))
	return s, nil
}

func (s *session) open(ctx context.Context, src source) error {
	if err := s.openNetwork(ctx); err != nil {
		return err
	}

	var err error
	s.db, err = database.Open(s.cfg.DataDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.logger.Debug("database opened", "path", s.db.Path())

	if s.cfg.APIBaseURL != "" {
		s.remote, err = api.NewClient(s.cfg.APIBaseURL,
			api.WithToken(s.cfg.APIToken),
			api.WithHTTPClient(s.base),
			api.WithRetry(s.cfg.RetryMax, transport.DefaultRetryWaitMax),
			api.WithUserAgent(s.cfg.UserAgent),
			api.WithLogger(s.logger),
		)
		if err != nil {
			return err
		}
	}

	s.cache, err = thumbcache.New(s.cfg.MemoryCacheEntries,
		thumbcache.WithDir(filepath.Join(s.cfg.CacheDir, "thumbnails")),
		thumbcache.WithLogger(s.logger),
	)
	if err != nil {
		return err
	}

	s.manifest, err = s.resolveManifest(ctx, src)
	return err
}

// openNetwork creates the HTTP client, routed through Tor when asked to.
func (s *session) openNetwork(ctx context.Context) error {
	base := &http.Client{Timeout: s.cfg.Timeout}

	switch {
	case s.cfg.UseTor:
		fmt.Fprintln(s.status, "Starting embedded Tor daemon...")
		fmt.Fprintf(s.status, "This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

		s.embedded = tor.NewEmbeddedTor(
			tor.WithStartupTimeout(s.cfg.TorStartupTimeout),
			tor.WithLogger(s.logger),
		)
		if err := s.embedded.Start(ctx); err != nil {
			s.embedded = nil
			return fmt.Errorf("failed to start embedded Tor: %w", err)
		}
		s.logger.Info("embedded Tor daemon started", "socksAddr", s.embedded.SocksAddr())

		client, err := s.embedded.NewClient(s.cfg.Timeout)
		if err != nil {
			return fmt.Errorf("failed to create Tor client: %w", err)
		}
		if status := client.CheckConnection(ctx); status != tor.ProxyStatusOK {
			return fmt.Errorf("embedded Tor proxy check failed: %w", status.Err())
		}
		base = client.NewHTTPClient()

	case s.cfg.TorProxyAddress != "":
		client, err := tor.NewClient(s.cfg.TorProxyAddress, s.cfg.Timeout)
		if err != nil {
			return fmt.Errorf("failed to create Tor client: %w", err)
		}
		if status := client.CheckConnection(ctx); status != tor.ProxyStatusOK {
			return fmt.Errorf("tor proxy check failed: %w (make sure Tor is running at %s)",
				status.Err(), s.cfg.TorProxyAddress)
		}
		s.logger.Info("Tor proxy connection verified", "address", client.ProxyAddress())
		base = client.NewHTTPClient()
	}

	// The API client retries on its own and gets the plain client.
	s.base = base
	s.client = transport.NewRetryingClient(base, s.cfg.RetryMax, s.logger)
	return nil
}

// resolveManifest turns the command line into a manifest:
// --html, then a gallery file, then a gallery name from the config file,
// then image files, directories and URLs.
func (s *session) resolveManifest(ctx context.Context, src source) (*gallery.Manifest, error) {
	args := src.args
	if src.html != "" {
		if len(args) > 0 {
			return nil, errors.New("--html cannot be combined with arguments")
		}
		return gallery.FromHTML(ctx, s.client, src.html, s.cfg.UserAgent)
	}
	if len(args) == 0 {
		return nil, errNoGallery
	}

	if len(args) == 1 {
		arg := args[0]
		if ext := strings.ToLower(filepath.Ext(arg)); ext == ".yaml" || ext == ".yml" {
			return gallery.LoadFile(arg)
		}
		if s.file != nil {
			if _, statErr := os.Stat(arg); statErr != nil {
				if path, err := s.file.GalleryPath(arg); err == nil {
					return gallery.LoadFile(path)
				}
			}
		}
	}
	return gallery.FromArgs(args)
}

// newLoader creates a loader whose entities deliver on queue.
func (s *session) newLoader(ctx context.Context, queue dispatch.Queue) *entity.Loader {
	network := transport.NewHTTPTransport(s.client,
		transport.WithUserAgent(s.cfg.UserAgent),
		transport.WithMaxBodySize(s.cfg.MaxImageSize),
		transport.WithHeaders(s.cfg.Headers),
		transport.WithLogger(s.logger),
	)
	return entity.NewLoader(network, queue,
		entity.WithMaxImageSize(s.cfg.MaxImageSize),
		entity.WithLogger(s.logger),
		entity.WithContext(ctx),
	)
}

// sidecars creates the side data service of g.
func (s *session) sidecars(g *gallery.Gallery) *sidecar.Service {
	opts := []sidecar.ServiceOption{
		sidecar.WithStore(s.db),
		sidecar.WithLogger(s.logger),
	}
	if s.remote != nil {
		opts = append(opts, sidecar.WithRemote(s.remote))
	}
	return sidecar.NewService(g.Key(), g, opts...)
}

// thumbnailFormat is the square thumbnail format of this run.
func (s *session) thumbnailFormat() thumbcache.Format {
	return thumbcache.OpaqueFormat(s.cfg.ThumbnailSize)
}

// Close releases the database and stops the embedded Tor daemon.
func (s *session) Close() {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Warn("failed to close database", "error", err)
		}
		s.db = nil
	}
	if s.embedded != nil {
		s.logger.Info("stopping embedded Tor daemon...")
		if err := s.embedded.Stop(); err != nil {
			s.logger.Error("failed to stop embedded Tor", "error", err)
		}
		s.embedded = nil
	}
}
