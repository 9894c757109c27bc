package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/nao1215/photobrowse/internal/browser"
	"github.com/nao1215/photobrowse/internal/config"
	"github.com/nao1215/photobrowse/internal/dispatch"
	"github.com/nao1215/photobrowse/internal/gallery"
	"github.com/nao1215/photobrowse/internal/log"
	"github.com/nao1215/photobrowse/internal/thumbcache"
	"github.com/nao1215/photobrowse/internal/tui"
)

// logFileName is written below the data directory while the viewer owns the terminal.
const logFileName = "photobrowse.log"

// NewViewCmd creates the view command.
func NewViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view [gallery.yaml | name | dir | files... | urls...]",
		Short: "Browse a gallery page by page",
		Long: `View opens a gallery in a full-screen pager. Each page shows one photo
with its owner, likes and latest comments.

Only the current page and its neighbours are loaded. Pages that scroll out of
that window pause their downloads and release their views; scrolling back
resumes them where they stopped.

Keys:
  j/down, k/up     scroll a quarter page
  space/pgdown, b  next, previous page
  g, G             first, last page
  r                retry a page that failed to load
  q                quit

Examples:
  # A gallery file
  photobrowse view gallery.yaml

  # A gallery registered in .photobrowse
  photobrowse view holiday

  # All images of a directory, opening on the third
  photobrowse view --start 2 ~/Pictures/trip

  # The photos of a web page, through Tor
  photobrowse view --tor --html https://example.com/album`,
		Args: cobra.ArbitraryArgs,
		RunE: runViewCmd,
	}

	addSourceFlags(cmd)
	cmd.Flags().IntP("start", "s", 0,
		"0-based page to open on (default: the gallery's start page)")

	return cmd
}

// runViewCmd executes the view command.
func runViewCmd(cmd *cobra.Command, args []string) error {
	cfg, file, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	src, err := sourceFromFlags(cmd, args)
	if err != nil {
		return err
	}

	// The terminal belongs to the viewer; log to a file instead.
	logger, closeLog, err := fileLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := signalContext(logger)
	defer cancel()

	s, err := openSession(ctx, cfg, file, src, logger, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

	start := -1
	if flagChanged(cmd.Flags(), "start") {
		start = cfg.StartPage
	}
	model, err := newViewerModel(ctx, s, start, userLanguage())
	if err != nil {
		return err
	}
	return tui.Run(ctx, model)
}

// newViewerModel wires a gallery into a viewer on a queue drained by the TUI.
// A negative start opens the gallery's own start page.
func newViewerModel(ctx context.Context, s *session, start int, lang language.Tag) (*tui.Model, error) {
	waker := tui.NewWaker()
	queue := dispatch.NewManual(dispatch.WithNotify(waker.Notify))

	g, err := gallery.New(s.newLoader(ctx, queue), s.manifest)
	if err != nil {
		return nil, err
	}
	primeThumbnails(ctx, s.cache, s.thumbnailFormat(), g, s.logger)
	if start < 0 {
		start = g.StartPage()
	}

	board := tui.NewBoard(lang)
	ctrl := browser.NewController(g, board, board, queue,
		browser.WithSidecarProvider(s.sidecars(g)),
		browser.WithLogger(s.logger),
		browser.WithContext(ctx),
	)
	viewer := browser.NewViewer(ctrl, g, start)
	return tui.New(viewer, board, queue, waker, tui.WithTitle(g.Title())), nil
}

// primeThumbnails hands cached thumbnails to their entities so that pages
// show a preview before their source image arrives.
func primeThumbnails(ctx context.Context, cache *thumbcache.Cache, f thumbcache.Format, g *gallery.Gallery, logger *slog.Logger) {
	primed := 0
	for _, img := range g.Entities() {
		if !cache.Contains(img.UUID(), f) {
			continue
		}
		thumb, err := cache.RetrieveImage(ctx, img, f, nil)
		if err != nil {
			logger.Debug("cached thumbnail unavailable", "url", img.URL(), "error", err)
			continue
		}
		img.SetThumbnail(thumb)
		primed++
	}
	logger.Debug("thumbnails primed", "count", primed, "pages", g.NumberOfImages())
}

// fileLogger opens the log file of the viewer in the data directory.
func fileLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	path := filepath.Join(cfg.DataDir, logFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) //nolint:gosec // path below the data directory
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return log.NewJSON(f, cfg.Verbose), func() { _ = f.Close() }, nil
}

// newStderrLogger returns the logger of commands that do not own the terminal.
func newStderrLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	return log.New(w, cfg.Verbose)
}

// userLanguage returns the language of the user's locale, e.g. ja for
// LANG=ja_JP.UTF-8, or English when unset or unknown.
func userLanguage() language.Tag {
	for _, env := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		v := os.Getenv(env)
		if v == "" || v == "C" || v == "POSIX" {
			continue
		}
		v, _, _ = strings.Cut(v, ".")
		v, _, _ = strings.Cut(v, "@")
		if tag, err := language.Parse(strings.ReplaceAll(v, "_", "-")); err == nil {
			return tag
		}
	}
	return language.English
}
