package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/photobrowse/internal/dispatch"
	"github.com/nao1215/photobrowse/internal/gallery"
	"github.com/nao1215/photobrowse/internal/warm"
)

// errIncomplete is returned when some pages could not be processed.
var errIncomplete = errors.New("some pages failed")

// NewWarmCmd creates the warm command.
func NewWarmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "warm [gallery.yaml | name | dir | files... | urls...]",
		Short: "Prefetch the thumbnails of a gallery",
		Long: `Warm downloads every page of a gallery and stores its square thumbnail
in the cache, so that the viewer shows a preview before the full image
arrives. Side data is fetched and stored as well.

Examples:
  # Warm a gallery with 16 concurrent downloads
  photobrowse warm --batch 16 gallery.yaml

  # Rebuild the thumbnails from scratch
  photobrowse warm --purge gallery.yaml

  # Refetch side data and drop side data older than 30 days
  photobrowse warm --refresh --prune 720h gallery.yaml`,
		Args: cobra.ArbitraryArgs,
		RunE: runWarmCmd,
	}

	addSourceFlags(cmd)
	cmd.Flags().IntP("batch", "b", warm.DefaultConcurrency,
		"Number of concurrent downloads")
	cmd.Flags().Bool("purge", false,
		"Delete cached thumbnails before warming")
	cmd.Flags().Bool("refresh", false,
		"Delete stored side data of the gallery before warming")
	cmd.Flags().Duration("prune", 0,
		"Delete side data of any gallery not updated within this duration (0 keeps everything)")

	return cmd
}

// runWarmCmd executes the warm command.
func runWarmCmd(cmd *cobra.Command, args []string) error {
	cfg, file, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	src, err := sourceFromFlags(cmd, args)
	if err != nil {
		return err
	}
	purge, err := cmd.Flags().GetBool("purge")
	if err != nil {
		return err
	}
	refresh, err := cmd.Flags().GetBool("refresh")
	if err != nil {
		return err
	}
	prune, err := cmd.Flags().GetDuration("prune")
	if err != nil {
		return err
	}
	if prune < 0 {
		return fmt.Errorf("--prune must not be negative: %s", prune)
	}

	logger := newStderrLogger(cmd.ErrOrStderr(), cfg)
	ctx, cancel := signalContext(logger)
	defer cancel()

	s, err := openSession(ctx, cfg, file, src, logger, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

	if purge {
		if err := s.cache.Purge(s.thumbnailFormat()); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if err := housekeep(ctx, out, s, refresh, prune); err != nil {
		return err
	}

	startTime := time.Now()
	fmt.Fprintf(out, "Warming %d pages of %s (concurrency: %d)...\n\n",
		len(s.manifest.Images), s.manifest.Title, cfg.BatchSize)

	results, err := runPages(ctx, s, warmSteps(s), progress(out, len(s.manifest.Images)))
	if err != nil {
		return err
	}

	warmed := 0
	for _, r := range results {
		if r.OK() {
			warmed++
		}
	}
	fmt.Fprintf(out, "\nWarmed %d of %d pages in %s\n",
		warmed, len(results), time.Since(startTime).Round(time.Millisecond))
	if stored, err := s.db.CountSidecars(ctx, s.manifest.Key()); err == nil {
		fmt.Fprintf(out, "Side data stored for %d pages\n", stored)
	}
	if warmed < len(results) {
		return fmt.Errorf("%w: %d of %d", errIncomplete, len(results)-warmed, len(results))
	}
	return nil
}

// housekeep drops stale side data before a warm run.
func housekeep(ctx context.Context, out io.Writer, s *session, refresh bool, prune time.Duration) error {
	if prune > 0 {
		n, err := s.db.PurgeOlderThan(ctx, time.Now().Add(-prune))
		if err != nil {
			return err
		}
		if n > 0 {
			fmt.Fprintf(out, "Pruned side data of %d pages older than %s\n", n, prune)
		}
	}
	if !refresh {
		return nil
	}

	key := s.manifest.Key()
	removed := 0
	for page := range s.manifest.Images {
		ok, err := s.db.HasSidecar(ctx, key, page)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := s.db.DeleteSidecar(ctx, key, page); err != nil {
			return err
		}
		removed++
	}
	if removed > 0 {
		fmt.Fprintf(out, "Cleared side data of %d pages\n", removed)
	}
	return nil
}

// warmSteps loads a page, stores its thumbnail and its side data.
func warmSteps(s *session) func(*gallery.Gallery, *dispatch.Loop) []warm.Step {
	return func(g *gallery.Gallery, loop *dispatch.Loop) []warm.Step {
		return []warm.Step{
			warm.NewLoadStep(g, loop),
			warm.NewThumbnailStep(s.cache, s.thumbnailFormat(), loop),
			warm.NewSidecarStep(s.sidecars(g)),
		}
	}
}

// runPages opens the session's gallery on a private control loop and runs
// the steps built by steps over every page.
func runPages(ctx context.Context, s *session, steps func(*gallery.Gallery, *dispatch.Loop) []warm.Step, callback func(warm.Result)) ([]warm.Result, error) {
	loop := dispatch.NewLoop(dispatch.WithLoopLogger(s.logger))
	go func() {
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("control loop stopped", "error", err)
		}
	}()
	defer func() {
		loop.Close()
		<-loop.Done()
	}()

	g, err := gallery.New(s.newLoader(ctx, loop), s.manifest)
	if err != nil {
		return nil, err
	}

	pipeline := warm.NewPipeline(steps(g, loop), warm.WithLogger(s.logger))
	warmer := warm.NewWarmer(pipeline,
		warm.WithConcurrency(s.cfg.BatchSize),
		warm.WithWarmerLogger(s.logger),
	)
	return warmer.Run(ctx, warm.AllPages(g.NumberOfImages()), callback)
}

// progress prints one line per finished page.
func progress(out io.Writer, total int) func(warm.Result) {
	var mu sync.Mutex
	done := 0
	return func(r warm.Result) {
		mu.Lock()
		defer mu.Unlock()
		done++
		if r.Err != nil {
			fmt.Fprintf(out, "[%d/%d] page %d failed: %v\n", done, total, r.Page+1, r.Err)
			return
		}
		fmt.Fprintf(out, "[%d/%d] page %d %s (%s, %d bytes)\n",
			done, total, r.Page+1, r.URL, r.Format, r.Size)
	}
}
