package warm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/photobrowse/internal/entity"
	"github.com/nao1215/photobrowse/internal/photometa"
	"github.com/nao1215/photobrowse/internal/sidecar"
	"github.com/nao1215/photobrowse/internal/thumbcache"
)

// ErrNoImage is returned when the data source has no entity for a page.
var ErrNoImage = errors.New("no image for page")

// Source provides the entities to warm.
type Source interface {
	ImageEntityForPage(page int) *entity.ImageEntity
	NumberOfImages() int
}

// Runner executes work on the control loop the entities deliver on and waits
// for it. *dispatch.Loop implements it.
type Runner interface {
	Do(ctx context.Context, fn func()) error
}

// SidecarProvider looks up the side data of a page.
type SidecarProvider interface {
	PopulateSidecar(ctx context.Context, page int) (sidecar.Data, error)
}

// LoadStep loads the page's source image and records its format, size and
// bounds. A failed load stops the pipeline with the load error.
type LoadStep struct {
	source Source
	runner Runner
}

// NewLoadStep creates a LoadStep.
func NewLoadStep(source Source, runner Runner) *LoadStep {
	return &LoadStep{source: source, runner: runner}
}

// Name returns "load".
func (s *LoadStep) Name() string { return "load" }

// Do runs one load cycle and waits for its completion.
func (s *LoadStep) Do(ctx context.Context, r *Result) error {
	img := s.source.ImageEntityForPage(r.Page)
	if img == nil {
		return fmt.Errorf("%w %d", ErrNoImage, r.Page)
	}
	r.image = img
	r.URL = img.URL()
	r.UUID = img.UUID()

	done := make(chan error, 1)
	err := s.runner.Do(ctx, func() {
		img.SetPage(r.Page)
		img.BeginLoad(func(err error) { done <- err })
	})
	if err != nil {
		return err
	}

	var loadErr error
	select {
	case loadErr = <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	err = s.runner.Do(ctx, func() {
		r.State = img.State()
		r.Format = img.Format()
		r.data = img.SourceData()
		r.Size = len(r.data)
		if src := img.SourceImage(); src != nil {
			r.Bounds = src.Bounds()
		}
	})
	if err != nil {
		return err
	}
	return loadErr
}

// ThumbnailStep derives the square thumbnail of a loaded page into a cache
// and hands it to the entity.
type ThumbnailStep struct {
	cache  *thumbcache.Cache
	format thumbcache.Format
	runner Runner
}

// NewThumbnailStep creates a ThumbnailStep for format.
func NewThumbnailStep(cache *thumbcache.Cache, format thumbcache.Format, runner Runner) *ThumbnailStep {
	return &ThumbnailStep{cache: cache, format: format, runner: runner}
}

// Name returns "thumbnail".
func (s *ThumbnailStep) Name() string { return "thumbnail" }

// Do retrieves or renders the thumbnail.
func (s *ThumbnailStep) Do(ctx context.Context, r *Result) error {
	if r.image == nil {
		return fmt.Errorf("%w %d", ErrNoImage, r.Page)
	}
	thumb, err := s.cache.RetrieveImage(ctx, r.image, s.format, thumbcache.DrawSquare(s.format.Opaque))
	if err != nil {
		return fmt.Errorf("failed to derive thumbnail of page %d: %w", r.Page, err)
	}
	r.Thumbnail = thumb

	img := r.image
	return s.runner.Do(ctx, func() { img.SetThumbnail(thumb) })
}

// MetadataStep summarizes the EXIF block of a loaded page. Images without
// EXIF data or with unreadable EXIF data are left without a summary.
type MetadataStep struct {
	logger *slog.Logger
}

// NewMetadataStep creates a MetadataStep.
func NewMetadataStep(logger *slog.Logger) *MetadataStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &MetadataStep{logger: logger}
}

// Name returns "metadata".
func (s *MetadataStep) Name() string { return "metadata" }

// Do extracts the summary.
func (s *MetadataStep) Do(_ context.Context, r *Result) error {
	if len(r.data) == 0 {
		return nil
	}
	summary, err := photometa.Extract(r.data)
	if err != nil {
		if !errors.Is(err, photometa.ErrNoExif) {
			s.logger.Debug("unreadable exif", "page", r.Page, "error", err)
		}
		return nil
	}
	r.Metadata = &summary
	return nil
}

// SidecarStep populates the side data of a page. Lookup failures are
// recorded in Result.SidecarErr.
type SidecarStep struct {
	provider SidecarProvider
}

// NewSidecarStep creates a SidecarStep.
func NewSidecarStep(provider SidecarProvider) *SidecarStep {
	return &SidecarStep{provider: provider}
}

// Name returns "sidecar".
func (s *SidecarStep) Name() string { return "sidecar" }

// Do populates the side data.
func (s *SidecarStep) Do(ctx context.Context, r *Result) error {
	data, err := s.provider.PopulateSidecar(ctx, r.Page)
	if err != nil {
		r.SidecarErr = err
		return nil
	}
	r.Sidecar = &data
	return nil
}
