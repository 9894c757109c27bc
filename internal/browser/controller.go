package browser

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/nao1215/photobrowse/internal/dispatch"
	"github.com/nao1215/photobrowse/internal/entity"
)

// WindowRadius is how many pages on each side of the current page stay materialized.
const WindowRadius = 1

// page is a materialized page.
type page struct {
	view  PageView
	image *entity.ImageEntity
}

// Controller maintains the set of materialized pages.
//
// A page is materialized when it has a view in the container, a delegate
// registration on its entity and a running, resumed or finished load. Purging
// reverses all three: the view leaves the container, the registration is
// dropped and the load is paused, not cancelled, so scrolling back resumes
// where the download stopped.
//
// Design decision: the page map holds the window only. It never grows past
// 2*WindowRadius+1 entries, whatever the gallery size, and the entities of
// pages outside the window are owned by the data source alone.
//
// Side data lookups run off the control thread and post their results back
// onto the queue; a result for a page purged in the meantime is dropped.
type Controller struct {
	ctx       context.Context
	source    DataSource
	views     ViewFactory
	container Container
	queue     dispatch.Queue
	sidecars  SidecarProvider
	observers *entity.Observers
	logger    *slog.Logger

	loaded map[int]page
	count  int
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithSidecarProvider enables side data lookups for materialized pages.
func WithSidecarProvider(p SidecarProvider) ControllerOption {
	return func(c *Controller) {
		c.sidecars = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithContext bounds side data lookups.
func WithContext(ctx context.Context) ControllerOption {
	return func(c *Controller) {
		c.ctx = ctx
	}
}

// NewController creates a Controller. queue must be the control thread the
// entities of source deliver their completions on.
func NewController(source DataSource, views ViewFactory, container Container, queue dispatch.Queue, opts ...ControllerOption) *Controller {
	c := &Controller{
		ctx:       context.Background(),
		source:    source,
		views:     views,
		container: container,
		queue:     queue,
		observers: entity.NewObservers(),
		logger:    slog.Default(),
		loaded:    make(map[int]page),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetCount sets the number of pages. The page map is sized for the window,
// not for count.
func (c *Controller) SetCount(count int) {
	c.count = count
	if len(c.loaded) == 0 {
		c.loaded = make(map[int]page, 2*WindowRadius+1)
	}
}

// Count returns the number of pages.
func (c *Controller) Count() int { return c.count }

// RecomputeWindow materializes [current-1, current+1] clamped to [0, count)
// and purges every other page. Pages before the window are purged before the
// window is loaded, pages after it afterwards.
func (c *Controller) RecomputeWindow(current, count int) {
	c.count = count
	first := current - WindowRadius
	last := current + WindowRadius

	materialized := c.LoadedPages()
	for _, p := range materialized {
		if p < first {
			c.PurgePage(p)
		}
	}
	for p := first; p <= last; p++ {
		c.LoadPage(p)
	}
	for _, p := range materialized {
		if p > last {
			c.PurgePage(p)
		}
	}
}

// LoadPage materializes page p. Out-of-range and already materialized pages are ignored.
func (c *Controller) LoadPage(p int) {
	if p < 0 || p >= c.count {
		return
	}
	if _, ok := c.loaded[p]; ok {
		return
	}

	img := c.source.ImageEntityForPage(p)
	if img == nil {
		panic(fmt.Sprintf("browser: data source has no image for page %d of %d", p, c.count))
	}
	img.SetPage(p)

	view := c.views.NewPageView(p, img)
	c.loaded[p] = page{view: view, image: img}
	c.observers.Register(img, view)

	switch img.State() {
	case entity.NotLoaded:
		img.BeginLoad(func(err error) {
			c.loadCompleted(p, img, err)
		})
	case entity.Paused:
		img.ResumeLoad()
	case entity.Loading, entity.Ready, entity.Failed:
	}

	if src := img.SourceImage(); src != nil {
		view.SetImage(src)
	} else {
		view.SetImage(img.Thumbnail())
	}
	view.SetActivity(img.State())
	c.populateSidecar(p, view)

	c.container.AddPageView(p, view)
	c.logger.Debug("page materialized", "page", p, "state", img.State().String())
}

// PurgePage removes the view of page p and pauses its load.
// Pages that are not materialized are ignored.
func (c *Controller) PurgePage(p int) {
	pg, ok := c.loaded[p]
	if !ok {
		return
	}

	c.container.RemovePageView(p, pg.view)
	delete(c.loaded, p)
	c.observers.Unregister(pg.image)
	pg.image.PauseLoad()
	c.logger.Debug("page purged", "page", p, "state", pg.image.State().String())
}

// RetryPage starts a new load cycle for a materialized page whose last load failed.
// It reports whether a retry was started.
func (c *Controller) RetryPage(p int) bool {
	pg, ok := c.loaded[p]
	if !ok || pg.image.State() != entity.Failed {
		return false
	}
	pg.image.BeginLoad(func(err error) {
		c.loadCompleted(p, pg.image, err)
	})
	return true
}

// LoadedPages returns the materialized page indices in ascending order.
func (c *Controller) LoadedPages() []int {
	pages := make([]int, 0, len(c.loaded))
	for p := range c.loaded {
		pages = append(pages, p)
	}
	slices.Sort(pages)
	return pages
}

// PageView returns the view of a materialized page.
func (c *Controller) PageView(p int) (PageView, bool) {
	pg, ok := c.loaded[p]
	if !ok {
		return nil, false
	}
	return pg.view, true
}

// IsMaterialized reports whether page p has a view.
func (c *Controller) IsMaterialized(p int) bool {
	_, ok := c.loaded[p]
	return ok
}

// loadCompleted pushes a freshly decoded image into the page's current view.
// Completions for pages that were purged in the meantime are dropped.
func (c *Controller) loadCompleted(p int, img *entity.ImageEntity, err error) {
	pg, ok := c.loaded[p]
	if !ok {
		return
	}
	if err != nil {
		c.logger.Debug("page load failed", "page", p, "error", err)
		return
	}
	pg.view.SetImage(img.SourceImage())
}

func (c *Controller) populateSidecar(p int, view PageView) {
	if c.sidecars == nil {
		return
	}
	go func() {
		data, err := c.sidecars.PopulateSidecar(c.ctx, p)
		c.queue.Post(func() {
			pg, ok := c.loaded[p]
			if !ok || pg.view != view {
				return
			}
			if err != nil {
				c.logger.Debug("sidecar unavailable", "page", p, "error", err)
				return
			}
			view.SetSidecar(data)
		})
	}()
}
