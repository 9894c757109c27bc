package browser

import (
	"fmt"
	"math"

	"github.com/nao1215/photobrowse/internal/entity"
)

// PageForOffset maps a scroll offset to the page whose centre is closest:
// floor((offset*2 + extent) / (extent*2)).
func PageForOffset(offset, extent float64) int {
	if extent <= 0 {
		return 0
	}
	return int(math.Floor((offset*2 + extent) / (extent * 2)))
}

// Viewer converts scroll positions into the current page and keeps the
// controller's window on it. Pages are laid out one extent apart.
type Viewer struct {
	ctrl      *Controller
	source    DataSource
	startPage int

	extent  float64
	offset  float64
	current int
	count   int
	laidOut bool
}

// NewViewer creates a Viewer that opens on startPage.
func NewViewer(ctrl *Controller, source DataSource, startPage int) *Viewer {
	return &Viewer{
		ctrl:      ctrl,
		source:    source,
		startPage: startPage,
	}
}

// Layout sets the page extent. The first call reads the page count, jumps
// to the start page and materializes its window.
func (v *Viewer) Layout(extent float64) {
	if extent <= 0 {
		return
	}
	if !v.laidOut {
		v.laidOut = true
		v.count = v.source.NumberOfImages()
		v.ctrl.SetCount(v.count)
		v.extent = extent
		v.current = clampPage(v.startPage, v.count)
		v.offset = float64(v.current) * extent
		v.recompute()
		return
	}

	// Keep the current page in place when the extent changes.
	v.extent = extent
	v.offset = float64(v.current) * extent
	v.recompute()
}

// Scroll moves to offset, clamped to the content, and updates the window.
func (v *Viewer) Scroll(offset float64) {
	if !v.laidOut {
		return
	}
	v.offset = math.Max(0, math.Min(offset, v.maxOffset()))
	v.current = PageForOffset(v.offset, v.extent)
	v.recompute()
}

// ScrollBy scrolls relative to the current offset.
func (v *Viewer) ScrollBy(delta float64) {
	v.Scroll(v.offset + delta)
}

// JumpTo scrolls so that page is fully visible.
func (v *Viewer) JumpTo(page int) {
	v.Scroll(float64(clampPage(page, v.count)) * v.extent)
}

// RetryCurrent reloads the current page if its last load failed.
func (v *Viewer) RetryCurrent() bool {
	return v.ctrl.RetryPage(v.current)
}

// CurrentPage returns the page index derived from the last scroll offset.
func (v *Viewer) CurrentPage() int { return v.current }

// Count returns the number of pages read at layout time.
func (v *Viewer) Count() int { return v.count }

// Offset returns the scroll offset.
func (v *Viewer) Offset() float64 { return v.offset }

// Extent returns the page extent.
func (v *Viewer) Extent() float64 { return v.extent }

// CurrentImage returns the entity of the current page, or nil for an empty gallery.
func (v *Viewer) CurrentImage() *entity.ImageEntity {
	if v.count == 0 {
		return nil
	}
	return v.source.ImageEntityForPage(v.current)
}

// Title returns "<page> / <count>" with a 1-based page number.
func (v *Viewer) Title() string {
	if v.count == 0 {
		return "0 / 0"
	}
	return fmt.Sprintf("%d / %d", v.current+1, v.count)
}

func (v *Viewer) recompute() {
	v.ctrl.RecomputeWindow(v.current, v.count)
}

func (v *Viewer) maxOffset() float64 {
	if v.count == 0 {
		return 0
	}
	return float64(v.count-1) * v.extent
}

func clampPage(page, count int) int {
	if count <= 0 {
		return 0
	}
	return max(0, min(page, count-1))
}
