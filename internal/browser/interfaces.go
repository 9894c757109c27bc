package browser

import (
	"context"
	"image"

	"github.com/nao1215/photobrowse/internal/entity"
	"github.com/nao1215/photobrowse/internal/sidecar"
)

// DataSource provides the entities of a gallery.
// The same index must always return the same entity.
type DataSource interface {
	ImageEntityForPage(page int) *entity.ImageEntity
	NumberOfImages() int
}

// PageView displays one materialized page.
type PageView interface {
	entity.Delegate

	// SetImage shows img; nil clears the image.
	SetImage(img image.Image)
	// SetActivity shows a busy/failed indicator for state.
	SetActivity(state entity.SourceImageState)
	// SetSidecar shows owner, favorites and comments.
	SetSidecar(data sidecar.Data)
}

// ViewFactory builds a view for a page that is being materialized.
type ViewFactory interface {
	NewPageView(page int, img *entity.ImageEntity) PageView
}

// ViewFactoryFunc adapts a function to ViewFactory.
type ViewFactoryFunc func(page int, img *entity.ImageEntity) PageView

// NewPageView calls f.
func (f ViewFactoryFunc) NewPageView(page int, img *entity.ImageEntity) PageView {
	return f(page, img)
}

// Container hosts the views of materialized pages.
type Container interface {
	AddPageView(page int, view PageView)
	RemovePageView(page int, view PageView)
}

// SidecarProvider looks up side data of a page. It may block and is called
// off the control thread.
type SidecarProvider interface {
	PopulateSidecar(ctx context.Context, page int) (sidecar.Data, error)
}
