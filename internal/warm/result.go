package warm

import (
	"image"

	"github.com/nao1215/photobrowse/internal/entity"
	"github.com/nao1215/photobrowse/internal/photometa"
	"github.com/nao1215/photobrowse/internal/sidecar"
)

// Result is what the pipeline learned about one page.
type Result struct {
	Page int
	URL  string
	UUID string

	// State is the entity state after the load step.
	State  entity.SourceImageState
	Format string
	// Size is the encoded size in bytes.
	Size   int
	Bounds image.Rectangle

	Thumbnail image.Image
	Metadata  *photometa.Summary
	Sidecar   *sidecar.Data

	// Steps lists the steps that completed, in order.
	Steps      []string
	// Err is the error that stopped the pipeline.
	Err        error
	// SidecarErr is set when side data could not be populated.
	SidecarErr error

	image *entity.ImageEntity
	data  []byte
}

// OK reports whether the page loaded.
func (r *Result) OK() bool {
	return r.Err == nil && r.State == entity.Ready
}
