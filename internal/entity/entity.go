package entity

import (
	"fmt"
	"image"
)

// ImageEntity is one photo of a gallery and the state of its source image.
//
// An entity owns at most one transport request at a time. Pausing suspends
// that request and resuming continues it, so the bytes received before a
// pause are never fetched twice. A result that arrives while the entity is
// paused is parked and applied on resume.
//
// Design decision: the identity is computed once in NewImageEntity from the
// URL and never changes. Two entities with the same URL share an identity
// (and therefore a thumbnail cache entry) but keep separate load states and
// separate delegates.
//
// ImageEntity is not safe for concurrent use; every method belongs to the
// control thread of its Loader.
type ImageEntity struct {
	loader *Loader
	rawURL string
	local  bool
	uuid   string

	page    int
	hasPage bool

	state     SourceImageState
	source    image.Image
	data      []byte
	format    string
	thumbnail image.Image

	request     transportRequest
	cycle       int
	completions []func(error)
	parked      *outcome

	observers *Observers
}

// transportRequest is the subset of transport.Request the entity drives.
type transportRequest interface {
	Suspend()
	Resume()
}

// outcome is a transport result that arrived after the entity was paused.
type outcome struct {
	data []byte
	err  error
}

// URL returns the source URL.
func (e *ImageEntity) URL() string { return e.rawURL }

// UUID returns the identity derived from the source URL.
func (e *ImageEntity) UUID() string { return e.uuid }

// SourceImageUUID is the key of the entity in the thumbnail cache.
// It equals UUID.
func (e *ImageEntity) SourceImageUUID() string { return e.uuid }

// IsLocal reports whether the source URL uses the file scheme.
func (e *ImageEntity) IsLocal() bool { return e.local }

// Equal reports whether both entities refer to the same source URL.
func (e *ImageEntity) Equal(other *ImageEntity) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.rawURL == other.rawURL
}

// Page returns the page index assigned by the page controller.
func (e *ImageEntity) Page() (int, bool) { return e.page, e.hasPage }

// SetPage assigns the page index.
func (e *ImageEntity) SetPage(page int) {
	e.page = page
	e.hasPage = true
}

// State returns the current load state.
func (e *ImageEntity) State() SourceImageState { return e.state }

// SourceImage returns the decoded source image once Ready.
func (e *ImageEntity) SourceImage() image.Image { return e.source }

// SourceData returns the raw source bytes once Ready.
func (e *ImageEntity) SourceData() []byte { return e.data }

// Format returns the decoder name of the source image ("jpeg", "png", ...).
func (e *ImageEntity) Format() string { return e.format }

// Thumbnail returns the thumbnail set by the view layer.
func (e *ImageEntity) Thumbnail() image.Image { return e.thumbnail }

// SetThumbnail stores a thumbnail.
func (e *ImageEntity) SetThumbnail(img image.Image) { e.thumbnail = img }

// IsReady reports whether the entity can be shown in a grid: it has a
// thumbnail and a page index.
func (e *ImageEntity) IsReady() bool {
	return e.thumbnail != nil && e.hasPage
}

// String implements fmt.Stringer.
func (e *ImageEntity) String() string {
	return fmt.Sprintf("%s (%s, %s)", e.rawURL, e.uuid, e.state)
}

// BeginLoad starts loading the source image and reports the outcome to
// onComplete on the control thread. It never blocks.
//
//   - Paused: the suspended request is resumed.
//   - Loading: no new request starts; onComplete joins the running cycle.
//   - Ready: onComplete(nil) is posted.
//   - NotLoaded, Failed: a new load cycle starts.
func (e *ImageEntity) BeginLoad(onComplete func(error)) {
	switch e.state {
	case Ready:
		if onComplete != nil {
			e.loader.queue.Post(func() { onComplete(nil) })
		}
		return
	case Loading:
		e.addCompletion(onComplete)
		return
	case Paused:
		e.addCompletion(onComplete)
		e.ResumeLoad()
		return
	case NotLoaded, Failed:
	}

	e.addCompletion(onComplete)
	e.setState(Loading)

	e.cycle++
	cycle := e.cycle
	fetcher := e.loader.network
	if e.local {
		fetcher = e.loader.files
	}
	e.request = fetcher.Fetch(e.loader.ctx, e.rawURL, func(data []byte, err error) {
		e.loader.queue.Post(func() {
			e.deliver(cycle, data, err)
		})
	})
}

// PauseLoad suspends a running request. It is a no-op in any state but Loading.
func (e *ImageEntity) PauseLoad() {
	if e.state != Loading || e.request == nil {
		return
	}
	e.request.Suspend()
	e.loader.logger.Debug("pause loading", "page", e.page, "url", e.rawURL)
	e.setState(Paused)
}

// ResumeLoad continues a suspended request. It is a no-op in any state but Paused.
func (e *ImageEntity) ResumeLoad() {
	if e.state != Paused || e.request == nil {
		return
	}
	e.loader.logger.Debug("resume loading", "page", e.page, "url", e.rawURL)
	e.setState(Loading)

	if parked := e.parked; parked != nil {
		e.parked = nil
		cycle := e.cycle
		e.loader.queue.Post(func() {
			e.deliver(cycle, parked.data, parked.err)
		})
		return
	}
	e.request.Resume()
}

// deliver runs on the control thread with the result of load cycle cycle.
func (e *ImageEntity) deliver(cycle int, data []byte, err error) {
	if cycle != e.cycle || !e.state.Busy() {
		return
	}
	if e.state == Paused {
		// The result was already on its way when the entity was paused.
		e.parked = &outcome{data: data, err: err}
		return
	}
	e.request = nil

	if err != nil {
		if e.local {
			err = fmt.Errorf("%w: %s: %w", ErrLocalReadFailure, e.rawURL, err)
		} else {
			err = fmt.Errorf("%w: %s: %w", ErrTransportFailure, e.rawURL, err)
		}
		e.fail(err)
		return
	}
	if e.loader.maxImageSize > 0 && int64(len(data)) > e.loader.maxImageSize {
		e.fail(fmt.Errorf("%w: %s is %d bytes", ErrImageTooLarge, e.rawURL, len(data)))
		return
	}
	if len(data) == 0 {
		e.fail(fmt.Errorf("%w: %s: empty body", ErrDecodeFailure, e.rawURL))
		return
	}
	img, format, decodeErr := Decode(data)
	if decodeErr != nil {
		e.fail(fmt.Errorf("%w: %s: %w", ErrDecodeFailure, e.rawURL, decodeErr))
		return
	}

	e.source = img
	e.data = data
	e.format = format
	e.setState(Ready)
	e.complete(nil)
}

func (e *ImageEntity) fail(err error) {
	e.source = nil
	e.data = nil
	e.format = ""
	e.loader.logger.Debug("image load failed", "page", e.page, "url", e.rawURL, "error", err)
	e.setState(Failed)
	e.complete(err)
}

func (e *ImageEntity) addCompletion(fn func(error)) {
	if fn != nil {
		e.completions = append(e.completions, fn)
	}
}

func (e *ImageEntity) complete(err error) {
	completions := e.completions
	e.completions = nil
	for _, fn := range completions {
		fn(err)
	}
}

// setState notifies the delegate and then stores the new state.
func (e *ImageEntity) setState(next SourceImageState) {
	prev := e.state
	if e.observers != nil {
		if d := e.observers.Lookup(e); d != nil {
			d.SourceImageStateChanged(e, prev, next)
		}
	}
	e.state = next
}
