package gallery

import "errors"

var (
	// ErrEmptyGallery is returned when a source yields no photos.
	ErrEmptyGallery = errors.New("gallery has no images")

	// ErrGalleryNotFound is returned when a gallery file does not exist.
	ErrGalleryNotFound = errors.New("gallery file not found")

	// ErrUnexpectedStatus is returned when an HTML page cannot be fetched.
	ErrUnexpectedStatus = errors.New("unexpected status")
)
