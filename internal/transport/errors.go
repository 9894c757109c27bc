package transport

import "errors"

var (
	// ErrUnexpectedStatus is returned when the server answers with a status
	// that carries no image body (anything but 200, 206 and a 416 at end of body).
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrBodyTooLarge is returned when the response exceeds the configured limit.
	ErrBodyTooLarge = errors.New("response body exceeds size limit")

	// ErrCancelled is delivered to the done callback after Request.Cancel.
	ErrCancelled = errors.New("request cancelled")

	// ErrNotFileURL is returned by FilePath for URLs without the file scheme.
	ErrNotFileURL = errors.New("not a file URL")
)
