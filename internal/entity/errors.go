package entity

import (
	"errors"
	"fmt"
)

// Load errors. Completions receive errors wrapping one of these, so callers
// classify failures with errors.Is.
var (
	// ErrTransportFailure means the bytes could not be fetched.
	ErrTransportFailure = errors.New("transport failure")

	// ErrDecodeFailure means bytes arrived but are not a decodable image.
	ErrDecodeFailure = errors.New("decode failure")

	// ErrLocalReadFailure means a file URL could not be read.
	// It is signalled as a transport failure.
	ErrLocalReadFailure = fmt.Errorf("%w: local read failed", ErrTransportFailure)

	// ErrImageTooLarge means the image exceeded the loader's size limit.
	ErrImageTooLarge = fmt.Errorf("%w: image too large", ErrTransportFailure)

	// ErrInvalidURL is returned by Loader.NewImage for relative or malformed URLs.
	ErrInvalidURL = errors.New("invalid image URL")
)
