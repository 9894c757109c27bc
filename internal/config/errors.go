package config

import "errors"

// Validation errors returned by Config.Validate.
var (
	// ErrInvalidStartPage is returned for a negative start page.
	ErrInvalidStartPage = errors.New("invalid start page: must be non-negative")

	// ErrInvalidPageExtent is returned when a page would have no rows.
	ErrInvalidPageExtent = errors.New("invalid page extent: must be positive")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxImageSize is returned for a negative image size limit. 0 disables the limit.
	ErrInvalidMaxImageSize = errors.New("invalid max image size: must be non-negative")

	// ErrInvalidRetryMax is returned for a negative retry count.
	ErrInvalidRetryMax = errors.New("invalid retry count: must be non-negative")

	// ErrInvalidThumbnailSize is returned when thumbnails would be empty.
	ErrInvalidThumbnailSize = errors.New("invalid thumbnail size: must be positive")

	// ErrInvalidCacheEntries is returned when the memory cache could hold nothing.
	ErrInvalidCacheEntries = errors.New("invalid memory cache entries: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown are set.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrTokenWithoutAPI is returned when an API token is given without an API endpoint.
	ErrTokenWithoutAPI = errors.New("api token given without an api base url")
)
