package transport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// DoneFunc receives the outcome of a fetch. It is called exactly once.
type DoneFunc func(data []byte, err error)

// Request is a handle on a running fetch.
type Request interface {
	// Suspend stops transferring data. Received bytes are kept.
	Suspend()
	// Resume continues a suspended fetch from where it stopped.
	Resume()
	// Cancel aborts the fetch; done receives ErrCancelled.
	Cancel()
}

// Transport starts fetches.
type Transport interface {
	Fetch(ctx context.Context, rawURL string, done DoneFunc) Request
}

// Retry policy for NewRetryingClient.
const (
	DefaultRetryWaitMin = 200 * time.Millisecond
	DefaultRetryWaitMax = 5 * time.Second
)

// NewRetryingClient wraps base in a client that retries connection errors
// and 5xx responses with exponential backoff.
// Retries happen below the load state machine: a request that eventually
// succeeds is reported as a single successful fetch.
func NewRetryingClient(base *http.Client, retryMax int, logger *slog.Logger) *http.Client {
	rc := retryablehttp.NewClient()
	if base != nil {
		rc.HTTPClient = base
	}
	rc.RetryMax = retryMax
	rc.RetryWaitMin = DefaultRetryWaitMin
	rc.RetryWaitMax = DefaultRetryWaitMax
	if logger != nil {
		rc.Logger = retryablehttp.LeveledLogger(logger)
	} else {
		rc.Logger = nil
	}
	return rc.StandardClient()
}
