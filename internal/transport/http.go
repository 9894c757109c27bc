package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

// Defaults for HTTPTransport.
const (
	DefaultUserAgent   = "photobrowse/1.0 (+https://github.com/nao1215/photobrowse)"
	DefaultMaxBodySize = 20 * 1024 * 1024
	readChunkSize      = 32 * 1024
)

// HTTPTransport fetches http and https URLs.
type HTTPTransport struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
	headers     map[string]string
	logger      *slog.Logger
}

// HTTPOption configures an HTTPTransport.
type HTTPOption func(*HTTPTransport)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) HTTPOption {
	return func(t *HTTPTransport) {
		t.userAgent = ua
	}
}

// WithMaxBodySize limits how many bytes a single image may have.
func WithMaxBodySize(size int64) HTTPOption {
	return func(t *HTTPTransport) {
		t.maxBodySize = size
	}
}

// WithHeaders adds headers to every request.
func WithHeaders(headers map[string]string) HTTPOption {
	return func(t *HTTPTransport) {
		t.headers = headers
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) HTTPOption {
	return func(t *HTTPTransport) {
		t.logger = logger
	}
}

// NewHTTPTransport creates an HTTPTransport around client.
// A nil client means http.DefaultClient.
func NewHTTPTransport(client *http.Client, opts ...HTTPOption) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	t := &HTTPTransport{
		client:      client,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Fetch starts downloading rawURL on a worker goroutine.
func (t *HTTPTransport) Fetch(ctx context.Context, rawURL string, done DoneFunc) Request {
	r := &httpRequest{
		transport: t,
		parent:    ctx,
		url:       rawURL,
		done:      done,
	}
	r.mu.Lock()
	r.startLocked()
	r.mu.Unlock()
	return r
}

// httpRequest runs at most one HTTP exchange at a time.
// Every exchange carries the generation it was started with; once the
// generation moves on (suspend, cancel) the exchange drops whatever it reads.
//
// Design decision: Suspend cancels the running exchange instead of blocking
// its reader. The bytes read so far stay in data together with the ETag or
// Last-Modified validator, and Resume starts a new exchange with
// "Range: bytes=<len(data)>-" and "If-Range". A server that ignores the range
// answers 200 and the buffer starts over; a 206 whose start does not match
// the offset fails the request with ErrUnexpectedStatus.
//
// done is called exactly once: from the exchange that completes the
// download, or from Cancel with ErrCancelled.
type httpRequest struct {
	transport *HTTPTransport
	parent    context.Context
	url       string
	done      DoneFunc

	mu           sync.Mutex
	data         []byte
	etag         string
	lastModified string
	cancel       context.CancelFunc
	generation   int
	suspended    bool
	finished     bool
	exchanges    int
}

func (r *httpRequest) startLocked() {
	ctx, cancel := context.WithCancel(r.parent)
	r.cancel = cancel
	r.generation++
	r.exchanges++
	go r.exchange(ctx, r.generation, int64(len(r.data)), r.validatorLocked())
}

func (r *httpRequest) validatorLocked() string {
	if r.etag != "" {
		return r.etag
	}
	return r.lastModified
}

// Suspend cancels the running exchange and keeps the received prefix.
func (r *httpRequest) Suspend() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished || r.suspended {
		return
	}
	r.suspended = true
	r.generation++
	r.cancel()
	r.transport.logger.Debug("suspended download", "url", r.url, "received", len(r.data))
}

// Resume starts a new exchange that continues from the received prefix.
func (r *httpRequest) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished || !r.suspended {
		return
	}
	r.suspended = false
	r.transport.logger.Debug("resuming download", "url", r.url, "offset", len(r.data))
	r.startLocked()
}

// Cancel aborts the request and reports ErrCancelled.
func (r *httpRequest) Cancel() {
	r.mu.Lock()
	if r.finished {
		r.mu.Unlock()
		return
	}
	r.finished = true
	r.generation++
	r.cancel()
	r.data = nil
	r.mu.Unlock()

	r.done(nil, ErrCancelled)
}

func (r *httpRequest) exchange(ctx context.Context, generation int, offset int64, validator string) {
	defer func() {
		// The context of a finished exchange is no longer needed.
		r.mu.Lock()
		if r.generation == generation {
			r.cancel()
		}
		r.mu.Unlock()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		r.finish(generation, err)
		return
	}
	req.Header.Set("User-Agent", r.transport.userAgent)
	req.Header.Set("Accept", "image/*,*/*;q=0.8")
	for key, value := range r.transport.headers {
		req.Header.Set(key, value)
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
		if validator != "" {
			req.Header.Set("If-Range", validator)
		}
	}

	resp, err := r.transport.client.Do(req)
	if err != nil {
		r.finish(generation, err)
		return
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if !r.restart(generation, resp.Header) {
			return
		}
	case http.StatusPartialContent:
		start, ok := contentRangeStart(resp.Header.Get("Content-Range"))
		if !ok || start != offset {
			r.finish(generation, fmt.Errorf("%w: content range %q does not continue at %d",
				ErrUnexpectedStatus, resp.Header.Get("Content-Range"), offset))
			return
		}
	case http.StatusRequestedRangeNotSatisfiable:
		if offset > 0 {
			// Everything had already arrived when the download was suspended.
			r.finish(generation, nil)
			return
		}
		r.finish(generation, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode))
		return
	default:
		r.finish(generation, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode))
		return
	}

	buf := make([]byte, readChunkSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			current, appendErr := r.append(generation, buf[:n])
			if !current {
				return
			}
			if appendErr != nil {
				r.finish(generation, appendErr)
				return
			}
		}
		if errors.Is(readErr, io.EOF) {
			r.finish(generation, nil)
			return
		}
		if readErr != nil {
			r.finish(generation, readErr)
			return
		}
	}
}

// restart discards the received prefix because the server sent the whole
// body again, and remembers the validators for later Range requests.
func (r *httpRequest) restart(generation int, header http.Header) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generation != generation {
		return false
	}
	r.data = r.data[:0]
	r.etag = header.Get("ETag")
	r.lastModified = header.Get("Last-Modified")
	return true
}

func (r *httpRequest) append(generation int, chunk []byte) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generation != generation {
		return false, nil
	}
	if r.transport.maxBodySize > 0 && int64(len(r.data)+len(chunk)) > r.transport.maxBodySize {
		return true, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, r.transport.maxBodySize)
	}
	r.data = append(r.data, chunk...)
	return true, nil
}

// finish reports the outcome unless the exchange was superseded.
func (r *httpRequest) finish(generation int, err error) {
	r.mu.Lock()
	if r.generation != generation || r.finished {
		r.mu.Unlock()
		return
	}
	r.finished = true
	data := r.data
	r.data = nil
	r.mu.Unlock()

	if err != nil {
		r.done(nil, err)
		return
	}
	r.done(data, nil)
}

// contentRangeStart parses the first byte position of "bytes 100-199/200".
func contentRangeStart(value string) (int64, bool) {
	value = strings.TrimSpace(value)
	rest, ok := strings.CutPrefix(value, "bytes ")
	if !ok {
		return 0, false
	}
	first, _, ok := strings.Cut(rest, "-")
	if !ok {
		return 0, false
	}
	start, err := strconv.ParseInt(strings.TrimSpace(first), 10, 64)
	if err != nil {
		return 0, false
	}
	return start, true
}
