package entity

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/nao1215/photobrowse/internal/dispatch"
	"github.com/nao1215/photobrowse/internal/transport"
)

// DefaultMaxImageSize bounds the bytes accepted for a single source image.
const DefaultMaxImageSize = 20 * 1024 * 1024

// Loader creates entities that share transports and a control queue.
type Loader struct {
	ctx          context.Context
	network      transport.Transport
	files        transport.Transport
	queue        dispatch.Queue
	logger       *slog.Logger
	maxImageSize int64
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFileTransport replaces the transport used for file URLs.
func WithFileTransport(t transport.Transport) LoaderOption {
	return func(l *Loader) {
		l.files = t
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithMaxImageSize limits the size of accepted source images. 0 disables the limit.
func WithMaxImageSize(size int64) LoaderOption {
	return func(l *Loader) {
		l.maxImageSize = size
	}
}

// WithContext bounds every request started by the loader's entities.
func WithContext(ctx context.Context) LoaderOption {
	return func(l *Loader) {
		l.ctx = ctx
	}
}

// NewLoader creates a Loader. network serves every scheme except file,
// queue is the control thread completions are delivered on.
func NewLoader(network transport.Transport, queue dispatch.Queue, opts ...LoaderOption) *Loader {
	l := &Loader{
		ctx:          context.Background(),
		network:      network,
		queue:        queue,
		logger:       slog.Default(),
		maxImageSize: DefaultMaxImageSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.files == nil {
		l.files = transport.NewFileTransport(l.maxImageSize)
	}
	return l
}

// NewImage creates an entity for an absolute URL.
func (l *Loader) NewImage(rawURL string) (*ImageEntity, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidURL, rawURL, err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("%w: %q is not absolute", ErrInvalidURL, rawURL)
	}
	return &ImageEntity{
		loader: l,
		rawURL: rawURL,
		local:  u.Scheme == "file",
		uuid:   Identity(rawURL),
		state:  NotLoaded,
	}, nil
}

// Queue returns the control queue entities of this loader deliver on.
func (l *Loader) Queue() dispatch.Queue {
	return l.queue
}
