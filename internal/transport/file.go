package transport

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"sync"
)

// FileTransport reads file URLs from local storage.
// Reads run on a worker goroutine so local images follow the same
// asynchronous contract as network images.
type FileTransport struct {
	maxSize int64
}

// NewFileTransport creates a FileTransport. maxSize <= 0 disables the limit.
func NewFileTransport(maxSize int64) *FileTransport {
	return &FileTransport{maxSize: maxSize}
}

// FilePath converts a file URL into a local path.
func FilePath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid file URL %q: %w", rawURL, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("%w: %q", ErrNotFileURL, rawURL)
	}
	if u.Path == "" {
		return "", fmt.Errorf("%w: %q has no path", ErrNotFileURL, rawURL)
	}
	return u.Path, nil
}

// Fetch reads the file named by rawURL.
func (t *FileTransport) Fetch(ctx context.Context, rawURL string, done DoneFunc) Request {
	r := &fileRequest{done: done}
	go func() {
		data, err := t.read(ctx, rawURL)
		r.deliver(data, err)
	}()
	return r
}

func (t *FileTransport) read(ctx context.Context, rawURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := FilePath(rawURL)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if t.maxSize > 0 && info.Size() > t.maxSize {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrBodyTooLarge, path, info.Size())
	}
	return os.ReadFile(path) //nolint:gosec // Reading user-selected images is the purpose
}

// fileRequest holds a finished read back while suspended.
type fileRequest struct {
	done DoneFunc

	mu        sync.Mutex
	suspended bool
	finished  bool
	ready     bool
	data      []byte
	err       error
}

func (r *fileRequest) deliver(data []byte, err error) {
	r.mu.Lock()
	if r.finished {
		r.mu.Unlock()
		return
	}
	if r.suspended {
		r.ready = true
		r.data = data
		r.err = err
		r.mu.Unlock()
		return
	}
	r.finished = true
	r.mu.Unlock()

	r.done(data, err)
}

func (r *fileRequest) Suspend() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.finished {
		r.suspended = true
	}
}

func (r *fileRequest) Resume() {
	r.mu.Lock()
	if r.finished || !r.suspended {
		r.mu.Unlock()
		return
	}
	r.suspended = false
	if !r.ready {
		r.mu.Unlock()
		return
	}
	r.finished = true
	data, err := r.data, r.err
	r.data = nil
	r.mu.Unlock()

	r.done(data, err)
}

func (r *fileRequest) Cancel() {
	r.mu.Lock()
	if r.finished {
		r.mu.Unlock()
		return
	}
	r.finished = true
	r.data = nil
	r.mu.Unlock()

	r.done(nil, ErrCancelled)
}
