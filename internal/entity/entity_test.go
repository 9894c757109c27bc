package entity

import (
	"bytes"
	"context"
	"crypto/md5" //nolint:gosec // Test mirrors the identity digest
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/photobrowse/internal/dispatch"
	"github.com/nao1215/photobrowse/internal/transport"
)

// fakeTransport records fetches and lets tests finish them by hand.
type fakeTransport struct {
	requests []*fakeRequest
}

type fakeRequest struct {
	url      string
	done     transport.DoneFunc
	suspends int
	resumes  int
}

func (r *fakeRequest) Suspend() { r.suspends++ }
func (r *fakeRequest) Resume()  { r.resumes++ }
func (r *fakeRequest) Cancel()  {}

func (t *fakeTransport) Fetch(_ context.Context, rawURL string, done transport.DoneFunc) transport.Request {
	r := &fakeRequest{url: rawURL, done: done}
	t.requests = append(t.requests, r)
	return r
}

func (t *fakeTransport) last() *fakeRequest {
	return t.requests[len(t.requests)-1]
}

// transition is one delegate notification.
type transition struct {
	old, new SourceImageState
	seen     SourceImageState
}

type recordingDelegate struct {
	transitions []transition
}

func (d *recordingDelegate) SourceImageStateChanged(img *ImageEntity, oldState, newState SourceImageState) {
	d.transitions = append(d.transitions, transition{old: oldState, new: newState, seen: img.State()})
}

func (d *recordingDelegate) sequence() []SourceImageState {
	if len(d.transitions) == 0 {
		return nil
	}
	seq := []SourceImageState{d.transitions[0].old}
	for _, tr := range d.transitions {
		seq = append(seq, tr.new)
	}
	return seq
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type fixture struct {
	queue    *dispatch.Manual
	network  *fakeTransport
	loader   *Loader
	delegate *recordingDelegate
}

func newFixture() *fixture {
	f := &fixture{
		queue:    dispatch.NewManual(),
		network:  &fakeTransport{},
		delegate: &recordingDelegate{},
	}
	f.loader = NewLoader(f.network, f.queue)
	return f
}

func (f *fixture) image(t *testing.T, rawURL string) *ImageEntity {
	t.Helper()
	img, err := f.loader.NewImage(rawURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	NewObservers().Register(img, f.delegate)
	return img
}

func equalStates(a, b []SourceImageState) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestIdentity(t *testing.T) {
	t.Parallel()

	t.Run("identity is the MD5 of the URL as an upper-case UUID", func(t *testing.T) {
		t.Parallel()

		const rawURL = "https://example.com/photos/1.jpg"
		sum := md5.Sum([]byte(rawURL)) //nolint:gosec // See import
		got := Identity(rawURL)

		hex := strings.ReplaceAll(got, "-", "")
		if len(got) != 36 || len(hex) != 32 {
			t.Fatalf("expected 8-4-4-4-12 layout, got %q", got)
		}
		for i, b := range sum {
			want := fmt.Sprintf("%02X", b)
			if hex[i*2:i*2+2] != want {
				t.Fatalf("expected digest byte %d to be %s, got %s", i, want, hex[i*2:i*2+2])
			}
		}
	})

	t.Run("same URL gives the same identity and equality", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		a := f.image(t, "https://example.com/a.jpg")
		b := f.image(t, "https://example.com/a.jpg")
		c := f.image(t, "https://example.com/c.jpg")

		if a.UUID() != b.UUID() || a.SourceImageUUID() != a.UUID() {
			t.Error("expected identical identities for the same URL")
		}
		if !a.Equal(b) {
			t.Error("expected entities with the same URL to be equal")
		}
		if a.Equal(c) || a.UUID() == c.UUID() {
			t.Error("expected entities with different URLs to differ")
		}
	})

	t.Run("relative URL is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := NewLoader(&fakeTransport{}, dispatch.NewManual()).NewImage("photos/a.jpg")
		if !errors.Is(err, ErrInvalidURL) {
			t.Errorf("expected ErrInvalidURL, got %v", err)
		}
	})
}

func TestBeginLoad(t *testing.T) {
	t.Parallel()

	t.Run("network success moves to Ready with decoded bytes", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		img := f.image(t, "https://example.com/a.png")
		var gotErr error
		called := 0
		img.BeginLoad(func(err error) { called++; gotErr = err })

		if img.State() != Loading {
			t.Fatalf("expected Loading right after BeginLoad, got %s", img.State())
		}
		if called != 0 {
			t.Fatal("expected completion not to run synchronously")
		}

		data := pngBytes(t)
		f.network.last().done(data, nil)
		if img.State() != Loading {
			t.Fatal("expected state untouched until the completion reaches the control queue")
		}
		f.queue.RunPending()

		if called != 1 || gotErr != nil {
			t.Fatalf("expected one nil completion, got %d calls, err %v", called, gotErr)
		}
		if img.State() != Ready {
			t.Errorf("expected Ready, got %s", img.State())
		}
		if img.SourceImage() == nil || !bytes.Equal(img.SourceData(), data) {
			t.Error("expected decoded image and bytes to be retained")
		}
		if img.Format() != "png" {
			t.Errorf("expected format png, got %q", img.Format())
		}
		want := []SourceImageState{NotLoaded, Loading, Ready}
		if !equalStates(f.delegate.sequence(), want) {
			t.Errorf("expected transitions %v, got %v", want, f.delegate.sequence())
		}
	})

	t.Run("network error moves to Failed with TransportFailure", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		img := f.image(t, "https://example.com/missing.jpg")
		var gotErr error
		img.BeginLoad(func(err error) { gotErr = err })
		f.network.last().done(nil, errors.New("connection reset"))
		f.queue.RunPending()

		if !errors.Is(gotErr, ErrTransportFailure) {
			t.Errorf("expected ErrTransportFailure, got %v", gotErr)
		}
		if img.State() != Failed {
			t.Errorf("expected Failed, got %s", img.State())
		}
		if img.SourceData() != nil || img.SourceImage() != nil {
			t.Error("expected nothing retained after failure")
		}
		want := []SourceImageState{NotLoaded, Loading, Failed}
		if !equalStates(f.delegate.sequence(), want) {
			t.Errorf("expected transitions %v, got %v", want, f.delegate.sequence())
		}
	})

	t.Run("undecodable bytes move to Failed with DecodeFailure", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		img := f.image(t, "https://example.com/a.jpg")
		var gotErr error
		img.BeginLoad(func(err error) { gotErr = err })
		f.network.last().done([]byte("<html>not an image</html>"), nil)
		f.queue.RunPending()

		if !errors.Is(gotErr, ErrDecodeFailure) {
			t.Errorf("expected ErrDecodeFailure, got %v", gotErr)
		}
		if errors.Is(gotErr, ErrTransportFailure) {
			t.Error("expected decode failure not to be a transport failure")
		}
		if img.State() != Failed || img.SourceData() != nil {
			t.Errorf("expected Failed without bytes, got %s", img.State())
		}
	})

	t.Run("empty body is a decode failure", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		img := f.image(t, "https://example.com/a.jpg")
		var gotErr error
		img.BeginLoad(func(err error) { gotErr = err })
		f.network.last().done([]byte{}, nil)
		f.queue.RunPending()

		if !errors.Is(gotErr, ErrDecodeFailure) {
			t.Errorf("expected ErrDecodeFailure, got %v", gotErr)
		}
	})

	t.Run("oversized image fails as a transport failure", func(t *testing.T) {
		t.Parallel()

		queue := dispatch.NewManual()
		network := &fakeTransport{}
		img, err := NewLoader(network, queue, WithMaxImageSize(10)).NewImage("https://example.com/a.png")
		if err != nil {
			t.Fatal(err)
		}
		var gotErr error
		img.BeginLoad(func(err error) { gotErr = err })
		network.last().done(pngBytes(t), nil)
		queue.RunPending()

		if !errors.Is(gotErr, ErrImageTooLarge) || !errors.Is(gotErr, ErrTransportFailure) {
			t.Errorf("expected ErrImageTooLarge wrapping ErrTransportFailure, got %v", gotErr)
		}
	})

	t.Run("BeginLoad while Loading joins the running cycle", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		img := f.image(t, "https://example.com/a.png")
		calls := 0
		img.BeginLoad(func(error) { calls++ })
		img.BeginLoad(func(error) { calls++ })

		if len(f.network.requests) != 1 {
			t.Fatalf("expected exactly one request, got %d", len(f.network.requests))
		}
		f.network.last().done(pngBytes(t), nil)
		f.queue.RunPending()

		if calls != 2 {
			t.Errorf("expected both completions to run once, got %d calls", calls)
		}
	})

	t.Run("BeginLoad on Ready posts a nil completion without a request", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		img := f.image(t, "https://example.com/a.png")
		img.BeginLoad(nil)
		f.network.last().done(pngBytes(t), nil)
		f.queue.RunPending()

		called := false
		img.BeginLoad(func(err error) {
			called = true
			if err != nil {
				t.Errorf("expected nil error, got %v", err)
			}
		})
		if called {
			t.Fatal("expected completion to be posted, not run inline")
		}
		f.queue.RunPending()
		if !called {
			t.Error("expected completion to run")
		}
		if len(f.network.requests) != 1 {
			t.Errorf("expected no new request, got %d", len(f.network.requests))
		}
	})

	t.Run("BeginLoad on Failed starts a fresh cycle", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		img := f.image(t, "https://example.com/a.png")
		img.BeginLoad(nil)
		f.network.last().done(nil, errors.New("timeout"))
		f.queue.RunPending()

		var gotErr error
		img.BeginLoad(func(err error) { gotErr = err })
		if img.State() != Loading {
			t.Fatalf("expected Loading after retry, got %s", img.State())
		}
		if len(f.network.requests) != 2 {
			t.Fatalf("expected a second request, got %d", len(f.network.requests))
		}
		f.network.last().done(pngBytes(t), nil)
		f.queue.RunPending()

		if gotErr != nil || img.State() != Ready {
			t.Errorf("expected Ready after retry, got %s (%v)", img.State(), gotErr)
		}
		want := []SourceImageState{NotLoaded, Loading, Failed, Loading, Ready}
		if !equalStates(f.delegate.sequence(), want) {
			t.Errorf("expected transitions %v, got %v", want, f.delegate.sequence())
		}
	})

	t.Run("delegate sees the old state during notification", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		img := f.image(t, "https://example.com/a.png")
		img.BeginLoad(nil)
		f.network.last().done(pngBytes(t), nil)
		f.queue.RunPending()

		for _, tr := range f.delegate.transitions {
			if tr.seen != tr.old {
				t.Errorf("expected State() == %s during %s -> %s, got %s", tr.old, tr.old, tr.new, tr.seen)
			}
		}
	})

	t.Run("entities sharing a URL notify their own delegates", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		a, err := f.loader.NewImage("https://example.com/same.png")
		if err != nil {
			t.Fatal(err)
		}
		b, err := f.loader.NewImage("https://example.com/same.png")
		if err != nil {
			t.Fatal(err)
		}
		other := &recordingDelegate{}
		observers := NewObservers()
		observers.Register(a, f.delegate)
		observers.Register(b, other)

		a.BeginLoad(nil)
		observers.Unregister(a)
		b.BeginLoad(nil)

		if len(f.delegate.transitions) != 1 {
			t.Errorf("expected one transition for the first delegate, got %d", len(f.delegate.transitions))
		}
		if len(other.transitions) != 1 {
			t.Errorf("expected one transition for the second delegate, got %d", len(other.transitions))
		}
		if observers.Len() != 1 {
			t.Errorf("expected one registration left, got %d", observers.Len())
		}
	})

	t.Run("unregistered delegate is no longer notified", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		img, err := f.loader.NewImage("https://example.com/a.png")
		if err != nil {
			t.Fatal(err)
		}
		observers := NewObservers()
		observers.Register(img, f.delegate)
		img.BeginLoad(nil)
		observers.Unregister(img)

		f.network.last().done(pngBytes(t), nil)
		f.queue.RunPending()

		if len(f.delegate.transitions) != 1 {
			t.Errorf("expected only the first transition, got %d", len(f.delegate.transitions))
		}
		if observers.Len() != 0 {
			t.Errorf("expected empty registry, got %d", observers.Len())
		}
	})
}

func TestPauseResume(t *testing.T) {
	t.Parallel()

	t.Run("pause while NotLoaded is a no-op", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		img := f.image(t, "https://example.com/a.png")
		img.PauseLoad()
		img.ResumeLoad()

		if img.State() != NotLoaded {
			t.Errorf("expected NotLoaded, got %s", img.State())
		}
		if len(f.delegate.transitions) != 0 {
			t.Errorf("expected no transitions, got %d", len(f.delegate.transitions))
		}
		if len(f.network.requests) != 0 {
			t.Errorf("expected no requests, got %d", len(f.network.requests))
		}
	})

	t.Run("pause and resume keep a single request", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		img := f.image(t, "https://example.com/a.png")
		var gotErr error
		called := 0
		img.BeginLoad(func(err error) { called++; gotErr = err })

		img.PauseLoad()
		if img.State() != Paused {
			t.Fatalf("expected Paused, got %s", img.State())
		}
		img.PauseLoad()
		img.ResumeLoad()
		img.PauseLoad()
		img.BeginLoad(func(error) { called++ })

		req := f.network.last()
		if len(f.network.requests) != 1 {
			t.Fatalf("expected one request, got %d", len(f.network.requests))
		}
		if req.suspends != 2 || req.resumes != 2 {
			t.Errorf("expected 2 suspends and 2 resumes, got %d and %d", req.suspends, req.resumes)
		}
		if img.State() != Loading {
			t.Fatalf("expected Loading after BeginLoad on Paused, got %s", img.State())
		}

		req.done(pngBytes(t), nil)
		f.queue.RunPending()
		if called != 2 || gotErr != nil || img.State() != Ready {
			t.Errorf("expected Ready with 2 completions, got %s with %d (%v)", img.State(), called, gotErr)
		}
		want := []SourceImageState{NotLoaded, Loading, Paused, Loading, Paused, Loading, Ready}
		if !equalStates(f.delegate.sequence(), want) {
			t.Errorf("expected transitions %v, got %v", want, f.delegate.sequence())
		}
	})

	t.Run("result arriving after pause is held until resume", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		img := f.image(t, "https://example.com/a.png")
		img.BeginLoad(nil)
		f.network.last().done(pngBytes(t), nil)
		img.PauseLoad()
		f.queue.RunPending()

		if img.State() != Paused {
			t.Fatalf("expected Paused while the result is held, got %s", img.State())
		}
		img.ResumeLoad()
		f.queue.RunPending()
		if img.State() != Ready {
			t.Errorf("expected Ready after resume, got %s", img.State())
		}
	})

	t.Run("pause on Ready and Failed is a no-op", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		ready := f.image(t, "https://example.com/ready.png")
		ready.BeginLoad(nil)
		f.network.last().done(pngBytes(t), nil)
		failed := f.image(t, "https://example.com/failed.png")
		failed.BeginLoad(nil)
		f.network.last().done(nil, errors.New("boom"))
		f.queue.RunPending()

		ready.PauseLoad()
		failed.PauseLoad()
		if ready.State() != Ready || failed.State() != Failed {
			t.Errorf("expected Ready and Failed, got %s and %s", ready.State(), failed.State())
		}
	})
}

func TestLocalImages(t *testing.T) {
	t.Parallel()

	run := func(t *testing.T, rawURL string) (*ImageEntity, *recordingDelegate, error) {
		t.Helper()
		queue := dispatch.NewManual()
		loader := NewLoader(&fakeTransport{}, queue)
		img, err := loader.NewImage(rawURL)
		if err != nil {
			t.Fatal(err)
		}
		delegate := &recordingDelegate{}
		NewObservers().Register(img, delegate)

		var loadErr error
		finished := false
		img.BeginLoad(func(err error) { finished = true; loadErr = err })

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := queue.RunUntil(ctx, func() bool { return finished }); err != nil {
			t.Fatalf("load did not finish: %v", err)
		}
		return img, delegate, loadErr
	}

	t.Run("readable file moves NotLoaded to Loading to Ready", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "a.png")
		if err := os.WriteFile(path, pngBytes(t), 0o600); err != nil {
			t.Fatal(err)
		}
		img, delegate, err := run(t, "file://"+path)

		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if !img.IsLocal() || img.State() != Ready {
			t.Errorf("expected local Ready image, got %s", img.State())
		}
		want := []SourceImageState{NotLoaded, Loading, Ready}
		if !equalStates(delegate.sequence(), want) {
			t.Errorf("expected transitions %v, got %v", want, delegate.sequence())
		}
	})

	t.Run("unreadable file fails with LocalReadFailure", func(t *testing.T) {
		t.Parallel()

		img, _, err := run(t, "file:///nonexistent/photobrowse/a.png")
		if !errors.Is(err, ErrLocalReadFailure) {
			t.Errorf("expected ErrLocalReadFailure, got %v", err)
		}
		if !errors.Is(err, ErrTransportFailure) {
			t.Errorf("expected local read failure to signal as transport failure, got %v", err)
		}
		if img.State() != Failed {
			t.Errorf("expected Failed, got %s", img.State())
		}
	})
}

func TestIsReady(t *testing.T) {
	t.Parallel()

	f := newFixture()
	img := f.image(t, "https://example.com/a.png")
	if img.IsReady() {
		t.Fatal("expected not ready without thumbnail and page")
	}
	img.SetThumbnail(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	if img.IsReady() {
		t.Fatal("expected not ready without page")
	}
	img.SetPage(3)
	if !img.IsReady() {
		t.Error("expected ready with thumbnail and page")
	}
	if page, ok := img.Page(); !ok || page != 3 {
		t.Errorf("expected page 3, got %d (%v)", page, ok)
	}
}

func TestSourceImageStateString(t *testing.T) {
	t.Parallel()

	testCases := map[SourceImageState]string{
		NotLoaded:            "not loaded",
		Loading:              "loading",
		Paused:               "paused",
		Ready:                "ready",
		Failed:               "failed",
		SourceImageState(42): "unknown",
	}
	for state, want := range testCases {
		if got := state.String(); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}
}
