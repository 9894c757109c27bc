package gallery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/photobrowse/internal/dispatch"
	"github.com/nao1215/photobrowse/internal/entity"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	t.Run("loads images and resolves relative paths", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "holiday.yaml")
		writeFile(t, path, `title: Holiday
startPage: 2
images:
  - url: https://example.com/1.jpg
    photoId: "101"
  - url: photos/2.png
  - url: file:///srv/3.gif
`)

		m, err := LoadFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.Title != "Holiday" || m.StartPage != 2 || len(m.Images) != 3 {
			t.Fatalf("unexpected manifest %+v", m)
		}
		if m.Images[0].PhotoID != "101" {
			t.Errorf("expected photo id 101, got %q", m.Images[0].PhotoID)
		}
		want := "file://" + filepath.ToSlash(filepath.Join(dir, "photos", "2.png"))
		if m.Images[1].URL != want {
			t.Errorf("expected %q, got %q", want, m.Images[1].URL)
		}
		if m.Images[2].URL != "file:///srv/3.gif" {
			t.Errorf("expected file url kept, got %q", m.Images[2].URL)
		}
		if m.Key() == "" || m.Key() != (&Manifest{Source: m.Source}).Key() {
			t.Error("expected key derived from the source path")
		}
	})

	t.Run("explicit id is the key", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "g.yaml")
		writeFile(t, path, "id: family\nimages:\n  - url: https://example.com/a.jpg\n")
		m, err := LoadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if m.Key() != "family" {
			t.Errorf("expected key family, got %q", m.Key())
		}
		if m.Title != "g.yaml" {
			t.Errorf("expected file name as title, got %q", m.Title)
		}
	})

	t.Run("missing and empty galleries", func(t *testing.T) {
		t.Parallel()

		if _, err := LoadFile(filepath.Join(t.TempDir(), "none.yaml")); !errors.Is(err, ErrGalleryNotFound) {
			t.Errorf("expected ErrGalleryNotFound, got %v", err)
		}
		path := filepath.Join(t.TempDir(), "empty.yaml")
		writeFile(t, path, "title: nothing\n")
		if _, err := LoadFile(path); !errors.Is(err, ErrEmptyGallery) {
			t.Errorf("expected ErrEmptyGallery, got %v", err)
		}
	})

	t.Run("round trips through WriteFile", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "out", "g.yaml")
		m := &Manifest{Title: "Out", Images: []Item{{URL: "https://example.com/a.jpg", PhotoID: "7"}}}
		if err := m.WriteFile(path); err != nil {
			t.Fatalf("failed to write: %v", err)
		}
		got, err := LoadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if got.Title != "Out" || got.Images[0].PhotoID != "7" {
			t.Errorf("unexpected manifest %+v", got)
		}
	})
}

func TestFromArgs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.jpg"), "x")
	writeFile(t, filepath.Join(dir, "a.PNG"), "x")
	writeFile(t, filepath.Join(dir, "notes.txt"), "x")
	writeFile(t, filepath.Join(dir, "sub", "c.jpg"), "x")
	single := filepath.Join(t.TempDir(), "single.webp")
	writeFile(t, single, "x")

	t.Run("expands directories in name order", func(t *testing.T) {
		t.Parallel()

		m, err := FromArgs([]string{dir})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(m.Images) != 2 {
			t.Fatalf("expected 2 images, got %+v", m.Images)
		}
		if !strings.HasSuffix(m.Images[0].URL, "/a.PNG") || !strings.HasSuffix(m.Images[1].URL, "/b.jpg") {
			t.Errorf("unexpected order %+v", m.Images)
		}
		for _, item := range m.Images {
			if !strings.HasPrefix(item.URL, "file://") {
				t.Errorf("expected file url, got %q", item.URL)
			}
		}
	})

	t.Run("mixes urls and files in argument order", func(t *testing.T) {
		t.Parallel()

		m, err := FromArgs([]string{"https://example.com/x.jpg", single})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(m.Images) != 2 || m.Images[0].URL != "https://example.com/x.jpg" {
			t.Errorf("unexpected images %+v", m.Images)
		}
	})

	t.Run("errors", func(t *testing.T) {
		t.Parallel()

		if _, err := FromArgs([]string{filepath.Join(dir, "missing.jpg")}); err == nil {
			t.Error("expected error for a missing file")
		}
		if _, err := FromArgs([]string{filepath.Join(dir, "nothing")}); err == nil {
			t.Error("expected error for a missing directory")
		}
		empty := t.TempDir()
		if _, err := FromArgs([]string{empty}); !errors.Is(err, ErrEmptyGallery) {
			t.Errorf("expected ErrEmptyGallery, got %v", err)
		}
	})
}

func TestParser(t *testing.T) {
	t.Parallel()

	page := `<html><head><title> Trip </title>
<meta property="og:image" content="/cover.jpg">
</head><body>
<img src="a.jpg" data-photo-id="1">
<img src="a.jpg">
<img srcset="small.jpg 320w, large.jpg 1280w, medium.jpg 640w">
<img src="data:image/png;base64,AAAA">
<a href="/full/b.png" data-photo-id="2">full size</a>
<a href="/about.html">about</a>
</body></html>`

	p, err := NewParser("https://example.com/trips/index.html")
	if err != nil {
		t.Fatal(err)
	}
	result, err := p.Parse(strings.NewReader(page))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Title != "Trip" {
		t.Errorf("expected title Trip, got %q", result.Title)
	}
	want := []Item{
		{URL: "https://example.com/cover.jpg"},
		{URL: "https://example.com/trips/a.jpg", PhotoID: "1"},
		{URL: "https://example.com/trips/large.jpg"},
		{URL: "https://example.com/full/b.png", PhotoID: "2"},
	}
	if len(result.Images) != len(want) {
		t.Fatalf("expected %d images, got %+v", len(want), result.Images)
	}
	for i := range want {
		if result.Images[i] != want[i] {
			t.Errorf("image %d: expected %+v, got %+v", i, want[i], result.Images[i])
		}
	}
}

func TestFromHTML(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/gallery":
			if r.Header.Get("User-Agent") != "test-agent" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			_, _ = w.Write([]byte(`<title>G</title><img src="/p/1.jpg"><img src="/p/2.jpg">`))
		case "/empty":
			_, _ = w.Write([]byte(`<p>nothing</p>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()

	m, err := FromHTML(ctx, srv.Client(), srv.URL+"/gallery", "test-agent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Title != "G" || len(m.Images) != 2 || m.Images[1].URL != srv.URL+"/p/2.jpg" {
		t.Errorf("unexpected manifest %+v", m)
	}

	if _, err := FromHTML(ctx, srv.Client(), srv.URL+"/empty", "test-agent"); !errors.Is(err, ErrEmptyGallery) {
		t.Errorf("expected ErrEmptyGallery, got %v", err)
	}
	if _, err := FromHTML(ctx, srv.Client(), srv.URL+"/missing", "test-agent"); !errors.Is(err, ErrUnexpectedStatus) {
		t.Errorf("expected ErrUnexpectedStatus, got %v", err)
	}
}

func TestGallery(t *testing.T) {
	t.Parallel()

	loader := entity.NewLoader(nil, dispatch.NewManual())
	m := &Manifest{
		Title:     "G",
		StartPage: 1,
		Source:    "args",
		Images: []Item{
			{URL: "https://example.com/0.jpg", PhotoID: "p0"},
			{URL: "https://example.com/1.jpg"},
		},
	}
	g, err := New(loader, m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.NumberOfImages() != 2 || g.StartPage() != 1 || g.Title() != "G" {
		t.Errorf("unexpected gallery %d %d %q", g.NumberOfImages(), g.StartPage(), g.Title())
	}
	if g.ImageEntityForPage(0) != g.ImageEntityForPage(0) {
		t.Error("expected the same entity for the same page")
	}
	if g.ImageEntityForPage(1).URL() != "https://example.com/1.jpg" {
		t.Errorf("unexpected entity %v", g.ImageEntityForPage(1))
	}
	if g.ImageEntityForPage(2) != nil || g.ImageEntityForPage(-1) != nil {
		t.Error("expected nil outside the gallery")
	}
	if g.PhotoID(0) != "p0" || g.PhotoID(1) != "" || g.PhotoID(5) != "" {
		t.Error("unexpected photo ids")
	}
	if g.Key() != entity.Identity("args") {
		t.Errorf("unexpected key %q", g.Key())
	}

	if _, err := New(loader, &Manifest{}); !errors.Is(err, ErrEmptyGallery) {
		t.Errorf("expected ErrEmptyGallery, got %v", err)
	}
	if _, err := New(loader, &Manifest{Images: []Item{{URL: "relative.jpg"}}}); !errors.Is(err, entity.ErrInvalidURL) {
		t.Errorf("expected ErrInvalidURL, got %v", err)
	}
}
