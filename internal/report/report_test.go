package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/photobrowse/internal/entity"
	"github.com/nao1215/photobrowse/internal/photometa"
	"github.com/nao1215/photobrowse/internal/sidecar"
	"github.com/nao1215/photobrowse/internal/warm"
)

var generated = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

// createTestReport returns a three page report: a photo with GPS, a plain
// photo with side data and a page that failed to load. Results are passed
// out of order.
func createTestReport() *GalleryReport {
	results := []warm.Result{
		{
			Page:  2,
			URL:   "https://photos.example.com/broken.jpg",
			UUID:  "uuid-2",
			State: entity.Failed,
			Err:   errors.New("transport failure: unexpected status 404"),
		},
		{
			Page:   0,
			URL:    "https://photos.example.com/beach.jpg",
			UUID:   "uuid-0",
			State:  entity.Ready,
			Format: "jpeg",
			Size:   123456,
			Bounds: image.Rect(0, 0, 4000, 3000),
			Metadata: &photometa.Summary{
				Make:   "Canon",
				Model:  "Canon EOS R5",
				Taken:  time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC),
				HasGPS: true,
				Disclosures: []photometa.Disclosure{
					{Kind: "gps", Tag: "GPSLatitude", Value: "35.6", Severity: photometa.SeverityCritical},
					{Kind: "camera", Tag: "Model", Value: "Canon EOS R5", Severity: photometa.SeverityMedium},
				},
			},
		},
		{
			Page:   1,
			URL:    "https://photos.example.com/cat.png",
			UUID:   "uuid-1",
			State:  entity.Ready,
			Format: "png",
			Size:   2048,
			Bounds: image.Rect(0, 0, 640, 480),
			Sidecar: &sidecar.Data{
				OwnerName: "alice",
				Favorites: 1234,
				Comments:  []sidecar.Comment{{Name: "bob", Message: "nice"}},
			},
		},
	}
	return NewGalleryReport("Holiday", "holiday", results, generated)
}

func TestNewGalleryReport(t *testing.T) {
	t.Parallel()

	r := createTestReport()

	t.Run("entries are ordered by page", func(t *testing.T) {
		t.Parallel()

		for i, e := range r.Entries {
			if e.Page != i {
				t.Errorf("expected page %d at %d, got %d", i, i, e.Page)
			}
		}
	})

	t.Run("entries carry load, exif and side data", func(t *testing.T) {
		t.Parallel()

		beach := r.Entries[0]
		if beach.Camera != "Canon EOS R5" {
			t.Errorf("expected camera %q, got %q", "Canon EOS R5", beach.Camera)
		}
		if beach.Width != 4000 || beach.Height != 3000 {
			t.Errorf("expected 4000x3000, got %dx%d", beach.Width, beach.Height)
		}
		if !beach.HasGPS || beach.Taken == nil {
			t.Error("expected gps and taken time")
		}
		if len(beach.Disclosures) != 2 || beach.Disclosures[0].Severity != "CRITICAL" {
			t.Errorf("unexpected disclosures %+v", beach.Disclosures)
		}

		cat := r.Entries[1]
		if cat.Owner != "alice" || cat.Likes != 1234 || cat.Comments != 1 {
			t.Errorf("unexpected side data %+v", cat)
		}

		broken := r.Entries[2]
		if broken.Loaded() {
			t.Error("expected failed page not to be loaded")
		}
		if !strings.Contains(broken.Error, "404") {
			t.Errorf("expected error text, got %q", broken.Error)
		}
	})

	t.Run("aggregates", func(t *testing.T) {
		t.Parallel()

		if got := r.LoadedCount(); got != 2 {
			t.Errorf("expected 2 loaded, got %d", got)
		}
		if got := r.TotalBytes(); got != 125504 {
			t.Errorf("expected 125504 bytes, got %d", got)
		}
		states := r.StateCounts()
		if states["ready"] != 2 || states["failed"] != 1 {
			t.Errorf("unexpected state counts %v", states)
		}
		severities := r.SeverityCounts()
		if severities[photometa.SeverityCritical] != 1 || len(severities) != 1 {
			t.Errorf("expected one critical page, got %v", severities)
		}
		if failed := r.Failed(); len(failed) != 1 || failed[0].Page != 2 {
			t.Errorf("expected page 2 to have failed, got %+v", failed)
		}
	})
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header, states and pages", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()

		for _, want := range []string{
			"PHOTOBROWSE GALLERY REPORT",
			"Title:      Holiday",
			"Pages:      3 (2 loaded)",
			"Total size: 125,504 bytes",
			"READY:",
			"FAILED:",
			"CRITICAL:",
			"[+] 1 / 3  https://photos.example.com/beach.jpg",
			"[x] 3 / 3  https://photos.example.com/broken.jpg",
			"Camera: Canon EOS R5",
			"Owner:  alice, Likes: 1,234, Comments: 1",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q\n%s", want, output)
			}
		}
		if strings.Contains(output, "GPSLatitude") {
			t.Error("expected disclosed tags to be listed only in verbose mode")
		}
	})

	t.Run("verbose mode lists disclosed tags", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "! CRITICAL GPSLatitude = 35.6") {
			t.Errorf("expected disclosure line, got\n%s", buf.String())
		}
	})

	t.Run("returns the number of bytes written", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewSimpleWriter(&buf).Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("expected %d bytes, got %d", buf.Len(), n)
		}
	})

	t.Run("empty gallery", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(NewGalleryReport("", "", nil, generated)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No pages") {
			t.Error("expected empty gallery note")
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes tables, chart and alerts", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()

		for _, want := range []string{
			"# Gallery Report: Holiday",
			"## Load States",
			"```mermaid",
			"Page Load States",
			"## Metadata Disclosures",
			"[!CAUTION]",
			"## Pages",
			"Canon EOS R5",
			"## Failures",
			"[!WARNING]",
			"unexpected status 404",
			"<details>",
			"github.com/nao1215/photobrowse",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("all pages loaded", func(t *testing.T) {
		t.Parallel()

		r := NewGalleryReport("", "g", []warm.Result{{Page: 0, State: entity.Ready, Format: "png"}}, generated)
		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "[!TIP]") {
			t.Error("expected tip when every page loaded")
		}
		if strings.Contains(output, "## Failures") || strings.Contains(output, "## Metadata Disclosures") {
			t.Error("expected no failure or disclosure sections")
		}
	})

	t.Run("empty gallery", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(NewGalleryReport("", "", nil, generated)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "The gallery has no pages.") {
			t.Error("expected empty gallery note")
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("outputs the report with a summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithVersion("v1.2.3")).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var parsed struct {
			Version string `json:"version"`
			Summary struct {
				Pages  int            `json:"pages"`
				Loaded int            `json:"loaded"`
				States map[string]int `json:"states"`
			} `json:"summary"`
			Report GalleryReport `json:"report"`
		}
		if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if parsed.Version != "v1.2.3" {
			t.Errorf("expected version v1.2.3, got %q", parsed.Version)
		}
		if parsed.Summary.Pages != 3 || parsed.Summary.Loaded != 2 || parsed.Summary.States["failed"] != 1 {
			t.Errorf("unexpected summary %+v", parsed.Summary)
		}
		if len(parsed.Report.Entries) != 3 || parsed.Report.Entries[1].Owner != "alice" {
			t.Errorf("unexpected entries %+v", parsed.Report.Entries)
		}
		if !parsed.Report.GeneratedAt.Equal(generated) {
			t.Errorf("expected generated %v, got %v", generated, parsed.Report.GeneratedAt)
		}
	})

	t.Run("compact by default and indented on request", func(t *testing.T) {
		t.Parallel()

		var compact, pretty bytes.Buffer
		if _, err := NewJSONWriter(&compact).Write(createTestReport()); err != nil {
			t.Fatal(err)
		}
		if _, err := NewJSONWriter(&pretty, WithPrettyPrint()).Write(createTestReport()); err != nil {
			t.Fatal(err)
		}
		if strings.Count(compact.String(), "\n") != 1 {
			t.Error("expected compact output on one line")
		}
		if !strings.Contains(pretty.String(), "\n  \"summary\"") {
			t.Error("expected two-space indentation")
		}
	})
}

type failingWriter struct{}

func (failingWriter) Write(*GalleryReport) (int, error) { return 0, errors.New("disk full") }

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var text, md bytes.Buffer
		n, err := NewMultiWriter(NewSimpleWriter(&text), NewMarkdownWriter(&md)).Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text.Len() == 0 || md.Len() == 0 {
			t.Error("expected both writers to produce output")
		}
		if n < text.Len() {
			t.Errorf("expected total of at least %d bytes, got %d", text.Len(), n)
		}
	})

	t.Run("stops at the first error", func(t *testing.T) {
		t.Parallel()

		var text bytes.Buffer
		_, err := NewMultiWriter(failingWriter{}, NewSimpleWriter(&text)).Write(createTestReport())
		if err == nil {
			t.Fatal("expected error")
		}
		if text.Len() != 0 {
			t.Error("expected later writers to be skipped")
		}
	})
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"abcdef", 3, "abc"},
		{"写真ブラウザの報告", 5, "写真..."},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()

			if got := truncate(tc.input, tc.maxLen); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
