package report

import (
	"cmp"
	"slices"
	"time"

	"github.com/nao1215/photobrowse/internal/entity"
	"github.com/nao1215/photobrowse/internal/photometa"
	"github.com/nao1215/photobrowse/internal/warm"
)

// Disclosure is a revealing EXIF tag found on a page.
type Disclosure struct {
	Kind     string `json:"kind"`
	Tag      string `json:"tag"`
	Value    string `json:"value"`
	Severity string `json:"severity"`

	level photometa.Severity
}

// Entry describes one page.
type Entry struct {
	Page   int    `json:"page"`
	URL    string `json:"url"`
	UUID   string `json:"uuid"`
	State  string `json:"state"`
	Format string `json:"format,omitempty"`
	Size   int    `json:"size"`
	Width  int    `json:"width"`
	Height int    `json:"height"`

	Camera      string       `json:"camera,omitempty"`
	Taken       *time.Time   `json:"taken,omitempty"`
	HasGPS      bool         `json:"gps"`
	Disclosures []Disclosure `json:"disclosures,omitempty"`

	Owner    string `json:"owner,omitempty"`
	Likes    int    `json:"likes"`
	Comments int    `json:"comments"`

	Error string `json:"error,omitempty"`
}

// Loaded reports whether the page's image was decoded.
func (e Entry) Loaded() bool {
	return e.State == entity.Ready.String()
}

// GalleryReport is the inspection result of a gallery.
type GalleryReport struct {
	Title       string    `json:"title"`
	Gallery     string    `json:"gallery"`
	GeneratedAt time.Time `json:"generatedAt"`
	Entries     []Entry   `json:"entries"`
}

// NewGalleryReport builds a report from warm results, ordered by page.
func NewGalleryReport(title, gallery string, results []warm.Result, now time.Time) *GalleryReport {
	entries := make([]Entry, 0, len(results))
	for i := range results {
		entries = append(entries, newEntry(&results[i]))
	}
	slices.SortFunc(entries, func(a, b Entry) int { return cmp.Compare(a.Page, b.Page) })

	return &GalleryReport{
		Title:       title,
		Gallery:     gallery,
		GeneratedAt: now,
		Entries:     entries,
	}
}

func newEntry(r *warm.Result) Entry {
	e := Entry{
		Page:   r.Page,
		URL:    r.URL,
		UUID:   r.UUID,
		State:  r.State.String(),
		Format: r.Format,
		Size:   r.Size,
		Width:  r.Bounds.Dx(),
		Height: r.Bounds.Dy(),
	}
	if r.Err != nil {
		e.Error = r.Err.Error()
	}

	if m := r.Metadata; m != nil {
		e.Camera = m.Camera()
		if !m.Taken.IsZero() {
			taken := m.Taken
			e.Taken = &taken
		}
		e.HasGPS = m.HasGPS
		for _, d := range m.Disclosures {
			e.Disclosures = append(e.Disclosures, Disclosure{
				Kind:     d.Kind,
				Tag:      d.Tag,
				Value:    d.Value,
				Severity: d.Severity.String(),
				level:    d.Severity,
			})
		}
	}

	if s := r.Sidecar; s != nil {
		e.Owner = s.OwnerName
		e.Likes = s.Favorites
		e.Comments = len(s.Comments)
	}
	return e
}

// StateCounts returns the number of pages per load state name.
func (r *GalleryReport) StateCounts() map[string]int {
	counts := make(map[string]int)
	for _, e := range r.Entries {
		counts[e.State]++
	}
	return counts
}

// LoadedCount returns the number of decoded pages.
func (r *GalleryReport) LoadedCount() int {
	n := 0
	for _, e := range r.Entries {
		if e.Loaded() {
			n++
		}
	}
	return n
}

// Failed returns the entries of pages that did not load.
func (r *GalleryReport) Failed() []Entry {
	var failed []Entry
	for _, e := range r.Entries {
		if !e.Loaded() {
			failed = append(failed, e)
		}
	}
	return failed
}

// SeverityCounts returns the number of pages whose most revealing disclosure
// has each severity. Pages without disclosures are not counted.
func (r *GalleryReport) SeverityCounts() map[photometa.Severity]int {
	counts := make(map[photometa.Severity]int)
	for _, e := range r.Entries {
		if len(e.Disclosures) == 0 {
			continue
		}
		counts[e.maxSeverity()]++
	}
	return counts
}

// TotalBytes returns the summed encoded size of all pages.
func (r *GalleryReport) TotalBytes() int {
	total := 0
	for _, e := range r.Entries {
		total += e.Size
	}
	return total
}

func (e Entry) maxSeverity() photometa.Severity {
	highest := photometa.SeverityInfo
	for _, d := range e.Disclosures {
		highest = max(highest, d.level)
	}
	return highest
}

// stateOrder lists the load states in the order reports show them.
var stateOrder = []string{
	entity.Ready.String(),
	entity.Failed.String(),
	entity.Loading.String(),
	entity.Paused.String(),
	entity.NotLoaded.String(),
}

// severityOrder lists severities from most to least revealing.
var severityOrder = []photometa.Severity{
	photometa.SeverityCritical,
	photometa.SeverityHigh,
	photometa.SeverityMedium,
	photometa.SeverityLow,
	photometa.SeverityInfo,
}
