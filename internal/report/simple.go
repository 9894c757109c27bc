package report

import (
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const ruleWidth = 70

// SimpleWriter renders reports as plain text for terminals.
type SimpleWriter struct {
	baseWriter
	verbose bool
	printer *message.Printer
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose lists every disclosed tag under its page.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// WithLanguage sets the locale used to group digits.
func WithLanguage(tag language.Tag) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.printer = message.NewPrinter(tag)
	}
}

// NewSimpleWriter creates a SimpleWriter.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		printer:    message.NewPrinter(language.English),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write renders r.
func (w *SimpleWriter) Write(r *GalleryReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, r)
	w.writeStates(&sb, r)
	w.writeDisclosures(&sb, r)
	w.writePages(&sb, r)
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, r *GalleryReport) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("                        PHOTOBROWSE GALLERY REPORT\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")

	sb.WriteString(w.printer.Sprintf("Title:      %s\n", orDash(r.Title)))
	sb.WriteString(w.printer.Sprintf("Gallery:    %s\n", orDash(r.Gallery)))
	sb.WriteString(w.printer.Sprintf("Generated:  %s\n", r.GeneratedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(w.printer.Sprintf("Pages:      %d (%d loaded)\n", len(r.Entries), r.LoadedCount()))
	sb.WriteString(w.printer.Sprintf("Total size: %d bytes\n", r.TotalBytes()))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeStates(sb *strings.Builder, r *GalleryReport) {
	w.section(sb, "LOAD STATES")
	counts := r.StateCounts()
	for _, state := range stateOrder {
		if counts[state] == 0 {
			continue
		}
		sb.WriteString(w.printer.Sprintf("  %-11s %d\n", strings.ToUpper(state)+":", counts[state]))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeDisclosures(sb *strings.Builder, r *GalleryReport) {
	counts := r.SeverityCounts()
	if len(counts) == 0 {
		return
	}
	w.section(sb, "METADATA DISCLOSURES (pages by most revealing tag)")
	for _, sev := range severityOrder {
		if counts[sev] == 0 {
			continue
		}
		sb.WriteString(w.printer.Sprintf("  %-9s %d\n", sev.String()+":", counts[sev]))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writePages(sb *strings.Builder, r *GalleryReport) {
	w.section(sb, "PAGES")
	if len(r.Entries) == 0 {
		sb.WriteString("  No pages\n\n")
		return
	}

	for _, e := range r.Entries {
		marker := "+"
		if !e.Loaded() {
			marker = "x"
		}
		sb.WriteString(w.printer.Sprintf("  [%s] %d / %d  %s\n", marker, e.Page+1, len(r.Entries), e.URL))

		if e.Loaded() {
			sb.WriteString(w.printer.Sprintf("      %s %dx%d, %d bytes\n", e.Format, e.Width, e.Height, e.Size))
		} else {
			sb.WriteString(w.printer.Sprintf("      %s: %s\n", e.State, orDash(e.Error)))
		}
		if e.Camera != "" {
			sb.WriteString(w.printer.Sprintf("      Camera: %s\n", e.Camera))
		}
		if e.Taken != nil {
			sb.WriteString(w.printer.Sprintf("      Taken:  %s\n", e.Taken.Format("2006-01-02 15:04:05")))
		}
		if e.HasGPS {
			sb.WriteString("      GPS:    present\n")
		}
		if e.Owner != "" || e.Likes > 0 || e.Comments > 0 {
			sb.WriteString(w.printer.Sprintf("      Owner:  %s, Likes: %d, Comments: %d\n", orDash(e.Owner), e.Likes, e.Comments))
		}
		if w.verbose {
			for _, d := range e.Disclosures {
				sb.WriteString(w.printer.Sprintf("      ! %s %s = %s\n", d.Severity, d.Tag, d.Value))
			}
		}
	}
	sb.WriteString("\n")
}
