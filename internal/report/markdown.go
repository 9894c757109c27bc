package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter renders reports as GitHub-flavoured Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write renders r.
func (w *MarkdownWriter) Write(r *GalleryReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, r)
	w.writeStates(md, r)
	w.writeDisclosures(md, r)
	w.writePages(md, r)
	w.writeFailures(md, r)

	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by [photobrowse](https://github.com/nao1215/photobrowse)*")

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, r *GalleryReport) {
	title := "Gallery Report"
	if r.Title != "" {
		title += ": " + r.Title
	}
	md.H1(title)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Gallery", "`" + orDash(r.Gallery) + "`"},
			{"Generated", r.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Pages", strconv.Itoa(len(r.Entries))},
			{"Loaded", strconv.Itoa(r.LoadedCount())},
			{"Total Size", strconv.Itoa(r.TotalBytes()) + " bytes"},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeStates(md *markdown.Markdown, r *GalleryReport) {
	md.H2("Load States")
	md.PlainText("")

	counts := r.StateCounts()
	rows := make([][]string, 0, len(stateOrder))
	for _, state := range stateOrder {
		if counts[state] == 0 {
			continue
		}
		rows = append(rows, []string{state, strconv.Itoa(counts[state])})
	}
	if len(rows) == 0 {
		md.PlainText("The gallery has no pages.")
		md.PlainText("")
		return
	}
	md.Table(markdown.TableSet{Header: []string{"State", "Pages"}, Rows: rows})
	md.PlainText("")

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Page Load States"),
		piechart.WithShowData(true),
	)
	for _, state := range stateOrder {
		if counts[state] > 0 {
			chart.LabelAndIntValue(state, uint64(counts[state]))
		}
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeDisclosures(md *markdown.Markdown, r *GalleryReport) {
	counts := r.SeverityCounts()
	if len(counts) == 0 {
		return
	}

	md.H2("Metadata Disclosures")
	md.PlainText("")
	rows := make([][]string, 0, len(severityOrder))
	for _, sev := range severityOrder {
		if counts[sev] > 0 {
			rows = append(rows, []string{sev.String(), strconv.Itoa(counts[sev])})
		}
	}
	md.Table(markdown.TableSet{Header: []string{"Most Revealing Tag", "Pages"}, Rows: rows})
	md.PlainText("")

	switch {
	case counts[severityOrder[0]] > 0:
		md.Cautionf("%d page(s) carry GPS coordinates that reveal where they were taken.", counts[severityOrder[0]])
	case counts[severityOrder[1]] > 0:
		md.Warningf("%d page(s) carry serial numbers or author names.", counts[severityOrder[1]])
	default:
		md.Note("No page reveals a location, a device serial or an author.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writePages(md *markdown.Markdown, r *GalleryReport) {
	if len(r.Entries) == 0 {
		return
	}
	md.H2("Pages")
	md.PlainText("")

	rows := make([][]string, len(r.Entries))
	for i, e := range r.Entries {
		size := "-"
		if e.Loaded() {
			size = strconv.Itoa(e.Width) + "x" + strconv.Itoa(e.Height)
		}
		rows[i] = []string{
			strconv.Itoa(e.Page + 1),
			truncate(e.URL, 50),
			e.State,
			orDash(e.Format),
			size,
			orDash(e.Camera),
			strconv.Itoa(e.Likes),
			strconv.Itoa(e.Comments),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Page", "URL", "State", "Format", "Size", "Camera", "Likes", "Comments"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, e := range r.Entries {
		if len(e.Disclosures) == 0 {
			continue
		}
		body := ""
		for _, d := range e.Disclosures {
			body += "- " + d.Severity + " `" + d.Tag + "`: " + d.Value + "\n"
		}
		md.Details("Page "+strconv.Itoa(e.Page+1)+" EXIF", body)
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, r *GalleryReport) {
	failed := r.Failed()
	if len(failed) == 0 {
		if len(r.Entries) > 0 {
			md.Tip("Every page loaded.")
			md.PlainText("")
		}
		return
	}

	md.H2("Failures")
	md.PlainText("")
	md.Warningf("%d of %d page(s) did not load.", len(failed), len(r.Entries))
	md.PlainText("")

	rows := make([][]string, len(failed))
	for i, e := range failed {
		rows[i] = []string{strconv.Itoa(e.Page + 1), truncate(e.URL, 50), truncate(orDash(e.Error), 80)}
	}
	md.Table(markdown.TableSet{Header: []string{"Page", "URL", "Error"}, Rows: rows})
	md.PlainText("")
}
