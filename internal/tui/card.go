package tui

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/draw"
	"golang.org/x/text/language"

	"github.com/nao1215/photobrowse/internal/entity"
	"github.com/nao1215/photobrowse/internal/sidecar"
)

// halfBlock shows two vertically stacked pixels: foreground on top, background below.
const halfBlock = "▀"

// Card is the view of one materialized page.
type Card struct {
	page  int
	url   string
	state entity.SourceImageState
	lang  language.Tag

	image      image.Image
	sidecar    sidecar.Data
	hasSidecar bool

	// preview is the rendered image for previewCols x previewRows cells.
	preview     []string
	previewCols int
	previewRows int
}

func newCard(page int, url string, state entity.SourceImageState, lang language.Tag) *Card {
	return &Card{page: page, url: url, state: state, lang: lang}
}

// SourceImageStateChanged follows the entity's load state.
func (c *Card) SourceImageStateChanged(_ *entity.ImageEntity, _, newState entity.SourceImageState) {
	c.state = newState
}

// SetImage shows img; nil clears it.
func (c *Card) SetImage(img image.Image) {
	c.image = img
	c.preview = nil
}

// SetActivity shows the indicator for state.
func (c *Card) SetActivity(state entity.SourceImageState) {
	c.state = state
}

// SetSidecar shows owner, likes and comments.
func (c *Card) SetSidecar(data sidecar.Data) {
	c.sidecar = data
	c.hasSidecar = true
}

// Page returns the page index.
func (c *Card) Page() int { return c.page }

// State returns the load state last shown.
func (c *Card) State() entity.SourceImageState { return c.state }

// HasImage reports whether an image (thumbnail or source) is shown.
func (c *Card) HasImage() bool { return c.image != nil }

// Render returns exactly height lines no wider than width cells.
func (c *Card) Render(width, height int) []string {
	if width <= 0 || height <= 0 {
		return nil
	}

	lines := []string{
		styleURL.Render(clip(c.url, width)),
		c.activity(width),
	}

	var footer []string
	if c.hasSidecar && !c.sidecar.IsZero() {
		if c.sidecar.OwnerName != "" {
			footer = append(footer, styleOwner.Render(clip(c.sidecar.OwnerName, width)))
		}
		footer = append(footer, styleLikes.Render(clip(c.sidecar.LikeString(c.lang), width)))
		for _, l := range c.sidecar.CommentLines() {
			footer = append(footer, styleComment.Render(clip(l, width)))
		}
	}

	rows := height - len(lines) - len(footer)
	if len(footer) > 0 {
		rows-- // spacer
	}
	if rows > 0 {
		if c.image != nil {
			lines = append(lines, c.renderPreview(width, rows)...)
		} else {
			lines = append(lines, styleEmpty.Render(clip("(no image)", width)))
		}
	}
	for len(lines) < height-len(footer) {
		lines = append(lines, "")
	}
	lines = append(lines, footer...)

	if len(lines) > height {
		lines = lines[:height]
	}
	return lines
}

func (c *Card) activity(width int) string {
	switch c.state {
	case entity.Loading, entity.Paused:
		return styleBusy.Render(clip("◌ "+c.state.String(), width))
	case entity.Failed:
		return styleFailed.Render(clip("✗ failed, press r to retry", width))
	case entity.Ready:
		return styleReady.Render(clip("● ready", width))
	default:
		return styleEmpty.Render(clip("· "+c.state.String(), width))
	}
}

func (c *Card) renderPreview(cols, rows int) []string {
	if c.preview != nil && c.previewCols == cols && c.previewRows == rows {
		return c.preview
	}
	c.preview = halfBlocks(c.image, cols, rows)
	c.previewCols = cols
	c.previewRows = rows
	return c.preview
}

// halfBlocks scales img to fit cols x rows cells, two pixels per cell.
func halfBlocks(img image.Image, cols, rows int) []string {
	b := img.Bounds()
	if b.Empty() || cols <= 0 || rows <= 0 {
		return nil
	}
	w, h := fit(b.Dx(), b.Dy(), cols, rows*2)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)

	lines := make([]string, 0, (h+1)/2)
	for y := 0; y < h; y += 2 {
		var sb strings.Builder
		for x := range w {
			style := lipgloss.NewStyle().Foreground(hexColor(dst.RGBAAt(x, y)))
			if y+1 < h {
				style = style.Background(hexColor(dst.RGBAAt(x, y+1)))
			}
			sb.WriteString(style.Render(halfBlock))
		}
		lines = append(lines, sb.String())
	}
	return lines
}

// fit scales w x h down (or up) to the largest size within maxW x maxH.
func fit(w, h, maxW, maxH int) (int, int) {
	scale := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	return max(1, int(float64(w)*scale)), max(1, int(float64(h)*scale))
}

func hexColor(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}

// clip cuts s to at most width runes.
func clip(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}
