package tui

import (
	"golang.org/x/text/language"

	"github.com/nao1215/photobrowse/internal/browser"
	"github.com/nao1215/photobrowse/internal/entity"
)

// Board creates page cards and hosts the cards of materialized pages.
// It implements browser.ViewFactory and browser.Container.
type Board struct {
	cards map[int]*Card
	lang  language.Tag
}

// NewBoard creates an empty Board. lang formats like counts.
func NewBoard(lang language.Tag) *Board {
	return &Board{
		cards: make(map[int]*Card),
		lang:  lang,
	}
}

// NewPageView creates the card of page.
func (b *Board) NewPageView(page int, img *entity.ImageEntity) browser.PageView {
	return newCard(page, img.URL(), img.State(), b.lang)
}

// AddPageView shows the card of page.
func (b *Board) AddPageView(page int, view browser.PageView) {
	if card, ok := view.(*Card); ok {
		b.cards[page] = card
	}
}

// RemovePageView hides the card of page if it is still the one shown.
func (b *Board) RemovePageView(page int, view browser.PageView) {
	if card, ok := b.cards[page]; ok && browser.PageView(card) == view {
		delete(b.cards, page)
	}
}

// Card returns the card shown for page.
func (b *Board) Card(page int) (*Card, bool) {
	card, ok := b.cards[page]
	return card, ok
}

// Len returns the number of cards shown.
func (b *Board) Len() int { return len(b.cards) }
