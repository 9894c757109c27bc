// Package sidecar provides the per-page side data shown next to a photo:
// owner, avatar, favorite count and the latest comments.
//
// Data is looked up in a local store first and fetched from the remote photo
// API on a miss, then written back to the store.
package sidecar

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MaxCommentLines is the number of comment lines a page view shows.
const MaxCommentLines = 3

// Comment is one remote comment on a photo.
type Comment struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Owner is the account that posted a photo.
type Owner struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// Data is the side data of one page.
type Data struct {
	OwnerName   string
	OwnerAvatar []byte
	Favorites   int
	Comments    []Comment
}

// IsZero reports whether d carries nothing to show.
func (d Data) IsZero() bool {
	return d.OwnerName == "" && len(d.OwnerAvatar) == 0 && d.Favorites == 0 && len(d.Comments) == 0
}

// CommentLines returns up to MaxCommentLines lines formatted as "name : message".
func (d Data) CommentLines() []string {
	n := min(len(d.Comments), MaxCommentLines)
	lines := make([]string, 0, n)
	for _, c := range d.Comments[:n] {
		lines = append(lines, fmt.Sprintf("%s : %s", c.Name, c.Message))
	}
	return lines
}

// LikeString formats the favorite count with the digit grouping of tag.
func (d Data) LikeString(tag language.Tag) string {
	return message.NewPrinter(tag).Sprintf("Likes: %d", d.Favorites)
}
