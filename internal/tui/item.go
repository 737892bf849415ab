// Package tui provides the interactive Bubbletea feed browser.
package tui

import (
	"fmt"
	"strings"

	"github.com/dedene/socialthread-cli/internal/api"
	"github.com/dedene/socialthread-cli/internal/media"
)

// PostItem wraps api.Post to implement the bubbles list.DefaultItem
// interface. It carries the post's precomputed display URL.
type PostItem struct {
	post       api.Post
	displayURL string
}

// NewPostItem creates a PostItem, composing its display URL with opts.
func NewPostItem(p api.Post, opts media.Options) PostItem {
	return PostItem{post: p, displayURL: media.DisplayURL(p, opts)}
}

// Title returns the caption, or a placeholder for uncaptioned posts.
func (i PostItem) Title() string {
	if strings.TrimSpace(i.post.Caption) == "" {
		return "(no caption)"
	}

	return i.post.Caption
}

// Description returns author, date and media kind.
func (i PostItem) Description() string {
	desc := fmt.Sprintf("%s · %s · %s", i.post.Email, i.post.CreatedAt.Date(), media.KindOf(i.post))
	if i.post.IsOwner {
		desc += " · yours"
	}

	return desc
}

// FilterValue returns caption and author for fuzzy matching.
func (i PostItem) FilterValue() string {
	return i.post.Caption + " " + i.post.Email
}

// Post returns the wrapped api.Post.
func (i PostItem) Post() api.Post { return i.post }

// DisplayURL returns the transformed URL the post is rendered with.
func (i PostItem) DisplayURL() string { return i.displayURL }
