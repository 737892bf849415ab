package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dedene/socialthread-cli/internal/actions"
	"github.com/dedene/socialthread-cli/internal/api"
	"github.com/dedene/socialthread-cli/internal/config"
	"github.com/dedene/socialthread-cli/internal/media"
	"github.com/dedene/socialthread-cli/internal/outfmt"
	"github.com/dedene/socialthread-cli/internal/preview"
	"github.com/dedene/socialthread-cli/internal/session"
)

// ErrPostNotFound is returned when an ID is not in the feed.
var ErrPostNotFound = errors.New("post not found in feed")

// OpenCmd hands a post's display URL to the browser, clipboard or a file.
type OpenCmd struct {
	ID         string `arg:"" help:"Post ID"`
	Copy       bool   `help:"Copy URL to clipboard instead of opening" short:"c"`
	Output     string `help:"Download the displayed media to a file" short:"o" type:"path"`
	AutoOutput bool   `help:"Download to the current directory with the asset's file name" short:"O"`
	Refresh    bool   `help:"Bypass the feed cache" short:"r"`
	Preview    *bool  `help:"Show an inline preview of image posts" negatable:""`
}

// Run finds the post and performs the requested actions.
func (c *OpenCmd) Run(ctx context.Context, root *RootFlags) error {
	sess, err := session.Require(ctx)
	if err != nil {
		return err
	}

	client, err := clientFrom(ctx)
	if err != nil {
		return err
	}

	cfg := config.FromContext(ctx)
	if cfg == nil {
		cfg = &config.Config{}
	}

	posts, err := loadFeed(ctx, root, client, sess, cfg, c.Refresh)
	if err != nil {
		return err
	}

	post, ok := findPost(posts, c.ID)
	if !ok && !c.Refresh {
		// The cached feed may predate the post.
		if posts, err = loadFeed(ctx, root, client, sess, cfg, true); err != nil {
			return err
		}

		post, ok = findPost(posts, c.ID)
	}

	if !ok {
		return fmt.Errorf("%w: %s", ErrPostNotFound, c.ID)
	}

	displayURL := media.DisplayURL(post, mediaOptions(cfg))

	if outfmt.IsJSON(ctx) {
		if err := outfmt.WriteJSON(os.Stdout, map[string]any{"id": post.ID, "url": displayURL}); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(os.Stdout, displayURL)

		if media.KindOf(post) == media.KindImage && shouldPreview(c.Preview, cfg, root) {
			_ = preview.Show(ctx, displayURL, preview.Options{Writer: os.Stderr})
		}
	}

	return c.runActions(ctx, displayURL, cfg)
}

// runActions fires the requested actions. Explicit flags fail the command;
// actions implied by config only warn.
func (c *OpenCmd) runActions(ctx context.Context, displayURL string, cfg *config.Config) error {
	u := uiFrom(ctx)

	download := c.Output != "" || c.AutoOutput
	explicitOpen := !c.Copy && !download

	if c.Copy {
		if err := actions.CopyToClipboard(displayURL); err != nil {
			return fmt.Errorf("clipboard: %w", err)
		}
	} else if cfg.AutoCopy != nil && *cfg.AutoCopy {
		if err := actions.CopyToClipboard(displayURL); err != nil {
			u.Err().Warnf("clipboard: %v", err)
		}
	}

	if download {
		dest := c.Output
		if dest == "" {
			dest = actions.AutoFilename(displayURL, "post")
		}

		if err := actions.DownloadFile(ctx, displayURL, dest); err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Saved %s\n", dest)
	}

	if explicitOpen {
		if err := actions.OpenInBrowser(displayURL); err != nil {
			return fmt.Errorf("opening browser: %w", err)
		}
	} else if cfg.AutoOpen != nil && *cfg.AutoOpen {
		if err := actions.OpenInBrowser(displayURL); err != nil {
			u.Err().Warnf("browser: %v", err)
		}
	}

	return nil
}

func findPost(posts []api.Post, id string) (api.Post, bool) {
	for _, p := range posts {
		if p.ID == id {
			return p, true
		}
	}

	return api.Post{}, false
}
