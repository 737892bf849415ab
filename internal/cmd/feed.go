package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/dedene/socialthread-cli/internal/actions"
	"github.com/dedene/socialthread-cli/internal/api"
	"github.com/dedene/socialthread-cli/internal/cache"
	"github.com/dedene/socialthread-cli/internal/config"
	"github.com/dedene/socialthread-cli/internal/media"
	"github.com/dedene/socialthread-cli/internal/outfmt"
	"github.com/dedene/socialthread-cli/internal/preview"
	"github.com/dedene/socialthread-cli/internal/session"
	"github.com/dedene/socialthread-cli/internal/tui"
	"github.com/dedene/socialthread-cli/internal/ui"
)

const emptyFeedMessage = "No posts yet! Be the first to share something."

const captionWidth = 40

// Swappable in tests.
var (
	stdoutIsTerminal = func() bool { return isatty.IsTerminal(os.Stdout.Fd()) }
	stderrIsTerminal = func() bool { return isatty.IsTerminal(os.Stderr.Fd()) }
	runProgram       = func(m tea.Model) (tea.Model, error) {
		return tea.NewProgram(m, tea.WithAltScreen()).Run()
	}
)

// FeedCmd lists the feed, or browses it interactively on a terminal.
type FeedCmd struct {
	Refresh bool  `help:"Bypass the feed cache" short:"r"`
	Limit   int   `help:"Show at most N posts (0 = all)" short:"n" default:"0"`
	Preview *bool `help:"Show inline image previews" negatable:""`
	TUI     *bool `help:"Interactive browser (default on a terminal)" name:"tui" negatable:""`
}

// feedEntry is a post plus the URL it is displayed with.
type feedEntry struct {
	api.Post
	DisplayURL string `json:"display_url"`
}

// Run fetches the feed and renders it.
func (c *FeedCmd) Run(ctx context.Context, root *RootFlags) error {
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

	if c.Limit > 0 && len(posts) > c.Limit {
		posts = posts[:c.Limit]
	}

	opts := mediaOptions(cfg)

	entries := make([]feedEntry, len(posts))
	for i, p := range posts {
		entries[i] = feedEntry{Post: p, DisplayURL: media.DisplayURL(p, opts)}
	}

	if outfmt.IsJSON(ctx) {
		return outfmt.WriteJSON(os.Stdout, map[string]any{"posts": entries})
	}

	if outfmt.IsPlain(ctx) {
		rows := make([][]string, len(entries))
		for i, e := range entries {
			rows[i] = []string{e.ID, e.Email, e.CreatedAt.Date(), string(media.KindOf(e.Post)), e.Caption, e.DisplayURL}
		}

		return outfmt.WriteTSV(os.Stdout, rows)
	}

	u := uiFrom(ctx)

	if len(entries) == 0 {
		u.Out().Println(emptyFeedMessage)
		return nil
	}

	if c.useTUI(root) {
		return runBrowser(ctx, root, client, sess, posts, opts)
	}

	if shouldPreview(c.Preview, cfg, root) {
		if err := preview.ShowAll(ctx, previewItems(entries), preview.Options{Writer: os.Stderr}); err != nil {
			return fmt.Errorf("previewing feed: %w", err)
		}
	}

	printFeedTable(u, entries)

	return nil
}

// loadFeed returns the cached feed when fresh, otherwise fetches and caches it.
func loadFeed(ctx context.Context, root *RootFlags, client *api.Client, sess *session.Session, cfg *config.Config, refresh bool) ([]api.Post, error) {
	owner := cache.OwnerKey(client.BaseURL(), sess.Email())

	path, pathErr := config.CachePath()
	if pathErr != nil {
		slog.Warn("resolving cache path", "error", pathErr)
	}

	if !refresh && pathErr == nil {
		cached, err := cache.LoadFeed(path, owner, cfg.CacheTTLDuration())
		if err != nil {
			slog.Warn("reading feed cache", "error", err)
		}

		if cached != nil {
			slog.Debug("feed from cache", "posts", len(cached))
			return cached, nil
		}
	}

	var posts []api.Post

	err := withRetry(ctx, root, "Loading feed", func() error {
		var err error
		posts, err = client.Feed(ctx, sess.Token)

		return err
	})
	if err != nil {
		return nil, err
	}

	if pathErr == nil {
		if err := cache.SaveFeed(path, owner, posts); err != nil {
			slog.Warn("writing feed cache", "error", err)
		}
	}

	return posts, nil
}

func (c *FeedCmd) useTUI(root *RootFlags) bool {
	if c.TUI != nil && !*c.TUI {
		return false
	}

	return canPrompt(root) && stdoutIsTerminal()
}

// shouldPreview determines if inline previews should be shown.
// Cascade: explicit flag > config preview > off. Always false when stderr
// is not a TTY or --no-input is set.
func shouldPreview(flag *bool, cfg *config.Config, root *RootFlags) bool {
	if !stderrIsTerminal() {
		return false
	}

	if root != nil && root.NoInput {
		return false
	}

	if flag != nil {
		return *flag
	}

	if cfg != nil && cfg.Preview != nil {
		return *cfg.Preview
	}

	return false
}

// previewItems selects the image posts; videos cannot be drawn inline.
func previewItems(entries []feedEntry) []preview.Item {
	var items []preview.Item

	for _, e := range entries {
		if media.KindOf(e.Post) != media.KindImage {
			continue
		}

		items = append(items, preview.Item{
			Label: fmt.Sprintf("%s (%s)", ui.Truncate(e.Caption, captionWidth), e.Email),
			URL:   e.DisplayURL,
		})
	}

	return items
}

func printFeedTable(u *ui.UI, entries []feedEntry) {
	headers := []string{"ID", "Author", "Date", "Type", "Caption", "URL"}
	rows := make([][]string, len(entries))

	var own []int

	for i, e := range entries {
		rows[i] = []string{e.ID, e.Email, e.CreatedAt.Date(), string(media.KindOf(e.Post)), ui.Truncate(e.Caption, captionWidth), e.DisplayURL}
		if e.IsOwner {
			own = append(own, i)
		}
	}

	u.Out().Println(ui.RenderTable(headers, rows, u.Out().ColorEnabled(), own...))
}

// runBrowser shows the interactive browser and carries out the chosen action.
func runBrowser(ctx context.Context, root *RootFlags, client *api.Client, sess *session.Session, posts []api.Post, opts media.Options) error {
	final, err := runProgram(tui.NewBrowser(posts, opts))
	if err != nil {
		return fmt.Errorf("running feed browser: %w", err)
	}

	m, ok := final.(tui.Model)
	if !ok {
		return errors.New("unexpected feed browser model")
	}

	return applyResult(ctx, root, client, sess, m.Result())
}

func applyResult(ctx context.Context, root *RootFlags, client *api.Client, sess *session.Session, r tui.Result) error {
	u := uiFrom(ctx)

	switch r.Action {
	case tui.ActionOpen:
		if err := actions.OpenInBrowser(r.URL); err != nil {
			return fmt.Errorf("opening browser: %w", err)
		}

		u.Out().Println(r.URL)

	case tui.ActionCopy:
		if err := actions.CopyToClipboard(r.URL); err != nil {
			u.Err().Warnf("clipboard: %v", err)
			u.Out().Println(r.URL)

			return nil
		}

		u.Out().Successf("Copied %s", r.URL)

	case tui.ActionDelete:
		if err := deletePost(ctx, root, client, sess, r.Post.ID); err != nil {
			return err
		}

		u.Out().Successf("Post deleted.")

	case tui.ActionNone:
	}

	return nil
}
