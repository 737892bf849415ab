// Package preview renders inline terminal image previews of feed posts.
package preview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	// Register image format decoders.
	_ "image/jpeg"
	_ "image/png"

	termimg "github.com/blacktop/go-termimg"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

const (
	fetchTimeout    = 5 * time.Second
	minPreviewWidth = 16
	maxPreviewWidth = 50
	defaultWidth    = 40

	// DefaultConcurrency bounds parallel downloads in ShowAll.
	DefaultConcurrency = 4
)

var errStatus = errors.New("unexpected HTTP status")

// Options configures image preview rendering.
type Options struct {
	// Width in character cells. 0 = auto-detect from terminal.
	Width int
	// Writer receives rendered escape sequences. Typically os.Stderr.
	Writer io.Writer
	// Concurrency bounds parallel downloads in ShowAll. 0 = DefaultConcurrency.
	Concurrency int
}

// Item is one image to preview, printed under its label.
type Item struct {
	Label string
	URL   string
}

// Show downloads an image from imageURL and renders it to opts.Writer.
// Previews are best-effort: any failure (download, decode, render) yields
// nil and no output.
func Show(ctx context.Context, imageURL string, opts Options) error {
	rendered, err := render(ctx, imageURL, resolveWidth(opts.Width))
	if err != nil {
		return nil //nolint:nilerr
	}

	fmt.Fprintln(opts.Writer, rendered)

	return nil
}

// ShowAll renders every item in order, fetching up to opts.Concurrency
// images at a time. Items that fail to load are skipped silently.
func ShowAll(ctx context.Context, items []Item, opts Options) error {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	width := resolveWidth(opts.Width)
	rendered := make([]string, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, it := range items {
		g.Go(func() error {
			out, err := render(gctx, it.URL, width)
			if err == nil {
				rendered[i] = out
			}

			return nil
		})
	}

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	for i, it := range items {
		if rendered[i] == "" {
			continue
		}

		if it.Label != "" {
			fmt.Fprintln(opts.Writer, it.Label)
		}

		fmt.Fprintln(opts.Writer, rendered[i])
	}

	return nil
}

func render(ctx context.Context, imageURL string, width int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %d", errStatus, resp.StatusCode)
	}

	img, err := termimg.From(resp.Body)
	if err != nil {
		return "", err
	}

	return img.Width(width).Scale(termimg.ScaleFit).Render()
}

func resolveWidth(width int) int {
	if width > 0 {
		return width
	}

	w, _, err := term.GetSize(int(os.Stderr.Fd()))
	if err != nil || w <= 0 {
		return defaultWidth
	}

	return max(minPreviewWidth, min(maxPreviewWidth, w/3))
}
