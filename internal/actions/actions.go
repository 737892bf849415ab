// Package actions hands a post's display URL to the outside world:
// clipboard copy, browser open and file download.
package actions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/pkg/browser"
)

// ErrClipboardUnsupported indicates the platform has no clipboard support.
var ErrClipboardUnsupported = errors.New("clipboard not supported on this platform")

// ErrHTTPStatus indicates the server returned a non-200 status code.
var ErrHTTPStatus = errors.New("unexpected HTTP status")

// ClipboardWrite is a function variable for clipboard writes (swappable in tests).
var ClipboardWrite = clipboard.WriteAll

// ClipboardUnsupported mirrors clipboard.Unsupported (swappable in tests).
var ClipboardUnsupported = clipboard.Unsupported

// BrowserOpen is a function variable for opening URLs (swappable in tests).
var BrowserOpen = browser.OpenURL

// CopyToClipboard copies text to the system clipboard.
func CopyToClipboard(text string) error {
	if ClipboardUnsupported {
		return ErrClipboardUnsupported
	}

	return ClipboardWrite(text)
}

// OpenInBrowser opens the given URL in the default browser.
func OpenInBrowser(rawURL string) error {
	return BrowserOpen(rawURL)
}

// DownloadFile fetches rawURL (a public CDN URL, no auth) and saves it to
// destPath. A partially written file is removed on failure.
func DownloadFile(ctx context.Context, rawURL, destPath string) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", rawURL, err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading %s: %w: %d", rawURL, ErrHTTPStatus, resp.StatusCode)
	}

	f, err := os.Create(destPath) //nolint:gosec // destPath is user-provided output flag
	if err != nil {
		return fmt.Errorf("creating %s: %w", destPath, err)
	}

	defer func() {
		_ = f.Close()
		if err != nil {
			_ = os.Remove(destPath)
		}
	}()

	if _, err = io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("writing %s: %w", destPath, err)
	}

	if err = f.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", destPath, err)
	}

	return nil
}

// AutoFilename derives a local filename from a media URL, skipping any
// "tr:" directive segment. fallback is returned when nothing usable remains.
func AutoFilename(rawURL, fallback string) string {
	if rawURL == "" {
		return fallback
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fallback
	}

	base := path.Base(u.Path)
	if base == "" || base == "." || base == "/" || strings.HasPrefix(base, "tr:") {
		return fallback
	}

	return base
}
