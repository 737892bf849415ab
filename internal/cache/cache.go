// Package cache provides a file-based feed cache with TTL support.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dedene/socialthread-cli/internal/api"
)

// FeedCache is the on-disk representation of a cached feed. Owner identifies
// the backend and account the feed was fetched for, since is_owner flags
// differ per user.
type FeedCache struct {
	Owner     string     `json:"owner"`
	Posts     []api.Post `json:"posts"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// OwnerKey builds the cache owner identifier for a backend and account.
func OwnerKey(apiURL, email string) string {
	return apiURL + "|" + email
}

// LoadFeed reads the cache file and returns posts if fresh and owned by owner.
// Returns (nil, nil) when: file missing, JSON corrupt, owner mismatch or TTL
// expired. Only returns a non-nil error for unexpected read failures.
func LoadFeed(path, owner string, ttl time.Duration) ([]api.Post, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is internal cache, not untrusted input
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("reading cache: %w", err)
	}

	var fc FeedCache
	if err := json.Unmarshal(data, &fc); err != nil {
		// Corrupt cache -- treat as miss.
		return nil, nil //nolint:nilerr
	}

	if fc.Owner != owner || time.Since(fc.FetchedAt) > ttl {
		return nil, nil
	}

	if fc.Posts == nil {
		fc.Posts = []api.Post{}
	}

	return fc.Posts, nil
}

// SaveFeed writes posts to the cache file atomically.
func SaveFeed(path, owner string, posts []api.Post) error {
	fc := FeedCache{
		Owner:     owner,
		Posts:     posts,
		FetchedAt: time.Now(),
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cache: %w", err)
	}

	data = append(data, '\n')

	return atomicWrite(path, data)
}

// Invalidate removes the cache file so the next read goes to the API.
func Invalidate(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing cache: %w", err)
	}

	return nil
}

// atomicWrite writes data to path via temp-file + rename.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tmpPath := tmp.Name()

	defer func() {
		if tmpPath != "" {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	tmpPath = "" // prevent deferred cleanup

	return nil
}
