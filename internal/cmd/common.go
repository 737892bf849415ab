package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dedene/socialthread-cli/internal/api"
	"github.com/dedene/socialthread-cli/internal/cache"
	"github.com/dedene/socialthread-cli/internal/config"
	"github.com/dedene/socialthread-cli/internal/media"
)

var errNoClient = errors.New("api client not found in context")

func clientFrom(ctx context.Context) (*api.Client, error) {
	client := api.ClientFromContext(ctx)
	if client == nil {
		return nil, errNoClient
	}

	return client, nil
}

// mediaOptions builds display options from config, falling back to the
// stock directives for unset keys.
func mediaOptions(cfg *config.Config) media.Options {
	opts := media.DefaultOptions()
	if cfg == nil {
		return opts
	}

	if cfg.ImageDirective != "" {
		opts.ImageDirective = cfg.ImageDirective
	}

	if cfg.VideoDirective != "" {
		opts.VideoDirective = cfg.VideoDirective
	}

	opts.NoOverlay = !cfg.OverlayEnabled()

	return opts
}

// invalidateFeed drops the cached feed after a change on the server.
func invalidateFeed() {
	path, err := config.CachePath()
	if err != nil {
		return
	}

	if err := cache.Invalidate(path); err != nil {
		slog.Warn("invalidating feed cache", "error", err)
	}
}
