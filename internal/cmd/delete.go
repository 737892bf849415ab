package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dedene/socialthread-cli/internal/api"
	"github.com/dedene/socialthread-cli/internal/outfmt"
	"github.com/dedene/socialthread-cli/internal/session"
)

var errNeedsForce = errors.New("refusing to delete without confirmation; pass --force")

// DeleteCmd removes one of the user's own posts.
type DeleteCmd struct {
	ID string `arg:"" help:"Post ID"`
}

// Run confirms, then deletes the post.
func (c *DeleteCmd) Run(ctx context.Context, root *RootFlags) error {
	sess, err := session.Require(ctx)
	if err != nil {
		return err
	}

	client, err := clientFrom(ctx)
	if err != nil {
		return err
	}

	if !root.Force {
		if !canPrompt(root) {
			return usageError(errNeedsForce)
		}

		ok, err := confirm(root, fmt.Sprintf("Delete post %s?", c.ID))
		if err != nil {
			return err
		}

		if !ok {
			fmt.Fprintln(os.Stderr, "Cancelled.")
			return nil
		}
	}

	if err := deletePost(ctx, root, client, sess, c.ID); err != nil {
		return err
	}

	if outfmt.IsJSON(ctx) {
		return outfmt.WriteJSON(os.Stdout, map[string]any{"deleted": c.ID})
	}

	uiFrom(ctx).Out().Successf("Post deleted.")

	return nil
}

func deletePost(ctx context.Context, root *RootFlags, client *api.Client, sess *session.Session, id string) error {
	err := withRetry(ctx, root, "Delete", func() error {
		return client.DeletePost(ctx, sess.Token, id)
	})
	if err != nil {
		return fmt.Errorf("deleting post %s: %w", id, err)
	}

	invalidateFeed()

	return nil
}
