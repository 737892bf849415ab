package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dedene/socialthread-cli/internal/api"
	"github.com/dedene/socialthread-cli/internal/config"
	"github.com/dedene/socialthread-cli/internal/media"
	"github.com/dedene/socialthread-cli/internal/outfmt"
	"github.com/dedene/socialthread-cli/internal/session"
)

// UploadCmd shares an image or video with an optional caption.
type UploadCmd struct {
	File    string `arg:"" type:"existingfile" help:"Image or video to share"`
	Caption string `help:"Caption shown over the image" short:"m"`
}

// Run validates the file type and uploads it.
func (c *UploadCmd) Run(ctx context.Context, root *RootFlags) error {
	kind, err := media.KindOfFile(c.File)
	if err != nil {
		return usageError(err)
	}

	contentType, err := media.DetectContentType(c.File)
	if err != nil {
		return usageError(err)
	}

	caption := strings.TrimSpace(c.Caption)

	sess, err := session.Require(ctx)
	if err != nil {
		return err
	}

	client, err := clientFrom(ctx)
	if err != nil {
		return err
	}

	var post *api.Post

	err = withRetry(ctx, root, "Upload", func() error {
		f, err := os.Open(c.File)
		if err != nil {
			return fmt.Errorf("opening %s: %w", c.File, err)
		}
		defer f.Close()

		post, err = client.Upload(ctx, sess.Token, api.UploadRequest{
			FileName:    filepath.Base(c.File),
			ContentType: contentType,
			Content:     f,
			Caption:     caption,
		})

		return err
	})
	if err != nil {
		return err
	}

	invalidateFeed()

	displayURL := ""
	if post != nil && post.URL != "" {
		displayURL = media.DisplayURL(*post, mediaOptions(config.FromContext(ctx)))
	}

	if outfmt.IsJSON(ctx) {
		return outfmt.WriteJSON(os.Stdout, map[string]any{
			"post":        post,
			"kind":        kind,
			"display_url": displayURL,
		})
	}

	if outfmt.IsPlain(ctx) {
		if post == nil {
			return nil
		}

		return outfmt.WriteTSV(os.Stdout, [][]string{{post.ID, displayURL}})
	}

	u := uiFrom(ctx)
	u.Out().Successf("Posted!")

	if kind == media.KindVideo && caption != "" {
		u.Err().Warnf("captions are not drawn over videos; the caption is shown in the feed only")
	}

	if displayURL != "" {
		fmt.Fprintln(os.Stdout, displayURL)
	}

	return nil
}
