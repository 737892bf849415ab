// Package media decides how feed posts are displayed and which files can be
// uploaded.
package media

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dedene/socialthread-cli/internal/api"
	"github.com/dedene/socialthread-cli/internal/transform"
)

// ErrUnsupportedMedia is returned for files the backend does not accept.
var ErrUnsupportedMedia = errors.New("unsupported media type")

// Kind is the media type of a post.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// KindOf returns the Kind for a post. Anything that is not an image is
// treated as video, matching how the backend classifies uploads.
func KindOf(p api.Post) Kind {
	if strings.EqualFold(p.FileType, string(KindImage)) {
		return KindImage
	}

	return KindVideo
}

// Options controls the directives applied when displaying posts.
type Options struct {
	ImageDirective string
	VideoDirective string
	// NoOverlay disables the caption layer on image posts.
	NoOverlay bool
}

// DefaultOptions returns the stock display directives.
func DefaultOptions() Options {
	return Options{
		ImageDirective: transform.ImageDirective,
		VideoDirective: transform.VideoDirective,
	}
}

// DisplayURL returns the CDN URL used to render p.
//
// Image posts are resized and padded, then the caption (if any) is layered
// on top by a second composition. Video posts are resized only; the text
// overlay directive applies to image responses.
func DisplayURL(p api.Post, opts Options) string {
	if KindOf(p) == KindVideo {
		return transform.Compose(p.URL, transform.Directive(opts.VideoDirective))
	}

	u := transform.Compose(p.URL, transform.Directive(opts.ImageDirective))
	if opts.NoOverlay {
		return u
	}

	return transform.Compose(u, transform.Overlay(p.Caption))
}

// uploadTypes lists accepted extensions and their content types.
var uploadTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".mp4":  "video/mp4",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
}

// AllowedExtensions returns the accepted upload extensions, sorted, without dots.
func AllowedExtensions() []string {
	exts := make([]string, 0, len(uploadTypes))
	for ext := range uploadTypes {
		exts = append(exts, strings.TrimPrefix(ext, "."))
	}

	sort.Strings(exts)

	return exts
}

// DetectContentType returns the content type for an upload by extension.
func DetectContentType(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))

	ct, ok := uploadTypes[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q (allowed: %s)", ErrUnsupportedMedia, filepath.Base(path), strings.Join(AllowedExtensions(), ", "))
	}

	// Prefer the system table when it agrees on the major type.
	if sys := mime.TypeByExtension(ext); sys != "" {
		if mt, _, err := mime.ParseMediaType(sys); err == nil && sameMajor(mt, ct) {
			return mt, nil
		}
	}

	return ct, nil
}

func sameMajor(a, b string) bool {
	ma, _, _ := strings.Cut(a, "/")
	mb, _, _ := strings.Cut(b, "/")

	return ma == mb
}

// KindOfFile returns the Kind an upload will be classified as.
func KindOfFile(path string) (Kind, error) {
	ct, err := DetectContentType(path)
	if err != nil {
		return "", err
	}

	if strings.HasPrefix(ct, "image/") {
		return KindImage, nil
	}

	return KindVideo, nil
}
