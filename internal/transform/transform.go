// Package transform composes CDN transformation URLs for stored media assets.
//
// Asset URLs have the shape scheme://host/<account>/<file path>. A
// transformation is requested by splicing a "tr:<directive>" segment directly
// after the account segment:
//
//	https://ik.example.com/demoacct/path/to/file.png
//	https://ik.example.com/demoacct/tr:w-900,h-900,cm-pad_resize/path/to/file.png
//
// URLs that do not have this shape are returned unchanged, so a failed
// transformation always falls back to the original asset.
package transform

import (
	"strings"
)

const (
	// Marker prefixes the directive segment spliced into the URL.
	Marker = "tr:"

	// MinSegments is the minimum number of "/"-separated segments an asset
	// URL needs before a directive can be inserted.
	MinSegments = 5

	// baseSegments is the number of leading segments (scheme, empty, host,
	// account) kept in front of the directive.
	baseSegments = 4
)

// Directives applied to feed media before display.
const (
	ImageDirective = "w-900,h-900,cm-pad_resize"
	VideoDirective = "w-900,h-500,cm-pad_resize"
)

// Kind tells which variant a Request carries.
type Kind int

const (
	// KindNone requests no transformation.
	KindNone Kind = iota
	// KindDirective passes a caller-chosen directive through verbatim.
	KindDirective
	// KindOverlay renders text on top of the image.
	KindOverlay
)

func (k Kind) String() string {
	switch k {
	case KindDirective:
		return "directive"
	case KindOverlay:
		return "overlay"
	default:
		return "none"
	}
}

// Request selects the transformation applied by Compose. Build one with
// Directive or Overlay; the zero value requests nothing.
type Request struct {
	Kind  Kind
	Value string // directive, for KindDirective
	Text  string // caption, for KindOverlay
}

// Directive returns a Request that injects d into the URL uninterpreted.
func Directive(d string) Request {
	return Request{Kind: KindDirective, Value: d}
}

// Overlay returns a Request that layers text over the image.
func Overlay(text string) Request {
	return Request{Kind: KindOverlay, Text: text}
}

// RequestFor resolves the optional directive/caption pair used by callers
// that hold both. A non-empty caption always wins.
func RequestFor(directive, caption string) Request {
	if caption != "" {
		return Overlay(caption)
	}

	if directive != "" {
		return Directive(directive)
	}

	return Request{}
}

// EffectiveDirective returns the directive string r expands to, or "" when
// r requests nothing.
func (r Request) EffectiveDirective() string {
	switch r.Kind {
	case KindDirective:
		return r.Value
	case KindOverlay:
		return OverlayDirective(r.Text)
	default:
		return ""
	}
}

// Compose splices the directive requested by r into originalURL.
//
// The original URL is returned unchanged when r resolves to an empty
// directive or when the URL has fewer than MinSegments segments.
func Compose(originalURL string, r Request) string {
	directive := r.EffectiveDirective()
	if directive == "" {
		return originalURL
	}

	parts := strings.Split(originalURL, "/")
	if len(parts) < MinSegments {
		return originalURL
	}

	base := strings.Join(parts[:baseSegments], "/")
	filePath := strings.Join(parts[baseSegments:], "/")

	return base + "/" + Marker + directive + "/" + filePath
}

// ComposeTransformedURL is Compose for callers holding an optional directive
// and an optional caption. When caption is non-empty the directive is
// ignored and an overlay is rendered instead.
func ComposeTransformedURL(originalURL, directive, caption string) string {
	return Compose(originalURL, RequestFor(directive, caption))
}

// Parts is a composed URL split back into its pieces.
type Parts struct {
	Base      string `json:"base"`
	Directive string `json:"directive"`
	FilePath  string `json:"file_path"`
}

// Inspect splits a URL produced by Compose. The boolean is false when the
// URL carries no directive segment in the expected position.
func Inspect(composedURL string) (Parts, bool) {
	parts := strings.Split(composedURL, "/")
	if len(parts) < MinSegments+1 {
		return Parts{}, false
	}

	seg := parts[baseSegments]
	if !strings.HasPrefix(seg, Marker) {
		return Parts{}, false
	}

	return Parts{
		Base:      strings.Join(parts[:baseSegments], "/"),
		Directive: strings.TrimPrefix(seg, Marker),
		FilePath:  strings.Join(parts[baseSegments+1:], "/"),
	}, true
}
