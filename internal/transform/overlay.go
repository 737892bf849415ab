package transform

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidOverlayText is returned by DecodeOverlayText for tokens that
// EncodeOverlayText could not have produced.
var ErrInvalidOverlayText = errors.New("invalid overlay text token")

// OverlayStyle holds the layout parameters of a text overlay layer.
type OverlayStyle struct {
	Y          string // vertical offset; N prefix means negative
	X          string
	FontSize   int
	Color      string
	Background string // RRGGBBAA
}

// DefaultOverlayStyle draws white text on a semi-transparent black band
// near the bottom-left of the image.
var DefaultOverlayStyle = OverlayStyle{
	Y:          "N20",
	X:          "20",
	FontSize:   100,
	Color:      "white",
	Background: "000000A0",
}

// EncodeOverlayText turns caption text into a token that survives inside a
// "/"- and ","-delimited directive segment: the UTF-8 bytes are base64
// encoded and the result is percent-encoded. Empty text encodes to "".
func EncodeOverlayText(text string) string {
	if text == "" {
		return ""
	}

	b64 := base64.StdEncoding.EncodeToString([]byte(text))

	return url.QueryEscape(b64)
}

// DecodeOverlayText reverses EncodeOverlayText.
func DecodeOverlayText(token string) (string, error) {
	if token == "" {
		return "", nil
	}

	b64, err := url.QueryUnescape(token)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidOverlayText, err)
	}

	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidOverlayText, err)
	}

	return string(raw), nil
}

// Directive renders the text layer directive for text in this style.
// Empty text yields "".
func (s OverlayStyle) Directive(text string) string {
	enc := EncodeOverlayText(text)
	if enc == "" {
		return ""
	}

	return strings.Join([]string{
		"l-text",
		"ie-" + enc,
		"ly-" + s.Y,
		"lx-" + s.X,
		fmt.Sprintf("fs-%d", s.FontSize),
		"co-" + s.Color,
		"bg-" + s.Background,
		"l-end",
	}, ",")
}

// OverlayDirective renders text with DefaultOverlayStyle.
func OverlayDirective(text string) string {
	return DefaultOverlayStyle.Directive(text)
}

// OverlayText extracts and decodes the caption carried by an overlay
// directive. The boolean is false when the directive has no text layer.
func OverlayText(directive string) (string, bool) {
	for _, tok := range strings.Split(directive, ",") {
		enc, ok := strings.CutPrefix(tok, "ie-")
		if !ok {
			continue
		}

		text, err := DecodeOverlayText(enc)
		if err != nil {
			return "", false
		}

		return text, true
	}

	return "", false
}
