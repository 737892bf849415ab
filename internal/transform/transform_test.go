package transform_test

import (
	"encoding/base64"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dedene/socialthread-cli/internal/transform"
)

const assetURL = "https://ik.example.com/demoacct/path/to/file.png"

func TestEncodeOverlayText(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		encoded string
	}{
		{"empty", "", ""},
		{"padding is escaped", "Hi", "SGk%3D"},
		{"no padding", "abc", "YWJj"},
		{"double padding", "a", "YQ%3D%3D"},
		{"plus is escaped", "\xfb\xef", "%2B%2B8%3D"},
		{"slash is escaped", "\xff\xff", "%2F%2F8%3D"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.encoded, transform.EncodeOverlayText(tt.input))
		})
	}
}

func TestEncodeOverlayText_RoundTrip(t *testing.T) {
	inputs := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"ascii", "hello world"},
		{"multi-byte", "héllo wörld ✓ 日本語"},
		{"emoji", "👋 Hi!"},
		{"url specials", "a/b?c#d&e%f"},
		{"newline", "line one\nline two"},
		{"commas", "one, two, three"},
	}

	for _, tt := range inputs {
		t.Run(tt.name, func(t *testing.T) {
			enc := transform.EncodeOverlayText(tt.input)

			// Manual decode: percent-decode then base64-decode.
			b64, err := url.QueryUnescape(enc)
			require.NoError(t, err)
			raw, err := base64.StdEncoding.DecodeString(b64)
			require.NoError(t, err)
			assert.Equal(t, tt.input, string(raw))

			dec, err := transform.DecodeOverlayText(enc)
			require.NoError(t, err)
			assert.Equal(t, tt.input, dec)
		})
	}
}

func TestEncodeOverlayText_SegmentSafe(t *testing.T) {
	enc := transform.EncodeOverlayText("a/b,c d+e=f???")
	assert.NotContains(t, enc, "/")
	assert.NotContains(t, enc, ",")
	assert.NotContains(t, enc, "+")
	assert.NotContains(t, enc, "=")
	assert.NotContains(t, enc, "?")
}

func TestEncodeOverlayText_Injective(t *testing.T) {
	inputs := []string{"a", "b", "ab", "a ", " a", "A", "\u00e9", "e\u0301"}
	seen := map[string]string{}

	for _, in := range inputs {
		enc := transform.EncodeOverlayText(in)
		prev, dup := seen[enc]
		assert.False(t, dup, "%q and %q encode to the same token", prev, in)
		seen[enc] = in
	}
}

func TestDecodeOverlayText_Invalid(t *testing.T) {
	for _, tok := range []string{"%zz", "not*base64", "SGk"} {
		t.Run(tok, func(t *testing.T) {
			_, err := transform.DecodeOverlayText(tok)
			require.Error(t, err)
			assert.ErrorIs(t, err, transform.ErrInvalidOverlayText)
		})
	}
}

func TestOverlayDirective(t *testing.T) {
	assert.Equal(t,
		"l-text,ie-SGk%3D,ly-N20,lx-20,fs-100,co-white,bg-000000A0,l-end",
		transform.OverlayDirective("Hi"),
	)
	assert.Empty(t, transform.OverlayDirective(""))
}

func TestOverlayStyle_Custom(t *testing.T) {
	style := transform.OverlayStyle{Y: "10", X: "N5", FontSize: 40, Color: "yellow", Background: "FFFFFF80"}

	assert.Equal(t,
		"l-text,ie-SGk%3D,ly-10,lx-N5,fs-40,co-yellow,bg-FFFFFF80,l-end",
		style.Directive("Hi"),
	)
}

func TestOverlayText(t *testing.T) {
	text, ok := transform.OverlayText(transform.OverlayDirective("see you at 5/6?"))
	require.True(t, ok)
	assert.Equal(t, "see you at 5/6?", text)

	_, ok = transform.OverlayText(transform.ImageDirective)
	assert.False(t, ok)

	_, ok = transform.OverlayText("l-text,ie-%zz,l-end")
	assert.False(t, ok)
}

func TestCompose_SegmentSplice(t *testing.T) {
	got := transform.Compose(assetURL, transform.Directive("w-900,h-900,cm-pad_resize"))

	assert.Equal(t, "https://ik.example.com/demoacct/tr:w-900,h-900,cm-pad_resize/path/to/file.png", got)
}

func TestCompose_Overlay(t *testing.T) {
	got := transform.Compose(assetURL, transform.Overlay("Hi"))

	assert.Equal(t,
		"https://ik.example.com/demoacct/tr:l-text,ie-SGk%3D,ly-N20,lx-20,fs-100,co-white,bg-000000A0,l-end/path/to/file.png",
		got,
	)
}

func TestCompose_FileAtAccountRoot(t *testing.T) {
	got := transform.Compose("https://ik.example.com/demoacct/file.png", transform.Directive("w-10"))

	assert.Equal(t, "https://ik.example.com/demoacct/tr:w-10/file.png", got)
}

func TestCompose_NoOp(t *testing.T) {
	tests := []struct {
		name string
		url  string
		req  transform.Request
	}{
		{"zero request", assetURL, transform.Request{}},
		{"empty directive", assetURL, transform.Directive("")},
		{"empty overlay", assetURL, transform.Overlay("")},
		{"four segments", "https://ik.example.com/file.png", transform.Directive("w-900")},
		{"no scheme", "file.png", transform.Overlay("Hi")},
		{"empty url", "", transform.Directive("w-900")},
		{"relative", "a/b/c", transform.Overlay("Hi")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.url, transform.Compose(tt.url, tt.req))
		})
	}
}

func TestComposeTransformedURL_ShortURLsUnchanged(t *testing.T) {
	urls := []string{"", "/", "a/b", "https://host", "https://host/acct", "https://host/file.png"}
	directives := []string{"", "w-900", transform.ImageDirective}
	captions := []string{"", "Hi", "日本"}

	for _, u := range urls {
		for _, d := range directives {
			for _, c := range captions {
				assert.Equal(t, u, transform.ComposeTransformedURL(u, d, c), "url=%q directive=%q caption=%q", u, d, c)
			}
		}
	}
}

func TestComposeTransformedURL_CaptionWins(t *testing.T) {
	want := transform.ComposeTransformedURL(assetURL, "", "Hi")

	for _, d := range []string{"", "w-900,h-900,cm-pad_resize", "w-1", "garbage,,,"} {
		assert.Equal(t, want, transform.ComposeTransformedURL(assetURL, d, "Hi"), "directive %q", d)
	}

	assert.Contains(t, want, "/tr:l-text,ie-SGk%3D,")
}

func TestComposeTransformedURL_Empty(t *testing.T) {
	assert.Equal(t, assetURL, transform.ComposeTransformedURL(assetURL, "", ""))
}

func TestComposeTransformedURL_DirectiveOnly(t *testing.T) {
	got := transform.ComposeTransformedURL(assetURL, transform.VideoDirective, "")

	assert.Equal(t, "https://ik.example.com/demoacct/tr:w-900,h-500,cm-pad_resize/path/to/file.png", got)
}

func TestRequestFor(t *testing.T) {
	assert.Equal(t, transform.Overlay("x"), transform.RequestFor("w-1", "x"))
	assert.Equal(t, transform.Directive("w-1"), transform.RequestFor("w-1", ""))
	assert.Equal(t, transform.KindNone, transform.RequestFor("", "").Kind)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "none", transform.KindNone.String())
	assert.Equal(t, "directive", transform.KindDirective.String())
	assert.Equal(t, "overlay", transform.KindOverlay.String())
}

func TestCompose_Deterministic(t *testing.T) {
	in := assetURL
	req := transform.Overlay("same text")

	first := transform.Compose(in, req)

	var wg sync.WaitGroup
	results := make([]string, 32)

	for i := range results {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()
			results[i] = transform.Compose(in, req)
		}(i)
	}

	wg.Wait()

	for _, r := range results {
		assert.Equal(t, first, r)
	}

	assert.Equal(t, assetURL, in)
	assert.Equal(t, "same text", req.Text)
}

func TestInspect(t *testing.T) {
	composed := transform.Compose(assetURL, transform.Directive(transform.ImageDirective))

	parts, ok := transform.Inspect(composed)
	require.True(t, ok)
	assert.Equal(t, "https://ik.example.com/demoacct", parts.Base)
	assert.Equal(t, transform.ImageDirective, parts.Directive)
	assert.Equal(t, "path/to/file.png", parts.FilePath)

	_, ok = transform.Inspect(assetURL)
	assert.False(t, ok)

	_, ok = transform.Inspect("https://host/acct")
	assert.False(t, ok)
}
