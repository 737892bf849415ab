package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dedene/socialthread-cli/internal/outfmt"
	"github.com/dedene/socialthread-cli/internal/transform"
)

var errNoTransform = errors.New("provide --directive or --overlay")

// URLCmd groups the composer subcommands. Composing is the default.
type URLCmd struct {
	Compose URLComposeCmd `cmd:"" default:"withargs" help:"Splice a transformation into an asset URL"`
	Inspect URLInspectCmd `cmd:"" help:"Show the transformation layers of a URL"`
}

// URLComposeCmd applies a directive or a text overlay to an asset URL.
type URLComposeCmd struct {
	Asset     string `arg:"" help:"Asset URL (scheme://host/account/path)"`
	Directive string `help:"Raw transformation directive, e.g. w-300,h-300" short:"d" xor:"transform"`
	Overlay   string `help:"Text to render over the image" short:"t" xor:"transform"`
}

// Run prints the composed URL.
func (c *URLComposeCmd) Run(ctx context.Context) error {
	if c.Directive == "" && c.Overlay == "" {
		return usageError(errNoTransform)
	}

	req := transform.RequestFor(c.Directive, c.Overlay)
	composed := transform.Compose(c.Asset, req)

	if len(strings.Split(c.Asset, "/")) < transform.MinSegments {
		uiFrom(ctx).Err().Warnf("URL has fewer than %d path segments, left unchanged", transform.MinSegments)
	}

	if outfmt.IsJSON(ctx) {
		return outfmt.WriteJSON(os.Stdout, map[string]any{
			"url":       composed,
			"kind":      req.Kind.String(),
			"directive": req.EffectiveDirective(),
		})
	}

	fmt.Fprintln(os.Stdout, composed)

	return nil
}

// URLInspectCmd decodes the directive segments of a composed URL.
type URLInspectCmd struct {
	URL string `arg:"" help:"Composed URL"`
}

// layer is one "tr:" segment, outermost first.
type layer struct {
	Directive string `json:"directive"`
	Text      string `json:"text,omitempty"`
}

// Run prints each transformation layer and the underlying asset.
func (c *URLInspectCmd) Run(ctx context.Context) error {
	layers, asset := peel(c.URL)

	if outfmt.IsJSON(ctx) {
		return outfmt.WriteJSON(os.Stdout, map[string]any{
			"asset":  asset,
			"layers": layers,
		})
	}

	if outfmt.IsPlain(ctx) {
		rows := make([][]string, 0, len(layers)+1)
		for _, l := range layers {
			rows = append(rows, []string{"layer", l.Directive, l.Text})
		}

		return outfmt.WriteTSV(os.Stdout, append(rows, []string{"asset", asset, ""}))
	}

	out := uiFrom(ctx).Out()

	if len(layers) == 0 {
		out.Println("No transformation.")
	}

	for i, l := range layers {
		out.Printf("%d. %s", i+1, l.Directive)

		if l.Text != "" {
			out.Println(out.Muted(fmt.Sprintf("   text: %q", l.Text)))
		}
	}

	out.Printf("asset: %s", asset)

	return nil
}

// peel strips "tr:" segments one at a time, returning them outermost first
// together with the untransformed asset URL.
func peel(rawURL string) ([]layer, string) {
	layers := []layer{}
	cur := rawURL

	for {
		p, ok := transform.Inspect(cur)
		if !ok {
			return layers, cur
		}

		l := layer{Directive: p.Directive}
		if text, ok := transform.OverlayText(p.Directive); ok {
			l.Text = text
		}

		layers = append(layers, l)
		cur = strings.Join([]string{p.Base, p.FilePath}, "/")
	}
}
