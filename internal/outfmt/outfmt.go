// Package outfmt provides context-based output mode selection: JSON,
// tab-separated plain text or human-readable.
package outfmt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Mode controls output formatting. JSON wins when both are set.
type Mode struct {
	JSON  bool
	Plain bool
}

type ctxKey struct{}

// WithMode stores the output mode in the context.
func WithMode(ctx context.Context, mode Mode) context.Context {
	return context.WithValue(ctx, ctxKey{}, mode)
}

func fromContext(ctx context.Context) Mode {
	if v := ctx.Value(ctxKey{}); v != nil {
		if m, ok := v.(Mode); ok {
			return m
		}
	}

	return Mode{}
}

// IsJSON returns true if the context has JSON output mode enabled.
func IsJSON(ctx context.Context) bool {
	return fromContext(ctx).JSON
}

// IsPlain returns true if plain (TSV) output is requested and JSON is not.
func IsPlain(ctx context.Context) bool {
	m := fromContext(ctx)
	return m.Plain && !m.JSON
}

// WriteJSON writes v as pretty-printed JSON to w.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}

	return nil
}

// WriteTSV writes rows as tab-separated lines. Tabs and newlines inside a
// field are replaced by spaces so every row stays on one line.
func WriteTSV(w io.Writer, rows [][]string) error {
	clean := strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ", "\r", " ")

	for _, row := range rows {
		fields := make([]string, len(row))
		for i, f := range row {
			fields[i] = clean.Replace(f)
		}

		if _, err := io.WriteString(w, strings.Join(fields, "\t")+"\n"); err != nil {
			return fmt.Errorf("writing TSV: %w", err)
		}
	}

	return nil
}
