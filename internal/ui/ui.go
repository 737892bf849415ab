// Package ui provides terminal output writers with color profile support
// and lipgloss table rendering for the feed.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
)

// ErrInvalidColor is returned when an unsupported --color value is given.
var ErrInvalidColor = errors.New("invalid --color value")

// Color modes accepted by --color.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Message tints.
const (
	tintError   = "#ef4444"
	tintSuccess = "#22c55e"
	tintWarning = "#f59e0b"
	tintMuted   = "#6b7280"
)

// Options configures the UI.
type Options struct {
	Stdout io.Writer
	Stderr io.Writer
	Color  string // auto, always, never
}

// UI holds one printer per output stream.
type UI struct {
	out *Printer
	err *Printer
}

// New creates a UI. Nil writers default to os.Stdout and os.Stderr.
func New(opts Options) (*UI, error) {
	mode, err := parseColorMode(opts.Color)
	if err != nil {
		return nil, err
	}

	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}

	if stderr == nil {
		stderr = os.Stderr
	}

	return &UI{
		out: newPrinter(stdout, mode),
		err: newPrinter(stderr, mode),
	}, nil
}

func parseColorMode(raw string) (string, error) {
	mode := strings.ToLower(strings.TrimSpace(raw))

	switch mode {
	case "":
		return ColorAuto, nil
	case ColorAuto, ColorAlways, ColorNever:
		return mode, nil
	default:
		return "", fmt.Errorf("%w: %q (expected auto|always|never)", ErrInvalidColor, mode)
	}
}

// Out returns the stdout printer.
func (u *UI) Out() *Printer { return u.out }

// Err returns the stderr printer.
func (u *UI) Err() *Printer { return u.err }

// Printer writes lines to one stream, tinting them when its profile allows.
type Printer struct {
	w       *termenv.Output
	profile termenv.Profile
}

// newPrinter detects the stream's capability and applies the color mode.
// NO_COLOR always wins.
func newPrinter(w io.Writer, mode string) *Printer {
	o := termenv.NewOutput(w, termenv.WithProfile(termenv.EnvColorProfile()))

	profile := o.Profile
	switch {
	case termenv.EnvNoColor(), mode == ColorNever:
		profile = termenv.Ascii
	case mode == ColorAlways:
		profile = termenv.TrueColor
	}

	return &Printer{w: o, profile: profile}
}

// ColorEnabled returns true when color output is active.
func (p *Printer) ColorEnabled() bool { return p.profile != termenv.Ascii }

func (p *Printer) tint(s, hex string) string {
	if !p.ColorEnabled() {
		return s
	}

	return termenv.String(s).Foreground(p.profile.Color(hex)).String()
}

func (p *Printer) writeLine(s string) {
	_, _ = io.WriteString(p.w, s+"\n")
}

// Println writes a line to the output.
func (p *Printer) Println(msg string) { p.writeLine(msg) }

// Printf writes a formatted line to the output.
func (p *Printer) Printf(format string, args ...any) {
	p.writeLine(fmt.Sprintf(format, args...))
}

// Errorf writes a red line prefixed with "Error: ".
func (p *Printer) Errorf(format string, args ...any) {
	p.writeLine(p.tint("Error: "+fmt.Sprintf(format, args...), tintError))
}

// Successf writes a green line.
func (p *Printer) Successf(format string, args ...any) {
	p.writeLine(p.tint(fmt.Sprintf(format, args...), tintSuccess))
}

// Warnf writes an amber line prefixed with "Warning: ".
func (p *Printer) Warnf(format string, args ...any) {
	p.writeLine(p.tint("Warning: "+fmt.Sprintf(format, args...), tintWarning))
}

// Muted renders s in gray for secondary details such as author and date.
func (p *Printer) Muted(s string) string { return p.tint(s, tintMuted) }

type uiCtxKey struct{}

// WithUI stores the UI in the context.
func WithUI(ctx context.Context, u *UI) context.Context {
	return context.WithValue(ctx, uiCtxKey{}, u)
}

// FromContext retrieves the UI from the context.
func FromContext(ctx context.Context) *UI {
	u, _ := ctx.Value(uiCtxKey{}).(*UI)
	return u
}
