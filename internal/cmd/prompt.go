package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/dedene/socialthread-cli/internal/api"
	"github.com/dedene/socialthread-cli/internal/ui"
)

// errNoTTY is returned when input is needed but prompting is not possible.
var errNoTTY = errors.New("input required but prompting is disabled (no TTY or --no-input)")

// Swappable in tests.
var (
	stdin       io.Reader = os.Stdin
	interactive           = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stderr.Fd())
	}
	readPassword = func() (string, error) {
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		return string(b), err
	}
)

// lineReader is shared so buffered input is not lost between prompts.
var lineReader *bufio.Reader

func readLine() (string, error) {
	if lineReader == nil {
		lineReader = bufio.NewReader(stdin)
	}

	line, err := lineReader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}

	return strings.TrimRight(line, "\r\n"), nil
}

// canPrompt reports whether the user can be asked for input.
func canPrompt(root *RootFlags) bool {
	if root != nil && root.NoInput {
		return false
	}

	return interactive()
}

// promptLine asks for a line of visible input on stderr.
func promptLine(root *RootFlags, label string) (string, error) {
	if !canPrompt(root) {
		return "", errNoTTY
	}

	fmt.Fprint(os.Stderr, label)

	return readLine()
}

// promptSecret asks for input without echo.
func promptSecret(root *RootFlags, label string) (string, error) {
	if !canPrompt(root) {
		return "", errNoTTY
	}

	fmt.Fprint(os.Stderr, label)
	s, err := readPassword()
	fmt.Fprintln(os.Stderr)

	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}

	return s, nil
}

// confirm asks a yes/no question, defaulting to no.
func confirm(root *RootFlags, question string) (bool, error) {
	answer, err := promptLine(root, question+" [y/N] ")
	if err != nil {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// retryable reports whether a failed action may succeed if repeated:
// network failures, rejected credentials and server-side errors.
func retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusBadRequest,
			apiErr.StatusCode == http.StatusUnauthorized,
			apiErr.StatusCode == http.StatusTooManyRequests,
			apiErr.StatusCode >= http.StatusInternalServerError:
			return true
		default:
			return false
		}
	}

	var netErr net.Error

	return errors.As(err, &netErr)
}

// withRetry runs fn. When it fails with a retryable error and the user can
// be prompted, the error is shown and the user is offered another attempt.
// The last error is returned when the user declines.
func withRetry(ctx context.Context, root *RootFlags, what string, fn func() error) error {
	for {
		err := fn()
		if err == nil || !retryable(err) || !canPrompt(root) {
			return err
		}

		uiFrom(ctx).Err().Errorf("%s failed: %v", what, err)

		again, promptErr := confirm(root, "Try again?")
		if promptErr != nil || !again {
			return err
		}
	}
}

// uiFrom returns the context UI or a plain stdout/stderr UI.
func uiFrom(ctx context.Context) *ui.UI {
	if u := ui.FromContext(ctx); u != nil {
		return u
	}

	u, _ := ui.New(ui.Options{Color: "never"})

	return u
}
