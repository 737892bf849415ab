package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dedene/socialthread-cli/internal/api"
	"github.com/dedene/socialthread-cli/internal/config"
	"github.com/dedene/socialthread-cli/internal/outfmt"
	"github.com/dedene/socialthread-cli/internal/session"
)

var (
	errEmailRequired    = errors.New("email required: pass --email or run in a terminal")
	errPasswordRequired = errors.New("password required: pass --password-stdin or run in a terminal")
	errPasswordMismatch = errors.New("passwords do not match")
)

// Credentials holds the flags shared by login and signup.
type Credentials struct {
	Email         string `help:"Account email" short:"e"`
	PasswordStdin bool   `help:"Read the password from the first line of stdin" name:"password-stdin"`
}

func (c *Credentials) email(root *RootFlags) (string, error) {
	email := strings.TrimSpace(c.Email)
	if email == "" {
		line, err := promptLine(root, "Email: ")
		if err != nil {
			return "", usageError(errEmailRequired)
		}

		email = strings.TrimSpace(line)
	}

	if email == "" {
		return "", usageError(errEmailRequired)
	}

	return email, nil
}

func (c *Credentials) password(root *RootFlags, label string) (string, error) {
	var (
		pw  string
		err error
	)

	if c.PasswordStdin {
		pw, err = readLine()
	} else {
		pw, err = promptSecret(root, label)
	}

	if err != nil || pw == "" {
		return "", usageError(errPasswordRequired)
	}

	return pw, nil
}

// LoginCmd exchanges credentials for a session.
type LoginCmd struct {
	Credentials `embed:""`
}

// Run logs in and stores the session.
func (c *LoginCmd) Run(ctx context.Context, root *RootFlags) error {
	client, err := clientFrom(ctx)
	if err != nil {
		return err
	}

	email, err := c.email(root)
	if err != nil {
		return err
	}

	var tok *api.Token

	err = withRetry(ctx, root, "Login", func() error {
		pw, err := c.password(root, "Password: ")
		if err != nil {
			return err
		}

		tok, err = client.Login(ctx, email, pw)

		return err
	})
	if err != nil {
		return err
	}

	user, err := client.Me(ctx, tok.AccessToken)
	if err != nil {
		slog.Warn("fetching profile", "error", err)
		user = &api.User{Email: email}
	}

	sess := &session.Session{
		Token:     tok.AccessToken,
		User:      user,
		APIURL:    client.BaseURL(),
		CreatedAt: time.Now().UTC(),
	}

	path, err := config.SessionPath()
	if err != nil {
		return err
	}

	if err := session.Save(path, sess); err != nil {
		return err
	}

	invalidateFeed()

	if outfmt.IsJSON(ctx) {
		return outfmt.WriteJSON(os.Stdout, map[string]any{
			"email":   user.Email,
			"id":      user.ID,
			"api_url": client.BaseURL(),
		})
	}

	uiFrom(ctx).Out().Successf("Welcome, %s!", user.Email)

	return nil
}

// SignupCmd registers a new account.
type SignupCmd struct {
	Credentials `embed:""`
}

// Run creates the account. It does not log in.
func (c *SignupCmd) Run(ctx context.Context, root *RootFlags) error {
	client, err := clientFrom(ctx)
	if err != nil {
		return err
	}

	email, err := c.email(root)
	if err != nil {
		return err
	}

	pw, err := c.password(root, "Password: ")
	if err != nil {
		return err
	}

	if !c.PasswordStdin {
		again, err := c.password(root, "Confirm password: ")
		if err != nil {
			return err
		}

		if again != pw {
			return usageError(errPasswordMismatch)
		}
	}

	var user *api.User

	err = withRetry(ctx, root, "Sign up", func() error {
		var err error
		user, err = client.Register(ctx, email, pw)

		return err
	})
	if err != nil {
		return err
	}

	if outfmt.IsJSON(ctx) {
		return outfmt.WriteJSON(os.Stdout, user)
	}

	uiFrom(ctx).Out().Successf("Account created! Run 'socialthread login' to sign in.")

	return nil
}

// LogoutCmd forgets the stored session.
type LogoutCmd struct{}

// Run removes the session file and the cached feed.
func (c *LogoutCmd) Run(ctx context.Context) error {
	path, err := config.SessionPath()
	if err != nil {
		return err
	}

	wasLoggedIn := session.FromContext(ctx).LoggedIn()

	if err := session.Clear(path); err != nil {
		return err
	}

	invalidateFeed()

	if outfmt.IsJSON(ctx) {
		return outfmt.WriteJSON(os.Stdout, map[string]any{"logged_out": wasLoggedIn})
	}

	if !wasLoggedIn {
		fmt.Fprintln(os.Stdout, "Not logged in.")
		return nil
	}

	fmt.Fprintln(os.Stdout, "Logged out.")

	return nil
}

// WhoamiCmd shows the logged-in user as the backend sees it.
type WhoamiCmd struct{}

// Run fetches /users/me with the stored token.
func (c *WhoamiCmd) Run(ctx context.Context) error {
	sess, err := session.Require(ctx)
	if err != nil {
		return err
	}

	client, err := clientFrom(ctx)
	if err != nil {
		return err
	}

	user, err := client.Me(ctx, sess.Token)
	if err != nil {
		if api.IsUnauthorized(err) {
			return fmt.Errorf("session expired, run 'socialthread login': %w", err)
		}

		return err
	}

	if outfmt.IsJSON(ctx) {
		return outfmt.WriteJSON(os.Stdout, map[string]any{
			"user":      user,
			"api_url":   client.BaseURL(),
			"logged_in": sess.CreatedAt,
		})
	}

	if outfmt.IsPlain(ctx) {
		return outfmt.WriteTSV(os.Stdout, [][]string{{user.ID, user.Email, client.BaseURL()}})
	}

	out := uiFrom(ctx).Out()
	out.Println(user.Email)
	out.Println(out.Muted(fmt.Sprintf("id %s · %s · since %s", user.ID, client.BaseURL(), sess.CreatedAt.Local().Format(time.DateTime))))

	if !user.IsVerified {
		out.Println(out.Muted("email not verified"))
	}

	return nil
}
