package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/dedene/socialthread-cli/internal/api"
	"github.com/dedene/socialthread-cli/internal/config"
	"github.com/dedene/socialthread-cli/internal/outfmt"
	"github.com/dedene/socialthread-cli/internal/session"
	"github.com/dedene/socialthread-cli/internal/ui"
)

// RootFlags are global flags available to all commands.
type RootFlags struct {
	Color   string `help:"Color output: auto|always|never" default:"auto" enum:"auto,always,never"`
	JSON    bool   `help:"JSON output" default:"false"`
	Plain   bool   `help:"Tab-separated output for scripts" default:"false"`
	Verbose bool   `help:"Verbose logging" default:"false"`
	NoInput bool   `help:"Never prompt; fail instead" name:"no-input" default:"false"`
	Force   bool   `help:"Skip confirmations" default:"false"`
	APIURL  string `help:"Backend base URL" name:"api-url" env:"SOCIALTHREAD_API_URL"`
}

// CLI is the top-level Kong command struct.
type CLI struct {
	RootFlags `embed:""`

	Version    kong.VersionFlag `help:"Print version and exit"`
	VersionCmd VersionCmd       `cmd:"" name:"version" help:"Print version info"`
	Login      LoginCmd         `cmd:"" name:"login" help:"Log in and store a session"`
	Signup     SignupCmd        `cmd:"" name:"signup" aliases:"register" help:"Create an account"`
	Logout     LogoutCmd        `cmd:"" name:"logout" help:"Forget the stored session"`
	Whoami     WhoamiCmd        `cmd:"" name:"whoami" help:"Show the logged-in user"`
	Upload     UploadCmd        `cmd:"" name:"upload" aliases:"post" help:"Share an image or video"`
	Feed       FeedCmd          `cmd:"" name:"feed" aliases:"ls" help:"Browse the feed"`
	Delete     DeleteCmd        `cmd:"" name:"delete" aliases:"rm" help:"Delete one of your posts"`
	Open       OpenCmd          `cmd:"" name:"open" help:"Open, copy or download a post's display URL"`
	URL        URLCmd           `cmd:"" name:"url" help:"Compose or inspect transformation URLs"`
	Config     ConfigCmd        `cmd:"" name:"config" help:"Manage configuration"`
}

// Execute parses CLI args, sets up context, and runs the matched command.
func Execute(args []string) (err error) {
	cli := &CLI{}
	parser, err := kong.New(
		cli,
		kong.Name("socialthread"),
		kong.Description("Share and browse photos and videos from the terminal"),
		kong.ConfigureHelp(helpOptions()),
		kong.Help(helpPrinter),
		kong.Vars{"version": VersionString()},
		kong.Writers(os.Stdout, os.Stderr),
		kong.Exit(func(code int) { panic(exitPanic{code: code}) }),
	)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			if ep, ok := r.(exitPanic); ok {
				if ep.code == 0 {
					err = nil
					return
				}
				err = &ExitError{Code: ep.code, Err: errors.New("exited")}
				return
			}
			panic(r)
		}
	}()

	kctx, err := parser.Parse(args)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		return usageError(err)
	}

	logLevel := slog.LevelWarn
	if cli.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	ctx := context.Background()
	ctx = outfmt.WithMode(ctx, outfmt.Mode{JSON: cli.JSON, Plain: cli.Plain})

	// No color in machine-readable modes.
	uiColor := cli.Color
	if cli.JSON || cli.Plain {
		uiColor = "never"
	}
	u, uiErr := ui.New(ui.Options{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Color:  uiColor,
	})
	if uiErr != nil {
		return uiErr
	}
	ctx = ui.WithUI(ctx, u)

	cfgPath, _ := config.ConfigPath()
	cfg, cfgErr := config.Load(cfgPath)
	if cfgErr != nil {
		slog.Warn("loading config", "error", cfgErr)
		cfg = &config.Config{}
	}
	ctx = config.WithConfig(ctx, cfg)

	apiURL := resolveAPIURL(cli.APIURL, cfg)
	slog.Debug("backend", "url", apiURL)

	client := api.NewClient(api.ClientOptions{
		BaseURL:    apiURL,
		Verbose:    cli.Verbose,
		UserAgent:  "socialthread-cli/" + version,
		MaxRetries: cfg.MaxRetries,
	})
	ctx = api.WithClient(ctx, client)
	ctx = session.WithSession(ctx, loadSession(apiURL))

	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.Bind(&cli.RootFlags)

	return kctx.Run()
}

// resolveAPIURL picks the backend: --api-url or SOCIALTHREAD_API_URL, then
// the config file, then the local default.
func resolveAPIURL(flag string, cfg *config.Config) string {
	u := strings.TrimSpace(flag)
	if u == "" && cfg != nil {
		u = cfg.APIURL
	}
	if u == "" {
		u = api.DefaultBaseURL
	}

	return strings.TrimRight(u, "/")
}

// loadSession returns the stored session when it belongs to apiURL.
// Sessions issued by another backend are ignored, not deleted.
func loadSession(apiURL string) *session.Session {
	path, err := config.SessionPath()
	if err != nil {
		slog.Warn("resolving session path", "error", err)
		return nil
	}

	sess, err := session.Load(path)
	if err != nil {
		slog.Warn("loading session", "error", err)
		return nil
	}

	if sess != nil && sess.APIURL != "" && sess.APIURL != apiURL {
		slog.Debug("ignoring session for other backend", "session_url", sess.APIURL, "url", apiURL)
		return nil
	}

	return sess
}
