package cmd

import (
	"fmt"

	"github.com/alecthomas/kong"
)

func helpOptions() kong.HelpOptions {
	return kong.HelpOptions{
		Compact:             true,
		NoExpandSubcommands: true,
		WrapUpperBound:      100,
	}
}

// helpPrinter appends environment hints to the top-level help.
func helpPrinter(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}

	if ctx.Command() != "" {
		return nil
	}

	fmt.Fprintln(ctx.Stdout, "\nEnvironment:")
	fmt.Fprintln(ctx.Stdout, "  SOCIALTHREAD_API_URL    Backend base URL (also read from ./.env)")
	fmt.Fprintln(ctx.Stdout, "  XDG_CONFIG_HOME         Config directory root")
	fmt.Fprintln(ctx.Stdout, "  XDG_STATE_HOME          Login session directory root")

	return nil
}
