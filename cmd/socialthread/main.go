// Package main is the entry point for the socialthread CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/dedene/socialthread-cli/internal/cmd"
)

func main() {
	// A .env file is optional; SOCIALTHREAD_API_URL may also come from the shell.
	_ = godotenv.Load()

	if err := cmd.Execute(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cmd.ExitCode(err))
	}
}
