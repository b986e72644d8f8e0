// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/service"
	"taskdeck/internal/tracker"
)

// Access says how much of the tracker a command needs before it runs.
type Access int

const (
	// Offline commands get no tracker.
	Offline Access = iota
	// Local commands get a tracker that has not been restored.
	Local
	// Public commands get a restored tracker, logged in or not.
	Public
	// Protected commands get a restored tracker with a session.
	Protected
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// Access reports what the dispatcher must prepare before Run.
	Access() Access

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *pflag.FlagSet)

	// Run executes the command.
	// cfg is always provided.
	// t is nil for Offline commands.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, t *tracker.Tracker, args []string, out, errOut io.Writer) int
}

// NotLoggedIn is printed when a protected command runs without a session.
const NotLoggedIn = "error: not logged in (run: taskdeck login)"

// report prints err and returns the matching exit code.
func report(errOut io.Writer, err error) int {
	if errors.Is(err, tracker.ErrNoSession) {
		fmt.Fprintln(errOut, NotLoggedIn)
		return exitcode.AuthError
	}
	fmt.Fprintf(errOut, "error: %s\n", service.Message(err))
	return exitcode.FromError(err)
}

// printOK prints the success marker unless quiet.
func printOK(cfg *config.Config, out io.Writer) int {
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
