// Package cli builds the command tree and prepares the tracker each
// command needs before running it.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"taskdeck/internal/commands"
	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/logger"
	"taskdeck/internal/service"
	"taskdeck/internal/tracker"
)

// TrackerFactory creates an unrestored Tracker from config.
// Used to inject the backend and credential store during dispatch.
type TrackerFactory func(ctx context.Context, cfg *config.Config, log *zap.Logger) (*tracker.Tracker, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  TrackerFactory
}

// NewDispatcher creates a new dispatcher with the given registry and tracker factory.
func NewDispatcher(registry *commands.Registry, factory TrackerFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// common holds the flags shared by every command.
type common struct {
	configDir string
	quiet     bool
	debug     bool
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	code := exitcode.Success
	root := d.newRoot(out, errOut, &code)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	return code
}

func (d *Dispatcher) newRoot(out, errOut io.Writer, code *int) *cobra.Command {
	var flags common

	root := &cobra.Command{
		Use:           "taskdeck",
		Short:         "Track your tasks from the terminal",
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configDir, "config", "", "configuration directory")
	pf.BoolVarP(&flags.quiet, "quiet", "q", false, "suppress informational output")
	pf.BoolVar(&flags.debug, "debug", false, "enable debug logging")

	if def, ok := d.registry.Default(); ok {
		root.RunE = func(cc *cobra.Command, args []string) error {
			*code = d.execute(cc.Context(), def, flags, args, out, errOut)
			return nil
		}
	}

	for _, c := range d.registry.All() {
		sub := &cobra.Command{
			Use:     c.Name(),
			Aliases: c.Aliases(),
			Short:   c.Synopsis(),
			Example: "  " + c.Usage(),
			RunE: func(cc *cobra.Command, args []string) error {
				*code = d.execute(cc.Context(), c, flags, args, out, errOut)
				return nil
			},
		}
		c.RegisterFlags(sub.Flags())
		root.AddCommand(sub)
	}
	return root
}

// execute loads configuration, prepares the tracker the command's access
// level asks for, and runs the command.
func (d *Dispatcher) execute(ctx context.Context, cmd commands.Command, flags common, args []string, out, errOut io.Writer) int {
	cfg, err := config.Load(flags.configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = flags.quiet
	cfg.Debug = flags.debug

	if cmd.Access() == commands.Offline {
		return cmd.Run(ctx, cfg, nil, args, out, errOut)
	}

	log := logger.New(logger.Config{Level: cfg.LoggerLevel(), Encoding: cfg.LogEncoding}, errOut)
	defer func() { _ = log.Sync() }()

	t, err := d.factory(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.BackendError
	}
	defer func() {
		if err := t.Close(); err != nil {
			log.Warn("close credential store", zap.Error(err))
		}
	}()

	if cmd.Access() >= commands.Public {
		// Restore always leaves the tracker logged out on failure.
		if err := t.Restore(ctx); err != nil {
			log.Debug("restore failed", zap.Error(err))
			code := exitcode.FromError(err)
			if cmd.Access() == commands.Protected {
				if code == exitcode.AuthError {
					fmt.Fprintln(errOut, "error: stored session was rejected (run: taskdeck login)")
				} else {
					fmt.Fprintf(errOut, "error: could not confirm stored session: %s (run: taskdeck login)\n", service.Message(err))
				}
				return code
			}
			fmt.Fprintf(errOut, "warning: stored session was cleared: %s\n", service.Message(err))
		}
	}

	if cmd.Access() == commands.Protected && !t.Authenticated() {
		fmt.Fprintln(errOut, commands.NotLoggedIn)
		return exitcode.AuthError
	}

	return cmd.Run(ctx, cfg, t, args, out, errOut)
}
