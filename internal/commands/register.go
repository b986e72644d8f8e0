package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/tracker"
	"taskdeck/internal/validate"
)

func init() {
	Register(&RegisterCmd{})
}

// RegisterCmd implements the register command.
type RegisterCmd struct {
	password string
}

func (c *RegisterCmd) Name() string      { return "register" }
func (c *RegisterCmd) Aliases() []string { return []string{"signup"} }
func (c *RegisterCmd) Synopsis() string  { return "Create an account and log in" }
func (c *RegisterCmd) Usage() string {
	return "taskdeck register [--password <pw>] <email> <name...>"
}
func (c *RegisterCmd) Access() Access { return Public }

func (c *RegisterCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.password, "password", "p", "", "password (prompted twice when omitted)")
}

func (c *RegisterCmd) Run(ctx context.Context, cfg *config.Config, t *tracker.Tracker, args []string, out, errOut io.Writer) int {
	if len(args) < 2 {
		fmt.Fprintln(errOut, "error: email and name required")
		return exitcode.UserError
	}
	email := strings.TrimSpace(args[0])
	name := strings.TrimSpace(strings.Join(args[1:], " "))

	password, err := readPassword(cfg, c.password, "Password: ", errOut)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	confirm := password
	if !passwordFromFlagOrEnv(cfg, c.password) {
		confirm, err = readPassword(cfg, "", "Confirm password: ", errOut)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
	}

	if err := validate.Registration(name, email, password, confirm); err != nil {
		return report(errOut, err)
	}

	if err := t.Register(ctx, name, email, password); err != nil {
		if t.Authenticated() {
			// Account and session exist; only the first fetch failed.
			fmt.Fprintf(errOut, "warning: %s\n", err)
			return printOK(cfg, out)
		}
		return report(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "registered and logged in as %s\n", name)
	}
	return exitcode.Success
}
