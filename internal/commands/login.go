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
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	password string
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Log in to the task service" }
func (c *LoginCmd) Usage() string     { return "taskdeck login [--password <pw>] <email>" }
func (c *LoginCmd) Access() Access    { return Public }

func (c *LoginCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.password, "password", "p", "", "password (prompted when omitted)")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, t *tracker.Tracker, args []string, out, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(errOut, "error: email required")
		return exitcode.UserError
	}
	email := strings.TrimSpace(args[0])

	password, err := readPassword(cfg, c.password, "Password: ", errOut)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if err := validate.Login(email, password); err != nil {
		return report(errOut, err)
	}

	if err := t.Login(ctx, email, password); err != nil {
		return report(errOut, err)
	}

	if !cfg.Quiet {
		sess, _ := t.Session()
		fmt.Fprintf(out, "logged in as %s\n", sess.Name)
	}
	return exitcode.Success
}
