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
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	flags       *pflag.FlagSet
	description string
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string     { return "taskdeck add [--description <text>] <title...>" }
func (c *AddCmd) Access() Access    { return Protected }

func (c *AddCmd) RegisterFlags(fs *pflag.FlagSet) {
	c.flags = fs
	fs.StringVarP(&c.description, "description", "d", "", "optional task description")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, t *tracker.Tracker, args []string, out, errOut io.Writer) int {
	title := strings.Join(args, " ")
	if validate.TaskTitle(title) != nil {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}

	var description *string
	if c.flags != nil && c.flags.Changed("description") && strings.TrimSpace(c.description) != "" {
		d := c.description
		description = &d
	}

	if err := t.CreateTask(ctx, title, description); err != nil {
		return report(errOut, err)
	}
	return printOK(cfg, out)
}
