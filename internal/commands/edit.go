package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/service"
	"taskdeck/internal/tracker"
	"taskdeck/internal/validate"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command.
type EditCmd struct {
	flags       *pflag.FlagSet
	title       string
	description string
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Change a task's title or description" }
func (c *EditCmd) Usage() string {
	return "taskdeck edit [--title <text>] [--description <text>] <N | #ID>"
}
func (c *EditCmd) Access() Access { return Protected }

func (c *EditCmd) RegisterFlags(fs *pflag.FlagSet) {
	c.flags = fs
	fs.StringVarP(&c.title, "title", "t", "", "new title")
	fs.StringVarP(&c.description, "description", "d", "", "new description")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, t *tracker.Tracker, args []string, out, errOut io.Writer) int {
	var patch service.TaskPatch
	if c.flags != nil && c.flags.Changed("title") {
		if validate.TaskTitle(c.title) != nil {
			fmt.Fprintln(errOut, "error: title required")
			return exitcode.UserError
		}
		title := c.title
		patch.Title = &title
	}
	if c.flags != nil && c.flags.Changed("description") {
		description := c.description
		patch.Description = &description
	}
	if patch.Empty() {
		fmt.Fprintln(errOut, "error: nothing to change (use --title or --description)")
		return exitcode.UserError
	}

	task, code := resolveRef(t, args, errOut)
	if code != exitcode.Success {
		return code
	}

	if err := t.UpdateTask(ctx, task.ID, patch); err != nil {
		return report(errOut, err)
	}
	return printOK(cfg, out)
}
