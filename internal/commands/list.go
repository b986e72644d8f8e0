package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/output"
	"taskdeck/internal/tracker"
)

func init() {
	Register(&ListCmd{})
	DefaultRegistry.SetDefault("list")
}

// ListCmd implements the list command.
// Handles both `taskdeck` (no args) and `taskdeck list`.
type ListCmd struct {
	long     bool
	openOnly bool
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string     { return "taskdeck list [--long] [--open]" }
func (c *ListCmd) Access() Access    { return Protected }

func (c *ListCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&c.long, "long", "l", false, "show descriptions and timestamps")
	fs.BoolVarP(&c.openOnly, "open", "o", false, "hide completed tasks")
}

// Run prints the tasks loaded when the session was restored. Numbers are
// positions in the full listing, so they stay valid with --open.
func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, t *tracker.Tracker, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	printed := 0
	for i, task := range t.Tasks() {
		if c.openOnly && task.Done {
			continue
		}
		if c.long {
			output.FormatTaskDetail(out, i+1, task)
		} else {
			output.FormatTask(out, i+1, task)
		}
		printed++
	}

	if printed == 0 && !cfg.Quiet {
		fmt.Fprintln(out, "no tasks found")
	}
	return exitcode.Success
}
