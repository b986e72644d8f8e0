package commands

import (
	"context"
	"io"

	"github.com/spf13/pflag"

	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/tracker"
)

func init() {
	Register(&DoneCmd{})
}

// DoneCmd implements the done command. It toggles, so running it on a
// completed task reopens it.
type DoneCmd struct{}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return []string{"toggle"} }
func (c *DoneCmd) Synopsis() string  { return "Toggle a task's completion" }
func (c *DoneCmd) Usage() string     { return "taskdeck done <N | #ID>" }
func (c *DoneCmd) Access() Access    { return Protected }

func (c *DoneCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, t *tracker.Tracker, args []string, out, errOut io.Writer) int {
	task, code := resolveRef(t, args, errOut)
	if code != exitcode.Success {
		return code
	}

	if err := t.ToggleTask(ctx, task.ID); err != nil {
		return report(errOut, err)
	}
	return printOK(cfg, out)
}
