package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/tracker"
	"taskdeck/internal/tui"
)

func init() {
	Register(&TUICmd{})
}

// TUICmd opens the full-screen interface.
type TUICmd struct {
	inline bool
}

func (c *TUICmd) Name() string      { return "tui" }
func (c *TUICmd) Aliases() []string { return []string{"ui"} }
func (c *TUICmd) Synopsis() string  { return "Open the interactive task screen" }
func (c *TUICmd) Usage() string     { return "taskdeck tui [--inline]" }
func (c *TUICmd) Access() Access    { return Public }

func (c *TUICmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&c.inline, "inline", false, "render below the prompt instead of full screen")
}

// runTUI is replaced in tests.
var runTUI = tui.Run

func (c *TUICmd) Run(ctx context.Context, cfg *config.Config, t *tracker.Tracker, args []string, out, errOut io.Writer) int {
	var opts []tui.Option
	if c.inline {
		opts = append(opts, tui.WithoutAltScreen())
	}
	if err := runTUI(ctx, t, opts...); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
