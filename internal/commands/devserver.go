package commands

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/spf13/pflag"

	"taskdeck/internal/config"
	"taskdeck/internal/devserver"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/logger"
	"taskdeck/internal/tracker"
)

func init() {
	Register(&DevServerCmd{})
}

// DevServerCmd runs the in-memory task service locally.
type DevServerCmd struct {
	addr string
}

func (c *DevServerCmd) Name() string      { return "devserver" }
func (c *DevServerCmd) Aliases() []string { return []string{"serve"} }
func (c *DevServerCmd) Synopsis() string  { return "Run a local in-memory task service" }
func (c *DevServerCmd) Usage() string     { return "taskdeck devserver [--addr <host:port>]" }
func (c *DevServerCmd) Access() Access    { return Offline }

func (c *DevServerCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.addr, "addr", ":3333", "listen address")
}

func (c *DevServerCmd) Run(ctx context.Context, cfg *config.Config, t *tracker.Tracker, args []string, out, errOut io.Writer) int {
	log := logger.New(logger.Config{Level: cfg.LoggerLevel(), Encoding: cfg.LogEncoding}, errOut)
	defer func() { _ = log.Sync() }()

	ln, err := net.Listen("tcp", c.addr)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "listening on %s\n", ln.Addr())
	}

	ds := devserver.New(log)
	if err := ds.Serve(ctx, ln); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
