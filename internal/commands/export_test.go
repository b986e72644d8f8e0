package commands

import (
	"context"

	"taskdeck/internal/tracker"
	"taskdeck/internal/tui"
)

// SetRunTUI swaps the interface runner and returns a function restoring it.
func SetRunTUI(f func(ctx context.Context, t *tracker.Tracker) error) (restore func()) {
	prev := runTUI
	runTUI = func(ctx context.Context, t *tracker.Tracker, _ ...tui.Option) error {
		return f(ctx, t)
	}
	return func() { runTUI = prev }
}
