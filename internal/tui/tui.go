// Package tui is the full-screen interface: login and registration screens
// while logged out and the task dashboard while logged in.
package tui

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"taskdeck/internal/tracker"
)

// Option configures the program.
type Option func(*options)

type options struct {
	in        io.Reader
	out       io.Writer
	altScreen bool
}

// WithIO replaces the terminal input and output.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(o *options) {
		o.in = in
		o.out = out
	}
}

// WithoutAltScreen renders inline instead of on the alternate screen.
func WithoutAltScreen() Option {
	return func(o *options) { o.altScreen = false }
}

// Run shows the interface until the user quits or ctx is cancelled.
// The tracker should already have attempted to restore a stored session.
func Run(ctx context.Context, t *tracker.Tracker, opts ...Option) error {
	o := options{altScreen: true}
	for _, opt := range opts {
		opt(&o)
	}

	progOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if o.altScreen {
		progOpts = append(progOpts, tea.WithAltScreen())
	}
	if o.in != nil {
		progOpts = append(progOpts, tea.WithInput(o.in))
	}
	if o.out != nil {
		progOpts = append(progOpts, tea.WithOutput(o.out))
	}

	p := tea.NewProgram(newModel(ctx, t), progOpts...)

	// Tracker calls run inside commands, off the event loop, so Send
	// cannot deadlock here.
	cancel := t.Subscribe(func(snap tracker.Snapshot) {
		p.Send(snapshotMsg(snap))
	})
	defer cancel()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
