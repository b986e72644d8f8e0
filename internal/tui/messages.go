package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"taskdeck/internal/service"
	"taskdeck/internal/tracker"
)

// Message types for async operations
type (
	// snapshotMsg carries tracker state after a change.
	snapshotMsg tracker.Snapshot

	// authDoneMsg reports the end of a login or registration.
	authDoneMsg struct {
		err error
	}

	// taskOpDoneMsg reports the end of a task operation.
	taskOpDoneMsg struct {
		op  string
		id  int64
		err error
	}

	// loggedOutMsg reports the end of a logout.
	loggedOutMsg struct {
		err error
	}
)

const (
	opFetch  = "load tasks"
	opCreate = "add the task"
	opToggle = "update the task"
	opDelete = "remove the task"
)

// Commands for async operations. Each runs off the UI goroutine.

func loginCmd(ctx context.Context, t *tracker.Tracker, email, password string) tea.Cmd {
	return func() tea.Msg {
		return authDoneMsg{err: t.Login(ctx, email, password)}
	}
}

func registerCmd(ctx context.Context, t *tracker.Tracker, name, email, password string) tea.Cmd {
	return func() tea.Msg {
		return authDoneMsg{err: t.Register(ctx, name, email, password)}
	}
}

func logoutCmd(ctx context.Context, t *tracker.Tracker) tea.Cmd {
	return func() tea.Msg {
		return loggedOutMsg{err: t.Logout(ctx)}
	}
}

func fetchCmd(ctx context.Context, t *tracker.Tracker) tea.Cmd {
	return func() tea.Msg {
		return taskOpDoneMsg{op: opFetch, err: t.FetchTasks(ctx)}
	}
}

func createCmd(ctx context.Context, t *tracker.Tracker, title string, description *string) tea.Cmd {
	return func() tea.Msg {
		return taskOpDoneMsg{op: opCreate, err: t.CreateTask(ctx, title, description)}
	}
}

func toggleCmd(ctx context.Context, t *tracker.Tracker, id int64) tea.Cmd {
	return func() tea.Msg {
		return taskOpDoneMsg{op: opToggle, id: id, err: t.ToggleTask(ctx, id)}
	}
}

func deleteCmd(ctx context.Context, t *tracker.Tracker, id int64) tea.Cmd {
	return func() tea.Msg {
		return taskOpDoneMsg{op: opDelete, id: id, err: t.DeleteTask(ctx, id)}
	}
}

// failureText renders an operation error for inline display.
func failureText(op string, err error) string {
	switch service.CodeOf(err) {
	case service.CodeNoConnectivity:
		return "could not " + op + ": no connection to server"
	case service.CodeValidationRejected:
		return service.Message(err)
	default:
		return "could not " + op + ": " + service.Message(err)
	}
}
