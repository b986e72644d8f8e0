package service

import "context"

// Service defines the interface for the remote task backend.
// The tracker is the only caller; screens and commands never talk to it directly.
type Service interface {
	// SetCredential makes token the bearer credential for authenticated calls.
	SetCredential(token string)

	// ClearCredential drops the bearer credential.
	ClearCredential()

	// CreateSession exchanges credentials for a session.
	// Rejected credentials return an Error with CodeInvalidCredentials.
	CreateSession(ctx context.Context, email, password string) (Session, error)

	// CreateUser registers a new account. It does not return a usable token.
	CreateUser(ctx context.Context, name, email, password string) (Account, error)

	// ListTasks returns the current user's tasks in server order.
	ListTasks(ctx context.Context) ([]Task, error)

	// CreateTask creates a task. The response is not used by callers.
	CreateTask(ctx context.Context, title string, description *string) error

	// SetTaskDone sets the completion flag of a task.
	SetTaskDone(ctx context.Context, id int64, done bool) error

	// UpdateTask changes the title and/or description of a task.
	UpdateTask(ctx context.Context, id int64, patch TaskPatch) error

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, id int64) error
}
