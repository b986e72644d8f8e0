// Package tracker owns the session and task state shared by the CLI and the
// terminal UI. It is the only caller of service.Service and the only writer
// of the credential store and the client's bearer credential.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"taskdeck/internal/credstore"
	"taskdeck/internal/service"
)

var (
	// ErrSessionRejected is returned by Restore when a stored session could
	// not be confirmed and was discarded.
	ErrSessionRejected = errors.New("stored session rejected")

	// ErrNoSession is returned by task operations while logged out.
	ErrNoSession = errors.New("not logged in")
)

// Snapshot is a copy of the tracker state handed to listeners.
type Snapshot struct {
	Session *service.Session
	Tasks   []service.Task
}

// Listener is called after every state change. It runs on the goroutine
// that made the change and must not block.
type Listener func(Snapshot)

// Tracker mediates between screens and the remote service.
//
// The mutex guards the fields below it and is never held across I/O, so
// concurrent operations are not serialized; the last write wins.
type Tracker struct {
	svc   service.Service
	store credstore.Store
	log   *zap.Logger

	mu        sync.Mutex
	session   *service.Session
	tasks     []service.Task
	listeners map[int]Listener
	nextSub   int
}

// New creates an unauthenticated tracker.
func New(svc service.Service, store credstore.Store, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{
		svc:       svc,
		store:     store,
		log:       log.Named("tracker"),
		listeners: make(map[int]Listener),
	}
}

// Session returns a copy of the current session.
func (t *Tracker) Session() (service.Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return service.Session{}, false
	}
	return *t.session, true
}

// Authenticated reports whether a session is present.
func (t *Tracker) Authenticated() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session != nil
}

// Tasks returns a copy of the task list in server order.
func (t *Tracker) Tasks() []service.Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	return copyTasks(t.tasks)
}

// Task returns the task with the given id from the local list.
func (t *Tracker) Task(id int64) (service.Task, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i := t.indexOf(id); i >= 0 {
		return t.tasks[i], true
	}
	return service.Task{}, false
}

// Subscribe registers l for change notifications. The returned function
// removes it.
func (t *Tracker) Subscribe(l Listener) (cancel func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextSub
	t.nextSub++
	t.listeners[id] = l
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.listeners, id)
	}
}

// Restore reloads the stored session, if any, and confirms it with a task
// listing. Any failure discards the stored session and leaves the tracker
// logged out.
func (t *Tracker) Restore(ctx context.Context) error {
	sess, ok, err := t.store.Load(ctx)
	if err != nil {
		t.log.Warn("unreadable stored session, discarding", zap.Error(err))
		t.discard(ctx)
		return fmt.Errorf("%w: %w", ErrSessionRejected, err)
	}
	if !ok {
		return nil
	}

	t.svc.SetCredential(sess.Token)
	if _, err := t.svc.ListTasks(ctx); err != nil {
		t.log.Info("stored session not accepted, logging out", zap.Error(err))
		t.discard(ctx)
		return fmt.Errorf("%w: %w", ErrSessionRejected, err)
	}

	t.mu.Lock()
	t.session = &sess
	t.tasks = nil
	snap, ls := t.snapshotLocked()
	t.mu.Unlock()
	t.notify(snap, ls)

	if err := t.FetchTasks(ctx); err != nil {
		t.log.Info("initial fetch failed, logging out", zap.Error(err))
		t.discard(ctx)
		return fmt.Errorf("%w: %w", ErrSessionRejected, err)
	}
	t.log.Debug("session restored", zap.Int64("user_id", sess.ID))
	return nil
}

// Login exchanges credentials for a session and persists it.
// The task list is reset; callers fetch when they need it.
func (t *Tracker) Login(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return service.NewError(service.CodeValidationRejected, "email and password are required")
	}

	sess, err := t.svc.CreateSession(ctx, email, password)
	if err != nil {
		return err
	}
	return t.establish(ctx, sess)
}

// Register creates an account and logs into it, then fetches its tasks.
// The login response is authoritative; the account's id and name fill in
// only what the login response leaves out.
func (t *Tracker) Register(ctx context.Context, name, email, password string) error {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" {
		return service.NewError(service.CodeValidationRejected, "name, email and password are required")
	}

	acct, err := t.svc.CreateUser(ctx, name, email, password)
	if err != nil {
		return err
	}

	sess, err := t.svc.CreateSession(ctx, email, password)
	if err != nil {
		return err
	}
	if sess.ID == 0 {
		sess.ID = acct.ID
	}
	if sess.Name == "" {
		sess.Name = acct.Name
	}
	if sess.Email == "" {
		sess.Email = acct.Email
	}

	if err := t.establish(ctx, sess); err != nil {
		return err
	}
	if err := t.FetchTasks(ctx); err != nil {
		return fmt.Errorf("registered, but loading tasks failed: %w", err)
	}
	return nil
}

// establish must only be called with a session returned by the service.
func (t *Tracker) establish(ctx context.Context, sess service.Session) error {
	if sess.Token == "" {
		return service.NewError(service.CodeServerError, "server returned no session token")
	}
	if err := t.store.Save(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	t.svc.SetCredential(sess.Token)

	t.mu.Lock()
	t.session = &sess
	t.tasks = nil
	snap, ls := t.snapshotLocked()
	t.mu.Unlock()
	t.notify(snap, ls)

	t.log.Debug("logged in", zap.Int64("user_id", sess.ID))
	return nil
}

// Logout clears the in-memory state first, then the stored session and the
// bearer credential. It is safe to call while logged out.
func (t *Tracker) Logout(ctx context.Context) error {
	t.mu.Lock()
	t.session = nil
	t.tasks = nil
	snap, ls := t.snapshotLocked()
	t.mu.Unlock()
	t.notify(snap, ls)

	t.svc.ClearCredential()
	if err := t.store.Remove(ctx); err != nil {
		return fmt.Errorf("remove stored session: %w", err)
	}
	return nil
}

func (t *Tracker) discard(ctx context.Context) {
	if err := t.Logout(ctx); err != nil {
		t.log.Warn("discard stored session", zap.Error(err))
	}
}

// FetchTasks replaces the task list with the server's.
func (t *Tracker) FetchTasks(ctx context.Context) error {
	if !t.Authenticated() {
		return ErrNoSession
	}
	tasks, err := t.svc.ListTasks(ctx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	if t.session == nil {
		// Logged out while the request was in flight.
		t.mu.Unlock()
		return ErrNoSession
	}
	t.tasks = copyTasks(tasks)
	snap, ls := t.snapshotLocked()
	t.mu.Unlock()
	t.notify(snap, ls)
	return nil
}

// CreateTask creates a task and refetches the list. An empty title is
// passed through for the server to reject.
func (t *Tracker) CreateTask(ctx context.Context, title string, description *string) error {
	if !t.Authenticated() {
		return ErrNoSession
	}
	if err := t.svc.CreateTask(ctx, title, description); err != nil {
		return err
	}
	return t.FetchTasks(ctx)
}

// UpdateTask edits a task and refetches the list. Unknown ids and empty
// patches are ignored.
func (t *Tracker) UpdateTask(ctx context.Context, id int64, patch service.TaskPatch) error {
	if !t.Authenticated() {
		return ErrNoSession
	}
	if _, ok := t.Task(id); !ok || patch.Empty() {
		return nil
	}
	if err := t.svc.UpdateTask(ctx, id, patch); err != nil {
		return err
	}
	return t.FetchTasks(ctx)
}

// ToggleTask flips the completion flag of a task and patches it in place.
// Unknown ids are ignored.
func (t *Tracker) ToggleTask(ctx context.Context, id int64) error {
	if !t.Authenticated() {
		return ErrNoSession
	}
	task, ok := t.Task(id)
	if !ok {
		return nil
	}
	done := !task.Done
	if err := t.svc.SetTaskDone(ctx, id, done); err != nil {
		return err
	}

	t.mu.Lock()
	i := t.indexOf(id)
	if i < 0 {
		t.mu.Unlock()
		return nil
	}
	t.tasks[i].Done = done
	snap, ls := t.snapshotLocked()
	t.mu.Unlock()
	t.notify(snap, ls)
	return nil
}

// DeleteTask deletes a task and removes it from the local list.
func (t *Tracker) DeleteTask(ctx context.Context, id int64) error {
	if !t.Authenticated() {
		return ErrNoSession
	}
	if err := t.svc.DeleteTask(ctx, id); err != nil {
		return err
	}

	t.mu.Lock()
	i := t.indexOf(id)
	if i < 0 {
		t.mu.Unlock()
		return nil
	}
	t.tasks = append(t.tasks[:i:i], t.tasks[i+1:]...)
	snap, ls := t.snapshotLocked()
	t.mu.Unlock()
	t.notify(snap, ls)
	return nil
}

// Close releases the credential store.
func (t *Tracker) Close() error {
	return t.store.Close()
}

func (t *Tracker) indexOf(id int64) int {
	for i := range t.tasks {
		if t.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (t *Tracker) snapshotLocked() (Snapshot, []Listener) {
	var snap Snapshot
	if t.session != nil {
		s := *t.session
		snap.Session = &s
	}
	snap.Tasks = copyTasks(t.tasks)

	ls := make([]Listener, 0, len(t.listeners))
	for _, l := range t.listeners {
		ls = append(ls, l)
	}
	return snap, ls
}

func (t *Tracker) notify(snap Snapshot, ls []Listener) {
	for _, l := range ls {
		l(snap)
	}
}

func copyTasks(tasks []service.Task) []service.Task {
	if tasks == nil {
		return nil
	}
	out := make([]service.Task, len(tasks))
	copy(out, tasks)
	return out
}
