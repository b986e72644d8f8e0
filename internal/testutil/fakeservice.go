// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"taskdeck/internal/service"
)

// Call records one request made against a FakeService.
type Call struct {
	Op     string
	Bearer string
	ID     int64
}

type fakeUser struct {
	password string
	session  service.Session
}

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu     sync.RWMutex
	bearer string
	users  map[string]fakeUser // email -> user
	tasks  []service.Task
	nextID int64
	calls  []Call

	// OmitLoginIdentity makes CreateSession answer with only a token.
	OmitLoginIdentity bool

	// Error injection for testing
	CreateSessionErr error
	CreateUserErr    error
	ListTasksErr     error
	CreateTaskErr    error
	SetTaskDoneErr   error
	UpdateTaskErr    error
	DeleteTaskErr    error

	// ListTasksErrFrom delays ListTasksErr until the given ListTasks call
	// (1-based). Zero applies it to every call.
	ListTasksErrFrom int
	listCalls        int
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		users:  make(map[string]fakeUser),
		nextID: 1,
	}
}

// AddUser registers credentials that CreateSession will accept.
func (f *FakeService) AddUser(sess service.Session, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[strings.ToLower(sess.Email)] = fakeUser{password: password, session: sess}
}

// AddTask adds a task with the next free id and returns it.
func (f *FakeService) AddTask(title string) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := service.Task{
		ID:        f.nextID,
		Title:     title,
		CreatedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	f.nextID++
	f.tasks = append(f.tasks, t)
	return t
}

// RemoteTasks returns the tasks as the remote side holds them.
func (f *FakeService) RemoteTasks() []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]service.Task, len(f.tasks))
	copy(out, f.tasks)
	return out
}

// Calls returns every request made so far.
func (f *FakeService) Calls() []Call {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount counts requests with the given operation name.
func (f *FakeService) CallCount(op string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	n := 0
	for _, c := range f.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// LastCall returns the most recent request, if any.
func (f *FakeService) LastCall() (Call, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(f.calls) == 0 {
		return Call{}, false
	}
	return f.calls[len(f.calls)-1], true
}

// ResetCalls forgets recorded requests.
func (f *FakeService) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// Bearer returns the credential currently set on the fake client.
func (f *FakeService) Bearer() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bearer
}

// record must be called with f.mu held.
func (f *FakeService) record(op string, id int64) {
	f.calls = append(f.calls, Call{Op: op, Bearer: f.bearer, ID: id})
}

// SetCredential implements service.Service.
func (f *FakeService) SetCredential(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bearer = token
}

// ClearCredential implements service.Service.
func (f *FakeService) ClearCredential() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bearer = ""
}

// CreateSession implements service.Service.
func (f *FakeService) CreateSession(ctx context.Context, email, password string) (service.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateSession", 0)

	if f.CreateSessionErr != nil {
		return service.Session{}, f.CreateSessionErr
	}
	u, ok := f.users[strings.ToLower(email)]
	if !ok || u.password != password {
		return service.Session{}, service.NewError(service.CodeInvalidCredentials, "invalid credentials")
	}
	if f.OmitLoginIdentity {
		return service.Session{Email: u.session.Email, Token: u.session.Token}, nil
	}
	return u.session, nil
}

// CreateUser implements service.Service. New accounts get the token
// "T-<email>" on their next CreateSession.
func (f *FakeService) CreateUser(ctx context.Context, name, email, password string) (service.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateUser", 0)

	if f.CreateUserErr != nil {
		return service.Account{}, f.CreateUserErr
	}
	key := strings.ToLower(email)
	if _, exists := f.users[key]; exists {
		return service.Account{}, service.NewError(service.CodeValidationRejected, "email already registered")
	}
	id := int64(len(f.users) + 100)
	f.users[key] = fakeUser{
		password: password,
		session:  service.Session{ID: id, Name: name, Email: email, Token: "T-" + email},
	}
	return service.Account{ID: id, Name: name, Email: email}, nil
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context) ([]service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListTasks", 0)
	f.listCalls++

	if f.ListTasksErr != nil && f.listCalls >= f.ListTasksErrFrom {
		return nil, f.ListTasksErr
	}
	out := make([]service.Task, len(f.tasks))
	copy(out, f.tasks)
	return out, nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, title string, description *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateTask", 0)

	if f.CreateTaskErr != nil {
		return f.CreateTaskErr
	}
	if strings.TrimSpace(title) == "" {
		return service.NewError(service.CodeValidationRejected, "title is required")
	}
	f.tasks = append(f.tasks, service.Task{
		ID:          f.nextID,
		Title:       title,
		Description: description,
		CreatedAt:   time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC),
	})
	f.nextID++
	return nil
}

// SetTaskDone implements service.Service.
func (f *FakeService) SetTaskDone(ctx context.Context, id int64, done bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetTaskDone", id)

	if f.SetTaskDoneErr != nil {
		return f.SetTaskDoneErr
	}
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks[i].Done = done
			return nil
		}
	}
	return service.NewError(service.CodeServerError, "task not found")
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, id int64, patch service.TaskPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateTask", id)

	if f.UpdateTaskErr != nil {
		return f.UpdateTaskErr
	}
	for i := range f.tasks {
		if f.tasks[i].ID != id {
			continue
		}
		if patch.Title != nil {
			f.tasks[i].Title = *patch.Title
		}
		if patch.Description != nil {
			d := *patch.Description
			f.tasks[i].Description = &d
		}
		updated := time.Date(2024, 3, 3, 9, 0, 0, 0, time.UTC)
		f.tasks[i].UpdatedAt = &updated
		return nil
	}
	return service.NewError(service.CodeServerError, "task not found")
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteTask", id)

	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return service.NewError(service.CodeServerError, "task not found")
}
