package tracker_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"taskdeck/internal/service"
	"taskdeck/internal/testutil"
	"taskdeck/internal/tracker"
)

var ana = service.Session{ID: 7, Name: "Ana", Email: "a@b.com", Token: "T1"}

func newTracker(t *testing.T) (*tracker.Tracker, *testutil.FakeService, *testutil.MemoryStore) {
	t.Helper()
	svc := testutil.NewFakeService()
	svc.AddUser(ana, "secret1")
	store := testutil.NewMemoryStore()
	return tracker.New(svc, store, nil), svc, store
}

func loggedIn(t *testing.T) (*tracker.Tracker, *testutil.FakeService, *testutil.MemoryStore) {
	t.Helper()
	tr, svc, store := newTracker(t)
	if err := tr.Login(context.Background(), "a@b.com", "secret1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	return tr, svc, store
}

func ops(calls []testutil.Call) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Op
	}
	return out
}

func equalOps(got []string, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestLogin_SessionAndBearer(t *testing.T) {
	tr, svc, store := newTracker(t)
	ctx := context.Background()

	if err := tr.Login(ctx, "a@b.com", "secret1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	got, ok := tr.Session()
	if !ok || got != ana {
		t.Fatalf("expected session %+v, got %+v (ok=%v)", ana, got, ok)
	}
	stored, ok := store.Stored()
	if !ok || stored != ana {
		t.Errorf("expected stored session %+v, got %+v (ok=%v)", ana, stored, ok)
	}

	if err := tr.FetchTasks(ctx); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	last, _ := svc.LastCall()
	if last.Op != "ListTasks" || last.Bearer != "T1" {
		t.Errorf("expected ListTasks with bearer T1, got %+v", last)
	}
}

func TestLogin_FetchReturnsSessionTasks(t *testing.T) {
	tr, svc, store := loggedIn(t)
	svc.AddTask("Write report")
	svc.AddTask("Call mom")

	if err := tr.FetchTasks(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	tasks := tr.Tasks()
	remote := svc.RemoteTasks()
	if len(tasks) != len(remote) {
		t.Fatalf("expected %d tasks, got %d", len(remote), len(tasks))
	}
	for i := range remote {
		if tasks[i].ID != remote[i].ID || tasks[i].Title != remote[i].Title {
			t.Errorf("task %d: expected %+v, got %+v", i, remote[i], tasks[i])
		}
	}

	stored, _ := store.Stored()
	for _, c := range svc.Calls() {
		if c.Op == "ListTasks" && c.Bearer != stored.Token {
			t.Errorf("authenticated call used bearer %q, stored token is %q", c.Bearer, stored.Token)
		}
	}
}

func TestLogin_ResetsTaskList(t *testing.T) {
	tr, svc, _ := loggedIn(t)
	svc.AddTask("Old")
	if err := tr.FetchTasks(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := tr.Login(context.Background(), "a@b.com", "secret1"); err != nil {
		t.Fatal(err)
	}
	if n := len(tr.Tasks()); n != 0 {
		t.Errorf("expected empty task list after login, got %d", n)
	}
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name     string
		password string
		inject   error
		wantCode service.ErrorCode
	}{
		{"wrong password", "nope", nil, service.CodeInvalidCredentials},
		{"server error", "secret1", service.NewError(service.CodeServerError, "server error"), service.CodeServerError},
		{"no connectivity", "secret1", service.NewError(service.CodeNoConnectivity, "no connection to server"), service.CodeNoConnectivity},
	}

	messages := make(map[string]service.ErrorCode)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, svc, store := newTracker(t)
			svc.CreateSessionErr = tt.inject

			err := tr.Login(context.Background(), "a@b.com", tt.password)
			if !service.IsCode(err, tt.wantCode) {
				t.Fatalf("expected %s, got %v", tt.wantCode, err)
			}
			messages[service.Message(err)] = tt.wantCode

			if tr.Authenticated() {
				t.Error("expected no session after failed login")
			}
			if store.Saves != 0 {
				t.Errorf("expected no store writes, got %d", store.Saves)
			}
			if svc.Bearer() != "" {
				t.Errorf("expected no bearer, got %q", svc.Bearer())
			}
		})
	}
	if len(messages) != len(tests) {
		t.Errorf("expected a distinct message per failure, got %v", messages)
	}
}

func TestLogin_EmptyFields(t *testing.T) {
	tr, svc, _ := newTracker(t)

	for _, creds := range [][2]string{{"", "secret1"}, {"a@b.com", ""}, {"  ", "x"}} {
		err := tr.Login(context.Background(), creds[0], creds[1])
		if !service.IsCode(err, service.CodeValidationRejected) {
			t.Errorf("login(%q, %q): expected validation error, got %v", creds[0], creds[1], err)
		}
	}
	if n := len(svc.Calls()); n != 0 {
		t.Errorf("expected no requests, got %d", n)
	}
}

func TestLogin_MissingToken(t *testing.T) {
	tr, svc, store := newTracker(t)
	svc.AddUser(service.Session{ID: 9, Name: "NoTok", Email: "n@t.io"}, "pw")

	err := tr.Login(context.Background(), "n@t.io", "pw")
	if !service.IsCode(err, service.CodeServerError) {
		t.Fatalf("expected server error, got %v", err)
	}
	if tr.Authenticated() || store.Saves != 0 {
		t.Error("expected no state change for a session without token")
	}
}

func TestLogoutThenRestore(t *testing.T) {
	tr, svc, store := loggedIn(t)
	ctx := context.Background()

	if err := tr.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if svc.Bearer() != "" {
		t.Errorf("expected bearer cleared, got %q", svc.Bearer())
	}

	// Simulate a restart: new tracker, same store.
	svc.ResetCalls()
	restarted := tracker.New(svc, store, nil)
	if err := restarted.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restarted.Authenticated() {
		t.Error("expected unauthenticated after logout and restore")
	}
	if n := len(restarted.Tasks()); n != 0 {
		t.Errorf("expected no tasks, got %d", n)
	}
	if calls := svc.Calls(); len(calls) != 0 {
		t.Errorf("expected no requests, got %v", ops(calls))
	}
}

func TestLogout_Idempotent(t *testing.T) {
	tr, _, store := newTracker(t)
	for i := 0; i < 2; i++ {
		if err := tr.Logout(context.Background()); err != nil {
			t.Fatalf("logout %d: %v", i, err)
		}
	}
	if store.Removes != 2 {
		t.Errorf("expected 2 removes, got %d", store.Removes)
	}
}

func TestLogout_StoreFailureStillClearsState(t *testing.T) {
	tr, svc, store := loggedIn(t)
	store.RemoveErr = errors.New("disk full")

	if err := tr.Logout(context.Background()); err == nil {
		t.Fatal("expected remove error to be returned")
	}
	if tr.Authenticated() {
		t.Error("expected session cleared despite store failure")
	}
	if svc.Bearer() != "" {
		t.Error("expected bearer cleared despite store failure")
	}
}

func TestRestore_ValidSession(t *testing.T) {
	tr, svc, store := newTracker(t)
	store.Put(ana)
	svc.AddTask("One")
	svc.AddTask("Two")

	if err := tr.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got, ok := tr.Session(); !ok || got != ana {
		t.Errorf("expected restored session %+v, got %+v", ana, got)
	}
	if n := len(tr.Tasks()); n != 2 {
		t.Errorf("expected 2 tasks, got %d", n)
	}
	calls := svc.Calls()
	if !equalOps(ops(calls), "ListTasks", "ListTasks") {
		t.Errorf("expected confirmation then fetch, got %v", ops(calls))
	}
	for _, c := range calls {
		if c.Bearer != "T1" {
			t.Errorf("expected bearer T1, got %q", c.Bearer)
		}
	}
}

func TestRestore_FailsClosed(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"stale token", service.NewError(service.CodeInvalidCredentials, "not authorized")},
		{"network down", service.NewError(service.CodeNoConnectivity, "no connection to server")},
		{"server error", service.NewError(service.CodeServerError, "server error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, svc, store := newTracker(t)
			store.Put(ana)
			svc.ListTasksErr = tt.err

			err := tr.Restore(context.Background())
			if !errors.Is(err, tracker.ErrSessionRejected) {
				t.Fatalf("expected ErrSessionRejected, got %v", err)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("expected cause to be wrapped, got %v", err)
			}
			if tr.Authenticated() {
				t.Error("expected unauthenticated")
			}
			if _, ok := store.Stored(); ok {
				t.Error("expected stored session removed")
			}
			if svc.Bearer() != "" {
				t.Errorf("expected bearer cleared, got %q", svc.Bearer())
			}
		})
	}
}

func TestRestore_FetchFailureFailsClosed(t *testing.T) {
	tr, svc, store := newTracker(t)
	store.Put(ana)
	// The confirming listing succeeds; the fetch that follows it fails.
	cause := service.NewError(service.CodeServerError, "boom")
	svc.ListTasksErr = cause
	svc.ListTasksErrFrom = 2

	err := tr.Restore(context.Background())
	if !errors.Is(err, tracker.ErrSessionRejected) {
		t.Fatalf("expected ErrSessionRejected, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be wrapped, got %v", err)
	}
	if !equalOps(ops(svc.Calls()), "ListTasks", "ListTasks") {
		t.Errorf("expected confirmation then fetch, got %v", ops(svc.Calls()))
	}
	if tr.Authenticated() {
		t.Error("expected unauthenticated")
	}
	if len(tr.Tasks()) != 0 {
		t.Errorf("expected no tasks, got %+v", tr.Tasks())
	}
	if _, ok := store.Stored(); ok {
		t.Error("expected stored session removed")
	}
	if svc.Bearer() != "" {
		t.Errorf("expected bearer cleared, got %q", svc.Bearer())
	}
}

func TestRestore_UnreadableStore(t *testing.T) {
	tr, svc, store := newTracker(t)
	store.LoadErr = errors.New("corrupt")

	err := tr.Restore(context.Background())
	if !errors.Is(err, tracker.ErrSessionRejected) {
		t.Fatalf("expected ErrSessionRejected, got %v", err)
	}
	if store.Removes != 1 {
		t.Errorf("expected stored record removed, got %d removes", store.Removes)
	}
	if n := len(svc.Calls()); n != 0 {
		t.Errorf("expected no requests, got %d", n)
	}
}

func TestToggleTask_UnknownIDIsNoop(t *testing.T) {
	tr, svc, _ := loggedIn(t)
	svc.AddTask("Only")
	if err := tr.FetchTasks(context.Background()); err != nil {
		t.Fatal(err)
	}
	before := tr.Tasks()
	svc.ResetCalls()

	if err := tr.ToggleTask(context.Background(), 999); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if n := len(svc.Calls()); n != 0 {
		t.Errorf("expected no request, got %v", ops(svc.Calls()))
	}
	after := tr.Tasks()
	if len(after) != len(before) || after[0] != before[0] {
		t.Errorf("expected state unchanged, got %+v", after)
	}
}

func TestToggleTask_PatchesInPlace(t *testing.T) {
	tr, svc, _ := loggedIn(t)
	task := svc.AddTask("Flip me")
	if err := tr.FetchTasks(context.Background()); err != nil {
		t.Fatal(err)
	}
	svc.ResetCalls()

	if err := tr.ToggleTask(context.Background(), task.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	got, _ := tr.Task(task.ID)
	if !got.Done {
		t.Error("expected task done after toggle")
	}
	if !equalOps(ops(svc.Calls()), "SetTaskDone") {
		t.Errorf("expected a single SetTaskDone, got %v", ops(svc.Calls()))
	}

	if err := tr.ToggleTask(context.Background(), task.ID); err != nil {
		t.Fatalf("toggle back: %v", err)
	}
	got, _ = tr.Task(task.ID)
	if got.Done {
		t.Error("expected task open after second toggle")
	}
}

func TestToggleTask_FailureLeavesState(t *testing.T) {
	tr, svc, _ := loggedIn(t)
	task := svc.AddTask("Stuck")
	if err := tr.FetchTasks(context.Background()); err != nil {
		t.Fatal(err)
	}
	svc.SetTaskDoneErr = service.NewError(service.CodeServerError, "server error")

	if err := tr.ToggleTask(context.Background(), task.ID); err == nil {
		t.Fatal("expected error")
	}
	if got, _ := tr.Task(task.ID); got.Done {
		t.Error("expected task unchanged after failed toggle")
	}
}

func TestCreateTask_RefetchesList(t *testing.T) {
	tr, svc, _ := loggedIn(t)
	svc.ResetCalls()

	if err := tr.CreateTask(context.Background(), "Buy milk", nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !equalOps(ops(svc.Calls()), "CreateTask", "ListTasks") {
		t.Errorf("expected create then fetch, got %v", ops(svc.Calls()))
	}
	tasks := tr.Tasks()
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Title != "Buy milk" || tasks[0].Description != nil {
		t.Errorf("unexpected task %+v", tasks[0])
	}
	if tasks[0].ID == 0 || tasks[0].CreatedAt.IsZero() {
		t.Errorf("expected server-assigned fields, got %+v", tasks[0])
	}
}

func TestCreateTask_EmptyTitleForwarded(t *testing.T) {
	tr, svc, _ := loggedIn(t)

	err := tr.CreateTask(context.Background(), "", nil)
	if !service.IsCode(err, service.CodeValidationRejected) {
		t.Fatalf("expected the service to reject, got %v", err)
	}
	if svc.CallCount("CreateTask") != 1 {
		t.Error("expected the request to be sent")
	}
}

func TestCreateTask_FailureLeavesState(t *testing.T) {
	tr, svc, _ := loggedIn(t)
	svc.AddTask("Existing")
	if err := tr.FetchTasks(context.Background()); err != nil {
		t.Fatal(err)
	}
	svc.CreateTaskErr = service.NewError(service.CodeNoConnectivity, "no connection to server")

	if err := tr.CreateTask(context.Background(), "New", nil); err == nil {
		t.Fatal("expected error")
	}
	if n := len(tr.Tasks()); n != 1 {
		t.Errorf("expected 1 task, got %d", n)
	}
}

func TestDeleteTask_RemovesExactlyOne(t *testing.T) {
	tr, svc, _ := loggedIn(t)
	a := svc.AddTask("A")
	b := svc.AddTask("B")
	c := svc.AddTask("C")
	if err := tr.FetchTasks(context.Background()); err != nil {
		t.Fatal(err)
	}
	svc.ResetCalls()

	if err := tr.DeleteTask(context.Background(), b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	tasks := tr.Tasks()
	if len(tasks) != 2 || tasks[0].ID != a.ID || tasks[1].ID != c.ID {
		t.Errorf("expected [A C], got %+v", tasks)
	}
	if !equalOps(ops(svc.Calls()), "DeleteTask") {
		t.Errorf("expected no refetch, got %v", ops(svc.Calls()))
	}
}

func TestDeleteTask_FailureLeavesState(t *testing.T) {
	tr, svc, _ := loggedIn(t)
	task := svc.AddTask("Keep")
	if err := tr.FetchTasks(context.Background()); err != nil {
		t.Fatal(err)
	}
	svc.DeleteTaskErr = service.NewError(service.CodeServerError, "server error")

	if err := tr.DeleteTask(context.Background(), task.ID); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := tr.Task(task.ID); !ok {
		t.Error("expected task kept after failed delete")
	}
}

func TestUpdateTask(t *testing.T) {
	tr, svc, _ := loggedIn(t)
	task := svc.AddTask("Draft")
	if err := tr.FetchTasks(context.Background()); err != nil {
		t.Fatal(err)
	}
	svc.ResetCalls()

	title := "Final"
	desc := "ship it"
	if err := tr.UpdateTask(context.Background(), task.ID, service.TaskPatch{Title: &title, Description: &desc}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := tr.Task(task.ID)
	if got.Title != "Final" || got.Description == nil || *got.Description != "ship it" || got.UpdatedAt == nil {
		t.Errorf("unexpected task after update: %+v", got)
	}
	if !equalOps(ops(svc.Calls()), "UpdateTask", "ListTasks") {
		t.Errorf("expected update then fetch, got %v", ops(svc.Calls()))
	}

	svc.ResetCalls()
	if err := tr.UpdateTask(context.Background(), 999, service.TaskPatch{Title: &title}); err != nil {
		t.Errorf("expected unknown id to be ignored, got %v", err)
	}
	if err := tr.UpdateTask(context.Background(), task.ID, service.TaskPatch{}); err != nil {
		t.Errorf("expected empty patch to be ignored, got %v", err)
	}
	if n := len(svc.Calls()); n != 0 {
		t.Errorf("expected no requests, got %v", ops(svc.Calls()))
	}
}

func TestRegister(t *testing.T) {
	tr, svc, store := newTracker(t)

	if err := tr.Register(context.Background(), "Bo", "bo@x.io", "hunter22"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if !equalOps(ops(svc.Calls()), "CreateUser", "CreateSession", "ListTasks") {
		t.Errorf("unexpected request sequence %v", ops(svc.Calls()))
	}
	sess, ok := tr.Session()
	if !ok || sess.Name != "Bo" || sess.Token != "T-bo@x.io" {
		t.Errorf("unexpected session %+v", sess)
	}
	if stored, _ := store.Stored(); stored != sess {
		t.Errorf("expected stored %+v, got %+v", sess, stored)
	}
	if last, _ := svc.LastCall(); last.Bearer != sess.Token {
		t.Errorf("expected fetch with new bearer, got %q", last.Bearer)
	}
}

func TestRegister_LoginResponseIsAuthoritative(t *testing.T) {
	tr, svc, _ := newTracker(t)
	svc.OmitLoginIdentity = true

	if err := tr.Register(context.Background(), "Bo", "bo@x.io", "hunter22"); err != nil {
		t.Fatalf("register: %v", err)
	}
	sess, _ := tr.Session()
	if sess.ID != 101 || sess.Name != "Bo" {
		t.Errorf("expected account id and name as fallback, got %+v", sess)
	}
}

func TestRegister_Failures(t *testing.T) {
	t.Run("create user", func(t *testing.T) {
		tr, svc, store := newTracker(t)
		svc.CreateUserErr = service.NewError(service.CodeValidationRejected, "email already registered")

		err := tr.Register(context.Background(), "Ana", "a@b.com", "secret1")
		if service.Message(err) != "email already registered" {
			t.Errorf("expected specific message, got %v", err)
		}
		if svc.CallCount("CreateSession") != 0 {
			t.Error("expected no login after failed registration")
		}
		if tr.Authenticated() || store.Saves != 0 {
			t.Error("expected no state change")
		}
	})

	t.Run("login", func(t *testing.T) {
		tr, svc, store := newTracker(t)
		svc.CreateSessionErr = service.NewError(service.CodeServerError, "server error")

		err := tr.Register(context.Background(), "Bo", "bo@x.io", "hunter22")
		if !service.IsCode(err, service.CodeServerError) {
			t.Errorf("expected server error, got %v", err)
		}
		if tr.Authenticated() || store.Saves != 0 {
			t.Error("expected no state change")
		}
	})

	t.Run("empty fields", func(t *testing.T) {
		tr, svc, _ := newTracker(t)
		err := tr.Register(context.Background(), "", "bo@x.io", "hunter22")
		if !service.IsCode(err, service.CodeValidationRejected) {
			t.Errorf("expected validation error, got %v", err)
		}
		if n := len(svc.Calls()); n != 0 {
			t.Errorf("expected no requests, got %d", n)
		}
	})
}

func TestTaskOperations_RequireSession(t *testing.T) {
	tr, svc, _ := newTracker(t)
	ctx := context.Background()

	checks := map[string]error{
		"fetch":  tr.FetchTasks(ctx),
		"create": tr.CreateTask(ctx, "x", nil),
		"toggle": tr.ToggleTask(ctx, 1),
		"delete": tr.DeleteTask(ctx, 1),
		"update": tr.UpdateTask(ctx, 1, service.TaskPatch{}),
	}
	for name, err := range checks {
		if !errors.Is(err, tracker.ErrNoSession) {
			t.Errorf("%s: expected ErrNoSession, got %v", name, err)
		}
	}
	if n := len(svc.Calls()); n != 0 {
		t.Errorf("expected no requests, got %d", n)
	}
}

func TestSubscribe(t *testing.T) {
	tr, svc, _ := newTracker(t)
	svc.AddTask("Seen")

	var mu sync.Mutex
	var snaps []tracker.Snapshot
	cancel := tr.Subscribe(func(s tracker.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		snaps = append(snaps, s)
	})

	ctx := context.Background()
	if err := tr.Login(ctx, "a@b.com", "secret1"); err != nil {
		t.Fatal(err)
	}
	if err := tr.FetchTasks(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	if err := tr.Logout(ctx); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(snaps) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(snaps))
	}
	if snaps[0].Session == nil || snaps[0].Session.Name != "Ana" || len(snaps[0].Tasks) != 0 {
		t.Errorf("unexpected login snapshot %+v", snaps[0])
	}
	if len(snaps[1].Tasks) != 1 || snaps[1].Tasks[0].Title != "Seen" {
		t.Errorf("unexpected fetch snapshot %+v", snaps[1])
	}

	// Snapshots are copies.
	snaps[1].Tasks[0].Title = "mutated"
	if tasks := tr.Tasks(); len(tasks) != 0 {
		t.Errorf("expected empty list after logout, got %+v", tasks)
	}
}
