// Package devserver is an in-memory stand-in for the remote task service.
// It speaks the same JSON contract the client consumes and exists for local
// development and tests.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fasthttp/router"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"taskdeck/internal/service"
)

type user struct {
	id    int64
	name  string
	email string
	hash  []byte
}

// Server holds users, issued tokens and tasks in memory.
type Server struct {
	log  *zap.Logger
	cost int
	now  func() time.Time

	mu         sync.Mutex
	nextUserID int64
	nextTaskID int64
	users      map[string]*user           // email -> user
	tokens     map[string]int64           // token -> user id
	tasks      map[int64][]*service.Task // user id -> tasks in creation order
}

// New creates an empty server.
func New(log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		log:    log.Named("devserver"),
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
		users:  make(map[string]*user),
		tokens: make(map[string]int64),
		tasks:  make(map[int64][]*service.Task),
	}
}

// SetHashCost changes the bcrypt cost for new accounts. Tests use bcrypt.MinCost.
func (s *Server) SetHashCost(cost int) {
	s.cost = cost
}

// Handler returns the routed request handler.
func (s *Server) Handler() fasthttp.RequestHandler {
	r := router.New()

	r.POST("/session", s.createSession)
	r.POST("/users", s.createUser)

	r.GET("/task", s.authenticated(s.listTasks))
	r.POST("/task", s.authenticated(s.createTask))
	r.PUT("/task/{id}", s.authenticated(s.updateTask))
	r.DELETE("/task/{id}", s.authenticated(s.deleteTask))

	return s.logRequests(r.Handler)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &fasthttp.Server{
		Handler: s.Handler(),
		Name:    "taskdeck-devserver",
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		return srv.Shutdown()
	case err := <-errCh:
		return err
	}
}

// AddUser creates an account directly, bypassing HTTP.
func (s *Server) AddUser(name, email, password string) (service.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return service.Account{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(strings.TrimSpace(email))
	if _, exists := s.users[key]; exists {
		return service.Account{}, errEmailTaken
	}
	s.nextUserID++
	u := &user{id: s.nextUserID, name: name, email: email, hash: hash}
	s.users[key] = u
	return service.Account{ID: u.id, Name: u.name, Email: u.email}, nil
}

var errEmailTaken = errors.New("email already registered")

type fieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func respondJSON(ctx *fasthttp.RequestCtx, status int, payload any) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func respondMessage(ctx *fasthttp.RequestCtx, status int, message string) {
	respondJSON(ctx, status, map[string]string{"message": message})
}

func respondFieldErrors(ctx *fasthttp.RequestCtx, errs ...fieldError) {
	respondJSON(ctx, fasthttp.StatusUnprocessableEntity, map[string][]fieldError{"errors": errs})
}

func (s *Server) logRequests(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		next(ctx)
		s.log.Debug("request",
			zap.ByteString("method", ctx.Method()),
			zap.ByteString("path", ctx.Path()),
			zap.ByteString("request_id", ctx.Request.Header.Peek("X-Request-ID")),
			zap.Int("status", ctx.Response.StatusCode()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

type userIDKey struct{}

// authenticated resolves the bearer token to a user id before calling next.
func (s *Server) authenticated(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		header := string(ctx.Request.Header.Peek("Authorization"))
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondMessage(ctx, fasthttp.StatusUnauthorized, "Unauthorized access")
			return
		}
		s.mu.Lock()
		id, found := s.tokens[token]
		s.mu.Unlock()
		if !found {
			respondMessage(ctx, fasthttp.StatusUnauthorized, "Unauthorized access")
			return
		}
		ctx.SetUserValue(userIDKey{}, id)
		next(ctx)
	}
}

func currentUser(ctx *fasthttp.RequestCtx) int64 {
	id, _ := ctx.UserValue(userIDKey{}).(int64)
	return id
}

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) createSession(ctx *fasthttp.RequestCtx) {
	var in credentials
	if err := json.Unmarshal(ctx.PostBody(), &in); err != nil {
		respondMessage(ctx, fasthttp.StatusBadRequest, "malformed request body")
		return
	}

	s.mu.Lock()
	u := s.users[strings.ToLower(strings.TrimSpace(in.Email))]
	s.mu.Unlock()
	if u == nil || bcrypt.CompareHashAndPassword(u.hash, []byte(in.Password)) != nil {
		respondMessage(ctx, fasthttp.StatusUnauthorized, "Invalid user credentials")
		return
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = u.id
	s.mu.Unlock()

	type tokenBody struct {
		Type  string `json:"type"`
		Token string `json:"token"`
	}
	type userBody struct {
		ID    int64     `json:"id"`
		Name  string    `json:"name"`
		Email string    `json:"email"`
		Token tokenBody `json:"token"`
	}
	respondJSON(ctx, fasthttp.StatusOK, map[string]userBody{
		"user": {ID: u.id, Name: u.name, Email: u.email, Token: tokenBody{Type: "bearer", Token: token}},
	})
}

func (s *Server) createUser(ctx *fasthttp.RequestCtx) {
	var in credentials
	if err := json.Unmarshal(ctx.PostBody(), &in); err != nil {
		respondMessage(ctx, fasthttp.StatusBadRequest, "malformed request body")
		return
	}

	var errs []fieldError
	if strings.TrimSpace(in.Name) == "" {
		errs = append(errs, fieldError{Field: "name", Message: "name is required"})
	}
	if strings.TrimSpace(in.Email) == "" {
		errs = append(errs, fieldError{Field: "email", Message: "email is required"})
	}
	if in.Password == "" {
		errs = append(errs, fieldError{Field: "password", Message: "password is required"})
	}
	if len(errs) > 0 {
		respondFieldErrors(ctx, errs...)
		return
	}

	acct, err := s.AddUser(in.Name, in.Email, in.Password)
	if errors.Is(err, errEmailTaken) {
		respondFieldErrors(ctx, fieldError{Field: "email", Message: err.Error()})
		return
	}
	if err != nil {
		s.log.Error("create user", zap.Error(err))
		respondMessage(ctx, fasthttp.StatusInternalServerError, "could not create user")
		return
	}
	respondJSON(ctx, fasthttp.StatusCreated, acct)
}

func (s *Server) listTasks(ctx *fasthttp.RequestCtx) {
	uid := currentUser(ctx)

	s.mu.Lock()
	out := make([]service.Task, 0, len(s.tasks[uid]))
	for _, t := range s.tasks[uid] {
		out = append(out, *t)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	respondJSON(ctx, fasthttp.StatusOK, out)
}

type taskInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Done        *bool   `json:"done"`
}

func (s *Server) createTask(ctx *fasthttp.RequestCtx) {
	var in taskInput
	if err := json.Unmarshal(ctx.PostBody(), &in); err != nil {
		respondMessage(ctx, fasthttp.StatusBadRequest, "malformed request body")
		return
	}
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		respondFieldErrors(ctx, fieldError{Field: "title", Message: "title is required"})
		return
	}

	uid := currentUser(ctx)
	s.mu.Lock()
	s.nextTaskID++
	t := &service.Task{
		ID:          s.nextTaskID,
		Title:       *in.Title,
		Description: in.Description,
		CreatedAt:   s.now().UTC(),
	}
	s.tasks[uid] = append(s.tasks[uid], t)
	created := *t
	s.mu.Unlock()

	respondJSON(ctx, fasthttp.StatusCreated, created)
}

func (s *Server) updateTask(ctx *fasthttp.RequestCtx) {
	id, ok := taskID(ctx)
	if !ok {
		respondMessage(ctx, fasthttp.StatusNotFound, "task not found")
		return
	}
	var in taskInput
	if err := json.Unmarshal(ctx.PostBody(), &in); err != nil {
		respondMessage(ctx, fasthttp.StatusBadRequest, "malformed request body")
		return
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		respondFieldErrors(ctx, fieldError{Field: "title", Message: "title is required"})
		return
	}

	uid := currentUser(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks[uid] {
		if t.ID != id {
			continue
		}
		if in.Title != nil {
			t.Title = *in.Title
		}
		if in.Description != nil {
			t.Description = in.Description
		}
		if in.Done != nil {
			t.Done = *in.Done
		}
		now := s.now().UTC()
		t.UpdatedAt = &now
		respondJSON(ctx, fasthttp.StatusOK, *t)
		return
	}
	respondMessage(ctx, fasthttp.StatusNotFound, "task not found")
}

func (s *Server) deleteTask(ctx *fasthttp.RequestCtx) {
	id, ok := taskID(ctx)
	if !ok {
		respondMessage(ctx, fasthttp.StatusNotFound, "task not found")
		return
	}

	uid := currentUser(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := s.tasks[uid]
	for i, t := range tasks {
		if t.ID == id {
			s.tasks[uid] = append(tasks[:i], tasks[i+1:]...)
			ctx.SetStatusCode(fasthttp.StatusNoContent)
			return
		}
	}
	respondMessage(ctx, fasthttp.StatusNotFound, "task not found")
}

func taskID(ctx *fasthttp.RequestCtx) (int64, bool) {
	raw, _ := ctx.UserValue("id").(string)
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil
}
