// Package httpapi implements service.Service over the remote task service's JSON API.
package httpapi

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"taskdeck/internal/logger"
	"taskdeck/internal/service"
)

const (
	// DefaultTimeout is used when Options.Timeout is zero.
	DefaultTimeout = 10 * time.Second

	userAgent = "taskdeck"
)

// Options configures a Client.
type Options struct {
	// BaseURL is the service root, e.g. "https://tasks.example.com".
	BaseURL string

	// Timeout bounds each request. The context deadline wins when earlier.
	Timeout time.Duration

	Logger *zap.Logger

	// Dial overrides the connection dialer (in-memory listeners in tests).
	Dial fasthttp.DialFunc
}

// Client implements service.Service using fasthttp.
// The bearer credential lives on the client; only the tracker mutates it.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *fasthttp.Client
	log     *zap.Logger

	mu    sync.RWMutex
	creds oauth2.TokenSource
}

// New creates a client for the service at opts.BaseURL.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		timeout: timeout,
		http: &fasthttp.Client{
			Name:                userAgent,
			Dial:                opts.Dial,
			MaxIdleConnDuration: 30 * time.Second,
		},
		log: log.Named("httpapi"),
	}
}

// SetCredential implements service.Service.
func (c *Client) SetCredential(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token == "" {
		c.creds = nil
		return
	}
	c.creds = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "bearer"})
}

// ClearCredential implements service.Service.
func (c *Client) ClearCredential() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds = nil
}

// Credential returns the current bearer token, or "" when none is set.
func (c *Client) Credential() string {
	if tok := c.credential(); tok.Valid() {
		return tok.AccessToken
	}
	return ""
}

// credential returns the current token, or nil when none is set.
func (c *Client) credential() *oauth2.Token {
	c.mu.RLock()
	creds := c.creds
	c.mu.RUnlock()
	if creds == nil {
		return nil
	}
	tok, err := creds.Token()
	if err != nil {
		c.log.Warn("credential unavailable", zap.Error(err))
		return nil
	}
	return tok
}

type credentialsRequest struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Token struct {
			Token string `json:"token"`
		} `json:"token"`
	} `json:"user"`
}

// CreateSession implements service.Service.
func (c *Client) CreateSession(ctx context.Context, email, password string) (service.Session, error) {
	var resp sessionResponse
	err := c.do(ctx, fasthttp.MethodPost, "/session", credentialsRequest{Email: email, Password: password}, false, &resp)
	if err != nil {
		if service.IsCode(err, service.CodeInvalidCredentials) {
			return service.Session{}, &service.Error{
				Code:    service.CodeInvalidCredentials,
				Status:  fasthttp.StatusUnauthorized,
				Message: "invalid credentials",
				Err:     err,
			}
		}
		return service.Session{}, err
	}
	return service.Session{
		ID:    resp.User.ID,
		Name:  resp.User.Name,
		Email: resp.User.Email,
		Token: resp.User.Token.Token,
	}, nil
}

// CreateUser implements service.Service.
func (c *Client) CreateUser(ctx context.Context, name, email, password string) (service.Account, error) {
	var acct service.Account
	err := c.do(ctx, fasthttp.MethodPost, "/users", credentialsRequest{Name: name, Email: email, Password: password}, false, &acct)
	if err != nil {
		return service.Account{}, err
	}
	return acct, nil
}

// ListTasks implements service.Service.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	var tasks []service.Task
	if err := c.do(ctx, fasthttp.MethodGet, "/task", nil, true, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

type createTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
}

// CreateTask implements service.Service.
func (c *Client) CreateTask(ctx context.Context, title string, description *string) error {
	return c.do(ctx, fasthttp.MethodPost, "/task", createTaskRequest{Title: title, Description: description}, true, nil)
}

// SetTaskDone implements service.Service.
func (c *Client) SetTaskDone(ctx context.Context, id int64, done bool) error {
	body := struct {
		Done bool `json:"done"`
	}{Done: done}
	return c.do(ctx, fasthttp.MethodPut, taskPath(id), body, true, nil)
}

// UpdateTask implements service.Service.
func (c *Client) UpdateTask(ctx context.Context, id int64, patch service.TaskPatch) error {
	return c.do(ctx, fasthttp.MethodPut, taskPath(id), patch, true, nil)
}

// DeleteTask implements service.Service.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, fasthttp.MethodDelete, taskPath(id), nil, true, nil)
}

func taskPath(id int64) string {
	return "/task/" + strconv.FormatInt(id, 10)
}

// do sends one request. A non-nil out is filled from a 2xx JSON body.
func (c *Client) do(ctx context.Context, method, path string, in any, auth bool, out any) error {
	reqID := uuid.NewString()
	ctx = logger.ContextWithRequestID(ctx, reqID)
	log := logger.WithRequestID(ctx, c.log).With(zap.String("method", method), zap.String("path", path))

	if err := ctx.Err(); err != nil {
		return service.WrapError(service.CodeNoConnectivity, "request cancelled", err)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	}
	if auth {
		if tok := c.credential(); tok.Valid() {
			req.Header.Set("Authorization", tok.Type()+" "+tok.AccessToken)
		}
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	start := time.Now()
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		log.Debug("request failed", zap.Error(err))
		return service.WrapError(service.CodeNoConnectivity, "no connection to server", err)
	}

	status := resp.StatusCode()
	body := append([]byte(nil), resp.Body()...)
	log.Debug("request completed", zap.Int("status", status), zap.Duration("elapsed", time.Since(start)))

	if status < 200 || status >= 300 {
		return decodeError(status, body)
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		log.Warn("undecodable response", zap.Error(err))
		return service.WrapError(service.CodeServerError, "unexpected response from server", err)
	}
	return nil
}
