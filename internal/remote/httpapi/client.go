// Package httpapi is the REST strategy of remote.Client.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"notekeeper/internal/apperr"
	"notekeeper/internal/model"
	"notekeeper/internal/remote"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var _ remote.Client = (*Client)(nil)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second
	Burst     int
	Logger    *zap.Logger
}

// Client talks to the notekeeper REST API with a bearer token.
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *zap.Logger

	mu    sync.RWMutex
	token string
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 10
	}
	if opts.Burst <= 0 {
		opts.Burst = 5
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(opts.RateLimit), opts.Burst),
		log:        opts.Logger,
	}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// do sends a JSON request and decodes the JSON answer into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrapf(apperr.ErrNetwork, "%s %s: %v", method, path, err)
	}

	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshal request body")
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return errors.Wrapf(apperr.ErrNetwork, "%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	return decodeResponse(resp, method, path, out)
}

// decodeResponse maps error statuses to apperr kinds and decodes 2xx bodies.
func decodeResponse(resp *http.Response, method, path string, out any) error {
	if kind := apperr.FromStatus(resp.StatusCode); kind != nil {
		var body struct {
			Error string `json:"error"`
			Field string `json:"field"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &body) != nil || body.Error == "" {
			body.Error = strings.TrimSpace(string(raw))
		}
		if errors.Is(kind, apperr.ErrValidation) && body.Field != "" {
			msg := strings.TrimPrefix(body.Error, body.Field+": ")
			return &apperr.FieldError{Field: body.Field, Message: msg}
		}
		return errors.Wrapf(kind, "%s %s: status %d: %s", method, path, resp.StatusCode, body.Error)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(apperr.ErrNetwork, "%s %s: decode response: %v", method, path, err)
	}
	return nil
}

func idPath(prefix, id string) string {
	return prefix + "/" + url.PathEscape(id)
}

// Notes

func (c *Client) ListNotes(ctx context.Context) ([]model.Note, error) {
	var notes []model.Note
	if err := c.do(ctx, http.MethodGet, "/api/notes", nil, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (c *Client) ListTrash(ctx context.Context) ([]model.Note, error) {
	var notes []model.Note
	if err := c.do(ctx, http.MethodGet, "/api/notes?trash=true", nil, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (c *Client) SearchNotes(ctx context.Context, q string) ([]model.Note, error) {
	var notes []model.Note
	path := "/api/notes/search?" + url.Values{"q": {q}}.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (c *Client) CreateNote(ctx context.Context, draft model.NoteDraft) (model.Note, error) {
	var n model.Note
	err := c.do(ctx, http.MethodPost, "/api/notes", draft, &n)
	return n, err
}

func (c *Client) UpdateNote(ctx context.Context, id string, patch model.NotePatch) (model.Note, error) {
	var n model.Note
	err := c.do(ctx, http.MethodPut, idPath("/api/notes", id), patch, &n)
	return n, err
}

func (c *Client) DeleteNote(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, idPath("/api/notes", id), nil, nil)
}

// Tasks

func (c *Client) ListTasks(ctx context.Context, day model.Day) ([]model.DailyTask, error) {
	var tasks []model.DailyTask
	path := "/api/tasks?" + url.Values{"date": {day.String()}}.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) CreateTask(ctx context.Context, draft model.TaskDraft) (model.DailyTask, error) {
	var t model.DailyTask
	err := c.do(ctx, http.MethodPost, "/api/tasks", draft, &t)
	return t, err
}

func (c *Client) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (model.DailyTask, error) {
	var t model.DailyTask
	err := c.do(ctx, http.MethodPut, idPath("/api/tasks", id), patch, &t)
	return t, err
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, idPath("/api/tasks", id), nil, nil)
}

// Events

func (c *Client) ListEvents(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	if err := c.do(ctx, http.MethodGet, "/api/events", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *Client) CreateEvent(ctx context.Context, draft model.EventDraft) (model.Event, error) {
	var e model.Event
	err := c.do(ctx, http.MethodPost, "/api/events", draft, &e)
	return e, err
}

func (c *Client) UpdateEvent(ctx context.Context, id string, draft model.EventDraft) (model.Event, error) {
	var e model.Event
	err := c.do(ctx, http.MethodPut, idPath("/api/events", id), draft, &e)
	return e, err
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, idPath("/api/events", id), nil, nil)
}

// Auth

func (c *Client) Login(ctx context.Context, creds model.Credentials) (model.AuthResult, error) {
	var res model.AuthResult
	err := c.do(ctx, http.MethodPost, "/api/auth/login", creds, &res)
	return res, err
}

func (c *Client) Register(ctx context.Context, reg model.Registration) (model.AuthResult, error) {
	var res model.AuthResult
	err := c.do(ctx, http.MethodPost, "/api/auth/register", reg, &res)
	return res, err
}

func (c *Client) Me(ctx context.Context) (model.User, error) {
	var u model.User
	err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &u)
	return u, err
}
