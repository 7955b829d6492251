// Package local is the in-process strategy of remote.Client. It runs the
// backend services directly, scoped to the account whose token was set.
package local

import (
	"context"
	"sync"

	"notekeeper/internal/apperr"
	"notekeeper/internal/model"
	"notekeeper/internal/remote"
	"notekeeper/internal/service"
)

var _ remote.Client = (*Client)(nil)

type Client struct {
	svc *service.Services

	mu    sync.RWMutex
	owner *model.User
}

func New(svc *service.Services) *Client {
	return &Client{svc: svc}
}

// SetToken binds the client to the token's account. Invalid tokens unbind it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.owner = nil
	if token == "" {
		return
	}
	if claims, err := c.svc.Tokens.Parse(token); err == nil {
		u := claims.Owner()
		c.owner = &u
	}
}

func (c *Client) current() (model.User, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.owner == nil {
		return model.User{}, apperr.Unauthorized("not logged in")
	}
	return *c.owner, nil
}

func (c *Client) email() (string, error) {
	u, err := c.current()
	return u.Email, err
}

func (c *Client) Login(ctx context.Context, creds model.Credentials) (model.AuthResult, error) {
	return c.svc.Auth.Login(ctx, creds)
}

func (c *Client) Register(ctx context.Context, reg model.Registration) (model.AuthResult, error) {
	return c.svc.Auth.Register(ctx, reg)
}

func (c *Client) Me(ctx context.Context) (model.User, error) {
	owner, err := c.email()
	if err != nil {
		return model.User{}, err
	}
	return c.svc.Auth.Me(ctx, owner)
}

func (c *Client) ListNotes(ctx context.Context) ([]model.Note, error) {
	owner, err := c.email()
	if err != nil {
		return nil, err
	}
	return c.svc.Notes.List(ctx, owner, false)
}

func (c *Client) ListTrash(ctx context.Context) ([]model.Note, error) {
	owner, err := c.email()
	if err != nil {
		return nil, err
	}
	return c.svc.Notes.List(ctx, owner, true)
}

func (c *Client) SearchNotes(ctx context.Context, q string) ([]model.Note, error) {
	owner, err := c.email()
	if err != nil {
		return nil, err
	}
	return c.svc.Notes.Search(ctx, owner, q)
}

func (c *Client) CreateNote(ctx context.Context, draft model.NoteDraft) (model.Note, error) {
	owner, err := c.current()
	if err != nil {
		return model.Note{}, err
	}
	return c.svc.Notes.Create(ctx, owner, draft)
}

func (c *Client) UpdateNote(ctx context.Context, id string, patch model.NotePatch) (model.Note, error) {
	owner, err := c.email()
	if err != nil {
		return model.Note{}, err
	}
	return c.svc.Notes.Update(ctx, owner, id, patch)
}

func (c *Client) DeleteNote(ctx context.Context, id string) error {
	owner, err := c.email()
	if err != nil {
		return err
	}
	return c.svc.Notes.Delete(ctx, owner, id)
}

func (c *Client) ListTasks(ctx context.Context, day model.Day) ([]model.DailyTask, error) {
	owner, err := c.email()
	if err != nil {
		return nil, err
	}
	return c.svc.Tasks.List(ctx, owner, day)
}

func (c *Client) CreateTask(ctx context.Context, draft model.TaskDraft) (model.DailyTask, error) {
	owner, err := c.email()
	if err != nil {
		return model.DailyTask{}, err
	}
	return c.svc.Tasks.Create(ctx, owner, draft)
}

func (c *Client) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (model.DailyTask, error) {
	owner, err := c.email()
	if err != nil {
		return model.DailyTask{}, err
	}
	return c.svc.Tasks.Update(ctx, owner, id, patch)
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	owner, err := c.email()
	if err != nil {
		return err
	}
	return c.svc.Tasks.Delete(ctx, owner, id)
}

func (c *Client) ListEvents(ctx context.Context) ([]model.Event, error) {
	owner, err := c.email()
	if err != nil {
		return nil, err
	}
	return c.svc.Events.List(ctx, owner, "", nil)
}

func (c *Client) CreateEvent(ctx context.Context, draft model.EventDraft) (model.Event, error) {
	owner, err := c.email()
	if err != nil {
		return model.Event{}, err
	}
	return c.svc.Events.Create(ctx, owner, draft)
}

func (c *Client) UpdateEvent(ctx context.Context, id string, draft model.EventDraft) (model.Event, error) {
	owner, err := c.email()
	if err != nil {
		return model.Event{}, err
	}
	return c.svc.Events.Update(ctx, owner, id, draft)
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	owner, err := c.email()
	if err != nil {
		return err
	}
	return c.svc.Events.Delete(ctx, owner, id)
}
