// Package remote defines the backend collaborator the client core talks to.
//
// Two strategies implement Client: httpapi speaks REST to a notekeeper
// server, local runs the same business logic in process for offline demos
// and tests. Errors carry the kinds of package apperr.
package remote

import (
	"context"

	"notekeeper/internal/model"
)

// Notes covers active and trashed notes. Soft delete and restore are
// UpdateNote calls that set the deleted flag.
type Notes interface {
	ListNotes(ctx context.Context) ([]model.Note, error)
	ListTrash(ctx context.Context) ([]model.Note, error)
	SearchNotes(ctx context.Context, q string) ([]model.Note, error)
	CreateNote(ctx context.Context, draft model.NoteDraft) (model.Note, error)
	UpdateNote(ctx context.Context, id string, patch model.NotePatch) (model.Note, error)
	DeleteNote(ctx context.Context, id string) error
}

type Tasks interface {
	ListTasks(ctx context.Context, day model.Day) ([]model.DailyTask, error)
	CreateTask(ctx context.Context, draft model.TaskDraft) (model.DailyTask, error)
	UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (model.DailyTask, error)
	DeleteTask(ctx context.Context, id string) error
}

type Events interface {
	// ListEvents returns every event of the account ordered by start time.
	ListEvents(ctx context.Context) ([]model.Event, error)
	CreateEvent(ctx context.Context, draft model.EventDraft) (model.Event, error)
	UpdateEvent(ctx context.Context, id string, draft model.EventDraft) (model.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

type Auth interface {
	Login(ctx context.Context, creds model.Credentials) (model.AuthResult, error)
	Register(ctx context.Context, reg model.Registration) (model.AuthResult, error)
	Me(ctx context.Context) (model.User, error)
	// SetToken sets the bearer token sent with later calls; "" clears it.
	SetToken(token string)
}

// Client is everything the client core needs from the backend.
type Client interface {
	Notes
	Tasks
	Events
	Auth
}

// Mode selects a Client strategy.
type Mode string

const (
	ModeHTTP Mode = "http"
	ModeMock Mode = "mock"
)
