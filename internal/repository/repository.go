package repository

import (
	"context"

	"notekeeper/internal/model"
)

// Repository groups the per-entity stores of the backend.
// Every method is scoped to the owner's email.
type Repository interface {
	Users() UserRepository
	Notes() NoteRepository
	Tasks() TaskRepository
	Events() EventRepository
	Close() error
}

// Checkpointer is implemented by repositories that keep recent writes
// outside their main file until a checkpoint.
type Checkpointer interface {
	Checkpoint(ctx context.Context) error
}

// UserRepository stores accounts.
type UserRepository interface {
	// Create inserts a user; a duplicate email yields apperr.ErrConflict.
	Create(ctx context.Context, user model.User, passwordHash string) (model.User, error)
	// GetByEmail returns the user and its password hash.
	GetByEmail(ctx context.Context, email string) (model.User, string, error)
}

// NoteRepository stores notes, active and trashed.
type NoteRepository interface {
	// List returns the owner's notes with the given trash state, newest first.
	List(ctx context.Context, owner string, trashed bool) ([]model.Note, error)
	// Search matches active notes whose title or content contains q, case-insensitively.
	Search(ctx context.Context, owner, q string) ([]model.Note, error)
	Get(ctx context.Context, owner, id string) (model.Note, error)
	// Create assigns the id and stores the note as given.
	Create(ctx context.Context, note model.Note) (model.Note, error)
	// Update replaces an existing note.
	Update(ctx context.Context, note model.Note) (model.Note, error)
	Delete(ctx context.Context, owner, id string) error
}

// TaskRepository stores daily tasks.
type TaskRepository interface {
	// List returns the owner's tasks for day in creation order.
	List(ctx context.Context, owner string, day model.Day) ([]model.DailyTask, error)
	Get(ctx context.Context, owner, id string) (model.DailyTask, error)
	Create(ctx context.Context, task model.DailyTask) (model.DailyTask, error)
	Update(ctx context.Context, task model.DailyTask) (model.DailyTask, error)
	Delete(ctx context.Context, owner, id string) error
}

// EventRepository stores calendar events.
type EventRepository interface {
	// List returns the owner's events ordered by start time.
	List(ctx context.Context, owner string) ([]model.Event, error)
	Get(ctx context.Context, owner, id string) (model.Event, error)
	Create(ctx context.Context, event model.Event) (model.Event, error)
	Update(ctx context.Context, event model.Event) (model.Event, error)
	Delete(ctx context.Context, owner, id string) error
}
