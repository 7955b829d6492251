package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"notekeeper/internal/apperr"
	"notekeeper/internal/model"
	"notekeeper/internal/repository"

	"github.com/google/uuid"
)

var _ repository.Repository = (*repo)(nil)

// table keeps records of one kind in insertion order.
type table[T any] struct {
	mu    sync.RWMutex
	rows  map[string]T
	order []string
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]T)}
}

func (t *table[T]) insert(id string, v T) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rows[id] = v
	t.order = append(t.order, id)
}

func (t *table[T]) get(id string) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	v, ok := t.rows[id]
	return v, ok
}

func (t *table[T]) replace(id string, v T) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[id]; !ok {
		return false
	}
	t.rows[id] = v
	return true
}

func (t *table[T]) remove(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	for i, oid := range t.order {
		if oid == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// filter returns matching rows in insertion order.
func (t *table[T]) filter(keep func(T) bool) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]T, 0)
	for _, id := range t.order {
		if v := t.rows[id]; keep(v) {
			out = append(out, v)
		}
	}
	return out
}

type account struct {
	user model.User
	hash string
}

type repo struct {
	users  *table[account]
	notes  *table[model.Note]
	tasks  *table[model.DailyTask]
	events *table[model.Event]
}

// NewRepository creates a map-based repository. Ids are random UUIDs.
func NewRepository() repository.Repository {
	return &repo{
		users:  newTable[account](),
		notes:  newTable[model.Note](),
		tasks:  newTable[model.DailyTask](),
		events: newTable[model.Event](),
	}
}

func (r *repo) Users() repository.UserRepository   { return (*userRepo)(r) }
func (r *repo) Notes() repository.NoteRepository   { return (*noteRepo)(r) }
func (r *repo) Tasks() repository.TaskRepository   { return (*taskRepo)(r) }
func (r *repo) Events() repository.EventRepository { return (*eventRepo)(r) }
func (r *repo) Close() error                       { return nil }

type userRepo repo

func (r *userRepo) Create(ctx context.Context, user model.User, passwordHash string) (model.User, error) {
	key := strings.ToLower(user.Email)
	if _, exists := r.users.get(key); exists {
		return model.User{}, apperr.Conflict("email %s already registered", user.Email)
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	r.users.insert(key, account{user: user, hash: passwordHash})
	return user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (model.User, string, error) {
	a, ok := r.users.get(strings.ToLower(email))
	if !ok {
		return model.User{}, "", apperr.NotFound("user", email)
	}
	return a.user, a.hash, nil
}

type noteRepo repo

func (r *noteRepo) List(ctx context.Context, owner string, trashed bool) ([]model.Note, error) {
	notes := r.notes.filter(func(n model.Note) bool {
		return n.OwnerEmail == owner && n.Deleted == trashed
	})
	reverse(notes)
	return notes, nil
}

func (r *noteRepo) Search(ctx context.Context, owner, q string) ([]model.Note, error) {
	q = strings.ToLower(q)
	notes := r.notes.filter(func(n model.Note) bool {
		if n.OwnerEmail != owner || n.Deleted {
			return false
		}
		return strings.Contains(strings.ToLower(n.Title), q) ||
			strings.Contains(strings.ToLower(n.Content), q)
	})
	reverse(notes)
	return notes, nil
}

func (r *noteRepo) Get(ctx context.Context, owner, id string) (model.Note, error) {
	n, ok := r.notes.get(id)
	if !ok || n.OwnerEmail != owner {
		return model.Note{}, apperr.NotFound("note", id)
	}
	return n, nil
}

func (r *noteRepo) Create(ctx context.Context, note model.Note) (model.Note, error) {
	if note.ID == "" {
		note.ID = uuid.New().String()
	}
	r.notes.insert(note.ID, note)
	return note, nil
}

func (r *noteRepo) Update(ctx context.Context, note model.Note) (model.Note, error) {
	if _, err := r.Get(ctx, note.OwnerEmail, note.ID); err != nil {
		return model.Note{}, err
	}
	r.notes.replace(note.ID, note)
	return note, nil
}

func (r *noteRepo) Delete(ctx context.Context, owner, id string) error {
	if _, err := r.Get(ctx, owner, id); err != nil {
		return err
	}
	r.notes.remove(id)
	return nil
}

type taskRepo repo

func (r *taskRepo) List(ctx context.Context, owner string, day model.Day) ([]model.DailyTask, error) {
	return r.tasks.filter(func(t model.DailyTask) bool {
		return t.OwnerEmail == owner && t.Date == day
	}), nil
}

func (r *taskRepo) Get(ctx context.Context, owner, id string) (model.DailyTask, error) {
	t, ok := r.tasks.get(id)
	if !ok || t.OwnerEmail != owner {
		return model.DailyTask{}, apperr.NotFound("task", id)
	}
	return t, nil
}

func (r *taskRepo) Create(ctx context.Context, task model.DailyTask) (model.DailyTask, error) {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	r.tasks.insert(task.ID, task)
	return task, nil
}

func (r *taskRepo) Update(ctx context.Context, task model.DailyTask) (model.DailyTask, error) {
	if _, err := r.Get(ctx, task.OwnerEmail, task.ID); err != nil {
		return model.DailyTask{}, err
	}
	r.tasks.replace(task.ID, task)
	return task, nil
}

func (r *taskRepo) Delete(ctx context.Context, owner, id string) error {
	if _, err := r.Get(ctx, owner, id); err != nil {
		return err
	}
	r.tasks.remove(id)
	return nil
}

type eventRepo repo

func (r *eventRepo) List(ctx context.Context, owner string) ([]model.Event, error) {
	events := r.events.filter(func(e model.Event) bool { return e.OwnerEmail == owner })
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartDateTime.Before(events[j].StartDateTime)
	})
	return events, nil
}

func (r *eventRepo) Get(ctx context.Context, owner, id string) (model.Event, error) {
	e, ok := r.events.get(id)
	if !ok || e.OwnerEmail != owner {
		return model.Event{}, apperr.NotFound("event", id)
	}
	return e, nil
}

func (r *eventRepo) Create(ctx context.Context, event model.Event) (model.Event, error) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	r.events.insert(event.ID, event)
	return event, nil
}

func (r *eventRepo) Update(ctx context.Context, event model.Event) (model.Event, error) {
	if _, err := r.Get(ctx, event.OwnerEmail, event.ID); err != nil {
		return model.Event{}, err
	}
	r.events.replace(event.ID, event)
	return event, nil
}

func (r *eventRepo) Delete(ctx context.Context, owner, id string) error {
	if _, err := r.Get(ctx, owner, id); err != nil {
		return err
	}
	r.events.remove(id)
	return nil
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
