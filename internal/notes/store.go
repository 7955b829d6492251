// Package notes holds the client-side note collection: the store reconciled
// with the backend, the trash lifecycle on top of it and the outline tree
// derived from it.
package notes

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"notekeeper/internal/apperr"
	"notekeeper/internal/kvstore"
	"notekeeper/internal/model"
	"notekeeper/internal/remote"

	"go.uber.org/zap"
)

// Snapshots persists the last known good collection.
type Snapshots interface {
	Get(key string, v any) error
	Set(key string, v any) error
}

// Store is the session's collection of active and trashed notes. Every
// mutation goes to the backend first and is applied locally from the
// backend's answer. It is safe for concurrent use.
type Store struct {
	remote remote.Notes
	snap   Snapshots
	policy OrphanPolicy
	log    *zap.Logger

	mu    sync.RWMutex
	order []string // newest first, active and trashed together
	byID  map[string]model.Note
	// intent counts local mutations per note so a late response cannot
	// overwrite a newer intent.
	intent map[string]uint64
	// fields records, per note, the intent that last touched each field.
	fields map[string]fieldIntent

	changes *broadcaster
}

type fieldIntent struct {
	title, content, deleted uint64
}

// NewStore creates an empty store. snap may be nil.
func NewStore(r remote.Notes, snap Snapshots, policy OrphanPolicy, log *zap.Logger) *Store {
	return &Store{
		remote:  r,
		snap:    snap,
		policy:  policy,
		log:     log,
		byID:    make(map[string]model.Note),
		intent:  make(map[string]uint64),
		fields:  make(map[string]fieldIntent),
		changes: newBroadcaster(),
	}
}

// Load restores the last snapshot. A missing snapshot leaves the store empty.
func (s *Store) Load() error {
	if s.snap == nil {
		return nil
	}
	var notes []model.Note
	if err := s.snap.Get(kvstore.KeyNotes, &notes); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil
		}
		return err
	}

	s.mu.Lock()
	s.replace(notes)
	s.mu.Unlock()
	s.changes.publish(Change{Kind: Refreshed})
	return nil
}

// Refresh replaces the collection with the backend's. On failure the
// local state is kept.
func (s *Store) Refresh(ctx context.Context) error {
	active, err := s.remote.ListNotes(ctx)
	if err != nil {
		return err
	}
	trashed, err := s.remote.ListTrash(ctx)
	if err != nil {
		return err
	}

	all := make([]model.Note, 0, len(active)+len(trashed))
	for _, n := range active {
		n.Deleted = false
		all = append(all, n)
	}
	for _, n := range trashed {
		n.Deleted = true
		all = append(all, n)
	}

	s.mu.Lock()
	s.replace(all)
	s.saveLocked()
	s.mu.Unlock()

	s.log.Debug("notes refreshed", zap.Int("active", len(active)), zap.Int("trashed", len(trashed)))
	s.changes.publish(Change{Kind: Refreshed})
	return nil
}

func (s *Store) replace(notes []model.Note) {
	s.order = make([]string, 0, len(notes))
	s.byID = make(map[string]model.Note, len(notes))
	for _, n := range notes {
		if _, dup := s.byID[n.ID]; dup {
			continue
		}
		s.order = append(s.order, n.ID)
		s.byID[n.ID] = n
	}
}

// Get returns a note, active or trashed.
func (s *Store) Get(id string) (model.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.byID[id]
	if !ok {
		return model.Note{}, apperr.NotFound("note", id)
	}
	return n, nil
}

// Active returns the active notes, newest first.
func (s *Store) Active() []model.Note {
	return s.filter(func(n model.Note) bool { return !n.Deleted })
}

// Trashed returns the trashed notes in collection order.
func (s *Store) Trashed() []model.Note {
	return s.filter(func(n model.Note) bool { return n.Deleted })
}

func (s *Store) filter(keep func(model.Note) bool) []model.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Note, 0, len(s.order))
	for _, id := range s.order {
		if n := s.byID[id]; keep(n) {
			out = append(out, n)
		}
	}
	return out
}

// Tree builds the outline of the active notes.
func (s *Store) Tree() []*Node {
	return BuildTree(s.Active(), s.policy)
}

// Search asks the backend for active notes containing q and falls back to
// the local collection when the backend is unreachable. A blank q matches
// nothing.
func (s *Store) Search(ctx context.Context, q string) ([]model.Note, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []model.Note{}, nil
	}
	found, err := s.remote.SearchNotes(ctx, q)
	if errors.Is(err, apperr.ErrNetwork) {
		s.log.Warn("remote search failed, searching locally", zap.Error(err))
		return match(s.Active(), q), nil
	}
	return found, err
}

// match keeps the notes whose title or content contains q, ignoring case.
func match(notes []model.Note, q string) []model.Note {
	q = strings.ToLower(q)
	out := make([]model.Note, 0)
	for _, n := range notes {
		if strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Content), q) {
			out = append(out, n)
		}
	}
	return out
}

// Create validates draft, waits for the backend to assign an id and puts
// the note at the front of the collection.
func (s *Store) Create(ctx context.Context, draft model.NoteDraft) (model.Note, error) {
	if err := draft.Validate(); err != nil {
		return model.Note{}, err
	}
	if draft.ParentID != nil {
		parent, err := s.Get(*draft.ParentID)
		if err != nil || parent.Deleted {
			return model.Note{}, apperr.Validation("parent_id", "does not reference an active note")
		}
	}

	n, err := s.remote.CreateNote(ctx, draft)
	if err != nil {
		return model.Note{}, err
	}

	s.mu.Lock()
	if _, exists := s.byID[n.ID]; !exists {
		s.order = append([]string{n.ID}, s.order...)
	}
	s.byID[n.ID] = n
	s.saveLocked()
	s.mu.Unlock()

	s.changes.publish(Change{Kind: Created, Note: n})
	return n, nil
}

// Update sends patch to the backend and stores the answer.
//
// If the note was permanently deleted while the request was in flight the
// answer is discarded and ErrConflict returned. If the note was trashed or
// restored meanwhile, the local trash state is kept.
func (s *Store) Update(ctx context.Context, id string, patch model.NotePatch) (model.Note, error) {
	if err := patch.Validate(); err != nil {
		return model.Note{}, err
	}
	if patch.IsEmpty() {
		return s.Get(id)
	}
	if _, err := s.Get(id); err != nil {
		return model.Note{}, err
	}

	seq := s.claim(id, patch)
	resp, err := s.remote.UpdateNote(ctx, id, patch)
	if err != nil {
		return model.Note{}, err
	}

	s.mu.Lock()
	local, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		s.log.Debug("dropping update of deleted note", zap.String("id", id))
		return model.Note{}, apperr.Conflict("note %s was deleted during update", id)
	}

	var merged model.Note
	if s.intent[id] == seq {
		merged = resp
	} else {
		// newer intents own the fields they touched
		merged = local
		owned := s.fields[id]
		if patch.Title != nil && owned.title == seq {
			merged.Title = resp.Title
		}
		if patch.Content != nil && owned.content == seq {
			merged.Content = resp.Content
		}
		if patch.Deleted != nil && owned.deleted == seq {
			merged.Deleted = resp.Deleted
		}
	}
	merged.LastModified = monotonic(local.LastModified, resp.LastModified)
	s.byID[id] = merged
	s.saveLocked()
	s.mu.Unlock()

	kind := Updated
	switch {
	case !local.Deleted && merged.Deleted:
		kind = Trashed
	case local.Deleted && !merged.Deleted:
		kind = Restored
	}
	s.changes.publish(Change{Kind: kind, Note: merged})
	return merged, nil
}

// remove deletes a note from the backend and the collection. A backend
// NotFound counts as done.
func (s *Store) remove(ctx context.Context, id string) error {
	n, err := s.Get(id)
	if err != nil {
		return err
	}

	s.bump(id)
	if err := s.remote.DeleteNote(ctx, id); err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		s.log.Debug("note already gone remotely", zap.String("id", id))
	}

	s.mu.Lock()
	delete(s.byID, id)
	delete(s.intent, id)
	delete(s.fields, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.saveLocked()
	s.mu.Unlock()

	s.changes.publish(Change{Kind: Deleted, Note: n})
	return nil
}

func (s *Store) bump(id string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intent[id]++
	return s.intent[id]
}

// claim registers an update intent and the fields it touches.
func (s *Store) claim(id string, patch model.NotePatch) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intent[id]++
	seq := s.intent[id]
	f := s.fields[id]
	if patch.Title != nil {
		f.title = seq
	}
	if patch.Content != nil {
		f.content = seq
	}
	if patch.Deleted != nil {
		f.deleted = seq
	}
	s.fields[id] = f
	return seq
}

// Subscribe returns a channel of changes and a function that closes it.
func (s *Store) Subscribe() (<-chan Change, func()) {
	ch := s.changes.subscribe()
	return ch, func() { s.changes.unsubscribe(ch) }
}

// saveLocked snapshots the collection. Failures only cost the offline copy.
func (s *Store) saveLocked() {
	if s.snap == nil {
		return
	}
	notes := make([]model.Note, 0, len(s.order))
	for _, id := range s.order {
		notes = append(notes, s.byID[id])
	}
	if err := s.snap.Set(kvstore.KeyNotes, notes); err != nil {
		s.log.Warn("failed to snapshot notes", zap.Error(err))
	}
}

// monotonic returns next, or a moment after prev when next does not advance.
func monotonic(prev, next time.Time) time.Time {
	if next.After(prev) {
		return next
	}
	return prev.Add(time.Millisecond)
}
