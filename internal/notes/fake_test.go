package notes

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"notekeeper/internal/apperr"
	"notekeeper/internal/model"
)

// fakeRemote is a hand mock of remote.Notes with injectable failures.
type fakeRemote struct {
	mu    sync.Mutex
	notes map[string]model.Note
	order []string
	next  int
	clock time.Time

	failUpdate error
	failDelete map[string]error
	failList   error
	failSearch error
	inFlight   func(id string) // runs after the update applied, before it returns

	updates int
	deletes int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		notes:      make(map[string]model.Note),
		failDelete: make(map[string]error),
		clock:      time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
	}
}

func (f *fakeRemote) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeRemote) list(deleted bool) []model.Note {
	out := []model.Note{}
	for i := len(f.order) - 1; i >= 0; i-- {
		if n := f.notes[f.order[i]]; n.Deleted == deleted {
			out = append(out, n)
		}
	}
	return out
}

func (f *fakeRemote) ListNotes(ctx context.Context) ([]model.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failList != nil {
		return nil, f.failList
	}
	return f.list(false), nil
}

func (f *fakeRemote) ListTrash(ctx context.Context) ([]model.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failList != nil {
		return nil, f.failList
	}
	return f.list(true), nil
}

func (f *fakeRemote) SearchNotes(ctx context.Context, q string) ([]model.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSearch != nil {
		return nil, f.failSearch
	}
	var out []model.Note
	for _, n := range f.list(false) {
		if strings.Contains(strings.ToLower(n.Title+" "+n.Content), strings.ToLower(q)) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeRemote) CreateNote(ctx context.Context, draft model.NoteDraft) (model.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	now := f.tick()
	n := model.Note{
		ID:           strconv.Itoa(f.next),
		Title:        draft.Title,
		Content:      draft.Content,
		ParentID:     draft.ParentID,
		CreatedAt:    now,
		LastModified: now,
	}
	f.notes[n.ID] = n
	f.order = append(f.order, n.ID)
	return n, nil
}

func (f *fakeRemote) UpdateNote(ctx context.Context, id string, patch model.NotePatch) (model.Note, error) {
	f.mu.Lock()
	f.updates++
	if f.failUpdate != nil {
		f.mu.Unlock()
		return model.Note{}, f.failUpdate
	}
	n, ok := f.notes[id]
	if !ok {
		f.mu.Unlock()
		return model.Note{}, apperr.NotFound("note", id)
	}
	patch.Apply(&n)
	n.LastModified = f.tick()
	f.notes[id] = n
	hook := f.inFlight
	f.inFlight = nil
	f.mu.Unlock()

	if hook != nil {
		hook(id)
	}
	return n, nil
}

func (f *fakeRemote) DeleteNote(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if err := f.failDelete[id]; err != nil {
		return err
	}
	if _, ok := f.notes[id]; !ok {
		return apperr.NotFound("note", id)
	}
	delete(f.notes, id)
	for i, oid := range f.order {
		if oid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}
