package notes

import (
	"context"
	"strings"
	"sync"

	"notekeeper/internal/apperr"
	"notekeeper/internal/bulk"
	"notekeeper/internal/model"

	"go.uber.org/zap"
)

// Trash moves notes between the active and trashed sets of a Store.
type Trash struct {
	store       *Store
	concurrency int
	log         *zap.Logger

	mu sync.Mutex // serializes bulk operations
}

func NewTrash(store *Store, concurrency int, log *zap.Logger) *Trash {
	if concurrency <= 0 {
		concurrency = bulk.DefaultConcurrency
	}
	return &Trash{store: store, concurrency: concurrency, log: log}
}

// List returns the trashed notes.
func (t *Trash) List() []model.Note {
	return t.store.Trashed()
}

// SoftDelete moves an active note to the trash. Trashing a note that is
// already trashed does nothing.
func (t *Trash) SoftDelete(ctx context.Context, id string) (model.Note, error) {
	n, err := t.store.Get(id)
	if err != nil {
		return model.Note{}, err
	}
	if n.Deleted {
		return n, nil
	}
	return t.store.Update(ctx, id, model.NotePatch{Deleted: model.BoolPtr(true)})
}

// Restore moves a trashed note back to the active set.
func (t *Trash) Restore(ctx context.Context, id string) (model.Note, error) {
	n, err := t.store.Get(id)
	if err != nil {
		return model.Note{}, err
	}
	if !n.Deleted {
		return model.Note{}, apperr.NotFound("trashed note", id)
	}
	return t.store.Update(ctx, id, model.NotePatch{Deleted: model.BoolPtr(false)})
}

// PermanentDelete removes a trashed note for good.
func (t *Trash) PermanentDelete(ctx context.Context, id string) error {
	n, err := t.store.Get(id)
	if err != nil {
		return err
	}
	if !n.Deleted {
		return apperr.NotFound("trashed note", id)
	}
	return t.store.remove(ctx, id)
}

// EmptyTrash permanently deletes every trashed note and returns the ids
// removed. Failures are reported per note in a *bulk.Error; those notes stay
// in the trash.
func (t *Trash) EmptyTrash(ctx context.Context) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	trashed := t.store.Trashed()
	ids := make([]string, len(trashed))
	for i, n := range trashed {
		ids[i] = n.ID
	}

	removed, err := bulk.Run(ctx, "empty trash", ids, t.concurrency, t.store.remove)
	t.log.Info("trash emptied", zap.Int("removed", len(removed)), zap.Int("requested", len(ids)), zap.Error(err))
	return removed, err
}

// SoftDeleteSubtree trashes a note and all of its active descendants.
func (t *Trash) SoftDeleteSubtree(ctx context.Context, id string) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.store.Get(id); err != nil {
		return nil, err
	}
	ids := append([]string{id}, Descendants(t.store.Active(), id)...)

	return bulk.Run(ctx, "trash subtree", ids, t.concurrency, func(ctx context.Context, id string) error {
		_, err := t.SoftDelete(ctx, id)
		return err
	})
}

// Search matches the trashed notes against keyword, ignoring case, in
// trash order. A blank keyword matches nothing.
func (t *Trash) Search(keyword string) []model.Note {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return []model.Note{}
	}
	return match(t.store.Trashed(), keyword)
}
