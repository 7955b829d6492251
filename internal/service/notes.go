package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"notekeeper/internal/apperr"
	"notekeeper/internal/model"
	"notekeeper/internal/repository"

	"go.uber.org/zap"
)

// NoteService holds the server-side note rules: field validation, parent
// resolution and timestamps. Every call is scoped to an owner.
type NoteService struct {
	notes repository.NoteRepository
	log   *zap.Logger
	now   func() time.Time
}

func NewNoteService(notes repository.NoteRepository, log *zap.Logger) *NoteService {
	return &NoteService{notes: notes, log: log, now: time.Now}
}

func (s *NoteService) List(ctx context.Context, owner string, trashed bool) ([]model.Note, error) {
	return s.notes.List(ctx, owner, trashed)
}

// Search returns active notes containing q. A blank query matches nothing.
func (s *NoteService) Search(ctx context.Context, owner, q string) ([]model.Note, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []model.Note{}, nil
	}
	return s.notes.Search(ctx, owner, q)
}

func (s *NoteService) Get(ctx context.Context, owner, id string) (model.Note, error) {
	if id == "" {
		return model.Note{}, apperr.Validation("id", "must not be empty")
	}
	return s.notes.Get(ctx, owner, id)
}

func (s *NoteService) Create(ctx context.Context, owner model.User, draft model.NoteDraft) (model.Note, error) {
	if err := draft.Validate(); err != nil {
		return model.Note{}, err
	}
	if draft.ParentID != nil {
		parent, err := s.notes.Get(ctx, owner.Email, *draft.ParentID)
		if errors.Is(err, apperr.ErrNotFound) || (err == nil && parent.Deleted) {
			return model.Note{}, apperr.Validation("parent_id", "does not reference an active note")
		}
		if err != nil {
			return model.Note{}, err
		}
	}

	now := s.now().UTC()
	created, err := s.notes.Create(ctx, model.Note{
		Title:        draft.Title,
		Content:      draft.Content,
		ParentID:     draft.ParentID,
		OwnerEmail:   owner.Email,
		OwnerName:    owner.Name,
		CreatedAt:    now,
		LastModified: now,
	})
	if err != nil {
		return model.Note{}, err
	}
	s.log.Debug("note created", zap.String("id", created.ID), zap.String("owner", owner.Email))
	return created, nil
}

// Update applies patch and advances LastModified.
func (s *NoteService) Update(ctx context.Context, owner, id string, patch model.NotePatch) (model.Note, error) {
	if err := patch.Validate(); err != nil {
		return model.Note{}, err
	}
	if patch.IsEmpty() {
		return model.Note{}, apperr.Validation("body", "nothing to update")
	}

	note, err := s.Get(ctx, owner, id)
	if err != nil {
		return model.Note{}, err
	}
	patch.Apply(&note)
	note.LastModified = advance(note.LastModified, s.now())

	return s.notes.Update(ctx, note)
}

func (s *NoteService) Delete(ctx context.Context, owner, id string) error {
	if err := s.notes.Delete(ctx, owner, id); err != nil {
		return err
	}
	s.log.Debug("note deleted", zap.String("id", id), zap.String("owner", owner))
	return nil
}

// advance returns now, or a moment after prev when the clock has not moved past it.
func advance(prev, now time.Time) time.Time {
	now = now.UTC()
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Millisecond)
}
