package service

import (
	"context"
	"time"

	"notekeeper/internal/model"
	"notekeeper/internal/repository"
)

type EventService struct {
	events repository.EventRepository
	now    func() time.Time
}

func NewEventService(events repository.EventRepository) *EventService {
	return &EventService{events: events, now: time.Now}
}

// List returns the owner's events by start time. A non-empty day keeps only
// the events occurring on it, evaluated in loc.
func (s *EventService) List(ctx context.Context, owner string, day model.Day, loc *time.Location) ([]model.Event, error) {
	events, err := s.events.List(ctx, owner)
	if err != nil || day == "" {
		return events, err
	}
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if e.Occurs(day, loc) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *EventService) Create(ctx context.Context, owner string, draft model.EventDraft) (model.Event, error) {
	if err := draft.Validate(); err != nil {
		return model.Event{}, err
	}
	now := s.now().UTC()
	e := model.Event{OwnerEmail: owner, CreatedAt: now, UpdatedAt: now}
	draft.Apply(&e)
	return s.events.Create(ctx, e)
}

// Update replaces the editable fields of an event.
func (s *EventService) Update(ctx context.Context, owner, id string, draft model.EventDraft) (model.Event, error) {
	if err := draft.Validate(); err != nil {
		return model.Event{}, err
	}
	e, err := s.events.Get(ctx, owner, id)
	if err != nil {
		return model.Event{}, err
	}
	draft.Apply(&e)
	e.UpdatedAt = advance(e.UpdatedAt, s.now())
	return s.events.Update(ctx, e)
}

func (s *EventService) Delete(ctx context.Context, owner, id string) error {
	return s.events.Delete(ctx, owner, id)
}
