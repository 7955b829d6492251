// Package events keeps the calendar of the signed-in account.
package events

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"notekeeper/internal/apperr"
	"notekeeper/internal/model"
	"notekeeper/internal/remote"

	"go.uber.org/zap"
)

// Calendar caches the account's events and answers day queries locally.
type Calendar struct {
	remote remote.Events
	loc    *time.Location
	log    *zap.Logger

	mu     sync.RWMutex
	events []model.Event
}

// NewCalendar evaluates days in loc; nil means time.Local.
func NewCalendar(r remote.Events, loc *time.Location, log *zap.Logger) *Calendar {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Calendar{remote: r, loc: loc, log: log}
}

// Refresh reloads every event from the backend. On failure the cached
// events are kept.
func (c *Calendar) Refresh(ctx context.Context) error {
	events, err := c.remote.ListEvents(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.events = events
	c.mu.Unlock()
	c.log.Debug("events refreshed", zap.Int("count", len(events)))
	return nil
}

// All returns the cached events by start time.
func (c *Calendar) All() []model.Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := append([]model.Event(nil), c.events...)
	sortEvents(out)
	return out
}

// ForDate returns the events occurring on day, by start time and then by
// descending priority.
func (c *Calendar) ForDate(day model.Day) ([]model.Event, error) {
	if !day.Valid() {
		return nil, apperr.Validation("date", "must be formatted as YYYY-MM-DD")
	}
	c.mu.RLock()
	out := make([]model.Event, 0)
	for _, e := range c.events {
		if e.Occurs(day, c.loc) {
			out = append(out, e)
		}
	}
	c.mu.RUnlock()
	sortEvents(out)
	return out, nil
}

// MarkedDays returns the days between from and to, inclusive, that hold at
// least one event.
func (c *Calendar) MarkedDays(from, to model.Day) ([]model.Day, error) {
	if !from.Valid() || !to.Valid() {
		return nil, apperr.Validation("date", "must be formatted as YYYY-MM-DD")
	}
	if to < from {
		return nil, apperr.Validation("date", "range end must not be before its start")
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []model.Day
	for d := from.Start(c.loc); model.DayOf(d) <= to; d = d.AddDate(0, 0, 1) {
		day := model.DayOf(d)
		for _, e := range c.events {
			if e.Occurs(day, c.loc) {
				out = append(out, day)
				break
			}
		}
	}
	return out, nil
}

func (c *Calendar) Get(id string) (model.Event, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.events {
		if e.ID == id {
			return e, nil
		}
	}
	return model.Event{}, apperr.NotFound("event", id)
}

func (c *Calendar) Create(ctx context.Context, draft model.EventDraft) (model.Event, error) {
	if err := draft.Validate(); err != nil {
		return model.Event{}, err
	}
	e, err := c.remote.CreateEvent(ctx, draft)
	if err != nil {
		return model.Event{}, err
	}
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
	return e, nil
}

// Update replaces the editable fields of an event.
func (c *Calendar) Update(ctx context.Context, id string, draft model.EventDraft) (model.Event, error) {
	if err := draft.Validate(); err != nil {
		return model.Event{}, err
	}
	e, err := c.remote.UpdateEvent(ctx, id, draft)
	if err != nil {
		return model.Event{}, err
	}
	c.mu.Lock()
	for i := range c.events {
		if c.events[i].ID == id {
			c.events[i] = e
		}
	}
	c.mu.Unlock()
	return e, nil
}

// Delete removes an event. An event the backend no longer has is removed
// locally as well.
func (c *Calendar) Delete(ctx context.Context, id string) error {
	err := c.remote.DeleteEvent(ctx, id)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, e := range c.events {
		if e.ID == id {
			c.events = append(c.events[:i:i], c.events[i+1:]...)
			return nil
		}
	}
	return err
}

func sortEvents(events []model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.StartDateTime.Equal(b.StartDateTime) {
			return a.StartDateTime.Before(b.StartDateTime)
		}
		return a.Tag > b.Tag
	})
}
