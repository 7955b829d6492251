package model

import (
	"strings"
	"time"
	"unicode/utf8"

	"notekeeper/internal/apperr"
)

const MaxDescriptionLength = 2000

// Priority tags an event. The zero value is PriorityNone.
type Priority int

const (
	PriorityNone Priority = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
)

var priorityNames = [...]string{"NONE", "LOW", "MEDIUM", "HIGH"}

func (p Priority) String() string {
	if p < PriorityNone || p > PriorityHigh {
		return "NONE"
	}
	return priorityNames[p]
}

// ParsePriority accepts the names in any case; "" maps to PriorityNone.
func ParsePriority(s string) (Priority, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return PriorityNone, nil
	}
	for i, name := range priorityNames {
		if name == s {
			return Priority(i), nil
		}
	}
	return PriorityNone, apperr.Validation("tag", "must be one of NONE, LOW, MEDIUM, HIGH")
}

func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Priority) UnmarshalText(b []byte) error {
	v, err := ParsePriority(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Event is a calendar entry.
type Event struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	StartDateTime time.Time `json:"start_date_time"`
	EndDateTime   time.Time `json:"end_date_time"`
	AllDay        bool      `json:"all_day"`
	Tag           Priority  `json:"tag"`
	OwnerEmail    string    `json:"owner_email,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Occurs reports whether the event overlaps day d in loc.
// All-day events cover every calendar day from their start day to their end day.
func (e Event) Occurs(d Day, loc *time.Location) bool {
	if e.AllDay {
		first := DayOf(e.StartDateTime.In(loc))
		last := DayOf(e.EndDateTime.In(loc))
		return d >= first && d <= last
	}
	start, end := d.Start(loc), d.End(loc)
	if e.EndDateTime.Equal(e.StartDateTime) {
		return !e.StartDateTime.Before(start) && e.StartDateTime.Before(end)
	}
	return e.StartDateTime.Before(end) && e.EndDateTime.After(start)
}

// EventDraft carries the fields of an event to be created or replaced.
type EventDraft struct {
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	StartDateTime time.Time `json:"start_date_time"`
	EndDateTime   time.Time `json:"end_date_time"`
	AllDay        bool      `json:"all_day"`
	Tag           Priority  `json:"tag"`
}

func (d *EventDraft) Validate() error {
	d.Title = strings.TrimSpace(d.Title)
	if err := ValidateTitle(d.Title); err != nil {
		return err
	}
	if utf8.RuneCountInString(d.Description) > MaxDescriptionLength {
		return apperr.Validation("description", "must be at most 2000 characters")
	}
	if d.StartDateTime.IsZero() {
		return apperr.Validation("start_date_time", "is required")
	}
	if d.EndDateTime.IsZero() {
		d.EndDateTime = d.StartDateTime
	}
	if d.EndDateTime.Before(d.StartDateTime) {
		return apperr.Validation("end_date_time", "must not be before start_date_time")
	}
	if d.Tag < PriorityNone || d.Tag > PriorityHigh {
		return apperr.Validation("tag", "must be one of NONE, LOW, MEDIUM, HIGH")
	}
	return nil
}

// Apply overwrites the editable fields of e.
func (d EventDraft) Apply(e *Event) {
	e.Title = d.Title
	e.Description = d.Description
	e.StartDateTime = d.StartDateTime
	e.EndDateTime = d.EndDateTime
	e.AllDay = d.AllDay
	e.Tag = d.Tag
}
