package model

import (
	"strings"
	"time"
	"unicode/utf8"

	"notekeeper/internal/apperr"
)

const MaxTaskTextLength = 500

// DailyTask is a to-do item bound to a single day.
type DailyTask struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Date       Day       `json:"date"`
	Completed  bool      `json:"completed"`
	OwnerEmail string    `json:"owner_email,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TaskDraft carries the fields of a task to be created.
type TaskDraft struct {
	Text string `json:"text"`
	Date Day    `json:"date"`
}

func (d *TaskDraft) Validate() error {
	d.Text = strings.TrimSpace(d.Text)
	if err := ValidateTaskText(d.Text); err != nil {
		return err
	}
	if !d.Date.Valid() {
		return apperr.Validation("date", "must be formatted as YYYY-MM-DD")
	}
	return nil
}

// TaskPatch is a partial task update.
type TaskPatch struct {
	Text      *string `json:"text,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

func (p *TaskPatch) Validate() error {
	if p.Text == nil {
		return nil
	}
	t := strings.TrimSpace(*p.Text)
	p.Text = &t
	return ValidateTaskText(t)
}

func (p TaskPatch) Apply(t *DailyTask) {
	if p.Text != nil {
		t.Text = *p.Text
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
}

func ValidateTaskText(text string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	if n == 0 {
		return apperr.Validation("text", "must not be empty")
	}
	if n > MaxTaskTextLength {
		return apperr.Validation("text", "must be at most 500 characters")
	}
	return nil
}
