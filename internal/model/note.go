package model

import (
	"strings"
	"time"
	"unicode/utf8"

	"notekeeper/internal/apperr"
)

const (
	MaxTitleLength   = 255
	MaxContentLength = 10000
)

// Note is a single note, active or trashed.
type Note struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	ParentID     *string   `json:"parent_id,omitempty"`
	Deleted      bool      `json:"deleted"`
	OwnerEmail   string    `json:"owner_email,omitempty"`
	OwnerName    string    `json:"owner_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LastModified time.Time `json:"last_modified"`
}

// IsRoot reports whether the note declares no parent.
func (n Note) IsRoot() bool {
	return n.ParentID == nil || *n.ParentID == ""
}

// Parent returns the declared parent id, or "" for root notes.
func (n Note) Parent() string {
	if n.IsRoot() {
		return ""
	}
	return *n.ParentID
}

// NoteDraft carries the fields of a note to be created.
type NoteDraft struct {
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	ParentID *string `json:"parent_id,omitempty"`
}

// Validate trims the title and checks field limits.
func (d *NoteDraft) Validate() error {
	d.Title = strings.TrimSpace(d.Title)
	if err := ValidateTitle(d.Title); err != nil {
		return err
	}
	if d.ParentID != nil && *d.ParentID == "" {
		d.ParentID = nil
	}
	return ValidateContent(d.Content)
}

// NotePatch is a partial update. Nil fields are left untouched.
type NotePatch struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
	Deleted *bool   `json:"deleted,omitempty"`
}

// Validate checks the fields present in the patch.
func (p *NotePatch) Validate() error {
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if err := ValidateTitle(t); err != nil {
			return err
		}
		p.Title = &t
	}
	if p.Content != nil {
		return ValidateContent(*p.Content)
	}
	return nil
}

// IsEmpty reports whether the patch changes nothing.
func (p NotePatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Deleted == nil
}

// Apply copies the patched fields onto n.
func (p NotePatch) Apply(n *Note) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Deleted != nil {
		n.Deleted = *p.Deleted
	}
}

func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return apperr.Validation("title", "must not be empty")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return apperr.Validation("title", "must be at most 255 characters")
	}
	return nil
}

func ValidateContent(content string) error {
	if utf8.RuneCountInString(content) > MaxContentLength {
		return apperr.Validation("content", "must be at most 10000 characters")
	}
	return nil
}

// StringPtr is a helper for building patches and drafts.
func StringPtr(s string) *string { return &s }

// BoolPtr is a helper for building patches.
func BoolPtr(b bool) *bool { return &b }
