package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notekeeper/internal/apperr"
)

func TestNoteDraft_Validate(t *testing.T) {
	d := NoteDraft{Title: "  Shopping  ", ParentID: StringPtr("")}
	require.NoError(t, d.Validate())
	assert.Equal(t, "Shopping", d.Title)
	assert.Nil(t, d.ParentID)

	d = NoteDraft{Title: "   "}
	assert.ErrorIs(t, d.Validate(), apperr.ErrValidation)

	d = NoteDraft{Title: strings.Repeat("a", MaxTitleLength+1)}
	assert.ErrorIs(t, d.Validate(), apperr.ErrValidation)

	d = NoteDraft{Title: "ok", Content: strings.Repeat("x", MaxContentLength+1)}
	assert.ErrorIs(t, d.Validate(), apperr.ErrValidation)

	// Limits count characters, not bytes.
	d = NoteDraft{Title: strings.Repeat("й", MaxTitleLength)}
	assert.NoError(t, d.Validate())
}

func TestNotePatch(t *testing.T) {
	p := NotePatch{Title: StringPtr(" New "), Deleted: BoolPtr(true)}
	require.NoError(t, p.Validate())

	n := Note{Title: "Old", Content: "body"}
	p.Apply(&n)
	assert.Equal(t, "New", n.Title)
	assert.Equal(t, "body", n.Content)
	assert.True(t, n.Deleted)
	assert.False(t, p.IsEmpty())
	assert.True(t, NotePatch{}.IsEmpty())

	bad := NotePatch{Title: StringPtr("")}
	assert.ErrorIs(t, bad.Validate(), apperr.ErrValidation)
}

func TestPriorityJSON(t *testing.T) {
	e := Event{Title: "Standup", Tag: PriorityHigh}
	b, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"tag":"HIGH"`)

	var decoded Event
	require.NoError(t, json.Unmarshal([]byte(`{"title":"x","tag":"medium"}`), &decoded))
	assert.Equal(t, PriorityMedium, decoded.Tag)

	assert.Error(t, json.Unmarshal([]byte(`{"tag":"URGENT"}`), &decoded))
}

func TestEventOccurs(t *testing.T) {
	loc := time.UTC
	day := Day("2024-03-10")

	tests := []struct {
		name  string
		event Event
		want  bool
	}{
		{
			name: "inside the day",
			event: Event{
				StartDateTime: time.Date(2024, 3, 10, 9, 0, 0, 0, loc),
				EndDateTime:   time.Date(2024, 3, 10, 10, 0, 0, 0, loc),
			},
			want: true,
		},
		{
			name: "spans midnight into the day",
			event: Event{
				StartDateTime: time.Date(2024, 3, 9, 22, 0, 0, 0, loc),
				EndDateTime:   time.Date(2024, 3, 10, 1, 0, 0, 0, loc),
			},
			want: true,
		},
		{
			name: "ends exactly at midnight before",
			event: Event{
				StartDateTime: time.Date(2024, 3, 9, 22, 0, 0, 0, loc),
				EndDateTime:   time.Date(2024, 3, 10, 0, 0, 0, 0, loc),
			},
			want: false,
		},
		{
			name: "instant at midnight",
			event: Event{
				StartDateTime: time.Date(2024, 3, 10, 0, 0, 0, 0, loc),
				EndDateTime:   time.Date(2024, 3, 10, 0, 0, 0, 0, loc),
			},
			want: true,
		},
		{
			name: "multi day all-day",
			event: Event{
				AllDay:        true,
				StartDateTime: time.Date(2024, 3, 8, 0, 0, 0, 0, loc),
				EndDateTime:   time.Date(2024, 3, 12, 0, 0, 0, 0, loc),
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.Occurs(day, loc))
		})
	}
}

func TestEventDraft_Validate(t *testing.T) {
	start := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	d := EventDraft{Title: "Dentist", StartDateTime: start}
	require.NoError(t, d.Validate())
	assert.Equal(t, start, d.EndDateTime)

	d = EventDraft{Title: "Backwards", StartDateTime: start, EndDateTime: start.Add(-time.Hour)}
	assert.ErrorIs(t, d.Validate(), apperr.ErrValidation)

	d = EventDraft{Title: "No start"}
	assert.ErrorIs(t, d.Validate(), apperr.ErrValidation)
}

func TestTaskDraft_Validate(t *testing.T) {
	d := TaskDraft{Text: " water plants ", Date: "2024-03-10"}
	require.NoError(t, d.Validate())
	assert.Equal(t, "water plants", d.Text)

	d = TaskDraft{Text: "x", Date: "10/03/2024"}
	assert.ErrorIs(t, d.Validate(), apperr.ErrValidation)

	d = TaskDraft{Text: strings.Repeat("t", MaxTaskTextLength+1), Date: "2024-03-10"}
	assert.ErrorIs(t, d.Validate(), apperr.ErrValidation)
}

func TestDay(t *testing.T) {
	d, err := ParseDay("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), d.End(time.UTC))

	_, err = ParseDay("2023-02-29")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestRegistration_Validate(t *testing.T) {
	tests := []struct {
		name string
		reg  Registration
		ok   bool
	}{
		{"valid", Registration{Name: " Ann ", Email: "ann@example.com", Password: "Secret123"}, true},
		{"empty name", Registration{Name: " ", Email: "ann@example.com", Password: "Secret123"}, false},
		{"bad email", Registration{Name: "Ann", Email: "ann@", Password: "Secret123"}, false},
		{"no tld", Registration{Name: "Ann", Email: "ann@localhost", Password: "Secret123"}, false},
		{"display name", Registration{Name: "Ann", Email: "Ann <ann@example.com>", Password: "Secret123"}, false},
		{"short password", Registration{Name: "Ann", Email: "ann@example.com", Password: "Se1"}, false},
		{"no digit", Registration{Name: "Ann", Email: "ann@example.com", Password: "SecretPass"}, false},
		{"no upper", Registration{Name: "Ann", Email: "ann@example.com", Password: "secret123"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.reg.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestValidateOTP(t *testing.T) {
	assert.NoError(t, ValidateOTP("042133"))
	assert.ErrorIs(t, ValidateOTP("42133"), apperr.ErrValidation)
	assert.ErrorIs(t, ValidateOTP("04213a"), apperr.ErrValidation)
}
