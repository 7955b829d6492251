package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"notekeeper/internal/apperr"
	"notekeeper/internal/model"
	"notekeeper/internal/remote/local"
	"notekeeper/internal/repository/memory"
	"notekeeper/internal/service"
)

func newCalendar(t *testing.T) (*Calendar, *local.Client) {
	t.Helper()
	svc := service.New(memory.NewRepository(), service.NewTokens("test", time.Hour), nil, zap.NewNop())
	c := local.New(svc)
	res, err := c.Register(context.Background(), model.Registration{Name: "Ann", Email: "ann@example.com", Password: "Secret123"})
	require.NoError(t, err)
	c.SetToken(res.Token)
	return NewCalendar(c, time.UTC, zap.NewNop()), c
}

func at(day string, hour int) time.Time {
	t, _ := time.Parse("2006-01-02", day)
	return t.Add(time.Duration(hour) * time.Hour)
}

func TestCalendar_ForDateOrdering(t *testing.T) {
	ctx := context.Background()
	cal, _ := newCalendar(t)

	drafts := []model.EventDraft{
		{Title: "lunch", StartDateTime: at("2024-03-10", 12), EndDateTime: at("2024-03-10", 13)},
		{Title: "standup low", StartDateTime: at("2024-03-10", 9), Tag: model.PriorityLow},
		{Title: "standup high", StartDateTime: at("2024-03-10", 9), Tag: model.PriorityHigh},
		{Title: "trip", StartDateTime: at("2024-03-09", 0), EndDateTime: at("2024-03-11", 0), AllDay: true},
		{Title: "tomorrow", StartDateTime: at("2024-03-11", 10)},
	}
	for _, d := range drafts {
		_, err := cal.Create(ctx, d)
		require.NoError(t, err)
	}

	got, err := cal.ForDate("2024-03-10")
	require.NoError(t, err)
	var titles []string
	for _, e := range got {
		titles = append(titles, e.Title)
	}
	assert.Equal(t, []string{"trip", "standup high", "standup low", "lunch"}, titles)

	got, err = cal.ForDate("2024-03-12")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = cal.ForDate("March 10")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCalendar_RefreshAndMarkedDays(t *testing.T) {
	ctx := context.Background()
	cal, backend := newCalendar(t)

	_, err := backend.CreateEvent(ctx, model.EventDraft{Title: "a", StartDateTime: at("2024-03-02", 8)})
	require.NoError(t, err)
	_, err = backend.CreateEvent(ctx, model.EventDraft{Title: "b", StartDateTime: at("2024-03-05", 0), EndDateTime: at("2024-03-06", 0), AllDay: true})
	require.NoError(t, err)

	assert.Empty(t, cal.All())
	require.NoError(t, cal.Refresh(ctx))
	assert.Len(t, cal.All(), 2)

	days, err := cal.MarkedDays("2024-03-01", "2024-03-31")
	require.NoError(t, err)
	assert.Equal(t, []model.Day{"2024-03-02", "2024-03-05", "2024-03-06"}, days)

	_, err = cal.MarkedDays("2024-03-31", "2024-03-01")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCalendar_UpdateDelete(t *testing.T) {
	ctx := context.Background()
	cal, _ := newCalendar(t)

	e, err := cal.Create(ctx, model.EventDraft{Title: "draft", StartDateTime: at("2024-03-10", 9)})
	require.NoError(t, err)

	_, err = cal.Update(ctx, e.ID, model.EventDraft{Title: "bad", StartDateTime: at("2024-03-10", 9), EndDateTime: at("2024-03-10", 8)})
	var fe *apperr.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "end_date_time", fe.Field)

	updated, err := cal.Update(ctx, e.ID, model.EventDraft{Title: "final", StartDateTime: at("2024-03-10", 10), Tag: model.PriorityMedium})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Title)

	got, err := cal.Get(e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PriorityMedium, got.Tag)

	require.NoError(t, cal.Delete(ctx, e.ID))
	_, err = cal.Get(e.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, cal.Delete(ctx, e.ID), apperr.ErrNotFound)
}

func TestCalendar_CreateValidatesBeforeNetwork(t *testing.T) {
	cal := NewCalendar(nil, nil, nil)
	_, err := cal.Create(context.Background(), model.EventDraft{Title: "no start"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = cal.Create(context.Background(), model.EventDraft{StartDateTime: time.Now()})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
