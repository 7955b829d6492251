package service

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"notekeeper/internal/apperr"
	"notekeeper/internal/model"
	"notekeeper/internal/repository/memory"
)

var ann = model.User{Name: "Ann", Email: "ann@example.com"}

func newTestServices(t *testing.T) (*Services, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	return New(memory.NewRepository(), NewTokens("test-secret", time.Hour), fs, zap.NewNop()), fs
}

func TestAuth_RegisterLoginMe(t *testing.T) {
	ctx := context.Background()
	svc, fs := newTestServices(t)

	res, err := svc.Auth.Register(ctx, model.Registration{Name: "Ann", Email: "ann@example.com", Password: "Secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.NotEmpty(t, res.User.Avatar)

	exists, err := afero.Exists(fs, res.User.Avatar)
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = svc.Auth.Register(ctx, model.Registration{Name: "Ann", Email: "ann@example.com", Password: "Secret123"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = svc.Auth.Login(ctx, model.Credentials{Email: "ann@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = svc.Auth.Login(ctx, model.Credentials{Email: "nobody@example.com", Password: "Secret123"})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	logged, err := svc.Auth.Login(ctx, model.Credentials{Email: "ann@example.com", Password: "Secret123"})
	require.NoError(t, err)

	claims, err := svc.Tokens.Parse(logged.Token)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", claims.Email)

	me, err := svc.Auth.Me(ctx, claims.Email)
	require.NoError(t, err)
	assert.Equal(t, "Ann", me.Name)
}

func TestAuth_RegisterRejectsWeakPassword(t *testing.T) {
	svc, _ := newTestServices(t)
	_, err := svc.Auth.Register(context.Background(), model.Registration{Name: "Ann", Email: "ann@example.com", Password: "password"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestTokens_Expired(t *testing.T) {
	tokens := NewTokens("secret", time.Minute)
	tokens.now = func() time.Time { return time.Now().Add(-time.Hour) }
	raw, err := tokens.Issue(ann)
	require.NoError(t, err)

	tokens.now = time.Now
	_, err = tokens.Parse(raw)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = NewTokens("other", time.Minute).Parse(raw)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestNotes_CreateWithParent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t)

	root, err := svc.Notes.Create(ctx, ann, model.NoteDraft{Title: "Root"})
	require.NoError(t, err)
	assert.Equal(t, root.CreatedAt, root.LastModified)
	assert.Equal(t, "Ann", root.OwnerName)

	child, err := svc.Notes.Create(ctx, ann, model.NoteDraft{Title: "Child", ParentID: model.StringPtr(root.ID)})
	require.NoError(t, err)
	assert.Equal(t, root.ID, child.Parent())

	_, err = svc.Notes.Create(ctx, ann, model.NoteDraft{Title: "Lost", ParentID: model.StringPtr("missing")})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Notes.Update(ctx, ann.Email, root.ID, model.NotePatch{Deleted: model.BoolPtr(true)})
	require.NoError(t, err)
	_, err = svc.Notes.Create(ctx, ann, model.NoteDraft{Title: "Under trash", ParentID: model.StringPtr(root.ID)})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestNotes_UpdateAdvancesLastModified(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t)
	frozen := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.Notes.now = func() time.Time { return frozen }

	n, err := svc.Notes.Create(ctx, ann, model.NoteDraft{Title: "Draft"})
	require.NoError(t, err)

	first, err := svc.Notes.Update(ctx, ann.Email, n.ID, model.NotePatch{Content: model.StringPtr("v1")})
	require.NoError(t, err)
	second, err := svc.Notes.Update(ctx, ann.Email, n.ID, model.NotePatch{Content: model.StringPtr("v2")})
	require.NoError(t, err)

	assert.True(t, first.LastModified.After(n.LastModified))
	assert.True(t, second.LastModified.After(first.LastModified))

	_, err = svc.Notes.Update(ctx, ann.Email, n.ID, model.NotePatch{})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.Notes.Update(ctx, "eve@example.com", n.ID, model.NotePatch{Content: model.StringPtr("x")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestNotes_SearchBlank(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t)
	_, _ = svc.Notes.Create(ctx, ann, model.NoteDraft{Title: "Anything"})

	found, err := svc.Notes.Search(ctx, ann.Email, "  ")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestTasksAndEvents(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t)

	task, err := svc.Tasks.Create(ctx, ann.Email, model.TaskDraft{Text: "water plants", Date: "2024-03-10"})
	require.NoError(t, err)
	done, err := svc.Tasks.Update(ctx, ann.Email, task.ID, model.TaskPatch{Completed: model.BoolPtr(true)})
	require.NoError(t, err)
	assert.True(t, done.Completed)

	_, err = svc.Tasks.List(ctx, ann.Email, "yesterday")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	start := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	_, err = svc.Events.Create(ctx, ann.Email, model.EventDraft{Title: "Dentist", StartDateTime: start, EndDateTime: start.Add(time.Hour)})
	require.NoError(t, err)
	_, err = svc.Events.Create(ctx, ann.Email, model.EventDraft{Title: "Trip", StartDateTime: start.AddDate(0, 0, 3)})
	require.NoError(t, err)

	onDay, err := svc.Events.List(ctx, ann.Email, "2024-03-10", time.UTC)
	require.NoError(t, err)
	require.Len(t, onDay, 1)
	assert.Equal(t, "Dentist", onDay[0].Title)

	all, err := svc.Events.List(ctx, ann.Email, "", time.UTC)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
