package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notekeeper/internal/apperr"
	"notekeeper/internal/model"
	"notekeeper/internal/repository"
)

const owner = "ann@example.com"

func openTest(t *testing.T) repository.Repository {
	t.Helper()
	r, err := Open(context.Background(), DSN(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestNotes_RoundTrip(t *testing.T) {
	ctx := context.Background()
	notes := openTest(t).Notes()
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	root, err := notes.Create(ctx, model.Note{Title: "root", OwnerEmail: owner, CreatedAt: now, LastModified: now})
	require.NoError(t, err)
	child, err := notes.Create(ctx, model.Note{
		Title: "child", Content: "body", ParentID: model.StringPtr(root.ID),
		OwnerEmail: owner, CreatedAt: now.Add(time.Minute), LastModified: now.Add(time.Minute),
	})
	require.NoError(t, err)

	got, err := notes.Get(ctx, owner, child.ID)
	require.NoError(t, err)
	assert.Equal(t, root.ID, got.Parent())
	assert.Equal(t, "body", got.Content)
	assert.True(t, got.LastModified.Equal(now.Add(time.Minute)))

	list, err := notes.List(ctx, owner, false)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, child.ID, list[0].ID, "newest first")

	got.Deleted = true
	_, err = notes.Update(ctx, got)
	require.NoError(t, err)

	trash, err := notes.List(ctx, owner, true)
	require.NoError(t, err)
	require.Len(t, trash, 1)
	assert.True(t, trash[0].Deleted)

	require.NoError(t, notes.Delete(ctx, owner, child.ID))
	assert.ErrorIs(t, notes.Delete(ctx, owner, child.ID), apperr.ErrNotFound)
	_, err = notes.Get(ctx, owner, "not-a-number")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestNotes_SearchEscapesWildcards(t *testing.T) {
	ctx := context.Background()
	notes := openTest(t).Notes()

	_, _ = notes.Create(ctx, model.Note{Title: "100% done", OwnerEmail: owner})
	_, _ = notes.Create(ctx, model.Note{Title: "1000 items", OwnerEmail: owner})

	found, err := notes.Search(ctx, owner, "0%")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "100% done", found[0].Title)
}

func TestUsers_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	users := openTest(t).Users()

	_, err := users.Create(ctx, model.User{Name: "Ann", Email: owner}, "hash")
	require.NoError(t, err)
	_, err = users.Create(ctx, model.User{Name: "Ann", Email: "ANN@example.com"}, "hash")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, hash, err := users.GetByEmail(ctx, "Ann@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "hash", hash)
}

func TestTasksAndEvents(t *testing.T) {
	ctx := context.Background()
	r := openTest(t)

	task, err := r.Tasks().Create(ctx, model.DailyTask{Text: "one", Date: "2024-03-10", OwnerEmail: owner})
	require.NoError(t, err)
	task.Completed = true
	_, err = r.Tasks().Update(ctx, task)
	require.NoError(t, err)

	tasks, err := r.Tasks().List(ctx, owner, "2024-03-10")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].Completed)

	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	_, _ = r.Events().Create(ctx, model.Event{Title: "late", StartDateTime: base.Add(time.Hour), Tag: model.PriorityHigh, OwnerEmail: owner})
	_, _ = r.Events().Create(ctx, model.Event{Title: "early", StartDateTime: base, OwnerEmail: owner})

	events, err := r.Events().List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "early", events[0].Title)
	assert.Equal(t, model.PriorityHigh, events[1].Tag)
}

func TestCheckpointEmptiesWAL(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "wal.db")
	r, err := Open(ctx, DSN(path))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	_, err = r.Notes().Create(ctx, model.Note{Title: "A", OwnerEmail: owner, CreatedAt: time.Now(), LastModified: time.Now()})
	require.NoError(t, err)

	require.NoError(t, r.(repository.Checkpointer).Checkpoint(ctx))
	info, err := os.Stat(path + "-wal")
	if err == nil {
		assert.Zero(t, info.Size())
	} else {
		assert.True(t, os.IsNotExist(err))
	}
}
