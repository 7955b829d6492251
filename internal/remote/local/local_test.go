package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"notekeeper/internal/apperr"
	"notekeeper/internal/model"
	"notekeeper/internal/repository/memory"
	"notekeeper/internal/service"
)

func TestClient_ScopedToToken(t *testing.T) {
	ctx := context.Background()
	svc := service.New(memory.NewRepository(), service.NewTokens("test", time.Hour), nil, zap.NewNop())
	c := New(svc)

	_, err := c.ListNotes(ctx)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	ann, err := c.Register(ctx, model.Registration{Name: "Ann", Email: "ann@example.com", Password: "Secret123"})
	require.NoError(t, err)
	c.SetToken(ann.Token)

	n, err := c.CreateNote(ctx, model.NoteDraft{Title: "Mine"})
	require.NoError(t, err)
	assert.Equal(t, "Ann", n.OwnerName)

	bob, err := c.Register(ctx, model.Registration{Name: "Bob", Email: "bob@example.com", Password: "Secret123"})
	require.NoError(t, err)
	c.SetToken(bob.Token)

	notes, err := c.ListNotes(ctx)
	require.NoError(t, err)
	assert.Empty(t, notes)
	assert.ErrorIs(t, c.DeleteNote(ctx, n.ID), apperr.ErrNotFound)

	c.SetToken("not-a-token")
	_, err = c.Me(ctx)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}
