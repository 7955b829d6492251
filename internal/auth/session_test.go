package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"notekeeper/internal/apperr"
	"notekeeper/internal/kvstore"
	"notekeeper/internal/model"
	"notekeeper/internal/remote/local"
	"notekeeper/internal/repository/memory"
	"notekeeper/internal/service"
	"notekeeper/internal/storage"
)

func newBackend() *local.Client {
	svc := service.New(memory.NewRepository(), service.NewTokens("test-secret", time.Hour), nil, zap.NewNop())
	return local.New(svc)
}

var ann = model.Registration{Name: "Ann", Email: "ann@example.com", Password: "Secret123"}

func TestSession_RegisterLoginRestore(t *testing.T) {
	ctx := context.Background()
	backend := newBackend()
	kv := kvstore.New(storage.NewMemoryFileSystem())

	s := NewSession(backend, kv, zap.NewNop())
	u, err := s.Register(ctx, ann)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", u.Email)

	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, u, cur)
	assert.NotEmpty(t, s.Token())

	// the backend now answers for Ann
	_, err = backend.CreateNote(ctx, model.NoteDraft{Title: "hello"})
	require.NoError(t, err)

	// a later process resumes from the KV store
	resumed := NewSession(backend, kv, zap.NewNop())
	got, err := resumed.Restore()
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	require.NoError(t, resumed.Logout())
	_, ok = resumed.Current()
	assert.False(t, ok)
	_, err = backend.ListNotes(ctx)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = NewSession(backend, kv, zap.NewNop()).Restore()
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	u, err = s.Login(ctx, model.Credentials{Email: " ann@example.com ", Password: "Secret123"})
	require.NoError(t, err)
	assert.Equal(t, "Ann", u.Name)
}

func TestSession_ValidatesBeforeNetwork(t *testing.T) {
	s := NewSession(nil, kvstore.New(storage.NewMemoryFileSystem()), zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name  string
		reg   model.Registration
		field string
	}{
		{"empty name", model.Registration{Email: "a@b.co", Password: "Secret123"}, "name"},
		{"bad email", model.Registration{Name: "A", Email: "not-an-email", Password: "Secret123"}, "email"},
		{"weak password", model.Registration{Name: "A", Email: "a@b.co", Password: "password"}, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Register(ctx, tt.reg)
			var fe *apperr.FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.field, fe.Field)
		})
	}

	_, err := s.Login(ctx, model.Credentials{Email: "a@b.co"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSession_WrongPassword(t *testing.T) {
	ctx := context.Background()
	backend := newBackend()
	s := NewSession(backend, kvstore.New(storage.NewMemoryFileSystem()), zap.NewNop())
	_, err := s.Register(ctx, ann)
	require.NoError(t, err)
	require.NoError(t, s.Logout())

	_, err = s.Login(ctx, model.Credentials{Email: ann.Email, Password: "Wrong1234"})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestSession_RestoreExpired(t *testing.T) {
	ctx := context.Background()
	backend := newBackend()
	kv := kvstore.New(storage.NewMemoryFileSystem())
	_, err := NewSession(backend, kv, zap.NewNop()).Register(ctx, ann)
	require.NoError(t, err)

	later := NewSession(backend, kv, zap.NewNop())
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = later.Restore()
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	var token string
	assert.ErrorIs(t, kv.Get(kvstore.KeyToken, &token), apperr.ErrNotFound, "expired session is cleared")
}

func TestExpired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	sign := func(claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("any"))
		require.NoError(t, err)
		return s
	}

	expired, err := Expired(sign(jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute))}), now)
	require.NoError(t, err)
	assert.False(t, expired)

	expired, err = Expired(sign(jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))}), now)
	require.NoError(t, err)
	assert.True(t, expired)

	expired, err = Expired(sign(jwt.RegisteredClaims{Subject: "x"}), now)
	require.NoError(t, err)
	assert.False(t, expired)

	_, err = Expired("garbage", now)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestVerifyOTP(t *testing.T) {
	assert.NoError(t, VerifyOTP("123456", "123456"))
	assert.ErrorIs(t, VerifyOTP("12345", "12345"), apperr.ErrValidation)
	assert.ErrorIs(t, VerifyOTP("12a456", "12a456"), apperr.ErrValidation)
	assert.ErrorIs(t, VerifyOTP("123456", "654321"), apperr.ErrUnauthorized)
}
