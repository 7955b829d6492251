// Package auth keeps the signed-in account of the client and its token.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"sync"
	"time"

	"notekeeper/internal/apperr"
	"notekeeper/internal/kvstore"
	"notekeeper/internal/model"
	"notekeeper/internal/remote"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// KV is the persistence the session uses.
type KV interface {
	Get(key string, v any) error
	Set(key string, v any) error
	Remove(key string) error
}

// Session is the current login. It is safe for concurrent use.
type Session struct {
	remote remote.Auth
	kv     KV
	log    *zap.Logger
	now    func() time.Time

	mu    sync.RWMutex
	user  *model.User
	token string
}

func NewSession(r remote.Auth, kv KV, log *zap.Logger) *Session {
	return &Session{remote: r, kv: kv, log: log, now: time.Now}
}

// Register creates an account and signs in.
func (s *Session) Register(ctx context.Context, reg model.Registration) (model.User, error) {
	if err := reg.Validate(); err != nil {
		return model.User{}, err
	}
	res, err := s.remote.Register(ctx, reg)
	if err != nil {
		return model.User{}, err
	}
	return s.signIn(res)
}

// Login signs in with email and password.
func (s *Session) Login(ctx context.Context, creds model.Credentials) (model.User, error) {
	if err := creds.Validate(); err != nil {
		return model.User{}, err
	}
	res, err := s.remote.Login(ctx, creds)
	if err != nil {
		return model.User{}, err
	}
	return s.signIn(res)
}

func (s *Session) signIn(res model.AuthResult) (model.User, error) {
	if res.Token == "" {
		return model.User{}, apperr.Unauthorized("no token in response")
	}
	if err := s.kv.Set(kvstore.KeyToken, res.Token); err != nil {
		return model.User{}, err
	}
	if err := s.kv.Set(kvstore.KeyUser, res.User); err != nil {
		return model.User{}, err
	}

	s.mu.Lock()
	u := res.User
	s.user, s.token = &u, res.Token
	s.mu.Unlock()

	s.remote.SetToken(res.Token)
	s.log.Info("signed in", zap.String("email", u.Email))
	return u, nil
}

// Restore resumes the persisted session. It fails with ErrUnauthorized when
// there is none or its token has expired; an expired session is cleared.
func (s *Session) Restore() (model.User, error) {
	var token string
	if err := s.kv.Get(kvstore.KeyToken, &token); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return model.User{}, apperr.Unauthorized("not logged in")
		}
		return model.User{}, err
	}
	var u model.User
	if err := s.kv.Get(kvstore.KeyUser, &u); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return model.User{}, apperr.Unauthorized("not logged in")
		}
		return model.User{}, err
	}

	if expired, err := Expired(token, s.now()); err != nil || expired {
		s.log.Info("stored session is no longer valid", zap.Error(err))
		_ = s.Logout()
		return model.User{}, apperr.Unauthorized("session expired")
	}

	s.mu.Lock()
	s.user, s.token = &u, token
	s.mu.Unlock()
	s.remote.SetToken(token)
	return u, nil
}

// Logout forgets the session locally.
func (s *Session) Logout() error {
	s.mu.Lock()
	s.user, s.token = nil, ""
	s.mu.Unlock()
	s.remote.SetToken("")

	return errors.Join(s.kv.Remove(kvstore.KeyToken), s.kv.Remove(kvstore.KeyUser))
}

// Current returns the signed-in user.
func (s *Session) Current() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return model.User{}, false
	}
	return *s.user, true
}

// Token returns the bearer token of the session, or "".
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Expired reads the exp claim of token without verifying its signature;
// only the server can do that. A token without exp never expires.
func Expired(token string, now time.Time) (bool, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false, apperr.Unauthorized("malformed token")
	}
	if claims.ExpiresAt == nil {
		return false, nil
	}
	return !now.Before(claims.ExpiresAt.Time), nil
}

// VerifyOTP checks the format of code and compares it with the code that
// was sent.
func VerifyOTP(code, sent string) error {
	if err := model.ValidateOTP(code); err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(code), []byte(sent)) != 1 {
		return apperr.Unauthorized("wrong verification code")
	}
	return nil
}
