package service

import (
	"errors"
	"time"

	"notekeeper/internal/apperr"
	"notekeeper/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

// Claims identify the account a token was issued to.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// Owner returns the user the claims describe.
func (c *Claims) Owner() model.User {
	return model.User{ID: c.UserID, Email: c.Email, Name: c.Name}
}

// Tokens issues and verifies HS256 session tokens.
type Tokens struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewTokens(secret string, expiry time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), expiry: expiry, now: time.Now}
}

// Issue signs a token for u.
func (t *Tokens) Issue(u model.User) (string, error) {
	now := t.now()
	claims := &Claims{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Email,
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Parse verifies the signature and expiry of raw.
func (t *Tokens) Parse(raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, apperr.Unauthorized("token expired")
	}
	if err != nil || !token.Valid {
		return nil, apperr.Unauthorized("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Email == "" {
		return nil, apperr.Unauthorized("invalid token claims")
	}
	return claims, nil
}
