package model

import (
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"notekeeper/internal/apperr"
)

// User is the account the session belongs to.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the sign-up request body.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is returned by login and register.
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

const (
	MinPasswordLength = 8
	MaxNameLength     = 100
)

// Validate checks the login fields before any network call.
func (c *Credentials) Validate() error {
	c.Email = strings.TrimSpace(c.Email)
	if err := ValidateEmail(c.Email); err != nil {
		return err
	}
	if c.Password == "" {
		return apperr.Validation("password", "must not be empty")
	}
	return nil
}

// Validate checks the sign-up fields, including password strength.
func (r *Registration) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	if r.Name == "" {
		return apperr.Validation("name", "must not be empty")
	}
	if utf8.RuneCountInString(r.Name) > MaxNameLength {
		return apperr.Validation("name", "must be at most 100 characters")
	}
	if err := ValidateEmail(r.Email); err != nil {
		return err
	}
	return ValidatePassword(r.Password)
}

// ValidateEmail accepts a bare address, without display name.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		return apperr.Validation("email", "is not a valid address")
	}
	return nil
}

// ValidatePassword requires MinPasswordLength characters with an upper case
// letter, a lower case letter and a digit.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return apperr.Validation("password", "must be at least 8 characters")
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return apperr.Validation("password", "must contain upper case, lower case and a digit")
	}
	return nil
}

// ValidateOTP accepts exactly six ASCII digits.
func ValidateOTP(code string) error {
	if len(code) != 6 {
		return apperr.Validation("otp", "must be 6 digits")
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return apperr.Validation("otp", "must be 6 digits")
		}
	}
	return nil
}
