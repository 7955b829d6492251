package service

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"path"
	"strings"
	"time"

	"notekeeper/internal/apperr"
	"notekeeper/internal/model"
	"notekeeper/internal/repository"

	"github.com/o1egl/govatar"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AvatarDir holds generated avatars inside the data directory.
const AvatarDir = "avatars"

// AuthService registers accounts and exchanges credentials for tokens.
type AuthService struct {
	users  repository.UserRepository
	tokens *Tokens
	fs     afero.Fs
	log    *zap.Logger
}

// NewAuthService creates the service. Avatars are written to fs when it is not nil.
func NewAuthService(users repository.UserRepository, tokens *Tokens, fs afero.Fs, log *zap.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, fs: fs, log: log}
}

func (s *AuthService) Register(ctx context.Context, reg model.Registration) (model.AuthResult, error) {
	if err := reg.Validate(); err != nil {
		return model.AuthResult{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	avatar, err := s.generateAvatar(reg.Email)
	if err != nil {
		// avatar is optional
		s.log.Warn("avatar generation failed", zap.String("email", reg.Email), zap.Error(err))
	}

	u, err := s.users.Create(ctx, model.User{Name: reg.Name, Email: reg.Email, Avatar: avatar}, string(hash))
	if err != nil {
		return model.AuthResult{}, err
	}
	s.log.Info("user registered", zap.String("email", u.Email))
	return s.issue(u)
}

func (s *AuthService) Login(ctx context.Context, creds model.Credentials) (model.AuthResult, error) {
	if err := creds.Validate(); err != nil {
		return model.AuthResult{}, err
	}

	u, hash, err := s.users.GetByEmail(ctx, creds.Email)
	if errors.Is(err, apperr.ErrNotFound) {
		return model.AuthResult{}, apperr.Unauthorized("invalid credentials")
	}
	if err != nil {
		return model.AuthResult{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(creds.Password)); err != nil {
		return model.AuthResult{}, apperr.Unauthorized("invalid credentials")
	}
	return s.issue(u)
}

// Me returns the account behind a verified token.
func (s *AuthService) Me(ctx context.Context, email string) (model.User, error) {
	u, _, err := s.users.GetByEmail(ctx, email)
	return u, err
}

func (s *AuthService) issue(u model.User) (model.AuthResult, error) {
	token, err := s.tokens.Issue(u)
	if err != nil {
		return model.AuthResult{}, fmt.Errorf("sign token: %w", err)
	}
	return model.AuthResult{Token: token, User: u}, nil
}

// generateAvatar renders a PNG avatar and returns its path relative to the data dir.
func (s *AuthService) generateAvatar(email string) (string, error) {
	if s.fs == nil {
		return "", nil
	}

	gender := govatar.MALE
	if len(email)%2 == 0 {
		gender = govatar.FEMALE
	}
	img, err := govatar.GenerateForUsername(gender, email)
	if err != nil {
		return "", fmt.Errorf("generate avatar: %w", err)
	}

	if err := s.fs.MkdirAll(AvatarDir, 0o755); err != nil {
		return "", err
	}
	local := strings.NewReplacer("@", "_", ".", "_").Replace(email)
	name := path.Join(AvatarDir, fmt.Sprintf("%s_%d.png", local, time.Now().UnixNano()))
	f, err := s.fs.Create(name)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return "", fmt.Errorf("encode avatar: %w", err)
	}
	return name, nil
}
