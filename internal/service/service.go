package service

import (
	"notekeeper/internal/repository"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Services bundles the backend business logic over one repository.
type Services struct {
	Auth   *AuthService
	Notes  *NoteService
	Tasks  *TaskService
	Events *EventService
	Tokens *Tokens
}

func New(repo repository.Repository, tokens *Tokens, fs afero.Fs, log *zap.Logger) *Services {
	return &Services{
		Auth:   NewAuthService(repo.Users(), tokens, fs, log),
		Notes:  NewNoteService(repo.Notes(), log),
		Tasks:  NewTaskService(repo.Tasks()),
		Events: NewEventService(repo.Events()),
		Tokens: tokens,
	}
}
