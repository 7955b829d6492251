package service

import (
	"context"
	"time"

	"notekeeper/internal/apperr"
	"notekeeper/internal/model"
	"notekeeper/internal/repository"
)

type TaskService struct {
	tasks repository.TaskRepository
	now   func() time.Time
}

func NewTaskService(tasks repository.TaskRepository) *TaskService {
	return &TaskService{tasks: tasks, now: time.Now}
}

func (s *TaskService) List(ctx context.Context, owner string, day model.Day) ([]model.DailyTask, error) {
	if !day.Valid() {
		return nil, apperr.Validation("date", "must be formatted as YYYY-MM-DD")
	}
	return s.tasks.List(ctx, owner, day)
}

func (s *TaskService) Create(ctx context.Context, owner string, draft model.TaskDraft) (model.DailyTask, error) {
	if err := draft.Validate(); err != nil {
		return model.DailyTask{}, err
	}
	now := s.now().UTC()
	return s.tasks.Create(ctx, model.DailyTask{
		Text:       draft.Text,
		Date:       draft.Date,
		OwnerEmail: owner,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

func (s *TaskService) Update(ctx context.Context, owner, id string, patch model.TaskPatch) (model.DailyTask, error) {
	if err := patch.Validate(); err != nil {
		return model.DailyTask{}, err
	}
	task, err := s.tasks.Get(ctx, owner, id)
	if err != nil {
		return model.DailyTask{}, err
	}
	patch.Apply(&task)
	task.UpdatedAt = advance(task.UpdatedAt, s.now())
	return s.tasks.Update(ctx, task)
}

func (s *TaskService) Delete(ctx context.Context, owner, id string) error {
	return s.tasks.Delete(ctx, owner, id)
}
