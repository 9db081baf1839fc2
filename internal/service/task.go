package service

import (
	"context"
	"errors"

	"study-assistant-bot/internal/model"
	"study-assistant-bot/internal/pkg/lock"
	"study-assistant-bot/internal/repository"
)

// Task-related errors.
var (
	ErrTaskNotFound     = errors.New("task not found or inactive")
	ErrAlreadyCompleted = errors.New("task already completed")
)

// Level thresholds, in points.
const (
	levelTwoAt   = 50
	levelThreeAt = 150
	levelFourAt  = 300
	levelFiveAt  = 500
)

// Level maps a points balance to an account level from 1 to 5.
func Level(points int64) int {
	switch {
	case points < levelTwoAt:
		return 1
	case points < levelThreeAt:
		return 2
	case points < levelFourAt:
		return 3
	case points < levelFiveAt:
		return 4
	default:
		return 5
	}
}

// visibleAtLevel reports whether a task category is shown to an account of
// the given level. Beginners see a restricted subset; achievement tasks
// unlock last.
func visibleAtLevel(level int, category string) bool {
	switch {
	case level <= 1:
		return category == model.TaskCategoryChat ||
			category == model.TaskCategoryActivity ||
			category == model.TaskCategoryProfile
	case level <= 3:
		return category != model.TaskCategoryAchievement
	default:
		return true
	}
}

// TaskService lists level-gated tasks and settles completions.
type TaskService struct {
	taskRepo    *repository.TaskRepository
	accountRepo *repository.AccountRepository
	locks       *lock.AccountLock
}

// NewTaskService creates a new TaskService instance.
func NewTaskService(
	taskRepo *repository.TaskRepository,
	accountRepo *repository.AccountRepository,
	locks *lock.AccountLock,
) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		accountRepo: accountRepo,
		locks:       locks,
	}
}

// Available lists the active tasks visible to the account: not yet
// completed, and category-gated by the account's level.
func (s *TaskService) Available(ctx context.Context, account *model.Account) ([]*model.Task, error) {
	tasks, err := s.taskRepo.ListAvailable(ctx, account.TelegramID)
	if err != nil {
		return nil, err
	}

	level := Level(account.Points)
	visible := tasks[:0]
	for _, t := range tasks {
		if visibleAtLevel(level, t.Category) {
			visible = append(visible, t)
		}
	}
	return visible, nil
}

// Complete settles a task completion and credits its reward exactly once.
// Repeating the completion fails with ErrAlreadyCompleted.
func (s *TaskService) Complete(ctx context.Context, accountID, taskID int64) (int64, error) {
	var reward int64
	err := s.locks.WithLock(accountID, func() error {
		var err error
		reward, err = s.taskRepo.Complete(ctx, accountID, taskID)
		switch {
		case errors.Is(err, repository.ErrTaskNotFound):
			return ErrTaskNotFound
		case errors.Is(err, repository.ErrAlreadyCompleted):
			return ErrAlreadyCompleted
		}
		return err
	})
	if err != nil {
		return 0, err
	}
	return reward, nil
}

// CreateTask adds a new admin-defined task.
func (s *TaskService) CreateTask(ctx context.Context, link, description string, points int64) (*model.Task, error) {
	return s.taskRepo.Create(ctx, link, description, points, model.TaskCategoryGeneral)
}

// ListActive lists every active task, for the admin view.
func (s *TaskService) ListActive(ctx context.Context) ([]*model.Task, error) {
	return s.taskRepo.ListActive(ctx)
}

// DeactivateTask retires a task without touching its completion history.
func (s *TaskService) DeactivateTask(ctx context.Context, taskID int64) error {
	err := s.taskRepo.Deactivate(ctx, taskID)
	if errors.Is(err, repository.ErrTaskNotFound) {
		return ErrTaskNotFound
	}
	return err
}
