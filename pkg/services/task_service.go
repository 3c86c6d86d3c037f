package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/acme/taskmanager/pkg/apperrors"
	"github.com/acme/taskmanager/pkg/models"
	"github.com/acme/taskmanager/pkg/repositories"
)

// TaskService provides task operations scoped to the owning user.
type TaskService interface {
	// Create stores a task for an existing user. An empty status becomes PENDING.
	Create(ctx context.Context, userID int64, task models.Task) (*models.Task, error)
	Update(ctx context.Context, userID, taskID int64, patch models.TaskPatch) error
	Delete(ctx context.Context, userID, taskID int64) error
	GetInfo(ctx context.Context, userID, taskID int64) (*models.TaskInfo, error)
	ListForUser(ctx context.Context, userID int64) ([]models.Task, error)
}

type taskService struct {
	taskRepo repositories.TaskRepository
	userRepo repositories.UserRepository
	logger   *zap.Logger
}

// NewTaskService creates a new task service.
func NewTaskService(
	taskRepo repositories.TaskRepository,
	userRepo repositories.UserRepository,
	logger *zap.Logger,
) TaskService {
	return &taskService{
		taskRepo: taskRepo,
		userRepo: userRepo,
		logger:   logger.Named("task-service"),
	}
}

var _ TaskService = (*taskService)(nil)

func (s *taskService) Create(ctx context.Context, userID int64, task models.Task) (*models.Task, error) {
	if strings.TrimSpace(task.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", apperrors.ErrInvalidArgument)
	}

	exists, err := s.userRepo.ExistsByID(ctx, userID)
	if err != nil {
		s.logger.Error("Could not create task", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("user %d: %w", userID, apperrors.ErrNotFound)
	}

	task.ID = 0
	task.UserID = userID
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}

	created, err := s.taskRepo.Save(ctx, task)
	if err != nil {
		s.logger.Error("Could not create task", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return &created, nil
}

func (s *taskService) Update(ctx context.Context, userID, taskID int64, patch models.TaskPatch) error {
	if name, ok := patch.Name.Get(); ok && strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name must not be blank", apperrors.ErrInvalidArgument)
	}

	if err := s.requireOwned(ctx, userID, taskID); err != nil {
		return err
	}

	count, err := s.taskRepo.UpdateNonNull(ctx, taskID, patch)
	if err != nil {
		s.logger.Error("Could not update task",
			zap.Int64("user_id", userID),
			zap.Int64("task_id", taskID),
			zap.Error(err))
		return fmt.Errorf("failed to update task: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("task %d: %w", taskID, apperrors.ErrNotFound)
	}
	return nil
}

func (s *taskService) Delete(ctx context.Context, userID, taskID int64) error {
	if err := s.requireOwned(ctx, userID, taskID); err != nil {
		return err
	}

	if err := s.taskRepo.DeleteByID(ctx, taskID); err != nil {
		s.logger.Error("Could not delete task",
			zap.Int64("user_id", userID),
			zap.Int64("task_id", taskID),
			zap.Error(err))
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func (s *taskService) GetInfo(ctx context.Context, userID, taskID int64) (*models.TaskInfo, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, apperrors.ErrNotFound)
	}

	task, err := s.taskRepo.FindByIDAndUserID(ctx, taskID, userID)
	if err != nil {
		s.logger.Error("Could not get task info",
			zap.Int64("user_id", userID),
			zap.Int64("task_id", taskID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil {
		return nil, fmt.Errorf("task %d: %w", taskID, apperrors.ErrNotFound)
	}

	return &models.TaskInfo{Task: *task, User: *user}, nil
}

func (s *taskService) ListForUser(ctx context.Context, userID int64) ([]models.Task, error) {
	exists, err := s.userRepo.ExistsByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("user %d: %w", userID, apperrors.ErrNotFound)
	}

	tasks, err := s.taskRepo.FindAllByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("Could not list tasks", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// requireOwned returns ErrNotFound unless taskID exists and belongs to userID.
func (s *taskService) requireOwned(ctx context.Context, userID, taskID int64) error {
	exists, err := s.taskRepo.ExistsByIDAndUserID(ctx, taskID, userID)
	if err != nil {
		return fmt.Errorf("failed to check task: %w", err)
	}
	if !exists {
		return fmt.Errorf("task %d of user %d: %w", taskID, userID, apperrors.ErrNotFound)
	}
	return nil
}
