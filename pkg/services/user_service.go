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

// UserService provides user management operations.
type UserService interface {
	Create(ctx context.Context, user models.User) (*models.User, error)
	// Update applies the present fields of patch to an existing user.
	Update(ctx context.Context, userID int64, patch models.UserPatch) error
	Get(ctx context.Context, userID int64) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

type userService struct {
	userRepo repositories.UserRepository
	logger   *zap.Logger
}

// NewUserService creates a new user service.
func NewUserService(userRepo repositories.UserRepository, logger *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		logger:   logger.Named("user-service"),
	}
}

var _ UserService = (*userService)(nil)

func (s *userService) Create(ctx context.Context, user models.User) (*models.User, error) {
	if strings.TrimSpace(user.Username) == "" {
		return nil, fmt.Errorf("%w: username is required", apperrors.ErrInvalidArgument)
	}
	user.ID = 0

	created, err := s.userRepo.Save(ctx, user)
	if err != nil {
		s.logger.Error("Could not create user", zap.String("username", user.Username), zap.Error(err))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &created, nil
}

func (s *userService) Update(ctx context.Context, userID int64, patch models.UserPatch) error {
	if name, ok := patch.Username.Get(); ok && strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: username must not be blank", apperrors.ErrInvalidArgument)
	}

	exists, err := s.userRepo.ExistsByID(ctx, userID)
	if err != nil {
		s.logger.Error("Could not update user", zap.Int64("user_id", userID), zap.Error(err))
		return fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return fmt.Errorf("user %d: %w", userID, apperrors.ErrNotFound)
	}

	count, err := s.userRepo.UpdateNonNull(ctx, userID, patch)
	if err != nil {
		s.logger.Error("Could not update user", zap.Int64("user_id", userID), zap.Error(err))
		return fmt.Errorf("failed to update user: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("user %d: %w", userID, apperrors.ErrNotFound)
	}
	return nil
}

func (s *userService) Get(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		s.logger.Error("Could not find user", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, apperrors.ErrNotFound)
	}
	return user, nil
}

func (s *userService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		s.logger.Error("Could not list users", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
