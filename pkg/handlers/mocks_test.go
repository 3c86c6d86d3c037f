package handlers

import (
	"context"

	"github.com/acme/taskmanager/pkg/models"
	"github.com/acme/taskmanager/pkg/services"
)

// mockUserService is a configurable mock for handler tests.
type mockUserService struct {
	user  *models.User
	users []models.User
	err   error

	createdUser models.User
	updatedID   int64
	updatePatch models.UserPatch
}

var _ services.UserService = (*mockUserService)(nil)

func (m *mockUserService) Create(ctx context.Context, user models.User) (*models.User, error) {
	m.createdUser = user
	if m.err != nil {
		return nil, m.err
	}
	if m.user != nil {
		return m.user, nil
	}
	user.ID = 1
	return &user, nil
}

func (m *mockUserService) Update(ctx context.Context, userID int64, patch models.UserPatch) error {
	m.updatedID = userID
	m.updatePatch = patch
	return m.err
}

func (m *mockUserService) Get(ctx context.Context, userID int64) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.user != nil {
		return m.user, nil
	}
	return &models.User{ID: userID, Username: "test-user"}, nil
}

func (m *mockUserService) List(ctx context.Context) ([]models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.users, nil
}

// mockTaskService is a configurable mock for handler tests.
type mockTaskService struct {
	task  *models.Task
	info  *models.TaskInfo
	tasks []models.Task
	err   error

	userID      int64
	taskID      int64
	createdTask models.Task
	updatePatch models.TaskPatch
	deleted     bool
}

var _ services.TaskService = (*mockTaskService)(nil)

func (m *mockTaskService) Create(ctx context.Context, userID int64, task models.Task) (*models.Task, error) {
	m.userID = userID
	m.createdTask = task
	if m.err != nil {
		return nil, m.err
	}
	if m.task != nil {
		return m.task, nil
	}
	task.ID = 1
	task.UserID = userID
	return &task, nil
}

func (m *mockTaskService) Update(ctx context.Context, userID, taskID int64, patch models.TaskPatch) error {
	m.userID, m.taskID = userID, taskID
	m.updatePatch = patch
	return m.err
}

func (m *mockTaskService) Delete(ctx context.Context, userID, taskID int64) error {
	m.userID, m.taskID = userID, taskID
	if m.err != nil {
		return m.err
	}
	m.deleted = true
	return nil
}

func (m *mockTaskService) GetInfo(ctx context.Context, userID, taskID int64) (*models.TaskInfo, error) {
	m.userID, m.taskID = userID, taskID
	if m.err != nil {
		return nil, m.err
	}
	return m.info, nil
}

func (m *mockTaskService) ListForUser(ctx context.Context, userID int64) ([]models.Task, error) {
	m.userID = userID
	if m.err != nil {
		return nil, m.err
	}
	return m.tasks, nil
}
