package services

import (
	"context"
	"sync"
	"time"

	"github.com/acme/taskmanager/pkg/models"
	"github.com/acme/taskmanager/pkg/repositories"
)

// mockUserRepository is a hand-written UserRepository double. Unset funcs
// return zero values.
type mockUserRepository struct {
	saveFn          func(ctx context.Context, user models.User) (models.User, error)
	existsByIDFn    func(ctx context.Context, id int64) (bool, error)
	findByIDFn      func(ctx context.Context, id int64) (*models.User, error)
	findAllFn       func(ctx context.Context) ([]models.User, error)
	updateNonNullFn func(ctx context.Context, id int64, patch models.UserPatch) (int64, error)

	updateCalls int
	lastPatch   models.UserPatch
}

var _ repositories.UserRepository = (*mockUserRepository)(nil)

func (m *mockUserRepository) Save(ctx context.Context, user models.User) (models.User, error) {
	if m.saveFn != nil {
		return m.saveFn(ctx, user)
	}
	return user, nil
}

func (m *mockUserRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	if m.existsByIDFn != nil {
		return m.existsByIDFn(ctx, id)
	}
	return false, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepository) FindAll(ctx context.Context) ([]models.User, error) {
	if m.findAllFn != nil {
		return m.findAllFn(ctx)
	}
	return nil, nil
}

func (m *mockUserRepository) UpdateNonNull(ctx context.Context, id int64, patch models.UserPatch) (int64, error) {
	m.updateCalls++
	m.lastPatch = patch
	if m.updateNonNullFn != nil {
		return m.updateNonNullFn(ctx, id, patch)
	}
	return 0, nil
}

// mockTaskRepository is a hand-written TaskRepository double. It is safe for
// use from the expiration loop goroutine.
type mockTaskRepository struct {
	saveFn                func(ctx context.Context, task models.Task) (models.Task, error)
	existsByIDAndUserIDFn func(ctx context.Context, taskID, userID int64) (bool, error)
	findByIDAndUserIDFn   func(ctx context.Context, taskID, userID int64) (*models.Task, error)
	findAllByUserIDFn     func(ctx context.Context, userID int64) ([]models.Task, error)
	updateNonNullFn       func(ctx context.Context, id int64, patch models.TaskPatch) (int64, error)
	deleteByIDFn          func(ctx context.Context, id int64) error
	findExpirableFn       func(ctx context.Context, status models.TaskStatus, cutoff time.Time, limit int) ([]models.Task, error)
	transitionStatusFn    func(ctx context.Context, ids []int64, to models.TaskStatus) (int64, error)

	mu              sync.Mutex
	savedTask       models.Task
	deleteCalls     int
	updateCalls     int
	findExpCalls    int
	transitionCalls int
	lastCutoff      time.Time
	lastLimit       int
	lastIDs         []int64
}

var _ repositories.TaskRepository = (*mockTaskRepository)(nil)

func (m *mockTaskRepository) Save(ctx context.Context, task models.Task) (models.Task, error) {
	m.mu.Lock()
	m.savedTask = task
	m.mu.Unlock()
	if m.saveFn != nil {
		return m.saveFn(ctx, task)
	}
	task.ID = 1
	return task, nil
}

func (m *mockTaskRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	return false, nil
}

func (m *mockTaskRepository) ExistsByIDAndUserID(ctx context.Context, taskID, userID int64) (bool, error) {
	if m.existsByIDAndUserIDFn != nil {
		return m.existsByIDAndUserIDFn(ctx, taskID, userID)
	}
	return false, nil
}

func (m *mockTaskRepository) FindByID(ctx context.Context, id int64) (*models.Task, error) {
	return nil, nil
}

func (m *mockTaskRepository) FindByIDAndUserID(ctx context.Context, taskID, userID int64) (*models.Task, error) {
	if m.findByIDAndUserIDFn != nil {
		return m.findByIDAndUserIDFn(ctx, taskID, userID)
	}
	return nil, nil
}

func (m *mockTaskRepository) FindAllByUserID(ctx context.Context, userID int64) ([]models.Task, error) {
	if m.findAllByUserIDFn != nil {
		return m.findAllByUserIDFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockTaskRepository) UpdateNonNull(ctx context.Context, id int64, patch models.TaskPatch) (int64, error) {
	m.mu.Lock()
	m.updateCalls++
	m.mu.Unlock()
	if m.updateNonNullFn != nil {
		return m.updateNonNullFn(ctx, id, patch)
	}
	return 0, nil
}

func (m *mockTaskRepository) DeleteByID(ctx context.Context, id int64) error {
	m.mu.Lock()
	m.deleteCalls++
	m.mu.Unlock()
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

func (m *mockTaskRepository) FindExpirable(ctx context.Context, status models.TaskStatus, cutoff time.Time, limit int) ([]models.Task, error) {
	m.mu.Lock()
	m.findExpCalls++
	m.lastCutoff = cutoff
	m.lastLimit = limit
	m.mu.Unlock()
	if m.findExpirableFn != nil {
		return m.findExpirableFn(ctx, status, cutoff, limit)
	}
	return nil, nil
}

func (m *mockTaskRepository) TransitionStatus(ctx context.Context, ids []int64, to models.TaskStatus) (int64, error) {
	m.mu.Lock()
	m.transitionCalls++
	m.lastIDs = append([]int64(nil), ids...)
	m.mu.Unlock()
	if m.transitionStatusFn != nil {
		return m.transitionStatusFn(ctx, ids, to)
	}
	return int64(len(ids)), nil
}

func (m *mockTaskRepository) calls() (findExp, transition int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findExpCalls, m.transitionCalls
}
