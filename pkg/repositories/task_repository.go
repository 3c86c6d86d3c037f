package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/acme/taskmanager/pkg/models"
	"github.com/acme/taskmanager/pkg/store"
)

const (
	taskUserID   = "user_id"
	taskStatus   = "status"
	taskDateTime = "date_time"
)

// TaskRepository defines the interface for task data access.
type TaskRepository interface {
	Save(ctx context.Context, task models.Task) (models.Task, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	ExistsByIDAndUserID(ctx context.Context, taskID, userID int64) (bool, error)
	FindByID(ctx context.Context, id int64) (*models.Task, error)
	FindByIDAndUserID(ctx context.Context, taskID, userID int64) (*models.Task, error)
	FindAllByUserID(ctx context.Context, userID int64) ([]models.Task, error)
	UpdateNonNull(ctx context.Context, id int64, patch models.TaskPatch) (int64, error)
	DeleteByID(ctx context.Context, id int64) error

	// FindExpirable returns at most limit tasks in status from whose date_time
	// is at or before cutoff, oldest first.
	FindExpirable(ctx context.Context, status models.TaskStatus, cutoff time.Time, limit int) ([]models.Task, error)
	// TransitionStatus sets status to to on every given task in one statement.
	// Rows are matched by id only; their current status is not re-checked.
	TransitionStatus(ctx context.Context, ids []int64, to models.TaskStatus) (int64, error)
}

var taskSchema = store.Schema[models.Task, int64]{
	Kind:    "task",
	ID:      "id",
	Columns: []string{"id", taskUserID, "name", "description", taskDateTime, taskStatus},
	Dest: func(t *models.Task) []any {
		return []any{&t.ID, &t.UserID, &t.Name, &t.Description, &t.DateTime, &t.Status}
	},
	Values: func(t models.Task) []store.Attribute {
		return []store.Attribute{
			{Name: "id", Value: t.ID, Present: t.ID != 0},
			{Name: taskUserID, Value: t.UserID, Present: true},
			{Name: "name", Value: t.Name, Present: true},
			{Name: "description", Value: t.Description, Present: true},
			{Name: taskDateTime, Value: t.DateTime, Present: true},
			{Name: taskStatus, Value: t.Status, Present: t.Status != ""},
		}
	},
}

// taskRepository implements TaskRepository on the generic entity store.
type taskRepository struct {
	tasks   *store.Store[models.Task, int64]
	updater *store.Updater[models.TaskPatch, int64]
}

// NewTaskRepository creates a new task repository on backend.
func NewTaskRepository(backend store.Backend) (TaskRepository, error) {
	tasks, err := store.NewStore(backend, taskSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to create task store: %w", err)
	}
	return &taskRepository{
		tasks:   tasks,
		updater: store.NewUpdater[models.TaskPatch, int64](tasks),
	}, nil
}

func (r *taskRepository) byIDAndUser(taskID, userID int64) store.Criteria {
	return r.tasks.ByID(taskID).And(taskUserID).Is(userID)
}

func (r *taskRepository) Save(ctx context.Context, task models.Task) (models.Task, error) {
	return r.tasks.Insert(ctx, task)
}

func (r *taskRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	return r.tasks.ExistsByID(ctx, id)
}

func (r *taskRepository) ExistsByIDAndUserID(ctx context.Context, taskID, userID int64) (bool, error) {
	return r.tasks.ExistsWhere(ctx, r.byIDAndUser(taskID, userID))
}

func (r *taskRepository) FindByID(ctx context.Context, id int64) (*models.Task, error) {
	return r.tasks.FindByID(ctx, id)
}

func (r *taskRepository) FindByIDAndUserID(ctx context.Context, taskID, userID int64) (*models.Task, error) {
	return r.tasks.FindOne(ctx, r.byIDAndUser(taskID, userID))
}

func (r *taskRepository) FindAllByUserID(ctx context.Context, userID int64) ([]models.Task, error) {
	return r.tasks.FindWhere(ctx, store.Where(taskUserID).Is(userID), store.OrderBy("id"))
}

func (r *taskRepository) UpdateNonNull(ctx context.Context, id int64, patch models.TaskPatch) (int64, error) {
	return r.updater.ApplyPartial(ctx, id, patch)
}

func (r *taskRepository) DeleteByID(ctx context.Context, id int64) error {
	return r.tasks.DeleteByID(ctx, id)
}

func (r *taskRepository) FindExpirable(ctx context.Context, status models.TaskStatus, cutoff time.Time, limit int) ([]models.Task, error) {
	c := store.Where(taskStatus).Is(status).And(taskDateTime).LessThanOrEquals(cutoff)
	return r.tasks.FindWhere(ctx, c,
		store.OrderBy(taskDateTime),
		store.OrderBy("id"),
		store.Limit(limit),
	)
}

func (r *taskRepository) TransitionStatus(ctx context.Context, ids []int64, to models.TaskStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return r.tasks.UpdateSet(ctx,
		store.Where(r.tasks.IDColumn()).In(store.Values(ids)...),
		store.Assignments{taskStatus: to},
	)
}

// Ensure taskRepository implements TaskRepository at compile time.
var _ TaskRepository = (*taskRepository)(nil)
