package repositories

import (
	"context"
	"fmt"

	"github.com/acme/taskmanager/pkg/models"
	"github.com/acme/taskmanager/pkg/store"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Save(ctx context.Context, user models.User) (models.User, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindAll(ctx context.Context) ([]models.User, error)
	// UpdateNonNull writes the present fields of patch and returns the number
	// of rows affected.
	UpdateNonNull(ctx context.Context, id int64, patch models.UserPatch) (int64, error)
}

var userSchema = store.Schema[models.User, int64]{
	Kind:    "user",
	ID:      "id",
	Columns: []string{"id", "username", "first_name", "last_name"},
	Dest: func(u *models.User) []any {
		return []any{&u.ID, &u.Username, &u.FirstName, &u.LastName}
	},
	Values: func(u models.User) []store.Attribute {
		return []store.Attribute{
			{Name: "id", Value: u.ID, Present: u.ID != 0},
			{Name: "username", Value: u.Username, Present: true},
			{Name: "first_name", Value: u.FirstName, Present: true},
			{Name: "last_name", Value: u.LastName, Present: true},
		}
	},
}

// userRepository implements UserRepository on the generic entity store.
type userRepository struct {
	users   *store.Store[models.User, int64]
	updater *store.Updater[models.UserPatch, int64]
}

// NewUserRepository creates a new user repository on backend.
func NewUserRepository(backend store.Backend) (UserRepository, error) {
	users, err := store.NewStore(backend, userSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to create user store: %w", err)
	}
	return &userRepository{
		users:   users,
		updater: store.NewUpdater[models.UserPatch, int64](users),
	}, nil
}

func (r *userRepository) Save(ctx context.Context, user models.User) (models.User, error) {
	return r.users.Insert(ctx, user)
}

func (r *userRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	return r.users.ExistsByID(ctx, id)
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return r.users.FindByID(ctx, id)
}

func (r *userRepository) FindAll(ctx context.Context) ([]models.User, error) {
	return r.users.FindWhere(ctx, store.Criteria{}, store.OrderBy("id"))
}

func (r *userRepository) UpdateNonNull(ctx context.Context, id int64, patch models.UserPatch) (int64, error) {
	return r.updater.ApplyPartial(ctx, id, patch)
}

// Ensure userRepository implements UserRepository at compile time.
var _ UserRepository = (*userRepository)(nil)
