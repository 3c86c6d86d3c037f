package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acme/taskmanager/pkg/metrics"
	"github.com/acme/taskmanager/pkg/models"
	"github.com/acme/taskmanager/pkg/repositories"
	"github.com/acme/taskmanager/pkg/store"
	"github.com/acme/taskmanager/pkg/testhelpers"
)

// Runs the job against real repositories on SQLite.
func TestExpirationService_RunOnce_SQLite(t *testing.T) {
	ctx := context.Background()
	backend := store.NewSQLiteBackend(testhelpers.NewSQLiteDB(t))
	userRepo, err := repositories.NewUserRepository(backend)
	require.NoError(t, err)
	taskRepo, err := repositories.NewTaskRepository(backend)
	require.NoError(t, err)

	user, err := userRepo.Save(ctx, models.User{Username: "alice"})
	require.NoError(t, err)

	save := func(name string, age time.Duration) models.Task {
		at := fixedNow.Add(-age)
		task, err := taskRepo.Save(ctx, models.Task{UserID: user.ID, Name: name, DateTime: &at, Status: models.TaskStatusPending})
		require.NoError(t, err)
		return task
	}
	var stale []models.Task
	for range 15 {
		stale = append(stale, save("stale", 10*24*time.Hour))
	}
	recent := save("recent", 2*24*time.Hour)
	future := save("future", -24*time.Hour)

	cfg := testExpirationConfig()
	svc := newExpirationService(taskRepo, cfg, metrics.NewExpirationMetrics(nil), zap.NewNop())
	svc.now = func() time.Time { return fixedNow }

	n, err := svc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), n, "one run is bounded by the limit")

	n, err = svc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	n, err = svc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	for _, task := range stale {
		found, err := taskRepo.FindByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusDone, found.Status)
	}
	for _, task := range []models.Task{recent, future} {
		found, err := taskRepo.FindByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusPending, found.Status, "task %s must not expire", task.Name)
	}
}
