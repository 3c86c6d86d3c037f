package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acme/taskmanager/pkg/apperrors"
	"github.com/acme/taskmanager/pkg/models"
)

func newTasksMux(svc *mockTaskService) *http.ServeMux {
	mux := http.NewServeMux()
	NewTasksHandler(svc, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestTasksHandler_Create(t *testing.T) {
	svc := &mockTaskService{}
	rec := serve(newTasksMux(svc), http.MethodPost, "/api/user/5/task",
		`{"name":"report","description":"q3","date_time":"2024-03-01 09:30:00"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, TaskResponse{ID: 1, Name: "report"}, decodeBody[TaskResponse](t, rec))

	assert.Equal(t, int64(5), svc.userID)
	assert.Equal(t, "report", svc.createdTask.Name)
	require.NotNil(t, svc.createdTask.DateTime)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), *svc.createdTask.DateTime)
	assert.Empty(t, svc.createdTask.Status, "status default is applied by the service")
}

func TestTasksHandler_Create_Validation(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"missing name", `{"description":"x"}`, "missing_name"},
		{"bad date format", `{"name":"x","date_time":"2024-03-01T09:30:00Z"}`, "invalid_request"},
		{"malformed json", `{"name":`, "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newTasksMux(&mockTaskService{}), http.MethodPost, "/api/user/5/task", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantCode, decodeBody[map[string]string](t, rec)["error"])
		})
	}
}

func TestTasksHandler_Create_MissingUser(t *testing.T) {
	rec := serve(newTasksMux(&mockTaskService{err: apperrors.ErrNotFound}), http.MethodPost, "/api/user/5/task", `{"name":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTasksHandler_Update_PresentFieldsOnly(t *testing.T) {
	svc := &mockTaskService{}
	rec := serve(newTasksMux(svc), http.MethodPut, "/api/user/5/task/9", `{"status":"DONE","name":null}`)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(5), svc.userID)
	assert.Equal(t, int64(9), svc.taskID)

	status, ok := svc.updatePatch.Status.Get()
	assert.True(t, ok)
	assert.Equal(t, models.TaskStatusDone, status)
	assert.False(t, svc.updatePatch.Name.IsPresent())
	assert.False(t, svc.updatePatch.DateTime.IsPresent())
	assert.False(t, svc.updatePatch.Description.IsPresent())
}

func TestTasksHandler_Update_NotFound(t *testing.T) {
	rec := serve(newTasksMux(&mockTaskService{err: apperrors.ErrNotFound}), http.MethodPut, "/api/user/5/task/9", `{"name":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTasksHandler_Delete(t *testing.T) {
	svc := &mockTaskService{}
	rec := serve(newTasksMux(svc), http.MethodDelete, "/api/user/5/task/9", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, svc.deleted)

	rec = serve(newTasksMux(&mockTaskService{err: apperrors.ErrNotFound}), http.MethodDelete, "/api/user/5/task/9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTasksHandler_Get(t *testing.T) {
	when := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	svc := &mockTaskService{info: &models.TaskInfo{
		Task: models.Task{ID: 9, UserID: 5, Name: "report", DateTime: &when, Status: models.TaskStatusPending},
		User: models.User{ID: 5, Username: "alice"},
	}}
	rec := serve(newTasksMux(svc), http.MethodGet, "/api/user/5/task/9", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"id": 9,
		"name": "report",
		"date_time": "2024-03-01 09:30:00",
		"status": "PENDING",
		"user": {"id": 5, "username": "alice"}
	}`, rec.Body.String())
}

func TestTasksHandler_List(t *testing.T) {
	svc := &mockTaskService{tasks: []models.Task{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}}
	rec := serve(newTasksMux(svc), http.MethodGet, "/api/user/5/task", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []TaskResponse{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}, decodeBody[[]TaskResponse](t, rec))

	rec = serve(newTasksMux(&mockTaskService{err: apperrors.ErrNotFound}), http.MethodGet, "/api/user/5/task", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTasksHandler_MethodNotAllowed(t *testing.T) {
	rec := serve(newTasksMux(&mockTaskService{}), http.MethodPatch, "/api/user/5/task/9", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
