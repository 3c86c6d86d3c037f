package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/acme/taskmanager/pkg/services"
)

// TasksHandler handles task requests nested under a user.
type TasksHandler struct {
	taskService services.TaskService
	logger      *zap.Logger
}

// NewTasksHandler creates a new tasks handler.
func NewTasksHandler(taskService services.TaskService, logger *zap.Logger) *TasksHandler {
	return &TasksHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// RegisterRoutes registers the tasks handler's routes on the given mux.
func (h *TasksHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/user/{userId}/task", h.Create)
	mux.HandleFunc("GET /api/user/{userId}/task", h.List)
	mux.HandleFunc("GET /api/user/{userId}/task/{taskId}", h.Get)
	mux.HandleFunc("PUT /api/user/{userId}/task/{taskId}", h.Update)
	mux.HandleFunc("DELETE /api/user/{userId}/task/{taskId}", h.Delete)
}

// Create handles POST /api/user/{userId}/task
func (h *TasksHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if req.Name == nil {
		writeError(w, h.logger, http.StatusBadRequest, "missing_name", "Name is required")
		return
	}

	task, err := h.taskService.Create(r.Context(), userID, req.toTask())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, newTaskResponse(*task))
}

// Update handles PUT /api/user/{userId}/task/{taskId}
func (h *TasksHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := ParseUserAndTaskIDs(w, r, h.logger)
	if !ok {
		return
	}

	var req TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.taskService.Update(r.Context(), userID, taskID, req.toPatch()); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/user/{userId}/task/{taskId}
func (h *TasksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := ParseUserAndTaskIDs(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), userID, taskID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Get handles GET /api/user/{userId}/task/{taskId}
// Returns the task with its owner embedded.
func (h *TasksHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := ParseUserAndTaskIDs(w, r, h.logger)
	if !ok {
		return
	}

	info, err := h.taskService.GetInfo(r.Context(), userID, taskID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, newTaskInfoResponse(*info))
}

// List handles GET /api/user/{userId}/task
func (h *TasksHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListForUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	resp := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		resp = append(resp, newTaskResponse(t))
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}
