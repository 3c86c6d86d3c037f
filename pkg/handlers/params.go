package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

// ParseUserID extracts and validates the user ID from the request path.
// Returns the ID and true on success, or 0 and false on error
// (after writing an error response).
// Expects path parameter: userId
func ParseUserID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	return parseID(w, r, "userId", "invalid_user_id", "Invalid user ID", logger)
}

// ParseTaskID extracts and validates the task ID from the request path.
// Expects path parameter: taskId
func ParseTaskID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	return parseID(w, r, "taskId", "invalid_task_id", "Invalid task ID", logger)
}

// ParseUserAndTaskIDs extracts and validates both user and task IDs.
// Expects path parameters: userId, taskId
func ParseUserAndTaskIDs(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, int64, bool) {
	userID, ok := ParseUserID(w, r, logger)
	if !ok {
		return 0, 0, false
	}

	taskID, ok := ParseTaskID(w, r, logger)
	if !ok {
		return 0, 0, false
	}

	return userID, taskID, true
}

// parseID parses a positive int64 path parameter.
func parseID(w http.ResponseWriter, r *http.Request, pathParam, errorCode, errorMessage string, logger *zap.Logger) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(pathParam), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, logger, http.StatusBadRequest, errorCode, errorMessage)
		return 0, false
	}
	return id, true
}
