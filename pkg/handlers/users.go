package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/acme/taskmanager/pkg/services"
)

// UsersHandler handles user-related HTTP requests.
type UsersHandler struct {
	userService services.UserService
	logger      *zap.Logger
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(userService services.UserService, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{
		userService: userService,
		logger:      logger,
	}
}

// RegisterRoutes registers the users handler's routes on the given mux.
func (h *UsersHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/user", h.Create)
	mux.HandleFunc("GET /api/user", h.List)
	mux.HandleFunc("GET /api/user/{userId}", h.Get)
	mux.HandleFunc("PUT /api/user/{userId}", h.Update)
}

// Create handles POST /api/user
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	if req.Username == nil {
		writeError(w, h.logger, http.StatusBadRequest, "missing_username", "Username is required")
		return
	}

	user, err := h.userService.Create(r.Context(), req.toUser())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, newUserResponse(*user))
}

// Update handles PUT /api/user/{userId}
// Only fields present and non-null in the body are changed.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	if err := h.userService.Update(r.Context(), userID, req.toPatch()); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Get handles GET /api/user/{userId}
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	user, err := h.userService.Get(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, newUserInfoResponse(*user))
}

// List handles GET /api/user
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, newUserResponse(u))
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}
