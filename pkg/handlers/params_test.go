package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestParseUserID(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name       string
		pathValue  string
		wantOK     bool
		wantID     int64
		wantStatus int
		wantError  string
	}{
		{name: "valid id", pathValue: "42", wantOK: true, wantID: 42},
		{name: "not a number", pathValue: "abc", wantStatus: http.StatusBadRequest, wantError: "invalid_user_id"},
		{name: "empty", pathValue: "", wantStatus: http.StatusBadRequest, wantError: "invalid_user_id"},
		{name: "zero", pathValue: "0", wantStatus: http.StatusBadRequest, wantError: "invalid_user_id"},
		{name: "negative", pathValue: "-3", wantStatus: http.StatusBadRequest, wantError: "invalid_user_id"},
		{name: "overflow", pathValue: "99999999999999999999", wantStatus: http.StatusBadRequest, wantError: "invalid_user_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.SetPathValue("userId", tt.pathValue)
			rec := httptest.NewRecorder()

			id, ok := ParseUserID(rec, req, logger)

			if ok != tt.wantOK {
				t.Errorf("ParseUserID() ok = %v, want %v", ok, tt.wantOK)
			}
			if id != tt.wantID {
				t.Errorf("ParseUserID() id = %d, want %d", id, tt.wantID)
			}

			if !tt.wantOK {
				if rec.Code != tt.wantStatus {
					t.Errorf("ParseUserID() status = %v, want %v", rec.Code, tt.wantStatus)
				}

				var resp map[string]string
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if resp["error"] != tt.wantError {
					t.Errorf("ParseUserID() error = %v, want %v", resp["error"], tt.wantError)
				}
			}
		})
	}
}

func TestParseUserAndTaskIDs(t *testing.T) {
	logger := zap.NewNop()

	t.Run("both valid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.SetPathValue("userId", "1")
		req.SetPathValue("taskId", "2")
		rec := httptest.NewRecorder()

		userID, taskID, ok := ParseUserAndTaskIDs(rec, req, logger)
		if !ok || userID != 1 || taskID != 2 {
			t.Errorf("ParseUserAndTaskIDs() = (%d, %d, %v), want (1, 2, true)", userID, taskID, ok)
		}
	})

	t.Run("invalid task id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.SetPathValue("userId", "1")
		req.SetPathValue("taskId", "x")
		rec := httptest.NewRecorder()

		_, _, ok := ParseUserAndTaskIDs(rec, req, logger)
		if ok {
			t.Fatal("expected failure")
		}

		var resp map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp["error"] != "invalid_task_id" {
			t.Errorf("error = %v, want invalid_task_id", resp["error"])
		}
	})
}
