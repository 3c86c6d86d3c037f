package models

import (
	"time"

	"github.com/acme/taskmanager/pkg/store"
)

// TaskStatus is the free-form state of a task.
type TaskStatus string

// Status values used by the application. Other values are stored as given.
const (
	TaskStatusPending TaskStatus = "PENDING"
	TaskStatusDone    TaskStatus = "DONE"
)

// Task belongs to exactly one user.
type Task struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	DateTime    *time.Time `json:"date_time,omitempty"`
	Status      TaskStatus `json:"status"`
}

// TaskPatch is a partial Task. The owner cannot be changed through a patch.
type TaskPatch struct {
	Name        store.Field[string]
	Description store.Field[string]
	DateTime    store.Field[time.Time]
	Status      store.Field[TaskStatus]
}

// Attributes implements store.Partial.
func (p TaskPatch) Attributes() []store.Attribute {
	return []store.Attribute{
		store.Attr("name", p.Name),
		store.Attr("description", p.Description),
		store.Attr("date_time", p.DateTime),
		store.Attr("status", p.Status),
	}
}

// TaskInfo is a task together with its owner.
type TaskInfo struct {
	Task
	User User `json:"user"`
}
