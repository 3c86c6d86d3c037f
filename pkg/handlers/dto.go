package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/acme/taskmanager/pkg/models"
	"github.com/acme/taskmanager/pkg/store"
)

// DateTimeLayout is the wire format of task timestamps.
const DateTimeLayout = "2006-01-02 15:04:05"

// DateTime is a timestamp encoded as DateTimeLayout in UTC.
type DateTime time.Time

func (d DateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(d).UTC().Format(DateTimeLayout))
}

func (d *DateTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date_time must be a string: %w", err)
	}
	t, err := time.ParseInLocation(DateTimeLayout, s, time.UTC)
	if err != nil {
		return fmt.Errorf("date_time must match %q: %w", DateTimeLayout, err)
	}
	*d = DateTime(t)
	return nil
}

func (d *DateTime) timePtr() *time.Time {
	if d == nil {
		return nil
	}
	t := time.Time(*d)
	return &t
}

func dateTimeFrom(t *time.Time) *DateTime {
	if t == nil {
		return nil
	}
	d := DateTime(*t)
	return &d
}

// UserRequest is the body of user create and update requests. On update a
// missing or null field leaves the stored value unchanged.
type UserRequest struct {
	Username  *string `json:"username"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

func (r UserRequest) toUser() models.User {
	u := models.User{FirstName: r.FirstName, LastName: r.LastName}
	if r.Username != nil {
		u.Username = *r.Username
	}
	return u
}

func (r UserRequest) toPatch() models.UserPatch {
	return models.UserPatch{
		Username:  store.FromPtr(r.Username),
		FirstName: store.FromPtr(r.FirstName),
		LastName:  store.FromPtr(r.LastName),
	}
}

// UserResponse is returned by create and list.
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// UserInfoResponse is the full view of a user.
type UserInfoResponse struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

func newUserResponse(u models.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username}
}

func newUserInfoResponse(u models.User) UserInfoResponse {
	return UserInfoResponse{ID: u.ID, Username: u.Username, FirstName: u.FirstName, LastName: u.LastName}
}

// TaskRequest is the body of task create and update requests.
type TaskRequest struct {
	Name        *string            `json:"name"`
	Description *string            `json:"description"`
	DateTime    *DateTime          `json:"date_time"`
	Status      *models.TaskStatus `json:"status"`
}

func (r TaskRequest) toTask() models.Task {
	t := models.Task{Description: r.Description, DateTime: r.DateTime.timePtr()}
	if r.Name != nil {
		t.Name = *r.Name
	}
	if r.Status != nil {
		t.Status = *r.Status
	}
	return t
}

func (r TaskRequest) toPatch() models.TaskPatch {
	return models.TaskPatch{
		Name:        store.FromPtr(r.Name),
		Description: store.FromPtr(r.Description),
		DateTime:    store.FromPtr(r.DateTime.timePtr()),
		Status:      store.FromPtr(r.Status),
	}
}

// TaskResponse is returned by create and list.
type TaskResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TaskInfoResponse is a task with its owner embedded.
type TaskInfoResponse struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Description *string           `json:"description,omitempty"`
	DateTime    *DateTime         `json:"date_time,omitempty"`
	Status      models.TaskStatus `json:"status,omitempty"`
	User        UserInfoResponse  `json:"user"`
}

func newTaskResponse(t models.Task) TaskResponse {
	return TaskResponse{ID: t.ID, Name: t.Name}
}

func newTaskInfoResponse(info models.TaskInfo) TaskInfoResponse {
	return TaskInfoResponse{
		ID:          info.ID,
		Name:        info.Name,
		Description: info.Description,
		DateTime:    dateTimeFrom(info.DateTime),
		Status:      info.Status,
		User:        newUserInfoResponse(info.User),
	}
}
