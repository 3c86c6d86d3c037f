package models

import "github.com/acme/taskmanager/pkg/store"

// User is the principal that owns tasks.
type User struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

// UserPatch is a partial User. Absent fields are left untouched.
type UserPatch struct {
	Username  store.Field[string]
	FirstName store.Field[string]
	LastName  store.Field[string]
}

// Attributes implements store.Partial.
func (p UserPatch) Attributes() []store.Attribute {
	return []store.Attribute{
		store.Attr("username", p.Username),
		store.Attr("first_name", p.FirstName),
		store.Attr("last_name", p.LastName),
	}
}
