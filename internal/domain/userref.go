package domain

import (
	"bytes"
	"encoding/json"
)

// UserRef is a weak reference to a user. It never owns the referenced
// user and never guarantees its continued existence; liveness is checked
// against the user directory when a cached lead is served.
//
// Upstream payloads carry assignments in two shapes: a bare user id
// ("u-42") or a resolved display object ({"id":"u-42","name":"…"}).
// UnmarshalJSON normalizes both at the decode boundary, so every consumer
// downstream sees a single representation instead of type-branching.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Resolved reports whether the reference carries display fields beyond
// the raw identifier.
func (u *UserRef) Resolved() bool {
	return u != nil && (u.Name != "" || u.Email != "")
}

// UnmarshalJSON accepts either a JSON string (unresolved id) or an object
// (resolved reference). Anything else is a decode error.
func (u *UserRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*u = UserRef{ID: id}
		return nil
	}
	type plain UserRef // avoid recursing into this method
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*u = UserRef(p)
	return nil
}
