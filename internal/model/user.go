package model

import (
	"encoding/json"
	"fmt"
)

// User is the authenticated account as returned by the login endpoint.
// Fields the client does not use are kept in Extra so they survive a save/load cycle.
type User struct {
	Extra map[string]json.RawMessage `json:"-"`
	Email string                     `json:"email"`
	Name  string                     `json:"name,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (u *User) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("user: %w", err)
	}

	var out User
	if v, ok := raw["email"]; ok {
		if err := json.Unmarshal(v, &out.Email); err != nil {
			return fmt.Errorf("user email: %w", err)
		}
		delete(raw, "email")
	}
	if v, ok := raw["name"]; ok {
		if err := json.Unmarshal(v, &out.Name); err != nil {
			return fmt.Errorf("user name: %w", err)
		}
		delete(raw, "name")
	}
	if len(raw) > 0 {
		out.Extra = raw
	}

	*u = out
	return nil
}

// MarshalJSON implements json.Marshaler.
func (u User) MarshalJSON() ([]byte, error) {
	raw := make(map[string]any, len(u.Extra)+2)
	for k, v := range u.Extra {
		raw[k] = v
	}
	raw["email"] = u.Email
	if u.Name != "" {
		raw["name"] = u.Name
	}
	return json.Marshal(raw)
}
