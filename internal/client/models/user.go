// Package models defines client-side data models used by the session client.
package models

import "time"

// UserProfile is the server's view of the signed-in user. It is always
// replaced as a whole from a server response, never merged field by field.
type UserProfile struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Surname   string     `json:"surname"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	CreatedAt time.Time  `json:"createdAt"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

// Clone returns a deep copy so callers can't mutate shared state.
func (u *UserProfile) Clone() *UserProfile {
	if u == nil {
		return nil
	}
	c := *u
	if u.LastLogin != nil {
		t := *u.LastLogin
		c.LastLogin = &t
	}
	return &c
}

// Registration is the payload for creating an account.
type Registration struct {
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// ProfilePatch carries the editable profile fields. Nil fields are omitted
// from the request.
type ProfilePatch struct {
	Name    *string `json:"name,omitempty"`
	Surname *string `json:"surname,omitempty"`
	Phone   *string `json:"phone,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ProfilePatch) Empty() bool {
	return p.Name == nil && p.Surname == nil && p.Phone == nil
}
