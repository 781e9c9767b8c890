package models

// Status is the session lifecycle state.
type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusVerifying     Status = "verifying"
	StatusAuthenticated Status = "authenticated"
	StatusAnonymous     Status = "anonymous"
)

// Snapshot is a read-only view of the session handed to consumers.
// The token is deliberately absent.
type Snapshot struct {
	User            *UserProfile
	IsAuthenticated bool
	Loading         bool
	Status          Status
}
