package client

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
)

// AuthResult is a successful login or registration.
type AuthResult struct {
	User    *models.UserProfile
	Token   string
	Message string
}

// Client is the identity API contract. Implementations hold no session
// state and never touch durable storage.
type Client interface {
	Verify(ctx context.Context, token string) (*models.UserProfile, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Register(ctx context.Context, reg models.Registration) (*AuthResult, error)
	Logout(ctx context.Context, token string) error
	UpdateProfile(ctx context.Context, token string, patch models.ProfilePatch) (*models.UserProfile, error)
}
