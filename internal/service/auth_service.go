package service

import (
	"context"
	"fmt"

	"CapIot.portal/internal/client"
	"CapIot.portal/internal/models"
	"CapIot.portal/internal/storage"
	"github.com/charmbracelet/log"
)

// AuthService stores and clears the session's auth token. The token is
// opaque here; the remote API is the one that validates it.
type AuthService struct {
	api client.API
}

func NewAuthService(api client.API) *AuthService {
	return &AuthService{api: api}
}

// Login exchanges credentials for a token and keeps it in the session.
func (s *AuthService) Login(ctx context.Context, store storage.LocalStorage, creds models.LoginRequest) error {
	resp, err := s.api.Login(ctx, creds)
	if err != nil {
		return err
	}
	if err := store.SetItem(ctx, AuthTokenKey, resp.Token); err != nil {
		return fmt.Errorf("store auth token: %w", err)
	}
	log.Info("User logged in", "username", creds.Username)
	return nil
}

// Logout forgets the session's token. Cached datapoints are kept.
func (s *AuthService) Logout(ctx context.Context, store storage.LocalStorage) error {
	if err := store.RemoveItem(ctx, AuthTokenKey); err != nil {
		return fmt.Errorf("remove auth token: %w", err)
	}
	return nil
}

// LoggedIn reports whether the session holds a non-empty token.
func (s *AuthService) LoggedIn(ctx context.Context, store storage.LocalStorage) bool {
	token, err := store.GetItem(ctx, AuthTokenKey)
	return err == nil && token != ""
}
