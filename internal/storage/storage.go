// Package storage is the server side stand-in for browser local storage:
// string values under string keys, scoped to one browser session.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a key holds no value.
var ErrNotFound = errors.New("storage: key not found")

// Backend is a flat key-value store shared by all sessions.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, key string) error
	Close() error
}

// LocalStorage is the per-session view of a Backend.
type LocalStorage interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

type scoped struct {
	backend   Backend
	sessionID string
}

// Scoped binds backend to a single session.
func Scoped(backend Backend, sessionID string) LocalStorage {
	return &scoped{backend: backend, sessionID: sessionID}
}

func (s *scoped) key(key string) string {
	return fmt.Sprintf("session:%s:%s", s.sessionID, key)
}

func (s *scoped) GetItem(ctx context.Context, key string) (string, error) {
	return s.backend.Get(ctx, s.key(key))
}

func (s *scoped) SetItem(ctx context.Context, key, value string) error {
	return s.backend.Set(ctx, s.key(key), value)
}

func (s *scoped) RemoveItem(ctx context.Context, key string) error {
	return s.backend.Del(ctx, s.key(key))
}
