package middleware

import (
	"context"
	"net/http"
	"strings"

	"CapIot.portal/internal/storage"
	"github.com/google/uuid"
)

const (
	// SessionCookie names the cookie that identifies a browser.
	SessionCookie = "capiot_session"
	// SessionHeader lets scripted clients pick their session without cookies.
	// The session ID is a bearer credential: whoever presents it owns the
	// session, whether by cookie or by header.
	SessionHeader = "X-Session-ID"
)

type storageKey struct{}

// Sessions hands every request the local storage of its browser session,
// creating a session cookie on first visit. SessionHeader is only read on
// paths under headerPrefix; pages always go by the cookie.
type Sessions struct {
	backend      storage.Backend
	secure       bool
	headerPrefix string
}

// NewSessions creates the session middleware. An empty headerPrefix
// disables SessionHeader.
func NewSessions(backend storage.Backend, secure bool, headerPrefix string) *Sessions {
	return &Sessions{backend: backend, secure: secure, headerPrefix: headerPrefix}
}

func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := s.sessionID(r)
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.secure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		ctx := WithStorage(r.Context(), storage.Scoped(s.backend, id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Sessions) sessionID(r *http.Request) string {
	if s.headerPrefix != "" && strings.HasPrefix(r.URL.Path, s.headerPrefix) {
		if v := r.Header.Get(SessionHeader); valid(v) {
			return v
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil && valid(c.Value) {
		return c.Value
	}
	return ""
}

func valid(id string) bool {
	_, err := uuid.Parse(id)
	return id != "" && err == nil
}

// WithStorage attaches a session's local storage to ctx.
func WithStorage(ctx context.Context, store storage.LocalStorage) context.Context {
	return context.WithValue(ctx, storageKey{}, store)
}

// Storage returns the local storage attached by the session middleware.
func Storage(ctx context.Context) (storage.LocalStorage, bool) {
	store, ok := ctx.Value(storageKey{}).(storage.LocalStorage)
	return store, ok
}
