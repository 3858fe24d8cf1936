package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"hanghub/internal/security"
	"hanghub/internal/session"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const identityContextKey ContextKey = "identity"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	sessions *session.Manager
	limiter  *security.RateLimiter
	csrf     *security.CSRFGenerator
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(sessions *session.Manager, limiter *security.RateLimiter, csrf *security.CSRFGenerator) *Middleware {
	return &Middleware{sessions: sessions, limiter: limiter, csrf: csrf}
}

// resolveIdentity reads and verifies the session cookie, clearing it when it
// no longer verifies
func (m *Middleware) resolveIdentity(w http.ResponseWriter, r *http.Request) *session.Identity {
	cookie, err := r.Cookie(session.CookieName)
	if err != nil {
		return nil
	}
	id, err := m.sessions.Verify(cookie.Value)
	if err != nil {
		if !errors.Is(err, session.ErrSessionExpired) {
			log.Printf("Rejected session cookie: %v", err)
		}
		http.SetCookie(w, security.CreateDeleteCookie(r, session.CookieName))
		return nil
	}
	return id
}

// RequireParent only admits parent sessions
func (m *Middleware) RequireParent(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := m.resolveIdentity(w, r)
		if id == nil || !id.IsParent() {
			respondWithError(w, http.StatusUnauthorized, "Parent login required", nil)
			return
		}
		ctx := context.WithValue(r.Context(), identityContextKey, id)
		next(w, r.WithContext(ctx))
	}
}

// RequireChild only admits child sessions
func (m *Middleware) RequireChild(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := m.resolveIdentity(w, r)
		if id == nil || !id.IsChild() {
			respondWithError(w, http.StatusUnauthorized, "Kid login required", nil)
			return
		}
		ctx := context.WithValue(r.Context(), identityContextKey, id)
		next(w, r.WithContext(ctx))
	}
}

// RequireAuth admits any valid session
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := m.resolveIdentity(w, r)
		if id == nil {
			respondWithError(w, http.StatusUnauthorized, "Login required", nil)
			return
		}
		ctx := context.WithValue(r.Context(), identityContextKey, id)
		next(w, r.WithContext(ctx))
	}
}

// RateLimit throttles a handler per client IP. Used on credential and token
// endpoints.
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r)
		if !m.limiter.Allow(ip) {
			respondWithError(w, http.StatusTooManyRequests, "Too many attempts, slow down", nil)
			return
		}
		next(w, r)
	}
}

// CSRFProtect validates the X-CSRF-Token header on state-changing requests
// from a logged-in session
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(session.CookieName)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "Login required", nil)
			return
		}
		token := r.Header.Get("X-CSRF-Token")
		if !m.csrf.ValidateToken(cookie.Value, token) {
			respondWithError(w, http.StatusForbidden, "Invalid CSRF token", nil)
			return
		}
		next(w, r)
	}
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// IdentityFromContext retrieves the authenticated identity from the request
// context
func IdentityFromContext(ctx context.Context) *session.Identity {
	id, ok := ctx.Value(identityContextKey).(*session.Identity)
	if !ok {
		return nil
	}
	return id
}
