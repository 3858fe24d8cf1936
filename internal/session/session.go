package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the session cookie used for both parent and child sessions
const CookieName = "session"

// Role identifies the kind of account behind a session
type Role string

const (
	RoleParent Role = "parent"
	RoleChild  Role = "child"
)

var (
	ErrInvalidSession = errors.New("invalid session")
	ErrSessionExpired = errors.New("session expired")
)

// Identity is the authenticated caller, passed explicitly into workflow
// calls. Authorization decisions key off Role and UserID, never off request
// parameters.
type Identity struct {
	UserID        string
	ParentID      string // set for child sessions: the owning parent
	Name          string
	Role          Role
	EmailVerified bool
}

// IsParent reports whether the identity is a parent session
func (i Identity) IsParent() bool {
	return i.Role == RoleParent
}

// IsChild reports whether the identity is a child session
func (i Identity) IsChild() bool {
	return i.Role == RoleChild
}

type claims struct {
	ParentID      string `json:"parentId,omitempty"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"emailVerified,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and verifies session tokens. Sessions are stateless signed
// JWTs carried in an HttpOnly cookie; no server-side session table exists.
type Manager struct {
	secret   []byte
	duration time.Duration
}

// NewManager creates a session manager with the given signing secret
func NewManager(secret string, duration time.Duration) *Manager {
	return &Manager{secret: []byte(secret), duration: duration}
}

// Issue signs a session token for the identity and returns it with its expiry
func (m *Manager) Issue(id Identity) (string, time.Time, error) {
	expires := time.Now().Add(m.duration)

	c := claims{
		ParentID:      id.ParentID,
		Name:          id.Name,
		Role:          string(id.Role),
		EmailVerified: id.EmailVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session: %w", err)
	}

	return token, expires, nil
}

// Verify parses a session token and returns the identity it carries
func (m *Manager) Verify(token string) (*Identity, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, ErrInvalidSession
	}
	if !parsed.Valid {
		return nil, ErrInvalidSession
	}

	role := Role(c.Role)
	if role != RoleParent && role != RoleChild {
		return nil, ErrInvalidSession
	}

	return &Identity{
		UserID:        c.Subject,
		ParentID:      c.ParentID,
		Name:          c.Name,
		Role:          role,
		EmailVerified: c.EmailVerified,
	}, nil
}
