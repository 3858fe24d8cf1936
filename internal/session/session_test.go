package session

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	id := Identity{
		UserID:        "child-1",
		ParentID:      "parent-1",
		Name:          "Alex",
		Role:          RoleChild,
		EmailVerified: false,
	}

	token, expires, err := m.Issue(id)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if token == "" {
		t.Fatal("Issue() returned empty token")
	}
	if !expires.After(time.Now()) {
		t.Error("expiry should be in the future")
	}

	got, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if *got != id {
		t.Errorf("Verify() = %+v, want %+v", *got, id)
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	token, _, err := m.Issue(Identity{UserID: "u1", Name: "A", Role: RoleParent, EmailVerified: true})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	other := NewManager("different-secret", time.Hour)
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Verify() with wrong secret error = %v, want ErrInvalidSession", err)
	}

	if _, err := m.Verify(token + "x"); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Verify() with mangled token error = %v, want ErrInvalidSession", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := NewManager("test-secret", -time.Minute)

	token, _, err := m.Issue(Identity{UserID: "u1", Name: "A", Role: RoleParent})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := m.Verify(token); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("Verify() on expired token error = %v, want ErrSessionExpired", err)
	}
}

func TestVerifyRejectsUnknownRole(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	token, _, err := m.Issue(Identity{UserID: "u1", Name: "A", Role: Role("admin")})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := m.Verify(token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Verify() with unknown role error = %v, want ErrInvalidSession", err)
	}
}
