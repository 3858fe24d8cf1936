package service

import (
	"errors"
	"testing"
)

func TestRegisterAndLoginParent(t *testing.T) {
	env := newTestEnv(t)

	parent, err := env.auth.RegisterParent("Parent@Example.com", "password123", "Pat")
	if err != nil {
		t.Fatalf("RegisterParent() error = %v", err)
	}
	if parent.Email != "parent@example.com" {
		t.Errorf("email = %v, want lowercased", parent.Email)
	}
	if parent.EmailVerified {
		t.Error("new parent should start unverified")
	}
	if parent.VerificationToken == "" {
		t.Error("new parent should carry a verification token")
	}

	if _, err := env.auth.RegisterParent("parent@example.com", "password123", "Pat"); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate RegisterParent() error = %v, want ErrConflict", err)
	}

	if _, err := env.auth.LoginParent("parent@example.com", "password123"); err != nil {
		t.Errorf("LoginParent() error = %v", err)
	}
	if _, err := env.auth.LoginParent("parent@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("LoginParent(bad password) error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := env.auth.LoginParent("nobody@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("LoginParent(unknown) error = %v, want ErrInvalidCredentials", err)
	}
}

func TestVerifyEmail(t *testing.T) {
	env := newTestEnv(t)
	parent, err := env.auth.RegisterParent("parent@example.com", "password123", "Pat")
	if err != nil {
		t.Fatalf("RegisterParent() error = %v", err)
	}

	verified, err := env.auth.VerifyEmail(parent.VerificationToken)
	if err != nil {
		t.Fatalf("VerifyEmail() error = %v", err)
	}
	if !verified.EmailVerified {
		t.Error("VerifyEmail() should flip the verified flag")
	}

	// The token is cleared on use
	if _, err := env.auth.VerifyEmail(parent.VerificationToken); !errors.Is(err, ErrNotFound) {
		t.Errorf("second VerifyEmail() error = %v, want ErrNotFound", err)
	}
}

func TestUpsertOAuthParent(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.auth.UpsertOAuthParent("google", "sub-123", "oauth@example.com", "Pat")
	if err != nil {
		t.Fatalf("UpsertOAuthParent() error = %v", err)
	}
	if !first.EmailVerified {
		t.Error("OAuth parent should be verified from the start")
	}

	again, err := env.auth.UpsertOAuthParent("google", "sub-123", "oauth@example.com", "Pat")
	if err != nil {
		t.Fatalf("repeat UpsertOAuthParent() error = %v", err)
	}
	if again.ID != first.ID {
		t.Error("repeat OAuth login must resolve to the same account")
	}

	// An existing email account links instead of duplicating
	registered, err := env.auth.RegisterParent("known@example.com", "password123", "Sam")
	if err != nil {
		t.Fatalf("RegisterParent() error = %v", err)
	}
	linked, err := env.auth.UpsertOAuthParent("google", "sub-456", "known@example.com", "Sam")
	if err != nil {
		t.Fatalf("UpsertOAuthParent(existing email) error = %v", err)
	}
	if linked.ID != registered.ID {
		t.Error("OAuth login with a known email must link to that account")
	}
}

func TestCreateAndLoginChild(t *testing.T) {
	env := newTestEnv(t)
	parent := env.mustParent(t, "parent@example.com")

	child, err := env.auth.CreateChild(parent.ID, "SamKid", "Sam", "1234")
	if err != nil {
		t.Fatalf("CreateChild() error = %v", err)
	}
	if child.Username != "samkid" {
		t.Errorf("username = %v, want normalized samkid", child.Username)
	}

	if _, err := env.auth.CreateChild(parent.ID, "samkid", "Other", "9999"); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate CreateChild() error = %v, want ErrConflict", err)
	}
	if _, err := env.auth.CreateChild(parent.ID, "badkid", "Bad", "12"); err == nil {
		t.Error("CreateChild() with short PIN should fail validation")
	}

	logged, err := env.auth.LoginChild("SAMKID", "1234")
	if err != nil {
		t.Fatalf("LoginChild() error = %v", err)
	}
	if !logged.IsOnline {
		t.Error("LoginChild() should mark the child online")
	}
	if _, err := env.auth.LoginChild("samkid", "0000"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("LoginChild(bad pin) error = %v, want ErrInvalidCredentials", err)
	}

	env.auth.LogoutChild(child.ID)
	reloaded, _ := env.auth.GetUser(child.ID)
	if reloaded.IsOnline {
		t.Error("LogoutChild() should mark the child offline")
	}
}

func TestCreateChildNeedsVerifiedEmail(t *testing.T) {
	env := newTestEnv(t)
	parent, err := env.auth.RegisterParent("fresh@example.com", "password123", "Pat")
	if err != nil {
		t.Fatalf("RegisterParent() error = %v", err)
	}

	if _, err := env.auth.CreateChild(parent.ID, "samkid", "Sam", "1234"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("CreateChild() before verification error = %v, want ErrInvalidState", err)
	}

	if _, err := env.auth.VerifyEmail(parent.VerificationToken); err != nil {
		t.Fatalf("VerifyEmail() error = %v", err)
	}
	if _, err := env.auth.CreateChild(parent.ID, "samkid", "Sam", "1234"); err != nil {
		t.Errorf("CreateChild() after verification error = %v", err)
	}
}

func TestResetChildPIN(t *testing.T) {
	env := newTestEnv(t)
	parent := env.mustParent(t, "parent@example.com")
	other := env.mustParent(t, "other@example.com")
	child := env.mustChild(t, parent.ID, "samkid")

	if err := env.auth.ResetChildPIN(other.ID, child.ID, "5678"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("ResetChildPIN() by wrong parent error = %v, want ErrUnauthorized", err)
	}
	if err := env.auth.ResetChildPIN(parent.ID, child.ID, "5678"); err != nil {
		t.Fatalf("ResetChildPIN() error = %v", err)
	}

	if _, err := env.auth.LoginChild("samkid", "1234"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old PIN should stop working, error = %v", err)
	}
	if _, err := env.auth.LoginChild("samkid", "5678"); err != nil {
		t.Errorf("new PIN should work, error = %v", err)
	}
}

func TestUpdateAvatar(t *testing.T) {
	env := newTestEnv(t)
	parent := env.mustParent(t, "parent@example.com")
	child := env.mustChild(t, parent.ID, "samkid")

	if err := env.auth.UpdateAvatar(child.ID, "/avatars/fox.png"); err != nil {
		t.Fatalf("UpdateAvatar() error = %v", err)
	}
	reloaded, _ := env.auth.GetUser(child.ID)
	if reloaded.AvatarURL != "/avatars/fox.png" {
		t.Errorf("avatar = %v, want /avatars/fox.png", reloaded.AvatarURL)
	}
}
