package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"hanghub/internal/models"
	"hanghub/internal/repository"
	"hanghub/internal/security"
	"hanghub/internal/validation"
)

// AuthService owns parent and child account lifecycle and credential checks
type AuthService struct {
	parents *repository.ParentRepository
	users   *repository.UserRepository
	email   *EmailService
}

// NewAuthService creates a new auth service
func NewAuthService(parents *repository.ParentRepository, users *repository.UserRepository, email *EmailService) *AuthService {
	return &AuthService{parents: parents, users: users, email: email}
}

// RegisterParent creates a parent account and sends the verification email
func (s *AuthService) RegisterParent(email, password, name string) (*models.Parent, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}

	existing, err := s.parents.GetParentByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}

	parent := &models.Parent{
		ID:                uuid.New().String(),
		Email:             email,
		PasswordHash:      hash,
		Name:              strings.TrimSpace(name),
		VerificationToken: uuid.New().String(),
	}
	if err := s.parents.CreateParent(parent); err != nil {
		return nil, err
	}

	toEmail, toName, token := parent.Email, parent.Name, parent.VerificationToken
	s.email.Dispatch("verification", func(ctx context.Context) error {
		return s.email.SendVerificationEmail(ctx, toEmail, toName, token)
	})
	return parent, nil
}

// LoginParent checks parent credentials
func (s *AuthService) LoginParent(email, password string) (*models.Parent, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	parent, err := s.parents.GetParentByEmail(email)
	if err != nil {
		return nil, err
	}
	if parent == nil || !security.CheckPassword(password, parent.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return parent, nil
}

// VerifyEmail confirms a parent's address via the emailed token
func (s *AuthService) VerifyEmail(token string) (*models.Parent, error) {
	parent, err := s.parents.GetParentByVerificationToken(token)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, fmt.Errorf("%w: unknown verification token", ErrNotFound)
	}
	if err := s.parents.MarkEmailVerified(parent.ID); err != nil {
		return nil, err
	}
	parent.EmailVerified = true
	parent.VerificationToken = ""
	return parent, nil
}

// UpsertOAuthParent finds or creates the parent behind an OAuth login. An
// existing account with the same email is linked rather than duplicated.
func (s *AuthService) UpsertOAuthParent(provider, subject, email, name string) (*models.Parent, error) {
	parent, err := s.parents.GetParentByOAuth(provider, subject)
	if err != nil {
		return nil, err
	}
	if parent != nil {
		return parent, nil
	}

	email = strings.ToLower(strings.TrimSpace(email))
	parent, err = s.parents.GetParentByEmail(email)
	if err != nil {
		return nil, err
	}
	if parent != nil {
		// Known email arriving over a fresh provider login; link it
		log.Printf("Linking OAuth identity to existing parent %s", parent.ID)
		return parent, nil
	}

	// The provider vouches for the address, so no verification round trip
	parent = &models.Parent{
		ID:            uuid.New().String(),
		Email:         email,
		PasswordHash:  "-",
		Name:          name,
		EmailVerified: true,
		OAuthProvider: provider,
		OAuthSubject:  subject,
	}
	if err := s.parents.CreateParent(parent); err != nil {
		return nil, err
	}
	return parent, nil
}

// CreateChild adds a child account under a parent. The parent's email must
// be verified first, since approval requests go to that address.
func (s *AuthService) CreateChild(parentID, username, displayName, pin string) (*models.User, error) {
	parent, err := s.parents.GetParentByID(parentID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, fmt.Errorf("%w: unknown parent", ErrNotFound)
	}
	if !parent.EmailVerified {
		return nil, fmt.Errorf("%w: verify your email before adding kids", ErrInvalidState)
	}

	username = validation.NormalizeUsername(username)
	if err := validation.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := validation.ValidateName(displayName); err != nil {
		return nil, err
	}
	if err := validation.ValidatePIN(pin); err != nil {
		return nil, err
	}

	existing, err := s.users.GetUserByUsername(username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: username is taken", ErrConflict)
	}

	pinHash, err := security.HashPassword(pin)
	if err != nil {
		return nil, err
	}

	child := &models.User{
		ID:          uuid.New().String(),
		ParentID:    parentID,
		Username:    username,
		DisplayName: strings.TrimSpace(displayName),
		PinHash:     pinHash,
	}
	if err := s.users.CreateUser(child); err != nil {
		return nil, err
	}
	return child, nil
}

// LoginChild checks child credentials and marks them online
func (s *AuthService) LoginChild(username, pin string) (*models.User, error) {
	username = validation.NormalizeUsername(username)
	child, err := s.users.GetUserByUsername(username)
	if err != nil {
		return nil, err
	}
	if child == nil || !security.CheckPassword(pin, child.PinHash) {
		return nil, ErrInvalidCredentials
	}

	if err := s.users.SetOnline(child.ID, true); err != nil {
		log.Printf("Failed to mark child online: %v", err)
	}
	child.IsOnline = true
	return child, nil
}

// LogoutChild marks a child offline
func (s *AuthService) LogoutChild(userID string) {
	if err := s.users.SetOnline(userID, false); err != nil {
		log.Printf("Failed to mark child offline: %v", err)
	}
}

// ResetChildPIN lets a parent set a new PIN for their own child
func (s *AuthService) ResetChildPIN(parentID, childID, newPIN string) error {
	if err := validation.ValidatePIN(newPIN); err != nil {
		return err
	}
	child, err := s.users.GetUserByID(childID)
	if err != nil {
		return err
	}
	if child == nil {
		return fmt.Errorf("%w: unknown child", ErrNotFound)
	}
	if child.ParentID != parentID {
		return fmt.Errorf("%w: not your child", ErrUnauthorized)
	}

	hash, err := security.HashPassword(newPIN)
	if err != nil {
		return err
	}
	return s.users.UpdatePinHash(childID, hash)
}

// UpdateAvatar sets a child's avatar URL
func (s *AuthService) UpdateAvatar(userID, avatarURL string) error {
	return s.users.UpdateAvatar(userID, strings.TrimSpace(avatarURL))
}

// GetChildren retrieves a parent's children
func (s *AuthService) GetChildren(parentID string) ([]models.User, error) {
	return s.users.GetParentChildren(parentID)
}

// GetParent retrieves a parent by ID
func (s *AuthService) GetParent(parentID string) (*models.Parent, error) {
	parent, err := s.parents.GetParentByID(parentID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, fmt.Errorf("%w: unknown parent", ErrNotFound)
	}
	return parent, nil
}

// GetUser retrieves a child by ID
func (s *AuthService) GetUser(userID string) (*models.User, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: unknown user", ErrNotFound)
	}
	return user, nil
}
