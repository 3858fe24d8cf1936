package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hanghub/internal/database"
	"hanghub/internal/models"
	"hanghub/internal/repository"
	"hanghub/internal/security"
	"hanghub/internal/validation"
)

// QR invite token lifetimes. Each pipeline stage mints its own token with an
// independent expiry.
const (
	qrScanTTL     = 7 * 24 * time.Hour
	qrApprovalTTL = 48 * time.Hour
	qrSignupTTL   = 24 * time.Hour
)

// QRInviteService owns the QR onboarding pipeline: a kid shows a code in
// person, the scanner's parent approves over email, and only then does an
// account get created.
type QRInviteService struct {
	db      *database.DB
	invites *repository.QRInviteRepository
	users   *repository.UserRepository
	parents *repository.ParentRepository
	friends *repository.FriendRepository
	hangs   *repository.HangRepository
	email   *EmailService
}

// NewQRInviteService creates a new QR invite service
func NewQRInviteService(db *database.DB, invites *repository.QRInviteRepository,
	users *repository.UserRepository, parents *repository.ParentRepository,
	friends *repository.FriendRepository, hangs *repository.HangRepository,
	email *EmailService) *QRInviteService {
	return &QRInviteService{
		db:      db,
		invites: invites,
		users:   users,
		parents: parents,
		friends: friends,
		hangs:   hangs,
		email:   email,
	}
}

// Generate mints a new QR invite for a user to show in person
func (s *QRInviteService) Generate(inviterID, inviteType, hangID string) (*models.QRInvite, error) {
	switch inviteType {
	case models.QRInviteTypeFriend:
		hangID = ""
	case models.QRInviteTypeHang:
		if hangID == "" {
			return nil, fmt.Errorf("%w: hang invite needs a hang", ErrInvalidState)
		}
		hang, err := s.hangs.GetHangByID(hangID)
		if err != nil {
			return nil, err
		}
		if hang == nil {
			return nil, fmt.Errorf("%w: unknown hang", ErrNotFound)
		}
		if hang.CreatedBy != inviterID {
			participant, err := s.hangs.GetParticipant(s.db, hangID, inviterID)
			if err != nil {
				return nil, err
			}
			if participant == nil {
				return nil, fmt.Errorf("%w: not part of this hang", ErrUnauthorized)
			}
		}
	default:
		return nil, fmt.Errorf("%w: unknown invite type", ErrInvalidState)
	}

	invite := &models.QRInvite{
		ID:         uuid.New().String(),
		InviterID:  inviterID,
		HangID:     hangID,
		InviteType: inviteType,
		Status:     models.QRInvitePending,
		ExpiresAt:  time.Now().Add(qrScanTTL),
	}
	if err := s.invites.CreateInvite(invite); err != nil {
		return nil, err
	}
	return invite, nil
}

// Details resolves a scanned token to the invite shown on the landing page
func (s *QRInviteService) Details(token string) (*models.QRInvite, error) {
	invite, err := s.invites.GetByID(token)
	if err != nil {
		return nil, err
	}
	if invite == nil {
		return nil, fmt.Errorf("%w: unknown invite", ErrNotFound)
	}
	if invite.Status == models.QRInvitePending && invite.IsExpired() {
		return nil, fmt.Errorf("%w: invite expired", ErrInvalidState)
	}
	return invite, nil
}

// SubmitInfo records the scanner's name and parent email, then asks that
// parent for permission. Advances pending to scanned exactly once.
func (s *QRInviteService) SubmitInfo(token, inviteeName, parentEmail string) error {
	if err := validation.ValidateName(inviteeName); err != nil {
		return err
	}
	if err := validation.ValidateEmail(parentEmail); err != nil {
		return err
	}

	invite, err := s.invites.GetByID(token)
	if err != nil {
		return err
	}
	if invite == nil {
		return fmt.Errorf("%w: unknown invite", ErrNotFound)
	}
	if invite.IsExpired() {
		return fmt.Errorf("%w: invite expired", ErrInvalidState)
	}
	if !invite.Status.CanTransitionTo(models.QRInviteScanned) {
		return fmt.Errorf("%w: invite already used", ErrInvalidState)
	}

	approvalToken := uuid.New().String()
	ok, err := s.invites.MarkScanned(invite.ID, inviteeName, parentEmail, approvalToken, time.Now().Add(qrApprovalTTL))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: invite already used", ErrInvalidState)
	}

	inviterName := invite.InviterName
	s.email.Dispatch("qr-approval", func(ctx context.Context) error {
		return s.email.SendQRApprovalEmail(ctx, parentEmail, inviteeName, inviterName, approvalToken)
	})
	return nil
}

// Approve records the parent's consent and emails them the signup link
func (s *QRInviteService) Approve(approvalToken string) (*models.QRInvite, error) {
	invite, err := s.lookupForDecision(approvalToken)
	if err != nil {
		return nil, err
	}

	signupToken := uuid.New().String()
	ok, err := s.invites.MarkApproved(invite.ID, signupToken, time.Now().Add(qrSignupTTL))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: invite already decided", ErrInvalidState)
	}

	parentEmail, inviteeName := invite.ParentEmail, invite.InviteeName
	s.email.Dispatch("qr-signup", func(ctx context.Context) error {
		return s.email.SendQRSignupEmail(ctx, parentEmail, inviteeName, signupToken)
	})
	return invite, nil
}

// Decline records the parent's refusal. Terminal.
func (s *QRInviteService) Decline(approvalToken string) (*models.QRInvite, error) {
	invite, err := s.lookupForDecision(approvalToken)
	if err != nil {
		return nil, err
	}
	ok, err := s.invites.MarkDeclined(invite.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: invite already decided", ErrInvalidState)
	}
	return invite, nil
}

func (s *QRInviteService) lookupForDecision(approvalToken string) (*models.QRInvite, error) {
	invite, err := s.invites.GetByApprovalToken(approvalToken)
	if err != nil {
		return nil, err
	}
	if invite == nil {
		return nil, fmt.Errorf("%w: unknown approval link", ErrNotFound)
	}
	if invite.ApprovalTokenExpiresAt != nil && time.Now().After(*invite.ApprovalTokenExpiresAt) {
		return nil, fmt.Errorf("%w: approval link expired", ErrInvalidState)
	}
	return invite, nil
}

// SignupDetails resolves a signup token to the invite backing the account
// creation form
func (s *QRInviteService) SignupDetails(signupToken string) (*models.QRInvite, error) {
	invite, err := s.invites.GetBySignupToken(signupToken)
	if err != nil {
		return nil, err
	}
	if invite == nil {
		return nil, fmt.Errorf("%w: unknown signup link", ErrNotFound)
	}
	if invite.Status != models.QRInviteApproved {
		return nil, fmt.Errorf("%w: signup link already used", ErrInvalidState)
	}
	if invite.SignupTokenExpiresAt != nil && time.Now().After(*invite.SignupTokenExpiresAt) {
		return nil, fmt.Errorf("%w: signup link expired", ErrInvalidState)
	}
	return invite, nil
}

// CompleteSignup creates the invited kid's account under a brand new parent
// account, then links the new kid and the inviter as friends. An approval
// email address that already has an account is rejected so the existing
// parent logs in and adds the kid themselves.
func (s *QRInviteService) CompleteSignup(signupToken, parentName, parentPassword, username, pin string) (*models.User, error) {
	invite, err := s.SignupDetails(signupToken)
	if err != nil {
		return nil, err
	}

	username = validation.NormalizeUsername(username)
	if err := validation.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := validation.ValidatePIN(pin); err != nil {
		return nil, err
	}
	if existing, err := s.users.GetUserByUsername(username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("%w: username is taken", ErrConflict)
	}

	existing, err := s.parents.GetParentByEmail(invite.ParentEmail)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: an account exists for this email, log in to add your kid", ErrConflict)
	}

	if err := validation.ValidateName(parentName); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(parentPassword); err != nil {
		return nil, err
	}
	hash, err := security.HashPassword(parentPassword)
	if err != nil {
		return nil, err
	}
	// The parent reached this form through their own inbox, so the address
	// counts as verified
	parent := &models.Parent{
		ID:            uuid.New().String(),
		Email:         invite.ParentEmail,
		PasswordHash:  hash,
		Name:          parentName,
		EmailVerified: true,
	}

	pinHash, err := security.HashPassword(pin)
	if err != nil {
		return nil, err
	}
	child := &models.User{
		ID:          uuid.New().String(),
		ParentID:    parent.ID,
		Username:    username,
		DisplayName: invite.InviteeName,
	}
	child.PinHash = pinHash

	// Parent, child, friendship and invite resolution commit or roll back as
	// one unit, so a failed signup leaves no orphaned account behind
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ok, err := s.invites.MarkCompleted(tx, invite.ID, child.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: signup link already used", ErrInvalidState)
	}
	if err := s.parents.CreateParentTx(tx, parent); err != nil {
		return nil, err
	}
	if err := s.users.CreateUserTx(tx, child); err != nil {
		return nil, err
	}
	if err := s.friends.CreateFriendship(tx, invite.InviterID, child.ID); err != nil {
		return nil, err
	}
	if invite.InviteType == models.QRInviteTypeHang && invite.HangID != "" {
		if err := s.hangs.AddParticipant(tx, invite.HangID, child.ID, models.ApprovalUnpinged); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit signup: %w", err)
	}
	return child, nil
}
