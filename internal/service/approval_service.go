package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"hanghub/internal/database"
	"hanghub/internal/models"
	"hanghub/internal/repository"
)

// approvalTokenTTL is how long an emailed approve/decline link stays valid
const approvalTokenTTL = 7 * 24 * time.Hour

// ApprovalService owns the parental approval workflow: pinging a parent,
// redeeming emailed tokens and cancelling approvals.
type ApprovalService struct {
	db         *database.DB
	hangs      *repository.HangRepository
	tokens     *repository.TokenRepository
	users      *repository.UserRepository
	parents    *repository.ParentRepository
	activities *repository.ActivityRepository
	email      *EmailService
}

// NewApprovalService creates a new approval service
func NewApprovalService(db *database.DB, hangs *repository.HangRepository, tokens *repository.TokenRepository,
	users *repository.UserRepository, parents *repository.ParentRepository,
	activities *repository.ActivityRepository, email *EmailService) *ApprovalService {
	return &ApprovalService{
		db:         db,
		hangs:      hangs,
		tokens:     tokens,
		users:      users,
		parents:    parents,
		activities: activities,
		email:      email,
	}
}

// RedemptionResult is what a parent clicking an emailed link learns
type RedemptionResult struct {
	Action          string `json:"action"`
	AlreadyResolved bool   `json:"alreadyResolved"`
	HangTitle       string `json:"hangTitle"`
	ChildName       string `json:"childName"`
}

// PingParentTx moves a participant from unpinged to pending and mints the
// approve/decline token pair, all inside the caller's transaction. The caller
// dispatches the email after commit so a rollback never leaks live links.
func (s *ApprovalService) PingParentTx(tx database.DBTX, hangID, childID string) (approveToken, declineToken string, err error) {
	ok, err := s.hangs.UpdateParticipantApproval(tx, hangID, childID, models.ApprovalUnpinged, models.ApprovalPending)
	if err != nil {
		return "", "", err
	}
	if !ok {
		return "", "", fmt.Errorf("%w: parent already asked", ErrInvalidState)
	}

	expires := time.Now().Add(approvalTokenTTL)
	approve := &models.ApprovalToken{
		ID:        uuid.New().String(),
		HangID:    hangID,
		ChildID:   childID,
		Action:    models.TokenActionApprove,
		ExpiresAt: expires,
	}
	decline := &models.ApprovalToken{
		ID:        uuid.New().String(),
		HangID:    hangID,
		ChildID:   childID,
		Action:    models.TokenActionDecline,
		ExpiresAt: expires,
	}
	if err := s.tokens.CreateTokenPair(tx, approve, decline); err != nil {
		return "", "", err
	}
	return approve.ID, decline.ID, nil
}

// SendApprovalEmail delivers the approve/decline links to a child's parent in
// the background
func (s *ApprovalService) SendApprovalEmail(childID string, hang *models.Hang, approveToken, declineToken string) {
	child, err := s.users.GetUserByID(childID)
	if err != nil || child == nil {
		log.Printf("Approval email skipped: child %s not found", childID)
		return
	}
	parent, err := s.parents.GetParentByID(child.ParentID)
	if err != nil || parent == nil {
		log.Printf("Approval email skipped: parent of child %s not found", childID)
		return
	}

	title, scheduledAt := hang.Title, hang.ScheduledAt
	s.email.Dispatch("hang-approval", func(ctx context.Context) error {
		return s.email.SendHangApprovalEmail(ctx, parent.Email, child.DisplayName, title, scheduledAt, approveToken, declineToken)
	})
}

// Redeem applies an emailed approve or decline token. Either member of a pair
// redeems the whole pair; a second visit with either link reports the action
// that actually applied instead of failing.
func (s *ApprovalService) Redeem(token string) (*RedemptionResult, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	t, err := s.tokens.GetToken(tx, token)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: unknown approval token", ErrNotFound)
	}

	hang, err := s.hangs.GetHangByID(t.HangID)
	if err != nil {
		return nil, err
	}
	child, err := s.users.GetUserByID(t.ChildID)
	if err != nil {
		return nil, err
	}
	if hang == nil || child == nil {
		return nil, fmt.Errorf("%w: hang or child no longer exists", ErrNotFound)
	}

	result := &RedemptionResult{HangTitle: hang.Title, ChildName: child.DisplayName}

	if t.Used {
		// The pair was already redeemed. Report the action that was
		// applied then, which may differ from this link's action.
		result.Action = t.ResolvedAction
		result.AlreadyResolved = true
		return result, nil
	}
	if t.IsExpired() {
		return nil, fmt.Errorf("%w: approval link expired", ErrInvalidState)
	}

	ok, err := s.tokens.RedeemToken(tx, t.ID, t.Action)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race to a concurrent redemption. Re-read to learn the
		// outcome that won.
		latest, err := s.tokens.GetToken(tx, token)
		if err != nil {
			return nil, err
		}
		result.Action = latest.ResolvedAction
		result.AlreadyResolved = true
		return result, nil
	}

	target := models.ApprovalApproved
	if t.Action == models.TokenActionDecline {
		target = models.ApprovalDeclined
	}
	ok, err = s.hangs.UpdateParticipantApproval(tx, t.HangID, t.ChildID, models.ApprovalPending, target)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Approval left the pending state through another path, such as
		// a parent cancellation or the child leaving the hang.
		return nil, fmt.Errorf("%w: approval is no longer pending", ErrInvalidState)
	}

	if err := s.tokens.RetireSiblings(tx, t.HangID, t.ChildID, t.ID, t.Action); err != nil {
		return nil, err
	}

	// The creator's own approval is what opens the hang to friends
	if t.Action == models.TokenActionApprove && t.ChildID == hang.CreatedBy {
		if err := s.hangs.MarkHangApproved(tx, t.HangID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit redemption: %w", err)
	}

	result.Action = t.Action

	if t.Action == models.TokenActionApprove {
		activity := &models.Activity{
			ID:           uuid.New().String(),
			Type:         models.ActivityParentApproved,
			ActorID:      t.ChildID,
			TargetUserID: t.ChildID,
			Content:      fmt.Sprintf("A parent approved %s for \"%s\"", child.DisplayName, hang.Title),
			HangID:       t.HangID,
		}
		if err := s.activities.CreateActivity(activity); err != nil {
			log.Printf("Failed to record approval activity: %v", err)
		}
	}

	return result, nil
}

// Cancel lets a parent withdraw a child from a hang at any stage. Legal from
// every state except an existing cancellation, and it retires any outstanding
// email links for the pair.
func (s *ApprovalService) Cancel(parentID, hangID, childID string) error {
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

	hang, err := s.hangs.GetHangByID(hangID)
	if err != nil {
		return err
	}
	if hang == nil {
		return fmt.Errorf("%w: unknown hang", ErrNotFound)
	}
	participant, err := s.hangs.GetParticipant(s.db, hangID, childID)
	if err != nil {
		return err
	}
	if participant == nil {
		return fmt.Errorf("%w: child is not part of this hang", ErrNotFound)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ok, err := s.hangs.SetParticipantApproval(tx, hangID, childID, models.ApprovalCancelled)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: approval already cancelled", ErrInvalidState)
	}
	if err := s.tokens.RetireSiblings(tx, hangID, childID, "", "cancelled"); err != nil {
		return err
	}
	return tx.Commit()
}
