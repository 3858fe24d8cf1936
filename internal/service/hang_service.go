package service

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"hanghub/internal/database"
	"hanghub/internal/models"
	"hanghub/internal/repository"
)

// HangService owns hang lifecycle: suggesting, joining, leaving, invites and
// the per-viewer derived views
type HangService struct {
	db         *database.DB
	hangs      *repository.HangRepository
	users      *repository.UserRepository
	friends    *repository.FriendRepository
	activities *repository.ActivityRepository
	approvals  *ApprovalService
}

// NewHangService creates a new hang service
func NewHangService(db *database.DB, hangs *repository.HangRepository, users *repository.UserRepository,
	friends *repository.FriendRepository, activities *repository.ActivityRepository,
	approvals *ApprovalService) *HangService {
	return &HangService{
		db:         db,
		hangs:      hangs,
		users:      users,
		friends:    friends,
		activities: activities,
		approvals:  approvals,
	}
}

// CreateHang suggests a new hang. The creator becomes its first participant
// and their parent is pinged immediately; invited friends see the hang but
// cannot join until the creator's parent approves.
func (s *HangService) CreateHang(creatorID, title string, scheduledAt time.Time, inviteeIDs []string) (*models.Hang, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidState)
	}
	if !scheduledAt.After(time.Now()) {
		return nil, fmt.Errorf("%w: hang must be scheduled in the future", ErrInvalidState)
	}

	// Invites are limited to established friends
	for _, inviteeID := range inviteeIDs {
		if inviteeID == creatorID {
			return nil, fmt.Errorf("%w: cannot invite yourself", ErrInvalidState)
		}
		isFriend, err := s.friends.AreFriends(creatorID, inviteeID)
		if err != nil {
			return nil, err
		}
		if !isFriend {
			return nil, fmt.Errorf("%w: can only invite friends", ErrNotFriends)
		}
	}

	hang := &models.Hang{
		ID:          uuid.New().String(),
		Title:       title,
		ScheduledAt: scheduledAt,
		CreatedBy:   creatorID,
		Status:      models.HangStatusSuggested,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.hangs.CreateHang(tx, hang); err != nil {
		return nil, err
	}
	if err := s.hangs.AddParticipant(tx, hang.ID, creatorID, models.ApprovalUnpinged); err != nil {
		return nil, err
	}
	approveToken, declineToken, err := s.approvals.PingParentTx(tx, hang.ID, creatorID)
	if err != nil {
		return nil, err
	}
	for _, inviteeID := range inviteeIDs {
		if err := s.hangs.CreateInvite(tx, hang.ID, inviteeID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit hang: %w", err)
	}

	s.approvals.SendApprovalEmail(creatorID, hang, approveToken, declineToken)
	return hang, nil
}

// JoinHang adds a user to an open hang and pings their parent. Joining is
// limited to invitees and friends of the creator.
func (s *HangService) JoinHang(userID, hangID string) error {
	hang, err := s.hangs.GetHangByID(hangID)
	if err != nil {
		return err
	}
	if hang == nil {
		return fmt.Errorf("%w: unknown hang", ErrNotFound)
	}
	if hang.CreatedBy == userID {
		return fmt.Errorf("%w: creator is already a participant", ErrInvalidState)
	}
	if !hang.IsOpen() {
		return fmt.Errorf("%w: hang is not open for joining", ErrInvalidState)
	}

	invite, err := s.hangs.GetInvite(hangID, userID)
	if err != nil {
		return err
	}
	if invite == nil {
		isFriend, err := s.friends.AreFriends(userID, hang.CreatedBy)
		if err != nil {
			return err
		}
		if !isFriend {
			return fmt.Errorf("%w: only friends of the creator can join", ErrNotFriends)
		}
	}

	existing, err := s.hangs.GetParticipant(s.db, hangID, userID)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: already joined this hang", ErrConflict)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.hangs.AddParticipant(tx, hangID, userID, models.ApprovalUnpinged); err != nil {
		return err
	}
	approveToken, declineToken, err := s.approvals.PingParentTx(tx, hangID, userID)
	if err != nil {
		return err
	}
	if invite != nil && invite.IsPending() {
		if _, err := s.hangs.ResolveInvite(tx, hangID, userID, models.InviteStatusAccepted); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit join: %w", err)
	}

	s.approvals.SendApprovalEmail(userID, hang, approveToken, declineToken)
	s.recordJoinActivity(userID, hang)
	return nil
}

func (s *HangService) recordJoinActivity(userID string, hang *models.Hang) {
	user, err := s.users.GetUserByID(userID)
	if err != nil || user == nil {
		return
	}
	activity := &models.Activity{
		ID:           uuid.New().String(),
		Type:         models.ActivityHangJoined,
		ActorID:      userID,
		TargetUserID: hang.CreatedBy,
		Content:      fmt.Sprintf("%s joined \"%s\"", user.DisplayName, hang.Title),
		HangID:       hang.ID,
	}
	if err := s.activities.CreateActivity(activity); err != nil {
		log.Printf("Failed to record join activity: %v", err)
	}
}

// RequestApproval pings the parent of a participant who is not yet pending.
// Participants created without an immediate ping, such as kids onboarded
// through a hang-bound QR invite, use this to start their approval.
func (s *HangService) RequestApproval(userID, hangID string) error {
	hang, err := s.hangs.GetHangByID(hangID)
	if err != nil {
		return err
	}
	if hang == nil {
		return fmt.Errorf("%w: unknown hang", ErrNotFound)
	}
	participant, err := s.hangs.GetParticipant(s.db, hangID, userID)
	if err != nil {
		return err
	}
	if participant == nil {
		return fmt.Errorf("%w: not a participant", ErrNotFound)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	approveToken, declineToken, err := s.approvals.PingParentTx(tx, hangID, userID)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ping: %w", err)
	}

	s.approvals.SendApprovalEmail(userID, hang, approveToken, declineToken)
	return nil
}

// LeaveHang removes a non-creator participant and retires any outstanding
// approval links for them
func (s *HangService) LeaveHang(userID, hangID string) error {
	hang, err := s.hangs.GetHangByID(hangID)
	if err != nil {
		return err
	}
	if hang == nil {
		return fmt.Errorf("%w: unknown hang", ErrNotFound)
	}
	if hang.CreatedBy == userID {
		return fmt.Errorf("%w: the creator cannot leave their own hang", ErrInvalidState)
	}

	participant, err := s.hangs.GetParticipant(s.db, hangID, userID)
	if err != nil {
		return err
	}
	if participant == nil {
		return fmt.Errorf("%w: not a participant", ErrNotFound)
	}

	if err := s.hangs.RemoveParticipant(hangID, userID); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	if err := s.approvals.tokens.RetireSiblings(tx, hangID, userID, "", "cancelled"); err != nil {
		return err
	}
	return tx.Commit()
}

// DeclineInvite turns down a pending hang invite
func (s *HangService) DeclineInvite(userID, hangID string) error {
	invite, err := s.hangs.GetInvite(hangID, userID)
	if err != nil {
		return err
	}
	if invite == nil {
		return fmt.Errorf("%w: no invite for this hang", ErrNotFound)
	}
	ok, err := s.hangs.ResolveInvite(s.db, hangID, userID, models.InviteStatusDeclined)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: invite already resolved", ErrInvalidState)
	}
	return nil
}

// GetHangView builds the per-viewer state of a hang. Visible to the creator,
// participants and invitees only.
func (s *HangService) GetHangView(viewerID, hangID string) (*models.HangView, error) {
	hang, err := s.hangs.GetHangByID(hangID)
	if err != nil {
		return nil, err
	}
	if hang == nil {
		return nil, fmt.Errorf("%w: unknown hang", ErrNotFound)
	}

	participants, err := s.hangs.ListParticipants(hangID)
	if err != nil {
		return nil, err
	}

	view := &models.HangView{
		Hang:      *hang,
		IsCreator: hang.CreatedBy == viewerID,
	}
	visible := view.IsCreator
	for _, p := range participants {
		view.ParticipantIDs = append(view.ParticipantIDs, p.UserID)
		if p.UserID == viewerID {
			status := p.Approval
			view.MyApprovalStatus = &status
			visible = true
		}
		// Cancelled for the viewer when the creator's slot or their own
		// was revoked
		if (p.UserID == hang.CreatedBy || p.UserID == viewerID) && p.Approval == models.ApprovalCancelled {
			view.IsCancelled = true
		}
	}
	if !visible {
		invite, err := s.hangs.GetInvite(hangID, viewerID)
		if err != nil {
			return nil, err
		}
		if invite == nil {
			return nil, fmt.Errorf("%w: not part of this hang", ErrUnauthorized)
		}
	}

	creator, err := s.users.GetUserByID(hang.CreatedBy)
	if err != nil {
		return nil, err
	}
	if creator != nil {
		view.CreatorName = creator.DisplayName
	}
	return view, nil
}

// ListHangs retrieves the hangs a user created, joined or was invited to
func (s *HangService) ListHangs(userID string) ([]models.HangView, error) {
	return s.hangs.ListHangsForUser(userID)
}

// ListInvites retrieves a user's pending hang invites
func (s *HangService) ListInvites(userID string) ([]models.HangInvite, error) {
	return s.hangs.ListInvitesForUser(userID)
}

// ListApprovalsForParent retrieves the hang approval states of every child
// belonging to a parent, for the parent dashboard
func (s *HangService) ListApprovalsForParent(parentID string) ([]repository.PendingApproval, error) {
	return s.hangs.ListApprovalsForParent(parentID)
}
