package repository

import (
	"database/sql"
	"fmt"
	"time"

	"hanghub/internal/database"
	"hanghub/internal/models"
)

// HangRepository handles database operations for hangs, their participants
// and their invites
type HangRepository struct {
	db *database.DB
}

// NewHangRepository creates a new hang repository
func NewHangRepository(db *database.DB) *HangRepository {
	return &HangRepository{db: db}
}

// DB exposes the underlying handle so services can open transactions
func (r *HangRepository) DB() *database.DB {
	return r.db
}

const hangColumns = "id, title, scheduled_at, created_by, status, parent_approved, created_at"

// CreateHang inserts a hang inside a transaction
func (r *HangRepository) CreateHang(tx database.DBTX, h *models.Hang) error {
	query := `
		INSERT INTO hangs (id, title, scheduled_at, created_by, status, parent_approved)
		VALUES (?, ?, ?, ?, ?, 0)
	`
	if _, err := tx.Exec(query, h.ID, h.Title, h.ScheduledAt, h.CreatedBy, h.Status); err != nil {
		return fmt.Errorf("failed to create hang: %w", err)
	}
	return nil
}

// GetHangByID retrieves a hang by ID
func (r *HangRepository) GetHangByID(id string) (*models.Hang, error) {
	h := &models.Hang{}
	var parentApproved int
	err := r.db.QueryRow("SELECT "+hangColumns+" FROM hangs WHERE id = ?", id).Scan(
		&h.ID, &h.Title, &h.ScheduledAt, &h.CreatedBy, &h.Status, &parentApproved, &h.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hang: %w", err)
	}
	h.ParentApproved = parentApproved == 1
	return h, nil
}

// MarkHangApproved flips a hang to parent_approved. Conditional on the hang
// still being in the suggested state so concurrent approvals apply once.
func (r *HangRepository) MarkHangApproved(tx database.DBTX, hangID string) error {
	query := "UPDATE hangs SET status = ?, parent_approved = 1 WHERE id = ? AND status = ?"
	if _, err := tx.Exec(query, models.HangStatusParentApproved, hangID, models.HangStatusSuggested); err != nil {
		return fmt.Errorf("failed to approve hang: %w", err)
	}
	return nil
}

// ListHangsForUser retrieves all hangs the user created or participates in,
// newest first, with creator display names
func (r *HangRepository) ListHangsForUser(userID string) ([]models.HangView, error) {
	query := `
		SELECT DISTINCT h.id, h.title, h.scheduled_at, h.created_by, h.status, h.parent_approved, h.created_at, u.display_name
		FROM hangs h
		JOIN users u ON u.id = h.created_by
		LEFT JOIN hang_participants p ON p.hang_id = h.id
		LEFT JOIN hang_invites i ON i.hang_id = h.id
		WHERE h.created_by = ? OR p.user_id = ? OR i.user_id = ?
		ORDER BY h.scheduled_at DESC
	`
	rows, err := r.db.Query(query, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query hangs: %w", err)
	}
	defer rows.Close()

	var views []models.HangView
	for rows.Next() {
		var v models.HangView
		var parentApproved int
		err := rows.Scan(
			&v.Hang.ID, &v.Hang.Title, &v.Hang.ScheduledAt, &v.Hang.CreatedBy,
			&v.Hang.Status, &parentApproved, &v.Hang.CreatedAt, &v.CreatorName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hang: %w", err)
		}
		v.Hang.ParentApproved = parentApproved == 1
		views = append(views, v)
	}
	return views, rows.Err()
}

// GetParticipant retrieves a participant record, nil if absent
func (r *HangRepository) GetParticipant(dbtx database.DBTX, hangID, userID string) (*models.Participant, error) {
	p := &models.Participant{}
	var approval int
	query := "SELECT hang_id, user_id, approval, joined_at FROM hang_participants WHERE hang_id = ? AND user_id = ?"
	err := dbtx.QueryRow(query, hangID, userID).Scan(&p.HangID, &p.UserID, &approval, &p.JoinedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	p.Approval = models.ApprovalStatus(approval)
	return p, nil
}

// AddParticipant inserts a participant row. The insert is ignored when the
// row already exists, so a double join settles on the first write.
func (r *HangRepository) AddParticipant(dbtx database.DBTX, hangID, userID string, approval models.ApprovalStatus) error {
	query := "INSERT INTO hang_participants (hang_id, user_id, approval) VALUES (?, ?, ?)"
	if _, err := dbtx.ExecInsertIgnore(query, hangID, userID, int(approval)); err != nil {
		return fmt.Errorf("failed to add participant: %w", err)
	}
	return nil
}

// RemoveParticipant deletes a participant row
func (r *HangRepository) RemoveParticipant(hangID, userID string) error {
	if _, err := r.db.Exec("DELETE FROM hang_participants WHERE hang_id = ? AND user_id = ?", hangID, userID); err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}
	return nil
}

// UpdateParticipantApproval moves a participant's approval state, conditional
// on the expected current state. Returns false when the row was not in the
// expected state, which means another writer got there first.
func (r *HangRepository) UpdateParticipantApproval(dbtx database.DBTX, hangID, userID string, from, to models.ApprovalStatus) (bool, error) {
	query := "UPDATE hang_participants SET approval = ? WHERE hang_id = ? AND user_id = ? AND approval = ?"
	result, err := dbtx.Exec(query, int(to), hangID, userID, int(from))
	if err != nil {
		return false, fmt.Errorf("failed to update approval: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check approval update: %w", err)
	}
	return affected == 1, nil
}

// SetParticipantApproval force-sets an approval state regardless of the
// current one. Used for parent cancellation, which is legal from any state.
func (r *HangRepository) SetParticipantApproval(dbtx database.DBTX, hangID, userID string, to models.ApprovalStatus) (bool, error) {
	query := "UPDATE hang_participants SET approval = ? WHERE hang_id = ? AND user_id = ? AND approval != ?"
	result, err := dbtx.Exec(query, int(to), hangID, userID, int(to))
	if err != nil {
		return false, fmt.Errorf("failed to set approval: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check approval update: %w", err)
	}
	return affected == 1, nil
}

// ListParticipants retrieves all participants of a hang
func (r *HangRepository) ListParticipants(hangID string) ([]models.Participant, error) {
	query := "SELECT hang_id, user_id, approval, joined_at FROM hang_participants WHERE hang_id = ? ORDER BY joined_at ASC"
	rows, err := r.db.Query(query, hangID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		var p models.Participant
		var approval int
		if err := rows.Scan(&p.HangID, &p.UserID, &approval, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		p.Approval = models.ApprovalStatus(approval)
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// PendingApproval is a parent-dashboard row: one child awaiting a decision
type PendingApproval struct {
	HangID        string
	HangTitle     string
	ScheduledAt   time.Time
	ChildID       string
	ChildName     string
	Approval      models.ApprovalStatus
	ApprovalLabel string
}

// ListApprovalsForParent retrieves the approval state of every hang
// membership held by a parent's children, newest hang first
func (r *HangRepository) ListApprovalsForParent(parentID string) ([]PendingApproval, error) {
	query := `
		SELECT h.id, h.title, h.scheduled_at, u.id, u.display_name, p.approval
		FROM hang_participants p
		JOIN hangs h ON h.id = p.hang_id
		JOIN users u ON u.id = p.user_id
		WHERE u.parent_id = ?
		ORDER BY h.scheduled_at DESC
	`
	rows, err := r.db.Query(query, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query parent approvals: %w", err)
	}
	defer rows.Close()

	var approvals []PendingApproval
	for rows.Next() {
		var a PendingApproval
		var approval int
		if err := rows.Scan(&a.HangID, &a.HangTitle, &a.ScheduledAt, &a.ChildID, &a.ChildName, &approval); err != nil {
			return nil, fmt.Errorf("failed to scan parent approval: %w", err)
		}
		a.Approval = models.ApprovalStatus(approval)
		a.ApprovalLabel = a.Approval.String()
		approvals = append(approvals, a)
	}
	return approvals, rows.Err()
}

// CreateInvite inserts a hang invite, ignoring duplicates
func (r *HangRepository) CreateInvite(dbtx database.DBTX, hangID, userID string) error {
	query := "INSERT INTO hang_invites (hang_id, user_id, status) VALUES (?, ?, ?)"
	if _, err := dbtx.ExecInsertIgnore(query, hangID, userID, models.InviteStatusPending); err != nil {
		return fmt.Errorf("failed to create invite: %w", err)
	}
	return nil
}

// GetInvite retrieves an invite, nil if absent
func (r *HangRepository) GetInvite(hangID, userID string) (*models.HangInvite, error) {
	inv := &models.HangInvite{}
	query := "SELECT hang_id, user_id, status, created_at FROM hang_invites WHERE hang_id = ? AND user_id = ?"
	err := r.db.QueryRow(query, hangID, userID).Scan(&inv.HangID, &inv.UserID, &inv.Status, &inv.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invite: %w", err)
	}
	return inv, nil
}

// ResolveInvite moves a pending invite to accepted or declined. Returns false
// when the invite was no longer pending.
func (r *HangRepository) ResolveInvite(dbtx database.DBTX, hangID, userID, status string) (bool, error) {
	query := "UPDATE hang_invites SET status = ? WHERE hang_id = ? AND user_id = ? AND status = ?"
	result, err := dbtx.Exec(query, status, hangID, userID, models.InviteStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to resolve invite: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check invite update: %w", err)
	}
	return affected == 1, nil
}

// ListInvitesForUser retrieves pending invites for a user with hang details
func (r *HangRepository) ListInvitesForUser(userID string) ([]models.HangInvite, error) {
	query := `
		SELECT i.hang_id, i.user_id, i.status, i.created_at, h.title, h.scheduled_at, u.display_name
		FROM hang_invites i
		JOIN hangs h ON h.id = i.hang_id
		JOIN users u ON u.id = h.created_by
		WHERE i.user_id = ? AND i.status = ?
		ORDER BY i.created_at DESC
	`
	rows, err := r.db.Query(query, userID, models.InviteStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to query invites: %w", err)
	}
	defer rows.Close()

	var invites []models.HangInvite
	for rows.Next() {
		var inv models.HangInvite
		err := rows.Scan(&inv.HangID, &inv.UserID, &inv.Status, &inv.CreatedAt,
			&inv.HangTitle, &inv.HangScheduledAt, &inv.InviterName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invite: %w", err)
		}
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}
