package repository

import (
	"database/sql"
	"fmt"
	"time"

	"hanghub/internal/database"
	"hanghub/internal/models"
)

// QRInviteRepository handles database operations for QR invites
type QRInviteRepository struct {
	db *database.DB
}

// NewQRInviteRepository creates a new QR invite repository
func NewQRInviteRepository(db *database.DB) *QRInviteRepository {
	return &QRInviteRepository{db: db}
}

// CreateInvite inserts a freshly generated QR invite
func (r *QRInviteRepository) CreateInvite(q *models.QRInvite) error {
	query := `
		INSERT INTO qr_invites (id, inviter_id, hang_id, invite_type, status, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, q.ID, q.InviterID, nullIfEmpty(q.HangID), q.InviteType, string(q.Status), q.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to create QR invite: %w", err)
	}
	return nil
}

const qrInviteQuery = `
	SELECT q.id, q.inviter_id, q.hang_id, q.invite_type, q.status,
	       q.invitee_name, q.parent_email,
	       q.approval_token, q.approval_token_expires_at,
	       q.signup_token, q.signup_token_expires_at,
	       q.new_child_id, q.expires_at, q.created_at,
	       u.display_name, u.avatar_url, h.title, h.scheduled_at
	FROM qr_invites q
	JOIN users u ON u.id = q.inviter_id
	LEFT JOIN hangs h ON h.id = q.hang_id
`

// GetByID retrieves a QR invite by its scan token, nil if unknown
func (r *QRInviteRepository) GetByID(id string) (*models.QRInvite, error) {
	return r.getInvite(qrInviteQuery+" WHERE q.id = ?", id)
}

// GetByApprovalToken retrieves a QR invite by its parent approval token
func (r *QRInviteRepository) GetByApprovalToken(token string) (*models.QRInvite, error) {
	return r.getInvite(qrInviteQuery+" WHERE q.approval_token = ?", token)
}

// GetBySignupToken retrieves a QR invite by its signup token
func (r *QRInviteRepository) GetBySignupToken(token string) (*models.QRInvite, error) {
	return r.getInvite(qrInviteQuery+" WHERE q.signup_token = ?", token)
}

func (r *QRInviteRepository) getInvite(query string, args ...interface{}) (*models.QRInvite, error) {
	q := &models.QRInvite{}
	var status string
	var hangID, inviteeName, parentEmail, approvalToken, signupToken, newChildID, inviterAvatar, hangTitle sql.NullString
	var approvalExpires, signupExpires, hangDate sql.NullTime

	err := r.db.QueryRow(query, args...).Scan(
		&q.ID, &q.InviterID, &hangID, &q.InviteType, &status,
		&inviteeName, &parentEmail,
		&approvalToken, &approvalExpires,
		&signupToken, &signupExpires,
		&newChildID, &q.ExpiresAt, &q.CreatedAt,
		&q.InviterName, &inviterAvatar, &hangTitle, &hangDate,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get QR invite: %w", err)
	}

	q.Status = models.QRInviteStatus(status)
	q.HangID = hangID.String
	q.InviteeName = inviteeName.String
	q.ParentEmail = parentEmail.String
	q.ApprovalToken = approvalToken.String
	q.SignupToken = signupToken.String
	q.NewChildID = newChildID.String
	q.InviterAvatar = inviterAvatar.String
	q.HangTitle = hangTitle.String
	if approvalExpires.Valid {
		t := approvalExpires.Time
		q.ApprovalTokenExpiresAt = &t
	}
	if signupExpires.Valid {
		t := signupExpires.Time
		q.SignupTokenExpiresAt = &t
	}
	if hangDate.Valid {
		t := hangDate.Time
		q.HangDate = &t
	}
	return q, nil
}

// MarkScanned records the invitee's details and the minted parent approval
// token. Conditional on pending status so a double submit applies once.
func (r *QRInviteRepository) MarkScanned(id, inviteeName, parentEmail, approvalToken string, approvalExpires time.Time) (bool, error) {
	query := `
		UPDATE qr_invites
		SET status = ?, invitee_name = ?, parent_email = ?, approval_token = ?, approval_token_expires_at = ?
		WHERE id = ? AND status = ?
	`
	return r.conditionalUpdate(query,
		string(models.QRInviteScanned), inviteeName, parentEmail, approvalToken, approvalExpires,
		id, string(models.QRInvitePending))
}

// MarkApproved records the parent's approval and the minted signup token.
// Conditional on scanned status.
func (r *QRInviteRepository) MarkApproved(id, signupToken string, signupExpires time.Time) (bool, error) {
	query := `
		UPDATE qr_invites
		SET status = ?, signup_token = ?, signup_token_expires_at = ?
		WHERE id = ? AND status = ?
	`
	return r.conditionalUpdate(query,
		string(models.QRInviteApproved), signupToken, signupExpires,
		id, string(models.QRInviteScanned))
}

// MarkDeclined records the parent's refusal. Conditional on scanned status.
func (r *QRInviteRepository) MarkDeclined(id string) (bool, error) {
	query := "UPDATE qr_invites SET status = ? WHERE id = ? AND status = ?"
	return r.conditionalUpdate(query,
		string(models.QRInviteDeclined), id, string(models.QRInviteScanned))
}

// MarkCompleted records the created child account inside a transaction.
// Conditional on approved status so a signup token redeems exactly once.
func (r *QRInviteRepository) MarkCompleted(tx database.DBTX, id, newChildID string) (bool, error) {
	query := "UPDATE qr_invites SET status = ?, new_child_id = ? WHERE id = ? AND status = ?"
	result, err := tx.Exec(query, string(models.QRInviteCompleted), newChildID, id, string(models.QRInviteApproved))
	if err != nil {
		return false, fmt.Errorf("failed to complete QR invite: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check QR invite update: %w", err)
	}
	return affected == 1, nil
}

func (r *QRInviteRepository) conditionalUpdate(query string, args ...interface{}) (bool, error) {
	result, err := r.db.Exec(query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update QR invite: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check QR invite update: %w", err)
	}
	return affected == 1, nil
}
