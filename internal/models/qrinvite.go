package models

import "time"

// QRInviteStatus is the stage of the QR onboarding pipeline
type QRInviteStatus string

const (
	QRInvitePending   QRInviteStatus = "pending"   // generated, not yet scanned
	QRInviteScanned   QRInviteStatus = "scanned"   // invitee info submitted, parent emailed
	QRInviteApproved  QRInviteStatus = "approved"  // parent approved, signup token minted
	QRInviteDeclined  QRInviteStatus = "declined"  // terminal
	QRInviteCompleted QRInviteStatus = "completed" // signup finished
)

// qrInviteTransitions is the authoritative table of legal stage moves.
// Stages cannot be skipped or replayed.
var qrInviteTransitions = map[QRInviteStatus][]QRInviteStatus{
	QRInvitePending:  {QRInviteScanned},
	QRInviteScanned:  {QRInviteApproved, QRInviteDeclined},
	QRInviteApproved: {QRInviteCompleted},
}

// CanTransitionTo reports whether moving from s to target is legal
func (s QRInviteStatus) CanTransitionTo(target QRInviteStatus) bool {
	for _, t := range qrInviteTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// QR invite types
const (
	QRInviteTypeFriend = "friend"
	QRInviteTypeHang   = "hang"
)

// QRInvite bridges a real-world QR scan to a full signup. The invite id is
// the scan token; each later stage is gated by its own token with an
// independent expiry.
type QRInvite struct {
	ID                     string // doubles as the invite token
	InviterID              string
	HangID                 string // empty for plain friend invites
	InviteType             string
	Status                 QRInviteStatus
	InviteeName            string
	ParentEmail            string
	ApprovalToken          string
	ApprovalTokenExpiresAt *time.Time
	SignupToken            string
	SignupTokenExpiresAt   *time.Time
	NewChildID             string
	ExpiresAt              time.Time
	CreatedAt              time.Time

	// Populated via JOIN for display
	InviterName   string
	InviterAvatar string
	HangTitle     string
	HangDate      *time.Time
}

// IsExpired checks if the scan token is past its expiry
func (q *QRInvite) IsExpired() bool {
	return time.Now().After(q.ExpiresAt)
}
