package models

import "time"

// Approval token actions
const (
	TokenActionApprove = "approve"
	TokenActionDecline = "decline"
)

// ApprovalToken is a one-time email capability tied to (hang, child, action).
// Tokens are minted in approve/decline pairs; redeeming either member marks
// both used, and the applied action is recorded on the pair.
type ApprovalToken struct {
	ID             string
	HangID         string
	ChildID        string
	Action         string
	Used           bool
	ResolvedAction string // action applied when the pair was redeemed
	ExpiresAt      time.Time
	CreatedAt      time.Time
}

// IsExpired checks if the token is past its expiry
func (t *ApprovalToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// IsValid reports whether the token can still be redeemed
func (t *ApprovalToken) IsValid() bool {
	return !t.Used && !t.IsExpired()
}
