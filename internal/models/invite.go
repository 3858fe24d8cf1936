package models

import "time"

// Hang invite statuses
const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusDeclined = "declined"
)

// HangInvite is an explicit invitation to a hang, distinct from open joining
type HangInvite struct {
	HangID    string
	UserID    string
	Status    string
	CreatedAt time.Time

	// Joined display fields, populated by list queries
	HangTitle       string    `json:",omitempty"`
	HangScheduledAt time.Time `json:",omitempty"`
	InviterName     string    `json:",omitempty"`
}

// IsPending reports whether the invite can still be accepted or declined
func (i *HangInvite) IsPending() bool {
	return i.Status == InviteStatusPending
}
