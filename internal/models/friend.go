package models

import "time"

// Friend request statuses
const (
	RequestStatusPending  = "pending"
	RequestStatusAccepted = "accepted"
	RequestStatusDeclined = "declined"
)

// FriendRequest is a pending/resolved request between two users
type FriendRequest struct {
	ID         string
	FromUserID string
	ToUserID   string
	Status     string
	CreatedAt  time.Time

	// Populated via JOIN for display
	FromName string
	ToName   string
}

// IsPending reports whether the request can still be acted on
func (r *FriendRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}

// Friendship is one direction of a symmetric pair. Acceptance always writes
// both directions so membership queries never check orientation.
type Friendship struct {
	UserID    string
	FriendID  string
	CreatedAt time.Time
}

// Friend is a friendship entry joined with the friend's profile
type Friend struct {
	User   User
	Groups []string
}
