package models

import "time"

// Activity types
const (
	ActivityHangJoined     = "hang_joined"
	ActivityParentApproved = "parent_approved"
	ActivityFriendRequest  = "friend_request"
	ActivityFriendAccepted = "friend_accepted"
)

// Activity is a notification feed entry delivered to one user
type Activity struct {
	ID           string
	Type         string
	ActorID      string
	TargetUserID string
	Content      string
	HangID       string
	IsRead       bool
	CreatedAt    time.Time

	// Populated via JOIN for display
	ActorName   string
	ActorAvatar string
	HangTitle   string
}
