package models

import "time"

// User is a child's single account record: credentials (username + PIN),
// the guardian link, and the social profile used by friends and hangs.
type User struct {
	ID          string
	ParentID    string
	Username    string
	DisplayName string
	PinHash     string
	AvatarURL   string
	Status      string
	IsOnline    bool
	CreatedAt   time.Time
}
