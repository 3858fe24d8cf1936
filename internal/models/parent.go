package models

import "time"

// Parent represents a guardian account. Parents approve or decline their
// children's hang participation and manage child profiles.
type Parent struct {
	ID                string
	Email             string
	PasswordHash      string
	Name              string
	EmailVerified     bool
	VerificationToken string
	OAuthProvider     string
	OAuthSubject      string
	CreatedAt         time.Time
}
