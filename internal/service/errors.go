package service

import "errors"

// Sentinel errors shared across services. Handlers map these onto HTTP
// status codes.
var (
	// ErrUnauthorized means the caller is not allowed to perform the action
	ErrUnauthorized = errors.New("not authorized")

	// ErrNotFound means the referenced entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidState means the entity cannot move to the requested state,
	// including expired tokens
	ErrInvalidState = errors.New("invalid state")

	// ErrConflict means a uniqueness or duplication rule was violated
	ErrConflict = errors.New("already exists")

	// ErrInvalidCredentials covers failed password and PIN checks
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotFriends means the action requires an existing friendship
	ErrNotFriends = errors.New("users are not friends")

	// ErrReversePending means the other user already sent a request, which
	// should be accepted instead of duplicated
	ErrReversePending = errors.New("a request from this user is already pending")
)
