package service

import (
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"hanghub/internal/database"
	"hanghub/internal/models"
	"hanghub/internal/repository"
)

// FriendService owns friend requests, friendships and friend groups
type FriendService struct {
	db         *database.DB
	friends    *repository.FriendRepository
	users      *repository.UserRepository
	activities *repository.ActivityRepository
}

// NewFriendService creates a new friend service
func NewFriendService(db *database.DB, friends *repository.FriendRepository,
	users *repository.UserRepository, activities *repository.ActivityRepository) *FriendService {
	return &FriendService{
		db:         db,
		friends:    friends,
		users:      users,
		activities: activities,
	}
}

// SendRequest creates a friend request addressed by username
func (s *FriendService) SendRequest(fromUserID, toUsername string) (*models.FriendRequest, error) {
	toUser, err := s.users.GetUserByUsername(toUsername)
	if err != nil {
		return nil, err
	}
	if toUser == nil {
		return nil, fmt.Errorf("%w: no user with that username", ErrNotFound)
	}
	if toUser.ID == fromUserID {
		return nil, fmt.Errorf("%w: cannot friend yourself", ErrInvalidState)
	}

	already, err := s.friends.AreFriends(fromUserID, toUser.ID)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, fmt.Errorf("%w: already friends", ErrConflict)
	}

	if existing, err := s.friends.GetPendingRequestBetween(fromUserID, toUser.ID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("%w: request already sent", ErrConflict)
	}
	if reverse, err := s.friends.GetPendingRequestBetween(toUser.ID, fromUserID); err != nil {
		return nil, err
	} else if reverse != nil {
		return nil, ErrReversePending
	}

	req := &models.FriendRequest{
		ID:         uuid.New().String(),
		FromUserID: fromUserID,
		ToUserID:   toUser.ID,
		Status:     models.RequestStatusPending,
	}
	if err := s.friends.CreateRequest(req); err != nil {
		return nil, err
	}

	s.recordActivity(models.ActivityFriendRequest, fromUserID, toUser.ID, "%s sent you a friend request")
	return req, nil
}

// AcceptRequest resolves a pending request and writes the symmetric
// friendship. Only the recipient accepts.
func (s *FriendService) AcceptRequest(userID, requestID string) error {
	req, err := s.friends.GetRequestByID(requestID)
	if err != nil {
		return err
	}
	if req == nil {
		return fmt.Errorf("%w: unknown friend request", ErrNotFound)
	}
	if req.ToUserID != userID {
		return fmt.Errorf("%w: not the recipient of this request", ErrUnauthorized)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ok, err := s.friends.ResolveRequest(tx, requestID, models.RequestStatusAccepted)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: request already resolved", ErrInvalidState)
	}
	if err := s.friends.CreateFriendship(tx, req.FromUserID, req.ToUserID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit friendship: %w", err)
	}

	s.recordActivity(models.ActivityFriendAccepted, userID, req.FromUserID, "%s accepted your friend request")
	return nil
}

// DeclineRequest resolves a pending request negatively. Only the recipient
// declines.
func (s *FriendService) DeclineRequest(userID, requestID string) error {
	req, err := s.friends.GetRequestByID(requestID)
	if err != nil {
		return err
	}
	if req == nil {
		return fmt.Errorf("%w: unknown friend request", ErrNotFound)
	}
	if req.ToUserID != userID {
		return fmt.Errorf("%w: not the recipient of this request", ErrUnauthorized)
	}
	ok, err := s.friends.ResolveRequest(s.db, requestID, models.RequestStatusDeclined)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: request already resolved", ErrInvalidState)
	}
	return nil
}

// CancelRequest withdraws a pending request. Only the sender cancels.
func (s *FriendService) CancelRequest(userID, requestID string) error {
	req, err := s.friends.GetRequestByID(requestID)
	if err != nil {
		return err
	}
	if req == nil {
		return fmt.Errorf("%w: unknown friend request", ErrNotFound)
	}
	if req.FromUserID != userID {
		return fmt.Errorf("%w: not the sender of this request", ErrUnauthorized)
	}
	ok, err := s.friends.DeleteRequest(requestID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: request already resolved", ErrInvalidState)
	}
	return nil
}

// RemoveFriend deletes a friendship in both directions along with its group
// assignments. Removing a non-friend is a no-op.
func (s *FriendService) RemoveFriend(userID, friendID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	if err := s.friends.DeleteFriendship(tx, userID, friendID); err != nil {
		return err
	}
	return tx.Commit()
}

// AddCustomGroup puts a friend in a named group, creating the label on first
// use. Adding an existing membership is a no-op.
func (s *FriendService) AddCustomGroup(userID, friendID, group string) error {
	group = strings.TrimSpace(group)
	if group == "" {
		return fmt.Errorf("%w: group name is required", ErrInvalidState)
	}

	isFriend, err := s.friends.AreFriends(userID, friendID)
	if err != nil {
		return err
	}
	if !isFriend {
		return ErrNotFriends
	}
	return s.friends.AddToGroup(userID, friendID, group)
}

// ToggleGroup adds a friend to a group label if absent, removes them if
// present. Returns whether the friend is in the group afterwards.
func (s *FriendService) ToggleGroup(userID, friendID, group string) (bool, error) {
	group = strings.TrimSpace(group)
	if group == "" {
		return false, fmt.Errorf("%w: group name is required", ErrInvalidState)
	}

	isFriend, err := s.friends.AreFriends(userID, friendID)
	if err != nil {
		return false, err
	}
	if !isFriend {
		return false, ErrNotFriends
	}

	removed, err := s.friends.RemoveFromGroup(userID, friendID, group)
	if err != nil {
		return false, err
	}
	if removed {
		return false, nil
	}
	if err := s.friends.AddToGroup(userID, friendID, group); err != nil {
		return false, err
	}
	return true, nil
}

// ListFriends retrieves a user's friends with their group labels
func (s *FriendService) ListFriends(userID string) ([]models.Friend, error) {
	return s.friends.ListFriends(userID)
}

// ListIncomingRequests retrieves the pending requests addressed to a user
func (s *FriendService) ListIncomingRequests(userID string) ([]models.FriendRequest, error) {
	return s.friends.ListIncomingRequests(userID)
}

// recordActivity writes a feed entry, logging instead of failing the caller
func (s *FriendService) recordActivity(activityType, actorID, targetID, contentFormat string) {
	actor, err := s.users.GetUserByID(actorID)
	if err != nil || actor == nil {
		return
	}
	activity := &models.Activity{
		ID:           uuid.New().String(),
		Type:         activityType,
		ActorID:      actorID,
		TargetUserID: targetID,
		Content:      fmt.Sprintf(contentFormat, actor.DisplayName),
	}
	if err := s.activities.CreateActivity(activity); err != nil {
		log.Printf("Failed to record %s activity: %v", activityType, err)
	}
}
