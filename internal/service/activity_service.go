package service

import (
	"hanghub/internal/models"
	"hanghub/internal/repository"
)

// activityFeedLimit caps how much history the feed returns
const activityFeedLimit = 50

// ActivityService exposes the notification feed
type ActivityService struct {
	activities *repository.ActivityRepository
}

// NewActivityService creates a new activity service
func NewActivityService(activities *repository.ActivityRepository) *ActivityService {
	return &ActivityService{activities: activities}
}

// Feed retrieves a user's recent feed entries
func (s *ActivityService) Feed(userID string) ([]models.Activity, error) {
	return s.activities.ListForUser(userID, activityFeedLimit)
}

// MarkRead flags one entry as read; the update is scoped to the owner, so a
// foreign id is a silent no-op
func (s *ActivityService) MarkRead(userID, activityID string) error {
	return s.activities.MarkRead(activityID, userID)
}

// MarkAllRead flags the whole feed as read
func (s *ActivityService) MarkAllRead(userID string) error {
	return s.activities.MarkAllRead(userID)
}
