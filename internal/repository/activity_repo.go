package repository

import (
	"database/sql"
	"fmt"

	"hanghub/internal/database"
	"hanghub/internal/models"
)

// ActivityRepository handles database operations for the notification feed
type ActivityRepository struct {
	db *database.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *database.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// CreateActivity inserts a feed entry
func (r *ActivityRepository) CreateActivity(a *models.Activity) error {
	query := `
		INSERT INTO activities (id, type, actor_id, target_user_id, content, hang_id, is_read)
		VALUES (?, ?, ?, ?, ?, ?, 0)
	`
	_, err := r.db.Exec(query, a.ID, a.Type, a.ActorID, a.TargetUserID, a.Content, nullIfEmpty(a.HangID))
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

// ListForUser retrieves a user's feed, newest first, with actor details
func (r *ActivityRepository) ListForUser(userID string, limit int) ([]models.Activity, error) {
	query := `
		SELECT a.id, a.type, a.actor_id, a.target_user_id, a.content, a.hang_id, a.is_read, a.created_at,
		       u.display_name, u.avatar_url, h.title
		FROM activities a
		JOIN users u ON u.id = a.actor_id
		LEFT JOIN hangs h ON h.id = a.hang_id
		WHERE a.target_user_id = ?
		ORDER BY a.created_at DESC
		LIMIT ?
	`
	rows, err := r.db.Query(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activities []models.Activity
	for rows.Next() {
		var a models.Activity
		var hangID, actorAvatar, hangTitle sql.NullString
		var isRead int
		err := rows.Scan(
			&a.ID, &a.Type, &a.ActorID, &a.TargetUserID, &a.Content, &hangID, &isRead, &a.CreatedAt,
			&a.ActorName, &actorAvatar, &hangTitle,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		a.HangID = hangID.String
		a.ActorAvatar = actorAvatar.String
		a.HangTitle = hangTitle.String
		a.IsRead = isRead == 1
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// MarkRead flags a single feed entry as read, scoped to its owner
func (r *ActivityRepository) MarkRead(id, userID string) error {
	query := "UPDATE activities SET is_read = 1 WHERE id = ? AND target_user_id = ?"
	if _, err := r.db.Exec(query, id, userID); err != nil {
		return fmt.Errorf("failed to mark activity read: %w", err)
	}
	return nil
}

// MarkAllRead flags a user's whole feed as read
func (r *ActivityRepository) MarkAllRead(userID string) error {
	query := "UPDATE activities SET is_read = 1 WHERE target_user_id = ? AND is_read = 0"
	if _, err := r.db.Exec(query, userID); err != nil {
		return fmt.Errorf("failed to mark activities read: %w", err)
	}
	return nil
}
