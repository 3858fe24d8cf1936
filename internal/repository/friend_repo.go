package repository

import (
	"database/sql"
	"fmt"

	"hanghub/internal/database"
	"hanghub/internal/models"
)

// FriendRepository handles database operations for friend requests,
// friendships and friend groups
type FriendRepository struct {
	db *database.DB
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(db *database.DB) *FriendRepository {
	return &FriendRepository{db: db}
}

// CreateRequest inserts a new friend request
func (r *FriendRepository) CreateRequest(req *models.FriendRequest) error {
	query := "INSERT INTO friend_requests (id, from_user_id, to_user_id, status) VALUES (?, ?, ?, ?)"
	if _, err := r.db.Exec(query, req.ID, req.FromUserID, req.ToUserID, req.Status); err != nil {
		return fmt.Errorf("failed to create friend request: %w", err)
	}
	return nil
}

// GetRequestByID retrieves a friend request, nil if unknown
func (r *FriendRepository) GetRequestByID(id string) (*models.FriendRequest, error) {
	req := &models.FriendRequest{}
	query := "SELECT id, from_user_id, to_user_id, status, created_at FROM friend_requests WHERE id = ?"
	err := r.db.QueryRow(query, id).Scan(&req.ID, &req.FromUserID, &req.ToUserID, &req.Status, &req.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get friend request: %w", err)
	}
	return req, nil
}

// GetPendingRequestBetween finds a pending request from one user to another,
// nil if none exists
func (r *FriendRepository) GetPendingRequestBetween(fromUserID, toUserID string) (*models.FriendRequest, error) {
	req := &models.FriendRequest{}
	query := `
		SELECT id, from_user_id, to_user_id, status, created_at
		FROM friend_requests
		WHERE from_user_id = ? AND to_user_id = ? AND status = ?
	`
	err := r.db.QueryRow(query, fromUserID, toUserID, models.RequestStatusPending).Scan(
		&req.ID, &req.FromUserID, &req.ToUserID, &req.Status, &req.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending request: %w", err)
	}
	return req, nil
}

// ListIncomingRequests retrieves pending requests addressed to a user,
// with sender names
func (r *FriendRepository) ListIncomingRequests(userID string) ([]models.FriendRequest, error) {
	query := `
		SELECT fr.id, fr.from_user_id, fr.to_user_id, fr.status, fr.created_at, u.display_name
		FROM friend_requests fr
		JOIN users u ON u.id = fr.from_user_id
		WHERE fr.to_user_id = ? AND fr.status = ?
		ORDER BY fr.created_at DESC
	`
	rows, err := r.db.Query(query, userID, models.RequestStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to query incoming requests: %w", err)
	}
	defer rows.Close()

	var requests []models.FriendRequest
	for rows.Next() {
		var req models.FriendRequest
		if err := rows.Scan(&req.ID, &req.FromUserID, &req.ToUserID, &req.Status, &req.CreatedAt, &req.FromName); err != nil {
			return nil, fmt.Errorf("failed to scan friend request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// ResolveRequest moves a pending request to accepted or declined. Conditional
// on the request still being pending; returns false when it was already
// resolved or cancelled.
func (r *FriendRepository) ResolveRequest(dbtx database.DBTX, id, status string) (bool, error) {
	query := "UPDATE friend_requests SET status = ? WHERE id = ? AND status = ?"
	result, err := dbtx.Exec(query, status, id, models.RequestStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to resolve friend request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check request update: %w", err)
	}
	return affected == 1, nil
}

// DeleteRequest removes a pending request. Only the sender cancels, so the
// delete is conditional on pending status. Returns false when nothing matched.
func (r *FriendRepository) DeleteRequest(id string) (bool, error) {
	result, err := r.db.Exec("DELETE FROM friend_requests WHERE id = ? AND status = ?", id, models.RequestStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to delete friend request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check request delete: %w", err)
	}
	return affected == 1, nil
}

// CreateFriendship writes both directions of a friendship inside a
// transaction. Duplicate rows are ignored so re-acceptance is harmless.
func (r *FriendRepository) CreateFriendship(tx database.DBTX, userID, friendID string) error {
	query := "INSERT INTO friendships (user_id, friend_id) VALUES (?, ?)"
	if _, err := tx.ExecInsertIgnore(query, userID, friendID); err != nil {
		return fmt.Errorf("failed to create friendship: %w", err)
	}
	if _, err := tx.ExecInsertIgnore(query, friendID, userID); err != nil {
		return fmt.Errorf("failed to create reverse friendship: %w", err)
	}
	return nil
}

// DeleteFriendship removes both directions and any group assignments either
// side holds for the other
func (r *FriendRepository) DeleteFriendship(tx database.DBTX, userID, friendID string) error {
	query := "DELETE FROM friendships WHERE (user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)"
	if _, err := tx.Exec(query, userID, friendID, friendID, userID); err != nil {
		return fmt.Errorf("failed to delete friendship: %w", err)
	}
	groupQuery := "DELETE FROM friend_groups WHERE (owner_id = ? AND friend_id = ?) OR (owner_id = ? AND friend_id = ?)"
	if _, err := tx.Exec(groupQuery, userID, friendID, friendID, userID); err != nil {
		return fmt.Errorf("failed to delete friend groups: %w", err)
	}
	return nil
}

// AreFriends reports whether a friendship exists between two users
func (r *FriendRepository) AreFriends(userID, friendID string) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM friendships WHERE user_id = ? AND friend_id = ?"
	if err := r.db.QueryRow(query, userID, friendID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return count > 0, nil
}

// ListFriends retrieves a user's friends with their profiles and the group
// labels the user has assigned to each
func (r *FriendRepository) ListFriends(userID string) ([]models.Friend, error) {
	query := `
		SELECT u.id, u.parent_id, u.username, u.display_name, u.pin_hash, u.avatar_url, u.status, u.is_online, u.created_at
		FROM friendships f
		JOIN users u ON u.id = f.friend_id
		WHERE f.user_id = ?
		ORDER BY u.display_name ASC
	`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query friends: %w", err)
	}
	defer rows.Close()

	var friends []models.Friend
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		friends = append(friends, models.Friend{User: *u})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range friends {
		groups, err := r.ListGroups(userID, friends[i].User.ID)
		if err != nil {
			return nil, err
		}
		friends[i].Groups = groups
	}
	return friends, nil
}

// AddToGroup assigns a group label to a friend, ignoring duplicates
func (r *FriendRepository) AddToGroup(ownerID, friendID, group string) error {
	query := "INSERT INTO friend_groups (owner_id, friend_id, group_name) VALUES (?, ?, ?)"
	if _, err := r.db.ExecInsertIgnore(query, ownerID, friendID, group); err != nil {
		return fmt.Errorf("failed to add friend to group: %w", err)
	}
	return nil
}

// RemoveFromGroup removes a group label from a friend. Returns false when the
// label was not assigned.
func (r *FriendRepository) RemoveFromGroup(ownerID, friendID, group string) (bool, error) {
	query := "DELETE FROM friend_groups WHERE owner_id = ? AND friend_id = ? AND group_name = ?"
	result, err := r.db.Exec(query, ownerID, friendID, group)
	if err != nil {
		return false, fmt.Errorf("failed to remove friend from group: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check group delete: %w", err)
	}
	return affected == 1, nil
}

// ListGroups retrieves the group labels an owner has assigned to a friend
func (r *FriendRepository) ListGroups(ownerID, friendID string) ([]string, error) {
	query := "SELECT group_name FROM friend_groups WHERE owner_id = ? AND friend_id = ? ORDER BY group_name ASC"
	rows, err := r.db.Query(query, ownerID, friendID)
	if err != nil {
		return nil, fmt.Errorf("failed to query friend groups: %w", err)
	}
	defer rows.Close()

	var groups []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}
