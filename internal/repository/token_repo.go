package repository

import (
	"database/sql"
	"fmt"

	"hanghub/internal/database"
	"hanghub/internal/models"
)

// TokenRepository handles database operations for hang approval tokens
type TokenRepository struct {
	db *database.DB
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db *database.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// CreateTokenPair inserts the approve and decline tokens for one
// (hang, child) ping inside a transaction
func (r *TokenRepository) CreateTokenPair(tx database.DBTX, approve, decline *models.ApprovalToken) error {
	query := `
		INSERT INTO hang_approval_tokens (id, hang_id, child_id, action, used, expires_at)
		VALUES (?, ?, ?, ?, 0, ?)
	`
	if _, err := tx.Exec(query, approve.ID, approve.HangID, approve.ChildID, approve.Action, approve.ExpiresAt); err != nil {
		return fmt.Errorf("failed to create approve token: %w", err)
	}
	if _, err := tx.Exec(query, decline.ID, decline.HangID, decline.ChildID, decline.Action, decline.ExpiresAt); err != nil {
		return fmt.Errorf("failed to create decline token: %w", err)
	}
	return nil
}

// GetToken retrieves a token by its value, nil if unknown
func (r *TokenRepository) GetToken(dbtx database.DBTX, token string) (*models.ApprovalToken, error) {
	t := &models.ApprovalToken{}
	var used int
	var resolved sql.NullString
	query := `
		SELECT id, hang_id, child_id, action, used, resolved_action, expires_at, created_at
		FROM hang_approval_tokens WHERE id = ?
	`
	err := dbtx.QueryRow(query, token).Scan(
		&t.ID, &t.HangID, &t.ChildID, &t.Action, &used, &resolved, &t.ExpiresAt, &t.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	t.Used = used == 1
	t.ResolvedAction = resolved.String
	return t, nil
}

// RedeemToken marks a single token used and records the applied action.
// Conditional on the token being unused; returns false when another redemption
// won the race, in which case the caller should re-read the token to learn the
// action that actually applied.
func (r *TokenRepository) RedeemToken(tx database.DBTX, token, resolvedAction string) (bool, error) {
	query := "UPDATE hang_approval_tokens SET used = 1, resolved_action = ? WHERE id = ? AND used = 0"
	result, err := tx.Exec(query, resolvedAction, token)
	if err != nil {
		return false, fmt.Errorf("failed to redeem token: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check token redemption: %w", err)
	}
	return affected == 1, nil
}

// RetireSiblings marks every other token of the same (hang, child) pair used
// and stamps them with the action that was applied
func (r *TokenRepository) RetireSiblings(tx database.DBTX, hangID, childID, exceptToken, resolvedAction string) error {
	query := `
		UPDATE hang_approval_tokens SET used = 1, resolved_action = ?
		WHERE hang_id = ? AND child_id = ? AND id != ? AND used = 0
	`
	if _, err := tx.Exec(query, resolvedAction, hangID, childID, exceptToken); err != nil {
		return fmt.Errorf("failed to retire sibling tokens: %w", err)
	}
	return nil
}
