package repository

import (
	"database/sql"
	"fmt"

	"hanghub/internal/database"
	"hanghub/internal/models"
)

// UserRepository handles database operations for child accounts
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = "id, parent_id, username, display_name, pin_hash, avatar_url, status, is_online, created_at"

// CreateUser inserts a new child account
func (r *UserRepository) CreateUser(u *models.User) error {
	query := `
		INSERT INTO users (id, parent_id, username, display_name, pin_hash, avatar_url, status, is_online)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0)
	`
	_, err := r.db.Exec(query,
		u.ID, u.ParentID, u.Username, u.DisplayName, u.PinHash,
		nullIfEmpty(u.AvatarURL), nullIfEmpty(u.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// CreateUserTx inserts a new child account inside a transaction
func (r *UserRepository) CreateUserTx(tx database.DBTX, u *models.User) error {
	query := `
		INSERT INTO users (id, parent_id, username, display_name, pin_hash, avatar_url, status, is_online)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0)
	`
	_, err := tx.Exec(query,
		u.ID, u.ParentID, u.Username, u.DisplayName, u.PinHash,
		nullIfEmpty(u.AvatarURL), nullIfEmpty(u.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(id string) (*models.User, error) {
	return r.getUser("SELECT "+userColumns+" FROM users WHERE id = ?", id)
}

// GetUserByUsername retrieves a user by username
func (r *UserRepository) GetUserByUsername(username string) (*models.User, error) {
	return r.getUser("SELECT "+userColumns+" FROM users WHERE username = ?", username)
}

// GetParentChildren retrieves all children belonging to a parent
func (r *UserRepository) GetParentChildren(parentID string) ([]models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE parent_id = ? ORDER BY created_at ASC"
	rows, err := r.db.Query(query, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateAvatar sets a user's avatar URL
func (r *UserRepository) UpdateAvatar(id, avatarURL string) error {
	if _, err := r.db.Exec("UPDATE users SET avatar_url = ? WHERE id = ?", nullIfEmpty(avatarURL), id); err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	return nil
}

// UpdatePinHash replaces a child's PIN hash
func (r *UserRepository) UpdatePinHash(id, pinHash string) error {
	if _, err := r.db.Exec("UPDATE users SET pin_hash = ? WHERE id = ?", pinHash, id); err != nil {
		return fmt.Errorf("failed to update PIN: %w", err)
	}
	return nil
}

// SetOnline flips a user's online flag
func (r *UserRepository) SetOnline(id string, online bool) error {
	flag := 0
	if online {
		flag = 1
	}
	if _, err := r.db.Exec("UPDATE users SET is_online = ? WHERE id = ?", flag, id); err != nil {
		return fmt.Errorf("failed to update online flag: %w", err)
	}
	return nil
}

func (r *UserRepository) getUser(query string, args ...interface{}) (*models.User, error) {
	row := r.db.QueryRow(query, args...)
	u, err := scanUserRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUserRow(row *sql.Row) (*models.User, error) {
	return scanUserFrom(row)
}

func scanUser(rows *sql.Rows) (*models.User, error) {
	u, err := scanUserFrom(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return u, nil
}

func scanUserFrom(s rowScanner) (*models.User, error) {
	u := &models.User{}
	var avatarURL, status sql.NullString
	var isOnline int

	err := s.Scan(
		&u.ID, &u.ParentID, &u.Username, &u.DisplayName, &u.PinHash,
		&avatarURL, &status, &isOnline, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.AvatarURL = avatarURL.String
	u.Status = status.String
	u.IsOnline = isOnline == 1
	return u, nil
}
