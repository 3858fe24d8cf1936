package database

import "fmt"

// schemaStatements is the full relational schema, written in DDL that is
// accepted by SQLite, PostgreSQL and MySQL alike (uuid string keys, integer
// flags, no auto-increment columns).
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS parents (
		id VARCHAR(64) PRIMARY KEY,
		email VARCHAR(191) UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		name TEXT NOT NULL,
		email_verified INTEGER NOT NULL DEFAULT 0,
		verification_token VARCHAR(64),
		oauth_provider VARCHAR(32),
		oauth_subject VARCHAR(191),
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(64) PRIMARY KEY,
		parent_id VARCHAR(64) NOT NULL,
		username VARCHAR(191) UNIQUE NOT NULL,
		display_name TEXT NOT NULL,
		pin_hash TEXT NOT NULL,
		avatar_url TEXT,
		status TEXT,
		is_online INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (parent_id) REFERENCES parents (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS hangs (
		id VARCHAR(64) PRIMARY KEY,
		title TEXT NOT NULL,
		scheduled_at TIMESTAMP NOT NULL,
		created_by VARCHAR(64) NOT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'suggested',
		parent_approved INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (created_by) REFERENCES users (id)
	)`,
	`CREATE TABLE IF NOT EXISTS hang_participants (
		hang_id VARCHAR(64) NOT NULL,
		user_id VARCHAR(64) NOT NULL,
		approval INTEGER NOT NULL DEFAULT 0,
		joined_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (hang_id, user_id),
		FOREIGN KEY (hang_id) REFERENCES hangs (id) ON DELETE CASCADE,
		FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS hang_invites (
		hang_id VARCHAR(64) NOT NULL,
		user_id VARCHAR(64) NOT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (hang_id, user_id),
		FOREIGN KEY (hang_id) REFERENCES hangs (id) ON DELETE CASCADE,
		FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS hang_approval_tokens (
		id VARCHAR(64) PRIMARY KEY,
		hang_id VARCHAR(64) NOT NULL,
		child_id VARCHAR(64) NOT NULL,
		action VARCHAR(16) NOT NULL,
		used INTEGER NOT NULL DEFAULT 0,
		resolved_action VARCHAR(16),
		expires_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (hang_id) REFERENCES hangs (id) ON DELETE CASCADE,
		FOREIGN KEY (child_id) REFERENCES users (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS friend_requests (
		id VARCHAR(64) PRIMARY KEY,
		from_user_id VARCHAR(64) NOT NULL,
		to_user_id VARCHAR(64) NOT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (from_user_id) REFERENCES users (id) ON DELETE CASCADE,
		FOREIGN KEY (to_user_id) REFERENCES users (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS friendships (
		user_id VARCHAR(64) NOT NULL,
		friend_id VARCHAR(64) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, friend_id),
		FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
		FOREIGN KEY (friend_id) REFERENCES users (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS friend_groups (
		owner_id VARCHAR(64) NOT NULL,
		friend_id VARCHAR(64) NOT NULL,
		group_name VARCHAR(100) NOT NULL,
		PRIMARY KEY (owner_id, friend_id, group_name),
		FOREIGN KEY (owner_id) REFERENCES users (id) ON DELETE CASCADE,
		FOREIGN KEY (friend_id) REFERENCES users (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS qr_invites (
		id VARCHAR(64) PRIMARY KEY,
		inviter_id VARCHAR(64) NOT NULL,
		hang_id VARCHAR(64),
		invite_type VARCHAR(16) NOT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'pending',
		invitee_name TEXT,
		parent_email VARCHAR(191),
		approval_token VARCHAR(64),
		approval_token_expires_at TIMESTAMP,
		signup_token VARCHAR(64),
		signup_token_expires_at TIMESTAMP,
		new_child_id VARCHAR(64),
		expires_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (inviter_id) REFERENCES users (id) ON DELETE CASCADE,
		FOREIGN KEY (hang_id) REFERENCES hangs (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS activities (
		id VARCHAR(64) PRIMARY KEY,
		type VARCHAR(32) NOT NULL,
		actor_id VARCHAR(64) NOT NULL,
		target_user_id VARCHAR(64) NOT NULL,
		content TEXT NOT NULL,
		hang_id VARCHAR(64),
		is_read INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (actor_id) REFERENCES users (id),
		FOREIGN KEY (target_user_id) REFERENCES users (id),
		FOREIGN KEY (hang_id) REFERENCES hangs (id) ON DELETE CASCADE
	)`,
}

// EnsureSchema creates any missing tables. Statements are idempotent, so this
// is safe to run on every startup.
func (db *DB) EnsureSchema() error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
