package repository

import (
	"database/sql"
	"fmt"
	"time"

	"hanghub/internal/database"
	"hanghub/internal/models"
)

// ParentRepository handles database operations for parent accounts
type ParentRepository struct {
	db *database.DB
}

// NewParentRepository creates a new parent repository
func NewParentRepository(db *database.DB) *ParentRepository {
	return &ParentRepository{db: db}
}

// CreateParent inserts a new parent account
func (r *ParentRepository) CreateParent(p *models.Parent) error {
	return r.CreateParentTx(r.db, p)
}

// CreateParentTx inserts a new parent account using the caller's transaction,
// so account creation can commit or roll back together with dependent rows
func (r *ParentRepository) CreateParentTx(dbtx database.DBTX, p *models.Parent) error {
	query := `
		INSERT INTO parents (id, email, password_hash, name, email_verified, verification_token, oauth_provider, oauth_subject)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	verified := 0
	if p.EmailVerified {
		verified = 1
	}
	_, err := dbtx.Exec(query,
		p.ID, p.Email, p.PasswordHash, p.Name, verified,
		nullIfEmpty(p.VerificationToken), nullIfEmpty(p.OAuthProvider), nullIfEmpty(p.OAuthSubject),
	)
	if err != nil {
		return fmt.Errorf("failed to create parent: %w", err)
	}
	return nil
}

// GetParentByID retrieves a parent by ID
func (r *ParentRepository) GetParentByID(id string) (*models.Parent, error) {
	return r.getParent("SELECT "+parentColumns+" FROM parents WHERE id = ?", id)
}

// GetParentByEmail retrieves a parent by email
func (r *ParentRepository) GetParentByEmail(email string) (*models.Parent, error) {
	return r.getParent("SELECT "+parentColumns+" FROM parents WHERE email = ?", email)
}

// GetParentByVerificationToken retrieves a parent by their email verification token
func (r *ParentRepository) GetParentByVerificationToken(token string) (*models.Parent, error) {
	return r.getParent("SELECT "+parentColumns+" FROM parents WHERE verification_token = ?", token)
}

// GetParentByOAuth retrieves a parent by OAuth provider and subject
func (r *ParentRepository) GetParentByOAuth(provider, subject string) (*models.Parent, error) {
	return r.getParent("SELECT "+parentColumns+" FROM parents WHERE oauth_provider = ? AND oauth_subject = ?", provider, subject)
}

// MarkEmailVerified flips the verified flag and clears the verification token
func (r *ParentRepository) MarkEmailVerified(id string) error {
	query := "UPDATE parents SET email_verified = 1, verification_token = NULL WHERE id = ?"
	if _, err := r.db.Exec(query, id); err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}
	return nil
}

const parentColumns = "id, email, password_hash, name, email_verified, verification_token, oauth_provider, oauth_subject, created_at"

func (r *ParentRepository) getParent(query string, args ...interface{}) (*models.Parent, error) {
	p := &models.Parent{}
	var verified int
	var verificationToken, oauthProvider, oauthSubject sql.NullString
	var createdAt time.Time

	err := r.db.QueryRow(query, args...).Scan(
		&p.ID, &p.Email, &p.PasswordHash, &p.Name, &verified,
		&verificationToken, &oauthProvider, &oauthSubject, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get parent: %w", err)
	}

	p.EmailVerified = verified == 1
	p.VerificationToken = verificationToken.String
	p.OAuthProvider = oauthProvider.String
	p.OAuthSubject = oauthSubject.String
	p.CreatedAt = createdAt
	return p, nil
}

// nullIfEmpty maps "" to NULL so optional columns stay NULL rather than empty strings
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
