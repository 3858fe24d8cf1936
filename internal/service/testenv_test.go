package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"hanghub/internal/database"
	"hanghub/internal/models"
	"hanghub/internal/repository"
	"hanghub/internal/security"
)

// testEnv wires every service against a real SQLite database in a temp dir.
// The email service runs disabled, so flows that dispatch mail exercise the
// full path without touching the network.
type testEnv struct {
	db         *database.DB
	parents    *repository.ParentRepository
	users      *repository.UserRepository
	hangs      *repository.HangRepository
	tokens     *repository.TokenRepository
	friends    *repository.FriendRepository
	qrInvites  *repository.QRInviteRepository
	activities *repository.ActivityRepository

	auth      *AuthService
	hangSvc   *HangService
	approvals *ApprovalService
	friendSvc *FriendService
	qrSvc     *QRInviteService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Initialize(dbPath)
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.EnsureSchema(); err != nil {
		t.Fatalf("Failed to apply schema: %v", err)
	}

	email, err := NewEmailService("", "", "", "http://localhost:8080", false)
	if err != nil {
		t.Fatalf("Failed to create email service: %v", err)
	}

	env := &testEnv{
		db:         db,
		parents:    repository.NewParentRepository(db),
		users:      repository.NewUserRepository(db),
		hangs:      repository.NewHangRepository(db),
		tokens:     repository.NewTokenRepository(db),
		friends:    repository.NewFriendRepository(db),
		qrInvites:  repository.NewQRInviteRepository(db),
		activities: repository.NewActivityRepository(db),
	}
	env.auth = NewAuthService(env.parents, env.users, email)
	env.approvals = NewApprovalService(db, env.hangs, env.tokens, env.users, env.parents, env.activities, email)
	env.hangSvc = NewHangService(db, env.hangs, env.users, env.friends, env.activities, env.approvals)
	env.friendSvc = NewFriendService(db, env.friends, env.users, env.activities)
	env.qrSvc = NewQRInviteService(db, env.qrInvites, env.users, env.parents, env.friends, env.hangs, email)
	return env
}

// mustParent inserts a parent directly, skipping email delivery
func (e *testEnv) mustParent(t *testing.T, email string) *models.Parent {
	t.Helper()
	hash, err := security.HashPassword("password123")
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	p := &models.Parent{
		ID:            uuid.New().String(),
		Email:         email,
		PasswordHash:  hash,
		Name:          "Parent",
		EmailVerified: true,
	}
	if err := e.parents.CreateParent(p); err != nil {
		t.Fatalf("Failed to create parent: %v", err)
	}
	return p
}

// mustChild inserts a child under the given parent
func (e *testEnv) mustChild(t *testing.T, parentID, username string) *models.User {
	t.Helper()
	child, err := e.auth.CreateChild(parentID, username, "Kid "+username, "1234")
	if err != nil {
		t.Fatalf("Failed to create child %s: %v", username, err)
	}
	return child
}

// mustFriends makes two users friends directly
func (e *testEnv) mustFriends(t *testing.T, a, b string) {
	t.Helper()
	tx, err := e.db.Begin()
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}
	if err := e.friends.CreateFriendship(tx, a, b); err != nil {
		t.Fatalf("Failed to create friendship: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Failed to commit friendship: %v", err)
	}
}

// mustHang creates a hang through the service and returns it with the
// creator's approve/decline tokens
func (e *testEnv) mustHang(t *testing.T, creatorID string, invitees ...string) (*models.Hang, *models.ApprovalToken, *models.ApprovalToken) {
	t.Helper()
	hang, err := e.hangSvc.CreateHang(creatorID, "Park meetup", time.Now().Add(24*time.Hour), invitees)
	if err != nil {
		t.Fatalf("Failed to create hang: %v", err)
	}
	approve, decline := e.tokensFor(t, hang.ID, creatorID)
	return hang, approve, decline
}

// tokensFor reads the live approve/decline token pair for a participant
func (e *testEnv) tokensFor(t *testing.T, hangID, childID string) (*models.ApprovalToken, *models.ApprovalToken) {
	t.Helper()
	rows, err := e.db.Query(
		"SELECT id, action FROM hang_approval_tokens WHERE hang_id = ? AND child_id = ? AND used = 0",
		hangID, childID,
	)
	if err != nil {
		t.Fatalf("Failed to query tokens: %v", err)
	}
	defer rows.Close()

	var approve, decline *models.ApprovalToken
	for rows.Next() {
		tok := &models.ApprovalToken{HangID: hangID, ChildID: childID}
		if err := rows.Scan(&tok.ID, &tok.Action); err != nil {
			t.Fatalf("Failed to scan token: %v", err)
		}
		switch tok.Action {
		case models.TokenActionApprove:
			approve = tok
		case models.TokenActionDecline:
			decline = tok
		}
	}
	if approve == nil || decline == nil {
		t.Fatalf("Expected an approve/decline token pair for hang %s child %s", hangID, childID)
	}
	return approve, decline
}

// approvalOf reads a participant's approval state
func (e *testEnv) approvalOf(t *testing.T, hangID, childID string) models.ApprovalStatus {
	t.Helper()
	p, err := e.hangs.GetParticipant(e.db, hangID, childID)
	if err != nil {
		t.Fatalf("Failed to get participant: %v", err)
	}
	if p == nil {
		t.Fatalf("No participant row for hang %s child %s", hangID, childID)
	}
	return p.Approval
}
