package service

import (
	"errors"
	"testing"

	"hanghub/internal/models"
)

func TestQRFriendInvitePipeline(t *testing.T) {
	env := newTestEnv(t)
	parent := env.mustParent(t, "parent@example.com")
	inviter := env.mustChild(t, parent.ID, "inviter")

	invite, err := env.qrSvc.Generate(inviter.ID, models.QRInviteTypeFriend, "")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if invite.Status != models.QRInvitePending {
		t.Errorf("invite.Status = %v, want pending", invite.Status)
	}

	details, err := env.qrSvc.Details(invite.ID)
	if err != nil {
		t.Fatalf("Details() error = %v", err)
	}
	if details.InviterName != inviter.DisplayName {
		t.Errorf("Details().InviterName = %v, want %v", details.InviterName, inviter.DisplayName)
	}

	if err := env.qrSvc.SubmitInfo(invite.ID, "New Kid", "newparent@example.com"); err != nil {
		t.Fatalf("SubmitInfo() error = %v", err)
	}
	scanned, _ := env.qrInvites.GetByID(invite.ID)
	if scanned.Status != models.QRInviteScanned || scanned.ApprovalToken == "" {
		t.Fatalf("invite after scan = %+v, want scanned with approval token", scanned)
	}

	// Double submit cannot restart the stage
	if err := env.qrSvc.SubmitInfo(invite.ID, "Other Kid", "other@example.com"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second SubmitInfo() error = %v, want ErrInvalidState", err)
	}

	approved, err := env.qrSvc.Approve(scanned.ApprovalToken)
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	afterApprove, _ := env.qrInvites.GetByID(invite.ID)
	if afterApprove.Status != models.QRInviteApproved || afterApprove.SignupToken == "" {
		t.Fatalf("invite after approve = %+v, want approved with signup token", afterApprove)
	}
	if approved.InviteeName != "New Kid" {
		t.Errorf("Approve().InviteeName = %v, want New Kid", approved.InviteeName)
	}

	// Approving again cannot mint a second signup token
	if _, err := env.qrSvc.Approve(scanned.ApprovalToken); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second Approve() error = %v, want ErrInvalidState", err)
	}

	child, err := env.qrSvc.CompleteSignup(afterApprove.SignupToken, "New Parent", "password123", "newkid", "4321")
	if err != nil {
		t.Fatalf("CompleteSignup() error = %v", err)
	}
	if child.DisplayName != "New Kid" {
		t.Errorf("child.DisplayName = %v, want New Kid", child.DisplayName)
	}

	done, _ := env.qrInvites.GetByID(invite.ID)
	if done.Status != models.QRInviteCompleted || done.NewChildID != child.ID {
		t.Errorf("invite after signup = %+v, want completed", done)
	}

	// The new kid and the inviter are friends both ways
	ok, err := env.friends.AreFriends(child.ID, inviter.ID)
	if err != nil || !ok {
		t.Errorf("AreFriends(new, inviter) = %v, %v, want true", ok, err)
	}

	// The fly-created parent account works for login
	newParent, err := env.auth.LoginParent("newparent@example.com", "password123")
	if err != nil {
		t.Fatalf("LoginParent() error = %v", err)
	}
	if !newParent.EmailVerified {
		t.Error("parent created through the email flow should be verified")
	}
	if child.ParentID != newParent.ID {
		t.Error("child should belong to the approving parent")
	}

	// The signup link is single use
	if _, err := env.qrSvc.CompleteSignup(afterApprove.SignupToken, "X", "password123", "otherkid", "4321"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second CompleteSignup() error = %v, want ErrInvalidState", err)
	}
}

func TestQRInviteDecline(t *testing.T) {
	env := newTestEnv(t)
	parent := env.mustParent(t, "parent@example.com")
	inviter := env.mustChild(t, parent.ID, "inviter")

	invite, err := env.qrSvc.Generate(inviter.ID, models.QRInviteTypeFriend, "")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if err := env.qrSvc.SubmitInfo(invite.ID, "New Kid", "newparent@example.com"); err != nil {
		t.Fatalf("SubmitInfo() error = %v", err)
	}
	scanned, _ := env.qrInvites.GetByID(invite.ID)

	if _, err := env.qrSvc.Decline(scanned.ApprovalToken); err != nil {
		t.Fatalf("Decline() error = %v", err)
	}
	declined, _ := env.qrInvites.GetByID(invite.ID)
	if declined.Status != models.QRInviteDeclined {
		t.Errorf("invite.Status = %v, want declined", declined.Status)
	}

	// Declined is terminal
	if _, err := env.qrSvc.Approve(scanned.ApprovalToken); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Approve() after decline error = %v, want ErrInvalidState", err)
	}
}

func TestQRHangInviteAddsParticipant(t *testing.T) {
	env := newTestEnv(t)
	parent := env.mustParent(t, "parent@example.com")
	inviter := env.mustChild(t, parent.ID, "inviter")
	hang, _, _ := env.mustHang(t, inviter.ID)

	invite, err := env.qrSvc.Generate(inviter.ID, models.QRInviteTypeHang, hang.ID)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if err := env.qrSvc.SubmitInfo(invite.ID, "New Kid", "newparent@example.com"); err != nil {
		t.Fatalf("SubmitInfo() error = %v", err)
	}
	scanned, _ := env.qrInvites.GetByID(invite.ID)
	if _, err := env.qrSvc.Approve(scanned.ApprovalToken); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	approved, _ := env.qrInvites.GetByID(invite.ID)

	child, err := env.qrSvc.CompleteSignup(approved.SignupToken, "New Parent", "password123", "newkid", "4321")
	if err != nil {
		t.Fatalf("CompleteSignup() error = %v", err)
	}

	participant, err := env.hangs.GetParticipant(env.db, hang.ID, child.ID)
	if err != nil {
		t.Fatalf("GetParticipant() error = %v", err)
	}
	if participant == nil || participant.Approval != models.ApprovalUnpinged {
		t.Fatalf("participant = %+v, want unpinged participant for new kid", participant)
	}

	// The new kid can ask their parent from the unpinged slot and reach
	// approved through the usual email links
	if err := env.hangSvc.RequestApproval(child.ID, hang.ID); err != nil {
		t.Fatalf("RequestApproval() error = %v", err)
	}
	if got := env.approvalOf(t, hang.ID, child.ID); got != models.ApprovalPending {
		t.Fatalf("approval = %v, want pending after ping", got)
	}
	childApprove, _ := env.tokensFor(t, hang.ID, child.ID)
	if _, err := env.approvals.Redeem(childApprove.ID); err != nil {
		t.Fatalf("Redeem() error = %v", err)
	}
	if got := env.approvalOf(t, hang.ID, child.ID); got != models.ApprovalApproved {
		t.Errorf("approval = %v, want approved", got)
	}
}

func TestSignupParentCreationIsTransactional(t *testing.T) {
	env := newTestEnv(t)

	tx, err := env.db.Begin()
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	p := &models.Parent{
		ID:            "parent-tx",
		Email:         "rolledback@example.com",
		PasswordHash:  "irrelevant",
		Name:          "Tx Parent",
		EmailVerified: true,
	}
	if err := env.parents.CreateParentTx(tx, p); err != nil {
		t.Fatalf("CreateParentTx() error = %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback() error = %v", err)
	}

	// A signup that fails after this point must not strand a verified
	// account on the email, which would block every retry of the invite
	got, err := env.parents.GetParentByEmail("rolledback@example.com")
	if err != nil {
		t.Fatalf("GetParentByEmail() error = %v", err)
	}
	if got != nil {
		t.Errorf("parent row survived the rollback: %+v", got)
	}
}

func TestQRGenerateGuards(t *testing.T) {
	env := newTestEnv(t)
	parent := env.mustParent(t, "parent@example.com")
	inviter := env.mustChild(t, parent.ID, "inviter")
	other := env.mustChild(t, parent.ID, "other")
	hang, _, _ := env.mustHang(t, inviter.ID)

	if _, err := env.qrSvc.Generate(inviter.ID, "bogus", ""); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Generate(bogus type) error = %v, want ErrInvalidState", err)
	}
	if _, err := env.qrSvc.Generate(inviter.ID, models.QRInviteTypeHang, ""); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Generate(hang, no id) error = %v, want ErrInvalidState", err)
	}
	if _, err := env.qrSvc.Generate(other.ID, models.QRInviteTypeHang, hang.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Generate() by non-participant error = %v, want ErrUnauthorized", err)
	}
}

func TestQRExpiredScanToken(t *testing.T) {
	env := newTestEnv(t)
	parent := env.mustParent(t, "parent@example.com")
	inviter := env.mustChild(t, parent.ID, "inviter")

	invite, err := env.qrSvc.Generate(inviter.ID, models.QRInviteTypeFriend, "")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if _, err := env.db.Exec("UPDATE qr_invites SET expires_at = ? WHERE id = ?", "2020-01-01 00:00:00", invite.ID); err != nil {
		t.Fatalf("Failed to expire invite: %v", err)
	}

	if _, err := env.qrSvc.Details(invite.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Details(expired) error = %v, want ErrInvalidState", err)
	}
	if err := env.qrSvc.SubmitInfo(invite.ID, "Kid", "p@example.com"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("SubmitInfo(expired) error = %v, want ErrInvalidState", err)
	}
}

func TestQRSignupRejectsKnownParentEmail(t *testing.T) {
	env := newTestEnv(t)
	parent := env.mustParent(t, "parent@example.com")
	env.mustParent(t, "known@example.com")
	inviter := env.mustChild(t, parent.ID, "inviter")

	invite, err := env.qrSvc.Generate(inviter.ID, models.QRInviteTypeFriend, "")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if err := env.qrSvc.SubmitInfo(invite.ID, "New Kid", "known@example.com"); err != nil {
		t.Fatalf("SubmitInfo() error = %v", err)
	}
	scanned, _ := env.qrInvites.GetByID(invite.ID)
	if _, err := env.qrSvc.Approve(scanned.ApprovalToken); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	approved, _ := env.qrInvites.GetByID(invite.ID)

	// The address already has an account; the parent should log in and add
	// the kid there instead of the form creating a duplicate
	if _, err := env.qrSvc.CompleteSignup(approved.SignupToken, "Known Parent", "password123", "newkid", "4321"); !errors.Is(err, ErrConflict) {
		t.Errorf("CompleteSignup(known email) error = %v, want ErrConflict", err)
	}

	// The invite stays approved, so nothing was consumed by the rejection
	after, _ := env.qrInvites.GetByID(invite.ID)
	if after.Status != models.QRInviteApproved {
		t.Errorf("invite.Status = %v, want approved after rejected signup", after.Status)
	}
}
