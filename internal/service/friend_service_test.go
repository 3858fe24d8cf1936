package service

import (
	"errors"
	"testing"

	"hanghub/internal/models"
)

func TestFriendRequestLifecycle(t *testing.T) {
	env := newTestEnv(t)
	parent := env.mustParent(t, "parent@example.com")
	alice := env.mustChild(t, parent.ID, "alice")
	bob := env.mustChild(t, parent.ID, "bob")

	req, err := env.friendSvc.SendRequest(alice.ID, "bob")
	if err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}
	if req.ToUserID != bob.ID || req.Status != models.RequestStatusPending {
		t.Errorf("request = %+v, want pending to bob", req)
	}

	incoming, err := env.friendSvc.ListIncomingRequests(bob.ID)
	if err != nil {
		t.Fatalf("ListIncomingRequests() error = %v", err)
	}
	if len(incoming) != 1 || incoming[0].FromName != alice.DisplayName {
		t.Errorf("incoming = %+v, want one request from alice", incoming)
	}

	// Only the recipient can accept
	if err := env.friendSvc.AcceptRequest(alice.ID, req.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("AcceptRequest() by sender error = %v, want ErrUnauthorized", err)
	}

	if err := env.friendSvc.AcceptRequest(bob.ID, req.ID); err != nil {
		t.Fatalf("AcceptRequest() error = %v", err)
	}

	// Friendship is symmetric
	for _, pair := range [][2]string{{alice.ID, bob.ID}, {bob.ID, alice.ID}} {
		ok, err := env.friends.AreFriends(pair[0], pair[1])
		if err != nil {
			t.Fatalf("AreFriends() error = %v", err)
		}
		if !ok {
			t.Errorf("AreFriends(%v, %v) = false, want true", pair[0], pair[1])
		}
	}

	// Accepting twice hits the resolved guard
	if err := env.friendSvc.AcceptRequest(bob.ID, req.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second AcceptRequest() error = %v, want ErrInvalidState", err)
	}
}

func TestSendRequestGuards(t *testing.T) {
	env := newTestEnv(t)
	parent := env.mustParent(t, "parent@example.com")
	alice := env.mustChild(t, parent.ID, "alice")
	bob := env.mustChild(t, parent.ID, "bob")

	if _, err := env.friendSvc.SendRequest(alice.ID, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SendRequest(unknown) error = %v, want ErrNotFound", err)
	}
	if _, err := env.friendSvc.SendRequest(alice.ID, "alice"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("SendRequest(self) error = %v, want ErrInvalidState", err)
	}

	if _, err := env.friendSvc.SendRequest(alice.ID, "bob"); err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}
	if _, err := env.friendSvc.SendRequest(alice.ID, "bob"); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate SendRequest() error = %v, want ErrConflict", err)
	}
	// Bob already has alice's request waiting; sending one back is wrong
	if _, err := env.friendSvc.SendRequest(bob.ID, "alice"); !errors.Is(err, ErrReversePending) {
		t.Errorf("reverse SendRequest() error = %v, want ErrReversePending", err)
	}

	env.mustFriends(t, alice.ID, bob.ID)
	if _, err := env.friendSvc.SendRequest(alice.ID, "bob"); !errors.Is(err, ErrConflict) {
		t.Errorf("SendRequest() to existing friend error = %v, want ErrConflict", err)
	}
}

func TestDeclineAndCancelRequest(t *testing.T) {
	env := newTestEnv(t)
	parent := env.mustParent(t, "parent@example.com")
	alice := env.mustChild(t, parent.ID, "alice")
	bob := env.mustChild(t, parent.ID, "bob")

	req, err := env.friendSvc.SendRequest(alice.ID, "bob")
	if err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}
	if err := env.friendSvc.DeclineRequest(bob.ID, req.ID); err != nil {
		t.Fatalf("DeclineRequest() error = %v", err)
	}
	ok, err := env.friends.AreFriends(alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("AreFriends() error = %v", err)
	}
	if ok {
		t.Error("declined request must not create a friendship")
	}

	// A declined request does not block a fresh attempt
	req2, err := env.friendSvc.SendRequest(alice.ID, "bob")
	if err != nil {
		t.Fatalf("SendRequest() after decline error = %v", err)
	}
	if err := env.friendSvc.CancelRequest(bob.ID, req2.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("CancelRequest() by recipient error = %v, want ErrUnauthorized", err)
	}
	if err := env.friendSvc.CancelRequest(alice.ID, req2.ID); err != nil {
		t.Fatalf("CancelRequest() error = %v", err)
	}
	if err := env.friendSvc.AcceptRequest(bob.ID, req2.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("AcceptRequest() on cancelled request error = %v, want ErrNotFound", err)
	}
}

func TestRemoveFriendIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	parent := env.mustParent(t, "parent@example.com")
	alice := env.mustChild(t, parent.ID, "alice")
	bob := env.mustChild(t, parent.ID, "bob")
	env.mustFriends(t, alice.ID, bob.ID)

	if err := env.friendSvc.RemoveFriend(alice.ID, bob.ID); err != nil {
		t.Fatalf("RemoveFriend() error = %v", err)
	}
	ok, _ := env.friends.AreFriends(bob.ID, alice.ID)
	if ok {
		t.Error("removal must delete both directions")
	}

	// Removing again is a no-op, not an error
	if err := env.friendSvc.RemoveFriend(alice.ID, bob.ID); err != nil {
		t.Errorf("repeat RemoveFriend() error = %v, want nil", err)
	}
}

func TestAddCustomGroup(t *testing.T) {
	env := newTestEnv(t)
	parent := env.mustParent(t, "parent@example.com")
	alice := env.mustChild(t, parent.ID, "alice")
	bob := env.mustChild(t, parent.ID, "bob")
	carol := env.mustChild(t, parent.ID, "carol")
	env.mustFriends(t, alice.ID, bob.ID)

	if err := env.friendSvc.AddCustomGroup(alice.ID, carol.ID, "soccer"); !errors.Is(err, ErrNotFriends) {
		t.Errorf("AddCustomGroup() on non-friend error = %v, want ErrNotFriends", err)
	}
	if err := env.friendSvc.AddCustomGroup(alice.ID, bob.ID, "  "); !errors.Is(err, ErrInvalidState) {
		t.Errorf("AddCustomGroup() with blank name error = %v, want ErrInvalidState", err)
	}

	if err := env.friendSvc.AddCustomGroup(alice.ID, bob.ID, "soccer"); err != nil {
		t.Fatalf("AddCustomGroup() error = %v", err)
	}
	friends, err := env.friendSvc.ListFriends(alice.ID)
	if err != nil {
		t.Fatalf("ListFriends() error = %v", err)
	}
	if len(friends) != 1 || len(friends[0].Groups) != 1 || friends[0].Groups[0] != "soccer" {
		t.Errorf("friends = %+v, want bob in group soccer", friends)
	}

	// Adding the same membership again is a no-op
	if err := env.friendSvc.AddCustomGroup(alice.ID, bob.ID, "soccer"); err != nil {
		t.Fatalf("repeat AddCustomGroup() error = %v", err)
	}
	friends, _ = env.friendSvc.ListFriends(alice.ID)
	if len(friends[0].Groups) != 1 {
		t.Errorf("groups = %v, repeat add must not duplicate", friends[0].Groups)
	}

	// Toggle still removes a membership created through add
	in, err := env.friendSvc.ToggleGroup(alice.ID, bob.ID, "soccer")
	if err != nil {
		t.Fatalf("ToggleGroup() error = %v", err)
	}
	if in {
		t.Error("toggle after add should remove from the group")
	}
}

func TestToggleGroup(t *testing.T) {
	env := newTestEnv(t)
	parent := env.mustParent(t, "parent@example.com")
	alice := env.mustChild(t, parent.ID, "alice")
	bob := env.mustChild(t, parent.ID, "bob")
	carol := env.mustChild(t, parent.ID, "carol")
	env.mustFriends(t, alice.ID, bob.ID)

	if _, err := env.friendSvc.ToggleGroup(alice.ID, carol.ID, "school"); !errors.Is(err, ErrNotFriends) {
		t.Errorf("ToggleGroup() on non-friend error = %v, want ErrNotFriends", err)
	}

	in, err := env.friendSvc.ToggleGroup(alice.ID, bob.ID, "school")
	if err != nil {
		t.Fatalf("ToggleGroup() error = %v", err)
	}
	if !in {
		t.Error("first toggle should add to the group")
	}

	friends, err := env.friendSvc.ListFriends(alice.ID)
	if err != nil {
		t.Fatalf("ListFriends() error = %v", err)
	}
	if len(friends) != 1 || len(friends[0].Groups) != 1 || friends[0].Groups[0] != "school" {
		t.Errorf("friends = %+v, want bob in group school", friends)
	}

	// Group labels are one-sided
	bobFriends, err := env.friendSvc.ListFriends(bob.ID)
	if err != nil {
		t.Fatalf("ListFriends(bob) error = %v", err)
	}
	if len(bobFriends) != 1 || len(bobFriends[0].Groups) != 0 {
		t.Errorf("bob's view = %+v, groups must not leak across owners", bobFriends)
	}

	in, err = env.friendSvc.ToggleGroup(alice.ID, bob.ID, "school")
	if err != nil {
		t.Fatalf("ToggleGroup() error = %v", err)
	}
	if in {
		t.Error("second toggle should remove from the group")
	}
}
