package handlers

import (
	"encoding/json"
	"net/http"

	"hanghub/internal/service"
)

// FriendHandler handles friend requests, friendships and groups
type FriendHandler struct {
	friends *service.FriendService
}

// NewFriendHandler creates a new friend handler
func NewFriendHandler(friends *service.FriendService) *FriendHandler {
	return &FriendHandler{friends: friends}
}

// List handles GET /api/friends
func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	friends, err := h.friends.ListFriends(id.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := make([]map[string]interface{}, 0, len(friends))
	for _, f := range friends {
		groups := f.Groups
		if groups == nil {
			groups = []string{}
		}
		out = append(out, map[string]interface{}{
			"id":          f.User.ID,
			"username":    f.User.Username,
			"displayName": f.User.DisplayName,
			"avatarUrl":   f.User.AvatarURL,
			"status":      f.User.Status,
			"isOnline":    f.User.IsOnline,
			"groups":      groups,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

// SendRequest handles POST /api/friends/requests
func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())

	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	created, err := h.friends.SendRequest(id.UserID, req.Username)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id":     created.ID,
		"status": created.Status,
	})
}

// ListRequests handles GET /api/friends/requests
func (h *FriendHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	requests, err := h.friends.ListIncomingRequests(id.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := make([]map[string]interface{}, 0, len(requests))
	for _, req := range requests {
		out = append(out, map[string]interface{}{
			"id":        req.ID,
			"fromName":  req.FromName,
			"createdAt": req.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

// AcceptRequest handles POST /api/friends/requests/{id}/accept
func (h *FriendHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	if err := h.friends.AcceptRequest(id.UserID, r.PathValue("id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

// DeclineRequest handles POST /api/friends/requests/{id}/decline
func (h *FriendHandler) DeclineRequest(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	if err := h.friends.DeclineRequest(id.UserID, r.PathValue("id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "declined"})
}

// CancelRequest handles DELETE /api/friends/requests/{id}
func (h *FriendHandler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	if err := h.friends.CancelRequest(id.UserID, r.PathValue("id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// Remove handles DELETE /api/friends/{id}
func (h *FriendHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	if err := h.friends.RemoveFriend(id.UserID, r.PathValue("id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// AddGroup handles POST /api/friends/{id}/groups
func (h *FriendHandler) AddGroup(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())

	var req struct {
		Group string `json:"group"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.friends.AddCustomGroup(id.UserID, r.PathValue("id"), req.Group); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"group":   req.Group,
		"inGroup": true,
	})
}

// ToggleGroup handles POST /api/friends/{id}/groups/toggle
func (h *FriendHandler) ToggleGroup(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())

	var req struct {
		Group string `json:"group"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	inGroup, err := h.friends.ToggleGroup(id.UserID, r.PathValue("id"), req.Group)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"group":   req.Group,
		"inGroup": inGroup,
	})
}
