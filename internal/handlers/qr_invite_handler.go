package handlers

import (
	"encoding/json"
	"net/http"

	"hanghub/internal/models"
	"hanghub/internal/security"
	"hanghub/internal/service"
	"hanghub/internal/session"
)

// QRInviteHandler handles the QR onboarding pipeline. The scan, approval and
// signup endpoints are public; each is gated by its own token.
type QRInviteHandler struct {
	invites  *service.QRInviteService
	sessions *session.Manager
}

// NewQRInviteHandler creates a new QR invite handler
func NewQRInviteHandler(invites *service.QRInviteService, sessions *session.Manager) *QRInviteHandler {
	return &QRInviteHandler{invites: invites, sessions: sessions}
}

func qrInviteJSON(q *models.QRInvite) map[string]interface{} {
	out := map[string]interface{}{
		"token":         q.ID,
		"type":          q.InviteType,
		"status":        q.Status,
		"inviterName":   q.InviterName,
		"inviterAvatar": q.InviterAvatar,
		"expiresAt":     q.ExpiresAt,
	}
	if q.HangID != "" {
		out["hangTitle"] = q.HangTitle
		out["hangDate"] = q.HangDate
	}
	return out
}

// Generate handles POST /api/qr-invites for child sessions
func (h *QRInviteHandler) Generate(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())

	var req struct {
		Type   string `json:"type"`
		HangID string `json:"hangId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	invite, err := h.invites.Generate(id.UserID, req.Type, req.HangID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"token":     invite.ID,
		"url":       "/invite/" + invite.ID,
		"expiresAt": invite.ExpiresAt,
	})
}

// Details handles GET /invite/{token}: the landing page data after a scan
func (h *QRInviteHandler) Details(w http.ResponseWriter, r *http.Request) {
	invite, err := h.invites.Details(r.PathValue("token"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, qrInviteJSON(invite))
}

// SubmitInfo handles POST /invite/{token}: the scanner submits their name and
// a parent email
func (h *QRInviteHandler) SubmitInfo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		ParentEmail string `json:"parentEmail"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.invites.SubmitInfo(r.PathValue("token"), req.Name, req.ParentEmail); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "parent notified"})
}

// Approve handles POST /invite/approve/{token}
func (h *QRInviteHandler) Approve(w http.ResponseWriter, r *http.Request) {
	invite, err := h.invites.Approve(r.PathValue("token"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "approved, signup link emailed",
		"inviteeName": invite.InviteeName,
	})
}

// Decline handles POST /invite/decline/{token}
func (h *QRInviteHandler) Decline(w http.ResponseWriter, r *http.Request) {
	invite, err := h.invites.Decline(r.PathValue("token"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "declined",
		"inviteeName": invite.InviteeName,
	})
}

// SignupDetails handles GET /invite/signup?token=...
func (h *QRInviteHandler) SignupDetails(w http.ResponseWriter, r *http.Request) {
	invite, err := h.invites.SignupDetails(r.URL.Query().Get("token"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"inviteeName": invite.InviteeName,
		"parentEmail": invite.ParentEmail,
		"inviterName": invite.InviterName,
	})
}

// CompleteSignup handles POST /invite/signup. On success the new kid is
// logged straight in.
func (h *QRInviteHandler) CompleteSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token          string `json:"token"`
		ParentName     string `json:"parentName"`
		ParentPassword string `json:"parentPassword"`
		Username       string `json:"username"`
		PIN            string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	child, err := h.invites.CompleteSignup(req.Token, req.ParentName, req.ParentPassword, req.Username, req.PIN)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	token, expires, err := h.sessions.Issue(session.Identity{
		UserID:   child.ID,
		ParentID: child.ParentID,
		Name:     child.DisplayName,
		Role:     session.RoleChild,
	})
	if err == nil {
		http.SetCookie(w, security.CreateSessionCookie(r, session.CookieName, token, expires))
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id":          child.ID,
		"username":    child.Username,
		"displayName": child.DisplayName,
	})
}
