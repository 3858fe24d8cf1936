package handlers

import (
	"net/http"

	"hanghub/internal/service"
)

// ApprovalHandler handles the emailed approval links and parent overrides.
// The redeem endpoint is public: possession of the token is the credential.
type ApprovalHandler struct {
	approvals *service.ApprovalService
}

// NewApprovalHandler creates a new approval handler
func NewApprovalHandler(approvals *service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvals: approvals}
}

// Redeem handles GET /approve/{token}
func (h *ApprovalHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	result, err := h.approvals.Redeem(r.PathValue("token"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Cancel handles POST /api/parent/hangs/{id}/cancel/{childId}
func (h *ApprovalHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	if err := h.approvals.Cancel(id.UserID, r.PathValue("id"), r.PathValue("childId")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}
