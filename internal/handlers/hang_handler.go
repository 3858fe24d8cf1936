package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"hanghub/internal/models"
	"hanghub/internal/service"
)

// HangHandler handles hang lifecycle endpoints
type HangHandler struct {
	hangs      *service.HangService
	activities *service.ActivityService
}

// NewHangHandler creates a new hang handler
func NewHangHandler(hangs *service.HangService, activities *service.ActivityService) *HangHandler {
	return &HangHandler{hangs: hangs, activities: activities}
}

func hangJSON(h models.Hang) map[string]interface{} {
	return map[string]interface{}{
		"id":          h.ID,
		"title":       h.Title,
		"scheduledAt": h.ScheduledAt,
		"createdBy":   h.CreatedBy,
		"status":      h.Status,
		"isOpen":      h.IsOpen(),
	}
}

// Create handles POST /api/hangs
func (h *HangHandler) Create(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())

	var req struct {
		Title       string    `json:"title"`
		ScheduledAt time.Time `json:"scheduledAt"`
		InviteeIDs  []string  `json:"inviteeIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	hang, err := h.hangs.CreateHang(id.UserID, req.Title, req.ScheduledAt, req.InviteeIDs)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, hangJSON(*hang))
}

// List handles GET /api/hangs
func (h *HangHandler) List(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	views, err := h.hangs.ListHangs(id.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := make([]map[string]interface{}, 0, len(views))
	for _, v := range views {
		entry := hangJSON(v.Hang)
		entry["creatorName"] = v.CreatorName
		out = append(out, entry)
	}
	respondJSON(w, http.StatusOK, out)
}

// Get handles GET /api/hangs/{id}
func (h *HangHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	view, err := h.hangs.GetHangView(id.UserID, r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := hangJSON(view.Hang)
	out["creatorName"] = view.CreatorName
	out["participantIds"] = view.ParticipantIDs
	out["isCreator"] = view.IsCreator
	out["isCancelled"] = view.IsCancelled
	if view.MyApprovalStatus != nil {
		out["myApprovalStatus"] = view.MyApprovalStatus.String()
	}
	respondJSON(w, http.StatusOK, out)
}

// Join handles POST /api/hangs/{id}/join
func (h *HangHandler) Join(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	if err := h.hangs.JoinHang(id.UserID, r.PathValue("id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "joined, waiting for parent approval"})
}

// RequestApproval handles POST /api/hangs/{id}/ping
func (h *HangHandler) RequestApproval(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	if err := h.hangs.RequestApproval(id.UserID, r.PathValue("id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "parent asked"})
}

// Leave handles POST /api/hangs/{id}/leave
func (h *HangHandler) Leave(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	if err := h.hangs.LeaveHang(id.UserID, r.PathValue("id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

// DeclineInvite handles POST /api/hangs/{id}/decline
func (h *HangHandler) DeclineInvite(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	if err := h.hangs.DeclineInvite(id.UserID, r.PathValue("id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "declined"})
}

// ListInvites handles GET /api/invites
func (h *HangHandler) ListInvites(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	invites, err := h.hangs.ListInvites(id.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := make([]map[string]interface{}, 0, len(invites))
	for _, inv := range invites {
		out = append(out, map[string]interface{}{
			"hangId":      inv.HangID,
			"hangTitle":   inv.HangTitle,
			"scheduledAt": inv.HangScheduledAt,
			"inviterName": inv.InviterName,
			"createdAt":   inv.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

// ParentDashboard handles GET /api/parent/dashboard
func (h *HangHandler) ParentDashboard(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	approvals, err := h.hangs.ListApprovalsForParent(id.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := make([]map[string]interface{}, 0, len(approvals))
	for _, a := range approvals {
		out = append(out, map[string]interface{}{
			"hangId":      a.HangID,
			"hangTitle":   a.HangTitle,
			"scheduledAt": a.ScheduledAt,
			"childId":     a.ChildID,
			"childName":   a.ChildName,
			"approval":    a.ApprovalLabel,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

// Feed handles GET /api/activities
func (h *HangHandler) Feed(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	activities, err := h.activities.Feed(id.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := make([]map[string]interface{}, 0, len(activities))
	for _, a := range activities {
		out = append(out, map[string]interface{}{
			"id":          a.ID,
			"type":        a.Type,
			"content":     a.Content,
			"actorName":   a.ActorName,
			"actorAvatar": a.ActorAvatar,
			"hangId":      a.HangID,
			"hangTitle":   a.HangTitle,
			"isRead":      a.IsRead,
			"createdAt":   a.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

// MarkActivityRead handles POST /api/activities/{id}/read
func (h *HangHandler) MarkActivityRead(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	if err := h.activities.MarkRead(id.UserID, r.PathValue("id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

// MarkAllActivitiesRead handles POST /api/activities/read-all
func (h *HangHandler) MarkAllActivitiesRead(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	if err := h.activities.MarkAllRead(id.UserID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "read"})
}
