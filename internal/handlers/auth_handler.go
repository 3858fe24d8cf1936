package handlers

import (
	"encoding/json"
	"net/http"

	"hanghub/internal/models"
	"hanghub/internal/security"
	"hanghub/internal/service"
	"hanghub/internal/session"
)

// AuthHandler handles account registration, login and session endpoints
type AuthHandler struct {
	auth     *service.AuthService
	sessions *session.Manager
	csrf     *security.CSRFGenerator

	oauthProviders map[string]*OAuthProvider
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *service.AuthService, sessions *session.Manager, csrf *security.CSRFGenerator,
	oauthProviders map[string]*OAuthProvider) *AuthHandler {
	return &AuthHandler{
		auth:           auth,
		sessions:       sessions,
		csrf:           csrf,
		oauthProviders: oauthProviders,
	}
}

// issueSession signs a session for the identity and sets the cookie
func (h *AuthHandler) issueSession(w http.ResponseWriter, r *http.Request, id session.Identity) error {
	token, expires, err := h.sessions.Issue(id)
	if err != nil {
		return err
	}
	http.SetCookie(w, security.CreateSessionCookie(r, session.CookieName, token, expires))
	return nil
}

func parentIdentity(p *models.Parent) session.Identity {
	return session.Identity{
		UserID:        p.ID,
		Name:          p.Name,
		Role:          session.RoleParent,
		EmailVerified: p.EmailVerified,
	}
}

func childIdentity(u *models.User) session.Identity {
	return session.Identity{
		UserID:   u.ID,
		ParentID: u.ParentID,
		Name:     u.DisplayName,
		Role:     session.RoleChild,
	}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	parent, err := h.auth.RegisterParent(req.Email, req.Password, req.Name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if err := h.issueSession(w, r, parentIdentity(parent)); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to start session", err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id":            parent.ID,
		"name":          parent.Name,
		"email":         parent.Email,
		"emailVerified": parent.EmailVerified,
	})
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	parent, err := h.auth.LoginParent(req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if err := h.issueSession(w, r, parentIdentity(parent)); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to start session", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":            parent.ID,
		"name":          parent.Name,
		"emailVerified": parent.EmailVerified,
	})
}

// KidLogin handles POST /auth/kid-login
func (h *AuthHandler) KidLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		PIN      string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	child, err := h.auth.LoginChild(req.Username, req.PIN)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if err := h.issueSession(w, r, childIdentity(child)); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to start session", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":          child.ID,
		"username":    child.Username,
		"displayName": child.DisplayName,
		"avatarUrl":   child.AvatarURL,
	})
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(session.CookieName); err == nil {
		if id, err := h.sessions.Verify(cookie.Value); err == nil && id.IsChild() {
			h.auth.LogoutChild(id.UserID)
		}
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, session.CookieName))
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// VerifyEmail handles GET /auth/verify?token=...
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondWithError(w, http.StatusBadRequest, "Missing verification token", nil)
		return
	}
	parent, err := h.auth.VerifyEmail(token)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"email":         parent.Email,
		"emailVerified": true,
	})
}

// Me handles GET /api/me: the current identity plus its CSRF token
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())

	csrfToken := ""
	if cookie, err := r.Cookie(session.CookieName); err == nil {
		csrfToken, _ = h.csrf.GenerateToken(cookie.Value)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"userId":        id.UserID,
		"name":          id.Name,
		"role":          id.Role,
		"emailVerified": id.EmailVerified,
		"csrfToken":     csrfToken,
	})
}

// CreateChild handles POST /api/parent/children
func (h *AuthHandler) CreateChild(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())

	var req struct {
		Username    string `json:"username"`
		DisplayName string `json:"displayName"`
		PIN         string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	child, err := h.auth.CreateChild(id.UserID, req.Username, req.DisplayName, req.PIN)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id":          child.ID,
		"username":    child.Username,
		"displayName": child.DisplayName,
	})
}

// ListChildren handles GET /api/parent/children
func (h *AuthHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	children, err := h.auth.GetChildren(id.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := make([]map[string]interface{}, 0, len(children))
	for _, c := range children {
		out = append(out, map[string]interface{}{
			"id":          c.ID,
			"username":    c.Username,
			"displayName": c.DisplayName,
			"avatarUrl":   c.AvatarURL,
			"isOnline":    c.IsOnline,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

// ResetChildPIN handles POST /api/parent/children/{id}/pin
func (h *AuthHandler) ResetChildPIN(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	childID := r.PathValue("id")

	var req struct {
		PIN string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.auth.ResetChildPIN(id.UserID, childID, req.PIN); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "pin updated"})
}

// UpdateAvatar handles POST /api/me/avatar for child sessions
func (h *AuthHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())

	var req struct {
		AvatarURL string `json:"avatarUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.auth.UpdateAvatar(id.UserID, req.AvatarURL); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "avatar updated"})
}
