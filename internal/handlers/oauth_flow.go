package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"hanghub/internal/security"
)

// OAuthProvider defines provider configuration and metadata
type OAuthProvider struct {
	Name        string
	Label       string
	Config      *oauth2.Config
	UserInfoURL string
}

type oauthUserInfo struct {
	Subject string
	Email   string
	Name    string
}

// NewGoogleProvider builds the Google OAuth provider from configured
// credentials. Empty credentials yield a provider the start handler rejects.
func NewGoogleProvider(clientID, clientSecret, redirectBaseURL string) *OAuthProvider {
	return &OAuthProvider{
		Name:  "google",
		Label: "Google",
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  fmt.Sprintf("%s/auth/google/callback", redirectBaseURL),
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
	}
}

func (h *AuthHandler) provider(key string) *OAuthProvider {
	p, ok := h.oauthProviders[key]
	if !ok || p.Config == nil || p.Config.ClientID == "" || p.Config.ClientSecret == "" {
		return nil
	}
	return p
}

func setTempCookie(w http.ResponseWriter, r *http.Request, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   security.IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// StartOAuth handles GET /auth/{provider}/start
func (h *AuthHandler) StartOAuth(w http.ResponseWriter, r *http.Request) {
	provider := h.provider(r.PathValue("provider"))
	if provider == nil {
		respondWithError(w, http.StatusBadRequest, "OAuth provider not configured", nil)
		return
	}

	state := uuid.New().String()
	setTempCookie(w, r, "oauth_state", state, 10*time.Minute)

	authURL := provider.Config.AuthCodeURL(state, oauth2.AccessTypeOnline)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// OAuthCallback handles GET /auth/{provider}/callback
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider := h.provider(r.PathValue("provider"))
	if provider == nil {
		respondWithError(w, http.StatusBadRequest, "OAuth provider not configured", nil)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		respondWithError(w, http.StatusBadRequest, "Missing authorization code", nil)
		return
	}
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		respondWithError(w, http.StatusBadRequest, "Invalid OAuth state", nil)
		return
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, "oauth_state"))

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	token, err := provider.Config.Exchange(ctx, code)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to exchange OAuth code", err)
		return
	}

	info, err := fetchOAuthUserInfo(ctx, provider, token)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to fetch user info", err)
		return
	}
	if info.Email == "" || info.Subject == "" {
		respondWithError(w, http.StatusBadRequest, "OAuth provider returned no usable identity", nil)
		return
	}

	parent, err := h.auth.UpsertOAuthParent(provider.Name, info.Subject, info.Email, info.Name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if err := h.issueSession(w, r, parentIdentity(parent)); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to start session", err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func fetchOAuthUserInfo(ctx context.Context, provider *OAuthProvider, token *oauth2.Token) (*oauthUserInfo, error) {
	client := provider.Config.Client(ctx, token)
	resp, err := client.Get(provider.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("user info request returned %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &oauthUserInfo{Subject: payload.ID, Email: payload.Email, Name: payload.Name}, nil
}
