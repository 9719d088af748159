package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleOAuth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"REMINDME_BACK-END/internal/common"
	"REMINDME_BACK-END/internal/config"
	"REMINDME_BACK-END/internal/dto"
	"REMINDME_BACK-END/internal/logging"
	"REMINDME_BACK-END/internal/services"
	"REMINDME_BACK-END/internal/session"
	"REMINDME_BACK-END/internal/utils"
)

const stateCookieName = "oauth_state"

// IdentityProvider runs the OAuth code exchange and returns the signed-in
// identity.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	// Identify exchanges code for a token and fetches the user info. A
	// rejected code yields an error wrapping common.ErrUnauthenticated.
	Identify(ctx context.Context, code string) (*dto.GoogleUserInfo, error)
}

// GoogleProvider is the IdentityProvider for Google accounts.
type GoogleProvider struct {
	oauth2Config *oauth2.Config
}

func NewGoogleProvider(cfg config.GoogleOAuthConfig) *GoogleProvider {
	return &GoogleProvider{oauth2Config: &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}}
}

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.oauth2Config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (p *GoogleProvider) Identify(ctx context.Context, code string) (*dto.GoogleUserInfo, error) {
	token, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: exchange code: %w", common.ErrUnauthenticated, err)
	}

	service, err := googleOAuth2.NewService(ctx, option.WithTokenSource(p.oauth2Config.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("userinfo client: %w", err)
	}

	userInfo, err := service.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("userinfo: %w", err)
	}

	verified := false
	if userInfo.VerifiedEmail != nil {
		verified = *userInfo.VerifiedEmail
	}

	return &dto.GoogleUserInfo{
		ID:       userInfo.Id,
		Email:    userInfo.Email,
		Name:     userInfo.Name,
		Picture:  userInfo.Picture,
		Verified: verified,
	}, nil
}

// GoogleAuthHandler handles Google OAuth authentication
type GoogleAuthHandler struct {
	provider    IdentityProvider
	auth        *services.AuthService
	sessions    *session.Manager
	cookie      CookieConfig
	frontendURL string
	logger      logging.Logger
}

// NewGoogleAuthHandler creates a new GoogleAuthHandler instance. A nil
// provider disables the endpoints.
func NewGoogleAuthHandler(provider IdentityProvider, auth *services.AuthService, sessions *session.Manager, cookie CookieConfig, frontendURL string, logger logging.Logger) *GoogleAuthHandler {
	return &GoogleAuthHandler{
		provider:    provider,
		auth:        auth,
		sessions:    sessions,
		cookie:      cookie,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// GoogleLogin initiates Google OAuth login
// @Summary Google OAuth login
// @Description Initiate Google OAuth login flow
// @Tags authentication
// @Produce json
// @Success 200 {object} dto.GoogleLoginResponse "Google OAuth URL"
// @Failure 503 {object} dto.ErrorResponse "Google login not configured"
// @Router /auth/google/login [get]
func (h *GoogleAuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		utils.WriteErrorResponse(w, http.StatusServiceUnavailable, "Google login is not configured", "")
		return
	}

	// Generate state parameter for CSRF protection
	state, err := h.sessions.IssueState()
	if err != nil {
		writeError(w, r, h.logger, err, "State")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/auth/google",
		MaxAge:   int(session.StateTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	utils.WriteJSONResponse(w, http.StatusOK, dto.GoogleLoginResponse{
		AuthURL: h.provider.AuthCodeURL(state),
		State:   state,
	})
}

// GoogleCallback handles Google OAuth callback
// @Summary Google OAuth callback
// @Description Handle Google OAuth callback with authorization code
// @Tags authentication
// @Produce json
// @Param code query string true "Authorization code from Google"
// @Param state query string true "State parameter for CSRF protection"
// @Success 200 {object} dto.LoginResponse "Login successful"
// @Success 302 "Redirect to the frontend"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Invalid authorization code"
// @Failure 409 {object} dto.ErrorResponse "Username taken"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/google/callback [get]
func (h *GoogleAuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		utils.WriteErrorResponse(w, http.StatusServiceUnavailable, "Google login is not configured", "")
		return
	}

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Missing authorization code", "Authorization code is required")
		return
	}

	c, err := r.Cookie(stateCookieName)
	if err != nil || state == "" || c.Value != state || h.sessions.VerifyState(state) != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid state", "Restart the Google sign-in")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Path: "/auth/google", MaxAge: -1})

	info, err := h.provider.Identify(r.Context(), code)
	if err != nil {
		if errors.Is(err, common.ErrUnauthenticated) {
			utils.WriteErrorResponse(w, http.StatusUnauthorized, "Invalid authorization code", "")
			return
		}
		writeError(w, r, h.logger, err, "User")
		return
	}
	if !info.Verified {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unverified email", "Google account email is not verified")
		return
	}

	user, err := h.auth.FindOrCreateExternal(r.Context(), info.Email)
	if err != nil {
		writeError(w, r, h.logger, err, "User")
		return
	}

	s, err := h.sessions.Establish(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, h.logger, err, "Session")
		return
	}
	setSessionCookie(w, h.cookie, s)
	h.logger.Info(r.Context(), "google sign-in", "user_id", user.ID)

	if h.frontendURL != "" {
		http.Redirect(w, r, h.frontendURL, http.StatusFound)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, toLoginResponse(s))
}
