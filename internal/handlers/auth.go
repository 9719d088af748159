package handlers

import (
	"net/http"
	"strings"
	"time"

	"REMINDME_BACK-END/internal/dto"
	"REMINDME_BACK-END/internal/logging"
	"REMINDME_BACK-END/internal/models"
	"REMINDME_BACK-END/internal/services"
	"REMINDME_BACK-END/internal/session"
	"REMINDME_BACK-END/internal/utils"
)

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	auth     *services.AuthService
	sessions *session.Manager
	cookie   CookieConfig
	logger   logging.Logger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(auth *services.AuthService, sessions *session.Manager, cookie CookieConfig, logger logging.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions, cookie: cookie, logger: logger}
}

// Register handles user registration
// @Summary Register a new user
// @Description Create a new user account with username, email, and password
// @Tags authentication
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "User registration data"
// @Success 201 {object} dto.RegisterResponse "User created successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 409 {object} dto.ErrorResponse "User already exists"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return // Error already handled by DecodeJSONRequest
	}

	user, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err, "User")
		return
	}

	h.logger.Info(r.Context(), "user registered", "user_id", user.ID)
	utils.WriteJSONResponse(w, http.StatusCreated, dto.RegisterResponse{
		Message: "User registered successfully!",
		User:    toUserResponse(user),
	})
}

// Login handles user login
// @Summary Login user
// @Description Authenticate with username and password. The session token is returned and set as a cookie.
// @Tags authentication
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.LoginResponse "Login successful"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}

	// Validate required fields
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Missing required fields", "Username and password are required")
		return
	}

	s, err := h.sessions.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err, "User")
		return
	}

	setSessionCookie(w, h.cookie, s)
	utils.WriteJSONResponse(w, http.StatusOK, toLoginResponse(s))
}

// Logout ends the current session
// @Summary Logout user
// @Description Invalidate the current session. Succeeds even without a session.
// @Tags authentication
// @Produce json
// @Success 200 {object} dto.MessageResponse "Logged out"
// @Router /logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := utils.GetSessionTokenFromContext(r.Context()); ok {
		h.sessions.Logout(r.Context(), token)
	}
	clearSessionCookie(w, h.cookie)
	utils.WriteMessageResponse(w, http.StatusOK, "Logged out successfully!")
}

// Profile returns the current user's profile
// @Summary Get user profile
// @Description Get the current authenticated user's profile information
// @Tags authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.UserResponse "User profile retrieved successfully"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /profile [get]
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Not logged in")
		return
	}

	user, err := h.auth.Profile(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err, "User")
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, toUserResponse(user))
}

func toUserResponse(u *models.User) dto.UserResponse {
	return dto.UserResponse{ID: u.ID, Username: u.Username, Email: u.Email}
}

func toLoginResponse(s *models.Session) dto.LoginResponse {
	return dto.LoginResponse{
		Message:   "Logged in successfully!",
		Token:     s.Token,
		ExpiresAt: utils.FormatTimestamp(s.ExpiresAt),
	}
}

func setSessionCookie(w http.ResponseWriter, cfg CookieConfig, s *models.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
