package middleware

import (
	"context"
	"net/http"
	"strings"

	"REMINDME_BACK-END/internal/utils"
)

// Authenticator resolves a session token to a user id.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (int64, error)
}

// TokenFromRequest returns the session token from the named cookie or, failing
// that, from an "Authorization: Bearer <token>" header.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	// Extract token from "Bearer <token>"
	tokenParts := strings.Fields(authHeader)
	if len(tokenParts) != 2 || !strings.EqualFold(tokenParts[0], "Bearer") {
		return ""
	}
	return tokenParts[1]
}

// RequireSession rejects requests without a valid session with 401 and
// otherwise stores the user id and token in the request context.
func RequireSession(auth Authenticator, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r, cookieName)
			if token == "" {
				utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Not logged in")
				return
			}

			userID, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Invalid or expired session")
				return
			}

			// Add user info to request context
			ctx := utils.WithUserID(r.Context(), userID)
			ctx = utils.WithSessionToken(ctx, token)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalSession stores the raw token in the context when one is present,
// without validating it. Logout uses it to stay idempotent.
func OptionalSession(cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := TokenFromRequest(r, cookieName); token != "" {
				r = r.WithContext(utils.WithSessionToken(r.Context(), token))
			}
			next.ServeHTTP(w, r)
		})
	}
}
