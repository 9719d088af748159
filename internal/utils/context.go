package utils

import "context"

type ctxKey int

const (
	userIDKey ctxKey = iota
	sessionTokenKey
)

// WithUserID stores the authenticated user id in ctx
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserIDFromContext returns the user id set by the session middleware
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok && id > 0
}

// WithSessionToken stores the raw session token in ctx
func WithSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, sessionTokenKey, token)
}

// GetSessionTokenFromContext returns the raw session token, if any
func GetSessionTokenFromContext(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(sessionTokenKey).(string)
	return tok, ok && tok != ""
}
