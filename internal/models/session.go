package models

import "time"

// Session binds an opaque session id to a user until it expires or the user
// logs out. Token is the signed credential handed to the client.
type Session struct {
	ID        string    `json:"-"`
	UserID    int64     `json:"user_id"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
