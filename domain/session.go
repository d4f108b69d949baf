package domain

import "time"

// Session represents a cached authentication session stored in Redis.
type Session struct {
	ID        string            `json:"id"`
	Email     string            `json:"email"`
	ExpiresAt time.Time         `json:"expires_at"`
	CreatedAt time.Time         `json:"created_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (s *Session) IsExpired(reference time.Time) bool {
	if s == nil {
		return true
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !s.ExpiresAt.After(reference)
}

// AuthSession is what the auth API hands back on sign-in and session lookup.
type AuthSession struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	Email       string    `json:"email"`
	SessionID   string    `json:"-"`
}
