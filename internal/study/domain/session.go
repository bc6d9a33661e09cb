package domain

import "time"

// Session is the ephemeral proof of an authenticated context. The token is an
// opaque random string, a pure client-side marker with nothing to validate it
// against. At most one session is active per storage backend.
type Session struct {
	UserID       string    `json:"id"`
	Email        string    `json:"email"`
	SessionToken string    `json:"sessionToken"`
	LoginTime    time.Time `json:"loginTime"`
}
