package auth

// User is the signed-in account as stored in a session.
type User struct {
	ID            string `json:"user_id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	EmailVerified bool   `json:"email_verified"`
}

// SessionID is the opaque value of the session cookie.
type SessionID string

// Status is what /auth/me reports.
type Status struct {
	Authenticated bool  `json:"authenticated"`
	User          *User `json:"user,omitempty"`
}
