package models

import "time"

// RefreshToken represents a persisted refresh token session.
type RefreshToken struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	Token     string     `db:"token" json:"token"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	Revoked   bool       `db:"revoked" json:"revoked"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	IPAddress string     `db:"ip_address" json:"ip_address"`
	UserAgent string     `db:"user_agent" json:"user_agent"`
}

// PasswordResetToken is a single-use reset credential mailed to a user. It is
// valid only until UsedAt is set or the configured TTL elapses, whichever
// comes first.
type PasswordResetToken struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	Email     string     `db:"email" json:"email"`
	Token     string     `db:"token" json:"-"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UsedAt    *time.Time `db:"used_at" json:"used_at,omitempty"`
}

// Valid reports whether the token may still be consumed at the given instant.
func (t *PasswordResetToken) Valid(now time.Time, ttl time.Duration) bool {
	if t == nil || t.UsedAt != nil {
		return false
	}
	return now.Sub(t.CreatedAt) <= ttl
}
