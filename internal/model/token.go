package model

import (
	"time"
)

// OAuthToken is a persisted Google Sheets grant for one user.
type OAuthToken struct {
	UserID       string     `db:"user_id"`
	AccessToken  string     `db:"access_token"`
	RefreshToken string     `db:"refresh_token"`
	TokenType    string     `db:"token_type"`
	Expiry       *time.Time `db:"expiry"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

// IsExpired reports whether the access token is past its expiry.
// Tokens without an expiry never expire.
func (t *OAuthToken) IsExpired() bool {
	return t.Expiry != nil && time.Now().After(*t.Expiry)
}
