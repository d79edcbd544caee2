package model

import (
	"time"
)

// User is the signed-in Google profile. GoogleSub is the stable subject
// identifier issued by Google; ID is ours and namespaces all stored records.
type User struct {
	ID        string    `db:"id" json:"id"`
	GoogleSub string    `db:"google_sub" json:"sub"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	AvatarURL string    `db:"avatar_url" json:"picture"`
	CreatedAt time.Time `db:"created_at" json:"-"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}
