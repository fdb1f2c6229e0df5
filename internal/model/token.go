package model

import "time"

// Token is an opaque bearer credential issued at login. It maps to exactly
// one user; a user may hold several tokens at once.
type Token struct {
	Token     string    `db:"Token"`
	UserID    UserID    `db:"UserID"`
	CreatedAt time.Time `db:"CreatedAt"`
}
