package model

import "time"

type UserID string // local user id, base58 encoded

type User struct {
	ID              UserID     `db:"ID"`
	CreatedAt       time.Time  `db:"CreatedAt"`
	UpdatedAt       *time.Time `db:"UpdatedAt"`
	Username        string     `db:"Username"`
	Email           string     `db:"Email"`
	Password        string     `db:"Password"` // bcrypt hash, never the plaintext
	Inactive        bool       `db:"Inactive"`
	ActivationToken *string    `db:"ActivationToken"`
}

type RegisterUserParams struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateUserParams struct {
	Username string `json:"username"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthenticatedUser is the login response payload.
type AuthenticatedUser struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// ListedUser is the public projection of a user. Password and activation
// fields are never exposed.
type ListedUser struct {
	ID       UserID `json:"id" db:"ID"`
	Username string `json:"username" db:"Username"`
	Email    string `json:"email" db:"Email"`
}

type UserPage struct {
	Items      []ListedUser `json:"items"`
	Page       int          `json:"page"`
	Size       int          `json:"size"`
	TotalPages int          `json:"totalPages"`
}
