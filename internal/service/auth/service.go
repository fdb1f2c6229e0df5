package auth

import (
	"errors"
	"fmt"

	"github.com/go-ozzo/ozzo-validation/is"
	"golang.org/x/crypto/bcrypt"

	"uk.co.dudmesh.gatehouse/internal/model"
)

type Database interface {
	GetUserByEmail(email string) (*model.User, error)
}

type Tokens interface {
	Create(user *model.User) (string, error)
	Revoke(token string) error
}

type service struct {
	db     Database
	tokens Tokens
}

func New(db Database, tokens Tokens) *service {
	return &service{db, tokens}
}

// Authenticate verifies credentials and issues a bearer token. Unknown
// emails, malformed emails and wrong passwords all fail identically so the
// response never reveals whether an account exists. A correct login against
// a not-yet-activated account is the one observable distinction, it fails
// with model.ErrorForbidden.
func (s *service) Authenticate(creds *model.Credentials) (*model.AuthenticatedUser, error) {
	if creds.Email == "" || is.Email.Validate(creds.Email) != nil {
		return nil, model.ErrorAuthenticationFailure
	}

	user, err := s.db.GetUserByEmail(creds.Email)
	if err != nil {
		if errors.Is(err, model.ErrorUserNotFound) {
			return nil, model.ErrorAuthenticationFailure
		}
		return nil, fmt.Errorf("fetching user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)) != nil {
		return nil, model.ErrorAuthenticationFailure
	}

	if user.Inactive {
		return nil, model.ErrorForbidden
	}

	token, err := s.tokens.Create(user)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	return &model.AuthenticatedUser{
		ID:       user.ID,
		Username: user.Username,
		Token:    token,
	}, nil
}

// Logout revokes the presented bearer token. It always succeeds, a missing
// or unknown token is not an error.
func (s *service) Logout(token string) error {
	if token == "" {
		return nil
	}
	return s.tokens.Revoke(token)
}
