package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"uk.co.dudmesh.gatehouse/internal/model"
)

const TokenLength = 32

type Database interface {
	CreateToken(token *model.Token) error
	GetToken(token string) (*model.Token, error)
	DeleteToken(token string) error
}

type service struct {
	db Database
}

func New(db Database) *service {
	return &service{db}
}

// Create issues a fresh opaque bearer token for a user and persists the
// mapping. Collisions are left to the randomness space.
func (s *service) Create(user *model.User) (string, error) {
	token, err := RandomString(TokenLength)
	if err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}

	record := &model.Token{
		Token:     token,
		UserID:    user.ID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.CreateToken(record); err != nil {
		return "", fmt.Errorf("storing token: %w", err)
	}

	return token, nil
}

// Verify resolves a bearer token to the owning user's id, returning
// model.ErrorInvalidToken for unknown tokens.
func (s *service) Verify(token string) (model.UserID, error) {
	record, err := s.db.GetToken(token)
	if err != nil {
		return "", err
	}
	return record.UserID, nil
}

// Revoke deletes a token mapping. Revoking an unknown token is a no-op.
func (s *service) Revoke(token string) error {
	return s.db.DeleteToken(token)
}

// RandomString generates length characters from the hex alphabet using
// crypto/rand.
func RandomString(length int) (string, error) {
	buf := make([]byte, (length+1)/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return hex.EncodeToString(buf)[:length], nil
}
