package model

import (
	"github.com/btcsuite/btcutil/base58"
	"github.com/google/uuid"
)

// CreateID generates a new user id, a base58 encoded random UUID.
func CreateID() UserID {
	uuid, _ := uuid.NewRandom()
	return UserID(base58.Encode(uuid[:]))
}
