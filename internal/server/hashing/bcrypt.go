// Package hashing turns plaintext passwords into salted bcrypt hashes.
package hashing

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

type Hasher interface {
	Hash(plaintext string) (string, error)
	Compare(plaintext, hashed string) bool
}

type BcryptHasher struct {
	cost int
}

// NewBcryptHasher falls back to bcrypt.DefaultCost when cost is out of range.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Compare is false for a mismatch and for a malformed hash alike.
func (h *BcryptHasher) Compare(plaintext, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext)) == nil
}
