// Package auth issues and verifies session capabilities and checks passwords.
package auth

import (
	"crypto/subtle"
	"fmt"

	"parcel-tracker/internal/config"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher turns passwords into their stored form and checks them.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Check(password, stored string) bool
}

// NewHasher returns the hasher for a config.PasswordHashing mode.
func NewHasher(mode string) (PasswordHasher, error) {
	switch mode {
	case config.HashingBcrypt, "":
		return BcryptHasher{}, nil
	case config.HashingPlain:
		return PlainHasher{}, nil
	default:
		return nil, fmt.Errorf("unknown password hashing %q", mode)
	}
}

// BcryptHasher stores bcrypt hashes. A zero Cost means bcrypt.DefaultCost.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

func (h BcryptHasher) Check(password, stored string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}

// PlainHasher stores passwords verbatim.
//
// This reproduces the legacy storage format and offers no protection if the
// database leaks. Prefer BcryptHasher.
type PlainHasher struct{}

func (PlainHasher) Hash(password string) (string, error) {
	return password, nil
}

func (PlainHasher) Check(password, stored string) bool {
	return subtle.ConstantTimeCompare([]byte(password), []byte(stored)) == 1
}
