package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"rfidattendance/internal/apperr"
)

// MaxSecretBytes is the longest secret bcrypt accepts.
const MaxSecretBytes = 72

// Hasher hashes secrets with bcrypt at a configurable cost.
type Hasher struct {
	Cost int
}

// NewHasher clamps cost into bcrypt's accepted range.
func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return Hasher{Cost: cost}
}

// Check rejects secrets bcrypt cannot hash.
func (h Hasher) Check(secret string) error {
	if len(secret) > MaxSecretBytes {
		return errSecretTooLong()
	}
	return nil
}

// Hash returns the bcrypt hash of secret.
func (h Hasher) Hash(secret string) (string, error) {
	if err := h.Check(secret); err != nil {
		return "", err
	}
	b, err := bcrypt.GenerateFromPassword([]byte(secret), h.Cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", errSecretTooLong()
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare reports whether secret matches hash. bcrypt compares in constant
// time. A secret too long to have been hashed never matches.
func (h Hasher) Compare(hash, secret string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) || errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return false, nil
	}
	return err == nil, err
}

func errSecretTooLong() error {
	return apperr.Validation("Password must be at most 72 bytes")
}
