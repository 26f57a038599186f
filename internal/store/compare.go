package store

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// Comparator isolates how secrets are encoded at rest and checked at
// login, so hashed storage can replace the plaintext scheme without any
// change to the stores' SQL or the connection handlers.
type Comparator interface {
	// Encode transforms a secret into its stored form.
	Encode(secret string) (string, error)
	// Compare reports whether a presented secret matches the stored form.
	Compare(stored, given string) bool
}

// PlainComparator stores secrets verbatim and compares them in constant
// time. This reproduces the original system's plaintext storage and is
// a known security gap; use BcryptComparator for new deployments.
type PlainComparator struct{}

// Encode returns the secret unchanged.
func (PlainComparator) Encode(secret string) (string, error) {
	return secret, nil
}

// Compare performs a constant-time equality check.
func (PlainComparator) Compare(stored, given string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

// BcryptComparator stores salted bcrypt hashes.
type BcryptComparator struct {
	// Cost is the bcrypt work factor. Zero means bcrypt.DefaultCost.
	Cost int
}

// Encode hashes the secret with bcrypt.
func (c BcryptComparator) Encode(secret string) (string, error) {
	cost := c.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Compare checks the secret against the stored hash.
func (c BcryptComparator) Compare(stored, given string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
}
