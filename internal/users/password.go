package users

import (
	"github.com/khanghh/kmfa/params"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher produces self-describing bcrypt digests ($2a$<cost>$<salt><hash>).
// Every call to Hash uses a fresh random salt.
type PasswordHasher struct {
	cost int
}

func (h *PasswordHasher) Cost() int {
	return h.cost
}

func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. Malformed digests and
// inputs bcrypt refuses are reported as a mismatch.
func (h *PasswordHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

func NewPasswordHasher(cost int) *PasswordHasher {
	switch {
	case cost == 0:
		cost = params.DefaultPasswordHashCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &PasswordHasher{cost: cost}
}
