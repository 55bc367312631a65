package service

import (
	"errors"

	"github.com/dom/watchnest/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return PasswordHasher{cost: cost}
}

func (h PasswordHasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", domain.NewValidationError("password must be at most 72 bytes")
		}
		return "", domain.NewInternalError("failed to hash password", err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches hash. A malformed hash is a
// mismatch.
func (h PasswordHasher) Verify(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
