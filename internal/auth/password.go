package auth

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// PasswordManager hashes and verifies passwords with bcrypt.
type PasswordManager struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

// NewPasswordManager creates a password manager using cost, or
// bcrypt.DefaultCost when cost is out of range.
func NewPasswordManager(cost int) *PasswordManager {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordManager{cost: cost}
}

// HashPassword hashes a password using bcrypt.
func (pm *PasswordManager) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), pm.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword reports whether password matches hashedPassword. A
// mismatch is (false, nil); a malformed hash is an error.
func (pm *PasswordManager) VerifyPassword(hashedPassword, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, fmt.Errorf("failed to verify password: %w", err)
	}
	return true, nil
}

// BurnCompare runs one comparison against a fixed hash of the same cost so
// that a lookup miss costs as much as a wrong password.
func (pm *PasswordManager) BurnCompare(password string) {
	pm.dummyOnce.Do(func() {
		pm.dummy, _ = bcrypt.GenerateFromPassword([]byte("digilab-placeholder"), pm.cost)
	})
	_ = bcrypt.CompareHashAndPassword(pm.dummy, []byte(password))
}
