package auth

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword compares a password with its hash.
func VerifyPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// burnPasswordCheck spends roughly the same time as a real comparison so
// unknown emails cannot be told apart from wrong passwords by latency.
func burnPasswordCheck(password string) {
	dummyHashOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("certvault-placeholder"), bcrypt.DefaultCost)
		if err == nil {
			dummyHash = string(h)
		}
	})
	if dummyHash != "" {
		_ = VerifyPassword(password, dummyHash)
	}
}
