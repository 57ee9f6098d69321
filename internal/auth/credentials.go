package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Credentials is the password boundary. Handlers only see hash/compare; how
// credentials are stored and checked is this interface's business.
type Credentials interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// BcryptCredentials implements Credentials with bcrypt at the default cost.
type BcryptCredentials struct{}

func (BcryptCredentials) Hash(password string) (string, error) {
	if len(password) < 6 {
		return "", fmt.Errorf("password must be at least 6 characters")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func (BcryptCredentials) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
