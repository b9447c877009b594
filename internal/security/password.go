package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 12

var ErrWeakPassword = errors.New("password must be at least 12 characters")

// HashPassword hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	if len(plain) < minPasswordLen {
		return "", ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}
