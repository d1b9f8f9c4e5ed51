package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt silently truncates input beyond 72 bytes, so longer passwords are
// rejected up front instead of hashing a prefix.
const maxPasswordBytes = 72

// MinPasswordLength is the minimum accepted password length in bytes.
const MinPasswordLength = 8

// Password validation errors.
var (
	// ErrPasswordTooShort indicates the password is under MinPasswordLength bytes.
	ErrPasswordTooShort = errors.New("password too short")

	// ErrPasswordTooLong indicates the password exceeds the bcrypt input limit.
	ErrPasswordTooLong = errors.New("password too long")
)

// HashPassword validates and hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
