package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Encode hashes a password with bcrypt.
func Encode(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Matches verifies a password against its bcrypt hash.
func Matches(encodedPassword, rawPassword string) (bool, error) {
	if encodedPassword == "" || rawPassword == "" {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(encodedPassword), []byte(rawPassword))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
