package security

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest input bcrypt accepts, counted in bytes.
const MaxPasswordBytes = 72

var ErrPasswordMismatch = errors.New("password does not match")

// HashPassword returns a salted bcrypt hash at the default cost. Inputs over
// 72 bytes are rejected by bcrypt rather than truncated.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(hash), nil
}

// CheckPassword returns ErrPasswordMismatch on a wrong password and the bcrypt
// error for a hash it cannot parse.
func CheckPassword(hash, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}

func VerifyPassword(hash, plain string) bool {
	return CheckPassword(hash, plain) == nil
}
