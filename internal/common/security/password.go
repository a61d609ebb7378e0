package security

import (
	"unicode"

	"fcmanager/internal/common"

	"golang.org/x/crypto/bcrypt"
)

// ValidatePassword enforces the registration password policy: at least
// 8 characters, containing at least one letter and one digit.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return common.Errorf("password must be at least 8 characters: %w", common.ErrValidation)
	}
	var hasLetter, hasDigit bool
	for _, c := range password {
		switch {
		case unicode.IsLetter(c):
			hasLetter = true
		case unicode.IsDigit(c):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return common.Errorf("password must contain both letters and digits: %w", common.ErrValidation)
	}
	return nil
}

// HashPassword produces a salted bcrypt hash. The salt is generated by
// bcrypt itself and embedded in the output.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", common.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPasswordHash verifies a plaintext password against a stored hash
// using bcrypt's own comparison. Plaintext is never compared directly.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
