package security_test

import (
	"errors"
	"testing"

	"fcmanager/internal/common"
	"fcmanager/internal/common/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"too short", "a1b2c3", true},
		{"digits only", "12345678", true},
		{"letters only", "abcdefgh", true},
		{"empty", "", true},
		{"letters and digits", "abcd1234", false},
		{"mixed with symbols", "p@ssw0rd!", false},
		{"unicode letters with digit", "пароль12", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := security.ValidatePassword(tt.password)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, common.ErrValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := security.HashPassword("abcd1234")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "abcd1234", hash, "hash must not be the plaintext")

	assert.True(t, security.CheckPasswordHash("abcd1234", hash))
	assert.False(t, security.CheckPasswordHash("wrongpass1", hash))
}

func TestHashPasswordSalted(t *testing.T) {
	first, err := security.HashPassword("abcd1234")
	require.NoError(t, err)
	second, err := security.HashPassword("abcd1234")
	require.NoError(t, err)
	// A fresh random salt per call means distinct hashes for equal input.
	assert.NotEqual(t, first, second)
}
