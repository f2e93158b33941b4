package taskdesk_test

import (
	"testing"

	"github.com/goliatone/go-taskdesk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "Valid password",
			password: "securePassword123!",
		},
		{
			name:     "Empty password",
			password: "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := taskdesk.HashPassword(tt.password)

			if tt.wantErr {
				assert.ErrorIs(t, err, taskdesk.ErrEmptyPassword)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, hash)
			assert.NotEqual(t, tt.password, hash)
			assert.NoError(t, taskdesk.ComparePasswordAndHash(tt.password, hash))
		})
	}
}

func TestComparePasswordAndHash(t *testing.T) {
	password := "testPassword123!"
	hash, err := taskdesk.HashPassword(password)
	require.NoError(t, err)

	t.Run("mismatch", func(t *testing.T) {
		err := taskdesk.ComparePasswordAndHash("nope", hash)
		assert.ErrorIs(t, err, taskdesk.ErrMismatchedHashAndPassword)
	})

	t.Run("malformed hash", func(t *testing.T) {
		err := taskdesk.ComparePasswordAndHash(password, "not-a-hash")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, taskdesk.ErrMismatchedHashAndPassword)
	})

	assert.True(t, taskdesk.VerifyPassword(hash, password))
	assert.False(t, taskdesk.VerifyPassword(hash, "other"))
}

func TestRandomPasswordHash(t *testing.T) {
	a := taskdesk.RandomPasswordHash()
	b := taskdesk.RandomPasswordHash()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
