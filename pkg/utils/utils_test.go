package utils

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt(t *testing.T) {
	key := DeriveKey("secret")
	require.Len(t, key, 32)

	sealed, err := Encrypt("access-token", key)
	require.NoError(t, err)
	assert.NotEqual(t, "access-token", sealed)

	again, err := Encrypt("access-token", key)
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "every seal uses a fresh nonce")

	plain, err := Decrypt(sealed, key)
	require.NoError(t, err)
	assert.Equal(t, "access-token", plain)

	_, err = Decrypt(sealed, DeriveKey("other"))
	assert.Error(t, err)

	_, err = Decrypt("AAAA", key)
	assert.ErrorIs(t, err, ErrCiphertextTooShort)
}

func TestGenerateNonce(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9A-Za-z]{32}$`)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		nonce, err := GenerateNonce()
		require.NoError(t, err)
		assert.Regexp(t, pattern, nonce)
		assert.False(t, seen[nonce])
		seen[nonce] = true
	}
}

func TestGenerateFileName(t *testing.T) {
	name, err := GenerateFileName("png")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".png"))

	name, err = GenerateFileName("")
	require.NoError(t, err)
	assert.NotContains(t, name, ".")
}

func TestToken(t *testing.T) {
	token, err := GenerateToken("secret", "operator", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "operator", claims.Subject)

	_, err = ValidateToken("wrong", token)
	assert.Error(t, err)

	expired, err := GenerateToken("secret", "operator", -time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken("secret", expired)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn")

	logger.Info("hidden")
	logger.Warn("shown", "post_id", 7)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "post_id=7")
}
