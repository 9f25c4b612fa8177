package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestGenerateAndParseTokenPair(t *testing.T) {
	pair, err := GenerateTokenPair(42, true, testSecret)
	require.NoError(t, err)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)

	access, err := ParseToken(pair.Access, testSecret, TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, uint(42), access.UserID)
	assert.True(t, access.Staff)
	assert.Equal(t, TokenAccess, access.TokenType)

	refresh, err := ParseToken(pair.Refresh, testSecret, TokenRefresh)
	require.NoError(t, err)
	assert.Equal(t, uint(42), refresh.UserID)
	assert.True(t, refresh.Staff)
}

func TestParseTokenRejectsWrongType(t *testing.T) {
	pair, err := GenerateTokenPair(1, false, testSecret)
	require.NoError(t, err)

	// A refresh token must not pass as an access token, and vice versa
	_, err = ParseToken(pair.Refresh, testSecret, TokenAccess)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = ParseToken(pair.Access, testSecret, TokenRefresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	pair, err := GenerateTokenPair(1, false, testSecret)
	require.NoError(t, err)

	_, err = ParseToken(pair.Access, "other-secret", TokenAccess)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := ParseToken("not-a-token", testSecret, TokenAccess)
	assert.Error(t, err)
}
