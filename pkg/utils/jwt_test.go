package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", "leadgen")
	expires := time.Now().Add(time.Hour)

	token, err := m.IssueSessionToken("sess-1", "user-1", "a@b.co", ClientWeb, expires)
	require.NoError(t, err)

	claims, err := m.ParseSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", claims.SessionID())
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@b.co", claims.Email)
	assert.Equal(t, ClientWeb, claims.Client)
}

func TestJWTManager_Rejects(t *testing.T) {
	m := NewJWTManager("secret", "leadgen")

	t.Run("expired", func(t *testing.T) {
		token, err := m.IssueSessionToken("s", "u", "", ClientWeb, time.Now().Add(-time.Minute))
		require.NoError(t, err)
		_, err = m.ParseSessionToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTManager("other", "leadgen")
		token, err := other.IssueSessionToken("s", "u", "", ClientWeb, time.Now().Add(time.Hour))
		require.NoError(t, err)
		_, err = m.ParseSessionToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTManager("secret", "someone-else")
		token, err := other.IssueSessionToken("s", "u", "", ClientWeb, time.Now().Add(time.Hour))
		require.NoError(t, err)
		_, err = m.ParseSessionToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.ParseSessionToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing session id", func(t *testing.T) {
		token, err := m.IssueSessionToken("", "u", "", ClientWeb, time.Now().Add(time.Hour))
		require.NoError(t, err)
		_, err = m.ParseSessionToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
