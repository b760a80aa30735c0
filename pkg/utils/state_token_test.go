package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateTokenRoundTrip(t *testing.T) {
	m := NewStateTokenManager("test-secret", "bot-api")

	token, err := m.Generate(42, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := m.Parse(token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, userID)
}

func TestStateTokenExpired(t *testing.T) {
	m := NewStateTokenManager("test-secret", "bot-api")

	token, err := m.Generate(42, -time.Minute)
	require.NoError(t, err)

	_, err = m.Parse(token)
	assert.Error(t, err)
}

func TestStateTokenWrongSecret(t *testing.T) {
	m := NewStateTokenManager("test-secret", "bot-api")
	other := NewStateTokenManager("other-secret", "bot-api")

	token, err := m.Generate(42, time.Minute)
	require.NoError(t, err)

	_, err = other.Parse(token)
	assert.Error(t, err)
}

func TestStateTokenGarbage(t *testing.T) {
	m := NewStateTokenManager("test-secret", "bot-api")

	_, err := m.Parse("not-a-token")
	assert.Error(t, err)
}
