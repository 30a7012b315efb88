package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", time.Hour)
	require.NoError(t, err)

	token, err := issuer.Generate("user-1")
	require.NoError(t, err)

	userID, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", time.Hour)
	require.NoError(t, err)
	other, err := NewTokenIssuer("other", time.Hour)
	require.NoError(t, err)

	foreign, err := other.Generate("user-1")
	require.NoError(t, err)
	_, err = issuer.Parse(foreign)
	assert.Error(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user-1",
		"exp":     time.Now().Add(-time.Minute).Unix(),
	})
	signed, err := expired.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = issuer.Parse(signed)
	assert.Error(t, err)

	_, err = issuer.Parse("garbage")
	assert.Error(t, err)

	_, err = NewTokenIssuer("", time.Hour)
	assert.Error(t, err)
}
