package clcaclient

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACSigner_SignedToken(t *testing.T) {
	signer := NewHMACSigner("shared-secret", "ttg", "clca", 5*time.Minute)
	fixed := time.Now().UTC().Truncate(time.Second)
	signer.now = func() time.Time { return fixed }

	token, err := signer.SignedToken("req-123")
	require.NoError(t, err)

	parsed, err := jwt.Parse(token, func(tok *jwt.Token) (any, error) {
		assert.Equal(t, jwt.SigningMethodHS256, tok.Method)
		return []byte("shared-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "ingest:content", claims["scope"])
	assert.Equal(t, "ttg", claims["iss"])
	assert.Equal(t, "clca", claims["aud"])
	assert.Equal(t, "req-123", claims["jti"])
	assert.Equal(t, float64(fixed.Unix()), claims["iat"])
	assert.Equal(t, float64(fixed.Add(5*time.Minute).Unix()), claims["exp"])
}

func TestHMACSigner_WrongSecretRejected(t *testing.T) {
	signer := NewHMACSigner("shared-secret", "ttg", "clca", 5*time.Minute)

	token, err := signer.SignedToken("req-123")
	require.NoError(t, err)

	_, err = jwt.Parse(token, func(tok *jwt.Token) (any, error) {
		return []byte("wrong-secret"), nil
	})
	assert.Error(t, err)
}

func TestHMACSigner_TTLDefault(t *testing.T) {
	signer := NewHMACSigner("shared-secret", "ttg", "clca", 0)
	assert.Equal(t, 5*time.Minute, signer.ttl)
}
