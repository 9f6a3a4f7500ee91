package security

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"WBProject/tools/errs"
)

var testSecret = []byte("test-secret-0123456789")

func TestGenerateVerifyRoundtrip(t *testing.T) {
	opts := DefaultOptions(testSecret)

	token, expireAt, err := Generate(opts, "u_1001", "alice@example.com")
	require.NoError(t, err)
	assert.True(t, expireAt.After(time.Now()))

	claims, err := Verify(opts, token)
	require.NoError(t, err)
	assert.Equal(t, "u_1001", claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestVerifyExpired(t *testing.T) {
	// Generate 对非正 TTL 会回落默认值，这里手工签一张已过期的
	past := time.Now().Add(-time.Hour)
	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub": "u_1001",
		"iat": past.Unix(),
		"exp": past.Add(time.Minute).Unix(),
	})
	signed, err := tok.SignedString(testSecret)
	require.NoError(t, err)

	_, err = Verify(DefaultOptions(testSecret), signed)
	require.Error(t, err)
	assert.True(t, errs.ErrInvalidCredential.Is(err))
}

func TestVerifyWrongSecret(t *testing.T) {
	token, _, err := Generate(DefaultOptions(testSecret), "u_1001", "")
	require.NoError(t, err)

	_, err = Verify(DefaultOptions([]byte("another-secret")), token)
	require.Error(t, err)
	assert.True(t, errs.ErrInvalidCredential.Is(err))
}

func TestVerifyGarbage(t *testing.T) {
	_, err := Verify(DefaultOptions(testSecret), "not.a.jwt")
	require.Error(t, err)
	assert.True(t, errs.ErrInvalidCredential.Is(err))
}

func TestUnsupportedAlg(t *testing.T) {
	opts := Options{Secret: testSecret, Alg: "RS256"}
	_, _, err := Generate(opts, "u_1001", "")
	assert.Error(t, err)
}
