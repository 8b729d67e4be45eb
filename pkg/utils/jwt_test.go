package utils

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/maheshrc27/igpublisher/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACVerifier(t *testing.T) {
	token, err := GenerateToken("secret", "user_1", "org_1", time.Hour)
	require.NoError(t, err)

	claims, err := NewHMACVerifier("secret").Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user_1", claims.Subject)
	assert.Equal(t, "org_1", claims.OrgID)
}

func TestHMACVerifier_Rejects(t *testing.T) {
	expired, err := GenerateToken("secret", "user_1", "", -time.Hour)
	require.NoError(t, err)
	_, err = NewHMACVerifier("secret").Verify(expired)
	assert.Error(t, err)

	valid, err := GenerateToken("secret", "user_1", "", time.Hour)
	require.NoError(t, err)
	_, err = NewHMACVerifier("other").Verify(valid)
	assert.Error(t, err)

	noSubject, err := GenerateToken("secret", "", "", time.Hour)
	require.NoError(t, err)
	_, err = NewHMACVerifier("secret").Verify(noSubject)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestKeyfuncVerifier(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	jwks, err := json.Marshal(map[string]any{
		"keys": []map[string]any{{
			"kty": "RSA",
			"kid": "test-key",
			"alg": "RS256",
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}},
	})
	require.NoError(t, err)

	kf, err := keyfunc.NewJWKSetJSON(jwks)
	require.NoError(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, transfer.CustomClaims{
		OrgID: "org_9",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user_9",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	token.Header["kid"] = "test-key"
	signed, err := token.SignedString(key)
	require.NoError(t, err)

	claims, err := NewKeyfuncVerifier(kf).Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "user_9", claims.Subject)
	assert.Equal(t, "org_9", claims.OrgID)

	hmacToken, err := GenerateToken("secret", "user_9", "", time.Hour)
	require.NoError(t, err)
	_, err = NewKeyfuncVerifier(kf).Verify(hmacToken)
	assert.Error(t, err)
}
