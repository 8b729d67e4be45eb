package utils

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/maheshrc27/igpublisher/internal/transfer"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenVerifier validates bearer tokens issued by the identity provider,
// either against a shared HMAC secret or a remote JWKS.
type TokenVerifier struct {
	keyfunc jwt.Keyfunc
	methods []string
}

func NewHMACVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{
		keyfunc: func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("invalid token signing method")
			}
			return []byte(secret), nil
		},
		methods: []string{"HS256", "HS384", "HS512"},
	}
}

// NewJWKSVerifier fetches and keeps refreshing the key set at jwksURL until
// ctx is cancelled.
func NewJWKSVerifier(ctx context.Context, jwksURL string) (*TokenVerifier, error) {
	k, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return NewKeyfuncVerifier(k), nil
}

func NewKeyfuncVerifier(k keyfunc.Keyfunc) *TokenVerifier {
	return &TokenVerifier{
		keyfunc: k.Keyfunc,
		methods: []string{"RS256", "RS384", "RS512", "ES256", "ES384", "EdDSA"},
	}
}

func (v *TokenVerifier) Verify(tokenString string) (*transfer.CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &transfer.CustomClaims{}, v.keyfunc,
		jwt.WithValidMethods(v.methods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30*time.Second),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	claims, ok := token.Claims.(*transfer.CustomClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateToken signs an HS256 token for userID, used by local tooling and tests.
func GenerateToken(secretKey, userID, orgID string, tokenDuration time.Duration) (string, error) {
	claims := transfer.CustomClaims{
		OrgID: orgID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "igpublisher",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(secretKey))
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return signedToken, nil
}
