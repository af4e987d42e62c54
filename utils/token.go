package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenIssuer mints the opaque credentials handed to clients. Access tokens are
// HS256 signed JWTs so they are unique and self-describing, but the database row
// remains the only authority on whether a token is accepted.
type TokenIssuer struct {
	secret []byte
}

// NewTokenIssuer returns an issuer signing with secret.
func NewTokenIssuer(secret []byte) *TokenIssuer {
	return &TokenIssuer{secret: secret}
}

// AccessToken issues a signed token for subject valid until expiresAt.
func (i *TokenIssuer) AccessToken(subject string, issuedAt, expiresAt time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// RefreshToken issues a random opaque refresh token.
func (i *TokenIssuer) RefreshToken() string {
	return uuid.NewString()
}

// Subject returns the subject of a token signed by this issuer. Expiry is not
// checked, that decision belongs to the stored token row.
func (i *TokenIssuer) Subject(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return "", errors.New("invalid token claims")
	}
	return claims.Subject, nil
}
