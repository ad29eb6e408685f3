// Package auth issues and verifies the signed session tokens handed out
// after a successful signin. Tokens are self-contained: verification needs
// only the signing secret, never a database lookup.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dbelyaev/gatekeeper/internal/common"
)

// Claims carried by a session token: the account identity plus the standard
// registered claims (issued-at, expiry).
type Claims struct {
	jwt.RegisteredClaims
	AccountID string `json:"id"`
	Email     string `json:"email"`
}

// GenerateToken mints an HS256-signed session token for the account, valid
// for validityDuration from now.
func GenerateToken(accountID, email string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		AccountID: accountID,
		Email:     email,
	})

	return token.SignedString(secretKey)
}

// ParseToken verifies the signature and expiry of a session token and
// returns its claims. Expired tokens yield common.ErrTokenExpired; any other
// failure (bad signature, wrong algorithm, malformed token) yields
// common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, common.ErrInvalidToken
		}
		return secretKey, nil
	}, jwt.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
