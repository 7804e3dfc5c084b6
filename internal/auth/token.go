package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "banana-api"
	tokenAudience = "banana-client"

	// TokenTTL is the session credential lifetime. One hour for every
	// provider; validity is determined entirely by signature and expiry.
	TokenTTL = time.Hour
)

// ErrInvalidToken is returned when a session credential fails verification
// for any reason (bad signature, expiry, malformed claims).
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenIssuer mints and verifies stateless session credentials.
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

// NewTokenIssuer creates a TokenIssuer signing with the given HMAC secret.
func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), now: time.Now}
}

// Mint creates a signed JWT embedding the local user id as the subject claim.
func (i *TokenIssuer) Mint(userID uint) (string, error) {
	if len(i.secret) == 0 {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := i.now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": tokenIssuer,
		"aud": tokenAudience,
		"exp": now.Add(TokenTTL).Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": uuid.New().String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Verify checks signature, expiry, issuer, and audience, and returns the
// embedded user id. Any failure yields ErrInvalidToken.
func (i *TokenIssuer) Verify(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}

	if issuer, ok := claims["iss"].(string); !ok || issuer != tokenIssuer {
		return 0, ErrInvalidToken
	}
	if audience, ok := claims["aud"].(string); !ok || audience != tokenAudience {
		return 0, ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, ErrInvalidToken
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, ErrInvalidToken
	}

	return uint(userID), nil
}
