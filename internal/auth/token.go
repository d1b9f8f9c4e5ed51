package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token purposes. Access tokens authenticate API requests; reset tokens are
// single-purpose and only accepted by the password reset endpoint.
const (
	PurposeAccess = "access"
	PurposeReset  = "password_reset"
)

// Sentinel errors for token verification.
// These errors are part of the public API and should be checked using errors.Is().
var (
	// ErrTokenInvalid indicates the token failed signature or structural checks.
	ErrTokenInvalid = errors.New("invalid token")

	// ErrTokenExpired indicates the token's expiry has passed.
	ErrTokenExpired = errors.New("token expired")

	// ErrWrongPurpose indicates a token of one purpose was presented where
	// another was required (e.g. a reset token on an API request).
	ErrWrongPurpose = errors.New("token purpose mismatch")
)

// Claims is the JWT payload aviary issues. Subject carries the user ID.
type Claims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 tokens with a shared secret.
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

// NewTokenIssuer creates a TokenIssuer. The secret must already be validated
// by config (non-empty, minimum length).
func NewTokenIssuer(secret []byte) *TokenIssuer {
	return &TokenIssuer{secret: secret, now: time.Now}
}

// Issue signs a token for the given user with the given purpose and lifetime.
func (t *TokenIssuer) Issue(userID uuid.UUID, purpose string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, requiring the given purpose.
// Returns the user ID from the subject claim.
func (t *TokenIssuer) Verify(raw, purpose string) (uuid.UUID, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, ErrTokenExpired
		}
		return uuid.Nil, ErrTokenInvalid
	}
	if !token.Valid {
		return uuid.Nil, ErrTokenInvalid
	}
	if claims.Purpose != purpose {
		return uuid.Nil, ErrWrongPurpose
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrTokenInvalid
	}
	return userID, nil
}
