// Package auth holds the identity primitives of the API: password hashing,
// signed session tokens, the per-route Auth Gate and the ownership check.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. POST /api/users/register or /login verifies the credentials and asks
//     TokenService.Issue for a token bound to the user's id
//  2. The token goes back in the response body AND in an HttpOnly "token" cookie
//  3. On a protected route the Gate reads "Authorization: Bearer <t>" (or the
//     cookie), verifies it, loads the user and hands it to the handler
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: algorithm + token type → {"alg":"HS256","typ":"JWT"}
//	- Payload: claims (data) → {"sub":"userID","exp":1234567890}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
//
// There is no revocation list. "Logout" only removes the client's copy; a
// leaked token stays valid until it expires.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is how long an issued token stays valid: seven days.
const DefaultTokenTTL = 7 * 24 * time.Hour

const issuer = "reactgram"

// ErrInvalidToken is the single outcome of every failed verification.
//
// Tampered, expired, malformed, wrong-algorithm and wrong-secret tokens are
// deliberately indistinguishable to the caller.
var ErrInvalidToken = errors.New("auth: invalid token")

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret used to sign and verify tokens. The same secret
// must be used for both operations; tokens issued with a previous secret stop
// verifying as soon as the secret changes.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService with the given secret and lifetime.
// A zero ttl means DefaultTokenTTL.
//
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl < 0 {
		return nil, fmt.Errorf("auth: token ttl must not be negative, got %s", ttl)
	}
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL reports the lifetime given to tokens from Issue. The cookie MaxAge is
// derived from it so the browser drops the cookie when the token expires.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// claims is the JWT payload. It embeds jwt.RegisteredClaims which includes
// standard fields like Issuer, Subject, ExpiresAt, IssuedAt.
//
// "sub" (Subject) stores the internal user id.
type claims struct {
	jwt.RegisteredClaims
}

// Issue creates and signs a token for subjectID that expires after TTL().
func (s *TokenService) Issue(subjectID string) (string, error) {
	return s.IssueWithTTL(subjectID, s.ttl)
}

// IssueWithTTL creates a token with a custom lifetime.
// Used in tests to mint already-expired tokens.
func (s *TokenService) IssueWithTTL(subjectID string, d time.Duration) (string, error) {
	if subjectID == "" {
		return "", errors.New("auth: token subject must not be empty")
	}

	now := s.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	// jwt.NewWithClaims creates an unsigned token with the given algorithm.
	// SignedString(key) signs it and returns the complete JWT string.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Verify parses and checks a token, returning the subject id it was issued for.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired (ExpiresAt is required and in the future)
//   - Issuer matches "reactgram"
//   - Algorithm is HS256 (prevents algorithm confusion attacks, incl. "none")
//
// Any failure returns ErrInvalidToken and nothing else.
func (s *TokenService) Verify(tokenStr string) (string, error) {
	if tokenStr == "" {
		return "", ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", ErrInvalidToken
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.Subject == "" {
		return "", ErrInvalidToken
	}

	return c.Subject, nil
}
