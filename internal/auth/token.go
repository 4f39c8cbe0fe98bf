// Package auth — signed token issuance and verification.
//
// The service signs two kinds of token with the same HMAC secret:
//
//   - session tokens, carried in an HttpOnly cookie and checked on every
//     authenticated request
//   - password-reset tokens, mailed to the user and redeemed once the new
//     password is chosen
//
// Both are stateless HS256 JWTs: all the server needs to verify one is the
// secret key, no token table, no DB lookup. The payload is just
// {sub: userID, exp: expiry} plus an audience claim separating the two
// kinds — a session token presented to the reset endpoint (or vice versa)
// fails the audience check even though the signature is valid.
//
// KNOWN LIMITATION: because nothing is persisted, a reset token stays valid
// until its expiry even after it has been used or a newer one was issued.
// The short TTL (10 minutes by default) bounds the exposure; a persisted
// revocation list would close it entirely.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer = "microblog"

	// Audience values distinguishing token kinds.
	audSession = "session"
	audReset   = "password-reset"

	// sessionTTL is how long a login lasts before the user must sign in
	// again. There is no refresh-token machinery here.
	sessionTTL = 7 * 24 * time.Hour
)

// TokenService signs and verifies the application's tokens.
// The same secret must be used for both operations; rotate it and every
// outstanding session and reset token is invalidated at once.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: SECRET_KEY=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: secret key must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload. jwt.RegisteredClaims covers everything we
// need: Subject holds the user ID, Audience the token kind.
type claims struct {
	jwt.RegisteredClaims
}

// GenerateSession creates a signed session token for the given user.
func (s *TokenService) GenerateSession(userID string) (string, error) {
	return s.generate(userID, audSession, sessionTTL)
}

// GenerateReset creates a signed password-reset token with the given
// lifetime. The TTL is injected (from config) rather than fixed here so
// operators can shorten the reset window.
func (s *TokenService) GenerateReset(userID string, ttl time.Duration) (string, error) {
	return s.generate(userID, audReset, ttl)
}

func (s *TokenService) generate(userID, audience string, ttl time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// ValidateSession verifies a session token and returns the user ID it
// carries.
func (s *TokenService) ValidateSession(tokenStr string) (string, error) {
	return s.validate(tokenStr, audSession)
}

// ValidateReset verifies a password-reset token and returns the user ID.
//
// FAILS CLOSED, INDISTINGUISHABLY:
// a bad signature, a malformed string, a wrong audience, and an expired
// token all come back as the same generic error. The caller (and therefore
// the end user) learns only "invalid token" — never which check failed.
func (s *TokenService) ValidateReset(tokenStr string) (string, error) {
	return s.validate(tokenStr, audReset)
}

func (s *TokenService) validate(tokenStr, audience string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			// Reject anything not signed with HMAC — guards against the
			// classic alg-confusion attack where a token claims "none".
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("auth: invalid token")
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.Subject == "" {
		return "", fmt.Errorf("auth: invalid token")
	}

	return c.Subject, nil
}
