// Package auth provides the credential primitives: bcrypt password hashing
// and HMAC-signed tokens for sessions and password resets.
//
// WHY BCRYPT?
// bcrypt is a password hashing function designed to be slow, and that
// slowness is the point — it makes offline brute-force attacks expensive.
// It also generates and embeds a random salt per hash, so two users with
// the same password never store the same value and no separate salt column
// is needed. The stored string is self-contained:
//
//	$2a$12$<22-char salt><31-char hash>
//
// Plaintext passwords exist only transiently in memory during registration,
// login, and reset; they are never persisted and never logged.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor.
//
// Cost 12 takes roughly a quarter of a second on current server hardware —
// negligible per login, brutal for an attacker hashing billions of guesses.
const defaultCost = 12

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct rather than free functions so the cost can be lowered in
// tests: cost 4 (the bcrypt minimum) makes each hash near-instant without
// changing any of the logic under test.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost (12).
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest creates a PasswordService with a reduced bcrypt
// cost. Do NOT use in production — low costs are far too weak.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext password with bcrypt.
//
// The result is stored directly in users.password_hash; it embeds the salt
// and cost, so Verify needs nothing else to check a candidate password.
//
// bcrypt silently truncates input beyond 72 bytes, so we reject longer
// passwords explicitly rather than accept one the user can't fully type.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks whether a plaintext password matches a stored bcrypt hash.
// Returns nil on a match. bcrypt's comparison is constant-time internally,
// so response timing does not reveal how close a guess was.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
