// Package service contains the business logic layer of the application.
//
// The layering mirrors the rest of the codebase's dependency chain:
//
//	Handler (HTTP)    → parses requests, writes responses
//	Service (here)    → validates, enforces rules, orchestrates
//	Repository (data) → reads/writes the database
//
// Services accept plain values and context, return domain errors from the
// apperror package, and know nothing about HTTP. They receive repository
// interfaces, not concrete stores, so every service test in this package
// runs against hand-written in-memory fakes.
package service

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"microblog/internal/apperror"
	"microblog/internal/auth"
	"microblog/internal/mailer"
	"microblog/internal/model"
	"microblog/internal/repository"
)

// Validation bounds. The 140-character limits on about_me and post bodies
// are the product's defining constraint, not an implementation detail.
const (
	MaxUsernameLength = 64
	MaxEmailLength    = 120
	MaxAboutMeLength  = 140
)

// invalidCredentials is the single message for every authentication
// failure. Unknown username and wrong password must be indistinguishable
// to the caller, or the login endpoint becomes an account-enumeration
// oracle.
const invalidCredentials = "invalid username or password"

// IdentityService owns the user-account lifecycle: registration, login,
// profile edits, last-seen tracking, avatars, and the password-reset
// round-trip.
type IdentityService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	tokens    *auth.TokenService
	mail      mailer.Sender
	resetTTL  time.Duration
	logger    *slog.Logger
}

// NewIdentityService creates an IdentityService with all dependencies
// injected. resetTTL bounds how long a password-reset token stays valid.
func NewIdentityService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	tokens *auth.TokenService,
	mail mailer.Sender,
	resetTTL time.Duration,
	logger *slog.Logger,
) *IdentityService {
	return &IdentityService{
		users:     users,
		passwords: passwords,
		tokens:    tokens,
		mail:      mail,
		resetTTL:  resetTTL,
		logger:    logger,
	}
}

// Register creates a new account.
//
// Uniqueness is checked with exact, case-sensitive lookups before the
// insert. The UNIQUE constraints in the schema still backstop a race
// between two simultaneous registrations of the same name; the loser of
// that race gets a storage error rather than a clean conflict, which is
// acceptable for an event this rare.
func (s *IdentityService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	if err := s.checkUsernameFree(ctx, username); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperror.Conflict("email", "email already registered")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("checking email availability: %w", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.logger.Error("failed to create user",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Authenticate checks a username/password pair and returns the user on
// success. Every failure path returns the same generic unauthorized error.
func (s *IdentityService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized(invalidCredentials)
		}
		return nil, fmt.Errorf("looking up user for login: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized(invalidCredentials)
	}

	return user, nil
}

// Get returns the user for the given internal ID.
func (s *IdentityService) Get(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	return s.users.GetByID(ctx, id)
}

// GetByUsername returns the user with the given username, or ErrNotFound.
func (s *IdentityService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	return s.users.GetByUsername(ctx, username)
}

// UpdateProfile changes the user's username and/or about-me text.
//
// An empty newUsername means "keep the current one". aboutMe always
// overwrites — clearing the bio is a legitimate edit.
func (s *IdentityService) UpdateProfile(ctx context.Context, userID, newUsername, aboutMe string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if newUsername = strings.TrimSpace(newUsername); newUsername != "" && newUsername != user.Username {
		if err := validateUsername(newUsername); err != nil {
			return nil, err
		}
		if err := s.checkUsernameFree(ctx, newUsername); err != nil {
			return nil, err
		}
		user.Username = newUsername
	}

	if utf8.RuneCountInString(aboutMe) > MaxAboutMeLength {
		return nil, apperror.ValidationFailed("aboutMe",
			fmt.Sprintf("about me must be %d characters or less", MaxAboutMeLength))
	}
	user.AboutMe = strings.TrimSpace(aboutMe)

	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Error("failed to update profile",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	return user, nil
}

// TouchLastSeen stamps the user's last-seen time with now (UTC). The auth
// middleware calls this once per authenticated request; the core never
// calls it on its own.
func (s *IdentityService) TouchLastSeen(ctx context.Context, userID string) error {
	if err := s.users.TouchLastSeen(ctx, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("touching last seen: %w", err)
	}
	return nil
}

// AvatarURL builds the user's avatar URL from an md5 digest of the
// lower-cased email — the gravatar scheme. Pure computation, no network
// call; the avatar host is an external collaborator.
//
// Note the lower-casing: this is the one place email case is normalized,
// because the avatar service requires it. Account lookups stay
// case-sensitive.
func (s *IdentityService) AvatarURL(user *model.User, size int) string {
	digest := md5.Sum([]byte(strings.ToLower(user.Email)))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?d=identicon&s=%d", digest, size)
}

// RequestPasswordReset issues a reset token for the account with the given
// email and hands it to the mail sender on a goroutine.
//
// If no account has that email, this still returns nil — the response must
// not reveal which addresses are registered. Delivery is fire-and-forget:
// by the time the sender runs, the request that triggered it is finished.
func (s *IdentityService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("looking up user for password reset: %w", err)
	}

	token, err := s.tokens.GenerateReset(user.ID, s.resetTTL)
	if err != nil {
		return fmt.Errorf("generating reset token: %w", err)
	}

	go s.mail.SendPasswordReset(user, token)

	return nil
}

// ResetPassword redeems a reset token and sets the new password.
//
// Token verification fails closed: expired, forged, malformed, and
// wrong-kind tokens all yield the same generic unauthorized error.
func (s *IdentityService) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, err := s.tokens.ValidateReset(token)
	if err != nil {
		return apperror.Unauthorized("invalid or expired token")
	}

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hashing new password: %w", err)
	}
	user.PasswordHash = hash

	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("saving new password: %w", err)
	}

	s.logger.Info("password reset completed", slog.String("userID", user.ID))
	return nil
}

func (s *IdentityService) checkUsernameFree(ctx context.Context, username string) error {
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return apperror.Conflict("username", "username already taken")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return fmt.Errorf("checking username availability: %w", err)
	}
	return nil
}

func validateUsername(username string) error {
	if username == "" {
		return apperror.ValidationFailed("username", "username is required")
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return apperror.ValidationFailed("email", "email is required")
	}
	if utf8.RuneCountInString(email) > MaxEmailLength {
		return apperror.ValidationFailed("email",
			fmt.Sprintf("email must be %d characters or less", MaxEmailLength))
	}
	if !strings.Contains(email, "@") {
		return apperror.ValidationFailed("email", "email must be a valid address")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return apperror.ValidationFailed("password", "password is required")
	}
	if len(password) > 72 {
		// bcrypt's input limit; rejected here so the error names the field.
		return apperror.ValidationFailed("password", "password must be 72 bytes or fewer")
	}
	return nil
}
