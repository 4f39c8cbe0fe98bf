// Package mailer is the outbound-email boundary.
//
// The core only ever needs to hand a freshly issued reset token to
// "something that can reach the user" — actual delivery (SMTP, a
// transactional-mail API, a queue) lives outside this repository. The
// Sender interface is that boundary; the identity service calls it on a
// goroutine and moves on, so delivery failures can never surface to the
// request that triggered them.
package mailer

import (
	"log/slog"

	"microblog/internal/model"
)

// Sender delivers a password-reset message to the user. Implementations
// must not panic; there is no error return because the caller has already
// answered the HTTP request by the time delivery runs.
type Sender interface {
	SendPasswordReset(user *model.User, token string)
}

// LogSender is the default Sender: it writes the reset event to the log
// instead of sending anything. Useful in development (the token is right
// there to copy) and as the safe fallback when no real sender is wired.
//
// The token is a credential; LogSender is the one place it may appear in
// logs, and only because this implementation exists for environments
// without real mail delivery.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendPasswordReset(user *model.User, token string) {
	s.logger.Info("password reset requested",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
		slog.String("token", token),
	)
}
