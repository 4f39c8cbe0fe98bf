package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"microblog/internal/apperror"
	"microblog/internal/model"
	"microblog/internal/repository"
)

// compile-time check that *UserStore implements repository.UserRepository
var _ repository.UserRepository = (*UserStore)(nil)

// UserStore persists user accounts.
type UserStore struct {
	conn *sql.DB
}

// Create inserts a new user.
//
// The ID is generated here (xid: 20 chars, URL-safe, time-sortable) and
// written back into the caller's struct, along with the timestamps — the
// pointer receiver on *model.User is what makes that visible to the caller.
//
// The UNIQUE constraints on username and email are the last line of
// defence; the identity service checks both before calling Create, so a
// constraint error here means either a bug or a lost race, and is returned
// as a plain error for the service to classify.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()

	now := time.Now().UTC()
	user.CreatedAt = now
	user.LastSeen = now

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, about_me, last_seen, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.AboutMe,
		user.LastSeen,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	return nil
}

// GetByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no such user exists.
func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.getBy(ctx, "id", id)
}

// GetByUsername retrieves a user by exact username match. SQLite TEXT
// comparison is case-sensitive by default, and that is intentional here —
// see the uniqueness note on model.User.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.getBy(ctx, "username", username)
}

// GetByEmail retrieves a user by exact email match.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getBy(ctx, "email", email)
}

// getBy is the shared lookup. The column name is one of three fixed
// strings chosen above, never caller input, so interpolating it is safe.
func (s *UserStore) getBy(ctx context.Context, column, value string) (*model.User, error) {
	var u model.User

	err := s.conn.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id, username, email, password_hash, about_me, last_seen, created_at
		 FROM users WHERE %s = ?`, column),
		value,
	).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.AboutMe,
		&u.LastSeen,
		&u.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", value)
		}
		return nil, fmt.Errorf("sqlite: getting user by %s %q: %w", column, value, err)
	}

	return &u, nil
}

// Update rewrites the mutable fields of a user: username, about_me, and
// password_hash. ID, email, and created_at never change through this path.
func (s *UserStore) Update(ctx context.Context, user *model.User) error {
	result, err := s.conn.ExecContext(ctx,
		`UPDATE users SET username = ?, about_me = ?, password_hash = ?
		 WHERE id = ?`,
		user.Username,
		user.AboutMe,
		user.PasswordHash,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}

// TouchLastSeen stamps the user's last_seen column. Called once per
// authenticated request by the auth middleware's hook, so it is a single
// cheap UPDATE with no read-modify-write.
func (s *UserStore) TouchLastSeen(ctx context.Context, id string, seen time.Time) error {
	_, err := s.conn.ExecContext(ctx,
		`UPDATE users SET last_seen = ? WHERE id = ?`,
		seen.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: touching last_seen for user %s: %w", id, err)
	}
	return nil
}
