// Package sqlite implements the repository interfaces on SQLite.
//
// WHY SQLITE?
// This is a single-node relational service by design — no sharding, no
// caching tier, no replicas. An embedded database that lives in one file
// (or in memory, for tests) fits that exactly, with nothing to deploy
// beside the binary.
//
// WHY modernc.org/sqlite?
// It's a pure Go translation of SQLite — no CGo, no C toolchain, trivial
// cross-compilation. The driver registers itself with database/sql under
// the name "sqlite" via its init function, which is what the blank import
// below is for.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the sql.DB pool and hands out the per-aggregate stores.
// One connection pool serves all three repositories; they are separate
// types only so each file owns one table's queries.
type DB struct {
	conn *sql.DB
}

// New opens the database, configures it, and runs migrations.
//
// dbPath is either a file path ("data/microblog.db") or ":memory:" for an
// in-memory database — the latter is how every repository test runs.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// sql.Open is lazy; Ping forces a real connection so a bad path fails
	// here instead of on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in flight — without it,
	// SQLite locks the whole file per write, which stalls a web server.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in SQLite. Posts and follow edges
	// both reference users, so we want referential integrity enforced.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Always defer this next to New — it
// flushes the WAL and releases the file lock.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Users returns the user store backed by this database.
func (db *DB) Users() *UserStore { return &UserStore{conn: db.conn} }

// Posts returns the post store backed by this database.
func (db *DB) Posts() *PostStore { return &PostStore{conn: db.conn} }

// Follows returns the follow-edge store backed by this database.
func (db *DB) Follows() *FollowStore { return &FollowStore{conn: db.conn} }

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this safe
// to run on every startup.
//
// SCHEMA NOTES:
//   - users.id is an application-generated xid string, not a rowid.
//   - posts.id is INTEGER PRIMARY KEY — SQLite's rowid — so IDs increase
//     monotonically, giving the feed a deterministic tie-break for posts
//     that share a timestamp.
//   - followers has a composite primary key over both columns. That single
//     constraint is what makes follow() idempotent and race-safe: a
//     concurrent duplicate insert hits the PK and is ignored.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			about_me      TEXT NOT NULL DEFAULT '',
			last_seen     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS posts (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			body      TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			user_id   TEXT NOT NULL REFERENCES users(id),
			language  TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_posts_timestamp ON posts(timestamp);
		CREATE INDEX IF NOT EXISTS idx_posts_user_id ON posts(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating posts table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS followers (
			follower_id TEXT NOT NULL REFERENCES users(id),
			followed_id TEXT NOT NULL REFERENCES users(id),
			PRIMARY KEY (follower_id, followed_id)
		);
		CREATE INDEX IF NOT EXISTS idx_followers_followed ON followers(followed_id);
	`)
	if err != nil {
		return fmt.Errorf("creating followers table: %w", err)
	}

	return nil
}
