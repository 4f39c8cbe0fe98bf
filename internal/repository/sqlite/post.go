package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"microblog/internal/model"
	"microblog/internal/repository"
)

// compile-time check that *PostStore implements repository.PostRepository
var _ repository.PostRepository = (*PostStore)(nil)

// PostStore persists posts and runs the feed queries.
type PostStore struct {
	conn *sql.DB
}

// feedColumns is the SELECT list shared by every post query; keeping it in
// one place means the scan order below can't drift out of sync per query.
const feedColumns = `id, body, timestamp, user_id, language`

// Create inserts a new post.
//
// The timestamp is assigned here, server-side, in UTC — callers cannot
// future-date or back-date a post. The ID comes back from SQLite's rowid
// via LastInsertId and is written into the caller's struct.
func (s *PostStore) Create(ctx context.Context, post *model.Post) error {
	post.Timestamp = time.Now().UTC()

	result, err := s.conn.ExecContext(ctx,
		`INSERT INTO posts (body, timestamp, user_id, language)
		 VALUES (?, ?, ?, ?)`,
		post.Body,
		post.Timestamp,
		post.UserID,
		post.Language,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting post for user %s: %w", post.UserID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new post id: %w", err)
	}
	post.ID = id

	return nil
}

// ByAuthor returns one user's posts, newest first.
func (s *PostStore) ByAuthor(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Post, error) {
	return s.queryPosts(ctx,
		`SELECT `+feedColumns+`
		 FROM posts
		 WHERE user_id = ?
		 ORDER BY timestamp DESC, id DESC
		 LIMIT ? OFFSET ?`,
		userID, opts.Limit, opts.Offset,
	)
}

// Feed returns the personalized timeline: posts authored by the user or by
// anyone the user follows.
//
// This is the logical join the whole social graph exists for. It is
// recomputed on every call — no materialized view, no cache — which at this
// scale is a single indexed query:
//
//	author ∈ following(user) ∪ {user}
//
// The OR on the user's own ID is deliberate: your feed always contains your
// own posts even if you follow nobody. Ordering is timestamp DESC with id
// DESC as the tie-break, so posts sharing a timestamp come out in a stable,
// deterministic order (newest insert first).
func (s *PostStore) Feed(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Post, error) {
	return s.queryPosts(ctx,
		`SELECT `+feedColumns+`
		 FROM posts
		 WHERE user_id = ?
		    OR user_id IN (SELECT followed_id FROM followers WHERE follower_id = ?)
		 ORDER BY timestamp DESC, id DESC
		 LIMIT ? OFFSET ?`,
		userID, userID, opts.Limit, opts.Offset,
	)
}

// All returns every post, newest first — the explore feed, with no
// social-graph filter.
func (s *PostStore) All(ctx context.Context, opts repository.ListOptions) ([]model.Post, error) {
	return s.queryPosts(ctx,
		`SELECT `+feedColumns+`
		 FROM posts
		 ORDER BY timestamp DESC, id DESC
		 LIMIT ? OFFSET ?`,
		opts.Limit, opts.Offset,
	)
}

// queryPosts runs a post SELECT and scans the rows. All three feed queries
// share the same column list, so one scan loop serves them all.
func (s *PostStore) queryPosts(ctx context.Context, query string, args ...any) ([]model.Post, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.Post, 0, 16)
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.ID, &p.Body, &p.Timestamp, &p.UserID, &p.Language); err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}

	return posts, nil
}
