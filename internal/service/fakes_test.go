package service

// Hand-written in-memory fakes for the repository interfaces. Fakes (not a
// mock framework) keep these tests dependency-free and readable — what each
// fake does is right here on the page.

import (
	"context"
	"fmt"
	"sort"
	"time"

	"microblog/internal/apperror"
	"microblog/internal/model"
	"microblog/internal/repository"
)

// --- users ---

type fakeUserRepo struct {
	users  map[string]*model.User // keyed by internal ID
	nextID int
	// set to simulate storage failures
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User), nextID: 1}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	f.nextID++
	now := time.Now().UTC()
	user.CreatedAt = now
	user.LastSeen = now
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if u, ok := f.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, apperror.NotFound("user", id)
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return apperror.NotFound("user", user.ID)
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) TouchLastSeen(ctx context.Context, id string, seen time.Time) error {
	if u, ok := f.users[id]; ok {
		u.LastSeen = seen
	}
	return nil
}

// --- posts ---

type fakePostRepo struct {
	posts  []model.Post
	nextID int64
	// follower -> set of followed, consulted by Feed
	following map[string]map[string]bool
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{nextID: 1, following: make(map[string]map[string]bool)}
}

func (f *fakePostRepo) follow(follower, followed string) {
	if f.following[follower] == nil {
		f.following[follower] = make(map[string]bool)
	}
	f.following[follower][followed] = true
}

func (f *fakePostRepo) Create(ctx context.Context, post *model.Post) error {
	post.ID = f.nextID
	f.nextID++
	post.Timestamp = time.Now().UTC()
	f.posts = append(f.posts, *post)
	return nil
}

func (f *fakePostRepo) ByAuthor(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Post, error) {
	return f.list(opts, func(p model.Post) bool { return p.UserID == userID })
}

func (f *fakePostRepo) Feed(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Post, error) {
	return f.list(opts, func(p model.Post) bool {
		return p.UserID == userID || f.following[userID][p.UserID]
	})
}

func (f *fakePostRepo) All(ctx context.Context, opts repository.ListOptions) ([]model.Post, error) {
	return f.list(opts, func(model.Post) bool { return true })
}

// list mimics the store's ORDER BY timestamp DESC, id DESC plus
// LIMIT/OFFSET.
func (f *fakePostRepo) list(opts repository.ListOptions, keep func(model.Post) bool) ([]model.Post, error) {
	var matched []model.Post
	for _, p := range f.posts {
		if keep(p) {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Timestamp.Equal(matched[j].Timestamp) {
			return matched[i].Timestamp.After(matched[j].Timestamp)
		}
		return matched[i].ID > matched[j].ID
	})

	if opts.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[opts.Offset:]
	if opts.Limit > 0 && len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

// --- follows ---

type fakeFollowRepo struct {
	edges map[string]map[string]bool // follower -> followed set
}

func newFakeFollowRepo() *fakeFollowRepo {
	return &fakeFollowRepo{edges: make(map[string]map[string]bool)}
}

func (f *fakeFollowRepo) Add(ctx context.Context, followerID, followedID string) error {
	if f.edges[followerID] == nil {
		f.edges[followerID] = make(map[string]bool)
	}
	f.edges[followerID][followedID] = true
	return nil
}

func (f *fakeFollowRepo) Remove(ctx context.Context, followerID, followedID string) error {
	delete(f.edges[followerID], followedID)
	return nil
}

func (f *fakeFollowRepo) Exists(ctx context.Context, followerID, followedID string) (bool, error) {
	return f.edges[followerID][followedID], nil
}

func (f *fakeFollowRepo) CountFollowers(ctx context.Context, userID string) (int, error) {
	n := 0
	for _, followed := range f.edges {
		if followed[userID] {
			n++
		}
	}
	return n, nil
}

func (f *fakeFollowRepo) CountFollowing(ctx context.Context, userID string) (int, error) {
	return len(f.edges[userID]), nil
}

// --- mail ---

// fakeSender captures the reset token on a channel so tests can wait for
// the fire-and-forget goroutine.
type fakeSender struct {
	tokens chan string
}

func newFakeSender() *fakeSender {
	return &fakeSender{tokens: make(chan string, 1)}
}

func (f *fakeSender) SendPasswordReset(user *model.User, token string) {
	f.tokens <- token
}
