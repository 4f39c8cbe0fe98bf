package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"microblog/internal/server"
)

// newTestServer boots the full stack — real router, real SQLite file in a
// temp dir — and returns its base URL.
func newTestServer(t *testing.T) string {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	srv, err := server.New(server.Config{
		Port:          0,
		DBPath:        filepath.Join(t.TempDir(), "test.db"),
		SecretKey:     "test-secret-at-least-16-chars!!",
		PostsPerPage:  25,
		ResetTokenTTL: 10 * time.Minute,
	}, logger)
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}
	t.Cleanup(func() { srv.Close() })

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return ts.URL
}

// newClient returns an HTTP client with a cookie jar, so the session
// cookie set by /api/login is carried on subsequent requests — one client
// per simulated user.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("creating cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func postJSON(t *testing.T, client *http.Client, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling request body: %v", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

// registerAndLogin creates an account and signs it in, leaving the
// session cookie in the client's jar.
func registerAndLogin(t *testing.T, baseURL string, client *http.Client, username string) {
	t.Helper()

	resp := postJSON(t, client, baseURL+"/api/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "correct horse battery staple",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, client, baseURL+"/api/login", map[string]string{
		"username": username,
		"password": "correct horse battery staple",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

type feedResponse struct {
	Posts []struct {
		ID     int64  `json:"id"`
		Body   string `json:"body"`
		UserID string `json:"userId"`
	} `json:"posts"`
	Page    int  `json:"page"`
	HasNext bool `json:"hasNext"`
	HasPrev bool `json:"hasPrev"`
}

// The canonical flow: two users register, one posts, the other follows
// and sees the posts in their feed, newest first.
func TestAPI_FollowAndFeed(t *testing.T) {
	baseURL := newTestServer(t)

	alice := newClient(t)
	bob := newClient(t)
	registerAndLogin(t, baseURL, alice, "alice")
	registerAndLogin(t, baseURL, bob, "bob")

	for _, body := range []string{"hello", "world"} {
		resp := postJSON(t, bob, baseURL+"/api/posts", map[string]string{"body": body})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp := postJSON(t, alice, baseURL+"/api/users/bob/follow", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err := alice.Get(baseURL + "/api/feed")
	if err != nil {
		t.Fatalf("GET /api/feed: %v", err)
	}
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var feed feedResponse
	decode(t, resp, &feed)

	if assert.Len(t, feed.Posts, 2) {
		assert.Equal(t, "world", feed.Posts[0].Body, "newest post first")
		assert.Equal(t, "hello", feed.Posts[1].Body)
	}
	assert.Equal(t, 1, feed.Page)
	assert.False(t, feed.HasNext)
	assert.False(t, feed.HasPrev)
}

func TestAPI_DuplicateUsernameConflicts(t *testing.T) {
	baseURL := newTestServer(t)
	client := newClient(t)

	registerAndLogin(t, baseURL, client, "alice")

	resp := postJSON(t, newClient(t), baseURL+"/api/register", map[string]string{
		"username": "alice",
		"email":    "other@example.com",
		"password": "another password",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	decode(t, resp, &errResp)
	assert.Equal(t, "conflict", errResp.Error)
}

func TestAPI_FeedRequiresAuth(t *testing.T) {
	baseURL := newTestServer(t)

	resp, err := http.Get(baseURL + "/api/feed")
	if err != nil {
		t.Fatalf("GET /api/feed: %v", err)
	}
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_SelfFollowRejected(t *testing.T) {
	baseURL := newTestServer(t)
	alice := newClient(t)
	registerAndLogin(t, baseURL, alice, "alice")

	resp := postJSON(t, alice, baseURL+"/api/users/alice/follow", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_ProfileCountsAndFollowing(t *testing.T) {
	baseURL := newTestServer(t)

	alice := newClient(t)
	bob := newClient(t)
	registerAndLogin(t, baseURL, alice, "alice")
	registerAndLogin(t, baseURL, bob, "bob")

	resp := postJSON(t, alice, baseURL+"/api/users/bob/follow", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err := alice.Get(baseURL + "/api/users/bob")
	if err != nil {
		t.Fatalf("GET /api/users/bob: %v", err)
	}
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var profile struct {
		Username       string `json:"username"`
		AvatarURL      string `json:"avatarUrl"`
		FollowersCount int    `json:"followersCount"`
		FollowingCount int    `json:"followingCount"`
		Following      bool   `json:"following"`
	}
	decode(t, resp, &profile)

	assert.Equal(t, "bob", profile.Username)
	assert.Equal(t, 1, profile.FollowersCount)
	assert.Equal(t, 0, profile.FollowingCount)
	assert.True(t, profile.Following, "alice follows bob")
	assert.Contains(t, profile.AvatarURL, "gravatar.com")

	// Unfollow and the edge disappears from both numbers.
	resp = postJSON(t, alice, baseURL+"/api/users/bob/unfollow", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = alice.Get(baseURL + "/api/users/bob")
	if err != nil {
		t.Fatalf("GET /api/users/bob: %v", err)
	}
	decode(t, resp, &profile)
	assert.Equal(t, 0, profile.FollowersCount)
	assert.False(t, profile.Following)
}

// Explore shows every post regardless of the follow graph, but still
// requires a session.
func TestAPI_Explore(t *testing.T) {
	baseURL := newTestServer(t)

	alice := newClient(t)
	bob := newClient(t)
	registerAndLogin(t, baseURL, alice, "alice")
	registerAndLogin(t, baseURL, bob, "bob")

	resp := postJSON(t, bob, baseURL+"/api/posts", map[string]string{"body": "from a stranger"})
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// alice follows nobody, yet sees bob's post on explore.
	resp, err := alice.Get(baseURL + "/api/explore")
	if err != nil {
		t.Fatalf("GET /api/explore: %v", err)
	}
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var feed feedResponse
	decode(t, resp, &feed)
	if assert.Len(t, feed.Posts, 1) {
		assert.Equal(t, "from a stranger", feed.Posts[0].Body)
	}

	// Anonymous requests are turned away.
	resp, err = http.Get(baseURL + "/api/explore")
	if err != nil {
		t.Fatalf("GET /api/explore: %v", err)
	}
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_MeAndProfileUpdate(t *testing.T) {
	baseURL := newTestServer(t)
	alice := newClient(t)
	registerAndLogin(t, baseURL, alice, "alice")

	resp, err := alice.Get(baseURL + "/api/me")
	if err != nil {
		t.Fatalf("GET /api/me: %v", err)
	}
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var me struct {
		Username  string `json:"username"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatarUrl"`
	}
	decode(t, resp, &me)
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, "alice@example.com", me.Email)
	assert.NotEmpty(t, me.AvatarURL)

	// PUT /api/me changes the bio.
	body, _ := json.Marshal(map[string]string{"aboutMe": "gopher at large"})
	req, err := http.NewRequest(http.MethodPut, baseURL+"/api/me", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("building PUT request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err = alice.Do(req)
	if err != nil {
		t.Fatalf("PUT /api/me: %v", err)
	}
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var updated struct {
		AboutMe string `json:"aboutMe"`
	}
	decode(t, resp, &updated)
	assert.Equal(t, "gopher at large", updated.AboutMe)
}

func TestAPI_LogoutEndsSession(t *testing.T) {
	baseURL := newTestServer(t)
	alice := newClient(t)
	registerAndLogin(t, baseURL, alice, "alice")

	resp := postJSON(t, alice, baseURL+"/api/logout", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err := alice.Get(baseURL + "/api/feed")
	if err != nil {
		t.Fatalf("GET /api/feed: %v", err)
	}
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_ResetRequestNeverRevealsAccounts(t *testing.T) {
	baseURL := newTestServer(t)
	client := newClient(t)
	registerAndLogin(t, baseURL, client, "alice")

	for _, email := range []string{"alice@example.com", "nobody@example.com"} {
		resp := postJSON(t, client, baseURL+"/api/reset-password/request",
			map[string]string{"email": email})
		resp.Body.Close()
		assert.Equal(t, http.StatusAccepted, resp.StatusCode,
			fmt.Sprintf("email %s must get the same answer", email))
	}
}

func TestAPI_UserPostsPaginated(t *testing.T) {
	baseURL := newTestServer(t)
	alice := newClient(t)
	registerAndLogin(t, baseURL, alice, "alice")

	for i := 0; i < 3; i++ {
		resp := postJSON(t, alice, baseURL+"/api/posts",
			map[string]string{"body": fmt.Sprintf("post %d", i)})
		resp.Body.Close()
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, err := http.Get(baseURL + "/api/users/alice/posts?page=1")
	if err != nil {
		t.Fatalf("GET /api/users/alice/posts: %v", err)
	}
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var feed feedResponse
	decode(t, resp, &feed)
	if assert.Len(t, feed.Posts, 3) {
		assert.Equal(t, "post 2", feed.Posts[0].Body, "newest first")
	}
}
