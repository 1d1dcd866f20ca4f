package server

import (
	"fmt"
	"net/http"
	"testing"

	"warbler/internal/models"
	"warbler/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUserProfile(t *testing.T) {
	env := newTestEnv(t, true)
	alice := testutil.CreateUser(t, env.db, "alice")

	var got models.User
	resp := env.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d", alice.ID), "", nil, &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice", got.Username)

	resp = env.do(t, http.MethodGet, "/api/users/9999", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var errBody models.ErrorResponse
	resp = env.do(t, http.MethodGet, "/api/users/abc", "", nil, &errBody)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid ID", errBody.Error)
}

func TestSearchUsers(t *testing.T) {
	env := newTestEnv(t, false)
	testutil.CreateUser(t, env.db, "alice")
	testutil.CreateUser(t, env.db, "Malik")
	testutil.CreateUser(t, env.db, "bob")

	var users []models.User
	resp := env.do(t, http.MethodGet, "/api/users?q=ALI", "", nil, &users)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Username)
	}
	assert.ElementsMatch(t, []string{"alice", "Malik"}, names)

	users = nil
	env.do(t, http.MethodGet, "/api/users?limit=2", "", nil, &users)
	assert.Len(t, users, 2)
}

func TestUpdateMyProfile(t *testing.T) {
	env := newTestEnv(t, true)
	alice := testutil.CreateUser(t, env.db, "alice")
	testutil.CreateUser(t, env.db, "bob")
	token := env.tokenFor(t, alice)

	// warm the profile cache so the update must invalidate it
	env.do(t, http.MethodGet, "/api/me", token, nil, nil)

	tests := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{"wrong password", map[string]any{"password": "nope", "bio": "hi"}, http.StatusUnauthorized},
		{"username taken", map[string]any{"password": "alice-pass", "username": "bob"}, http.StatusConflict},
		{"invalid email", map[string]any{"password": "alice-pass", "email": "nope"}, http.StatusBadRequest},
		{"ok", map[string]any{"password": "alice-pass", "bio": "Counting things", "location": "London"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPut, "/api/me", token, tt.body, nil)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}

	var me models.User
	resp := env.do(t, http.MethodGet, "/api/me", token, nil, &me)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, "Counting things", me.Bio)
	assert.Equal(t, "London", me.Location)
}

func TestChangeMyPassword(t *testing.T) {
	env := newTestEnv(t, false)
	alice := testutil.CreateUser(t, env.db, "alice")
	token := env.tokenFor(t, alice)

	resp := env.do(t, http.MethodPut, "/api/me/password", token, map[string]string{
		"old_password":         "alice-pass",
		"new_password":         "brand-new",
		"new_password_confirm": "different",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// mismatch left the old credential valid
	resp = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "alice-pass",
	}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodPut, "/api/me/password", token, map[string]string{
		"old_password":         "wrong",
		"new_password":         "brand-new",
		"new_password_confirm": "brand-new",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodPut, "/api/me/password", token, map[string]string{
		"old_password":         "alice-pass",
		"new_password":         "brand-new",
		"new_password_confirm": "brand-new",
	}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "alice-pass",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "brand-new",
	}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDeleteMyAccount(t *testing.T) {
	env := newTestEnv(t, true)
	alice := testutil.CreateUser(t, env.db, "alice")
	bob := testutil.CreateUser(t, env.db, "bob")
	post := testutil.CreatePost(t, env.db, alice.ID, "soon gone")
	bobPost := testutil.CreatePost(t, env.db, bob.ID, "stays")
	require.NoError(t, env.db.Create(&models.Like{UserID: bob.ID, PostID: post.ID}).Error)
	require.NoError(t, env.db.Create(&models.Like{UserID: alice.ID, PostID: bobPost.ID}).Error)
	require.NoError(t, env.db.Create(&models.Follow{FollowerID: alice.ID, FollowedID: bob.ID}).Error)
	require.NoError(t, env.db.Create(&models.Follow{FollowerID: bob.ID, FollowedID: alice.ID}).Error)

	token := env.tokenFor(t, alice)
	resp := env.do(t, http.MethodDelete, "/api/me", token, nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// token is revoked with the account
	resp = env.do(t, http.MethodGet, "/api/me", token, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d", alice.ID), "", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var count int64
	env.db.Model(&models.Post{}).Count(&count)
	assert.Equal(t, int64(1), count)
	env.db.Model(&models.Like{}).Count(&count)
	assert.Equal(t, int64(0), count)
	env.db.Model(&models.Follow{}).Count(&count)
	assert.Equal(t, int64(0), count)

	// username is free again
	resp = env.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": "alice", "email": "alice@example.com", "password": "again1",
	}, nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestGetMyTimeline(t *testing.T) {
	env := newTestEnv(t, false)
	alice := testutil.CreateUser(t, env.db, "alice")
	bob := testutil.CreateUser(t, env.db, "bob")
	carol := testutil.CreateUser(t, env.db, "carol")
	testutil.CreatePost(t, env.db, alice.ID, "mine")
	testutil.CreatePost(t, env.db, bob.ID, "followed")
	testutil.CreatePost(t, env.db, carol.ID, "stranger")
	require.NoError(t, env.db.Create(&models.Follow{FollowerID: alice.ID, FollowedID: bob.ID}).Error)

	var posts []models.Post
	resp := env.do(t, http.MethodGet, "/api/me/timeline", env.tokenFor(t, alice), nil, &posts)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	texts := make([]string, 0, len(posts))
	for _, p := range posts {
		texts = append(texts, p.Text)
	}
	assert.ElementsMatch(t, []string{"mine", "followed"}, texts)
}

func TestGetUserPostsAndLikes(t *testing.T) {
	env := newTestEnv(t, false)
	alice := testutil.CreateUser(t, env.db, "alice")
	bob := testutil.CreateUser(t, env.db, "bob")
	post := testutil.CreatePost(t, env.db, alice.ID, "hello")
	require.NoError(t, env.db.Create(&models.Like{UserID: bob.ID, PostID: post.ID}).Error)

	var posts []models.Post
	resp := env.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/posts", alice.ID), env.tokenFor(t, bob), nil, &posts)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, posts, 1)
	assert.Equal(t, int64(1), posts[0].LikesCount)
	assert.True(t, posts[0].Liked)
	assert.Equal(t, "alice", posts[0].User.Username)

	posts = nil
	resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/likes", bob.ID), "", nil, &posts)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, posts, 1)
	assert.Equal(t, post.ID, posts[0].ID)
	assert.False(t, posts[0].Liked)

	resp = env.do(t, http.MethodGet, "/api/users/9999/posts", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetFeatureFlags(t *testing.T) {
	env := newTestEnv(t, false)
	alice := testutil.CreateUser(t, env.db, "alice")

	var body struct {
		Raw       map[string]string `json:"raw"`
		Evaluated map[string]bool   `json:"evaluated"`
	}
	resp := env.do(t, http.MethodGet, "/api/me/feature-flags", env.tokenFor(t, alice), nil, &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "off", body.Raw["self_follow"])
	assert.False(t, body.Evaluated["self_follow"])
	assert.Contains(t, body.Evaluated, "self_like")
}
