package seed

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"warbler/internal/models"
	"warbler/internal/testutil"
	"warbler/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func fastOptions() Options {
	return Options{
		NumUsers:       6,
		PostsPerUser:   3,
		FollowsPerUser: 2,
		LikesPerUser:   4,
		MaxDays:        30,
		BcryptCost:     bcrypt.MinCost,
		RandomSeed:     42,
	}
}

func TestBuildUser_PassesAccountRules(t *testing.T) {
	t.Parallel()
	f, err := NewFactory(nil, Options{DryRun: true, BcryptCost: bcrypt.MinCost, RandomSeed: 7})
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		u := f.BuildUser()
		require.NoError(t, validation.ValidateUsername(u.Username), u.Username)
		require.NoError(t, validation.ValidateEmail(u.Email), u.Email)
		assert.False(t, seen[u.Username], "duplicate username %s", u.Username)
		seen[u.Username] = true
	}
}

func TestBuildUser_PasswordVerifies(t *testing.T) {
	t.Parallel()
	f, err := NewFactory(nil, Options{DryRun: true, BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)

	u := f.BuildUser(func(u *models.User) { u.Bio = "custom" })
	assert.Equal(t, "custom", u.Bio)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(DefaultPassword)))
}

func TestBuildPost_TextAndTimestamp(t *testing.T) {
	t.Parallel()
	opts := Options{DryRun: true, MaxDays: 30, BcryptCost: bcrypt.MinCost, RandomSeed: 3}
	f, err := NewFactory(nil, opts)
	require.NoError(t, err)
	user := &models.User{ID: 1}

	for i := 0; i < 100; i++ {
		p := f.BuildPost(user)
		assert.Equal(t, uint(1), p.UserID)
		assert.NotEmpty(t, strings.TrimSpace(p.Text))
		assert.LessOrEqual(t, utf8.RuneCountInString(p.Text), models.MaxPostLength)
		assert.LessOrEqual(t, time.Since(p.CreatedAt), (time.Duration(opts.MaxDays)+1)*24*time.Hour)
	}
}

func TestSanitizeUsername(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "johndoe", sanitizeUsername("John.Doe"))
	assert.Equal(t, "a_b", sanitizeUsername("__a_b__"))
	assert.Equal(t, "", sanitizeUsername("!!!"))
}

func TestSocial_DryRun(t *testing.T) {
	t.Parallel()
	opts := fastOptions()
	opts.DryRun = true
	s, err := NewSeeder(nil, opts)
	require.NoError(t, err)

	summary, err := s.Social(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, summary.Users)
	assert.Equal(t, 18, summary.Posts)
	assert.Equal(t, 12, summary.Follows)
	assert.Positive(t, summary.Likes)
}

func TestSocial_PersistsGraph(t *testing.T) {
	db := testutil.NewDB(t)
	s, err := NewSeeder(db, fastOptions())
	require.NoError(t, err)

	summary, err := s.Social(context.Background())
	require.NoError(t, err)

	var users, posts, follows, likes int64
	db.Model(&models.User{}).Count(&users)
	db.Model(&models.Post{}).Count(&posts)
	db.Model(&models.Follow{}).Count(&follows)
	db.Model(&models.Like{}).Count(&likes)

	assert.Equal(t, int64(summary.Users), users)
	assert.Equal(t, int64(summary.Posts), posts)
	assert.Equal(t, int64(summary.Follows), follows)
	assert.Equal(t, int64(summary.Likes), likes)

	var selfFollows int64
	db.Model(&models.Follow{}).Where("follower_id = followed_id").Count(&selfFollows)
	assert.Zero(t, selfFollows)

	var selfLikes int64
	db.Table("likes").Joins("JOIN posts ON posts.id = likes.post_id").
		Where("posts.user_id = likes.user_id").Count(&selfLikes)
	assert.Zero(t, selfLikes)
}

func TestSocial_CleanReplacesData(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "leftover")

	opts := fastOptions()
	opts.ShouldClean = true
	s, err := NewSeeder(db, opts)
	require.NoError(t, err)
	_, err = s.Social(context.Background())
	require.NoError(t, err)

	var leftover int64
	db.Model(&models.User{}).Where("username = ?", "leftover").Count(&leftover)
	assert.Zero(t, leftover)
}

func TestSocial_SingleUserHasNoEdges(t *testing.T) {
	t.Parallel()
	opts := fastOptions()
	opts.NumUsers = 1
	opts.DryRun = true
	s, err := NewSeeder(nil, opts)
	require.NoError(t, err)

	summary, err := s.Social(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Follows)
	assert.Zero(t, summary.Likes)
}
