package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"warbler/internal/models"
	"warbler/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userRepoStub struct {
	getByIDFn         func(context.Context, uint) (*models.User, error)
	getWithPasswordFn func(context.Context, uint) (*models.User, error)
	getByEmailFn      func(context.Context, string) (*models.User, error)
	getByUsernameFn   func(context.Context, string) (*models.User, error)
	createFn          func(context.Context, *models.User) error
	updateProfileFn   func(context.Context, *models.User) error
	updatePasswordFn  func(context.Context, uint, string) error
	deleteCascadeFn   func(context.Context, uint) error
	searchFn          func(context.Context, string, int, int) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetWithPassword(ctx context.Context, id uint) (*models.User, error) {
	return s.getWithPasswordFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) UpdateProfile(ctx context.Context, user *models.User) error {
	return s.updateProfileFn(ctx, user)
}
func (s *userRepoStub) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return s.updatePasswordFn(ctx, id, hash)
}
func (s *userRepoStub) DeleteCascade(ctx context.Context, id uint) error {
	return s.deleteCascadeFn(ctx, id)
}
func (s *userRepoStub) Search(ctx context.Context, q string, limit, offset int) ([]models.User, error) {
	return s.searchFn(ctx, q, limit, offset)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:         func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getWithPasswordFn: func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn:      func(context.Context, string) (*models.User, error) { return nil, nil },
		getByUsernameFn:   func(context.Context, string) (*models.User, error) { return nil, nil },
		createFn:          func(context.Context, *models.User) error { return nil },
		updateProfileFn:   func(context.Context, *models.User) error { return nil },
		updatePasswordFn:  func(context.Context, uint, string) error { return nil },
		deleteCascadeFn:   func(context.Context, uint) error { return nil },
		searchFn:          func(context.Context, string, int, int) ([]models.User, error) { return nil, nil },
	}
}

type postRepoStub struct {
	createFn        func(context.Context, *models.Post) error
	getByIDFn       func(context.Context, uint, uint) (*models.Post, error)
	listByAuthorsFn func(context.Context, []uint, int, int, uint) ([]*models.Post, error)
	listTimelineFn  func(context.Context, uint, int, int) ([]*models.Post, error)
	listLikedByFn   func(context.Context, uint, uint) ([]*models.Post, error)
	deleteFn        func(context.Context, uint) error
	countLikesFn    func(context.Context, uint) (int64, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id, viewerID)
}
func (s *postRepoStub) ListByAuthors(ctx context.Context, ids []uint, limit, offset int, viewerID uint) ([]*models.Post, error) {
	return s.listByAuthorsFn(ctx, ids, limit, offset, viewerID)
}
func (s *postRepoStub) ListTimeline(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return s.listTimelineFn(ctx, userID, limit, offset)
}
func (s *postRepoStub) ListLikedBy(ctx context.Context, userID, viewerID uint) ([]*models.Post, error) {
	return s.listLikedByFn(ctx, userID, viewerID)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) CountLikes(ctx context.Context, postID uint) (int64, error) {
	return s.countLikesFn(ctx, postID)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:        func(context.Context, *models.Post) error { return nil },
		getByIDFn:       func(_ context.Context, id, _ uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		listByAuthorsFn: func(context.Context, []uint, int, int, uint) ([]*models.Post, error) { return nil, nil },
		listTimelineFn:  func(context.Context, uint, int, int) ([]*models.Post, error) { return nil, nil },
		listLikedByFn:   func(context.Context, uint, uint) ([]*models.Post, error) { return nil, nil },
		deleteFn:        func(context.Context, uint) error { return nil },
		countLikesFn:    func(context.Context, uint) (int64, error) { return 0, nil },
	}
}

type followRepoStub struct {
	toggleFn        func(context.Context, uint, uint) (bool, error)
	existsFn        func(context.Context, uint, uint) (bool, error)
	listFollowersFn func(context.Context, uint) ([]models.User, error)
	listFollowingFn func(context.Context, uint) ([]models.User, error)
}

func (s *followRepoStub) Toggle(ctx context.Context, followerID, followedID uint) (bool, error) {
	return s.toggleFn(ctx, followerID, followedID)
}
func (s *followRepoStub) Exists(ctx context.Context, followerID, followedID uint) (bool, error) {
	return s.existsFn(ctx, followerID, followedID)
}
func (s *followRepoStub) ListFollowers(ctx context.Context, userID uint) ([]models.User, error) {
	return s.listFollowersFn(ctx, userID)
}
func (s *followRepoStub) ListFollowing(ctx context.Context, userID uint) ([]models.User, error) {
	return s.listFollowingFn(ctx, userID)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		toggleFn:        func(context.Context, uint, uint) (bool, error) { return true, nil },
		existsFn:        func(context.Context, uint, uint) (bool, error) { return false, nil },
		listFollowersFn: func(context.Context, uint) ([]models.User, error) { return nil, nil },
		listFollowingFn: func(context.Context, uint) ([]models.User, error) { return nil, nil },
	}
}

type likeRepoStub struct {
	toggleFn func(context.Context, uint, uint) (bool, error)
	existsFn func(context.Context, uint, uint) (bool, error)
}

func (s *likeRepoStub) Toggle(ctx context.Context, userID, postID uint) (bool, error) {
	return s.toggleFn(ctx, userID, postID)
}
func (s *likeRepoStub) Exists(ctx context.Context, userID, postID uint) (bool, error) {
	return s.existsFn(ctx, userID, postID)
}

func noopLikeRepo() *likeRepoStub {
	return &likeRepoStub{
		toggleFn: func(context.Context, uint, uint) (bool, error) { return true, nil },
		existsFn: func(context.Context, uint, uint) (bool, error) { return false, nil },
	}
}

type flagStub map[string]bool

func (f flagStub) Enabled(name string, _ uint) bool { return f[name] }

// publisherStub records events and can be made to fail.
type publisherStub struct {
	mu     sync.Mutex
	err    error
	events []publishedEvent
}

type publishedEvent struct {
	recipient uint
	event     notifications.Event
}

func (p *publisherStub) PublishEvent(_ context.Context, recipientID uint, event notifications.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{recipientID, event})
	return p.err
}

func (p *publisherStub) published() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}

// assertAppError asserts that err is an AppError carrying code.
func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeValidation)
}

func strPtr(s string) *string { return &s }
