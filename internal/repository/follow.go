package repository

import (
	"context"

	"warbler/internal/models"
	"warbler/internal/observability"

	"gorm.io/gorm"
)

// FollowRepository stores directed follow edges.
type FollowRepository interface {
	Toggle(ctx context.Context, followerID, followedID uint) (bool, error)
	Exists(ctx context.Context, followerID, followedID uint) (bool, error)
	ListFollowers(ctx context.Context, userID uint) ([]models.User, error)
	ListFollowing(ctx context.Context, userID uint) ([]models.User, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository returns a GORM-backed FollowRepository.
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

// Toggle removes the edge if present and creates it otherwise. It reports whether
// the edge exists afterwards. Losing an insert race to a concurrent toggle counts as present.
func (r *followRepository) Toggle(ctx context.Context, followerID, followedID uint) (bool, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "Toggle", "follows")
	defer span.End()

	db := r.db.WithContext(ctx)
	res := db.Where("followed_id = ? AND follower_id = ?", followedID, followerID).Delete(&models.Follow{})
	if res.Error != nil {
		observability.RecordErrorInContext(ctx, res.Error)
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		return false, nil
	}

	edge := &models.Follow{FollowedID: followedID, FollowerID: followerID}
	if err := db.Omit("Followed", "Follower").Create(edge).Error; err != nil {
		switch {
		case isUniqueConstraintError(err):
			return true, nil
		case isForeignKeyError(err):
			return false, models.NewNotFoundError("User", followedID)
		}
		observability.RecordErrorInContext(ctx, err)
		return false, models.NewInternalError(err)
	}
	return true, nil
}

// Exists reports whether followerID follows followedID.
func (r *followRepository) Exists(ctx context.Context, followerID, followedID uint) (bool, error) {
	var n int64
	err := readDB(r.db).WithContext(ctx).Model(&models.Follow{}).
		Where("followed_id = ? AND follower_id = ?", followedID, followerID).
		Limit(1).
		Count(&n).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

// ListFollowers returns the accounts following userID, ordered by username.
func (r *followRepository) ListFollowers(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	err := readDB(r.db).WithContext(ctx).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.followed_id = ?", userID).
		Order("users.username ASC").
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// ListFollowing returns the accounts userID follows, ordered by username.
func (r *followRepository) ListFollowing(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	err := readDB(r.db).WithContext(ctx).
		Joins("JOIN follows ON follows.followed_id = users.id").
		Where("follows.follower_id = ?", userID).
		Order("users.username ASC").
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
