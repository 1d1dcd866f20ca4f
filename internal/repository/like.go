package repository

import (
	"context"

	"warbler/internal/cache"
	"warbler/internal/models"
	"warbler/internal/observability"

	"gorm.io/gorm"
)

// LikeRepository stores account-likes-post edges.
type LikeRepository interface {
	Toggle(ctx context.Context, userID, postID uint) (bool, error)
	Exists(ctx context.Context, userID, postID uint) (bool, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository returns a GORM-backed LikeRepository.
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

// Toggle follows the same delete-then-insert transition as follows.
func (r *likeRepository) Toggle(ctx context.Context, userID, postID uint) (bool, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "Toggle", "likes")
	defer span.End()
	defer cache.InvalidatePost(ctx, postID)

	db := r.db.WithContext(ctx)
	res := db.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Like{})
	if res.Error != nil {
		observability.RecordErrorInContext(ctx, res.Error)
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		return false, nil
	}

	like := &models.Like{UserID: userID, PostID: postID}
	if err := db.Omit("User", "Post").Create(like).Error; err != nil {
		switch {
		case isUniqueConstraintError(err):
			return true, nil
		case isForeignKeyError(err):
			return false, models.NewNotFoundError("Post", postID)
		}
		observability.RecordErrorInContext(ctx, err)
		return false, models.NewInternalError(err)
	}
	return true, nil
}

func (r *likeRepository) Exists(ctx context.Context, userID, postID uint) (bool, error) {
	var n int64
	err := readDB(r.db).WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Limit(1).
		Count(&n).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}
