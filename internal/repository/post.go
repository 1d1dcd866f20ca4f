package repository

import (
	"context"
	"errors"

	"warbler/internal/cache"
	"warbler/internal/models"
	"warbler/internal/observability"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error)
	ListByAuthors(ctx context.Context, authorIDs []uint, limit, offset int, viewerID uint) ([]*models.Post, error)
	ListTimeline(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error)
	ListLikedBy(ctx context.Context, userID uint, viewerID uint) ([]*models.Post, error)
	Delete(ctx context.Context, id uint) error
	CountLikes(ctx context.Context, postID uint) (int64, error)
}

type postRepository struct {
	db    *gorm.DB
	users *userRepository
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, users: &userRepository{db: db}}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(post).Error; err != nil {
		if isForeignKeyError(err) {
			return models.NewNotFoundError("User", post.UserID)
		}
		return models.NewInternalError(err)
	}
	return nil
}

// GetByID loads a post with its author and like details. Anonymous reads are cached
// without the author, which is attached from the account cache on every read.
func (r *postRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error) {
	var post models.Post
	load := func(db *gorm.DB) error {
		err := applyPostDetails(db, viewerID).First(&post, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Post", id)
		}
		if err != nil {
			return models.NewInternalError(err)
		}
		return nil
	}

	if viewerID != 0 {
		if err := load(readDB(r.db).WithContext(ctx).Preload("User")); err != nil {
			return nil, err
		}
		return &post, nil
	}

	err := cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		return load(readDB(r.db).WithContext(ctx))
	})
	if err != nil {
		return nil, err
	}
	author, err := r.users.GetByID(ctx, post.UserID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, err
	}
	post.User = *author
	return &post, nil
}

// ListByAuthors returns posts by any of authorIDs, newest first.
func (r *postRepository) ListByAuthors(ctx context.Context, authorIDs []uint, limit, offset int, viewerID uint) ([]*models.Post, error) {
	if len(authorIDs) == 0 {
		return []*models.Post{}, nil
	}
	return r.listNewest(ctx, viewerID, limit, offset, func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.user_id IN ?", authorIDs)
	})
}

// ListTimeline returns posts by userID and every account userID follows, newest first.
// The followed set is resolved in SQL so the bind parameter count stays fixed.
func (r *postRepository) ListTimeline(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return r.listNewest(ctx, userID, limit, offset, func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.user_id = ? OR posts.user_id IN (SELECT followed_id FROM follows WHERE follower_id = ?)", userID, userID)
	})
}

func (r *postRepository) listNewest(ctx context.Context, viewerID uint, limit, offset int, scope func(*gorm.DB) *gorm.DB) ([]*models.Post, error) {
	limit, offset = ClampPage(limit, offset)

	posts := []*models.Post{}
	err := applyPostDetails(readDB(r.db).WithContext(ctx), viewerID).
		Preload("User").
		Scopes(scope).
		Order("posts.created_at DESC").
		Order("posts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// ListLikedBy returns the posts userID currently likes, most recently liked first.
func (r *postRepository) ListLikedBy(ctx context.Context, userID uint, viewerID uint) ([]*models.Post, error) {
	var posts []*models.Post
	err := applyPostDetails(readDB(r.db).WithContext(ctx), viewerID).
		Preload("User").
		Joins("JOIN likes AS owner_likes ON owner_likes.post_id = posts.id AND owner_likes.user_id = ?", userID).
		Order("owner_likes.created_at DESC").
		Order("owner_likes.id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// Delete removes the post and its likes in one transaction.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	ctx, span := observability.StartRepositorySpan(ctx, "Delete", "posts")
	defer span.End()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post", id)
		}
		return nil
	})
	if err != nil {
		observability.RecordErrorInContext(ctx, err)
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, id)
	return nil
}

func (r *postRepository) CountLikes(ctx context.Context, postID uint) (int64, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Like{}).Where("post_id = ?", postID).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

// applyPostDetails selects likes_count and the viewer's liked flag alongside the post columns.
func applyPostDetails(db *gorm.DB, viewerID uint) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS likes_count"

	if viewerID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = ?) AS liked", viewerID)
	}
	return db.Select(selectQuery + ", false AS liked")
}
