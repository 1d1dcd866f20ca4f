package service

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"warbler/internal/middleware"
	"warbler/internal/models"
	"warbler/internal/observability"
	"warbler/internal/repository"
)

// PostService owns the post ledger.
type PostService struct {
	postRepo   repository.PostRepository
	userRepo   repository.UserRepository
}

type CreatePostInput struct {
	UserID uint
	Text   string
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

// NewPostService returns a new PostService.
func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository) *PostService {
	return &PostService{postRepo: postRepo, userRepo: userRepo}
}

// CreatePost stores a post of at most models.MaxPostLength characters for an existing account.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, models.NewValidationError("Post text is required")
	}
	if utf8.RuneCountInString(text) > models.MaxPostLength {
		return nil, models.NewValidationError("Post text too long (max 140 characters)")
	}

	author, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, asAppError(err)
	}

	post := &models.Post{
		UserID:    author.ID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, asAppError(err)
	}
	post.User = *author

	observability.RecordEvent(observability.EventPostCreated)
	return post, nil
}

// GetPost returns the post with its like count and whether viewerID likes it.
func (s *PostService) GetPost(ctx context.Context, postID, viewerID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID, viewerID)
	if err != nil {
		return nil, asAppError(err)
	}
	return post, nil
}

// DeletePost removes a post and its likes. Only the author may delete.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.postRepo.GetByID(ctx, in.PostID, 0)
	if err != nil {
		return asAppError(err)
	}
	if post.UserID != in.UserID {
		return models.NewForbiddenError("You can only delete your own posts")
	}
	if err := s.postRepo.Delete(ctx, in.PostID); err != nil {
		return asAppError(err)
	}

	observability.RecordEvent(observability.EventPostDeleted)
	middleware.Logger.InfoContext(ctx, "post deleted",
		slog.Uint64("post_id", uint64(in.PostID)),
		slog.Uint64("user_id", uint64(in.UserID)),
	)
	return nil
}

// ListByAuthors returns posts by authorIDs, newest first.
func (s *PostService) ListByAuthors(ctx context.Context, authorIDs []uint, limit, offset int, viewerID uint) ([]*models.Post, error) {
	limit, offset = repository.ClampPage(limit, offset)
	posts, err := s.postRepo.ListByAuthors(ctx, authorIDs, limit, offset, viewerID)
	if err != nil {
		return nil, asAppError(err)
	}
	return posts, nil
}

// HomeTimeline lists posts by userID and every account userID follows.
func (s *PostService) HomeTimeline(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	posts, err := s.postRepo.ListTimeline(ctx, userID, limit, offset)
	if err != nil {
		return nil, asAppError(err)
	}
	return posts, nil
}

// ListUserPosts lists one account's posts.
func (s *PostService) ListUserPosts(ctx context.Context, userID uint, limit, offset int, viewerID uint) ([]*models.Post, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, asAppError(err)
	}
	return s.ListByAuthors(ctx, []uint{userID}, limit, offset, viewerID)
}

// ListLikedBy lists the posts userID currently likes.
func (s *PostService) ListLikedBy(ctx context.Context, userID, viewerID uint) ([]*models.Post, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, asAppError(err)
	}
	posts, err := s.postRepo.ListLikedBy(ctx, userID, viewerID)
	if err != nil {
		return nil, asAppError(err)
	}
	return posts, nil
}
