package service

import (
	"context"

	"warbler/internal/featureflags"
	"warbler/internal/models"
	"warbler/internal/notifications"
	"warbler/internal/observability"
	"warbler/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// LikeService manages the account-likes-post graph.
type LikeService struct {
	likeRepo repository.LikeRepository
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	flags    FlagSource
	events   EventPublisher
}

// LikeResult is the edge state and post total after a toggle.
type LikeResult struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likes_count"`
}

// NewLikeService returns a new LikeService. flags and events may be nil.
func NewLikeService(likeRepo repository.LikeRepository, postRepo repository.PostRepository, userRepo repository.UserRepository, flags FlagSource, events EventPublisher) *LikeService {
	return &LikeService{likeRepo: likeRepo, postRepo: postRepo, userRepo: userRepo, flags: flags, events: events}
}

// ToggleLike flips whether userID likes postID.
func (s *LikeService) ToggleLike(ctx context.Context, userID, postID uint) (*LikeResult, error) {
	span, ctx := observability.NewSpan(ctx, "LikeService.ToggleLike")
	defer span.End()
	span.AddAttributes(
		observability.AccountAttr("user_id", userID),
		attribute.Int64("post_id", int64(postID)),
	)

	post, err := s.postRepo.GetByID(ctx, postID, 0)
	if err != nil {
		return nil, asAppError(err)
	}
	liker, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, asAppError(err)
	}
	if post.UserID == userID && !flagEnabled(s.flags, featureflags.SelfLike, userID) {
		return nil, models.NewForbiddenError("You cannot like your own post")
	}

	liked, err := s.likeRepo.Toggle(ctx, userID, postID)
	if err != nil {
		span.SetError(err)
		return nil, asAppError(err)
	}
	count, err := s.postRepo.CountLikes(ctx, postID)
	if err != nil {
		return nil, asAppError(err)
	}

	if liked {
		observability.RecordEvent(observability.EventLike)
		publish(ctx, s.events, post.UserID, notifications.Event{
			Type:      notifications.EventLike,
			ActorID:   userID,
			ActorName: liker.Username,
			PostID:    postID,
		})
	} else {
		observability.RecordEvent(observability.EventUnlike)
	}
	return &LikeResult{Liked: liked, LikesCount: count}, nil
}

// CountLikes returns how many accounts like postID.
func (s *LikeService) CountLikes(ctx context.Context, postID uint) (int64, error) {
	if _, err := s.postRepo.GetByID(ctx, postID, 0); err != nil {
		return 0, asAppError(err)
	}
	n, err := s.postRepo.CountLikes(ctx, postID)
	if err != nil {
		return 0, asAppError(err)
	}
	return n, nil
}
