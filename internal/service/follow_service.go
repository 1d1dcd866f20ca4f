package service

import (
	"context"
	"log/slog"

	"warbler/internal/featureflags"
	"warbler/internal/middleware"
	"warbler/internal/models"
	"warbler/internal/notifications"
	"warbler/internal/observability"
	"warbler/internal/repository"
)

// FollowService manages the directed follow graph.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	flags      FlagSource
	events     EventPublisher
}

// FollowResult is the edge state after a toggle.
type FollowResult struct {
	Following bool `json:"following"`
}

// NewFollowService returns a new FollowService. flags and events may be nil.
func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository, flags FlagSource, events EventPublisher) *FollowService {
	return &FollowService{followRepo: followRepo, userRepo: userRepo, flags: flags, events: events}
}

// ToggleFollow flips whether followerID follows targetID.
func (s *FollowService) ToggleFollow(ctx context.Context, followerID, targetID uint) (*FollowResult, error) {
	span, ctx := observability.NewSpan(ctx, "FollowService.ToggleFollow")
	defer span.End()
	span.AddAttributes(
		observability.AccountAttr("follower_id", followerID),
		observability.AccountAttr("target_id", targetID),
	)

	if followerID == targetID && !flagEnabled(s.flags, featureflags.SelfFollow, followerID) {
		return nil, models.NewForbiddenError("You cannot follow yourself")
	}

	follower, err := s.userRepo.GetByID(ctx, followerID)
	if err != nil {
		return nil, asAppError(err)
	}
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return nil, asAppError(err)
	}

	following, err := s.followRepo.Toggle(ctx, followerID, targetID)
	if err != nil {
		span.SetError(err)
		return nil, asAppError(err)
	}

	if following {
		observability.RecordEvent(observability.EventFollow)
		publish(ctx, s.events, targetID, notifications.Event{
			Type:      notifications.EventFollow,
			ActorID:   followerID,
			ActorName: follower.Username,
		})
	} else {
		observability.RecordEvent(observability.EventUnfollow)
	}
	return &FollowResult{Following: following}, nil
}

// IsFollowing reports whether a follows b.
func (s *FollowService) IsFollowing(ctx context.Context, a, b uint) (bool, error) {
	ok, err := s.followRepo.Exists(ctx, a, b)
	return ok, asAppError(err)
}

// IsFollowedBy reports whether b follows a.
func (s *FollowService) IsFollowedBy(ctx context.Context, a, b uint) (bool, error) {
	ok, err := s.followRepo.Exists(ctx, b, a)
	return ok, asAppError(err)
}

func (s *FollowService) ListFollowers(ctx context.Context, userID uint) ([]models.User, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, asAppError(err)
	}
	users, err := s.followRepo.ListFollowers(ctx, userID)
	if err != nil {
		return nil, asAppError(err)
	}
	return users, nil
}

func (s *FollowService) ListFollowing(ctx context.Context, userID uint) ([]models.User, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, asAppError(err)
	}
	users, err := s.followRepo.ListFollowing(ctx, userID)
	if err != nil {
		return nil, asAppError(err)
	}
	return users, nil
}

func flagEnabled(flags FlagSource, name string, userID uint) bool {
	return flags != nil && flags.Enabled(name, userID)
}

// publish delivers event on a best-effort basis; failures are logged and dropped.
func publish(ctx context.Context, events EventPublisher, recipientID uint, event notifications.Event) {
	if events == nil || recipientID == event.ActorID {
		return
	}
	if err := events.PublishEvent(ctx, recipientID, event); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish notification",
			slog.String("type", event.Type),
			slog.Uint64("recipient_id", uint64(recipientID)),
			slog.String("error", err.Error()),
		)
	}
}
