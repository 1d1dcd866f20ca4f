package cache

import (
	"context"
	"fmt"
	"time"
)

// Key formats.
const (
	UserKeyPrefix = "user:%d"
	PostKeyPrefix = "post:%d"
)

// TTLs bound how long a cached entry may lag behind the database.
const (
	UserTTL = 5 * time.Minute
	PostTTL = 2 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

// Invalidate drops key. Errors are ignored; the TTL bounds any staleness.
func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
}
