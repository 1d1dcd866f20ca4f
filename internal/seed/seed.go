package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"warbler/internal/middleware"
	"warbler/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers       int
	PostsPerUser   int
	FollowsPerUser int
	LikesPerUser   int
	// MaxDays bounds how far back post timestamps are spread.
	MaxDays    int
	BatchSize  int
	BcryptCost int
	// RandomSeed makes a run reproducible; zero picks one from the clock.
	RandomSeed  int64
	ShouldClean bool
	DryRun      bool
}

func (o Options) withDefaults() Options {
	if o.MaxDays <= 0 {
		o.MaxDays = 90
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	if o.BcryptCost < bcrypt.MinCost || o.BcryptCost > bcrypt.MaxCost {
		o.BcryptCost = bcrypt.DefaultCost
	}
	if o.RandomSeed == 0 {
		o.RandomSeed = time.Now().UnixNano()
	}
	return o
}

// Summary reports what a run created.
type Summary struct {
	Users   int
	Posts   int
	Follows int
	Likes   int
}

// Seeder runs seed presets against a database.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder returns a Seeder. db may be nil when opts.DryRun is set.
func NewSeeder(db *gorm.DB, opts Options) (*Seeder, error) {
	factory, err := NewFactory(db, opts)
	if err != nil {
		return nil, err
	}
	return &Seeder{db: db, opts: factory.opts, factory: factory}, nil
}

// Social seeds accounts, their posts, a follow mesh and likes on other accounts' posts.
func (s *Seeder) Social(ctx context.Context) (*Summary, error) {
	logger := middleware.Logger
	logger.InfoContext(ctx, "starting database seeding",
		slog.Int("users", s.opts.NumUsers),
		slog.Int("posts_per_user", s.opts.PostsPerUser),
	)

	if s.opts.ShouldClean && !s.opts.DryRun {
		if err := Clean(ctx, s.db); err != nil {
			return nil, fmt.Errorf("failed to clear data: %w", err)
		}
	}

	users := make([]*models.User, 0, s.opts.NumUsers)
	for i := 0; i < s.opts.NumUsers; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}

	posts := make([]*models.Post, 0, len(users)*s.opts.PostsPerUser)
	for _, user := range users {
		for j := 0; j < s.opts.PostsPerUser; j++ {
			posts = append(posts, s.factory.BuildPost(user))
		}
	}
	if err := s.factory.CreatePostsBatch(posts); err != nil {
		return nil, fmt.Errorf("failed to create posts: %w", err)
	}

	follows := s.buildFollows(users)
	if err := s.factory.CreateFollows(follows); err != nil {
		return nil, fmt.Errorf("failed to create follows: %w", err)
	}

	likes := s.buildLikes(users, posts)
	if err := s.factory.CreateLikes(likes); err != nil {
		return nil, fmt.Errorf("failed to create likes: %w", err)
	}

	summary := &Summary{Users: len(users), Posts: len(posts), Follows: len(follows), Likes: len(likes)}
	logger.InfoContext(ctx, "database seeding completed",
		slog.Int("users", summary.Users),
		slog.Int("posts", summary.Posts),
		slog.Int("follows", summary.Follows),
		slog.Int("likes", summary.Likes),
		slog.Bool("dry_run", s.opts.DryRun),
	)
	return summary, nil
}

// buildFollows picks up to FollowsPerUser distinct other accounts for each user.
func (s *Seeder) buildFollows(users []*models.User) []models.Follow {
	per := min(s.opts.FollowsPerUser, len(users)-1)
	if per <= 0 {
		return nil
	}

	follows := make([]models.Follow, 0, len(users)*per)
	for _, follower := range users {
		for _, idx := range s.pickDistinct(len(users), per, func(i int) bool { return users[i].ID == follower.ID }) {
			follows = append(follows, models.Follow{FollowerID: follower.ID, FollowedID: users[idx].ID})
		}
	}
	return follows
}

// buildLikes picks up to LikesPerUser distinct posts by other authors for each user.
func (s *Seeder) buildLikes(users []*models.User, posts []*models.Post) []models.Like {
	if s.opts.LikesPerUser <= 0 || len(posts) == 0 {
		return nil
	}

	likes := make([]models.Like, 0, len(users)*s.opts.LikesPerUser)
	for _, user := range users {
		own := 0
		for _, p := range posts {
			if p.UserID == user.ID {
				own++
			}
		}
		per := min(s.opts.LikesPerUser, len(posts)-own)
		for _, idx := range s.pickDistinct(len(posts), per, func(i int) bool { return posts[i].UserID == user.ID }) {
			likes = append(likes, models.Like{UserID: user.ID, PostID: posts[idx].ID})
		}
	}
	return likes
}

// pickDistinct returns up to k distinct indexes in [0, n) that skip rejects.
func (s *Seeder) pickDistinct(n, k int, skip func(int) bool) []int {
	if k <= 0 {
		return nil
	}
	picked := make(map[int]struct{}, k)
	out := make([]int, 0, k)
	// bounded so a tiny pool cannot spin forever
	for attempts := 0; len(out) < k && attempts < k*20; attempts++ {
		i := s.factory.intn(n)
		if _, dup := picked[i]; dup || skip(i) {
			continue
		}
		picked[i] = struct{}{}
		out = append(out, i)
	}
	return out
}

// Clean removes every like, follow, post and account, children first.
func Clean(ctx context.Context, db *gorm.DB) error {
	middleware.Logger.InfoContext(ctx, "clearing existing data")
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, model := range []any{&models.Like{}, &models.Follow{}, &models.Post{}, &models.User{}} {
			if err := all.Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
