// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"warbler/internal/middleware"
	"warbler/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the plaintext password of every seeded account.
const DefaultPassword = "password123"

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by seed presets and tests.
type Factory struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
	hash  string
	// synthetic ID counter when running in DryRun mode
	nextID uint
	// usernames handed out so far, to keep generated names unique
	taken map[string]struct{}
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
// db may be nil when opts.DryRun is set.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	opts = opts.withDefaults()

	// bcrypt once; every seeded account shares the same password
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	return &Factory{
		db:     db,
		opts:   opts,
		faker:  gofakeit.New(opts.RandomSeed),
		hash:   string(hash),
		nextID: 1000,
		taken:  make(map[string]struct{}),
	}, nil
}

// BuildUser constructs an unsaved account with a valid, unique username.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	username := f.uniqueUsername()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: f.hash,
		ImageURL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
		Bio:      truncateRunes(f.faker.Sentence(10), 500),
		Location: f.faker.City(),
	}
	user.ApplyImageDefaults()

	for _, override := range overrides {
		override(user)
	}
	return user
}

// CreateUser constructs and persists a sample account.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(overrides...)

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		middleware.Logger.Debug("[dry-run] CreateUser", slog.String("username", user.Username))
		return user, nil
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs an unsaved post for user with a created_at spread over the last MaxDays.
func (f *Factory) BuildPost(user *models.User, overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		UserID:    user.ID,
		Text:      f.postText(),
		CreatedAt: f.pastTime(),
	}

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePostsBatch persists multiple posts in as few DB calls as BatchSize allows.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, p := range posts {
			f.nextID++
			p.ID = f.nextID
		}
		middleware.Logger.Debug("[dry-run] CreatePostsBatch", slog.Int("posts", len(posts)))
		return nil
	}
	return f.db.Omit("User").CreateInBatches(posts, f.opts.BatchSize).Error
}

// CreateFollows persists follow edges, skipping any that already exist.
func (f *Factory) CreateFollows(follows []models.Follow) error {
	if len(follows) == 0 || f.opts.DryRun {
		return nil
	}
	return f.db.Omit("Follower", "Followed").
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&follows, f.opts.BatchSize).Error
}

// CreateLikes persists likes, skipping any that already exist.
func (f *Factory) CreateLikes(likes []models.Like) error {
	if len(likes) == 0 || f.opts.DryRun {
		return nil
	}
	return f.db.Omit("User", "Post").
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&likes, f.opts.BatchSize).Error
}

// intn returns a pseudo-random int in [0, n).
func (f *Factory) intn(n int) int {
	if n <= 1 {
		return 0
	}
	return f.faker.Number(0, n-1)
}

// uniqueUsername produces a name satisfying the username rules:
// 3-30 chars of [a-z0-9_-], not starting or ending with '_' or '-'.
func (f *Factory) uniqueUsername() string {
	for {
		base := sanitizeUsername(f.faker.Username())
		if len(base) < 3 {
			base = "warbler"
		}
		if len(base) > 24 {
			base = base[:24]
		}
		name := fmt.Sprintf("%s%d", base, f.faker.Number(10, 99999))
		if _, dup := f.taken[name]; dup {
			continue
		}
		f.taken[name] = struct{}{}
		return name
	}
}

func sanitizeUsername(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "_")
}

func (f *Factory) postText() string {
	var text string
	switch f.intn(3) {
	case 0:
		text = f.faker.HackerPhrase()
	case 1:
		text = f.faker.Sentence(f.faker.Number(4, 18))
	default:
		text = f.faker.Quote()
	}
	return truncateRunes(strings.TrimSpace(text), models.MaxPostLength)
}

func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.intn(f.opts.MaxDays))*24*time.Hour +
		time.Duration(f.intn(24))*time.Hour +
		time.Duration(f.intn(60))*time.Minute
	return time.Now().UTC().Add(-back)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}
