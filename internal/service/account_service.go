package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"warbler/internal/middleware"
	"warbler/internal/models"
	"warbler/internal/observability"
	"warbler/internal/repository"
	"warbler/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// Profile text limits.
const (
	MaxBioLength      = 500
	MaxLocationLength = 100
	MaxImageURLLength = 2048
)

// AccountService manages account identity and credentials.
type AccountService struct {
	userRepo   repository.UserRepository
	bcryptCost int
	dummyHash  []byte
}

// SignupInput carries the fields for a new account.
type SignupInput struct {
	Username string
	Email    string
	Password string
	ImageURL string
}

// UpdateProfileInput carries a partial profile edit. Nil fields are left unchanged.
type UpdateProfileInput struct {
	UserID          uint
	ConfirmPassword string
	Username        *string
	Email           *string
	ImageURL        *string
	HeaderImageURL  *string
	Bio             *string
	Location        *string
}

type ChangePasswordInput struct {
	UserID             uint
	OldPassword        string
	NewPassword        string
	NewPasswordConfirm string
}

// NewAccountService returns an AccountService hashing at bcryptCost.
// Costs outside bcrypt's range fall back to bcrypt.DefaultCost.
func NewAccountService(userRepo repository.UserRepository, bcryptCost int) *AccountService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("warbler-dummy-password"), bcryptCost)
	if err != nil {
		panic(err)
	}
	return &AccountService{userRepo: userRepo, bcryptCost: bcryptCost, dummyHash: dummy}
}

// Signup validates and stores a new account with a hashed password.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	span, ctx := observability.NewSpan(ctx, "AccountService.Signup")
	defer span.End()

	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	imageURL := strings.TrimSpace(in.ImageURL)
	if len(imageURL) > MaxImageURLLength {
		return nil, models.NewValidationError("Image URL too long")
	}

	if err := s.ensureAvailable(ctx, 0, username, email); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		span.SetError(err)
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hash),
		ImageURL: imageURL,
	}
	user.ApplyImageDefaults()

	if err := s.userRepo.Create(ctx, user); err != nil {
		span.SetError(err)
		return nil, asAppError(err)
	}

	observability.RecordEvent(observability.EventSignup)
	middleware.Logger.InfoContext(ctx, "account created",
		slog.Uint64("user_id", uint64(user.ID)),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Authenticate returns the account when password matches. Unknown usernames and wrong
// passwords fail identically and cost the same bcrypt work.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, asAppError(err)
	}

	hash := s.dummyHash
	if user != nil {
		hash = []byte(user.Password)
	}
	match := bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil

	if user == nil || !match {
		observability.RecordEvent(observability.EventLoginFailed)
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}

	observability.RecordEvent(observability.EventLoginSucceeded)
	return user, nil
}

// UpdateProfile applies the supplied fields after re-verifying the account password.
func (s *AccountService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetWithPassword(ctx, in.UserID)
	if err != nil {
		return nil, asAppError(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.ConfirmPassword)) != nil {
		return nil, models.NewUnauthorizedError("Invalid password")
	}

	var newUsername, newEmail string
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if err := validation.ValidateUsername(username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		if username != user.Username {
			newUsername = username
		}
		user.Username = username
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if err := validation.ValidateEmail(email); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		if email != user.Email {
			newEmail = email
		}
		user.Email = email
	}
	if in.ImageURL != nil {
		user.ImageURL = strings.TrimSpace(*in.ImageURL)
		if len(user.ImageURL) > MaxImageURLLength {
			return nil, models.NewValidationError("Image URL too long")
		}
		if user.ImageURL == "" {
			user.ImageURL = models.DefaultImageURL
		}
	}
	if in.HeaderImageURL != nil {
		user.HeaderImageURL = strings.TrimSpace(*in.HeaderImageURL)
		if len(user.HeaderImageURL) > MaxImageURLLength {
			return nil, models.NewValidationError("Header image URL too long")
		}
		if user.HeaderImageURL == "" {
			user.HeaderImageURL = models.DefaultHeaderImageURL
		}
	}
	if in.Bio != nil {
		bio := strings.TrimSpace(*in.Bio)
		if utf8.RuneCountInString(bio) > MaxBioLength {
			return nil, models.NewValidationError("Bio too long (max 500 characters)")
		}
		user.Bio = bio
	}
	if in.Location != nil {
		location := strings.TrimSpace(*in.Location)
		if utf8.RuneCountInString(location) > MaxLocationLength {
			return nil, models.NewValidationError("Location too long (max 100 characters)")
		}
		user.Location = location
	}

	if err := s.ensureAvailable(ctx, user.ID, newUsername, newEmail); err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, asAppError(err)
	}
	return user, nil
}

// ChangePassword replaces the stored hash. A mismatched confirmation is rejected
// before the old password is checked.
func (s *AccountService) ChangePassword(ctx context.Context, in ChangePasswordInput) error {
	if in.NewPassword != in.NewPasswordConfirm {
		return models.NewValidationError("New passwords do not match")
	}

	user, err := s.userRepo.GetWithPassword(ctx, in.UserID)
	if err != nil {
		return asAppError(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.OldPassword)) != nil {
		return models.NewUnauthorizedError("Invalid password")
	}
	if err := validation.ValidatePassword(in.NewPassword); err != nil {
		return models.NewValidationError(err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.bcryptCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	return asAppError(s.userRepo.UpdatePassword(ctx, user.ID, string(hash)))
}

// DeleteAccount removes the account and everything that references it.
func (s *AccountService) DeleteAccount(ctx context.Context, userID uint) error {
	if err := s.userRepo.DeleteCascade(ctx, userID); err != nil {
		return asAppError(err)
	}
	observability.RecordEvent(observability.EventAccountDeleted)
	middleware.Logger.InfoContext(ctx, "account deleted", slog.Uint64("user_id", uint64(userID)))
	return nil
}

func (s *AccountService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, asAppError(err)
	}
	return user, nil
}

// SearchUsers lists accounts whose username contains q.
func (s *AccountService) SearchUsers(ctx context.Context, q string, limit, offset int) ([]models.User, error) {
	users, err := s.userRepo.Search(ctx, q, limit, offset)
	if err != nil {
		return nil, asAppError(err)
	}
	return users, nil
}

// ensureAvailable reports a CONFLICT when username or email belongs to an account other than selfID.
// Empty values are skipped.
func (s *AccountService) ensureAvailable(ctx context.Context, selfID uint, username, email string) error {
	if username != "" {
		existing, err := s.userRepo.GetByUsername(ctx, username)
		if err != nil {
			return asAppError(err)
		}
		if existing != nil && existing.ID != selfID {
			return models.NewConflictError("Username already taken")
		}
	}
	if email != "" {
		existing, err := s.userRepo.GetByEmail(ctx, email)
		if err != nil {
			return asAppError(err)
		}
		if existing != nil && existing.ID != selfID {
			return models.NewConflictError("Email already registered")
		}
	}
	return nil
}

