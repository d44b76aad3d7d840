package service

import (
	"context"
	"errors"

	userserrors "paradisian/internal/users/errors"
	"paradisian/internal/users/repository"
	"paradisian/internal/users/validator"
	"paradisian/pkg/auth"
	"paradisian/pkg/config"
	apperrors "paradisian/pkg/errors"
	"paradisian/pkg/model"
	"paradisian/pkg/sanitizer"
	"paradisian/pkg/validation"
)

type UserService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)
	GetAll(ctx context.Context) ([]*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetMyInfo(ctx context.Context, email string) (*model.User, error)
	GetBookingHistory(ctx context.Context, userID string) ([]*model.Booking, error)
	Delete(ctx context.Context, id string) error
	UpdateProfile(ctx context.Context, id string, update *model.ProfileUpdate, requesterEmail string) (*model.User, error)
}

// BookingFinder loads the full booking documents behind a user's summaries.
type BookingFinder interface {
	FindByIDs(ctx context.Context, ids []string) ([]*model.Booking, error)
}

type userService struct {
	repo      repository.UserRepository
	bookings  BookingFinder
	tokens    *auth.TokenManager
	validator *validator.UserValidator
	cfg       *config.Config
}

func NewUserService(
	repo repository.UserRepository,
	bookings BookingFinder,
	tokens *auth.TokenManager,
	validator *validator.UserValidator,
	cfg *config.Config,
) UserService {
	return &userService{
		repo:      repo,
		bookings:  bookings,
		tokens:    tokens,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *userService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	req.Name = sanitizer.NormalizeName(req.Name)
	req.Email = sanitizer.NormalizeEmail(req.Email)

	if err := s.validator.ValidateRegister(req); err != nil {
		s.cfg.Log.Warn("Registration validation failed", "email", req.Email, "error", err)
		return nil, apperrors.Validation("Registration validation failed", validation.DetailsOf(err))
	}

	phone := sanitizer.NormalizePhone(req.PhoneNumber)
	if phone == "" {
		return nil, apperrors.Validation("Registration validation failed", map[string]any{
			"phone_number": "phone_number must be a valid phone number",
		})
	}

	role := req.Role
	if role == "" {
		role = config.RoleUser
	}

	hash, err := auth.HashPassword(req.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PhoneNumber:  phone,
		Role:         role,
		PasswordHash: hash,
	}
	if err := s.validator.Validate(user); err != nil {
		s.cfg.Log.Warn("User validation failed", "email", req.Email, "error", err)
		return nil, apperrors.Validation("User validation failed", validation.DetailsOf(err))
	}

	if err := s.repo.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, userserrors.ErrEmailTaken):
			return nil, apperrors.Conflict("Email is already registered")
		case errors.Is(err, userserrors.ErrPhoneTaken):
			return nil, apperrors.Conflict("Phone number is already registered")
		}
		s.cfg.Log.Error("Failed to create user", "email", req.Email, "error", err)
		return nil, apperrors.StorageFailure("Failed to create user", err)
	}

	s.cfg.Log.Info("User registered successfully", "id", user.ID, "role", user.Role)
	return user, nil
}

// Login reports the same Unauthorized error for an unknown email and a wrong
// password.
func (s *userService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	req.Email = sanitizer.NormalizeEmail(req.Email)
	if err := s.validator.ValidateLogin(req); err != nil {
		return nil, apperrors.Validation("Login validation failed", validation.DetailsOf(err))
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.Unauthorized(userserrors.ErrInvalidCredentials.Error())
		}
		return nil, apperrors.StorageFailure("Failed to retrieve user", err)
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.cfg.Log.Info("Login rejected", "user_id", user.ID)
			return nil, apperrors.Unauthorized(userserrors.ErrInvalidCredentials.Error())
		}
		return nil, apperrors.Internal("Failed to verify password", err)
	}

	token, expiresAt, err := s.tokens.Issue(auth.Identity{UserID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		return nil, apperrors.Internal("Failed to issue token", err)
	}

	s.cfg.Log.Info("User logged in", "user_id", user.ID)
	return &model.LoginResponse{
		Token:          token,
		Role:           user.Role,
		ExpirationTime: expiresAt,
	}, nil
}

func (s *userService) GetAll(ctx context.Context) ([]*model.User, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list users", "error", err)
		return nil, apperrors.StorageFailure("Failed to retrieve users", err)
	}
	return users, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapErr(err, id)
	}
	return user, nil
}

func (s *userService) GetMyInfo(ctx context.Context, email string) (*model.User, error) {
	email = sanitizer.NormalizeEmail(email)
	if email == "" {
		return nil, apperrors.InvalidInput("Email cannot be empty")
	}
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.NotFound("User")
		}
		return nil, apperrors.StorageFailure("Failed to retrieve user", err)
	}
	return user, nil
}

// GetBookingHistory returns the user's bookings ordered by check-in. Summaries
// whose booking no longer exists are skipped.
func (s *userService) GetBookingHistory(ctx context.Context, userID string) ([]*model.Booking, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(user.Bookings))
	for _, ref := range user.Bookings {
		ids = append(ids, ref.ID)
	}

	bookings, err := s.bookings.FindByIDs(ctx, ids)
	if err != nil {
		s.cfg.Log.Error("Failed to load booking history", "user_id", userID, "error", err)
		return nil, apperrors.StorageFailure("Failed to retrieve bookings", err)
	}
	if len(bookings) != len(ids) {
		s.cfg.Log.Warn("User references missing bookings", "user_id", userID, "linked", len(ids), "found", len(bookings))
	}
	return bookings, nil
}

// Delete refuses while the user still has bookings linked.
func (s *userService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("User ID cannot be empty")
	}
	if err := s.repo.DeleteIfUnbooked(ctx, id); err != nil {
		if errors.Is(err, userserrors.ErrHasBookings) {
			return apperrors.Conflict("User still has bookings and cannot be deleted")
		}
		return s.mapErr(err, id)
	}

	s.cfg.Log.Info("User deleted successfully", "id", id)
	return nil
}

func (s *userService) UpdateProfile(ctx context.Context, id string, update *model.ProfileUpdate, requesterEmail string) (*model.User, error) {
	update.Name = sanitizer.NormalizeName(update.Name)
	if err := s.validator.ValidateProfile(update); err != nil {
		return nil, apperrors.Validation("Profile validation failed", validation.DetailsOf(err))
	}

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Email != sanitizer.NormalizeEmail(requesterEmail) {
		s.cfg.Log.Warn("Profile update for another user rejected", "id", id)
		return nil, apperrors.Forbidden("You can only update your own profile")
	}

	if err := s.repo.UpdateName(ctx, id, update.Name); err != nil {
		return nil, s.mapErr(err, id)
	}
	user.Name = update.Name

	s.cfg.Log.Info("User profile updated", "id", id)
	return user, nil
}

func (s *userService) mapErr(err error, id string) error {
	switch {
	case errors.Is(err, userserrors.ErrNotFound):
		return apperrors.NotFoundWithID("User", id)
	case errors.Is(err, userserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid user ID format")
	}
	s.cfg.Log.Error("User storage failure", "id", id, "error", err)
	return apperrors.StorageFailure("Failed to access user", err)
}
