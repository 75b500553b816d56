package service

import (
	"context"
	"errors"
	"strings"

	apperrors "shift-exchange-backend/internal/common/errors"
	"shift-exchange-backend/internal/common/logger"
	"shift-exchange-backend/internal/common/validation"
	"shift-exchange-backend/internal/features/auth/identity"
	"shift-exchange-backend/internal/features/calendar"
	"shift-exchange-backend/internal/features/user/models"
	"shift-exchange-backend/internal/features/user/repository"
)

type UserService interface {
	// Authenticate creates the caller on first sight, taking the display
	// name from Telegram, and refreshes the username afterwards.
	Authenticate(ctx context.Context, id *identity.Identity) (*models.User, error)
	// Ensure is Authenticate without the result, for middleware.
	Ensure(ctx context.Context, id *identity.Identity) error
	Get(ctx context.Context, tgID int64) (*models.User, error)
	UpdateProfile(ctx context.Context, tgID int64, req models.ProfileRequest) (*models.User, error)
}

type userService struct {
	repo     repository.UserRepository
	calendar *calendar.Calendar
}

func NewUserService(repo repository.UserRepository, cal *calendar.Calendar) UserService {
	return &userService{
		repo:     repo,
		calendar: cal,
	}
}

func (s *userService) Authenticate(ctx context.Context, id *identity.Identity) (*models.User, error) {
	user, err := s.repo.Upsert(ctx, &models.User{
		TgID:     id.ID,
		Username: validation.NormalizeUsername(id.Username),
		FullName: id.FullName(),
	})
	if err != nil {
		return nil, apperrors.NewDatabaseError("upsert user", err).WithUserID(id.ID)
	}
	return user, nil
}

func (s *userService) Ensure(ctx context.Context, id *identity.Identity) error {
	_, err := s.Authenticate(ctx, id)
	return err
}

func (s *userService) Get(ctx context.Context, tgID int64) (*models.User, error) {
	user, err := s.repo.GetByTgID(ctx, tgID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NewUserNotFoundError(tgID)
		}
		return nil, apperrors.NewDatabaseError("get user", err).WithUserID(tgID)
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, tgID int64, req models.ProfileRequest) (*models.User, error) {
	fullName := strings.TrimSpace(req.FullName)
	if err := validation.ValidateFullName(fullName); err != nil {
		return nil, apperrors.NewValidationError("full_name", err.Error())
	}
	department := strings.TrimSpace(req.Department)
	if !s.calendar.IsKnownDepartment(department) {
		return nil, apperrors.NewUnknownDepartmentError(department)
	}

	user, err := s.repo.UpdateProfile(ctx, tgID, fullName, department)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NewUserNotFoundError(tgID)
		}
		return nil, apperrors.NewDatabaseError("update profile", err).WithUserID(tgID)
	}

	logger.Info().
		Int64("user_id", tgID).
		Str("department", department).
		Msg("Profile updated")
	return user, nil
}
