package repository

import (
	"context"
	"errors"

	"shift-exchange-backend/internal/features/user/models"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository interface {
	// Upsert inserts u, or refreshes the username of an existing row. Name
	// and department of an existing row are left untouched.
	Upsert(ctx context.Context, u *models.User) (*models.User, error)
	GetByTgID(ctx context.Context, tgID int64) (*models.User, error)
	UpdateProfile(ctx context.Context, tgID int64, fullName, department string) (*models.User, error)
}
