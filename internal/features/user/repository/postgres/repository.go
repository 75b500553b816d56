package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shift-exchange-backend/internal/features/user/models"
	"shift-exchange-backend/internal/features/user/repository"
	"shift-exchange-backend/internal/platform/postgres"
)

const userColumns = `tg_id, tg_username, full_name, department, created_at, updated_at`

type postgresRepository struct {
	db postgres.DBTX
}

func NewPostgresRepository(db postgres.DBTX) repository.UserRepository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Upsert(ctx context.Context, u *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (tg_id, tg_username, full_name)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''))
		ON CONFLICT (tg_id) DO UPDATE SET
			tg_username = EXCLUDED.tg_username,
			updated_at = NOW()
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, u.TgID, u.Username, u.FullName))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return user, nil
}

func (r *postgresRepository) GetByTgID(ctx context.Context, tgID int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE tg_id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, tgID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *postgresRepository) UpdateProfile(ctx context.Context, tgID int64, fullName, department string) (*models.User, error) {
	query := `
		UPDATE users
		SET full_name = $2, department = $3, updated_at = NOW()
		WHERE tg_id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, tgID, fullName, department))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user profile: %w", err)
	}
	return user, nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		u                              models.User
		username, fullName, department sql.NullString
	)
	if err := row.Scan(&u.TgID, &username, &fullName, &department, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Username = username.String
	u.FullName = fullName.String
	u.Department = department.String
	return &u, nil
}
