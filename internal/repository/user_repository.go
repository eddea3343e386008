package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mealmarket/mealmarket-backend/internal/models"
	"github.com/mealmarket/mealmarket-backend/internal/repository/common"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create создаёт пользователя.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (tg_id, name, uni, is_admin)
		VALUES ($1, $2, $3, $4)
		RETURNING id, rating_avg, rating_cnt, is_banned, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		user.TelegramID, user.Name, user.Uni, user.IsAdmin,
	).Scan(&user.ID, &user.RatingAvg, &user.RatingCnt, &user.IsBanned, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err, "") {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("user repository: create %w", err)
	}
	return nil
}

// GetByID возвращает пользователя по ID.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return common.GetByID[models.User](ctx, r.db, "users", id, ErrUserNotFound)
}

// GetByTelegramID возвращает пользователя по внешнему идентификатору мессенджера.
func (r *UserRepository) GetByTelegramID(ctx context.Context, tgID int64) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE tg_id = $1`, tgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by tg id %w", err)
	}
	return &user, nil
}

// SetBanned меняет флаг блокировки пользователя.
func (r *UserRepository) SetBanned(ctx context.Context, id uuid.UUID, banned bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET is_banned = $2, updated_at = NOW() WHERE id = $1
	`, id, banned)
	if err != nil {
		return fmt.Errorf("user repository: set banned %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}
