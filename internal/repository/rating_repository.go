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

var ErrRatingExists = errors.New("rating already exists for this deal")

type RatingRepository struct {
	db *sqlx.DB
}

func NewRatingRepository(db *sqlx.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// NextAverage инкрементально пересчитывает средний рейтинг:
// new_avg = (old_avg*old_cnt + stars) / (old_cnt + 1).
func NextAverage(avg float64, cnt, stars int) (float64, int) {
	total := avg*float64(cnt) + float64(stars)
	cnt++
	return total / float64(cnt), cnt
}

// Create сохраняет оценку и в той же транзакции обновляет средний рейтинг
// получателя. Либо фиксируются обе записи, либо ни одной.
func (r *RatingRepository) Create(ctx context.Context, rating *models.Rating) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO ratings (deal_id, from_user, to_user, stars, text)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at
		`, rating.DealID, rating.FromUser, rating.ToUser, rating.Stars, rating.Text).
			Scan(&rating.ID, &rating.CreatedAt)
		if err != nil {
			if common.IsUniqueViolation(err, "") {
				return ErrRatingExists
			}
			return fmt.Errorf("rating repository: insert %w", err)
		}

		var user struct {
			Avg float64 `db:"rating_avg"`
			Cnt int     `db:"rating_cnt"`
		}
		err = tx.GetContext(ctx, &user, `
			SELECT rating_avg, rating_cnt FROM users WHERE id = $1 FOR UPDATE
		`, rating.ToUser)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("rating repository: lock user %w", err)
		}

		avg, cnt := NextAverage(user.Avg, user.Cnt, rating.Stars)
		if _, err := tx.ExecContext(ctx, `
			UPDATE users SET rating_avg = $2, rating_cnt = $3, updated_at = NOW() WHERE id = $1
		`, rating.ToUser, avg, cnt); err != nil {
			return fmt.Errorf("rating repository: update user %w", err)
		}
		return nil
	})
}

// GetByDeal возвращает оценку по сделке, nil если её нет.
func (r *RatingRepository) GetByDeal(ctx context.Context, dealID uuid.UUID) (*models.Rating, error) {
	var rating models.Rating
	err := r.db.GetContext(ctx, &rating, `SELECT * FROM ratings WHERE deal_id = $1`, dealID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("rating repository: get by deal %w", err)
	}
	return &rating, nil
}

// ListByUser возвращает оценки, полученные пользователем.
func (r *RatingRepository) ListByUser(ctx context.Context, toUser uuid.UUID, limit, offset int) ([]models.Rating, error) {
	var ratings []models.Rating
	err := r.db.SelectContext(ctx, &ratings, `
		SELECT * FROM ratings WHERE to_user = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, toUser, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("rating repository: list by user %w", err)
	}
	return ratings, nil
}
