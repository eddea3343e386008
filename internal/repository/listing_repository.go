package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/mealmarket/mealmarket-backend/internal/models"
	"github.com/mealmarket/mealmarket-backend/internal/repository/common"
)

var (
	ErrListingNotFound     = errors.New("listing not found")
	ErrListingLimitReached = errors.New("active listing limit reached")
)

type ListingRepository struct {
	db *sqlx.DB
}

func NewListingRepository(db *sqlx.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// CreateWithQuota создаёт объявление, атомарно проверяя лимит активных
// объявлений продавца. Строка продавца блокируется FOR UPDATE, поэтому два
// параллельных запроса не могут оба пройти проверку лимита.
func (r *ListingRepository) CreateWithQuota(ctx context.Context, listing *models.Listing, maxActive int) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var sellerID uuid.UUID
		err := tx.GetContext(ctx, &sellerID, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, listing.SellerID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("listing repository: lock seller %w", err)
		}

		var active int
		err = tx.GetContext(ctx, &active, `
			SELECT COUNT(*) FROM listings WHERE seller_id = $1 AND status = $2
		`, listing.SellerID, models.ListingStatusActive)
		if err != nil {
			return fmt.Errorf("listing repository: count active %w", err)
		}
		if active >= maxActive {
			return ErrListingLimitReached
		}

		query := `
			INSERT INTO listings (seller_id, date, meal_type, dish_name, masked_code, full_code_enc, price, status, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, created_at, updated_at
		`
		return tx.QueryRowxContext(ctx, query,
			listing.SellerID, listing.Date, listing.MealType, listing.DishName,
			listing.MaskedCode, listing.FullCodeEnc, listing.Price,
			models.ListingStatusActive, listing.ExpiresAt,
		).Scan(&listing.ID, &listing.CreatedAt, &listing.UpdatedAt)
	})
}

// GetByID возвращает объявление по ID.
func (r *ListingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	return common.GetByID[models.Listing](ctx, r.db, "listings", id, ErrListingNotFound)
}

// ListActive возвращает активные объявления в порядке (дата, приём пищи,
// время создания). Порядок стабильный: пагинация витрины считает позицию
// индексом именно в этой выдаче.
func (r *ListingRepository) ListActive(ctx context.Context, mealFilters []string, limit, offset int) ([]models.Listing, error) {
	query := `SELECT * FROM listings WHERE status = $1`
	args := []interface{}{models.ListingStatusActive}

	if len(mealFilters) > 0 {
		query += fmt.Sprintf(" AND meal_type = ANY($%d)", len(args)+1)
		args = append(args, pq.Array(mealFilters))
	}
	query += fmt.Sprintf(" ORDER BY date, meal_type, created_at LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var listings []models.Listing
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, fmt.Errorf("listing repository: list active %w", err)
	}
	return listings, nil
}

// ListBySeller возвращает объявления продавца.
func (r *ListingRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.db.SelectContext(ctx, &listings, `
		SELECT * FROM listings WHERE seller_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, sellerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing repository: list by seller %w", err)
	}
	return listings, nil
}

// SetStatus переводит объявление в заданный статус без проверки исходного:
// допустимость перехода - ответственность вызывающего кода.
func (r *ListingRepository) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE listings SET status = $2, updated_at = NOW() WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("listing repository: set status %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrListingNotFound
	}
	return nil
}

// ExpireOverdue переводит просроченные активные объявления в expired.
// Предикат входит в сам UPDATE, поэтому повторные и параллельные вызовы
// безопасны. Возвращает число затронутых объявлений.
func (r *ListingRepository) ExpireOverdue(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE listings SET status = $1, updated_at = NOW()
		WHERE status = $2 AND expires_at IS NOT NULL AND expires_at < NOW()
	`, models.ListingStatusExpired, models.ListingStatusActive)
	if err != nil {
		return 0, fmt.Errorf("listing repository: expire overdue %w", err)
	}
	return res.RowsAffected()
}
