package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/mealmarket/mealmarket-backend/internal/models"
	"github.com/mealmarket/mealmarket-backend/internal/repository/common"
)

var (
	ErrReservationNotFound  = errors.New("reservation not found")
	ErrListingNotAvailable  = errors.New("listing is not available for reservation")
	ErrDuplicateReservation = errors.New("open reservation already exists for this listing")
	ErrReservationLimit     = errors.New("open reservation limit reached")
)

type ReservationRepository struct {
	db *sqlx.DB
}

func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Create создаёт бронь в одной транзакции: блокирует строку покупателя и
// строку объявления (всегда в этом порядке, чтобы не ловить deadlock),
// перепроверяет статус объявления, эксклюзивность и лимит покупателя,
// переводит объявление в reserved и вставляет pending-резерв.
// Страховка от гонок на уровне хранилища - частичный уникальный индекс
// uq_reservations_listing_open: из нескольких конкурентных попыток
// зафиксируется ровно одна.
func (r *ReservationRepository) Create(ctx context.Context, listingID, buyerID uuid.UUID, ttl time.Duration, maxOpen int) (*models.Reservation, error) {
	var reservation models.Reservation

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var lockedBuyer uuid.UUID
		err := tx.GetContext(ctx, &lockedBuyer, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, buyerID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("reservation repository: lock buyer %w", err)
		}

		var listing models.Listing
		err = tx.GetContext(ctx, &listing, `SELECT * FROM listings WHERE id = $1 FOR UPDATE`, listingID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrListingNotFound
			}
			return fmt.Errorf("reservation repository: lock listing %w", err)
		}
		if listing.Status != models.ListingStatusActive {
			return ErrListingNotAvailable
		}

		var hasOwn bool
		err = tx.GetContext(ctx, &hasOwn, `
			SELECT EXISTS (
				SELECT 1 FROM reservations
				WHERE listing_id = $1 AND buyer_id = $2 AND status = ANY($3)
			)
		`, listingID, buyerID, pq.Array(models.OpenReservationStatuses))
		if err != nil {
			return fmt.Errorf("reservation repository: check duplicate %w", err)
		}
		if hasOwn {
			return ErrDuplicateReservation
		}

		var open int
		err = tx.GetContext(ctx, &open, `
			SELECT COUNT(*) FROM reservations WHERE buyer_id = $1 AND status = ANY($2)
		`, buyerID, pq.Array(models.OpenReservationStatuses))
		if err != nil {
			return fmt.Errorf("reservation repository: count open %w", err)
		}
		if open >= maxOpen {
			return ErrReservationLimit
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE listings SET status = $2, updated_at = NOW() WHERE id = $1
		`, listingID, models.ListingStatusReserved); err != nil {
			return fmt.Errorf("reservation repository: flip listing %w", err)
		}

		err = tx.QueryRowxContext(ctx, `
			INSERT INTO reservations (listing_id, buyer_id, reserved_until, status)
			VALUES ($1, $2, $3, $4)
			RETURNING id, listing_id, buyer_id, reserved_until, status, created_at, updated_at
		`, listingID, buyerID, time.Now().UTC().Add(ttl), models.ReservationStatusPending).StructScan(&reservation)
		if err != nil {
			if common.IsUniqueViolation(err, "uq_reservations_listing_open") {
				return ErrDuplicateReservation
			}
			return fmt.Errorf("reservation repository: insert %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// GetByID возвращает бронь по ID.
func (r *ReservationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	return common.GetByID[models.Reservation](ctx, r.db, "reservations", id, ErrReservationNotFound)
}

// Cancel отменяет бронь. Идемпотентна: повторная отмена, как и отмена уже
// истёкшей брони, молча завершается без изменений. Объявление возвращается
// в active только если всё ещё стоит в reserved.
func (r *ReservationRepository) Cancel(ctx context.Context, id uuid.UUID) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var reservation models.Reservation
		err := tx.GetContext(ctx, &reservation, `SELECT * FROM reservations WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrReservationNotFound
			}
			return fmt.Errorf("reservation repository: lock %w", err)
		}

		if reservation.Status == models.ReservationStatusCancelled ||
			reservation.Status == models.ReservationStatusExpired {
			return nil
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE reservations SET status = $2, updated_at = NOW() WHERE id = $1
		`, id, models.ReservationStatusCancelled); err != nil {
			return fmt.Errorf("reservation repository: cancel %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE listings SET status = $2, updated_at = NOW()
			WHERE id = $1 AND status = $3
		`, reservation.ListingID, models.ListingStatusActive, models.ListingStatusReserved); err != nil {
			return fmt.Errorf("reservation repository: release listing %w", err)
		}
		return nil
	})
}

// ExpireOverdue переводит просроченные pending/paid брони в expired и
// возвращает их объявления в active. Предикат перепроверяется внутри самого
// UPDATE, поэтому бронь, параллельно одобренную или отклонённую, свип не
// тронет. Возвращает истёкшие брони для уведомления покупателей.
func (r *ReservationRepository) ExpireOverdue(ctx context.Context) ([]models.Reservation, error) {
	var expired []models.Reservation
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.SelectContext(ctx, &expired, `
			UPDATE reservations SET status = $1, updated_at = NOW()
			WHERE status = ANY($2) AND reserved_until < NOW()
			RETURNING id, listing_id, buyer_id, reserved_until, status, created_at, updated_at
		`, models.ReservationStatusExpired,
			pq.Array([]string{models.ReservationStatusPending, models.ReservationStatusPaid}))
		if err != nil {
			return fmt.Errorf("reservation repository: expire %w", err)
		}
		if len(expired) == 0 {
			return nil
		}

		listingIDs := make([]uuid.UUID, 0, len(expired))
		for _, reservation := range expired {
			listingIDs = append(listingIDs, reservation.ListingID)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE listings SET status = $1, updated_at = NOW()
			WHERE id = ANY($2) AND status = $3
		`, models.ListingStatusActive, pq.Array(listingIDs), models.ListingStatusReserved); err != nil {
			return fmt.Errorf("reservation repository: release listings %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expired, nil
}

// AboutToExpire возвращает pending-брони, срок которых истекает в ближайшие
// threshold, но ещё не прошёл. Уже просроченные в выдачу не попадают.
func (r *ReservationRepository) AboutToExpire(ctx context.Context, threshold time.Duration) ([]models.ExpiringReservation, error) {
	var out []models.ExpiringReservation
	err := r.db.SelectContext(ctx, &out, `
		SELECT r.*, u.tg_id AS buyer_tg_id, u.name AS buyer_name
		FROM reservations r
		JOIN users u ON u.id = r.buyer_id
		WHERE r.status = $1
		  AND r.reserved_until > NOW()
		  AND r.reserved_until <= NOW() + $2::interval
		ORDER BY r.reserved_until
	`, models.ReservationStatusPending, fmt.Sprintf("%d seconds", int(threshold.Seconds())))
	if err != nil {
		return nil, fmt.Errorf("reservation repository: about to expire %w", err)
	}
	return out, nil
}

// ListByBuyer возвращает брони покупателя, новые сначала.
func (r *ReservationRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := r.db.SelectContext(ctx, &reservations, `
		SELECT * FROM reservations WHERE buyer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, buyerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("reservation repository: list by buyer %w", err)
	}
	return reservations, nil
}
