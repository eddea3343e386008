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

var (
	ErrPaymentNotFound        = errors.New("payment not found")
	ErrReservationNotPayable  = errors.New("reservation is not payable")
	ErrPaymentAlreadyReviewed = errors.New("payment already reviewed")
)

type PaymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Submit регистрирует чек об оплате: бронь блокируется FOR UPDATE,
// проверяется, что она в pending/paid, и переводится в paid. Повторная
// отправка чека перезаписывает метод и файл и сбрасывает прежнюю модерацию -
// так покупатель может исправить ошибочный чек, пока бронь не рассмотрена.
func (r *PaymentRepository) Submit(ctx context.Context, reservationID uuid.UUID, method, proofFileID string) (*models.Payment, error) {
	var payment models.Payment

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var reservation models.Reservation
		err := tx.GetContext(ctx, &reservation, `SELECT * FROM reservations WHERE id = $1 FOR UPDATE`, reservationID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrReservationNotFound
			}
			return fmt.Errorf("payment repository: lock reservation %w", err)
		}

		if reservation.Status != models.ReservationStatusPending &&
			reservation.Status != models.ReservationStatusPaid {
			return ErrReservationNotPayable
		}

		if reservation.Status != models.ReservationStatusPaid {
			if _, err := tx.ExecContext(ctx, `
				UPDATE reservations SET status = $2, updated_at = NOW() WHERE id = $1
			`, reservationID, models.ReservationStatusPaid); err != nil {
				return fmt.Errorf("payment repository: mark paid %w", err)
			}
		}

		err = tx.QueryRowxContext(ctx, `
			INSERT INTO payments (reservation_id, method, proof_file_id, status)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (reservation_id) DO UPDATE SET
				method = EXCLUDED.method,
				proof_file_id = EXCLUDED.proof_file_id,
				status = EXCLUDED.status,
				reviewed_by = NULL,
				reviewed_at = NULL,
				updated_at = NOW()
			RETURNING id, reservation_id, method, proof_file_id, status, reviewed_by, reviewed_at, created_at, updated_at
		`, reservationID, method, proofFileID, models.PaymentStatusPending).StructScan(&payment)
		if err != nil {
			return fmt.Errorf("payment repository: upsert %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListPending возвращает очередь модерации вместе с резервом, объявлением
// и покупателем для отображения.
func (r *PaymentRepository) ListPending(ctx context.Context) ([]models.PendingPayment, error) {
	var payments []models.PendingPayment
	err := r.db.SelectContext(ctx, &payments, `
		SELECT p.*,
		       r.status AS reservation_status,
		       l.id AS listing_id, l.dish_name, l.price,
		       u.id AS buyer_id, u.tg_id AS buyer_tg_id, u.name AS buyer_name
		FROM payments p
		JOIN reservations r ON r.id = p.reservation_id
		JOIN listings l ON l.id = r.listing_id
		JOIN users u ON u.id = r.buyer_id
		WHERE p.status = $1
		ORDER BY p.created_at
	`, models.PaymentStatusPending)
	if err != nil {
		return nil, fmt.Errorf("payment repository: list pending %w", err)
	}
	return payments, nil
}

// GetByID возвращает платёж по ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	return common.GetByID[models.Payment](ctx, r.db, "payments", id, ErrPaymentNotFound)
}

// GetByReservation возвращает платёж по резерву.
func (r *PaymentRepository) GetByReservation(ctx context.Context, reservationID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.GetContext(ctx, &payment, `SELECT * FROM payments WHERE reservation_id = $1`, reservationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("payment repository: get by reservation %w", err)
	}
	return &payment, nil
}

// Approve одобряет платёж и каскадно фиксирует сделку: бронь - approved,
// объявление - sold. Всё в одной транзакции; рассмотренный платёж терминален.
func (r *PaymentRepository) Approve(ctx context.Context, paymentID, adminID uuid.UUID) (*models.Payment, error) {
	return r.review(ctx, paymentID, adminID,
		models.PaymentStatusApproved, models.ReservationStatusApproved, models.ListingStatusSold)
}

// Reject отклоняет платёж: бронь - rejected, объявление возвращается в active
// и снова доступно другим покупателям.
func (r *PaymentRepository) Reject(ctx context.Context, paymentID, adminID uuid.UUID) (*models.Payment, error) {
	return r.review(ctx, paymentID, adminID,
		models.PaymentStatusRejected, models.ReservationStatusRejected, models.ListingStatusActive)
}

func (r *PaymentRepository) review(ctx context.Context, paymentID, adminID uuid.UUID, paymentStatus, reservationStatus, listingStatus string) (*models.Payment, error) {
	var payment models.Payment

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &payment, `SELECT * FROM payments WHERE id = $1 FOR UPDATE`, paymentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrPaymentNotFound
			}
			return fmt.Errorf("payment repository: lock %w", err)
		}
		if payment.Status != models.PaymentStatusPending {
			return ErrPaymentAlreadyReviewed
		}

		err = tx.QueryRowxContext(ctx, `
			UPDATE payments SET status = $2, reviewed_by = $3, reviewed_at = NOW(), updated_at = NOW()
			WHERE id = $1
			RETURNING id, reservation_id, method, proof_file_id, status, reviewed_by, reviewed_at, created_at, updated_at
		`, paymentID, paymentStatus, adminID).StructScan(&payment)
		if err != nil {
			return fmt.Errorf("payment repository: review %w", err)
		}

		var listingID uuid.UUID
		err = tx.GetContext(ctx, &listingID, `
			UPDATE reservations SET status = $2, updated_at = NOW() WHERE id = $1
			RETURNING listing_id
		`, payment.ReservationID, reservationStatus)
		if err != nil {
			return fmt.Errorf("payment repository: update reservation %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE listings SET status = $2, updated_at = NOW() WHERE id = $1
		`, listingID, listingStatus); err != nil {
			return fmt.Errorf("payment repository: update listing %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
