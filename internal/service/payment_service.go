package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mealmarket/mealmarket-backend/internal/models"
	"github.com/mealmarket/mealmarket-backend/internal/pkg/apperror"
	"github.com/mealmarket/mealmarket-backend/internal/repository"
	"github.com/mealmarket/mealmarket-backend/internal/validation"
)

type PaymentRepository interface {
	Submit(ctx context.Context, reservationID uuid.UUID, method, proofFileID string) (*models.Payment, error)
	ListPending(ctx context.Context) ([]models.PendingPayment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	GetByReservation(ctx context.Context, reservationID uuid.UUID) (*models.Payment, error)
	Approve(ctx context.Context, paymentID, adminID uuid.UUID) (*models.Payment, error)
	Reject(ctx context.Context, paymentID, adminID uuid.UUID) (*models.Payment, error)
}

type ReservationRepoForPayment interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
}

type PaymentService struct {
	repo         PaymentRepository
	reservations ReservationRepoForPayment
}

func NewPaymentService(repo PaymentRepository, reservations ReservationRepoForPayment) *PaymentService {
	return &PaymentService{repo: repo, reservations: reservations}
}

// SubmitPayment регистрирует чек об оплате брони. Повторная отправка
// перезаписывает прежний чек и возвращает его на модерацию.
func (s *PaymentService) SubmitPayment(ctx context.Context, reservationID, buyerID uuid.UUID, method, proofFileID string) (*models.Payment, error) {
	method = strings.TrimSpace(method)
	if err := validation.ValidateNonEmpty("способ оплаты", method); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateNonEmpty("файл чека", proofFileID); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	reservation, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return nil, apperror.ErrReservationNotFound
		}
		return nil, err
	}
	if reservation.BuyerID != buyerID {
		return nil, apperror.ErrForbidden
	}

	payment, err := s.repo.Submit(ctx, reservationID, method, proofFileID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrReservationNotFound):
			return nil, apperror.ErrReservationNotFound
		case errors.Is(err, repository.ErrReservationNotPayable):
			return nil, apperror.New(apperror.ErrCodeInvalidState, "бронь не ожидает оплаты")
		default:
			return nil, err
		}
	}

	logrus.WithFields(logrus.Fields{
		"payment_id":     payment.ID,
		"reservation_id": reservationID,
		"method":         method,
	}).Info("Чек отправлен на модерацию")
	return payment, nil
}

// PendingQueue возвращает очередь чеков на модерации.
func (s *PaymentService) PendingQueue(ctx context.Context) ([]models.PendingPayment, error) {
	return s.repo.ListPending(ctx)
}

// GetPayment возвращает платёж по ID.
func (s *PaymentService) GetPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	payment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, apperror.ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

// GetByReservation возвращает платёж брони.
func (s *PaymentService) GetByReservation(ctx context.Context, reservationID uuid.UUID) (*models.Payment, error) {
	payment, err := s.repo.GetByReservation(ctx, reservationID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, apperror.ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

// ApprovePayment одобряет чек: бронь фиксируется, объявление уходит в sold.
func (s *PaymentService) ApprovePayment(ctx context.Context, paymentID, adminID uuid.UUID) (*models.Payment, error) {
	payment, err := s.repo.Approve(ctx, paymentID, adminID)
	if err != nil {
		return nil, s.mapReviewError(err)
	}
	logrus.WithFields(logrus.Fields{
		"payment_id": paymentID,
		"admin_id":   adminID,
	}).Info("Чек одобрен")
	return payment, nil
}

// RejectPayment отклоняет чек: бронь закрывается, объявление возвращается
// на витрину.
func (s *PaymentService) RejectPayment(ctx context.Context, paymentID, adminID uuid.UUID) (*models.Payment, error) {
	payment, err := s.repo.Reject(ctx, paymentID, adminID)
	if err != nil {
		return nil, s.mapReviewError(err)
	}
	logrus.WithFields(logrus.Fields{
		"payment_id": paymentID,
		"admin_id":   adminID,
	}).Info("Чек отклонён")
	return payment, nil
}

func (s *PaymentService) mapReviewError(err error) error {
	switch {
	case errors.Is(err, repository.ErrPaymentNotFound):
		return apperror.ErrPaymentNotFound
	case errors.Is(err, repository.ErrPaymentAlreadyReviewed):
		return apperror.New(apperror.ErrCodeInvalidState, "чек уже рассмотрен")
	default:
		return err
	}
}
