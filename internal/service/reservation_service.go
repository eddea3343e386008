package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mealmarket/mealmarket-backend/internal/models"
	"github.com/mealmarket/mealmarket-backend/internal/pkg/apperror"
	"github.com/mealmarket/mealmarket-backend/internal/repository"
)

type ReservationRepository interface {
	Create(ctx context.Context, listingID, buyerID uuid.UUID, ttl time.Duration, maxOpen int) (*models.Reservation, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	ExpireOverdue(ctx context.Context) ([]models.Reservation, error)
	AboutToExpire(ctx context.Context, threshold time.Duration) ([]models.ExpiringReservation, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]models.Reservation, error)
}

type ReservationSettings interface {
	ReserveTTL(ctx context.Context) time.Duration
	ReservationLimitPerUser(ctx context.Context) int
}

type ReservationService struct {
	repo     ReservationRepository
	settings ReservationSettings
}

func NewReservationService(repo ReservationRepository, settings ReservationSettings) *ReservationService {
	return &ReservationService{repo: repo, settings: settings}
}

// Reserve бронирует объявление для покупателя. TTL и лимит открытых броней
// берутся из рантайм-настроек; все проверки гонкобезопасны на уровне хранилища.
func (s *ReservationService) Reserve(ctx context.Context, listingID, buyerID uuid.UUID) (*models.Reservation, error) {
	ttl := s.settings.ReserveTTL(ctx)
	limit := s.settings.ReservationLimitPerUser(ctx)

	reservation, err := s.repo.Create(ctx, listingID, buyerID, ttl, limit)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrListingNotFound),
			errors.Is(err, repository.ErrListingNotAvailable):
			// Несуществующее и недоступное объявления наружу неразличимы.
			return nil, apperror.ErrListingNotFound
		case errors.Is(err, repository.ErrDuplicateReservation):
			return nil, apperror.New(apperror.ErrCodeConflict, "объявление уже забронировано")
		case errors.Is(err, repository.ErrReservationLimit):
			return nil, apperror.QuotaExceeded(limit, "достигнут лимит открытых броней")
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, apperror.ErrUserNotFound
		default:
			return nil, err
		}
	}

	logrus.WithFields(logrus.Fields{
		"reservation_id": reservation.ID,
		"listing_id":     listingID,
		"buyer_id":       buyerID,
		"reserved_until": reservation.ReservedUntil,
	}).Info("Бронь создана")
	return reservation, nil
}

// GetReservation возвращает бронь по ID.
func (s *ReservationService) GetReservation(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	reservation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return nil, apperror.ErrReservationNotFound
		}
		return nil, err
	}
	return reservation, nil
}

// CancelReservation отменяет бронь покупателя. Операция идемпотентна.
func (s *ReservationService) CancelReservation(ctx context.Context, id, buyerID uuid.UUID) error {
	reservation, err := s.GetReservation(ctx, id)
	if err != nil {
		return err
	}
	if reservation.BuyerID != buyerID {
		return apperror.ErrForbidden
	}
	if reservation.Status == models.ReservationStatusApproved {
		return apperror.New(apperror.ErrCodeInvalidState, "одобренную бронь отменить нельзя")
	}

	if err := s.repo.Cancel(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return apperror.ErrReservationNotFound
		}
		return err
	}
	logrus.WithField("reservation_id", id).Info("Бронь отменена")
	return nil
}

// MyReservations возвращает брони покупателя.
func (s *ReservationService) MyReservations(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]models.Reservation, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByBuyer(ctx, buyerID, limit, offset)
}

// ExpireOverdue снимает просроченные брони и освобождает их объявления.
// Возвращает истёкшие брони.
func (s *ReservationService) ExpireOverdue(ctx context.Context) ([]models.Reservation, error) {
	return s.repo.ExpireOverdue(ctx)
}

// AboutToExpire возвращает брони, истекающие в ближайшие threshold.
func (s *ReservationService) AboutToExpire(ctx context.Context, threshold time.Duration) ([]models.ExpiringReservation, error) {
	return s.repo.AboutToExpire(ctx, threshold)
}
