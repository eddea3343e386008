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

type DisputeRepository interface {
	Create(ctx context.Context, d *models.Dispute) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	ListOpen(ctx context.Context) ([]models.Dispute, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string, adminNotes *string) error
}

type ReservationRepoForDispute interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
}

type ListingRepoForDispute interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
}

type DisputeService struct {
	repo         DisputeRepository
	reservations ReservationRepoForDispute
	listings     ListingRepoForDispute
}

func NewDisputeService(repo DisputeRepository, reservations ReservationRepoForDispute, listings ListingRepoForDispute) *DisputeService {
	return &DisputeService{repo: repo, reservations: reservations, listings: listings}
}

// OpenDispute открывает спор по объявлению или брони. Спор может подать
// любая из сторон сделки, статус брони на возможность подачи не влияет.
func (s *DisputeService) OpenDispute(ctx context.Context, subjectID, userID uuid.UUID, reason string, evidenceFileID *string) (*models.Dispute, error) {
	reason = strings.TrimSpace(reason)
	if err := validation.ValidateDisputeReason(reason); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	listingID, buyerID, sellerID, err := s.resolveParties(ctx, subjectID, userID)
	if err != nil {
		return nil, err
	}

	dispute := &models.Dispute{
		ListingID:      listingID,
		BuyerID:        buyerID,
		SellerID:       sellerID,
		Reason:         reason,
		EvidenceFileID: evidenceFileID,
	}
	if err := s.repo.Create(ctx, dispute); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"dispute_id": dispute.ID,
		"listing_id": listingID,
		"opened_by":  userID,
	}).Warn("Открыт спор")
	return dispute, nil
}

// resolveParties определяет стороны спора. Идентификатор может указывать на
// объявление (тогда податель выступает покупателем) или на бронь (тогда
// податель обязан быть её покупателем или продавцом).
func (s *DisputeService) resolveParties(ctx context.Context, subjectID, userID uuid.UUID) (listingID, buyerID, sellerID uuid.UUID, err error) {
	listing, err := s.listings.GetByID(ctx, subjectID)
	if err == nil {
		return listing.ID, userID, listing.SellerID, nil
	}
	if !errors.Is(err, repository.ErrListingNotFound) {
		return uuid.Nil, uuid.Nil, uuid.Nil, err
	}

	reservation, err := s.reservations.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return uuid.Nil, uuid.Nil, uuid.Nil, apperror.ErrReservationNotFound
		}
		return uuid.Nil, uuid.Nil, uuid.Nil, err
	}

	listing, err = s.listings.GetByID(ctx, reservation.ListingID)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return uuid.Nil, uuid.Nil, uuid.Nil, apperror.ErrListingNotFound
		}
		return uuid.Nil, uuid.Nil, uuid.Nil, err
	}
	if userID != reservation.BuyerID && userID != listing.SellerID {
		return uuid.Nil, uuid.Nil, uuid.Nil, apperror.ErrForbidden
	}
	return listing.ID, reservation.BuyerID, listing.SellerID, nil
}

// GetDispute возвращает спор по ID.
func (s *DisputeService) GetDispute(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	dispute, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrDisputeNotFound) {
			return nil, apperror.ErrDisputeNotFound
		}
		return nil, err
	}
	return dispute, nil
}

// OpenDisputes возвращает споры в работе для админской очереди.
func (s *DisputeService) OpenDisputes(ctx context.Context) ([]models.Dispute, error) {
	return s.repo.ListOpen(ctx)
}

// ResolveDispute переводит спор в новый статус. Допустимые целевые статусы:
// in_review, resolved, dismissed. Повторно открыть спор нельзя.
func (s *DisputeService) ResolveDispute(ctx context.Context, id uuid.UUID, status string, adminNotes *string) (*models.Dispute, error) {
	switch status {
	case models.DisputeStatusInReview, models.DisputeStatusResolved, models.DisputeStatusDismissed:
	default:
		return nil, apperror.New(apperror.ErrCodeInvalidState, "недопустимый статус спора")
	}

	dispute, err := s.GetDispute(ctx, id)
	if err != nil {
		return nil, err
	}
	if dispute.Status == models.DisputeStatusResolved || dispute.Status == models.DisputeStatusDismissed {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "спор уже закрыт")
	}

	if err := s.repo.SetStatus(ctx, id, status, adminNotes); err != nil {
		if errors.Is(err, repository.ErrDisputeNotFound) {
			return nil, apperror.ErrDisputeNotFound
		}
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"dispute_id": id,
		"status":     status,
	}).Info("Статус спора обновлён")
	return s.GetDispute(ctx, id)
}
