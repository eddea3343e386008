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

type RatingRepository interface {
	Create(ctx context.Context, rating *models.Rating) error
	GetByDeal(ctx context.Context, dealID uuid.UUID) (*models.Rating, error)
	ListByUser(ctx context.Context, toUser uuid.UUID, limit, offset int) ([]models.Rating, error)
}

type ReservationRepoForRating interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
}

type ListingRepoForRating interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
}

type RatingService struct {
	repo         RatingRepository
	reservations ReservationRepoForRating
	listings     ListingRepoForRating
}

func NewRatingService(repo RatingRepository, reservations ReservationRepoForRating, listings ListingRepoForRating) *RatingService {
	return &RatingService{repo: repo, reservations: reservations, listings: listings}
}

// RateDeal оставляет оценку по завершённой сделке. Оценить может любая из
// сторон, но только одна: на сделку допускается ровно одна оценка.
func (s *RatingService) RateDeal(ctx context.Context, dealID, raterID uuid.UUID, stars int, text *string) (*models.Rating, error) {
	if err := validation.ValidateStars(stars); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateRatingText(text); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if text != nil {
		trimmed := strings.TrimSpace(*text)
		if trimmed == "" {
			text = nil
		} else {
			text = &trimmed
		}
	}

	reservation, err := s.reservations.GetByID(ctx, dealID)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return nil, apperror.ErrReservationNotFound
		}
		return nil, err
	}
	if reservation.Status != models.ReservationStatusApproved {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "оценить можно только завершённую сделку")
	}

	listing, err := s.listings.GetByID(ctx, reservation.ListingID)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return nil, apperror.ErrListingNotFound
		}
		return nil, err
	}

	// Определяем, кому адресована оценка.
	var toUser uuid.UUID
	switch raterID {
	case reservation.BuyerID:
		toUser = listing.SellerID
	case listing.SellerID:
		toUser = reservation.BuyerID
	default:
		return nil, apperror.New(apperror.ErrCodeForbidden, "вы не участник этой сделки")
	}

	rating := &models.Rating{
		DealID:   dealID,
		FromUser: raterID,
		ToUser:   toUser,
		Stars:    stars,
		Text:     text,
	}
	if err := s.repo.Create(ctx, rating); err != nil {
		switch {
		case errors.Is(err, repository.ErrRatingExists):
			return nil, apperror.New(apperror.ErrCodeConflict, "по этой сделке уже есть оценка")
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, apperror.ErrUserNotFound
		default:
			return nil, err
		}
	}

	logrus.WithFields(logrus.Fields{
		"deal_id": dealID,
		"from":    raterID,
		"to":      toUser,
		"stars":   stars,
	}).Info("Оценка сохранена")
	return rating, nil
}

// DealRating возвращает оценку по сделке, nil если её ещё нет.
func (s *RatingService) DealRating(ctx context.Context, dealID uuid.UUID) (*models.Rating, error) {
	return s.repo.GetByDeal(ctx, dealID)
}

// UserRatings возвращает оценки, полученные пользователем.
func (s *RatingService) UserRatings(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Rating, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}
