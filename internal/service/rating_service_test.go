package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mealmarket/mealmarket-backend/internal/models"
	"github.com/mealmarket/mealmarket-backend/internal/pkg/apperror"
	"github.com/mealmarket/mealmarket-backend/internal/repository"
)

type mockRatingRepo struct {
	mock.Mock
}

func (m *mockRatingRepo) Create(ctx context.Context, rating *models.Rating) error {
	args := m.Called(ctx, rating)
	if args.Error(0) == nil {
		rating.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockRatingRepo) GetByDeal(ctx context.Context, dealID uuid.UUID) (*models.Rating, error) {
	args := m.Called(ctx, dealID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Rating), args.Error(1)
}

func (m *mockRatingRepo) ListByUser(ctx context.Context, toUser uuid.UUID, limit, offset int) ([]models.Rating, error) {
	args := m.Called(ctx, toUser, limit, offset)
	return args.Get(0).([]models.Rating), args.Error(1)
}

type mockReservationForRating struct {
	mock.Mock
}

func (m *mockReservationForRating) GetByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

type mockListingForRating struct {
	mock.Mock
}

func (m *mockListingForRating) GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func ratingFixture(t *testing.T) (context.Context, *RatingService, *mockRatingRepo, uuid.UUID, uuid.UUID, uuid.UUID) {
	t.Helper()

	repo := new(mockRatingRepo)
	reservations := new(mockReservationForRating)
	listings := new(mockListingForRating)
	svc := NewRatingService(repo, reservations, listings)
	ctx := context.Background()

	dealID := uuid.New()
	buyerID := uuid.New()
	sellerID := uuid.New()
	listingID := uuid.New()

	reservations.On("GetByID", ctx, dealID).Return(&models.Reservation{
		ID:        dealID,
		ListingID: listingID,
		BuyerID:   buyerID,
		Status:    models.ReservationStatusApproved,
	}, nil)
	listings.On("GetByID", ctx, listingID).Return(&models.Listing{
		ID:       listingID,
		SellerID: sellerID,
	}, nil)

	return ctx, svc, repo, dealID, buyerID, sellerID
}

func TestRatingService_RateDeal_BuyerRatesSeller(t *testing.T) {
	ctx, svc, repo, dealID, buyerID, sellerID := ratingFixture(t)

	repo.On("Create", ctx, mock.AnythingOfType("*models.Rating")).Return(nil)

	text := "Всё честно, код сработал"
	rating, err := svc.RateDeal(ctx, dealID, buyerID, 5, &text)
	require.NoError(t, err)
	assert.Equal(t, buyerID, rating.FromUser)
	assert.Equal(t, sellerID, rating.ToUser)
	assert.Equal(t, 5, rating.Stars)
}

func TestRatingService_RateDeal_SellerRatesBuyer(t *testing.T) {
	ctx, svc, repo, dealID, buyerID, sellerID := ratingFixture(t)

	repo.On("Create", ctx, mock.AnythingOfType("*models.Rating")).Return(nil)

	rating, err := svc.RateDeal(ctx, dealID, sellerID, 4, nil)
	require.NoError(t, err)
	assert.Equal(t, sellerID, rating.FromUser)
	assert.Equal(t, buyerID, rating.ToUser)
}

func TestRatingService_RateDeal_Outsider(t *testing.T) {
	ctx, svc, repo, dealID, _, _ := ratingFixture(t)

	_, err := svc.RateDeal(ctx, dealID, uuid.New(), 5, nil)
	assert.True(t, apperror.IsForbidden(err))
	repo.AssertNotCalled(t, "Create")
}

func TestRatingService_RateDeal_InvalidStars(t *testing.T) {
	ctx, svc, repo, dealID, buyerID, _ := ratingFixture(t)

	_, err := svc.RateDeal(ctx, dealID, buyerID, 0, nil)
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.RateDeal(ctx, dealID, buyerID, 6, nil)
	assert.True(t, apperror.IsValidation(err))

	repo.AssertNotCalled(t, "Create")
}

func TestRatingService_RateDeal_AlreadyRated(t *testing.T) {
	ctx, svc, repo, dealID, buyerID, _ := ratingFixture(t)

	repo.On("Create", ctx, mock.AnythingOfType("*models.Rating")).
		Return(repository.ErrRatingExists)

	_, err := svc.RateDeal(ctx, dealID, buyerID, 5, nil)
	assert.True(t, apperror.IsConflict(err))
}

func TestRatingService_RateDeal_NotApproved(t *testing.T) {
	repo := new(mockRatingRepo)
	reservations := new(mockReservationForRating)
	listings := new(mockListingForRating)
	svc := NewRatingService(repo, reservations, listings)
	ctx := context.Background()

	dealID := uuid.New()
	buyerID := uuid.New()
	reservations.On("GetByID", ctx, dealID).Return(&models.Reservation{
		ID:      dealID,
		BuyerID: buyerID,
		Status:  models.ReservationStatusPaid,
	}, nil)

	_, err := svc.RateDeal(ctx, dealID, buyerID, 5, nil)
	assert.True(t, apperror.IsInvalidState(err))
}
