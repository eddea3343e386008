package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mealmarket/mealmarket-backend/internal/models"
	"github.com/mealmarket/mealmarket-backend/internal/pkg/apperror"
	"github.com/mealmarket/mealmarket-backend/internal/repository"
)

type mockReservationRepo struct {
	mock.Mock
}

func (m *mockReservationRepo) Create(ctx context.Context, listingID, buyerID uuid.UUID, ttl time.Duration, maxOpen int) (*models.Reservation, error) {
	args := m.Called(ctx, listingID, buyerID, ttl, maxOpen)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *mockReservationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *mockReservationRepo) Cancel(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockReservationRepo) ExpireOverdue(ctx context.Context) ([]models.Reservation, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Reservation), args.Error(1)
}

func (m *mockReservationRepo) AboutToExpire(ctx context.Context, threshold time.Duration) ([]models.ExpiringReservation, error) {
	args := m.Called(ctx, threshold)
	return args.Get(0).([]models.ExpiringReservation), args.Error(1)
}

func (m *mockReservationRepo) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]models.Reservation, error) {
	args := m.Called(ctx, buyerID, limit, offset)
	return args.Get(0).([]models.Reservation), args.Error(1)
}

// stubReservationSettings отдаёт фиксированные TTL и лимит.
type stubReservationSettings struct {
	ttl   time.Duration
	limit int
}

func (s *stubReservationSettings) ReserveTTL(ctx context.Context) time.Duration { return s.ttl }
func (s *stubReservationSettings) ReservationLimitPerUser(ctx context.Context) int {
	return s.limit
}

func TestReservationService_Reserve_Success(t *testing.T) {
	repo := new(mockReservationRepo)
	svc := NewReservationService(repo, &stubReservationSettings{ttl: 15 * time.Minute, limit: 2})
	ctx := context.Background()

	listingID := uuid.New()
	buyerID := uuid.New()
	expected := &models.Reservation{
		ID:        uuid.New(),
		ListingID: listingID,
		BuyerID:   buyerID,
		Status:    models.ReservationStatusPending,
	}

	repo.On("Create", ctx, listingID, buyerID, 15*time.Minute, 2).Return(expected, nil)

	reservation, err := svc.Reserve(ctx, listingID, buyerID)
	require.NoError(t, err)
	assert.Equal(t, expected.ID, reservation.ID)
}

func TestReservationService_Reserve_ListingUnavailable(t *testing.T) {
	repo := new(mockReservationRepo)
	svc := NewReservationService(repo, &stubReservationSettings{ttl: 15 * time.Minute, limit: 2})
	ctx := context.Background()

	listingID := uuid.New()
	buyerID := uuid.New()

	// Недоступное объявление для покупателя неотличимо от несуществующего.
	repo.On("Create", ctx, listingID, buyerID, 15*time.Minute, 2).
		Return(nil, repository.ErrListingNotAvailable)

	_, err := svc.Reserve(ctx, listingID, buyerID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestReservationService_Reserve_Duplicate(t *testing.T) {
	repo := new(mockReservationRepo)
	svc := NewReservationService(repo, &stubReservationSettings{ttl: 15 * time.Minute, limit: 2})
	ctx := context.Background()

	repo.On("Create", ctx, mock.Anything, mock.Anything, 15*time.Minute, 2).
		Return(nil, repository.ErrDuplicateReservation)

	_, err := svc.Reserve(ctx, uuid.New(), uuid.New())
	assert.True(t, apperror.IsConflict(err))
}

func TestReservationService_Reserve_LimitReached(t *testing.T) {
	repo := new(mockReservationRepo)
	svc := NewReservationService(repo, &stubReservationSettings{ttl: 15 * time.Minute, limit: 2})
	ctx := context.Background()

	repo.On("Create", ctx, mock.Anything, mock.Anything, 15*time.Minute, 2).
		Return(nil, repository.ErrReservationLimit)

	_, err := svc.Reserve(ctx, uuid.New(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperror.IsQuotaExceeded(err))

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 2, appErr.Limit)
}

func TestReservationService_Cancel(t *testing.T) {
	repo := new(mockReservationRepo)
	svc := NewReservationService(repo, &stubReservationSettings{ttl: 15 * time.Minute, limit: 2})
	ctx := context.Background()

	buyerID := uuid.New()
	id := uuid.New()

	repo.On("GetByID", ctx, id).Return(&models.Reservation{
		ID:      id,
		BuyerID: buyerID,
		Status:  models.ReservationStatusPending,
	}, nil)
	repo.On("Cancel", ctx, id).Return(nil)

	// Чужую бронь отменить нельзя.
	err := svc.CancelReservation(ctx, id, uuid.New())
	assert.True(t, apperror.IsForbidden(err))

	err = svc.CancelReservation(ctx, id, buyerID)
	assert.NoError(t, err)
}

func TestReservationService_Cancel_Approved(t *testing.T) {
	repo := new(mockReservationRepo)
	svc := NewReservationService(repo, &stubReservationSettings{ttl: 15 * time.Minute, limit: 2})
	ctx := context.Background()

	buyerID := uuid.New()
	id := uuid.New()

	repo.On("GetByID", ctx, id).Return(&models.Reservation{
		ID:      id,
		BuyerID: buyerID,
		Status:  models.ReservationStatusApproved,
	}, nil)

	err := svc.CancelReservation(ctx, id, buyerID)
	assert.True(t, apperror.IsInvalidState(err))
	repo.AssertNotCalled(t, "Cancel")
}
