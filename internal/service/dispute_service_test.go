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

type mockDisputeRepo struct {
	mock.Mock
}

func (m *mockDisputeRepo) Create(ctx context.Context, d *models.Dispute) error {
	args := m.Called(ctx, d)
	if args.Error(0) == nil {
		d.ID = uuid.New()
		d.Status = models.DisputeStatusOpen
	}
	return args.Error(0)
}

func (m *mockDisputeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) ListOpen(ctx context.Context) ([]models.Dispute, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) SetStatus(ctx context.Context, id uuid.UUID, status string, adminNotes *string) error {
	args := m.Called(ctx, id, status, adminNotes)
	return args.Error(0)
}

// disputeFixture готовит спор по брони: идентификатор не совпадает ни с одним
// объявлением, бронь оплачена, но продавцом ещё не подтверждена.
func disputeFixture(t *testing.T) (context.Context, *DisputeService, *mockDisputeRepo, *mockReservationForRating, uuid.UUID, uuid.UUID, uuid.UUID) {
	t.Helper()

	repo := new(mockDisputeRepo)
	reservations := new(mockReservationForRating)
	listings := new(mockListingForRating)
	svc := NewDisputeService(repo, reservations, listings)
	ctx := context.Background()

	reservationID := uuid.New()
	buyerID := uuid.New()
	sellerID := uuid.New()
	listingID := uuid.New()

	listings.On("GetByID", ctx, reservationID).Return(nil, repository.ErrListingNotFound)
	reservations.On("GetByID", ctx, reservationID).Return(&models.Reservation{
		ID:        reservationID,
		ListingID: listingID,
		BuyerID:   buyerID,
		Status:    models.ReservationStatusPaid,
	}, nil)
	listings.On("GetByID", ctx, listingID).Return(&models.Listing{
		ID:       listingID,
		SellerID: sellerID,
	}, nil)

	return ctx, svc, repo, reservations, reservationID, buyerID, sellerID
}

func TestDisputeService_OpenDispute_BuyerByReservation(t *testing.T) {
	ctx, svc, repo, _, reservationID, buyerID, sellerID := disputeFixture(t)

	repo.On("Create", ctx, mock.AnythingOfType("*models.Dispute")).Return(nil)

	// Оплаченная, но не подтверждённая бронь: спор открывается.
	dispute, err := svc.OpenDispute(ctx, reservationID, buyerID, "Код не сработал на кассе столовой", nil)
	require.NoError(t, err)
	assert.Equal(t, models.DisputeStatusOpen, dispute.Status)
	assert.Equal(t, buyerID, dispute.BuyerID)
	assert.Equal(t, sellerID, dispute.SellerID)
}

func TestDisputeService_OpenDispute_SellerByReservation(t *testing.T) {
	ctx, svc, repo, _, reservationID, buyerID, sellerID := disputeFixture(t)

	repo.On("Create", ctx, mock.AnythingOfType("*models.Dispute")).Return(nil)

	// Продавец тоже сторона сделки и может подать спор.
	dispute, err := svc.OpenDispute(ctx, reservationID, sellerID, "Покупатель утверждает, что не получил код", nil)
	require.NoError(t, err)
	assert.Equal(t, buyerID, dispute.BuyerID)
	assert.Equal(t, sellerID, dispute.SellerID)
}

func TestDisputeService_OpenDispute_Outsider(t *testing.T) {
	ctx, svc, repo, _, reservationID, _, _ := disputeFixture(t)

	_, err := svc.OpenDispute(ctx, reservationID, uuid.New(), "Код не сработал на кассе столовой", nil)
	assert.True(t, apperror.IsForbidden(err))
	repo.AssertNotCalled(t, "Create")
}

func TestDisputeService_OpenDispute_ByListing(t *testing.T) {
	repo := new(mockDisputeRepo)
	reservations := new(mockReservationForRating)
	listings := new(mockListingForRating)
	svc := NewDisputeService(repo, reservations, listings)
	ctx := context.Background()

	listingID := uuid.New()
	sellerID := uuid.New()
	callerID := uuid.New()

	listings.On("GetByID", ctx, listingID).Return(&models.Listing{
		ID:       listingID,
		SellerID: sellerID,
	}, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*models.Dispute")).Return(nil)

	// Спор прямо по объявлению: податель выступает покупателем.
	dispute, err := svc.OpenDispute(ctx, listingID, callerID, "Объявление выглядит поддельным", nil)
	require.NoError(t, err)
	assert.Equal(t, listingID, dispute.ListingID)
	assert.Equal(t, callerID, dispute.BuyerID)
	assert.Equal(t, sellerID, dispute.SellerID)
	reservations.AssertNotCalled(t, "GetByID")
}

func TestDisputeService_OpenDispute_ExpiredReservation(t *testing.T) {
	repo := new(mockDisputeRepo)
	reservations := new(mockReservationForRating)
	listings := new(mockListingForRating)
	svc := NewDisputeService(repo, reservations, listings)
	ctx := context.Background()

	reservationID := uuid.New()
	buyerID := uuid.New()
	listingID := uuid.New()

	listings.On("GetByID", ctx, reservationID).Return(nil, repository.ErrListingNotFound)
	reservations.On("GetByID", ctx, reservationID).Return(&models.Reservation{
		ID:        reservationID,
		ListingID: listingID,
		BuyerID:   buyerID,
		Status:    models.ReservationStatusExpired,
	}, nil)
	listings.On("GetByID", ctx, listingID).Return(&models.Listing{
		ID:       listingID,
		SellerID: uuid.New(),
	}, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*models.Dispute")).Return(nil)

	// Статус брони на подачу спора не влияет.
	_, err := svc.OpenDispute(ctx, reservationID, buyerID, "Бронь сгорела, а деньги уже переведены", nil)
	assert.NoError(t, err)
}

func TestDisputeService_OpenDispute_ShortReason(t *testing.T) {
	ctx, svc, repo, _, reservationID, buyerID, _ := disputeFixture(t)

	_, err := svc.OpenDispute(ctx, reservationID, buyerID, "врут", nil)
	assert.True(t, apperror.IsValidation(err))
	repo.AssertNotCalled(t, "Create")
}

func TestDisputeService_OpenDispute_UnknownSubject(t *testing.T) {
	repo := new(mockDisputeRepo)
	reservations := new(mockReservationForRating)
	listings := new(mockListingForRating)
	svc := NewDisputeService(repo, reservations, listings)
	ctx := context.Background()

	id := uuid.New()
	listings.On("GetByID", ctx, id).Return(nil, repository.ErrListingNotFound)
	reservations.On("GetByID", ctx, id).Return(nil, repository.ErrReservationNotFound)

	_, err := svc.OpenDispute(ctx, id, uuid.New(), "Код не сработал на кассе столовой", nil)
	assert.True(t, apperror.IsNotFound(err))
	repo.AssertNotCalled(t, "Create")
}

func TestDisputeService_ResolveDispute(t *testing.T) {
	repo := new(mockDisputeRepo)
	svc := NewDisputeService(repo, new(mockReservationForRating), new(mockListingForRating))
	ctx := context.Background()

	id := uuid.New()
	notes := "подтверждено скриншотом"

	repo.On("GetByID", ctx, id).Return(&models.Dispute{
		ID:     id,
		Status: models.DisputeStatusOpen,
	}, nil).Once()
	repo.On("SetStatus", ctx, id, models.DisputeStatusResolved, &notes).Return(nil)
	repo.On("GetByID", ctx, id).Return(&models.Dispute{
		ID:         id,
		Status:     models.DisputeStatusResolved,
		AdminNotes: &notes,
	}, nil)

	dispute, err := svc.ResolveDispute(ctx, id, models.DisputeStatusResolved, &notes)
	require.NoError(t, err)
	assert.Equal(t, models.DisputeStatusResolved, dispute.Status)
}

func TestDisputeService_ResolveDispute_BadStatus(t *testing.T) {
	repo := new(mockDisputeRepo)
	svc := NewDisputeService(repo, new(mockReservationForRating), new(mockListingForRating))
	ctx := context.Background()

	_, err := svc.ResolveDispute(ctx, uuid.New(), "open", nil)
	assert.True(t, apperror.IsInvalidState(err))
	repo.AssertNotCalled(t, "SetStatus")
}

func TestDisputeService_ResolveDispute_AlreadyClosed(t *testing.T) {
	repo := new(mockDisputeRepo)
	svc := NewDisputeService(repo, new(mockReservationForRating), new(mockListingForRating))
	ctx := context.Background()

	id := uuid.New()
	repo.On("GetByID", ctx, id).Return(&models.Dispute{
		ID:     id,
		Status: models.DisputeStatusDismissed,
	}, nil)

	_, err := svc.ResolveDispute(ctx, id, models.DisputeStatusResolved, nil)
	assert.True(t, apperror.IsInvalidState(err))
	repo.AssertNotCalled(t, "SetStatus")
}
