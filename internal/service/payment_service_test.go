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

type mockPaymentRepo struct {
	mock.Mock
}

func (m *mockPaymentRepo) Submit(ctx context.Context, reservationID uuid.UUID, method, proofFileID string) (*models.Payment, error) {
	args := m.Called(ctx, reservationID, method, proofFileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *mockPaymentRepo) ListPending(ctx context.Context) ([]models.PendingPayment, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.PendingPayment), args.Error(1)
}

func (m *mockPaymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *mockPaymentRepo) GetByReservation(ctx context.Context, reservationID uuid.UUID) (*models.Payment, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *mockPaymentRepo) Approve(ctx context.Context, paymentID, adminID uuid.UUID) (*models.Payment, error) {
	args := m.Called(ctx, paymentID, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *mockPaymentRepo) Reject(ctx context.Context, paymentID, adminID uuid.UUID) (*models.Payment, error) {
	args := m.Called(ctx, paymentID, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

type mockReservationGetter struct {
	mock.Mock
}

func (m *mockReservationGetter) GetByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func TestPaymentService_Submit_Success(t *testing.T) {
	repo := new(mockPaymentRepo)
	reservations := new(mockReservationGetter)
	svc := NewPaymentService(repo, reservations)
	ctx := context.Background()

	reservationID := uuid.New()
	buyerID := uuid.New()

	reservations.On("GetByID", ctx, reservationID).Return(&models.Reservation{
		ID:      reservationID,
		BuyerID: buyerID,
		Status:  models.ReservationStatusPending,
	}, nil)
	repo.On("Submit", ctx, reservationID, "card", "proofs/abc.jpg").Return(&models.Payment{
		ID:            uuid.New(),
		ReservationID: reservationID,
		Status:        models.PaymentStatusPending,
	}, nil)

	payment, err := svc.SubmitPayment(ctx, reservationID, buyerID, "card", "proofs/abc.jpg")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
}

func TestPaymentService_Submit_ForeignReservation(t *testing.T) {
	repo := new(mockPaymentRepo)
	reservations := new(mockReservationGetter)
	svc := NewPaymentService(repo, reservations)
	ctx := context.Background()

	reservationID := uuid.New()
	reservations.On("GetByID", ctx, reservationID).Return(&models.Reservation{
		ID:      reservationID,
		BuyerID: uuid.New(),
		Status:  models.ReservationStatusPending,
	}, nil)

	_, err := svc.SubmitPayment(ctx, reservationID, uuid.New(), "card", "proofs/abc.jpg")
	assert.True(t, apperror.IsForbidden(err))
	repo.AssertNotCalled(t, "Submit")
}

func TestPaymentService_Submit_EmptyFields(t *testing.T) {
	repo := new(mockPaymentRepo)
	reservations := new(mockReservationGetter)
	svc := NewPaymentService(repo, reservations)
	ctx := context.Background()

	_, err := svc.SubmitPayment(ctx, uuid.New(), uuid.New(), "", "proofs/abc.jpg")
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.SubmitPayment(ctx, uuid.New(), uuid.New(), "card", "")
	assert.True(t, apperror.IsValidation(err))
}

func TestPaymentService_Submit_NotPayable(t *testing.T) {
	repo := new(mockPaymentRepo)
	reservations := new(mockReservationGetter)
	svc := NewPaymentService(repo, reservations)
	ctx := context.Background()

	reservationID := uuid.New()
	buyerID := uuid.New()

	reservations.On("GetByID", ctx, reservationID).Return(&models.Reservation{
		ID:      reservationID,
		BuyerID: buyerID,
		Status:  models.ReservationStatusExpired,
	}, nil)
	repo.On("Submit", ctx, reservationID, "card", "proofs/abc.jpg").
		Return(nil, repository.ErrReservationNotPayable)

	_, err := svc.SubmitPayment(ctx, reservationID, buyerID, "card", "proofs/abc.jpg")
	assert.True(t, apperror.IsInvalidState(err))
}

func TestPaymentService_Review(t *testing.T) {
	repo := new(mockPaymentRepo)
	reservations := new(mockReservationGetter)
	svc := NewPaymentService(repo, reservations)
	ctx := context.Background()

	paymentID := uuid.New()
	adminID := uuid.New()

	repo.On("Approve", ctx, paymentID, adminID).Return(&models.Payment{
		ID:     paymentID,
		Status: models.PaymentStatusApproved,
	}, nil)

	payment, err := svc.ApprovePayment(ctx, paymentID, adminID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusApproved, payment.Status)

	// Повторное рассмотрение терминального платежа отклоняется.
	otherID := uuid.New()
	repo.On("Reject", ctx, otherID, adminID).Return(nil, repository.ErrPaymentAlreadyReviewed)

	_, err = svc.RejectPayment(ctx, otherID, adminID)
	assert.True(t, apperror.IsInvalidState(err))
}
