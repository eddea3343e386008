package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mealmarket/mealmarket-backend/internal/codevault"
	"github.com/mealmarket/mealmarket-backend/internal/models"
	"github.com/mealmarket/mealmarket-backend/internal/pkg/apperror"
	"github.com/mealmarket/mealmarket-backend/internal/repository"
)

type mockListingRepo struct {
	mock.Mock
}

func (m *mockListingRepo) CreateWithQuota(ctx context.Context, listing *models.Listing, maxActive int) error {
	args := m.Called(ctx, listing, maxActive)
	if args.Error(0) == nil {
		listing.ID = uuid.New()
		listing.Status = models.ListingStatusActive
	}
	return args.Error(0)
}

func (m *mockListingRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *mockListingRepo) ListActive(ctx context.Context, mealFilters []string, limit, offset int) ([]models.Listing, error) {
	args := m.Called(ctx, mealFilters, limit, offset)
	return args.Get(0).([]models.Listing), args.Error(1)
}

func (m *mockListingRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]models.Listing, error) {
	args := m.Called(ctx, sellerID, limit, offset)
	return args.Get(0).([]models.Listing), args.Error(1)
}

func (m *mockListingRepo) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockListingRepo) ExpireOverdue(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// stubListingSettings отдаёт фиксированные значения настроек.
type stubListingSettings struct {
	limit int
}

func (s *stubListingSettings) DailyListingLimit(ctx context.Context) int { return s.limit }

func newTestVault(t *testing.T) *codevault.Vault {
	t.Helper()
	vault, err := codevault.New(nil)
	require.NoError(t, err)
	return vault
}

func TestMaskCode(t *testing.T) {
	assert.Equal(t, "AB***34", MaskCode("AB12CD34"))
	assert.Equal(t, "12***34", MaskCode("1234"))
	assert.Equal(t, "****", MaskCode("123"))
	assert.Equal(t, "****", MaskCode(""))
}

func TestListingService_CreateListing_Success(t *testing.T) {
	repo := new(mockListingRepo)
	vault := newTestVault(t)
	svc := NewListingService(repo, vault, &stubListingSettings{limit: 5})
	ctx := context.Background()

	repo.On("CreateWithQuota", ctx, mock.AnythingOfType("*models.Listing"), 5).Return(nil)

	tomorrow := time.Now().UTC().Add(24 * time.Hour)
	listing, err := svc.CreateListing(ctx, CreateListingInput{
		SellerID: uuid.New(),
		Date:     time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, time.UTC),
		MealType: models.MealTypeLunch,
		DishName: "Борщ с пампушками",
		Code:     "AB12CD34",
		Price:    150,
	})

	require.NoError(t, err)
	assert.Equal(t, "AB***34", listing.MaskedCode)
	assert.NotEmpty(t, listing.FullCodeEnc)
	require.NotNil(t, listing.ExpiresAt)

	// Код восстановим из шифртекста, в открытом виде он нигде не хранится.
	code, err := vault.Decrypt(listing.FullCodeEnc)
	require.NoError(t, err)
	assert.Equal(t, "AB12CD34", code)
}

func TestListingService_CreateListing_Validation(t *testing.T) {
	repo := new(mockListingRepo)
	svc := NewListingService(repo, newTestVault(t), &stubListingSettings{limit: 5})
	ctx := context.Background()

	tomorrow := time.Now().UTC().Add(24 * time.Hour)
	base := CreateListingInput{
		SellerID: uuid.New(),
		Date:     time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, time.UTC),
		MealType: models.MealTypeLunch,
		DishName: "Суп",
		Code:     "AB12CD34",
		Price:    100,
	}

	bad := base
	bad.MealType = "breakfast"
	_, err := svc.CreateListing(ctx, bad)
	assert.True(t, apperror.IsValidation(err))

	bad = base
	bad.DishName = "Су"
	_, err = svc.CreateListing(ctx, bad)
	assert.True(t, apperror.IsValidation(err))

	bad = base
	bad.Code = "12345"
	_, err = svc.CreateListing(ctx, bad)
	assert.True(t, apperror.IsValidation(err))

	bad = base
	bad.Price = 0
	_, err = svc.CreateListing(ctx, bad)
	assert.True(t, apperror.IsValidation(err))

	bad = base
	bad.Price = -1
	_, err = svc.CreateListing(ctx, bad)
	assert.True(t, apperror.IsValidation(err))

	bad = base
	bad.Date = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.CreateListing(ctx, bad)
	assert.True(t, apperror.IsValidation(err))

	repo.AssertNotCalled(t, "CreateWithQuota")
}

func TestListingService_CreateListing_QuotaExceeded(t *testing.T) {
	repo := new(mockListingRepo)
	svc := NewListingService(repo, newTestVault(t), &stubListingSettings{limit: 2})
	ctx := context.Background()

	repo.On("CreateWithQuota", ctx, mock.AnythingOfType("*models.Listing"), 2).
		Return(repository.ErrListingLimitReached)

	tomorrow := time.Now().UTC().Add(24 * time.Hour)
	_, err := svc.CreateListing(ctx, CreateListingInput{
		SellerID: uuid.New(),
		Date:     time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, time.UTC),
		MealType: models.MealTypeDinner,
		DishName: "Плов",
		Code:     "XY99ZZ11",
		Price:    200,
	})

	require.Error(t, err)
	assert.True(t, apperror.IsQuotaExceeded(err))

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 2, appErr.Limit)
}

func TestListingService_RevealCode_Corrupted(t *testing.T) {
	repo := new(mockListingRepo)
	svc := NewListingService(repo, newTestVault(t), &stubListingSettings{limit: 5})
	ctx := context.Background()

	id := uuid.New()
	repo.On("GetByID", ctx, id).Return(&models.Listing{
		ID:          id,
		FullCodeEnc: []byte("мусор"),
	}, nil)

	_, err := svc.RevealCode(ctx, id)
	require.Error(t, err)
	assert.True(t, apperror.IsDecryption(err))
}

func TestListingService_CancelListing(t *testing.T) {
	repo := new(mockListingRepo)
	svc := NewListingService(repo, newTestVault(t), &stubListingSettings{limit: 5})
	ctx := context.Background()

	sellerID := uuid.New()
	id := uuid.New()

	repo.On("GetByID", ctx, id).Return(&models.Listing{
		ID:       id,
		SellerID: sellerID,
		Status:   models.ListingStatusActive,
	}, nil)
	repo.On("SetStatus", ctx, id, models.ListingStatusCancelled).Return(nil)

	// Чужое объявление снять нельзя.
	err := svc.CancelListing(ctx, id, uuid.New())
	assert.True(t, apperror.IsForbidden(err))

	// Владелец снимает успешно.
	err = svc.CancelListing(ctx, id, sellerID)
	assert.NoError(t, err)
	repo.AssertCalled(t, "SetStatus", ctx, id, models.ListingStatusCancelled)
}
