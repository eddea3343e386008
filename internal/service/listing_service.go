package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mealmarket/mealmarket-backend/internal/codevault"
	"github.com/mealmarket/mealmarket-backend/internal/models"
	"github.com/mealmarket/mealmarket-backend/internal/pkg/apperror"
	"github.com/mealmarket/mealmarket-backend/internal/repository"
	"github.com/mealmarket/mealmarket-backend/internal/validation"
)

type ListingRepository interface {
	CreateWithQuota(ctx context.Context, listing *models.Listing, maxActive int) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	ListActive(ctx context.Context, mealFilters []string, limit, offset int) ([]models.Listing, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]models.Listing, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	ExpireOverdue(ctx context.Context) (int64, error)
}

type CodeCipher interface {
	Encrypt(code string) ([]byte, error)
	Decrypt(token []byte) (string, error)
}

type ListingSettings interface {
	DailyListingLimit(ctx context.Context) int
}

type CreateListingInput struct {
	SellerID  uuid.UUID
	Date      time.Time
	MealType  string
	DishName  string
	Code      string
	Price     int
	ExpiresAt *time.Time
}

type ListingService struct {
	repo     ListingRepository
	cipher   CodeCipher
	settings ListingSettings
}

func NewListingService(repo ListingRepository, cipher CodeCipher, settings ListingSettings) *ListingService {
	return &ListingService{repo: repo, cipher: cipher, settings: settings}
}

// MaskCode маскирует код питания: первые два и последние два символа видны,
// середина скрыта. Слишком короткий код скрывается целиком.
func MaskCode(code string) string {
	runes := []rune(code)
	if len(runes) < 4 {
		return "****"
	}
	return string(runes[:2]) + "***" + string(runes[len(runes)-2:])
}

// CreateListing проверяет ввод, шифрует код и создаёт объявление.
// Лимит активных объявлений продавца проверяется атомарно в хранилище.
func (s *ListingService) CreateListing(ctx context.Context, input CreateListingInput) (*models.Listing, error) {
	input.DishName = strings.TrimSpace(input.DishName)
	input.Code = strings.TrimSpace(input.Code)

	if !models.IsValidMealType(input.MealType) {
		return nil, apperror.New(apperror.ErrCodeValidation, "недопустимый тип приёма пищи")
	}
	if err := validation.ValidateDishName(input.DishName); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateMealCode(input.Code); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePrice(input.Price); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateListingDate(input.Date, time.Now().UTC()); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	encrypted, err := s.cipher.Encrypt(input.Code)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось зашифровать код")
	}

	expiresAt := input.ExpiresAt
	if expiresAt == nil {
		// По умолчанию объявление живёт до конца дня, на который назначен код.
		end := time.Date(input.Date.Year(), input.Date.Month(), input.Date.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
		expiresAt = &end
	}

	listing := &models.Listing{
		SellerID:    input.SellerID,
		Date:        input.Date,
		MealType:    input.MealType,
		DishName:    input.DishName,
		MaskedCode:  MaskCode(input.Code),
		FullCodeEnc: encrypted,
		Price:       input.Price,
		ExpiresAt:   expiresAt,
	}

	limit := s.settings.DailyListingLimit(ctx)
	if err := s.repo.CreateWithQuota(ctx, listing, limit); err != nil {
		switch {
		case errors.Is(err, repository.ErrListingLimitReached):
			return nil, apperror.QuotaExceeded(limit, "достигнут лимит активных объявлений")
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, apperror.ErrUserNotFound
		default:
			return nil, err
		}
	}

	logrus.WithFields(logrus.Fields{
		"listing_id": listing.ID,
		"seller_id":  listing.SellerID,
		"meal_type":  listing.MealType,
	}).Info("Объявление создано")
	return listing, nil
}

// GetListing возвращает объявление по ID.
func (s *ListingService) GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return nil, apperror.ErrListingNotFound
		}
		return nil, err
	}
	return listing, nil
}

// BrowseListings возвращает витрину: активные объявления с опциональным
// фильтром по типу приёма пищи.
func (s *ListingService) BrowseListings(ctx context.Context, mealFilters []string, limit, offset int) ([]models.Listing, error) {
	for _, f := range mealFilters {
		if !models.IsValidMealType(f) {
			return nil, apperror.New(apperror.ErrCodeValidation, "недопустимый тип приёма пищи в фильтре")
		}
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListActive(ctx, mealFilters, limit, offset)
}

// MyListings возвращает объявления продавца.
func (s *ListingService) MyListings(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]models.Listing, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListBySeller(ctx, sellerID, limit, offset)
}

// CancelListing снимает активное объявление с витрины. Доступно только
// владельцу и только пока объявление не зарезервировано.
func (s *ListingService) CancelListing(ctx context.Context, id, sellerID uuid.UUID) error {
	listing, err := s.GetListing(ctx, id)
	if err != nil {
		return err
	}
	if listing.SellerID != sellerID {
		return apperror.ErrForbidden
	}
	if listing.Status != models.ListingStatusActive {
		return apperror.New(apperror.ErrCodeInvalidState, "снять можно только активное объявление")
	}
	return s.repo.SetStatus(ctx, id, models.ListingStatusCancelled)
}

// RevealCode расшифровывает полный код объявления. Вызывается только после
// одобрения оплаты; контроль доступа - ответственность вызывающего слоя.
func (s *ListingService) RevealCode(ctx context.Context, id uuid.UUID) (string, error) {
	listing, err := s.GetListing(ctx, id)
	if err != nil {
		return "", err
	}
	code, err := s.cipher.Decrypt(listing.FullCodeEnc)
	if err != nil {
		if errors.Is(err, codevault.ErrInvalidCiphertext) {
			logrus.WithField("listing_id", id).Error("Не удалось расшифровать код объявления")
			return "", apperror.Wrap(err, apperror.ErrCodeDecryption, "код объявления нечитаем")
		}
		return "", err
	}
	return code, nil
}

// ExpireOverdue переводит просроченные объявления в expired.
func (s *ListingService) ExpireOverdue(ctx context.Context) (int64, error) {
	return s.repo.ExpireOverdue(ctx)
}
