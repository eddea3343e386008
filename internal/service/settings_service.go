package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/mealmarket/mealmarket-backend/internal/config"
	"github.com/mealmarket/mealmarket-backend/internal/pkg/apperror"
)

// Ключи рантайм-настроек.
const (
	SettingReserveTTLMinutes       = "reserve_ttl_minutes"
	SettingDailyListingLimit       = "daily_listing_limit"
	SettingReservationLimitPerUser = "reservation_limit_per_user"
	SettingRegistrationEnabled     = "registration_enabled"
)

type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) (map[string]string, error)
}

// SettingsService отдаёт рантайм-настройки площадки. Значение берётся из
// app_settings; если админ его ещё не задавал, действует дефолт из конфига.
type SettingsService struct {
	repo SettingsRepository
	cfg  *config.Config
}

func NewSettingsService(repo SettingsRepository, cfg *config.Config) *SettingsService {
	return &SettingsService{repo: repo, cfg: cfg}
}

// ReserveTTL возвращает срок жизни брони.
func (s *SettingsService) ReserveTTL(ctx context.Context) time.Duration {
	minutes := s.intSetting(ctx, SettingReserveTTLMinutes, s.cfg.ReserveTTLMinutes)
	return time.Duration(minutes) * time.Minute
}

// DailyListingLimit возвращает лимит активных объявлений продавца.
func (s *SettingsService) DailyListingLimit(ctx context.Context) int {
	return s.intSetting(ctx, SettingDailyListingLimit, s.cfg.DailyListingLimit)
}

// ReservationLimitPerUser возвращает лимит открытых броней покупателя.
func (s *SettingsService) ReservationLimitPerUser(ctx context.Context) int {
	return s.intSetting(ctx, SettingReservationLimitPerUser, s.cfg.ReservationLimitPerUser)
}

// RegistrationEnabled сообщает, открыта ли регистрация новых пользователей.
func (s *SettingsService) RegistrationEnabled(ctx context.Context) bool {
	raw, err := s.repo.Get(ctx, SettingRegistrationEnabled)
	if err != nil {
		return s.cfg.RegistrationEnabled
	}
	return raw == "true"
}

// All возвращает действующие значения всех настроек вместе с дефолтами.
func (s *SettingsService) All(ctx context.Context) (map[string]string, error) {
	stored, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}

	out := map[string]string{
		SettingReserveTTLMinutes:       strconv.Itoa(s.cfg.ReserveTTLMinutes),
		SettingDailyListingLimit:       strconv.Itoa(s.cfg.DailyListingLimit),
		SettingReservationLimitPerUser: strconv.Itoa(s.cfg.ReservationLimitPerUser),
		SettingRegistrationEnabled:     strconv.FormatBool(s.cfg.RegistrationEnabled),
	}
	for key, value := range stored {
		out[key] = value
	}
	return out, nil
}

// Set сохраняет настройку. Ключи ограничены известным набором, значения
// проверяются по типу ключа.
func (s *SettingsService) Set(ctx context.Context, key, value string) error {
	switch key {
	case SettingReserveTTLMinutes, SettingDailyListingLimit, SettingReservationLimitPerUser:
		num, err := strconv.Atoi(value)
		if err != nil || num < 1 {
			return apperror.New(apperror.ErrCodeValidation,
				fmt.Sprintf("настройка %s должна быть положительным числом", key))
		}
	case SettingRegistrationEnabled:
		if value != "true" && value != "false" {
			return apperror.New(apperror.ErrCodeValidation,
				fmt.Sprintf("настройка %s принимает только true или false", key))
		}
	default:
		return apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("неизвестная настройка: %s", key))
	}
	return s.repo.Set(ctx, key, value)
}

func (s *SettingsService) intSetting(ctx context.Context, key string, fallback int) int {
	raw, err := s.repo.Get(ctx, key)
	if err != nil {
		return fallback
	}
	num, err := strconv.Atoi(raw)
	if err != nil || num < 1 {
		return fallback
	}
	return num
}
