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
	"github.com/mealmarket/mealmarket-backend/internal/repository/common"
	"github.com/mealmarket/mealmarket-backend/internal/validation"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByTelegramID(ctx context.Context, tgID int64) (*models.User, error)
	SetBanned(ctx context.Context, id uuid.UUID, banned bool) error
}

type UserSettings interface {
	RegistrationEnabled(ctx context.Context) bool
}

type UserService struct {
	repo     UserRepository
	settings UserSettings
	adminIDs map[int64]struct{}
}

func NewUserService(repo UserRepository, settings UserSettings, adminTelegramIDs []int64) *UserService {
	admins := make(map[int64]struct{}, len(adminTelegramIDs))
	for _, id := range adminTelegramIDs {
		admins[id] = struct{}{}
	}
	return &UserService{repo: repo, settings: settings, adminIDs: admins}
}

// EnsureUser возвращает пользователя по внешнему идентификатору, при первом
// обращении регистрируя его. Если регистрация закрыта, новые пользователи
// не создаются.
func (s *UserService) EnsureUser(ctx context.Context, tgID int64, name, uni string) (*models.User, error) {
	user, err := s.repo.GetByTelegramID(ctx, tgID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	if !s.settings.RegistrationEnabled(ctx) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "регистрация временно закрыта")
	}

	name = strings.TrimSpace(name)
	if err := validation.ValidateUserName(name); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateUni(uni); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	user = &models.User{
		TelegramID: tgID,
		Name:       name,
		Uni:        strings.TrimSpace(uni),
		IsAdmin:    s.IsAdminTelegramID(tgID),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		// Параллельная регистрация того же пользователя: читаем созданного.
		if errors.Is(err, common.ErrAlreadyExists) {
			return s.repo.GetByTelegramID(ctx, tgID)
		}
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"tg_id":   tgID,
	}).Info("Зарегистрирован новый пользователь")
	return user, nil
}

// GetUser возвращает пользователя по ID.
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// IsAdminTelegramID проверяет, входит ли внешний идентификатор в список
// администраторов.
func (s *UserService) IsAdminTelegramID(tgID int64) bool {
	_, ok := s.adminIDs[tgID]
	return ok
}

// BanUser блокирует пользователя.
func (s *UserService) BanUser(ctx context.Context, id uuid.UUID) error {
	return s.setBanned(ctx, id, true)
}

// UnbanUser снимает блокировку.
func (s *UserService) UnbanUser(ctx context.Context, id uuid.UUID) error {
	return s.setBanned(ctx, id, false)
}

func (s *UserService) setBanned(ctx context.Context, id uuid.UUID, banned bool) error {
	if err := s.repo.SetBanned(ctx, id, banned); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperror.ErrUserNotFound
		}
		return err
	}
	logrus.WithFields(logrus.Fields{
		"user_id": id,
		"banned":  banned,
	}).Warn("Изменён статус блокировки пользователя")
	return nil
}
