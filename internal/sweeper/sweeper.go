// Package sweeper содержит фоновые циклы обслуживания: снятие просроченных
// броней, снятие просроченных объявлений и предупреждения об истекающих
// бронях.
package sweeper

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mealmarket/mealmarket-backend/internal/goroutine"
	"github.com/mealmarket/mealmarket-backend/internal/models"
	"github.com/mealmarket/mealmarket-backend/internal/ws"
)

const (
	reservationSweepInterval = time.Minute
	listingSweepInterval     = 5 * time.Minute
	warningSweepInterval     = time.Minute
	draftSweepInterval       = 5 * time.Minute

	// За сколько до истечения брони покупатель получает предупреждение.
	warningThreshold = 3 * time.Minute
)

type ReservationSweepSource interface {
	ExpireOverdue(ctx context.Context) ([]models.Reservation, error)
	AboutToExpire(ctx context.Context, threshold time.Duration) ([]models.ExpiringReservation, error)
}

type ListingSweepSource interface {
	ExpireOverdue(ctx context.Context) (int64, error)
}

type Notifier interface {
	NotifyUser(userID uuid.UUID, event string, data any) error
}

type DraftPruner interface {
	Prune() int
}

// Sweeper периодически запускает обслуживающие проходы. Каждый проход
// идемпотентен: все предикаты перепроверяются на стороне хранилища, поэтому
// совпадение по времени с действиями пользователей безопасно.
type Sweeper struct {
	reservations ReservationSweepSource
	listings     ListingSweepSource
	notifier     Notifier
	drafts       DraftPruner

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	warned map[uuid.UUID]struct{}
}

func New(reservations ReservationSweepSource, listings ListingSweepSource, notifier Notifier, drafts DraftPruner) *Sweeper {
	return &Sweeper{
		reservations: reservations,
		listings:     listings,
		notifier:     notifier,
		drafts:       drafts,
		warned:       make(map[uuid.UUID]struct{}),
	}
}

// Start запускает фоновые циклы.
func (s *Sweeper) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.loop(ctx, reservationSweepInterval, s.RunReservationSweep)
	s.loop(ctx, listingSweepInterval, s.RunListingSweep)
	s.loop(ctx, warningSweepInterval, s.RunWarningSweep)
	s.loop(ctx, draftSweepInterval, s.RunDraftSweep)

	logrus.Info("Фоновые циклы обслуживания запущены")
}

// Stop останавливает циклы и дожидается завершения текущих проходов.
func (s *Sweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	logrus.Info("Фоновые циклы обслуживания остановлены")
}

func (s *Sweeper) loop(ctx context.Context, interval time.Duration, run func(context.Context)) {
	s.wg.Add(1)
	goroutine.SafeGoWithContext(ctx, func(ctx context.Context) {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				run(ctx)
			}
		}
	})
}

// RunReservationSweep снимает просроченные брони, освобождает их объявления
// и сообщает покупателям об истечении.
func (s *Sweeper) RunReservationSweep(ctx context.Context) {
	expired, err := s.reservations.ExpireOverdue(ctx)
	if err != nil {
		logrus.WithError(err).Error("Проход по просроченным броням завершился ошибкой")
		return
	}
	if len(expired) == 0 {
		return
	}

	for _, r := range expired {
		err := s.notifier.NotifyUser(r.BuyerID, ws.EventReservationExpired, map[string]any{
			"reservation_id": r.ID,
			"listing_id":     r.ListingID,
		})
		if err != nil {
			logrus.WithError(err).WithField("reservation_id", r.ID).Warn("Не удалось уведомить об истечении брони")
		}
	}
	logrus.WithField("count", len(expired)).Info("Сняты просроченные брони")
}

// RunListingSweep переводит просроченные объявления в expired.
func (s *Sweeper) RunListingSweep(ctx context.Context) {
	count, err := s.listings.ExpireOverdue(ctx)
	if err != nil {
		logrus.WithError(err).Error("Проход по просроченным объявлениям завершился ошибкой")
		return
	}
	if count > 0 {
		logrus.WithField("count", count).Info("Сняты просроченные объявления")
	}
}

// RunWarningSweep предупреждает покупателей об истекающих бронях. Каждая
// бронь предупреждается один раз.
func (s *Sweeper) RunWarningSweep(ctx context.Context) {
	expiring, err := s.reservations.AboutToExpire(ctx, warningThreshold)
	if err != nil {
		logrus.WithError(err).Error("Проход по истекающим броням завершился ошибкой")
		return
	}

	for _, r := range expiring {
		if s.alreadyWarned(r.ID) {
			continue
		}
		err := s.notifier.NotifyUser(r.BuyerID, ws.EventReservationExpiring, map[string]any{
			"reservation_id": r.ID,
			"listing_id":     r.ListingID,
			"reserved_until": r.ReservedUntil,
		})
		if err != nil {
			logrus.WithError(err).WithField("reservation_id", r.ID).Warn("Не удалось отправить предупреждение")
			continue
		}
		s.markWarned(r.ID)
	}
}

// RunDraftSweep удаляет истёкшие черновики многошаговых операций.
func (s *Sweeper) RunDraftSweep(ctx context.Context) {
	if count := s.drafts.Prune(); count > 0 {
		logrus.WithField("count", count).Debug("Удалены истёкшие черновики")
	}
}

func (s *Sweeper) alreadyWarned(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.warned[id]
	return ok
}

func (s *Sweeper) markWarned(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Множество ограничено по размеру. После сброса редкая бронь может
	// получить предупреждение повторно, это допустимо.
	if len(s.warned) > 10000 {
		s.warned = make(map[uuid.UUID]struct{})
	}
	s.warned[id] = struct{}{}
}
