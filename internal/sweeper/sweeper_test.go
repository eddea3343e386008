package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/mealmarket/mealmarket-backend/internal/models"
)

type stubReservationSource struct {
	expired  []models.Reservation
	expiring []models.ExpiringReservation
	err      error
}

func (s *stubReservationSource) ExpireOverdue(ctx context.Context) ([]models.Reservation, error) {
	return s.expired, s.err
}

func (s *stubReservationSource) AboutToExpire(ctx context.Context, threshold time.Duration) ([]models.ExpiringReservation, error) {
	return s.expiring, s.err
}

type stubListingSource struct {
	expired int64
	err     error
}

func (s *stubListingSource) ExpireOverdue(ctx context.Context) (int64, error) {
	return s.expired, s.err
}

type stubDraftPruner struct {
	pruned int
}

func (s *stubDraftPruner) Prune() int { return s.pruned }

type recordingNotifier struct {
	events []string
	users  []uuid.UUID
	err    error
}

func (n *recordingNotifier) NotifyUser(userID uuid.UUID, event string, data any) error {
	if n.err != nil {
		return n.err
	}
	n.events = append(n.events, event)
	n.users = append(n.users, userID)
	return nil
}

func expiringReservation(buyerID uuid.UUID) models.ExpiringReservation {
	return models.ExpiringReservation{
		Reservation: models.Reservation{
			ID:            uuid.New(),
			ListingID:     uuid.New(),
			BuyerID:       buyerID,
			ReservedUntil: time.Now().Add(3 * time.Minute),
			Status:        models.ReservationStatusPending,
		},
	}
}

func TestReservationSweep_NotifiesExpiredBuyers(t *testing.T) {
	firstBuyer := uuid.New()
	secondBuyer := uuid.New()
	reservations := &stubReservationSource{
		expired: []models.Reservation{
			{ID: uuid.New(), ListingID: uuid.New(), BuyerID: firstBuyer, Status: models.ReservationStatusExpired},
			{ID: uuid.New(), ListingID: uuid.New(), BuyerID: secondBuyer, Status: models.ReservationStatusExpired},
		},
	}
	notifier := &recordingNotifier{}
	s := New(reservations, &stubListingSource{}, notifier, &stubDraftPruner{})

	s.RunReservationSweep(context.Background())

	assert.Equal(t, []string{"reservation.expired", "reservation.expired"}, notifier.events)
	assert.Equal(t, []uuid.UUID{firstBuyer, secondBuyer}, notifier.users)
}

func TestWarningSweep_NotifiesOnce(t *testing.T) {
	buyerID := uuid.New()
	reservations := &stubReservationSource{
		expiring: []models.ExpiringReservation{expiringReservation(buyerID)},
	}
	notifier := &recordingNotifier{}
	s := New(reservations, &stubListingSource{}, notifier, &stubDraftPruner{})

	ctx := context.Background()
	s.RunWarningSweep(ctx)
	s.RunWarningSweep(ctx)

	// Повторный проход по той же брони не шлёт второе предупреждение.
	assert.Len(t, notifier.events, 1)
	assert.Equal(t, []uuid.UUID{buyerID}, notifier.users)
}

func TestWarningSweep_RetriesAfterNotifyError(t *testing.T) {
	buyerID := uuid.New()
	reservations := &stubReservationSource{
		expiring: []models.ExpiringReservation{expiringReservation(buyerID)},
	}
	notifier := &recordingNotifier{err: errors.New("клиент не подключён")}
	s := New(reservations, &stubListingSource{}, notifier, &stubDraftPruner{})

	ctx := context.Background()
	s.RunWarningSweep(ctx)
	assert.Empty(t, notifier.events)

	// После неудачной доставки бронь не помечена, следующий проход повторяет попытку.
	notifier.err = nil
	s.RunWarningSweep(ctx)
	assert.Len(t, notifier.events, 1)
}

func TestWarningSweep_DistinctReservations(t *testing.T) {
	first := expiringReservation(uuid.New())
	second := expiringReservation(uuid.New())
	reservations := &stubReservationSource{
		expiring: []models.ExpiringReservation{first, second},
	}
	notifier := &recordingNotifier{}
	s := New(reservations, &stubListingSource{}, notifier, &stubDraftPruner{})

	s.RunWarningSweep(context.Background())
	assert.Len(t, notifier.events, 2)
}

func TestSweeps_SourceErrorsDoNotPanic(t *testing.T) {
	srcErr := errors.New("база недоступна")
	s := New(
		&stubReservationSource{err: srcErr},
		&stubListingSource{err: srcErr},
		&recordingNotifier{},
		&stubDraftPruner{pruned: 3},
	)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		s.RunReservationSweep(ctx)
		s.RunListingSweep(ctx)
		s.RunWarningSweep(ctx)
		s.RunDraftSweep(ctx)
	})
}
