// Package flow хранит черновики многошаговых операций: создание объявления,
// открытие спора, оставление оценки. Черновик накапливается по шагам и
// живёт ограниченное время.
package flow

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Имена потоков.
const (
	FlowCreateListing = "create_listing"
	FlowOpenDispute   = "open_dispute"
	FlowRateDeal      = "rate_deal"
)

// DefaultTTL - время жизни незавершённого черновика.
const DefaultTTL = 30 * time.Minute

// Draft - черновик одной многошаговой операции.
type Draft struct {
	Flow      string            `json:"flow"`
	Step      string            `json:"step"`
	Fields    map[string]string `json:"fields"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Store - потокобезопасное хранилище черновиков, по одному на пользователя.
// Начало нового потока затирает прежний черновик.
type Store struct {
	mu     sync.Mutex
	ttl    time.Duration
	drafts map[uuid.UUID]*Draft
}

// NewStore создаёт хранилище с заданным TTL черновиков.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{ttl: ttl, drafts: make(map[uuid.UUID]*Draft)}
}

// Begin начинает новый поток для пользователя.
func (s *Store) Begin(userID uuid.UUID, flow, step string) *Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := &Draft{
		Flow:      flow,
		Step:      step,
		Fields:    make(map[string]string),
		UpdatedAt: time.Now(),
	}
	s.drafts[userID] = draft
	return draft
}

// Get возвращает активный черновик пользователя или nil, если черновика нет
// либо он истёк.
func (s *Store) Get(userID uuid.UUID) *Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft, ok := s.drafts[userID]
	if !ok {
		return nil
	}
	if time.Since(draft.UpdatedAt) > s.ttl {
		delete(s.drafts, userID)
		return nil
	}
	return draft
}

// Advance сохраняет значение текущего шага и переводит черновик на следующий.
// Возвращает false, если активного черновика нет.
func (s *Store) Advance(userID uuid.UUID, field, value, nextStep string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft, ok := s.drafts[userID]
	if !ok || time.Since(draft.UpdatedAt) > s.ttl {
		delete(s.drafts, userID)
		return false
	}
	draft.Fields[field] = value
	draft.Step = nextStep
	draft.UpdatedAt = time.Now()
	return true
}

// Finish завершает поток и возвращает накопленные поля.
func (s *Store) Finish(userID uuid.UUID) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft, ok := s.drafts[userID]
	if !ok {
		return nil
	}
	delete(s.drafts, userID)
	if time.Since(draft.UpdatedAt) > s.ttl {
		return nil
	}
	return draft.Fields
}

// Abort сбрасывает черновик пользователя.
func (s *Store) Abort(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, userID)
}

// Prune удаляет истёкшие черновики и возвращает их количество.
func (s *Store) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int
	for id, draft := range s.drafts {
		if time.Since(draft.UpdatedAt) > s.ttl {
			delete(s.drafts, id)
			removed++
		}
	}
	return removed
}
