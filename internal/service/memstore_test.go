package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/example/order-service/internal/models"
)

// memStore is an in-memory OrderStore with the same version and upsert
// semantics as the SQL repository. Error fields inject failures: upsertErr is
// returned once and then cleared, with onUpsertErr running after it fires so
// tests can simulate a concurrent writer winning a race.
type memStore struct {
	mu          sync.Mutex
	orders      map[string]models.Order // keyed by id
	findErr     error
	saveErr     error
	upsertErr   error
	onUpsertErr func()
}

func newMemStore() *memStore {
	return &memStore{orders: make(map[string]models.Order)}
}

func (s *memStore) put(order models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = order
}

func (s *memStore) get(id string) (models.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	return order, ok
}

func (s *memStore) countByExternalID(externalID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, order := range s.orders {
		if order.ExternalID == externalID {
			n++
		}
	}
	return n
}

func (s *memStore) FindByID(_ context.Context, id string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	if order, ok := s.orders[id]; ok {
		return &order, nil
	}
	return nil, nil
}

func (s *memStore) FindByExternalID(_ context.Context, externalID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	if order, ok := s.findByExternalIDLocked(externalID); ok {
		return &order, nil
	}
	return nil, nil
}

func (s *memStore) FindByStatus(_ context.Context, status models.OrderStatus, page, size int) ([]models.Order, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, 0, s.findErr
	}

	var matches []models.Order
	for _, order := range s.orders {
		if order.Status == status {
			matches = append(matches, order)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].UpdatedAt.After(matches[j].UpdatedAt)
	})

	total := int64(len(matches))
	start := (page - 1) * size
	if start >= len(matches) {
		return []models.Order{}, total, nil
	}
	end := start + size
	if end > len(matches) {
		end = len(matches)
	}
	return matches[start:end], total, nil
}

func (s *memStore) Save(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.saveLocked(order)
}

func (s *memStore) UpsertByExternalID(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	if s.upsertErr != nil {
		err := s.upsertErr
		s.upsertErr = nil
		hook := s.onUpsertErr
		s.mu.Unlock()
		if hook != nil {
			hook()
		}
		return err
	}
	defer s.mu.Unlock()

	if existing, ok := s.findByExternalIDLocked(order.ExternalID); ok {
		order.ID = existing.ID
		order.Version = existing.Version
		return s.saveLocked(order)
	}
	order.Version = 1
	s.orders[order.ID] = *order
	return nil
}

func (s *memStore) findByExternalIDLocked(externalID string) (models.Order, bool) {
	for _, order := range s.orders {
		if order.ExternalID == externalID {
			return order, true
		}
	}
	return models.Order{}, false
}

func (s *memStore) saveLocked(order *models.Order) error {
	stored, ok := s.orders[order.ID]
	if !ok {
		return fmt.Errorf("save order %s: %w", order.ID, ErrOrderNotFound)
	}
	if stored.Version != order.Version {
		return &VersionConflictError{OrderID: order.ID, Expected: order.Version, Actual: stored.Version}
	}
	order.Version++
	s.orders[order.ID] = *order
	return nil
}

var _ OrderStore = (*memStore)(nil)
