package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/order-service/internal/models"
)

// Query is the read-only side: listing and single lookups, no mutation.
type Query struct {
	store OrderStore
	log   *zap.SugaredLogger
}

func NewQuery(store OrderStore, log *zap.SugaredLogger) *Query {
	return &Query{store: store, log: log}
}

// ListByStatus returns one page of orders in the given status, most recently
// updated first, plus the total match count.
func (q *Query) ListByStatus(ctx context.Context, status models.OrderStatus, page, size int) ([]models.Order, int64, error) {
	orders, total, err := q.store.FindByStatus(ctx, status, page, size)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders by status %s: %w", status, err)
	}
	q.log.Debugw("listed orders", "status", status, "page", page, "size", size, "total", total)
	return orders, total, nil
}

func (q *Query) GetByID(ctx context.Context, id string) (models.Order, error) {
	order, err := q.store.FindByID(ctx, id)
	if err != nil {
		return models.Order{}, fmt.Errorf("find order %s: %w", id, err)
	}
	if order == nil {
		return models.Order{}, fmt.Errorf("order %s: %w", id, ErrOrderNotFound)
	}
	return *order, nil
}

func (q *Query) GetByExternalID(ctx context.Context, externalID string) (models.Order, error) {
	order, err := q.store.FindByExternalID(ctx, externalID)
	if err != nil {
		return models.Order{}, fmt.Errorf("find order by external id %s: %w", externalID, err)
	}
	if order == nil {
		return models.Order{}, fmt.Errorf("order with external id %s: %w", externalID, ErrOrderNotFound)
	}
	return *order, nil
}
