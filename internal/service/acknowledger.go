package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/order-service/internal/models"
)

// Acknowledger moves an order from AVAILABLE_FOR_ACK to ACKNOWLEDGED under the
// caller's optimistic-lock precondition.
type Acknowledger struct {
	store    OrderStore
	notifier StatusNotifier
	log      *zap.SugaredLogger
}

// NewAcknowledger creates an acknowledger. notifier may be nil.
func NewAcknowledger(store OrderStore, notifier StatusNotifier, log *zap.SugaredLogger) *Acknowledger {
	return &Acknowledger{store: store, notifier: notifier, log: log}
}

// AcknowledgeOrder acknowledges one order. expectedVersion is the caller's
// last-known version; a mismatch fails with *VersionConflictError and the
// caller must refetch and resubmit. There are no internal retries.
func (a *Acknowledger) AcknowledgeOrder(ctx context.Context, orderID string, expectedVersion int64) (models.Order, error) {
	a.log.Infow("acknowledging order", "order_id", orderID, "expected_version", expectedVersion)

	order, err := a.store.FindByID(ctx, orderID)
	if err != nil {
		return models.Order{}, fmt.Errorf("find order %s: %w", orderID, err)
	}
	if order == nil {
		return models.Order{}, fmt.Errorf("acknowledge order %s: %w", orderID, ErrOrderNotFound)
	}
	if order.Status != models.StatusAvailableForAck {
		return models.Order{}, &InvalidStatusError{OrderID: orderID, Status: order.Status}
	}
	if order.Version != expectedVersion {
		return models.Order{}, &VersionConflictError{OrderID: orderID, Expected: expectedVersion, Actual: order.Version}
	}

	order.Status = models.StatusAcknowledged
	order.UpdatedAt = time.Now().UTC()
	if err := a.store.Save(ctx, order); err != nil {
		return models.Order{}, fmt.Errorf("save acknowledged order %s: %w", orderID, err)
	}

	a.log.Infow("order acknowledged", "order_id", orderID, "version", order.Version)
	if a.notifier != nil {
		a.notifier.OrderStatusChanged(ctx, *order)
	}
	return *order, nil
}
