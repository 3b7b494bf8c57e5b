package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/example/order-service/internal/models"
	"github.com/example/order-service/internal/pricing"
)

// Processor turns a decoded incoming order into a priced, persisted one,
// exactly once in effect per external id regardless of delivery retries.
type Processor struct {
	store    OrderStore
	notifier StatusNotifier
	log      *zap.SugaredLogger
}

// NewProcessor creates a processor. notifier may be nil.
func NewProcessor(store OrderStore, notifier StatusNotifier, log *zap.SugaredLogger) *Processor {
	return &Processor{store: store, notifier: notifier, log: log}
}

// ProcessOrder prices the order, marks it AVAILABLE_FOR_ACK and commits it via
// upsert-by-external-id. On any failure the order is marked FAILED best-effort
// and a *ProcessingError is returned so the transport can dead-letter or
// redeliver.
//
// A replay for an external id whose stored order is already ACKNOWLEDGED is a
// no-op: replacing it would regress the status back to AVAILABLE_FOR_ACK on a
// duplicate or delayed delivery.
func (p *Processor) ProcessOrder(ctx context.Context, order models.Order) (models.Order, error) {
	p.log.Infow("processing order",
		"order_id", order.ID, "external_id", order.ExternalID, "correlation_id", order.CorrelationID)

	existing, err := p.store.FindByExternalID(ctx, order.ExternalID)
	if err != nil {
		return p.fail(ctx, order, err)
	}
	if existing != nil && existing.Status == models.StatusAcknowledged {
		p.log.Infow("order already acknowledged, ignoring replay",
			"order_id", existing.ID, "external_id", existing.ExternalID)
		return *existing, nil
	}

	priced := pricing.PriceOrder(order)
	priced.Status = models.StatusAvailableForAck

	if err := p.store.UpsertByExternalID(ctx, &priced); err != nil {
		return p.fail(ctx, order, err)
	}

	p.log.Infow("order processed",
		"order_id", priced.ID, "external_id", priced.ExternalID,
		"total_amount", priced.TotalAmount, "version", priced.Version)
	if p.notifier != nil {
		p.notifier.OrderStatusChanged(ctx, priced)
	}
	return priced, nil
}

// fail records the FAILED marker best-effort and wraps the cause. The marker
// is only written when no row exists for the external id: if one does, another
// writer owns it (a replay conflict or a lost insert race) and overwriting a
// good order with FAILED would destroy the winner's state.
func (p *Processor) fail(ctx context.Context, order models.Order, cause error) (models.Order, error) {
	existing, err := p.store.FindByExternalID(ctx, order.ExternalID)
	if err == nil && existing == nil {
		failed := order
		failed.Status = models.StatusFailed
		failed.UpdatedAt = time.Now().UTC()
		if err := p.store.UpsertByExternalID(ctx, &failed); err != nil {
			p.log.Warnw("could not persist FAILED marker",
				"external_id", order.ExternalID, "error", err)
		}
	}
	return models.Order{}, &ProcessingError{OrderID: order.ID, ExternalID: order.ExternalID, Err: cause}
}
