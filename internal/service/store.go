package service

import (
	"context"

	"github.com/example/order-service/internal/models"
)

// OrderStore is the persistence contract the order services rely on.
//
// Find methods return (nil, nil) when no order matches. Save is a conditional
// write: the stored version must equal order.Version or it fails with a
// *VersionConflictError; on success the store increments the version and
// writes it back into the struct. UpsertByExternalID implements
// insert-or-full-replace keyed by external id: an existing row keeps only its
// id and version, everything else is taken from the new order; a lost
// first-insert race surfaces as ErrDuplicateExternalID.
type OrderStore interface {
	FindByID(ctx context.Context, id string) (*models.Order, error)
	FindByExternalID(ctx context.Context, externalID string) (*models.Order, error)
	FindByStatus(ctx context.Context, status models.OrderStatus, page, size int) ([]models.Order, int64, error)
	Save(ctx context.Context, order *models.Order) error
	UpsertByExternalID(ctx context.Context, order *models.Order) error
}

// StatusNotifier receives best-effort notifications after an order changes
// status. Implementations must not fail the calling operation.
type StatusNotifier interface {
	OrderStatusChanged(ctx context.Context, order models.Order)
}
