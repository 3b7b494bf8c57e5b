package service

import (
	"errors"
	"fmt"

	"github.com/example/order-service/internal/models"
)

var (
	// ErrOrderNotFound means the referenced order does not exist.
	ErrOrderNotFound = errors.New("order not found")

	// ErrDuplicateExternalID means an insert lost the race against a
	// concurrent first insert for the same external id.
	ErrDuplicateExternalID = errors.New("order with this external id already exists")
)

// InvalidStatusError means the operation is not valid for the order's current
// status. It carries the status so the caller can report it without refetching.
type InvalidStatusError struct {
	OrderID string
	Status  models.OrderStatus
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("order %s is not available for acknowledgment: current status %s", e.OrderID, e.Status)
}

// VersionConflictError means the optimistic-lock precondition failed. The
// caller recovers by refetching and resubmitting with the current version.
type VersionConflictError struct {
	OrderID  string
	Expected int64
	Actual   int64
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version mismatch for order %s: expected %d, actual %d", e.OrderID, e.Expected, e.Actual)
}

// ProcessingError wraps any pricing or storage failure during ingestion so the
// transport can apply its redelivery policy.
type ProcessingError struct {
	OrderID    string
	ExternalID string
	Err        error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("failed to process order %s (external id %s): %v", e.OrderID, e.ExternalID, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }
