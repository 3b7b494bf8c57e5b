package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusProcessing      OrderStatus = "PROCESSING"
	StatusAvailableForAck OrderStatus = "AVAILABLE_FOR_ACK"
	StatusAcknowledged    OrderStatus = "ACKNOWLEDGED"
	StatusFailed          OrderStatus = "FAILED"
)

// Valid reports whether s is one of the known lifecycle statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusProcessing, StatusAvailableForAck, StatusAcknowledged, StatusFailed:
		return true
	}
	return false
}

// Order is keyed by ExternalID for idempotency: the producer assigns it and at
// most one order exists per external id, no matter how many times the same
// message is delivered. Version is owned by the store; callers only read it
// and echo it back as a write precondition.
type Order struct {
	ID            string          `json:"id"`
	ExternalID    string          `json:"external_id"`
	Status        OrderStatus     `json:"status"`
	Items         []OrderItem     `json:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Version       int64           `json:"version"`
}

type OrderItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// NewOrder builds a not-yet-persisted order in PROCESSING state with a fresh id.
func NewOrder(externalID string, items []OrderItem, correlationID string) Order {
	now := time.Now().UTC()
	return Order{
		ID:            uuid.NewString(),
		ExternalID:    externalID,
		Status:        StatusProcessing,
		Items:         items,
		TotalAmount:   decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
		CorrelationID: correlationID,
	}
}

// NewOrderItem derives the line total from unit price and quantity.
func NewOrderItem(productID, productName string, unitPrice decimal.Decimal, quantity int) OrderItem {
	return OrderItem{
		ProductID:   productID,
		ProductName: productName,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
		TotalPrice:  unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
	}
}
