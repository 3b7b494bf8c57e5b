package models

import "github.com/shopspring/decimal"

// OrderCreatedMessage is the wire shape of an order.created delivery. Field
// names are the producer's contract and stay camelCase.
type OrderCreatedMessage struct {
	ExternalID    string             `json:"externalId" validate:"required"`
	Items         []OrderItemMessage `json:"items" validate:"required,min=1,dive"`
	CorrelationID string             `json:"correlationId"`
}

type OrderItemMessage struct {
	ProductID   string          `json:"productId" validate:"required"`
	ProductName string          `json:"productName" validate:"required"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity" validate:"required,gt=0"`
}

// ToOrder maps the message to a fresh domain order with derived line totals.
func (m OrderCreatedMessage) ToOrder() Order {
	items := make([]OrderItem, 0, len(m.Items))
	for _, item := range m.Items {
		items = append(items, NewOrderItem(item.ProductID, item.ProductName, item.UnitPrice, item.Quantity))
	}
	return NewOrder(m.ExternalID, items, m.CorrelationID)
}
