// Package pricing computes order totals with exact decimal arithmetic.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/order-service/internal/models"
)

// OrderTotal sums the line totals of the given items. An empty slice yields zero.
func OrderTotal(items []models.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalPrice)
	}
	return total
}

// PriceOrder recomputes every line total and the order total and stamps
// UpdatedAt. The input is not mutated.
func PriceOrder(order models.Order) models.Order {
	items := make([]models.OrderItem, len(order.Items))
	for i, item := range order.Items {
		item.TotalPrice = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		items[i] = item
	}
	order.Items = items
	order.TotalAmount = OrderTotal(items)
	order.UpdatedAt = time.Now().UTC()
	return order
}
