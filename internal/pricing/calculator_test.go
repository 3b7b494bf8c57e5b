package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/example/order-service/internal/models"
)

func TestOrderTotal(t *testing.T) {
	items := []models.OrderItem{
		models.NewOrderItem("P-100", "Widget", decimal.RequireFromString("10.50"), 2),
		models.NewOrderItem("P-200", "Gadget", decimal.RequireFromString("5.25"), 1),
	}

	total := OrderTotal(items)

	require.True(t, total.Equal(decimal.RequireFromString("26.25")), "got %s", total)
}

func TestOrderTotalEmpty(t *testing.T) {
	require.True(t, OrderTotal(nil).IsZero())
	require.True(t, OrderTotal([]models.OrderItem{}).IsZero())
}

func TestOrderTotalNoFloatDrift(t *testing.T) {
	// 0.1 added ten times must be exactly 1, not 0.9999999999999999
	items := make([]models.OrderItem, 10)
	for i := range items {
		items[i] = models.NewOrderItem("P-1", "Penny", decimal.RequireFromString("0.1"), 1)
	}

	require.True(t, OrderTotal(items).Equal(decimal.NewFromInt(1)))
}

func TestPriceOrderRecomputesLineTotals(t *testing.T) {
	order := models.NewOrder("EXT-1", []models.OrderItem{
		{
			ProductID:   "P-100",
			ProductName: "Widget",
			UnitPrice:   decimal.RequireFromString("10.50"),
			Quantity:    2,
			TotalPrice:  decimal.RequireFromString("999.99"), // stale, must be recomputed
		},
	}, "corr-1")

	priced := PriceOrder(order)

	require.True(t, priced.Items[0].TotalPrice.Equal(decimal.RequireFromString("21.00")))
	require.True(t, priced.TotalAmount.Equal(decimal.RequireFromString("21.00")))
	// input untouched
	require.True(t, order.Items[0].TotalPrice.Equal(decimal.RequireFromString("999.99")))
	require.False(t, priced.UpdatedAt.Before(order.UpdatedAt))
}
