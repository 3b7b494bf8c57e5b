// Package notify publishes order status changes over redis pub/sub so
// downstream consumers can react without polling the HTTP API.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/example/order-service/internal/models"
	"github.com/example/order-service/internal/service"
)

const statusChannel = "orders.status-changed"

type StatusChangedEvent struct {
	OrderID    string             `json:"order_id"`
	ExternalID string             `json:"external_id"`
	Status     models.OrderStatus `json:"status"`
	Version    int64              `json:"version"`
	OccurredAt time.Time          `json:"occurred_at"`
}

type Publisher struct {
	client *redis.Client
	log    *zap.SugaredLogger
}

func NewPublisher(addr, password string, db int, log *zap.SugaredLogger) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Infow("connected to Redis", "addr", addr)
	return &Publisher{client: client, log: log}, nil
}

var _ service.StatusNotifier = (*Publisher)(nil)

// OrderStatusChanged publishes the transition best-effort: failures are logged
// and never affect the order operation that triggered them.
func (p *Publisher) OrderStatusChanged(ctx context.Context, order models.Order) {
	event := StatusChangedEvent{
		OrderID:    order.ID,
		ExternalID: order.ExternalID,
		Status:     order.Status,
		Version:    order.Version,
		OccurredAt: time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.log.Warnw("failed to encode status change event", "order_id", order.ID, "error", err)
		return
	}
	if err := p.client.Publish(ctx, statusChannel, data).Err(); err != nil {
		p.log.Warnw("failed to publish status change", "order_id", order.ID, "error", err)
	}
}

func (p *Publisher) Close() error {
	return p.client.Close()
}
