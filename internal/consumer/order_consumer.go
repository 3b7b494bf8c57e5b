package consumer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/example/order-service/internal/models"
)

// OrderProcessor is the single entry point invoked once per delivery attempt.
type OrderProcessor interface {
	ProcessOrder(ctx context.Context, order models.Order) (models.Order, error)
}

// OrderConsumer decodes and validates order.created deliveries and hands them
// to the processor. Undeliverable messages are rejected without requeue so
// they dead-letter instead of cycling hot.
type OrderConsumer struct {
	processor OrderProcessor
	validate  *validator.Validate
	log       *zap.SugaredLogger
}

func NewOrderConsumer(processor OrderProcessor, log *zap.SugaredLogger) *OrderConsumer {
	return &OrderConsumer{
		processor: processor,
		validate:  validator.New(),
		log:       log,
	}
}

// Run consumes deliveries until the channel closes.
func (c *OrderConsumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for msg := range deliveries {
		c.handle(ctx, msg)
	}
	c.log.Info("delivery channel closed, consumer stopping")
}

func (c *OrderConsumer) handle(ctx context.Context, msg amqp.Delivery) {
	order, err := c.decode(msg)
	if err != nil {
		c.log.Warnw("rejecting malformed order message",
			"correlation_id", msg.CorrelationId, "error", err)
		msg.Nack(false, false)
		return
	}

	if _, err := c.processor.ProcessOrder(ctx, order); err != nil {
		// the processor already persisted the FAILED marker best-effort;
		// dead-letter the message for inspection
		c.log.Errorw("order processing failed",
			"external_id", order.ExternalID, "correlation_id", order.CorrelationID, "error", err)
		msg.Nack(false, false)
		return
	}

	msg.Ack(false)
}

func (c *OrderConsumer) decode(msg amqp.Delivery) (models.Order, error) {
	body := normalizeBody(msg.Body)

	var message models.OrderCreatedMessage
	if err := json.Unmarshal(body, &message); err != nil {
		return models.Order{}, fmt.Errorf("unmarshal order message: %w", err)
	}
	if err := c.validate.Struct(message); err != nil {
		return models.Order{}, fmt.Errorf("validate order message: %w", err)
	}
	for _, item := range message.Items {
		if item.UnitPrice.IsNegative() {
			return models.Order{}, fmt.Errorf("item %s has negative unit price %s", item.ProductID, item.UnitPrice)
		}
	}
	if message.CorrelationID == "" {
		message.CorrelationID = msg.CorrelationId
	}
	return message.ToOrder(), nil
}

// normalizeBody unwraps bodies that arrive double-encoded, i.e. a JSON string
// whose content is itself a JSON document. Some producers serialize twice.
func normalizeBody(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return body
	}
	var inner string
	if err := json.Unmarshal(trimmed, &inner); err != nil {
		return body
	}
	innerTrimmed := strings.TrimSpace(inner)
	if strings.HasPrefix(innerTrimmed, "{") || strings.HasPrefix(innerTrimmed, "[") {
		return []byte(inner)
	}
	return body
}
