package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/order-service/internal/models"
	"github.com/example/order-service/internal/service"
)

// QueryService is the read side consumed by the HTTP layer.
type QueryService interface {
	ListByStatus(ctx context.Context, status models.OrderStatus, page, size int) ([]models.Order, int64, error)
	GetByID(ctx context.Context, id string) (models.Order, error)
	GetByExternalID(ctx context.Context, externalID string) (models.Order, error)
}

// AckService is the single mutation the HTTP layer exposes.
type AckService interface {
	AcknowledgeOrder(ctx context.Context, orderID string, expectedVersion int64) (models.Order, error)
}

type OrderHandler struct {
	query QueryService
	ack   AckService
	log   *zap.SugaredLogger
}

func NewOrderHandler(query QueryService, ack AckService, log *zap.SugaredLogger) *OrderHandler {
	return &OrderHandler{query: query, ack: ack, log: log}
}

// HealthCheck returns server status
func (h *OrderHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "order-service"})
}

type pageResponse struct {
	Items []models.Order `json:"items"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
	Total int64          `json:"total"`
}

// ListOrders returns a page of orders filtered by status, most recently
// updated first. With an external_id query parameter it returns that single
// order instead.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	if externalID := c.Query("external_id"); externalID != "" {
		order, err := h.query.GetByExternalID(c.Request.Context(), externalID)
		if err != nil {
			if errors.Is(err, service.ErrOrderNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, order)
		return
	}

	status := models.OrderStatus(c.DefaultQuery("status", string(models.StatusAvailableForAck)))
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status: " + string(status)})
		return
	}
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "20"))
	if err != nil || size < 1 || size > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid size"})
		return
	}

	orders, total, err := h.query.ListByStatus(c.Request.Context(), status, page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, pageResponse{Items: orders, Page: page, Size: size, Total: total})
}

// GetOrder returns a single order by id.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.query.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, order)
}

// AcknowledgeOrder transitions an order to ACKNOWLEDGED. The expected version
// comes from the If-Match header, sourced from a previously fetched order.
func (h *OrderHandler) AcknowledgeOrder(c *gin.Context) {
	id := c.Param("id")

	raw := strings.Trim(c.GetHeader("If-Match"), `"`)
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing If-Match header with expected version"})
		return
	}
	expectedVersion, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "If-Match header must be an integer version"})
		return
	}

	order, err := h.ack.AcknowledgeOrder(c.Request.Context(), id, expectedVersion)
	if err != nil {
		var invalidStatus *service.InvalidStatusError
		var versionConflict *service.VersionConflictError
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		case errors.As(err, &invalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":  "order is not available for acknowledgment",
				"status": invalidStatus.Status,
			})
		case errors.As(err, &versionConflict):
			c.JSON(http.StatusConflict, gin.H{
				"error":            "version conflict",
				"expected_version": versionConflict.Expected,
				"actual_version":   versionConflict.Actual,
			})
		default:
			h.log.Errorw("acknowledge failed", "order_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, order)
}
