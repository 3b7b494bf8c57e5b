package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/order-service/internal/models"
	"github.com/example/order-service/internal/service"
)

type stubQuery struct {
	listFn       func(status models.OrderStatus, page, size int) ([]models.Order, int64, error)
	byIDFn       func(id string) (models.Order, error)
	byExternalFn func(externalID string) (models.Order, error)
}

func (s *stubQuery) ListByStatus(_ context.Context, status models.OrderStatus, page, size int) ([]models.Order, int64, error) {
	return s.listFn(status, page, size)
}

func (s *stubQuery) GetByID(_ context.Context, id string) (models.Order, error) {
	return s.byIDFn(id)
}

func (s *stubQuery) GetByExternalID(_ context.Context, externalID string) (models.Order, error) {
	return s.byExternalFn(externalID)
}

type stubAck struct {
	fn func(orderID string, expectedVersion int64) (models.Order, error)
}

func (s *stubAck) AcknowledgeOrder(_ context.Context, orderID string, expectedVersion int64) (models.Order, error) {
	return s.fn(orderID, expectedVersion)
}

func setupRouter(q QueryService, a AckService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewOrderHandler(q, a, zap.NewNop().Sugar())
	r := gin.New()
	r.GET("/health", h.HealthCheck)
	r.GET("/orders", h.ListOrders)
	r.GET("/orders/:id", h.GetOrder)
	r.POST("/orders/:id/ack", h.AcknowledgeOrder)
	return r
}

func sampleOrder() models.Order {
	order := models.NewOrder("EXT-1", []models.OrderItem{
		models.NewOrderItem("P-100", "Widget", decimal.RequireFromString("10.50"), 2),
	}, "corr-1")
	order.Status = models.StatusAvailableForAck
	order.TotalAmount = decimal.RequireFromString("21.00")
	order.Version = 1
	order.UpdatedAt = time.Now().UTC()
	return order
}

func doRequest(r *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListOrders(t *testing.T) {
	order := sampleOrder()
	q := &stubQuery{
		listFn: func(status models.OrderStatus, page, size int) ([]models.Order, int64, error) {
			require.Equal(t, models.StatusAvailableForAck, status)
			require.Equal(t, 1, page)
			require.Equal(t, 20, size)
			return []models.Order{order}, 1, nil
		},
	}
	r := setupRouter(q, nil)

	w := doRequest(r, http.MethodGet, "/orders", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var page pageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Equal(t, int64(1), page.Total)
	require.Len(t, page.Items, 1)
	require.Equal(t, "EXT-1", page.Items[0].ExternalID)
}

func TestListOrders_InvalidStatus(t *testing.T) {
	r := setupRouter(&stubQuery{}, nil)

	w := doRequest(r, http.MethodGet, "/orders?status=BOGUS", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListOrders_InvalidPaging(t *testing.T) {
	r := setupRouter(&stubQuery{}, nil)

	require.Equal(t, http.StatusBadRequest, doRequest(r, http.MethodGet, "/orders?page=0", nil).Code)
	require.Equal(t, http.StatusBadRequest, doRequest(r, http.MethodGet, "/orders?size=9999", nil).Code)
}

func TestListOrders_ByExternalID(t *testing.T) {
	order := sampleOrder()
	q := &stubQuery{
		byExternalFn: func(externalID string) (models.Order, error) {
			if externalID == "EXT-1" {
				return order, nil
			}
			return models.Order{}, service.ErrOrderNotFound
		},
	}
	r := setupRouter(q, nil)

	w := doRequest(r, http.MethodGet, "/orders?external_id=EXT-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.Equal(t, http.StatusNotFound, doRequest(r, http.MethodGet, "/orders?external_id=EXT-X", nil).Code)
}

func TestGetOrder(t *testing.T) {
	order := sampleOrder()
	q := &stubQuery{
		byIDFn: func(id string) (models.Order, error) {
			if id == order.ID {
				return order, nil
			}
			return models.Order{}, service.ErrOrderNotFound
		},
	}
	r := setupRouter(q, nil)

	w := doRequest(r, http.MethodGet, "/orders/"+order.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, order.ID, got.ID)

	require.Equal(t, http.StatusNotFound, doRequest(r, http.MethodGet, "/orders/missing", nil).Code)
}

func TestAcknowledgeOrder_Success(t *testing.T) {
	order := sampleOrder()
	a := &stubAck{fn: func(orderID string, expectedVersion int64) (models.Order, error) {
		require.Equal(t, order.ID, orderID)
		require.Equal(t, int64(1), expectedVersion)
		acked := order
		acked.Status = models.StatusAcknowledged
		acked.Version = 2
		return acked, nil
	}}
	r := setupRouter(nil, a)

	w := doRequest(r, http.MethodPost, "/orders/"+order.ID+"/ack", map[string]string{"If-Match": "1"})
	require.Equal(t, http.StatusOK, w.Code)

	var got models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, models.StatusAcknowledged, got.Status)
	require.Equal(t, int64(2), got.Version)
}

func TestAcknowledgeOrder_QuotedIfMatch(t *testing.T) {
	a := &stubAck{fn: func(_ string, expectedVersion int64) (models.Order, error) {
		require.Equal(t, int64(3), expectedVersion)
		return sampleOrder(), nil
	}}
	r := setupRouter(nil, a)

	w := doRequest(r, http.MethodPost, "/orders/x/ack", map[string]string{"If-Match": `"3"`})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAcknowledgeOrder_MissingIfMatch(t *testing.T) {
	r := setupRouter(nil, &stubAck{})

	require.Equal(t, http.StatusBadRequest,
		doRequest(r, http.MethodPost, "/orders/x/ack", nil).Code)
	require.Equal(t, http.StatusBadRequest,
		doRequest(r, http.MethodPost, "/orders/x/ack", map[string]string{"If-Match": "abc"}).Code)
}

func TestAcknowledgeOrder_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"not found", service.ErrOrderNotFound, http.StatusNotFound},
		{"invalid state", &service.InvalidStatusError{OrderID: "x", Status: models.StatusAcknowledged}, http.StatusBadRequest},
		{"version conflict", &service.VersionConflictError{OrderID: "x", Expected: 1, Actual: 2}, http.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := &stubAck{fn: func(string, int64) (models.Order, error) {
				return models.Order{}, tc.err
			}}
			r := setupRouter(nil, a)

			w := doRequest(r, http.MethodPost, "/orders/x/ack", map[string]string{"If-Match": "1"})
			require.Equal(t, tc.code, w.Code)
		})
	}
}

func TestAcknowledgeOrder_ConflictBodyCarriesVersions(t *testing.T) {
	a := &stubAck{fn: func(string, int64) (models.Order, error) {
		return models.Order{}, &service.VersionConflictError{OrderID: "x", Expected: 1, Actual: 4}
	}}
	r := setupRouter(nil, a)

	w := doRequest(r, http.MethodPost, "/orders/x/ack", map[string]string{"If-Match": "1"})
	require.Equal(t, http.StatusConflict, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.EqualValues(t, 1, body["expected_version"])
	require.EqualValues(t, 4, body["actual_version"])
}

func TestHealthCheck(t *testing.T) {
	r := setupRouter(&stubQuery{}, nil)

	w := doRequest(r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
}
