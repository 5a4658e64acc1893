package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"verlo/middleware"
	"verlo/models"
	"verlo/ordernum"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authedRequest(method, target, userID string, body []byte) *http.Request {
	r := httptest.NewRequest(method, target, bytes.NewReader(body))
	ctx := context.WithValue(r.Context(), middleware.UserIDKey, userID)
	return r.WithContext(ctx)
}

func seedOrder(store *memStore, userID, status string) *models.Order {
	order := &models.Order{
		ID:          "order-" + status,
		OrderNumber: "ORD-20250101-" + status,
		UserID:      userID,
		Items:       []models.OrderItem{{ProductID: "p1", Name: "Mug", Quantity: 1, Price: 12}},
		Payment:     models.PaymentInfo{Method: "card", Status: models.PaymentPending, Amount: 12, Currency: "usd"},
		Status:      status,
		Subtotal:    12,
		Total:       12,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	store.orders[order.ID] = order
	return order
}

func newTestHandlers(store *memStore) *Handlers {
	svc := NewService(store, ordernum.New("ORD", store), &fakeCarts{}, nil)
	return NewHandlers(svc, store, []byte("test-invoice-key"))
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestCancelOrderEligibility(t *testing.T) {
	cases := []struct {
		status     string
		wantCode   int
		wantStatus string // stored status afterwards
	}{
		{models.OrderPending, http.StatusOK, models.OrderCancelled},
		{models.OrderProcessing, http.StatusOK, models.OrderCancelled},
		{models.OrderShipped, http.StatusBadRequest, models.OrderShipped},
		{models.OrderDelivered, http.StatusBadRequest, models.OrderDelivered},
		{models.OrderCancelled, http.StatusBadRequest, models.OrderCancelled},
	}

	for _, tc := range cases {
		t.Run(tc.status, func(t *testing.T) {
			store := newMemStore()
			order := seedOrder(store, "u1", tc.status)
			h := newTestHandlers(store)

			body, _ := json.Marshal(map[string]string{"reason": "changed my mind"})
			w := httptest.NewRecorder()
			h.CancelOrder(w, authedRequest(http.MethodPost, "/api/orders/"+order.ID+"/cancel", "u1", body),
				httprouter.Params{{Key: "id", Value: order.ID}})

			assert.Equal(t, tc.wantCode, w.Code)
			assert.Equal(t, tc.wantStatus, store.orders[order.ID].Status)

			if tc.wantCode == http.StatusOK {
				require.NotNil(t, store.orders[order.ID].CancelledAt)
				assert.Equal(t, "changed my mind", store.orders[order.ID].CancelledReason)
			} else {
				env := decodeEnvelope(t, w)
				assert.False(t, env.Success)
				assert.Contains(t, env.Message, tc.status)
			}
		})
	}
}

func TestCancelOrderNotOwned(t *testing.T) {
	store := newMemStore()
	order := seedOrder(store, "someone-else", models.OrderPending)
	h := newTestHandlers(store)

	w := httptest.NewRecorder()
	h.CancelOrder(w, authedRequest(http.MethodPost, "/api/orders/"+order.ID+"/cancel", "u1", nil),
		httprouter.Params{{Key: "id", Value: order.ID}})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, models.OrderPending, store.orders[order.ID].Status)
}

func TestUpdateStatusUserRestrictedToCancellation(t *testing.T) {
	store := newMemStore()
	order := seedOrder(store, "u1", models.OrderPending)
	h := newTestHandlers(store)

	for _, target := range []string{models.OrderProcessing, models.OrderShipped, models.OrderDelivered} {
		body, _ := json.Marshal(map[string]string{"status": target})
		w := httptest.NewRecorder()
		h.UpdateStatus(w, authedRequest(http.MethodPut, "/api/orders/"+order.ID+"/status", "u1", body),
			httprouter.Params{{Key: "id", Value: order.ID}})

		assert.Equalf(t, http.StatusForbidden, w.Code, "target %s", target)
		assert.Equal(t, models.OrderPending, store.orders[order.ID].Status)
	}

	body, _ := json.Marshal(map[string]string{"status": models.OrderCancelled})
	w := httptest.NewRecorder()
	h.UpdateStatus(w, authedRequest(http.MethodPut, "/api/orders/"+order.ID+"/status", "u1", body),
		httprouter.Params{{Key: "id", Value: order.ID}})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.OrderCancelled, store.orders[order.ID].Status)
}

func TestCreateOrderHandlerEmptyItems(t *testing.T) {
	store := newMemStore()
	h := newTestHandlers(store)

	body, _ := json.Marshal(map[string]any{
		"items":           []any{},
		"shippingAddress": models.Address{Line1: "1 Main St", City: "X", PostalCode: "1", Country: "US"},
		"subtotal":        0, "tax": 0, "shippingCost": 0, "total": 0,
	})
	w := httptest.NewRecorder()
	h.CreateOrder(w, authedRequest(http.MethodPost, "/api/orders", "u1", body), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "items")
	assert.Empty(t, store.orders)
}

func TestGetOrderScopes(t *testing.T) {
	store := newMemStore()
	order := seedOrder(store, "u1", models.OrderPending)
	h := newTestHandlers(store)

	w := httptest.NewRecorder()
	h.GetOrder(w, authedRequest(http.MethodGet, "/api/orders/"+order.ID, "u1", nil),
		httprouter.Params{{Key: "id", Value: order.ID}})
	assert.Equal(t, http.StatusOK, w.Code)

	// not owned ⇒ indistinguishable from absent
	w = httptest.NewRecorder()
	h.GetOrder(w, authedRequest(http.MethodGet, "/api/orders/"+order.ID, "u2", nil),
		httprouter.Params{{Key: "id", Value: order.ID}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListOrdersFiltersByStatus(t *testing.T) {
	store := newMemStore()
	seedOrder(store, "u1", models.OrderPending)
	shipped := seedOrder(store, "u1", models.OrderShipped)
	seedOrder(store, "u2", models.OrderPending)
	h := newTestHandlers(store)

	w := httptest.NewRecorder()
	h.ListOrders(w, authedRequest(http.MethodGet, "/api/orders?status=shipped", "u1", nil), nil)

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)

	var data struct {
		Orders []models.Order `json:"orders"`
		Total  int64          `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Orders, 1)
	assert.Equal(t, shipped.ID, data.Orders[0].ID)
	assert.Equal(t, int64(1), data.Total)
}

func TestShipOrderOperatorFlow(t *testing.T) {
	store := newMemStore()
	order := seedOrder(store, "u1", models.OrderProcessing)
	h := newTestHandlers(store)

	body, _ := json.Marshal(map[string]string{"trackingNumber": "TRK123", "carrier": "UPS"})
	w := httptest.NewRecorder()
	h.ShipOrder(w, authedRequest(http.MethodPost, "/api/orders/"+order.ID+"/ship", "op1", body),
		httprouter.Params{{Key: "id", Value: order.ID}})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.OrderShipped, store.orders[order.ID].Status)
	assert.Equal(t, "TRK123", store.orders[order.ID].Shipping.TrackingNumber)
	assert.Equal(t, "UPS", store.orders[order.ID].Shipping.Carrier)

	// shipping a pending order is refused by the same table
	pending := seedOrder(store, "u1", models.OrderPending)
	w = httptest.NewRecorder()
	h.ShipOrder(w, authedRequest(http.MethodPost, "/api/orders/"+pending.ID+"/ship", "op1", body),
		httprouter.Params{{Key: "id", Value: pending.ID}})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, models.OrderPending, store.orders[pending.ID].Status)
}
