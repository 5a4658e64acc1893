package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"verlo/middleware"
	"verlo/models"
	"verlo/ordernum"
	"verlo/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/mongo"
)

// Handlers exposes the order REST surface.
type Handlers struct {
	svc           *Service
	store         Store
	invoiceSecret []byte
}

func NewHandlers(svc *Service, store Store, invoiceSecret []byte) *Handlers {
	return &Handlers{svc: svc, store: store, invoiceSecret: invoiceSecret}
}

// POST /api/orders
func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := middleware.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Println("CreateOrder decode error:", err)
		utils.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	order, err := h.svc.Create(ctx, userID, req)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			utils.RespondError(w, http.StatusBadRequest, verr.Error())
		case errors.Is(err, ordernum.ErrExhausted), errors.Is(err, ErrDuplicateNumber):
			log.Println("CreateOrder allocation failed:", err)
			utils.RespondError(w, http.StatusInternalServerError, "Could not assign an order number, please retry")
		case errors.Is(err, context.DeadlineExceeded), mongo.IsTimeout(err):
			log.Println("CreateOrder store unavailable:", err)
			utils.RespondError(w, http.StatusServiceUnavailable, "Service temporarily unavailable, please retry")
		default:
			log.Println("CreateOrder error:", err)
			utils.RespondError(w, http.StatusInternalServerError, "Order creation failed")
		}
		return
	}

	utils.RespondSuccess(w, http.StatusCreated, order)
}

// GET /api/orders?status=&page=&limit=
func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := middleware.GetUserIDFromRequest(r)
	opts := utils.ParseQueryOptions(r)

	orders, total, err := h.store.List(ctx, userID, opts.Status, opts.Page, opts.Limit)
	if err != nil {
		log.Println("ListOrders error:", err)
		utils.RespondError(w, http.StatusInternalServerError, "Could not retrieve orders")
		return
	}

	utils.RespondSuccess(w, http.StatusOK, utils.M{
		"orders": orders,
		"total":  total,
		"page":   opts.Page,
		"limit":  opts.Limit,
	})
}

// GET /api/orders/:id
func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.respondWithOrder(w, r, func(ctx context.Context, userID string) (*models.Order, error) {
		return h.store.FindByID(ctx, userID, ps.ByName("id"))
	})
}

// GET /api/orders/number/:orderNumber
func (h *Handlers) GetOrderByNumber(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.respondWithOrder(w, r, func(ctx context.Context, userID string) (*models.Order, error) {
		return h.store.FindByNumber(ctx, userID, ps.ByName("orderNumber"))
	})
}

func (h *Handlers) respondWithOrder(w http.ResponseWriter, r *http.Request, find func(context.Context, string) (*models.Order, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := middleware.GetUserIDFromRequest(r)

	order, err := find(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		utils.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		log.Println("GetOrder error:", err)
		utils.RespondError(w, http.StatusInternalServerError, "Could not retrieve order")
		return
	}

	utils.RespondSuccess(w, http.StatusOK, order)
}

// PUT /api/orders/:id/status — users may only request cancellation here;
// every other target is an operator concern and is refused.
func (h *Handlers) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body struct {
		Status string `json:"status"`
		Reason string `json:"reason,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	if body.Status != models.OrderCancelled {
		utils.RespondError(w, http.StatusForbidden, "Only cancellation can be requested")
		return
	}

	h.cancel(w, r, ps.ByName("id"), body.Reason, http.StatusForbidden)
}

// POST /api/orders/:id/cancel
func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body struct {
		Reason string `json:"reason,omitempty"`
	}
	if r.Body != nil {
		// Reason is optional; an empty body is fine.
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	h.cancel(w, r, ps.ByName("id"), body.Reason, http.StatusBadRequest)
}

func (h *Handlers) cancel(w http.ResponseWriter, r *http.Request, orderID, reason string, rejectCode int) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := middleware.GetUserIDFromRequest(r)

	order, err := h.store.FindByID(ctx, userID, orderID)
	if errors.Is(err, ErrNotFound) {
		utils.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		log.Println("CancelOrder lookup error:", err)
		utils.RespondError(w, http.StatusInternalServerError, "Could not retrieve order")
		return
	}

	if !CanCancel(order.Status) {
		utils.RespondError(w, rejectCode, fmt.Sprintf("Order cannot be cancelled while %s", order.Status))
		return
	}

	if reason == "" {
		reason = "cancelled by customer"
	}
	now := time.Now().UTC()

	updated, err := h.store.ApplyTransition(ctx, order.ID, Transition{
		From:            AllowedFrom(models.OrderCancelled),
		Status:          models.OrderCancelled,
		CancelledAt:     &now,
		CancelledReason: reason,
	})
	if errors.Is(err, ErrNotEligible) {
		// Lost the race against a webhook or operator update; report the
		// status that actually won.
		current, ferr := h.store.FindByID(ctx, userID, orderID)
		status := "updated"
		if ferr == nil {
			status = current.Status
		}
		utils.RespondError(w, rejectCode, fmt.Sprintf("Order cannot be cancelled while %s", status))
		return
	}
	if err != nil {
		log.Println("CancelOrder transition error:", err)
		utils.RespondError(w, http.StatusInternalServerError, "Cancellation failed")
		return
	}

	utils.RespondSuccessMessage(w, http.StatusOK, "Order cancelled", updated)
}

// POST /api/orders/:id/ship — operator action, validated against the same
// transition table as everything else.
func (h *Handlers) ShipOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body struct {
		TrackingNumber string `json:"trackingNumber"`
		Carrier        string `json:"carrier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if body.TrackingNumber == "" || body.Carrier == "" {
		utils.RespondError(w, http.StatusBadRequest, "trackingNumber and carrier are required")
		return
	}

	h.operatorTransition(w, r, ps.ByName("id"), Transition{
		From:           AllowedFrom(models.OrderShipped),
		Status:         models.OrderShipped,
		TrackingNumber: body.TrackingNumber,
		Carrier:        body.Carrier,
	})
}

// POST /api/orders/:id/deliver — operator action.
func (h *Handlers) DeliverOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.operatorTransition(w, r, ps.ByName("id"), Transition{
		From:   AllowedFrom(models.OrderDelivered),
		Status: models.OrderDelivered,
	})
}

func (h *Handlers) operatorTransition(w http.ResponseWriter, r *http.Request, orderID string, t Transition) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	updated, err := h.store.ApplyTransition(ctx, orderID, t)
	if errors.Is(err, ErrNotEligible) {
		utils.RespondError(w, http.StatusForbidden, fmt.Sprintf("Order is not eligible to become %s", t.Status))
		return
	}
	if err != nil {
		log.Println("operator transition error:", err)
		utils.RespondError(w, http.StatusInternalServerError, "Status update failed")
		return
	}

	utils.RespondSuccess(w, http.StatusOK, updated)
}
