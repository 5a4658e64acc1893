package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"verlo/middleware"
	"verlo/models"
	"verlo/utils"

	"github.com/julienschmidt/httprouter"
)

// Handlers exposes the cart REST surface.
type Handlers struct {
	svc *Service
}

func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// GET /api/cart
func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := middleware.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	cart, err := h.svc.Get(ctx, userID)
	if err != nil {
		log.Println("GetCart error:", err)
		utils.RespondError(w, http.StatusInternalServerError, "Could not retrieve cart")
		return
	}

	utils.RespondSuccess(w, http.StatusOK, cart)
}

// POST /api/cart/items
func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := middleware.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var item models.CartItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		log.Println("AddToCart decode error:", err)
		utils.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	cart, err := h.svc.AddItem(ctx, userID, item)
	if errors.Is(err, ErrInvalidItem) {
		utils.RespondError(w, http.StatusBadRequest, "Missing or invalid fields")
		return
	}
	if err != nil {
		log.Println("AddToCart error:", err)
		utils.RespondError(w, http.StatusInternalServerError, "Failed to add to cart")
		return
	}

	utils.RespondSuccess(w, http.StatusCreated, cart)
}

// PUT /api/cart/items
func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := middleware.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var body struct {
		ProductID string `json:"productId"`
		Size      string `json:"size,omitempty"`
		Color     string `json:"color,omitempty"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	cart, err := h.svc.UpdateItem(ctx, userID, body.ProductID, body.Size, body.Color, body.Quantity)
	if errors.Is(err, ErrInvalidItem) {
		utils.RespondError(w, http.StatusBadRequest, "productId is required")
		return
	}
	if err != nil {
		log.Println("UpdateCartItem error:", err)
		utils.RespondError(w, http.StatusInternalServerError, "Failed to update cart")
		return
	}

	utils.RespondSuccess(w, http.StatusOK, cart)
}

// DELETE /api/cart/items?productId=&size=&color=
func (h *Handlers) RemoveCartItem(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := middleware.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	q := r.URL.Query()
	cart, err := h.svc.RemoveItem(ctx, userID, q.Get("productId"), q.Get("size"), q.Get("color"))
	if errors.Is(err, ErrInvalidItem) {
		utils.RespondError(w, http.StatusBadRequest, "productId is required")
		return
	}
	if err != nil {
		log.Println("RemoveCartItem error:", err)
		utils.RespondError(w, http.StatusInternalServerError, "Failed to update cart")
		return
	}

	utils.RespondSuccess(w, http.StatusOK, cart)
}

// POST /api/cart/sync — folds a guest session's cart into the authenticated
// cart at login time. The client clears its guest cart on a 2xx response.
func (h *Handlers) SyncCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := middleware.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var body struct {
		GuestItems []models.CartItem `json:"guestItems"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Println("SyncCart decode error:", err)
		utils.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	cart, err := h.svc.Merge(ctx, userID, body.GuestItems)
	if err != nil {
		log.Println("SyncCart error:", err)
		utils.RespondError(w, http.StatusInternalServerError, "Failed to sync cart")
		return
	}

	utils.RespondSuccess(w, http.StatusOK, cart)
}
