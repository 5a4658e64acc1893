package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"verlo/models"
	"verlo/utils"
)

// Allocator hands out unique human-readable order numbers.
type Allocator interface {
	Allocate(ctx context.Context) (string, error)
}

// CartClearer empties the owner's cart after an order is persisted.
type CartClearer interface {
	Clear(ctx context.Context, userID string) error
}

// Notifier delivers the best-effort order confirmation. Implementations must
// not block and must surface failures only via logs.
type Notifier interface {
	OrderConfirmation(order *models.Order)
}

// ValidationError names the offending field so the handler can return
// field-level detail with a 400.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// CreateRequest is the checkout payload.
type CreateRequest struct {
	Items           []models.OrderItem  `json:"items"`
	ShippingAddress models.Address      `json:"shippingAddress"`
	BillingAddress  *models.Address     `json:"billingAddress,omitempty"`
	Payment         models.PaymentInfo  `json:"payment"`
	Shipping        models.ShippingInfo `json:"shipping"`
	Subtotal        float64             `json:"subtotal"`
	Tax             float64             `json:"tax"`
	ShippingCost    float64             `json:"shippingCost"`
	Total           float64             `json:"total"`
	Notes           string              `json:"notes,omitempty"`
}

// Service orchestrates order creation: validate, allocate a number, persist,
// clear the cart, notify.
type Service struct {
	store  Store
	alloc  Allocator
	carts  CartClearer
	notify Notifier
}

func NewService(store Store, alloc Allocator, carts CartClearer, notify Notifier) *Service {
	return &Service{store: store, alloc: alloc, carts: carts, notify: notify}
}

func validateCreate(req *CreateRequest) error {
	if len(req.Items) == 0 {
		return &ValidationError{Field: "items", Reason: "at least one item is required"}
	}
	for i, item := range req.Items {
		if item.ProductID == "" {
			return &ValidationError{Field: "items", Reason: fmt.Sprintf("item %d: productId is required", i)}
		}
		if item.Quantity < 1 {
			return &ValidationError{Field: "items", Reason: fmt.Sprintf("item %d: quantity must be at least 1", i)}
		}
	}

	addr := req.ShippingAddress
	if addr.Line1 == "" || addr.City == "" || addr.PostalCode == "" || addr.Country == "" {
		return &ValidationError{Field: "shippingAddress", Reason: "line1, city, postalCode and country are required"}
	}

	if req.Total <= 0 {
		return &ValidationError{Field: "total", Reason: "total is required"}
	}
	if math.Abs(req.Total-(req.Subtotal+req.Tax+req.ShippingCost)) > 0.009 {
		return &ValidationError{Field: "total", Reason: "total must equal subtotal + tax + shippingCost"}
	}
	return nil
}

// Create validates the request, allocates an order number and persists the
// order in pending state. The cart is cleared only after the order is safely
// stored; clearing or notification failures never roll back the order.
func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (*models.Order, error) {
	if err := validateCreate(&req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	billing := req.ShippingAddress
	if req.BillingAddress != nil {
		billing = *req.BillingAddress
	}

	payment := req.Payment
	payment.Status = models.PaymentPending
	payment.Amount = req.Total
	if payment.Method == "" {
		payment.Method = "card"
	}
	if payment.Currency == "" {
		payment.Currency = "usd"
	}

	order := &models.Order{
		ID:              utils.GetUUID(),
		UserID:          userID,
		Items:           req.Items,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  billing,
		Payment:         payment,
		Shipping:        req.Shipping,
		Status:          models.OrderPending,
		Subtotal:        req.Subtotal,
		Tax:             req.Tax,
		ShippingCost:    req.ShippingCost,
		Total:           req.Total,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// The allocator's pre-check can race; the unique index reports the real
	// collision as ErrDuplicateNumber, in which case allocation is retried
	// once before giving up.
	for attempt := 0; ; attempt++ {
		number, err := s.alloc.Allocate(ctx)
		if err != nil {
			return nil, err
		}
		order.OrderNumber = number

		err = s.store.Insert(ctx, order)
		if err == nil {
			break
		}
		if errors.Is(err, ErrDuplicateNumber) && attempt == 0 {
			continue
		}
		return nil, err
	}

	if err := s.carts.Clear(ctx, userID); err != nil {
		// Order creation already succeeded; a stale cart is reconciled later.
		log.Printf("Create: cart clear failed for user %s: %v", userID, err)
	}

	if s.notify != nil {
		s.notify.OrderConfirmation(order)
	}

	return order, nil
}
