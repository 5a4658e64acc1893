package orders

import (
	"context"
	"slices"
	"sync"
	"time"

	"verlo/models"
)

// memStore is an in-memory Store that mirrors the MongoDB semantics the
// service depends on: a uniqueness constraint on orderNumber and atomic
// conditional transitions.
type memStore struct {
	mu     sync.Mutex
	orders map[string]*models.Order
	// failDup makes the next n inserts fail with ErrDuplicateNumber.
	failDup int
}

func newMemStore() *memStore {
	return &memStore{orders: make(map[string]*models.Order)}
}

func clone(o *models.Order) *models.Order {
	cp := *o
	cp.Items = slices.Clone(o.Items)
	return &cp
}

func (s *memStore) Insert(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failDup > 0 {
		s.failDup--
		return ErrDuplicateNumber
	}
	for _, existing := range s.orders {
		if existing.OrderNumber == order.OrderNumber {
			return ErrDuplicateNumber
		}
	}
	s.orders[order.ID] = clone(order)
	return nil
}

func (s *memStore) FindByID(_ context.Context, userID, id string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok || order.UserID != userID {
		return nil, ErrNotFound
	}
	return clone(order), nil
}

func (s *memStore) FindByNumber(_ context.Context, userID, number string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, order := range s.orders {
		if order.OrderNumber == number && order.UserID == userID {
			return clone(order), nil
		}
	}
	return nil, ErrNotFound
}

func (s *memStore) FindByPaymentIntent(_ context.Context, intentID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, order := range s.orders {
		if order.Payment.PaymentIntentID == intentID {
			return clone(order), nil
		}
	}
	return nil, ErrNotFound
}

func (s *memStore) FindByCheckoutSession(_ context.Context, sessionID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, order := range s.orders {
		if order.Payment.CheckoutSessionID == sessionID {
			return clone(order), nil
		}
	}
	return nil, ErrNotFound
}

func (s *memStore) List(_ context.Context, userID, status string, page, limit int) ([]models.Order, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []models.Order
	for _, order := range s.orders {
		if order.UserID != userID {
			continue
		}
		if status != "" && order.Status != status {
			continue
		}
		matched = append(matched, *clone(order))
	}
	slices.SortFunc(matched, func(a, b models.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	total := int64(len(matched))
	start := (page - 1) * limit
	if start >= len(matched) {
		return []models.Order{}, total, nil
	}
	end := min(start+limit, len(matched))
	return matched[start:end], total, nil
}

func (s *memStore) ExistsByNumber(_ context.Context, number string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, order := range s.orders {
		if order.OrderNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) ApplyTransition(_ context.Context, id string, t Transition) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok || !slices.Contains(t.From, order.Status) {
		return nil, ErrNotEligible
	}

	order.Status = t.Status
	order.UpdatedAt = time.Now().UTC()
	if t.PaymentStatus != "" {
		order.Payment.Status = t.PaymentStatus
	}
	if t.TrackingNumber != "" {
		order.Shipping.TrackingNumber = t.TrackingNumber
	}
	if t.Carrier != "" {
		order.Shipping.Carrier = t.Carrier
	}
	if t.CancelledAt != nil {
		order.CancelledAt = t.CancelledAt
		order.CancelledReason = t.CancelledReason
	}
	return clone(order), nil
}

func (s *memStore) AttachPaymentIntent(_ context.Context, sessionID, intentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, order := range s.orders {
		if order.Payment.CheckoutSessionID == sessionID && order.Payment.PaymentIntentID == "" {
			order.Payment.PaymentIntentID = intentID
		}
	}
	return nil
}
