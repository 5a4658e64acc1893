package cart

import (
	"context"
	"errors"
	"math"
	"time"

	"verlo/models"
	"verlo/utils"
)

// ErrInvalidItem rejects cart mutations with missing product ref, a
// non-positive quantity or a negative price.
var ErrInvalidItem = errors.New("invalid cart item")

// Service implements cart reads, line mutations, the guest merge and the
// post-order clear. Carts are created lazily: Get never persists an empty
// cart, the first mutation does.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// sameLine is the line matching rule shared by add and merge.
func sameLine(a, b models.CartItem) bool {
	return a.ProductID == b.ProductID && a.Size == b.Size && a.Color == b.Color
}

func recompute(cart *models.Cart) {
	subtotal := 0.0
	for _, item := range cart.Items {
		subtotal += item.Price * float64(item.Quantity)
	}
	cart.Subtotal = math.Round(subtotal*100) / 100
	cart.UpdatedAt = time.Now().UTC()
}

// load returns the stored cart or a fresh unsaved one.
func (s *Service) load(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		now := time.Now().UTC()
		cart = &models.Cart{
			ID:        utils.GetUUID(),
			UserID:    userID,
			Items:     []models.CartItem{},
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return cart, nil
}

// Get returns the user's cart, or an empty one that is not persisted until
// the first mutation.
func (s *Service) Get(ctx context.Context, userID string) (*models.Cart, error) {
	return s.load(ctx, userID)
}

// AddItem increments the quantity of a matching line or appends a new one,
// then recomputes the subtotal.
func (s *Service) AddItem(ctx context.Context, userID string, item models.CartItem) (*models.Cart, error) {
	if item.ProductID == "" || item.Quantity < 1 || item.Price < 0 {
		return nil, ErrInvalidItem
	}

	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	matched := false
	for i := range cart.Items {
		if sameLine(cart.Items[i], item) {
			cart.Items[i].Quantity += item.Quantity
			matched = true
			break
		}
	}
	if !matched {
		item.AddedAt = time.Now().UTC()
		cart.Items = append(cart.Items, item)
	}

	recompute(cart)
	if err := s.store.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// UpdateItem sets a line's quantity. A quantity of zero or less removes the
// line; a quantity is never stored below 1.
func (s *Service) UpdateItem(ctx context.Context, userID, productID, size, color string, quantity int) (*models.Cart, error) {
	if productID == "" {
		return nil, ErrInvalidItem
	}

	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := models.CartItem{ProductID: productID, Size: size, Color: color}
	kept := cart.Items[:0]
	for _, line := range cart.Items {
		if sameLine(line, key) {
			if quantity < 1 {
				continue
			}
			line.Quantity = quantity
		}
		kept = append(kept, line)
	}
	cart.Items = kept

	recompute(cart)
	if err := s.store.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveItem deletes a line entirely.
func (s *Service) RemoveItem(ctx context.Context, userID, productID, size, color string) (*models.Cart, error) {
	return s.UpdateItem(ctx, userID, productID, size, color, 0)
}

// Merge folds an anonymous session's lines into the account cart, summing
// quantities into matching lines and appending the rest. The merge is
// additive: callers must clear the guest cart after a successful sync, or a
// repeat sync double-counts.
func (s *Service) Merge(ctx context.Context, userID string, guestItems []models.CartItem) (*models.Cart, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for _, guest := range guestItems {
		if guest.ProductID == "" || guest.Quantity < 1 {
			continue
		}
		matched := false
		for i := range cart.Items {
			if sameLine(cart.Items[i], guest) {
				cart.Items[i].Quantity += guest.Quantity
				matched = true
				break
			}
		}
		if !matched {
			guest.AddedAt = now
			cart.Items = append(cart.Items, guest)
		}
	}

	recompute(cart)
	if err := s.store.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Clear empties the cart. Called by order creation strictly after the order
// is persisted.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.store.Clear(ctx, userID)
}
