package models

import "time"

// CartItem is one cart line. Lines are matched by (productId, size, color);
// adding a matching line increments quantity instead of appending.
type CartItem struct {
	ProductID string    `json:"productId" bson:"productId"`
	Name      string    `json:"name" bson:"name"`
	Image     string    `json:"image,omitempty" bson:"image,omitempty"`
	Size      string    `json:"size,omitempty" bson:"size,omitempty"`
	Color     string    `json:"color,omitempty" bson:"color,omitempty"`
	Quantity  int       `json:"quantity" bson:"quantity"`
	Price     float64   `json:"price" bson:"price"` // unit price
	AddedAt   time.Time `json:"addedAt" bson:"addedAt"`
}

// Cart holds at most one active cart per user (unique index on userId).
// Subtotal is derived and recomputed on every mutation.
type Cart struct {
	ID        string     `json:"id" bson:"_id"`
	UserID    string     `json:"userId" bson:"userId"`
	Items     []CartItem `json:"items" bson:"items"`
	Subtotal  float64    `json:"subtotal" bson:"subtotal"`
	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updatedAt"`
}
