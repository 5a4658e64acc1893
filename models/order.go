package models

import "time"

// Order lifecycle statuses.
const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

// Payment statuses, tracked separately from the order lifecycle.
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

// Address is a postal/contact snapshot stored on the order.
type Address struct {
	FullName   string `json:"fullName" bson:"fullName"`
	Phone      string `json:"phone,omitempty" bson:"phone,omitempty"`
	Line1      string `json:"line1" bson:"line1"`
	Line2      string `json:"line2,omitempty" bson:"line2,omitempty"`
	City       string `json:"city" bson:"city"`
	State      string `json:"state,omitempty" bson:"state,omitempty"`
	PostalCode string `json:"postalCode" bson:"postalCode"`
	Country    string `json:"country" bson:"country"`
}

// OrderItem is a point-in-time line snapshot; it never tracks the live catalog.
type OrderItem struct {
	ProductID string  `json:"productId" bson:"productId"`
	Name      string  `json:"name" bson:"name"`
	Image     string  `json:"image,omitempty" bson:"image,omitempty"`
	Size      string  `json:"size,omitempty" bson:"size,omitempty"`
	Color     string  `json:"color,omitempty" bson:"color,omitempty"`
	Quantity  int     `json:"quantity" bson:"quantity"`
	Price     float64 `json:"price" bson:"price"` // unit price at time of order
}

// PaymentInfo holds the payment sub-record, including the external
// payment-processor correlation ids used to match inbound webhook events.
type PaymentInfo struct {
	Method            string  `json:"method" bson:"method"`
	PaymentIntentID   string  `json:"paymentIntentId,omitempty" bson:"paymentIntentId,omitempty"`
	CheckoutSessionID string  `json:"checkoutSessionId,omitempty" bson:"checkoutSessionId,omitempty"`
	Status            string  `json:"status" bson:"status"`
	Amount            float64 `json:"amount" bson:"amount"`
	Currency          string  `json:"currency" bson:"currency"`
}

// ShippingInfo holds the shipping sub-record; tracking fields are written by
// operator actions after fulfilment.
type ShippingInfo struct {
	Method         string  `json:"method" bson:"method"`
	Cost           float64 `json:"cost" bson:"cost"`
	TrackingNumber string  `json:"trackingNumber,omitempty" bson:"trackingNumber,omitempty"`
	Carrier        string  `json:"carrier,omitempty" bson:"carrier,omitempty"`
}

// Order is the aggregate root. Items, addresses and amounts are immutable
// after creation; only status, payment.status, shipping tracking fields,
// cancellation fields and updatedAt may change.
type Order struct {
	ID              string       `json:"id" bson:"_id"`
	OrderNumber     string       `json:"orderNumber" bson:"orderNumber"`
	UserID          string       `json:"userId" bson:"userId"`
	Items           []OrderItem  `json:"items" bson:"items"`
	ShippingAddress Address      `json:"shippingAddress" bson:"shippingAddress"`
	BillingAddress  Address      `json:"billingAddress" bson:"billingAddress"`
	Payment         PaymentInfo  `json:"payment" bson:"payment"`
	Shipping        ShippingInfo `json:"shipping" bson:"shipping"`
	Status          string       `json:"status" bson:"status"`
	Subtotal        float64      `json:"subtotal" bson:"subtotal"`
	Tax             float64      `json:"tax" bson:"tax"`
	ShippingCost    float64      `json:"shippingCost" bson:"shippingCost"`
	Total           float64      `json:"total" bson:"total"`
	Notes           string       `json:"notes,omitempty" bson:"notes,omitempty"`
	CancelledAt     *time.Time   `json:"cancelledAt,omitempty" bson:"cancelledAt,omitempty"`
	CancelledReason string       `json:"cancelledReason,omitempty" bson:"cancelledReason,omitempty"`
	CreatedAt       time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt" bson:"updatedAt"`
}
