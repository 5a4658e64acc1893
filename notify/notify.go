package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"verlo/models"

	"github.com/redis/go-redis/v9"
)

const channel = "order-notifications"

// OrderConfirmation is the message handed to the mail worker.
type OrderConfirmation struct {
	Type        string  `json:"type"`
	OrderID     string  `json:"orderId"`
	OrderNumber string  `json:"orderNumber"`
	UserID      string  `json:"userId"`
	Total       float64 `json:"total"`
	Currency    string  `json:"currency"`
}

// Sender delivers a confirmation to the external email collaborator.
type Sender interface {
	SendOrderConfirmation(ctx context.Context, msg OrderConfirmation) error
}

// LogSender stands in for the external email service.
type LogSender struct{}

func (LogSender) SendOrderConfirmation(_ context.Context, msg OrderConfirmation) error {
	log.Printf("[Notify] order confirmation email for %s (order %s, %.2f %s)",
		msg.UserID, msg.OrderNumber, msg.Total, msg.Currency)
	return nil
}

// Notifier publishes confirmation messages to Redis, decoupled from the
// request/response cycle. Failures are logged and swallowed: a lost email
// never fails an order.
type Notifier struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// OrderConfirmation fires the confirmation asynchronously and returns
// immediately.
func (n *Notifier) OrderConfirmation(order *models.Order) {
	if n == nil || n.rdb == nil || order == nil {
		return
	}

	msg := OrderConfirmation{
		Type:        "order_confirmation",
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Total:       order.Total,
		Currency:    order.Payment.Currency,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		data, err := json.Marshal(msg)
		if err != nil {
			log.Printf("[Notify] failed to marshal confirmation for order %s: %v", msg.OrderNumber, err)
			return
		}
		if err := n.rdb.Publish(ctx, channel, data).Err(); err != nil {
			log.Printf("[Notify] failed to publish confirmation for order %s: %v", msg.OrderNumber, err)
		}
	}()
}

// StartWorker consumes confirmation messages until ctx is cancelled.
func (n *Notifier) StartWorker(ctx context.Context, sender Sender) {
	if n == nil || n.rdb == nil {
		return
	}
	if sender == nil {
		sender = LogSender{}
	}

	sub := n.rdb.Subscribe(ctx, channel)
	defer sub.Close()
	ch := sub.Channel()

	log.Println("[Notify] worker listening for order confirmations...")

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var confirmation OrderConfirmation
			if err := json.Unmarshal([]byte(msg.Payload), &confirmation); err != nil {
				log.Printf("[Notify] failed to parse confirmation: %v", err)
				continue
			}
			if err := sender.SendOrderConfirmation(ctx, confirmation); err != nil {
				log.Printf("[Notify] failed to send confirmation for order %s: %v", confirmation.OrderNumber, err)
			}
		}
	}
}
