package payevents

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"verlo/models"
	"verlo/orders"

	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v78"
)

// OrderStore is the slice of the order store the processor needs.
type OrderStore interface {
	FindByPaymentIntent(ctx context.Context, intentID string) (*models.Order, error)
	FindByCheckoutSession(ctx context.Context, sessionID string) (*models.Order, error)
	ApplyTransition(ctx context.Context, id string, t orders.Transition) (*models.Order, error)
	AttachPaymentIntent(ctx context.Context, sessionID, intentID string) error
}

// Processor consumes payment-processor webhook events and applies idempotent
// state transitions to matching orders. Delivery is at-least-once and may be
// out of order, so every transition is conditional on the order's current
// status rather than a blind overwrite.
type Processor struct {
	store  OrderStore
	secret string
	rdb    *redis.Client // optional event-id dedupe
}

func NewProcessor(store OrderStore, webhookSecret string, rdb *redis.Client) *Processor {
	return &Processor{store: store, secret: webhookSecret, rdb: rdb}
}

// Process applies one verified event. A nil return means the event is
// acknowledged: handled, already applied, or not ours to handle. A non-nil
// return means a transient failure; the caller signals the processor to
// redeliver.
func (p *Processor) Process(ctx context.Context, event stripe.Event) error {
	switch string(event.Type) {
	case "payment_intent.succeeded":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			log.Printf("Process: bad payment_intent payload in %s: %v", event.ID, err)
			return nil
		}
		return p.transitionByIntent(ctx, intent.ID, orders.Transition{
			From:          orders.AllowedFrom(models.OrderProcessing),
			Status:        models.OrderProcessing,
			PaymentStatus: models.PaymentPaid,
		})

	case "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			log.Printf("Process: bad payment_intent payload in %s: %v", event.ID, err)
			return nil
		}
		now := time.Now().UTC()
		return p.transitionByIntent(ctx, intent.ID, orders.Transition{
			From:            []string{models.OrderPending},
			Status:          models.OrderCancelled,
			PaymentStatus:   models.PaymentFailed,
			CancelledAt:     &now,
			CancelledReason: "payment failed",
		})

	case "charge.refunded":
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			log.Printf("Process: bad charge payload in %s: %v", event.ID, err)
			return nil
		}
		if charge.PaymentIntent == nil || charge.PaymentIntent.ID == "" {
			log.Printf("Process: charge %s carries no payment intent, ignoring", charge.ID)
			return nil
		}
		now := time.Now().UTC()
		return p.transitionByIntent(ctx, charge.PaymentIntent.ID, orders.Transition{
			From:            orders.AllowedFrom(models.OrderCancelled),
			Status:          models.OrderCancelled,
			PaymentStatus:   models.PaymentRefunded,
			CancelledAt:     &now,
			CancelledReason: "charge refunded",
		})

	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			log.Printf("Process: bad checkout session payload in %s: %v", event.ID, err)
			return nil
		}
		if session.PaymentIntent == nil || session.PaymentIntent.ID == "" {
			return nil
		}
		// Record the correlation so later intent-scoped events can find the
		// order. A session with no matching order needs no further action.
		return p.store.AttachPaymentIntent(ctx, session.ID, session.PaymentIntent.ID)

	default:
		log.Printf("Process: ignoring event type %s", event.Type)
		return nil
	}
}

// transitionByIntent looks up the order correlated with the payment intent
// and applies the conditional transition. An unknown intent or an ineligible
// current status acknowledges the event without error.
func (p *Processor) transitionByIntent(ctx context.Context, intentID string, t orders.Transition) error {
	if intentID == "" {
		return nil
	}

	order, err := p.store.FindByPaymentIntent(ctx, intentID)
	if errors.Is(err, orders.ErrNotFound) {
		log.Printf("Process: no order for payment intent %s, acknowledging", intentID)
		return nil
	}
	if err != nil {
		return err
	}

	_, err = p.store.ApplyTransition(ctx, order.ID, t)
	if errors.Is(err, orders.ErrNotEligible) {
		// Replayed or out-of-order delivery: the order already moved on.
		log.Printf("Process: order %s not eligible for %s, treating as replay", order.OrderNumber, t.Status)
		return nil
	}
	return err
}

// markSeen records the event id so exact duplicates can be acknowledged
// without reprocessing. Best effort: if Redis is unavailable the event is
// processed anyway, which is safe because transitions are conditional.
func (p *Processor) markSeen(ctx context.Context, eventID string) bool {
	if p.rdb == nil || eventID == "" {
		return true
	}
	ok, err := p.rdb.SetNX(ctx, "stripe_evt:"+eventID, "1", 24*time.Hour).Result()
	if err != nil {
		log.Printf("markSeen: dedupe unavailable for %s: %v", eventID, err)
		return true
	}
	return ok
}

func (p *Processor) unmarkSeen(eventID string) {
	if p.rdb == nil || eventID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.rdb.Del(ctx, "stripe_evt:"+eventID).Err(); err != nil {
		log.Printf("unmarkSeen: failed for %s: %v", eventID, err)
	}
}
