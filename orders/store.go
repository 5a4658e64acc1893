package orders

import (
	"context"
	"errors"
	"time"

	"verlo/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound means no order matched, or it is not owned by the caller.
	ErrNotFound = errors.New("order not found")
	// ErrNotEligible means the conditional transition matched no document:
	// the order's current status is outside the transition's allowed set.
	ErrNotEligible = errors.New("order status does not permit this transition")
	// ErrDuplicateNumber surfaces the storage-layer uniqueness violation on
	// orderNumber; callers retry allocation rather than treating it as a
	// generic write failure.
	ErrDuplicateNumber = errors.New("order number already in use")
)

// Transition describes a conditional status update. From is the set of
// current statuses the update may apply from; the write lands only if the
// stored status is still one of them.
type Transition struct {
	From            []string
	Status          string
	PaymentStatus   string
	TrackingNumber  string
	Carrier         string
	CancelledReason string
	CancelledAt     *time.Time
}

// Store persists Order aggregates.
type Store interface {
	Insert(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, userID, id string) (*models.Order, error)
	FindByNumber(ctx context.Context, userID, number string) (*models.Order, error)
	FindByPaymentIntent(ctx context.Context, intentID string) (*models.Order, error)
	FindByCheckoutSession(ctx context.Context, sessionID string) (*models.Order, error)
	List(ctx context.Context, userID, status string, page, limit int) ([]models.Order, int64, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	ApplyTransition(ctx context.Context, id string, t Transition) (*models.Order, error)
	AttachPaymentIntent(ctx context.Context, sessionID, intentID string) error
}

// MongoStore is the MongoDB-backed Store.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(col *mongo.Collection) *MongoStore {
	return &MongoStore{col: col}
}

func (s *MongoStore) Insert(ctx context.Context, order *models.Order) error {
	_, err := s.col.InsertOne(ctx, order)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateNumber
	}
	return err
}

func (s *MongoStore) FindByID(ctx context.Context, userID, id string) (*models.Order, error) {
	return s.findOne(ctx, bson.M{"_id": id, "userId": userID})
}

func (s *MongoStore) FindByNumber(ctx context.Context, userID, number string) (*models.Order, error) {
	return s.findOne(ctx, bson.M{"orderNumber": number, "userId": userID})
}

func (s *MongoStore) FindByPaymentIntent(ctx context.Context, intentID string) (*models.Order, error) {
	return s.findOne(ctx, bson.M{"payment.paymentIntentId": intentID})
}

func (s *MongoStore) FindByCheckoutSession(ctx context.Context, sessionID string) (*models.Order, error) {
	return s.findOne(ctx, bson.M{"payment.checkoutSessionId": sessionID})
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*models.Order, error) {
	var order models.Order
	err := s.col.FindOne(ctx, filter).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *MongoStore) List(ctx context.Context, userID, status string, page, limit int) ([]models.Order, int64, error) {
	filter := bson.M{"userId": userID}
	if status != "" {
		filter["status"] = status
	}

	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := s.col.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, total, nil
}

func (s *MongoStore) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	count, err := s.col.CountDocuments(ctx, bson.M{"orderNumber": number}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ApplyTransition performs the conditional state update as a single
// FindOneAndUpdate, so concurrent webhook deliveries and user actions on the
// same order cannot interleave a lost read-modify-write. Whichever write
// lands second sees the already-updated status, misses the filter and gets
// ErrNotEligible.
func (s *MongoStore) ApplyTransition(ctx context.Context, id string, t Transition) (*models.Order, error) {
	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$in": t.From},
	}

	set := bson.M{
		"status":    t.Status,
		"updatedAt": time.Now().UTC(),
	}
	if t.PaymentStatus != "" {
		set["payment.status"] = t.PaymentStatus
	}
	if t.TrackingNumber != "" {
		set["shipping.trackingNumber"] = t.TrackingNumber
	}
	if t.Carrier != "" {
		set["shipping.carrier"] = t.Carrier
	}
	if t.CancelledAt != nil {
		set["cancelledAt"] = t.CancelledAt
		set["cancelledReason"] = t.CancelledReason
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Order
	err := s.col.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotEligible
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// AttachPaymentIntent records the payment intent discovered on a completed
// checkout session, if an order carries that session and has no intent yet.
// Matching no order is not an error; the processor does not know about every
// external session.
func (s *MongoStore) AttachPaymentIntent(ctx context.Context, sessionID, intentID string) error {
	filter := bson.M{
		"payment.checkoutSessionId": sessionID,
		"payment.paymentIntentId":   bson.M{"$in": bson.A{"", nil}},
	}
	update := bson.M{"$set": bson.M{
		"payment.paymentIntentId": intentID,
		"updatedAt":               time.Now().UTC(),
	}}
	_, err := s.col.UpdateOne(ctx, filter, update)
	return err
}
