package cart

import (
	"context"
	"time"

	"verlo/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store persists Cart aggregates, one per user.
type Store interface {
	// Get returns the user's cart, or nil when none has been persisted yet.
	Get(ctx context.Context, userID string) (*models.Cart, error)
	// Save upserts the whole cart, keyed on the unique userId index.
	Save(ctx context.Context, cart *models.Cart) error
	// Clear empties items and zeroes the subtotal without deleting the cart.
	Clear(ctx context.Context, userID string) error
}

// MongoStore is the MongoDB-backed Store.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(col *mongo.Collection) *MongoStore {
	return &MongoStore{col: col}
}

func (s *MongoStore) Get(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	err := s.col.FindOne(ctx, bson.M{"userId": userID}).Decode(&cart)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *MongoStore) Save(ctx context.Context, cart *models.Cart) error {
	opts := options.Replace().SetUpsert(true)
	_, err := s.col.ReplaceOne(ctx, bson.M{"userId": cart.UserID}, cart, opts)
	return err
}

func (s *MongoStore) Clear(ctx context.Context, userID string) error {
	update := bson.M{"$set": bson.M{
		"items":     []models.CartItem{},
		"subtotal":  0.0,
		"updatedAt": time.Now().UTC(),
	}}
	// A user who never had a cart has nothing to clear.
	_, err := s.col.UpdateOne(ctx, bson.M{"userId": userID}, update)
	return err
}
