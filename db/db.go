package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo bundles the client and the collections the service uses. Constructed
// once in main and passed into stores; there is no package-level connection.
type Mongo struct {
	Client *mongo.Client
	Orders *mongo.Collection
	Carts  *mongo.Collection
}

// Connect dials MongoDB and returns typed collection handles.
func Connect(ctx context.Context, uri, dbName string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, err
	}

	database := client.Database(dbName)
	return &Mongo{
		Client: client,
		Orders: database.Collection("orders"),
		Carts:  database.Collection("carts"),
	}, nil
}

// EnsureIndexes creates the uniqueness and lookup indexes the stores rely on.
// The unique index on orderNumber is the actual collision guarantee for order
// number allocation; the allocator's pre-check is only an optimization.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	orderIdxs := []mongo.IndexModel{
		{
			Keys:    bson.M{"orderNumber": 1},
			Options: options.Index().SetUnique(true).SetName("unique_order_number"),
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Keys:    bson.M{"payment.paymentIntentId": 1},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys:    bson.M{"payment.checkoutSessionId": 1},
			Options: options.Index().SetSparse(true),
		},
	}
	if _, err := m.Orders.Indexes().CreateMany(ctx, orderIdxs); err != nil {
		return err
	}

	cartIdxs := []mongo.IndexModel{
		{
			Keys:    bson.M{"userId": 1},
			Options: options.Index().SetUnique(true).SetName("unique_cart_owner"),
		},
	}
	_, err := m.Carts.Indexes().CreateMany(ctx, cartIdxs)
	return err
}

// Close disconnects the underlying client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
