package catalog

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoDatabase   = "mosaic"
	mongoCollection = "sounds"
)

// MongoStore keeps the catalog in a MongoDB collection, for setups
// where several machines share one source collection.
type MongoStore struct {
	client *mongo.Client
}

func NewMongoStore(ctx context.Context, uri string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &MongoStore{client: client}, nil
}

func (ms *MongoStore) coll() *mongo.Collection {
	return ms.client.Database(mongoDatabase).Collection(mongoCollection)
}

// Save replaces the stored catalog with records.
func (ms *MongoStore) Save(ctx context.Context, records []Record) error {
	coll := ms.coll()
	if _, err := coll.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("mongo clear: %w", err)
	}
	docs := make([]interface{}, len(records))
	for i, r := range records {
		docs[i] = r
	}
	if _, err := coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("mongo insert: %w", err)
	}
	return nil
}

func (ms *MongoStore) Load(ctx context.Context) ([]Record, error) {
	cur, err := ms.coll().Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	var records []Record
	if err := cur.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("mongo decode: %w", err)
	}
	return records, nil
}

func (ms *MongoStore) Close(ctx context.Context) error {
	return ms.client.Disconnect(ctx)
}
