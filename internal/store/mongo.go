// internal/store/mongo.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shelfscout/shelfscout/internal/utils"
	"github.com/shelfscout/shelfscout/pkg/types"
)

var mongoLogger = utils.NewComponentLogger("mongo-store")

// MongoStore implements ProductStore backed by one MongoDB collection.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	opts       Options
}

// NewMongoStore connects to MongoDB and pings it to verify the connection.
func NewMongoStore(ctx context.Context, opts Options) (*MongoStore, error) {
	if opts.ConnectionString == "" {
		return nil, fmt.Errorf("mongodb connection string is required")
	}
	if opts.Database == "" {
		return nil, fmt.Errorf("mongodb database name is required")
	}
	if opts.Collection == "" {
		opts.Collection = "products"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxPoolSize <= 0 {
		opts.MaxPoolSize = 20
	}

	clientOptions := options.Client().
		ApplyURI(opts.ConnectionString).
		SetMaxPoolSize(uint64(opts.MaxPoolSize)).
		SetRetryWrites(true)

	connectCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	mongoLogger.Infof("Connected to MongoDB database %s, collection %s", opts.Database, opts.Collection)

	return &MongoStore{
		client:     client,
		collection: client.Database(opts.Database).Collection(opts.Collection),
		opts:       opts,
	}, nil
}

// identifierFilter builds the disjunctive match filter: any present
// identifier may match, and the stored record must come from a different run.
func identifierFilter(ids types.Identifiers, runVersion string) bson.M {
	conditions := bson.A{}
	for _, field := range ids.Present() {
		conditions = append(conditions, bson.M{field.Name: field.Value})
	}
	return bson.M{
		"scraperRunId": bson.M{"$ne": runVersion},
		"$or":          conditions,
	}
}

// ReplaceMatchFromOtherRun implements ProductStore.
func (s *MongoStore) ReplaceMatchFromOtherRun(ctx context.Context, ids types.Identifiers, runVersion string, product types.StoredProduct) (bool, error) {
	if !ids.Any() {
		return false, nil
	}

	res := s.collection.FindOneAndReplace(ctx, identifierFilter(ids, runVersion), product)
	if err := res.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("failed to replace product: %w", err)
	}
	return true, nil
}

// CountMatchesFromOtherRun implements ProductStore.
func (s *MongoStore) CountMatchesFromOtherRun(ctx context.Context, ids types.Identifiers, runVersion string) (int64, error) {
	if !ids.Any() {
		return 0, nil
	}

	count, err := s.collection.CountDocuments(ctx, identifierFilter(ids, runVersion))
	if err != nil {
		return 0, fmt.Errorf("failed to count matching products: %w", err)
	}
	return count, nil
}

// Insert implements ProductStore.
func (s *MongoStore) Insert(ctx context.Context, product types.StoredProduct) error {
	if _, err := s.collection.InsertOne(ctx, product); err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// FindAll implements ProductStore.
func (s *MongoStore) FindAll(ctx context.Context) ([]types.StoredProduct, error) {
	cursor, err := s.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []types.StoredProduct
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

// Close implements ProductStore.
func (s *MongoStore) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	return nil
}
