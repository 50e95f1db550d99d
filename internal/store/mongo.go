// Package store persists crawled news items to MongoDB. The crawl dedup
// checks (ExistsByURL, ExistsByThread) and Insert are separate operations,
// safe under the single-worker crawl model; concurrent writers would need
// a conditional upsert instead.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gamewatch/gamewatch/internal/config"
	"github.com/gamewatch/gamewatch/internal/types"
)

// Mongo is the MongoDB-backed store.
type Mongo struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
	logger  *slog.Logger
}

// Connect dials MongoDB and verifies the connection.
func Connect(ctx context.Context, cfg config.Store, logger *slog.Logger) (*Mongo, error) {
	dialCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(dialCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, &types.StoreError{Op: "connect", Err: err}
	}
	if err := client.Ping(dialCtx, nil); err != nil {
		return nil, &types.StoreError{Op: "ping", Err: err}
	}

	return &Mongo{
		client:  client,
		db:      client.Database(cfg.Database),
		timeout: cfg.Timeout,
		logger:  logger.With("component", "store"),
	}, nil
}

// Insert writes one item. A duplicate-key rejection is benign: the item is
// already stored and the crawl should move on.
func (m *Mongo) Insert(ctx context.Context, collection string, item *types.NewsItem) error {
	opCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	_, err := m.db.Collection(collection).InsertOne(opCtx, item)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			m.logger.Debug("item already stored", "collection", collection, "title", item.Title)
			return nil
		}
		return &types.StoreError{Op: "insert", Collection: collection, Err: err}
	}

	m.logger.Debug("item stored", "collection", collection, "title", item.Title)
	return nil
}

// ExistsByURL reports whether an item with this source URL is stored.
func (m *Mongo) ExistsByURL(ctx context.Context, collection, url string) (bool, error) {
	return m.exists(ctx, collection, bson.M{"original_url": url})
}

// ExistsByThread reports whether any item from this thread is stored.
func (m *Mongo) ExistsByThread(ctx context.Context, collection, threadID string) (bool, error) {
	return m.exists(ctx, collection, bson.M{"thread_id": threadID})
}

func (m *Mongo) exists(ctx context.Context, collection string, filter bson.M) (bool, error) {
	opCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	n, err := m.db.Collection(collection).CountDocuments(opCtx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, &types.StoreError{Op: "exists", Collection: collection, Err: err}
	}
	return n > 0, nil
}

// Query returns stored items matching the optional category filter, newest
// first, capped at limit.
func (m *Mongo) Query(ctx context.Context, collection string, category types.Category, limit int64) ([]types.NewsItem, error) {
	opCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := m.db.Collection(collection).Find(opCtx, filter, opts)
	if err != nil {
		return nil, &types.StoreError{Op: "query", Collection: collection, Err: err}
	}
	defer cursor.Close(opCtx)

	var items []types.NewsItem
	if err := cursor.All(opCtx, &items); err != nil {
		return nil, &types.StoreError{Op: "decode", Collection: collection, Err: err}
	}
	return items, nil
}

// Clear removes every document in the collection. Used before a full
// recrawl.
func (m *Mongo) Clear(ctx context.Context, collection string) error {
	opCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	res, err := m.db.Collection(collection).DeleteMany(opCtx, bson.M{})
	if err != nil {
		return &types.StoreError{Op: "clear", Collection: collection, Err: err}
	}

	m.logger.Info("collection cleared", "collection", collection, "deleted", res.DeletedCount)
	return nil
}

// EnsureIndexes creates the unique index backing URL dedup.
func (m *Mongo) EnsureIndexes(ctx context.Context, collections ...string) error {
	opCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	model := mongo.IndexModel{
		Keys:    bson.D{{Key: "original_url", Value: 1}},
		Options: options.Index().SetUnique(true).SetSparse(true),
	}
	for _, c := range collections {
		if _, err := m.db.Collection(c).Indexes().CreateOne(opCtx, model); err != nil {
			return &types.StoreError{Op: "index", Collection: c, Err: err}
		}
	}
	return nil
}

// Close disconnects from MongoDB.
func (m *Mongo) Close(ctx context.Context) error {
	closeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := m.client.Disconnect(closeCtx); err != nil {
		return fmt.Errorf("mongodb disconnect: %w", err)
	}
	m.logger.Info("store closed")
	return nil
}
