package mongodb

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/cacheman-mongo/domain/cache"
	"github.com/felixgeelhaar/cacheman-mongo/infrastructure/logging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// entryDocument is the MongoDB document representation of a cache entry.
type entryDocument struct {
	Key        string    `bson:"key"`
	Value      any       `bson:"value"`
	Compressed bool      `bson:"compressed,omitempty"`
	ExpiresAt  time.Time `bson:"expiresAt"`
}

// expired checks if the entry's TTL has elapsed. Read-time expiry is
// always checked, regardless of the server-side TTL monitor: the monitor
// runs periodically and an expired document may still be present.
func (d *entryDocument) expired() bool {
	return !d.ExpiresAt.IsZero() && time.Now().After(d.ExpiresAt)
}

// Cache is a MongoDB-backed implementation of cache.Cache.
type Cache struct {
	client       *mongo.Client
	collection   *mongo.Collection
	ownsClient   bool
	compression  bool
	defaultTTL   time.Duration
	queryTimeout time.Duration
	hits         atomic.Int64
	misses       atomic.Int64
}

// NewCache connects to MongoDB and returns a cache backed by the
// configured collection. The collection's indexes are ensured before
// returning; an index creation failure is logged but does not fail
// construction, since the cache degrades to read-time expiry only.
func NewCache(ctx context.Context, cfg Config, opts ...ConfigOption) (*Cache, error) {
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg = cfg.resolve()

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, cfg.clientOptions())
	if err != nil {
		return nil, errors.Join(cache.ErrConnectionFailed, err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer pingCancel()

	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Join(cache.ErrConnectionFailed, err)
	}

	c := newCache(client, cfg)
	c.ownsClient = true
	c.ensureIndexes(ctx, cfg)

	return c, nil
}

// NewCacheFromClient creates a cache from an already-connected client.
// The caller retains ownership of the client; Close will not disconnect it.
func NewCacheFromClient(ctx context.Context, client *mongo.Client, cfg Config, opts ...ConfigOption) *Cache {
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg = cfg.resolve()

	c := newCache(client, cfg)
	c.ensureIndexes(ctx, cfg)

	return c
}

func newCache(client *mongo.Client, cfg Config) *Cache {
	return &Cache{
		client:       client,
		collection:   client.Database(cfg.Database).Collection(cfg.Collection),
		compression:  cfg.Compression,
		defaultTTL:   cfg.DefaultTTL,
		queryTimeout: cfg.QueryTimeout,
	}
}

// ensureIndexes declares the key uniqueness index and the server-side
// expiration index. The expiration index uses expireAfterSeconds 0 so
// each document is reaped at its own expiresAt timestamp.
//
// Uniqueness lives on the key field, not the expiration field: one
// entry per key is the invariant the upsert relies on.
func (c *Cache) ensureIndexes(ctx context.Context, cfg Config) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}

	if _, err := c.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logging.Warn().
			Add(logging.Database(cfg.Database)).
			Add(logging.Collection(cfg.Collection)).
			Add(logging.ErrorField(err)).
			Msg("cache index creation failed, relying on read-time expiry")
	}
}

// Get retrieves a value from the cache. A missing or expired entry is a
// miss, not an error. Expired entries trigger an asynchronous removal.
func (c *Cache) Get(ctx context.Context, key string) (any, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	var doc entryDocument
	err := c.collection.FindOne(ctx, bson.M{"key": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.misses.Add(1)
			return nil, false, nil
		}
		return nil, false, c.wrapError(err)
	}

	if doc.expired() {
		c.misses.Add(1)
		c.removeExpired(key)
		return nil, false, nil
	}

	if doc.Compressed {
		raw, ok := binaryPayload(doc.Value)
		if !ok {
			return nil, false, cache.ErrCorruptValue
		}
		value, err := decompress(raw)
		if err != nil {
			return nil, false, err
		}
		c.hits.Add(1)
		return value, true, nil
	}

	c.hits.Add(1)
	return normalizeValue(doc.Value), true, nil
}

// Set stores a value in the cache, replacing any existing entry for the
// key. The per-call TTL takes precedence; zero falls back to the store
// default. Binary values are gzipped when compression is enabled.
func (c *Cache) Set(ctx context.Context, key string, value any, opts cache.SetOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if key == "" {
		return cache.ErrInvalidKey
	}

	ttl := opts.TTL
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	doc := entryDocument{
		Key:       key,
		Value:     value,
		ExpiresAt: time.Now().Add(ttl),
	}

	if c.compression {
		if raw, ok := binaryPayload(value); ok {
			compressed, err := compress(raw)
			if err != nil {
				return err
			}
			doc.Value = primitive.Binary{Subtype: 0x00, Data: compressed}
			doc.Compressed = true
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	_, err := c.collection.ReplaceOne(ctx, bson.M{"key": key}, doc,
		options.Replace().SetUpsert(true))
	if err != nil {
		return c.wrapError(err)
	}

	return nil
}

// Delete removes a value from the cache. Deleting a missing key succeeds.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	if _, err := c.collection.DeleteOne(ctx, bson.M{"key": key}); err != nil {
		return c.wrapError(err)
	}

	return nil
}

// Exists checks if a live entry exists for the key.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	filter := bson.M{
		"key":       key,
		"expiresAt": bson.M{"$gt": time.Now()},
	}

	count, err := c.collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, c.wrapError(err)
	}

	return count > 0, nil
}

// Clear removes every entry in the collection.
func (c *Cache) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	if _, err := c.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return c.wrapError(err)
	}

	return nil
}

// Stats returns cache statistics.
func (c *Cache) Stats() cache.Stats {
	return cache.Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   -1, // not tracked for MongoDB
	}
}

// Ping checks the MongoDB connection.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, nil)
}

// Close disconnects from MongoDB if this cache owns the client.
func (c *Cache) Close(ctx context.Context) error {
	if !c.ownsClient {
		return nil
	}
	return c.client.Disconnect(ctx)
}

// Collection returns the underlying collection for advanced operations.
func (c *Cache) Collection() *mongo.Collection {
	return c.collection
}

// removeExpired deletes an expired entry encountered on read. The delete
// is fire-and-forget: the entry is already a miss either way, and the
// server-side TTL monitor would reap it eventually.
func (c *Cache) removeExpired(key string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.queryTimeout)
		defer cancel()

		if _, err := c.collection.DeleteOne(ctx, bson.M{"key": key}); err != nil {
			logging.Debug().
				Add(logging.Key(key)).
				Add(logging.ErrorField(err)).
				Msg("failed to remove expired cache entry")
		}
	}()
}

// normalizeValue maps driver-native binary values back to []byte.
func normalizeValue(v any) any {
	if b, ok := v.(primitive.Binary); ok {
		return b.Data
	}
	return v
}

// wrapError wraps driver errors with domain errors.
func (c *Cache) wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(cache.ErrOperationTimeout, err)
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.Join(cache.ErrOperationTimeout, err)
	}

	return err
}

// Ensure Cache implements cache.Cache and cache.StatsProvider
var (
	_ cache.Cache         = (*Cache)(nil)
	_ cache.StatsProvider = (*Cache)(nil)
)
