// Package mongodb provides a MongoDB-backed cache storage implementation.
package mongodb

import (
	"crypto/tls"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// HostPort identifies a single MongoDB host.
type HostPort struct {
	Host string
	Port int
}

// Config holds MongoDB cache configuration.
type Config struct {
	// URI is the MongoDB connection string. When set it takes precedence
	// over Hosts.
	URI string

	// Hosts lists the MongoDB hosts to connect to.
	Hosts []HostPort

	// Database is the database name.
	Database string

	// Collection is the collection holding cache entries.
	Collection string

	// Compression enables transparent gzip compression of binary values.
	Compression bool

	// DefaultTTL applies to Set calls that specify no TTL of their own.
	DefaultTTL time.Duration

	// ReplicaSet names the replica set to connect to (optional).
	ReplicaSet string

	// TLS configures transport security (optional).
	TLS *tls.Config

	// ReadConcern is the read concern level (local, majority, available,
	// linearizable, snapshot). Empty means the driver default.
	ReadConcern string

	// WriteConcern is the write acknowledgement requirement: "majority",
	// "journaled", or a number of nodes. Empty means majority.
	WriteConcern string

	// ConnectTimeout is the timeout for initial connection.
	ConnectTimeout time.Duration

	// QueryTimeout is the default timeout for cache operations.
	QueryTimeout time.Duration

	// MaxPoolSize is the maximum connection pool size.
	MaxPoolSize uint64

	// MinPoolSize is the minimum connection pool size.
	MinPoolSize uint64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Hosts:          []HostPort{{Host: "127.0.0.1", Port: 27017}},
		Database:       "cacheman",
		Collection:     "cacheman",
		DefaultTTL:     60 * time.Second,
		ConnectTimeout: 10 * time.Second,
		QueryTimeout:   30 * time.Second,
		MaxPoolSize:    100,
		MinPoolSize:    10,
	}
}

// ConfigOption configures the MongoDB cache.
type ConfigOption func(*Config)

// WithURI sets the MongoDB connection URI.
func WithURI(uri string) ConfigOption {
	return func(c *Config) {
		c.URI = uri
	}
}

// WithHosts sets the MongoDB hosts.
func WithHosts(hosts ...HostPort) ConfigOption {
	return func(c *Config) {
		c.Hosts = hosts
	}
}

// WithDatabase sets the database name.
func WithDatabase(db string) ConfigOption {
	return func(c *Config) {
		c.Database = db
	}
}

// WithCollection sets the collection name.
func WithCollection(name string) ConfigOption {
	return func(c *Config) {
		c.Collection = name
	}
}

// WithCompression enables or disables value compression.
func WithCompression(enabled bool) ConfigOption {
	return func(c *Config) {
		c.Compression = enabled
	}
}

// WithDefaultTTL sets the store-level default TTL.
func WithDefaultTTL(ttl time.Duration) ConfigOption {
	return func(c *Config) {
		c.DefaultTTL = ttl
	}
}

// WithReplicaSet sets the replica set name.
func WithReplicaSet(name string) ConfigOption {
	return func(c *Config) {
		c.ReplicaSet = name
	}
}

// WithTLS sets the TLS configuration.
func WithTLS(cfg *tls.Config) ConfigOption {
	return func(c *Config) {
		c.TLS = cfg
	}
}

// WithReadConcern sets the read concern level.
func WithReadConcern(level string) ConfigOption {
	return func(c *Config) {
		c.ReadConcern = level
	}
}

// WithWriteConcern sets the write acknowledgement requirement.
func WithWriteConcern(w string) ConfigOption {
	return func(c *Config) {
		c.WriteConcern = w
	}
}

// WithPoolSize sets the connection pool bounds.
func WithPoolSize(min, max uint64) ConfigOption {
	return func(c *Config) {
		c.MinPoolSize = min
		c.MaxPoolSize = max
	}
}

// WithTimeouts sets the connect and query timeouts.
func WithTimeouts(connect, query time.Duration) ConfigOption {
	return func(c *Config) {
		c.ConnectTimeout = connect
		c.QueryTimeout = query
	}
}

// resolve fills in defaults for unset fields and returns a new Config.
// The receiver is a value, so caller-supplied configuration is never
// mutated.
func (c Config) resolve() Config {
	defaults := DefaultConfig()

	if c.URI == "" && len(c.Hosts) == 0 {
		c.Hosts = defaults.Hosts
	}
	if c.Database == "" {
		c.Database = defaults.Database
	}
	if c.Collection == "" {
		c.Collection = defaults.Collection
	}
	if c.DefaultTTL == 0 {
		c.DefaultTTL = defaults.DefaultTTL
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = defaults.ConnectTimeout
	}
	if c.QueryTimeout == 0 {
		c.QueryTimeout = defaults.QueryTimeout
	}
	if c.MaxPoolSize == 0 {
		c.MaxPoolSize = defaults.MaxPoolSize
	}
	if c.MinPoolSize == 0 {
		c.MinPoolSize = defaults.MinPoolSize
	}

	return c
}

// connectionURI returns the URI to connect with, building one from Hosts
// when no explicit URI is configured.
func (c Config) connectionURI() string {
	if c.URI != "" {
		return c.URI
	}

	addrs := make([]string, len(c.Hosts))
	for i, h := range c.Hosts {
		host := h.Host
		if host == "" {
			host = "127.0.0.1"
		}
		port := h.Port
		if port == 0 {
			port = 27017
		}
		addrs[i] = fmt.Sprintf("%s:%d", host, port)
	}

	return "mongodb://" + strings.Join(addrs, ",")
}

// clientOptions maps the configuration to driver client options.
func (c Config) clientOptions() *options.ClientOptions {
	opts := options.Client().
		ApplyURI(c.connectionURI()).
		SetMaxPoolSize(c.MaxPoolSize).
		SetMinPoolSize(c.MinPoolSize).
		SetConnectTimeout(c.ConnectTimeout).
		SetWriteConcern(c.writeConcern())

	if c.ReplicaSet != "" {
		opts.SetReplicaSet(c.ReplicaSet)
	}
	if c.TLS != nil {
		opts.SetTLSConfig(c.TLS)
	}
	if rc := c.readConcern(); rc != nil {
		opts.SetReadConcern(rc)
	}

	return opts
}

// writeConcern parses the configured write acknowledgement requirement.
// Every cache write is acknowledged; unacknowledged writes are not
// supported.
func (c Config) writeConcern() *writeconcern.WriteConcern {
	switch c.WriteConcern {
	case "", "majority":
		return writeconcern.Majority()
	case "journaled":
		return writeconcern.Journaled()
	default:
		if n, err := strconv.Atoi(c.WriteConcern); err == nil && n > 0 {
			return &writeconcern.WriteConcern{W: n}
		}
		return writeconcern.Majority()
	}
}

// readConcern parses the configured read concern level.
func (c Config) readConcern() *readconcern.ReadConcern {
	switch c.ReadConcern {
	case "local":
		return readconcern.Local()
	case "majority":
		return readconcern.Majority()
	case "available":
		return readconcern.Available()
	case "linearizable":
		return readconcern.Linearizable()
	case "snapshot":
		return readconcern.Snapshot()
	default:
		return nil
	}
}
