// Package config provides configuration file loading for cacheman.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/cacheman-mongo/infrastructure/storage/mongodb"
)

// Errors returned by the loader.
var (
	// ErrConfigNotFound is returned when the config file does not exist.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidFormat is returned when the config file cannot be parsed.
	ErrInvalidFormat = errors.New("invalid config format")
)

// Host is one MongoDB host entry in a config file.
type Host struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// File is the on-disk configuration format. Durations are integer
// seconds.
type File struct {
	URI          string `yaml:"uri"`
	Hosts        []Host `yaml:"hosts"`
	Database     string `yaml:"database"`
	Collection   string `yaml:"collection"`
	Compression  bool   `yaml:"compression"`
	TTL          int    `yaml:"ttl"`
	ReplicaSet   string `yaml:"replica_set"`
	ReadConcern  string `yaml:"read_concern"`
	WriteConcern string `yaml:"write_concern"`

	ConnectTimeout int `yaml:"connect_timeout"`
	QueryTimeout   int `yaml:"query_timeout"`

	Pool struct {
		Min uint64 `yaml:"min"`
		Max uint64 `yaml:"max"`
	} `yaml:"pool"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Loader loads cacheman configuration from files.
type Loader struct {
	// ExpandEnv enables environment variable expansion in the file.
	ExpandEnv bool
}

// NewLoader creates a loader with default settings.
func NewLoader() *Loader {
	return &Loader{ExpandEnv: true}
}

// LoadFile loads configuration from a file path.
func (l *Loader) LoadFile(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to access config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidFormat, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if l.ExpandEnv {
		data = []byte(os.ExpandEnv(string(data)))
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	return &f, nil
}

// CacheConfig maps the file to a MongoDB cache configuration. Unset
// fields stay zero so the store applies its own defaults.
func (f *File) CacheConfig() mongodb.Config {
	cfg := mongodb.Config{
		URI:            f.URI,
		Database:       f.Database,
		Collection:     f.Collection,
		Compression:    f.Compression,
		DefaultTTL:     time.Duration(f.TTL) * time.Second,
		ReplicaSet:     f.ReplicaSet,
		ReadConcern:    f.ReadConcern,
		WriteConcern:   f.WriteConcern,
		ConnectTimeout: time.Duration(f.ConnectTimeout) * time.Second,
		QueryTimeout:   time.Duration(f.QueryTimeout) * time.Second,
		MinPoolSize:    f.Pool.Min,
		MaxPoolSize:    f.Pool.Max,
	}

	for _, h := range f.Hosts {
		cfg.Hosts = append(cfg.Hosts, mongodb.HostPort{Host: h.Host, Port: h.Port})
	}

	return cfg
}
