// Package config reads runtime settings from the environment.
//
// A .env file in the working directory is loaded first when present;
// variables already set in the environment win over it.
//
//	STACKRECIPE_ADDR        API listen address (":8080")
//	STACKRECIPE_CACHE       file | lru | redis | none ("file")
//	STACKRECIPE_CACHE_TTL   cache entry lifetime ("24h")
//	STACKRECIPE_CACHE_DIR   file cache directory ($XDG_CACHE_HOME/stackrecipe)
//	STACKRECIPE_LRU_SIZE    LRU entry bound (1024)
//	STACKRECIPE_REDIS_URL   redis://host:port/db, required for the redis cache
//	STACKRECIPE_MONGO_URI   lock store; the in-memory store is used when empty
//	STACKRECIPE_MONGO_DB    database name ("stackrecipe")
package config

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/matzehuels/stackrecipe/pkg/cache"
	"github.com/matzehuels/stackrecipe/pkg/errors"
	"github.com/matzehuels/stackrecipe/pkg/store"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheLRU   = "lru"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Defaults.
const (
	DefaultAddr     = ":8080"
	DefaultCacheTTL = 24 * time.Hour
	DefaultMongoDB  = "stackrecipe"
)

// Config holds runtime settings.
type Config struct {
	Addr  string
	Cache CacheConfig
	Mongo MongoConfig
}

// CacheConfig selects and configures the resolution cache.
type CacheConfig struct {
	Backend  string
	TTL      time.Duration
	Dir      string
	LRUSize  int
	RedisURL string
}

// MongoConfig configures the lock store.
type MongoConfig struct {
	URI string
	DB  string
}

// Load reads .env files (default ".env"; missing files are ignored) and
// then the environment.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", f)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function such as os.Getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Addr: get("STACKRECIPE_ADDR", DefaultAddr),
		Cache: CacheConfig{
			Backend:  strings.ToLower(get("STACKRECIPE_CACHE", CacheFile)),
			Dir:      get("STACKRECIPE_CACHE_DIR", ""),
			RedisURL: get("STACKRECIPE_REDIS_URL", ""),
		},
		Mongo: MongoConfig{
			URI: get("STACKRECIPE_MONGO_URI", ""),
			DB:  get("STACKRECIPE_MONGO_DB", DefaultMongoDB),
		},
	}
	if !strings.Contains(cfg.Addr, ":") {
		cfg.Addr = ":" + cfg.Addr
	}

	ttl, err := time.ParseDuration(get("STACKRECIPE_CACHE_TTL", DefaultCacheTTL.String()))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "STACKRECIPE_CACHE_TTL")
	}
	cfg.Cache.TTL = ttl

	size, err := strconv.Atoi(get("STACKRECIPE_LRU_SIZE", strconv.Itoa(cache.DefaultLRUSize)))
	if err != nil || size <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "STACKRECIPE_LRU_SIZE must be a positive integer")
	}
	cfg.Cache.LRUSize = size

	switch cfg.Cache.Backend {
	case CacheFile, CacheLRU, CacheNone:
	case CacheRedis:
		if cfg.Cache.RedisURL == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "STACKRECIPE_CACHE=redis requires STACKRECIPE_REDIS_URL")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q (use file, lru, redis or none)", cfg.Cache.Backend)
	}
	return cfg, nil
}

// OpenCache creates the configured cache backend.
func (c *Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Cache.Backend {
	case CacheNone:
		return cache.NewNullCache(), nil
	case CacheLRU:
		lc, err := cache.NewLRUCache(c.Cache.LRUSize)
		if err != nil {
			return nil, err
		}
		return lc, nil
	case CacheRedis:
		rc, err := cache.NewRedisCache(ctx, c.Cache.RedisURL)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect to redis")
		}
		return rc, nil
	default:
		dir := c.Cache.Dir
		if dir == "" {
			var err error
			if dir, err = cache.DefaultDir(); err != nil {
				return nil, err
			}
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		return fc, nil
	}
}

// OpenStore creates the lock store: MongoDB when a URI is configured,
// memory otherwise.
func (c *Config) OpenStore(ctx context.Context) (store.Store, error) {
	if c.Mongo.URI == "" {
		return store.NewMemoryStore(), nil
	}
	ms, err := store.NewMongoStore(ctx, c.Mongo.URI, c.Mongo.DB)
	if err != nil {
		return nil, err
	}
	return ms, nil
}
