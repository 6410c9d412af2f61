// Package cache memoizes evaluation results keyed by the normalized request.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"airflow/config"

	log "github.com/sirupsen/logrus"
)

// Cache stores opaque payloads. A miss is (nil, false, nil), never an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// New builds the backend selected by cfg.Driver.
func New(ctx context.Context, cfg config.Cache) (Cache, error) {
	switch cfg.Driver {
	case "", "none":
		return NewNullCache(), nil
	case "memory":
		return NewMemoryCache(), nil
	case "redis":
		c, err := NewRedisCache(ctx, cfg.Addr, cfg.DB)
		if err != nil {
			return nil, err
		}
		log.WithFields(log.Fields{"addr": cfg.Addr, "db": cfg.DB}).Info("redis 缓存已连接")
		return c, nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

// Key hashes parts into prefix:sha256. Parts must be JSON-serializable.
func Key(prefix string, parts ...interface{}) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}
