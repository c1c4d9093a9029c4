// Package cache stores site-quality reports so repeated searches over the
// same businesses do not rerun slow Lighthouse audits.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/sells-group/seo-lead-finder/internal/config"
	"github.com/sells-group/seo-lead-finder/internal/model"
)

// Cache is a TTL store of quality reports keyed by website URL.
type Cache interface {
	Get(ctx context.Context, url string) (*model.QualityReport, bool, error)
	Set(ctx context.Context, url string, report *model.QualityReport, ttl time.Duration) error
	Close() error
}

const keyPrefix = "seo:quality:"

// Key returns the storage key for url.
func Key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// New builds the cache selected by cfg.Driver: "redis", "memory" or "none".
func New(cfg config.CacheConfig) (Cache, error) {
	switch cfg.Driver {
	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, eris.Wrap(err, "cache: parse redis url")
		}
		return NewRedis(redis.NewClient(opts)), nil
	case "memory":
		return NewMemory(), nil
	case "none", "":
		return Nop{}, nil
	default:
		return nil, eris.Errorf("cache: unknown driver %q", cfg.Driver)
	}
}

// TTL converts the configured hours to a duration, defaulting to a day.
func TTL(cfg config.CacheConfig) time.Duration {
	if cfg.TTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(cfg.TTLHours) * time.Hour
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) (*model.QualityReport, bool, error) { return nil, false, nil }

func (Nop) Set(context.Context, string, *model.QualityReport, time.Duration) error { return nil }

func (Nop) Close() error { return nil }
