package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/sells-group/seo-lead-finder/internal/model"
)

// redisClient is the subset of go-redis used here.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Close() error
}

// Redis stores reports as JSON strings with a TTL.
type Redis struct {
	client redisClient
}

// NewRedis wraps a go-redis client.
func NewRedis(client redisClient) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, url string) (*model.QualityReport, bool, error) {
	raw, err := r.client.Get(ctx, Key(url)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "cache: redis get")
	}

	var report model.QualityReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, false, eris.Wrap(err, "cache: decode report")
	}
	return &report, true, nil
}

func (r *Redis) Set(ctx context.Context, url string, report *model.QualityReport, ttl time.Duration) error {
	if report == nil {
		return nil
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "cache: encode report")
	}
	if err := r.client.Set(ctx, Key(url), raw, ttl).Err(); err != nil {
		return eris.Wrap(err, "cache: redis set")
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
