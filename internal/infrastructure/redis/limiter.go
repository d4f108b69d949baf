package redis

import (
	"fmt"

	goRedis "github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// NewRateLimiter builds a limiter shared by every instance through redis.
// rate uses the "<limit>-<period>" format, e.g. "10-M".
func NewRateLimiter(client *goRedis.Client, rate, prefix string) (*limiter.Limiter, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("limiter: rate %q: %w", rate, err)
	}
	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		return nil, fmt.Errorf("limiter: store: %w", err)
	}
	return limiter.New(store, parsed), nil
}
