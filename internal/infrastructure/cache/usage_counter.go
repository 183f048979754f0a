package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const usageKeyPrefix = "rate-limit:"

// UsageCounter tracks per-account ingestion volume in the shared cache so
// the request-rate limiter sees large-file bursts within the same window.
type UsageCounter struct {
	client *redis.Client
	window time.Duration
}

func NewUsageCounter(client *redis.Client, window time.Duration) *UsageCounter {
	if window <= 0 {
		window = time.Minute
	}
	return &UsageCounter{client: client, window: window}
}

// Record adds a file's record count (minimum 1) to the account's counter and
// refreshes the window expiry.
func (c *UsageCounter) Record(ctx context.Context, accountID string, records int64) error {
	if records < 1 {
		records = 1
	}
	key := usageKeyPrefix + accountID

	pipe := c.client.Pipeline()
	pipe.IncrBy(ctx, key, records)
	pipe.Expire(ctx, key, c.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record usage for account %s: %w", accountID, err)
	}
	return nil
}
