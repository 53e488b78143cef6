package dedup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/darkred07/shoe-tracker/internal/models"
)

// setNXer is the slice of the redis client the deduper uses.
type setNXer interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// RedisDeduper suppresses alerts already sent for the same product URL at the
// same price within the TTL. A redis failure keeps the alert; losing dedup is
// cheaper than losing a notification.
type RedisDeduper struct {
	client setNXer
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedis(addr string, ttl time.Duration, logger *slog.Logger) *RedisDeduper {
	return &RedisDeduper{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
		logger: logger.With("component", "dedup"),
	}
}

// NewWithClient injects the redis client directly.
func NewWithClient(client setNXer, ttl time.Duration, logger *slog.Logger) *RedisDeduper {
	return &RedisDeduper{
		client: client,
		ttl:    ttl,
		logger: logger.With("component", "dedup"),
	}
}

func (d *RedisDeduper) Filter(ctx context.Context, alerts []models.Alert) []models.Alert {
	out := make([]models.Alert, 0, len(alerts))
	for _, alert := range alerts {
		key := fmt.Sprintf("alert:%s:%.2f", alert.URL, alert.Price)

		fresh, err := d.client.SetNX(ctx, key, alert.ID, d.ttl).Result()
		if err != nil {
			d.logger.Warn("dedup check failed, keeping alert", "url", alert.URL, "error", err)
			out = append(out, alert)
			continue
		}
		if !fresh {
			d.logger.Info("suppressing repeated alert", "url", alert.URL, "price", alert.Price)
			continue
		}
		out = append(out, alert)
	}
	return out
}

// None passes every alert through. Used when no redis address is configured.
type None struct{}

func (None) Filter(_ context.Context, alerts []models.Alert) []models.Alert {
	return alerts
}
