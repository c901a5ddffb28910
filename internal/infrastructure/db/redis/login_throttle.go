package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultFailureWindow = 15 * time.Minute

// LoginThrottle counts login attempts per username in Redis. The counter
// expires once no attempt has been counted for window.
// Key format: login:failures:<username>
type LoginThrottle struct {
	client redis.Cmdable
	window time.Duration
}

// NewLoginThrottle creates a LoginThrottle wrapping the given Redis client.
func NewLoginThrottle(client redis.Cmdable, window time.Duration) *LoginThrottle {
	if window <= 0 {
		window = defaultFailureWindow
	}
	return &LoginThrottle{client: client, window: window}
}

// CountAttempt increments the counter and restarts its window. INCR is
// atomic, so concurrent callers each get a distinct count.
func (t *LoginThrottle) CountAttempt(ctx context.Context, username string) (int64, error) {
	key := t.key(username)

	pipe := t.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, t.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("throttle incr: %w", err)
	}
	return incr.Val(), nil
}

// Reset clears the counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, username string) error {
	if err := t.client.Del(ctx, t.key(username)).Err(); err != nil {
		return fmt.Errorf("throttle reset: %w", err)
	}
	return nil
}

func (t *LoginThrottle) key(username string) string {
	return fmt.Sprintf("login:failures:%s", username)
}
