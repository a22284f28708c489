package exports

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const throttleKeyPrefix = "export:throttle:" // export:throttle:{document_id}:{actor_id}

// RateLimitedError reports an export attempted inside the throttle
// window, carrying how long the caller must wait.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("export rate limited, retry after %ds", int64(e.RetryAfter/time.Second))
}

// Throttle enforces a minimum interval between offline-doc exports per
// (document, actor). Reservations self-expire in redis, so a key being
// present is exactly "inside the window".
type Throttle struct {
	client *redis.Client
	clock  func() time.Time
}

// NewThrottle creates a throttle on the shared redis client.
func NewThrottle(client *redis.Client) *Throttle {
	return &Throttle{
		client: client,
		clock:  time.Now,
	}
}

// NewThrottleWithClock injects the clock used for the stored
// next-allowed timestamp. Tests use this to pin time.
func NewThrottleWithClock(client *redis.Client, clock func() time.Time) *Throttle {
	return &Throttle{client: client, clock: clock}
}

// CheckAndReserve reserves the export slot for (documentID, actorID)
// or returns *RateLimitedError with the remaining wait. The check and
// the reservation are a single SET NX, so concurrent exports for the
// same key can never both succeed; distinct keys never contend.
// interval <= 0 disables throttling and writes nothing.
func (t *Throttle) CheckAndReserve(ctx context.Context, documentID, actorID string, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}

	key := t.key(documentID, actorID)
	nextAllowed := t.clock().Add(interval).Unix()

	ok, err := t.client.SetNX(ctx, key, nextAllowed, interval).Result()
	if err != nil {
		return fmt.Errorf("throttle reserve: %w", err)
	}
	if ok {
		return nil
	}

	ttl, err := t.client.PTTL(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("throttle ttl: %w", err)
	}

	return &RateLimitedError{RetryAfter: ceilSeconds(ttl)}
}

func (t *Throttle) key(documentID, actorID string) string {
	return throttleKeyPrefix + documentID + ":" + actorID
}

// ceilSeconds rounds up to whole seconds and never reports zero: a
// loser of a same-millisecond race still gets a positive wait.
func ceilSeconds(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Second
	}
	secs := (d + time.Second - 1) / time.Second
	return secs * time.Second
}
