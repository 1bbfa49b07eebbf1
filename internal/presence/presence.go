package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	onlineKeyPrefix = "presence:online:"
	loginKeyPrefix  = "ratelimit:login:"

	// DefaultOnlineTTL is how long a presence mark survives without a refresh.
	// Connected websocket clients refresh it on every ping.
	DefaultOnlineTTL = 90 * time.Second

	// DefaultLoginLimit and DefaultLoginWindow bound login attempts per
	// username within a fixed window
	DefaultLoginLimit  = 10
	DefaultLoginWindow = time.Minute
)

// NewClient connects to Redis and verifies the connection with a ping
func NewClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,

		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %v", err)
	}

	return client, nil
}

// Tracker records which users currently hold an open websocket connection.
// A nil Tracker (Redis not configured) is safe to use: everyone reads as
// offline and marks are no-ops.
type Tracker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTracker creates a presence tracker. A zero ttl uses DefaultOnlineTTL.
func NewTracker(client *redis.Client, ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = DefaultOnlineTTL
	}
	return &Tracker{client: client, ttl: ttl}
}

// MarkOnline flags the user as online, refreshing the TTL
func (t *Tracker) MarkOnline(ctx context.Context, userID string) error {
	if t == nil || t.client == nil {
		return nil
	}

	if err := t.client.Set(ctx, onlineKeyPrefix+userID, "1", t.ttl).Err(); err != nil {
		return fmt.Errorf("failed to mark user online: %v", err)
	}
	return nil
}

// MarkOffline removes the user's presence mark immediately
func (t *Tracker) MarkOffline(ctx context.Context, userID string) error {
	if t == nil || t.client == nil {
		return nil
	}

	if err := t.client.Del(ctx, onlineKeyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("failed to mark user offline: %v", err)
	}
	return nil
}

// IsOnline reports whether the user has a live presence mark
func (t *Tracker) IsOnline(ctx context.Context, userID string) (bool, error) {
	if t == nil || t.client == nil {
		return false, nil
	}

	n, err := t.client.Exists(ctx, onlineKeyPrefix+userID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check presence: %v", err)
	}
	return n > 0, nil
}

// LoginLimiter throttles login attempts per identifier using a fixed
// window counter in Redis. A nil LoginLimiter allows everything.
type LoginLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewLoginLimiter creates a limiter. Zero values use the defaults.
func NewLoginLimiter(client *redis.Client, limit int, window time.Duration) *LoginLimiter {
	if limit <= 0 {
		limit = DefaultLoginLimit
	}
	if window <= 0 {
		window = DefaultLoginWindow
	}
	return &LoginLimiter{client: client, limit: limit, window: window}
}

// Allow records an attempt for the identifier and reports whether it is
// within the limit. The window starts at the first attempt and the key
// expires with it.
func (l *LoginLimiter) Allow(ctx context.Context, identifier string) (bool, error) {
	if l == nil || l.client == nil {
		return true, nil
	}

	key := loginKeyPrefix + identifier

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to count login attempts: %v", err)
	}

	// First attempt in the window starts the clock
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit window: %v", err)
		}
	}

	return count <= int64(l.limit), nil
}

// Reset clears the attempt counter for an identifier, used after a
// successful login
func (l *LoginLimiter) Reset(ctx context.Context, identifier string) error {
	if l == nil || l.client == nil {
		return nil
	}

	if err := l.client.Del(ctx, loginKeyPrefix+identifier).Err(); err != nil {
		return fmt.Errorf("failed to reset rate limit: %v", err)
	}
	return nil
}
