package redisinfra

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// IssueLimiter caps how many login codes can be requested per email within a window.
type IssueLimiter interface {
	Allow(ctx context.Context, email string) bool
}

const allowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

const keyPrefix = "enthub:otp:issue:"

type evaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisLimiter struct {
	client evaler
	window time.Duration
	max    int
}

// NewClient connects to Redis and pings it. A nil client and the ping error
// are returned when the server is unreachable.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// NewIssueLimiter returns a Redis-backed limiter shared by every API instance.
func NewIssueLimiter(client *redis.Client, window time.Duration, max int) IssueLimiter {
	window, max = normalize(window, max)
	return &redisLimiter{client: client, window: window, max: max}
}

func (l *redisLimiter) Allow(ctx context.Context, email string) bool {
	key := strings.ToLower(strings.TrimSpace(email))
	if key == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	seconds := int(l.window.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	count, err := l.client.Eval(ctx, allowScript, []string{keyPrefix + key}, seconds).Int()
	if err != nil {
		// Fail open on Redis errors.
		slog.Warn("issue limiter unavailable", "err", err)
		return true
	}
	return count <= l.max
}

type memoryLimiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	now    func() time.Time
	hits   map[string][]time.Time
}

// NewMemoryIssueLimiter returns a process-local sliding-window limiter.
func NewMemoryIssueLimiter(window time.Duration, max int) IssueLimiter {
	window, max = normalize(window, max)
	return &memoryLimiter{
		window: window,
		max:    max,
		now:    time.Now,
		hits:   make(map[string][]time.Time),
	}
}

func (l *memoryLimiter) Allow(_ context.Context, email string) bool {
	key := strings.ToLower(strings.TrimSpace(email))
	if key == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	kept := l.hits[key][:0]
	for _, ts := range l.hits[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.hits[key] = kept
		return false
	}
	l.hits[key] = append(kept, now)
	return true
}

func normalize(window time.Duration, max int) (time.Duration, int) {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return window, max
}
