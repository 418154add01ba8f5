package runlock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis locks across processes with SET NX PX. TTL bounds how long a crashed
// holder can block others; it must exceed the longest expected run.
type Redis struct {
	client *redis.Client
	prefix string
	TTL    time.Duration
	Poll   time.Duration
}

// ConnectRedis dials addr and pings it.
func ConnectRedis(ctx context.Context, addr string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedis(client), nil
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, prefix: "timetable:runlock:", TTL: 10 * time.Minute, Poll: 200 * time.Millisecond}
}

// Acquire polls until the key is set or ctx is done.
func (r *Redis) Acquire(ctx context.Context, name string) (func() error, error) {
	key := r.prefix + name
	token := uuid.NewString()
	for {
		ok, err := r.client.SetNX(ctx, key, token, r.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("error acquiring %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.Poll):
		}
	}
	return func() error {
		n, err := releaseScript.Run(context.Background(), r.client, []string{key}, token).Int()
		if err != nil {
			return fmt.Errorf("error releasing %s: %w", key, err)
		}
		if n == 0 {
			return ErrNotHeld
		}
		return nil
	}, nil
}

// Close closes the Redis connection
func (r *Redis) Close() error {
	return r.client.Close()
}
