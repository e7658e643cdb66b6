package runlock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "vendiq:runlock:"
	defaultTTL = 30 * time.Minute
)

// releaseScript deletes the lock only when the stored token matches, so an
// expired lease re-acquired by another run is never released by the first.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// Redis is a lease-based distributed locker. The lease TTL bounds how long a
// crashed process can block a supplier.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedis connects to the given redis URL and returns a locker.
func NewRedis(ctx context.Context, logger *slog.Logger, redisURL string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Redis{
		client: client,
		ttl:    defaultTTL,
		logger: logger.With("module", "runlock"),
	}, nil
}

func (r *Redis) Acquire(ctx context.Context, supplierID string) (func(), error) {
	key := keyPrefix + supplierID
	token := uuid.New().String()

	acquired, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire supplier lock: %w", err)
	}

	if !acquired {
		return nil, ErrRunInProgress
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := r.client.Eval(releaseCtx, releaseScript, []string{key}, token).Err()
		if err != nil {
			r.logger.Error("Failed to release supplier lock", "supplier_id", supplierID, "error", err)
		}
	}

	return release, nil
}

// Close closes the underlying redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}
