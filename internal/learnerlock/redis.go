package learnerlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"examquiz/internal/logger"
)

const (
	keyPrefix    = "examquiz:learner-lock:"
	retryBackoff = 25 * time.Millisecond
)

// ErrLeaseLost is returned by a release when the lease had already expired or been
// taken over by another holder
var ErrLeaseLost = errors.New("learner lock lease lost before release")

// releaseScript deletes the lease only if this holder still owns it
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a lease lock shared by every replica pointing at the same Redis. A lease
// expires after ttl so a crashed holder cannot block a learner forever.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewRedis creates a Redis-backed locker. Failed releases are logged to log, which
// may be nil.
func NewRedis(client *redis.Client, ttl time.Duration, log *logger.Logger) *Redis {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Redis{client: client, ttl: ttl, log: log}
}

// Lock polls SET NX until the lease is acquired or ctx is done
func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to acquire learner lock: %w", err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryBackoff):
		}
	}

	return r.unlocker(redisKey, token), nil
}

func (r *Redis) unlocker(redisKey, token string) func() {
	return func() {
		// detached so a cancelled request still frees its lease
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := r.release(releaseCtx, redisKey, token); err != nil {
			r.log.Warn("learner lock release failed", "lock", redisKey, "ttl", r.ttl.String(), "error", err)
		}
	}
}

// release deletes the lease if token still owns it
func (r *Redis) release(ctx context.Context, redisKey, token string) error {
	deleted, err := releaseScript.Run(ctx, r.client, []string{redisKey}, token).Int64()
	if err != nil {
		return fmt.Errorf("failed to release learner lock: %w", err)
	}
	if deleted == 0 {
		return ErrLeaseLost
	}
	return nil
}
