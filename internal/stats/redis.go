package stats

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const redisKey = "crossduel:counters"

// decrScript decrements a hash field without letting it go negative.
var decrScript = redis.NewScript(`
local v = redis.call('HINCRBY', KEYS[1], ARGV[1], -1)
if v < 0 then
  redis.call('HSET', KEYS[1], ARGV[1], 0)
  v = 0
end
return v
`)

// Redis keeps counters in one hash so several servers can share them.
type Redis struct {
	rdb *redis.Client
	key string
}

// OpenRedis connects using a redis:// URL and checks the connection.
func OpenRedis(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{rdb: rdb, key: redisKey}, nil
}

func (r *Redis) Increment(ctx context.Context, name string) error {
	if !ValidName(name) {
		return ErrBadName
	}
	return r.rdb.HIncrBy(ctx, r.key, name, 1).Err()
}

func (r *Redis) Decrement(ctx context.Context, name string) error {
	if !ValidName(name) {
		return ErrBadName
	}
	return decrScript.Run(ctx, r.rdb, []string{r.key}, name).Err()
}

func (r *Redis) Read(ctx context.Context) (Snapshot, error) {
	raw, err := r.rdb.HGetAll(ctx, r.key).Result()
	if err != nil {
		return Snapshot{}, err
	}
	values := make(map[string]int64, len(raw))
	for k, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Snapshot{}, fmt.Errorf("counter %s: %w", k, err)
		}
		values[k] = n
	}
	return snapshot(values), nil
}

func (r *Redis) Close() error { return r.rdb.Close() }
