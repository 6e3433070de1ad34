package ranking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/golazo/internal/domain/types"
)

// redisCache implements Cache on Redis so multiple service replicas share
// one set of computed views. Views are stored as JSON under a TTL.
type redisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache wraps a connected Redis client.
func NewRedisCache(client *redis.Client) Cache {
	return &redisCache{
		client: client,
		prefix: "golazo:ranking:",
	}
}

func (c *redisCache) key(scope types.Scope) string {
	return c.prefix + scope.Key()
}

func (c *redisCache) Get(ctx context.Context, scope types.Scope) (types.View, bool, error) {
	raw, err := c.client.Get(ctx, c.key(scope)).Result()
	if errors.Is(err, redis.Nil) {
		return types.View{}, false, nil
	}
	if err != nil {
		return types.View{}, false, fmt.Errorf("redis get %s: %w", scope.Key(), err)
	}

	var view types.View
	if err := json.Unmarshal([]byte(raw), &view); err != nil {
		// A corrupt entry is treated as a miss; the next Set overwrites it.
		return types.View{}, false, nil
	}
	return view, true, nil
}

func (c *redisCache) Set(ctx context.Context, view types.View, ttl time.Duration) error {
	raw, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("marshal view %s: %w", view.Scope.Key(), err)
	}
	if err := c.client.Set(ctx, c.key(view.Scope), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", view.Scope.Key(), err)
	}
	return nil
}

func (c *redisCache) Delete(ctx context.Context, scope types.Scope) error {
	if err := c.client.Del(ctx, c.key(scope)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", scope.Key(), err)
	}
	return nil
}
