package ranking

import (
	"context"
	"sync"
	"time"

	"github.com/okian/golazo/internal/domain/types"
)

// Cache stores computed ranking views under a TTL. A miss is not an error;
// implementations report it with the second return value.
type Cache interface {
	Get(ctx context.Context, scope types.Scope) (types.View, bool, error)
	Set(ctx context.Context, view types.View, ttl time.Duration) error
	Delete(ctx context.Context, scope types.Scope) error
}

// memoryCache implements Cache with a mutex-guarded map and lazy expiry.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	view      types.View
	expiresAt time.Time
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() Cache {
	return &memoryCache{entries: make(map[string]memoryEntry)}
}

func (c *memoryCache) Get(_ context.Context, scope types.Scope) (types.View, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[scope.Key()]
	c.mu.RUnlock()

	if !ok || time.Now().After(e.expiresAt) {
		return types.View{}, false, nil
	}
	return e.view, true, nil
}

func (c *memoryCache) Set(_ context.Context, view types.View, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[view.Scope.Key()] = memoryEntry{
		view:      view,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (c *memoryCache) Delete(_ context.Context, scope types.Scope) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, scope.Key())
	return nil
}
