package sync

import (
	"sync"
	"time"

	"opssight/internal/platform/models"
)

type cachedUser struct {
	user     *models.User
	cachedAt time.Time
}

// lookupCache memoizes login-to-user resolution for webhook bursts.
// Only positive lookups are cached; misses always hit the store.
type lookupCache struct {
	store sync.Map // map[login]*cachedUser
	ttl   time.Duration
}

func newLookupCache(ttl time.Duration) *lookupCache {
	return &lookupCache{ttl: ttl}
}

func (c *lookupCache) Get(login string) (*models.User, bool) {
	val, ok := c.store.Load(login)
	if !ok {
		return nil, false
	}

	entry := val.(*cachedUser)
	if time.Since(entry.cachedAt) > c.ttl {
		c.store.Delete(login)
		return nil, false
	}
	return entry.user, true
}

func (c *lookupCache) Set(login string, user *models.User) {
	c.store.Store(login, &cachedUser{user: user, cachedAt: time.Now()})
}

func (c *lookupCache) Invalidate(login string) {
	c.store.Delete(login)
}
