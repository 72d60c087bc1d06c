package cache

import (
	"time"

	"github.com/mentorhub/mentorhub-api/internal/models"
	"github.com/mentorhub/mentorhub-api/pkg/metrics"
	gocache "github.com/patrickmn/go-cache"
)

const (
	userKeyPrefix    = "user:id:"
	cacheName        = "users"
	cacheCheckPeriod = 10 * time.Second
)

// UserCache is a read-through TTL cache for user profiles. Booking reads the
// mentor's hourly rate on every attempt; caching keeps that off the hot path
// without caching any session timeline data (conflict checks always re-read
// the store).
type UserCache struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewUserCache creates a user cache with the given TTL in seconds
func NewUserCache(ttlSeconds int) *UserCache {
	ttl := time.Duration(ttlSeconds) * time.Second
	return &UserCache{
		cache: gocache.New(ttl, cacheCheckPeriod),
		ttl:   ttl,
	}
}

// Get returns a cached user by id
func (c *UserCache) Get(id string) (*models.User, bool) {
	value, found := c.cache.Get(userKeyPrefix + id)
	if !found {
		metrics.CacheMisses.WithLabelValues(cacheName).Inc()
		return nil, false
	}

	user, ok := value.(*models.User)
	if !ok {
		metrics.CacheMisses.WithLabelValues(cacheName).Inc()
		return nil, false
	}

	metrics.CacheHits.WithLabelValues(cacheName).Inc()
	return user, true
}

// Set stores a user with the default TTL
func (c *UserCache) Set(user *models.User) {
	c.cache.Set(userKeyPrefix+user.ID, user, c.ttl)
}

// Invalidate removes a user from the cache after a profile update
func (c *UserCache) Invalidate(id string) {
	c.cache.Delete(userKeyPrefix + id)
}
