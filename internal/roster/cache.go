// Package roster caches trip rosters in front of the membership table.
package roster

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/trypzy/backend/internal/storage/models"
)

// Source loads a roster from the system of record.
type Source interface {
	Roster(ctx context.Context, tripID string) (*models.Roster, error)
}

type entry struct {
	roster  *models.Roster
	expires time.Time
}

// Cache is a size-bounded, TTL-expiring roster cache. Missing trips are not
// cached.
type Cache struct {
	source Source
	cache  *lru.Cache
	ttl    time.Duration
	now    func() time.Time
}

// NewCache creates a new roster cache.
func NewCache(source Source, size int, ttl time.Duration) (*Cache, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create roster cache: %w", err)
	}
	return &Cache{source: source, cache: cache, ttl: ttl, now: time.Now}, nil
}

// Roster returns the cached roster for tripID, loading it on a miss.
func (c *Cache) Roster(ctx context.Context, tripID string) (*models.Roster, error) {
	if v, ok := c.cache.Get(tripID); ok {
		e := v.(entry)
		if c.now().Before(e.expires) {
			return e.roster, nil
		}
		c.cache.Remove(tripID)
	}

	r, err := c.source.Roster(ctx, tripID)
	if err != nil || r == nil {
		return r, err
	}
	c.cache.Add(tripID, entry{roster: r, expires: c.now().Add(c.ttl)})
	return r, nil
}

// Invalidate drops the cached roster of tripID.
func (c *Cache) Invalidate(tripID string) {
	c.cache.Remove(tripID)
}

// Len returns the number of cached rosters.
func (c *Cache) Len() int {
	return c.cache.Len()
}
