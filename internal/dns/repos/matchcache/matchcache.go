// Package matchcache memoizes zone lookups by query name.
package matchcache

import (
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/udnsd/udns/internal/dns/repos/zone"
)

var ErrInvalidSize = errors.New("match cache size must not be negative")

// Matcher finds the zone that answers for a query name.
type Matcher interface {
	Match(qname string) (*zone.ZoneRecord, bool)
}

// entry stores misses too, as a nil zone.
type entry struct {
	zone *zone.ZoneRecord
}

// Cache is a Matcher that remembers the result of the wrapped Matcher in an LRU.
// The wrapped Matcher must be immutable; cached results are never invalidated.
type Cache struct {
	next Matcher
	lru  *lru.Cache[string, entry]
}

// New wraps m with an LRU of size entries. A size of 0 disables caching and
// every lookup goes straight to m.
func New(m Matcher, size int) (*Cache, error) {
	if size < 0 {
		return nil, ErrInvalidSize
	}
	c := &Cache{next: m}
	if size == 0 {
		return c, nil
	}
	backing, err := lru.New[string, entry](size)
	if err != nil {
		return nil, err
	}
	c.lru = backing
	return c, nil
}

// Match returns the cached result for qname, consulting the wrapped Matcher
// on a miss.
func (c *Cache) Match(qname string) (*zone.ZoneRecord, bool) {
	if c.lru == nil {
		return c.next.Match(qname)
	}
	if e, ok := c.lru.Get(qname); ok {
		return e.zone, e.zone != nil
	}
	z, ok := c.next.Match(qname)
	if !ok {
		z = nil
	}
	c.lru.Add(qname, entry{zone: z})
	return z, ok
}

// Len returns the number of cached names.
func (c *Cache) Len() int {
	if c.lru == nil {
		return 0
	}
	return c.lru.Len()
}

var _ Matcher = (*Cache)(nil)
var _ Matcher = (*zone.Table)(nil)
