package awsivy

import "sync"

// cache holds every Resource a Store has resolved or listed, keyed by URI.
// Entries are never evicted: within one session a URI keeps answering with
// the snapshot taken the first time it was seen.
type cache struct {
	hash map[string]*Resource
	lock sync.RWMutex
}

func newCache() *cache {
	return &cache{
		hash: make(map[string]*Resource),
	}
}

// Get value from cache if exist
func (c *cache) Get(uri string) (*Resource, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	r, ok := c.hash[uri]
	return r, ok
}

// Add value to cache, replacing any previous snapshot
func (c *cache) Add(uri string, r *Resource) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.hash[uri] = r
}

// Len returns the number of cached resources
func (c *cache) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return len(c.hash)
}
