// Package detail resolves a single result back to its full attribute set.
// Fetches are cached per identity and concurrent fetches of the same
// identity are collapsed, so rapid hover movement does not hammer the
// backing store.
package detail

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/krew-solutions/bimsearch-go/bimsearch/element"
)

const defaultCacheSize = 256

type Fetcher struct {
	finder element.Finder
	group  singleflight.Group

	mu    sync.Mutex
	cache *lruCache
}

func NewFetcher(finder element.Finder, cacheSize int) *Fetcher {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	return &Fetcher{
		finder: finder,
		cache:  newLruCache(cacheSize),
	}
}

// Fetch returns the full record for id, from cache when possible.
func (f *Fetcher) Fetch(ctx context.Context, id element.Identity) (element.Record, error) {
	f.mu.Lock()
	if r, ok := f.cache.get(id); ok {
		f.mu.Unlock()
		return r, nil
	}
	f.mu.Unlock()

	v, err, _ := f.group.Do(flightKey(id), func() (any, error) {
		r, err := f.finder.FindByIdentity(ctx, id)
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		f.cache.add(id, r)
		f.mu.Unlock()
		return r, nil
	})
	if err != nil {
		return element.Record{}, err
	}
	return v.(element.Record), nil
}

// flightKey renders the identity unambiguously. Identity.String concatenates
// container and external id without a separator, so ("c1",12) and ("c11",2)
// would collide as a fan-in key.
func flightKey(id element.Identity) string {
	return fmt.Sprintf("%s/%d", id.ContainerID, id.ExternalID)
}

// Invalidate drops one cached record.
func (f *Fetcher) Invalidate(id element.Identity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cache.remove(id)
}

// Clear drops the whole cache, e.g. after a container reload.
func (f *Fetcher) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cache.clear()
}
