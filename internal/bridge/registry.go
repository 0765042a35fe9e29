package bridge

import (
	"github.com/patrickmn/go-cache"
)

// registry remembers which activity ids are live. An id stays live until it
// is stopped, however long ago its countdown ran out.
type registry struct {
	live *cache.Cache
}

func newRegistry() *registry {
	return &registry{live: cache.New(cache.NoExpiration, 0)}
}

func (r *registry) track(id string) {
	r.live.Set(id, struct{}{}, cache.NoExpiration)
}

func (r *registry) isLive(id string) bool {
	_, ok := r.live.Get(id)
	return ok
}

func (r *registry) forget(id string) {
	r.live.Delete(id)
}
