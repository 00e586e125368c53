package geo

import (
	"context"
	"errors"

	"github.com/rshade/medcarbon/internal/engine"
	"github.com/rshade/medcarbon/internal/engine/cache"
	"github.com/rshade/medcarbon/internal/logging"
)

const cacheNamespace = "sea"

// CachedRouter memoises another router's distances in a file cache.
// Failures are not cached.
type CachedRouter struct {
	next  engine.SeaRouter
	store *cache.FileStore
}

// NewCachedRouter wraps next. A nil or disabled store passes every call through.
func NewCachedRouter(next engine.SeaRouter, store *cache.FileStore) *CachedRouter {
	return &CachedRouter{next: next, store: store}
}

// SeaDistance returns the cached distance or asks the wrapped router.
func (r *CachedRouter) SeaDistance(ctx context.Context, from, to string) (float64, error) {
	log := logging.FromContext(ctx)
	if !r.store.IsEnabled() {
		return r.next.SeaDistance(ctx, from, to)
	}

	key := cache.Key(cacheNamespace, from, to)
	var km float64
	err := r.store.GetJSON(key, &km)
	if err == nil {
		log.Debug().
			Ctx(ctx).
			Str("component", "geo").
			Str("from", from).
			Str("to", to).
			Float64("km", km).
			Msg("sea distance cache hit")
		return km, nil
	}
	if !errors.Is(err, cache.ErrCacheNotFound) && !errors.Is(err, cache.ErrCacheExpired) {
		log.Warn().Ctx(ctx).Str("component", "geo").Err(err).Msg("reading sea distance cache")
	}

	km, err = r.next.SeaDistance(ctx, from, to)
	if err != nil {
		return 0, err
	}
	if setErr := r.store.SetJSON(key, km); setErr != nil {
		log.Warn().Ctx(ctx).Str("component", "geo").Err(setErr).Msg("writing sea distance cache")
	}
	return km, nil
}
