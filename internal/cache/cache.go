// Package cache shares feature flag records between service instances over redis
// and spreads flag invalidations to every instance.
package cache

// CacheUpdater keeps local caches in line with changes announced by other instances.
// Listen blocks until Stop is called or subscription breaks.
type CacheUpdater interface {
	Listen() error
	Stop()
}

// Invalidatable drops cached flag state
type Invalidatable interface {
	Invalidate()
}
