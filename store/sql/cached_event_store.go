package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-tether/core"
)

const bindingEventsCacheKeyPrefix = "go-tether::binding_events::v1"

// CachedBindingEventStore layers a cache over per-binding event reads.
// Record writes through and invalidates the touched binding's cache entry;
// arbitrary List filters always hit the base store.
type CachedBindingEventStore struct {
	base  core.BindingEventStore
	cache repositorycache.CacheService
}

func NewCachedBindingEventStore(
	base core.BindingEventStore,
	cacheService repositorycache.CacheService,
) (*CachedBindingEventStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base binding event store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: binding event cache service is required")
	}
	return &CachedBindingEventStore{base: base, cache: cacheService}, nil
}

// BindingEventsCacheKey returns the deterministic cache key contract for
// per-binding event reads: go-tether::binding_events::v1::<binding_id> with
// the binding segment URL-path escaped.
func BindingEventsCacheKey(bindingID string) (string, error) {
	bindingID = strings.TrimSpace(bindingID)
	if bindingID == "" {
		return "", fmt.Errorf("sqlstore: binding id is required")
	}
	return bindingEventsCacheKeyPrefix + "::" + url.PathEscape(bindingID), nil
}

func (s *CachedBindingEventStore) Record(ctx context.Context, event core.BindingEvent) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached binding event store is not configured")
	}
	if err := s.base.Record(ctx, event); err != nil {
		return err
	}
	cacheKey, err := BindingEventsCacheKey(event.BindingID)
	if err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, cacheKey); err != nil {
		return fmt.Errorf("sqlstore: invalidate binding events cache: %w", err)
	}
	return nil
}

func (s *CachedBindingEventStore) List(ctx context.Context, filter core.BindingEventFilter) (core.BindingEventPage, error) {
	if s == nil || s.base == nil {
		return core.BindingEventPage{}, fmt.Errorf("sqlstore: cached binding event store is not configured")
	}
	return s.base.List(ctx, filter)
}

// ListForBinding serves the first page of a binding's events through the
// cache.
func (s *CachedBindingEventStore) ListForBinding(ctx context.Context, bindingID string, perPage int) (core.BindingEventPage, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.BindingEventPage{}, fmt.Errorf("sqlstore: cached binding event store is not configured")
	}
	cacheKey, err := BindingEventsCacheKey(bindingID)
	if err != nil {
		return core.BindingEventPage{}, err
	}
	return repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.BindingEventPage, error) {
		return s.base.List(ctx, core.BindingEventFilter{
			BindingID: strings.TrimSpace(bindingID),
			Page:      1,
			PerPage:   perPage,
		})
	})
}

// Prune delegates to the base store when it supports retention. Cached
// per-binding pages may briefly serve pruned rows until their next
// invalidation.
func (s *CachedBindingEventStore) Prune(ctx context.Context, policy core.EventRetentionPolicy) (int, error) {
	if s == nil || s.base == nil {
		return 0, fmt.Errorf("sqlstore: cached binding event store is not configured")
	}
	pruner, ok := s.base.(core.BindingEventPruner)
	if !ok {
		return 0, nil
	}
	return pruner.Prune(ctx, policy)
}
