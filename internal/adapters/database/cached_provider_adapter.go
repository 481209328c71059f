package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/healia/backend/internal/domain/entities"
	"github.com/zatekoja/healia/backend/internal/domain/providers"
	apperrors "github.com/zatekoja/healia/backend/pkg/errors"
)

const providersListCacheKey = "providers:list"

// CachedProviderAdapter keeps a JSON snapshot of the provider list in a cache.
// Availability changes show up once the snapshot expires or is invalidated.
type CachedProviderAdapter struct {
	adapter providers.DirectoryProvider
	cache   providers.CacheProvider
	ttl     time.Duration
}

// NewCachedProviderAdapter wraps adapter with a snapshot cache
func NewCachedProviderAdapter(adapter providers.DirectoryProvider, cache providers.CacheProvider, ttl time.Duration) *CachedProviderAdapter {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedProviderAdapter{
		adapter: adapter,
		cache:   cache,
		ttl:     ttl,
	}
}

// ListProviders returns the cached snapshot, refreshing it on a miss
func (a *CachedProviderAdapter) ListProviders(ctx context.Context) ([]*entities.Provider, error) {
	cached, err := a.cache.Get(ctx, providersListCacheKey)
	if err == nil {
		var list []*entities.Provider
		uerr := json.Unmarshal(cached, &list)
		if uerr == nil {
			return list, nil
		}
		log.Warn().Err(uerr).Msg("Failed to unmarshal cached provider list")
	} else if !errors.Is(err, providers.ErrCacheMiss) {
		log.Warn().Err(err).Msg("Provider cache unavailable")
	}

	list, err := a.adapter.ListProviders(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(list); err == nil {
		if err := a.cache.Set(ctx, providersListCacheKey, data, a.ttl); err != nil {
			log.Warn().Err(err).Msg("Failed to cache provider list")
		}
	}
	return list, nil
}

// GetProvider looks the provider up in the snapshot
func (a *CachedProviderAdapter) GetProvider(ctx context.Context, id string) (*entities.Provider, error) {
	list, err := a.ListProviders(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, apperrors.NewNotFoundError(fmt.Sprintf("provider with id %s not found", id))
}

// Invalidate drops the snapshot
func (a *CachedProviderAdapter) Invalidate(ctx context.Context) error {
	return a.cache.Delete(ctx, providersListCacheKey)
}
