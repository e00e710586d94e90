package profiles

import (
	"context"
	"time"

	"finsight/internal/domain/profile"
	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

// Source is where profiles live
type Source interface {
	GetByID(ctx context.Context, agentID string) (*profile.Profile, error)
}

// Cache stores profiles as JSON
type Cache interface {
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, dest interface{}) error
}

// Registry is the read path for agent profiles. Profiles are treated as immutable by the workflows;
// the cache only saves a round trip and is never authoritative.
type Registry struct {
	source Source
	cache  Cache
	ttl    time.Duration
	log    *logger.Logger
}

// NewRegistry creates a registry. cache may be nil.
func NewRegistry(source Source, cache Cache, ttl time.Duration) *Registry {
	return &Registry{
		source: source,
		cache:  cache,
		ttl:    ttl,
		log:    logger.Get().With("component", "profile_registry"),
	}
}

// Get returns the profile for agentID, or errors.ErrNotFound
func (r *Registry) Get(ctx context.Context, agentID string) (*profile.Profile, error) {
	if r.cache != nil {
		var cached profile.Profile
		err := r.cache.GetJSON(ctx, cacheKey(agentID), &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, errors.ErrNotFound) {
			r.log.Warn("profile cache read failed", "agent_id", agentID, "error", err)
		}
	}

	p, err := r.source.GetByID(ctx, agentID)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.SetJSON(ctx, cacheKey(agentID), p, r.ttl); err != nil {
			r.log.Warn("profile cache write failed", "agent_id", agentID, "error", err)
		}
	}
	return p, nil
}

func cacheKey(agentID string) string {
	return "profile:" + agentID
}
