package profiles

import (
	"context"
	"sort"
	"sync"
	"time"

	"finsight/internal/domain/profile"
	"finsight/pkg/errors"
)

// Compile-time check
var _ profile.Repository = (*StaticSource)(nil)

// StaticSource keeps profiles in memory, for tests and offline runs
type StaticSource struct {
	mu       sync.RWMutex
	profiles map[string]profile.Profile
}

// NewStaticSource creates a source holding copies of the given profiles
func NewStaticSource(ps ...profile.Profile) *StaticSource {
	s := &StaticSource{profiles: make(map[string]profile.Profile, len(ps))}
	for _, p := range ps {
		s.profiles[p.AgentID] = p
	}
	return s
}

// GetByID returns a copy of the profile
func (s *StaticSource) GetByID(_ context.Context, agentID string) (*profile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[agentID]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "profile %s", agentID)
	}
	return &p, nil
}

// List returns copies of all profiles ordered by id
func (s *StaticSource) List(_ context.Context) ([]*profile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*profile.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AgentID < out[j].AgentID })
	return out, nil
}

// Upsert stores a copy of the profile
func (s *StaticSource) Upsert(_ context.Context, p *profile.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := s.profiles[p.AgentID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.profiles[p.AgentID] = *p
	return nil
}
