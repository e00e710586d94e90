package profile

import "context"

// Repository reads and administers agent profiles
type Repository interface {
	// GetByID returns errors.ErrNotFound when no profile matches
	GetByID(ctx context.Context, agentID string) (*Profile, error)
	List(ctx context.Context) ([]*Profile, error)
	Upsert(ctx context.Context, p *Profile) error
}
