package postgres

import (
	"context"
	"database/sql"

	"finsight/internal/domain/profile"
	"finsight/pkg/errors"
)

// Compile-time check
var _ profile.Repository = (*ProfileRepository)(nil)

// ProfileRepository implements profile.Repository
type ProfileRepository struct {
	db DBTX
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByID retrieves a profile by agent id
func (r *ProfileRepository) GetByID(ctx context.Context, agentID string) (*profile.Profile, error) {
	query := `
		SELECT agent_id, role, kind_of_data, motive, instructions, rules, goals,
		       max_words, created_at, updated_at
		FROM agent_profiles
		WHERE agent_id = $1
	`

	var p profile.Profile
	err := r.db.GetContext(ctx, &p, query, agentID)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrNotFound, "profile %s", agentID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get profile by id")
	}
	return &p, nil
}

// List returns all profiles ordered by id
func (r *ProfileRepository) List(ctx context.Context) ([]*profile.Profile, error) {
	var profiles []*profile.Profile

	query := `
		SELECT agent_id, role, kind_of_data, motive, instructions, rules, goals,
		       max_words, created_at, updated_at
		FROM agent_profiles
		ORDER BY agent_id`

	if err := r.db.SelectContext(ctx, &profiles, query); err != nil {
		return nil, errors.Wrap(err, "list profiles")
	}
	return profiles, nil
}

// Upsert inserts or replaces a profile
func (r *ProfileRepository) Upsert(ctx context.Context, p *profile.Profile) error {
	query := `
		INSERT INTO agent_profiles (
			agent_id, role, kind_of_data, motive, instructions, rules, goals, max_words
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (agent_id) DO UPDATE SET
			role = EXCLUDED.role,
			kind_of_data = EXCLUDED.kind_of_data,
			motive = EXCLUDED.motive,
			instructions = EXCLUDED.instructions,
			rules = EXCLUDED.rules,
			goals = EXCLUDED.goals,
			max_words = EXCLUDED.max_words,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		p.AgentID, p.Role, p.KindOfData, p.Motive, p.Instructions, p.Rules, p.Goals, p.MaxWords,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "upsert profile")
	}
	return nil
}
